package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestOutcome_Error(t *testing.T) {
	synced := IngestOutcome{Key: "k", Status: StatusSynced}
	assert.NoError(t, synced.Error())
	assert.False(t, synced.Retryable())

	failed := IngestOutcome{Key: "k", Status: StatusIngestFailed, Step: StepRelational, Err: ErrStoreUnavailable}
	err := failed.Error()
	assert.True(t, errors.Is(err, ErrIngestFailed))
	assert.True(t, errors.Is(err, ErrStoreUnavailable))
	assert.Contains(t, err.Error(), "relational")
	assert.True(t, failed.Retryable())

	partial := IngestOutcome{
		Key:    "k",
		Status: StatusPartiallySynced,
		FieldFailures: []FieldFailure{
			{Field: FieldAbstract, Step: StepVectorWrite, Err: ErrStoreUnavailable},
		},
	}
	err = partial.Error()
	assert.True(t, errors.Is(err, ErrPartiallySynced))
	assert.True(t, errors.Is(err, ErrStoreUnavailable))
	assert.Contains(t, err.Error(), "vector_write abstract")
	assert.True(t, partial.Retryable())
}

func TestIngestOutcome_IncompleteIsNotRetryable(t *testing.T) {
	o := IngestOutcome{
		Status: StatusIngestFailed,
		Step:   StepIdentity,
		Err:    fmt.Errorf("%w: missing title", ErrIncompleteDocument),
	}
	assert.False(t, o.Retryable())
}

func TestIngestReport_Add(t *testing.T) {
	var r IngestReport
	r.Add(IngestOutcome{Status: StatusSynced})
	r.Add(IngestOutcome{Status: StatusSynced})
	r.Add(IngestOutcome{Status: StatusPartiallySynced})
	r.Add(IngestOutcome{Status: StatusIngestFailed})

	assert.Equal(t, 2, r.Synced)
	assert.Equal(t, 1, r.PartiallySynced)
	assert.Equal(t, 1, r.Failed)
}

func TestEventType(t *testing.T) {
	assert.Equal(t, "article.synced", EventType(StatusSynced))
	assert.Equal(t, "article.partially_synced", EventType(StatusPartiallySynced))
	assert.Equal(t, "article.ingest_failed", EventType(StatusIngestFailed))
}

func TestIngestOutcome_MarshalJSON(t *testing.T) {
	o := IngestOutcome{
		Key:     "k",
		Status:  StatusPartiallySynced,
		Written: []Field{FieldTitle},
		FieldFailures: []FieldFailure{
			{Field: FieldSummary, Step: StepVectorWrite, Err: errors.New("disk full")},
		},
	}

	data, err := json.Marshal(o)
	require.NoError(t, err)

	var view map[string]any
	require.NoError(t, json.Unmarshal(data, &view))
	assert.Equal(t, "partially_synced", view["status"])
	assert.Equal(t, []any{"title"}, view["written"])
	assert.Equal(t, true, view["retryable"])
	assert.Contains(t, view["error"], "disk full")

	failures := view["field_failures"].([]any)
	require.Len(t, failures, 1)
	assert.Equal(t, "summary", failures[0].(map[string]any)["field"])
}
