package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/litsearch/internal/core/domain"
)

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [files...]", ingestCmd.Use)
	assert.NotNil(t, ingestCmd.Flags().Lookup("watch"))
	assert.NotNil(t, ingestCmd.Flags().Lookup("workers"))
}

func TestIngestCmd_File(t *testing.T) {
	setupTestServices(t)
	path := filepath.Join(t.TempDir(), "batch.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(testArticlesJSONL), 0o600))

	out, err := execute(t, "", "ingest", path, "--workers", "2")

	require.NoError(t, err)
	assert.Contains(t, out, path+": 2 synced, 0 partially synced, 0 failed")
}

func TestIngestCmd_Stdin(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, `[{"title":"A study","source":"nature.com"}]`, "ingest", "-")

	require.NoError(t, err)
	assert.Contains(t, out, "-: 1 synced")
}

func TestIngestCmd_JSONReport(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, `{"title":"A study","source":"nature.com"}`, "ingest", "-", "--json")

	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.EqualValues(t, 1, report["synced"])
}

func TestIngestCmd_IncompleteArticleFails(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, `{"abstract":"no title"}`, "ingest", "-")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIngestFailed)
	assert.Contains(t, out, "failed   (no key)")
}

func TestIngestCmd_RequiresInput(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "ingest")

	assert.ErrorIs(t, err, errUsage)
}

func TestIngestCmd_MissingFile(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "ingest", filepath.Join(t.TempDir(), "missing.json"))

	assert.Error(t, err)
}

func TestIngestCmd_ServiceNotConfigured(t *testing.T) {
	setServices(t, nil, nil, nil, nil)

	_, err := execute(t, "", "ingest", "-")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest service not configured")
}

func TestResyncCmd_NothingToDo(t *testing.T) {
	setupTestServices(t)
	seedArticles(t)

	out, err := execute(t, "", "resync")

	require.NoError(t, err)
	assert.Contains(t, out, "All articles are fully synced.")
}

func TestResyncCmd_RejectsArgs(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "resync", "extra")

	assert.Error(t, err)
}

func TestPrintReport_PartialHint(t *testing.T) {
	setupTestServices(t)
	report := domain.IngestReport{
		Outcomes: []domain.IngestOutcome{{
			Key:    "k1",
			Status: domain.StatusPartiallySynced,
			FieldFailures: []domain.FieldFailure{{
				Field: domain.FieldAbstract, Step: domain.StepEmbed, Err: domain.ErrEmbeddingUnavailable,
			}},
		}},
		PartiallySynced: 1,
	}
	buf := new(strings.Builder)
	ingestCmd.SetOut(buf)
	defer ingestCmd.SetOut(nil)

	require.NoError(t, printReport(ingestCmd, "batch.json", report))

	assert.Contains(t, buf.String(), "partial  k1")
	assert.Contains(t, buf.String(), "litsearch resync")
}
