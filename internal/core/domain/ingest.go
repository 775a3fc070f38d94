package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// IngestStatus is the cross-store sync state reached by one ingestion.
type IngestStatus string

// Ingest statuses.
const (
	// StatusSynced means the relational row and every vector record were written.
	StatusSynced IngestStatus = "synced"

	// StatusPartiallySynced means the relational row exists but some vectors are missing.
	StatusPartiallySynced IngestStatus = "partially_synced"

	// StatusIngestFailed means nothing was written for the article.
	StatusIngestFailed IngestStatus = "ingest_failed"
)

// String returns the string representation.
func (s IngestStatus) String() string {
	return string(s)
}

// IngestStep names the pipeline step a failure happened in.
type IngestStep string

// Ingest steps.
const (
	StepIdentity    IngestStep = "identity"
	StepRelational  IngestStep = "relational"
	StepEmbed       IngestStep = "embed"
	StepVectorWrite IngestStep = "vector_write"
)

// FieldFailure records a failed embed or vector write for one field.
type FieldFailure struct {
	Field Field
	Step  IngestStep
	Err   error
}

// Error implements error.
func (f FieldFailure) Error() string {
	return fmt.Sprintf("%s %s: %v", f.Step, f.Field, f.Err)
}

// Unwrap returns the underlying cause.
func (f FieldFailure) Unwrap() error {
	return f.Err
}

// IngestOutcome reports what one ingestion achieved.
type IngestOutcome struct {
	// Key is empty when identity derivation failed.
	Key string

	// Status is the sync state reached.
	Status IngestStatus

	// Step is the failing step when Status is StatusIngestFailed.
	Step IngestStep

	// Err is the cause when Status is StatusIngestFailed.
	Err error

	// Written lists fields whose vector record is now current.
	Written []Field

	// FieldFailures lists per-field embed or vector-write failures.
	FieldFailures []FieldFailure
}

// Error returns nil for a synced outcome, otherwise an error wrapping
// ErrIngestFailed or ErrPartiallySynced together with the step causes.
func (o IngestOutcome) Error() error {
	switch o.Status {
	case StatusSynced:
		return nil
	case StatusIngestFailed:
		return fmt.Errorf("%w: %s: %w", ErrIngestFailed, o.Step, o.Err)
	case StatusPartiallySynced:
		errs := make([]error, 0, len(o.FieldFailures)+1)
		errs = append(errs, ErrPartiallySynced)
		for _, f := range o.FieldFailures {
			errs = append(errs, f)
		}
		return errors.Join(errs...)
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, o.Status)
	}
}

// MarshalJSON renders errors as strings and fields by name.
func (o IngestOutcome) MarshalJSON() ([]byte, error) {
	type failure struct {
		Field string `json:"field"`
		Step  string `json:"step"`
		Error string `json:"error"`
	}
	view := struct {
		Key       string    `json:"key,omitempty"`
		Status    string    `json:"status"`
		Step      string    `json:"step,omitempty"`
		Error     string    `json:"error,omitempty"`
		Written   []string  `json:"written,omitempty"`
		Failures  []failure `json:"field_failures,omitempty"`
		Retryable bool      `json:"retryable"`
	}{
		Key:       o.Key,
		Status:    string(o.Status),
		Step:      string(o.Step),
		Retryable: o.Retryable(),
	}
	if err := o.Error(); err != nil {
		view.Error = err.Error()
	}
	for _, f := range o.Written {
		view.Written = append(view.Written, f.String())
	}
	for _, f := range o.FieldFailures {
		view.Failures = append(view.Failures, failure{Field: f.Field.String(), Step: string(f.Step), Error: f.Err.Error()})
	}
	return json.Marshal(view)
}

// Retryable reports whether running the ingestion again may succeed.
func (o IngestOutcome) Retryable() bool {
	if o.Status == StatusSynced {
		return false
	}
	return !errors.Is(o.Err, ErrIncompleteDocument)
}

// IngestReport summarises a batch of ingestions.
type IngestReport struct {
	// RunID identifies the batch in logs and events.
	RunID string `json:"run_id"`

	// Outcomes are in input order.
	Outcomes []IngestOutcome `json:"outcomes"`

	Synced          int `json:"synced"`
	PartiallySynced int `json:"partially_synced"`
	Failed          int `json:"failed"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Add records an outcome in the counters.
func (r *IngestReport) Add(o IngestOutcome) {
	switch o.Status {
	case StatusSynced:
		r.Synced++
	case StatusPartiallySynced:
		r.PartiallySynced++
	case StatusIngestFailed:
		r.Failed++
	}
}

// IngestEvent is published after each ingestion when an event publisher is configured.
type IngestEvent struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id,omitempty"`
	Type       string    `json:"type"`
	ArticleKey string    `json:"article_key"`
	Status     string    `json:"status"`
	Step       string    `json:"step,omitempty"`
	Failed     []string  `json:"failed_fields,omitempty"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventType maps an ingest status to its event type name.
func EventType(s IngestStatus) string {
	return "article." + string(s)
}
