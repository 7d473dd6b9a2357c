// Package audit records what users do with their files: uploads, cleaning,
// charts and exports.
//
// Events always go to the structured log. When a database is configured the
// PGRecorder also stores them in PostgreSQL for later review. Tables
// themselves are never stored; only the action, the file name and a count.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Action represents the type of action being recorded.
type Action string

const (
	ActionUpload      Action = "upload"
	ActionUploadCache Action = "upload_cached"
	ActionUploadFail  Action = "upload_failed"
	ActionDeduplicate Action = "deduplicate"
	ActionFillMissing Action = "fill_missing"
	ActionChart       Action = "chart"
	ActionExport      Action = "export"
)

// Severity represents how much an action changes the user's data.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Event is a single recorded action.
type Event struct {
	ID        string    `json:"id"`
	Action    Action    `json:"action"`
	Severity  Severity  `json:"severity"`
	SessionID string    `json:"sessionId"`
	FileName  string    `json:"fileName"`
	Rows      int       `json:"rows,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Recorder stores events.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action Action) Severity {
	switch action {
	case ActionDeduplicate, ActionFillMissing:
		return SeverityHigh
	case ActionUpload, ActionExport, ActionUploadFail:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// NewEvent fills in id, severity and timestamp for an action.
func NewEvent(action Action, sessionID, fileName string) Event {
	return Event{
		ID:        uuid.NewString(),
		Action:    action,
		Severity:  determineSeverity(action),
		SessionID: sessionID,
		FileName:  fileName,
		CreatedAt: time.Now().UTC(),
	}
}

// Tee fans an event out to several recorders. Every recorder is called even
// when an earlier one fails; the errors are joined.
type Tee []Recorder

// Record implements Recorder.
func (t Tee) Record(ctx context.Context, ev Event) error {
	var errs []error
	for _, r := range t {
		if err := r.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
type Discard struct{}

// Record implements Recorder.
func (Discard) Record(context.Context, Event) error { return nil }
