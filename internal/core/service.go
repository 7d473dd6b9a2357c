package core

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/DataSweeper/internal/audit"
	"github.com/JonMunkholm/DataSweeper/internal/logging"
)

// ServiceConfig holds the limits the Service enforces.
type ServiceConfig struct {
	MaxFileSize   int64
	MaxConcurrent int
	MaxWait       time.Duration
	IdleTimeout   time.Duration
	PreviewRows   int
}

// DefaultPreviewRows is used when ServiceConfig.PreviewRows is not set.
const DefaultPreviewRows = 5

// Service ties sessions, parsing limits and activity recording around the
// table operations. Web handlers and the CLI both go through it.
type Service struct {
	store       *Store
	limiter     *ParseLimiter
	recorder    audit.Recorder
	maxFileSize int64
	previewRows int
}

// NewService creates a Service. A nil recorder discards activity.
func NewService(cfg ServiceConfig, rec audit.Recorder) *Service {
	if rec == nil {
		rec = audit.Discard{}
	}
	if cfg.PreviewRows <= 0 {
		cfg.PreviewRows = DefaultPreviewRows
	}
	return &Service{
		store:       NewStore(cfg.IdleTimeout),
		limiter:     NewParseLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		recorder:    rec,
		maxFileSize: cfg.MaxFileSize,
		previewRows: cfg.PreviewRows,
	}
}

// Store returns the session store.
func (s *Service) Store() *Store {
	return s.store
}

// UploadStatus reports how many parse slots are in use.
func (s *Service) UploadStatus() ParseStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until in-flight parses finish or ctx is done.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Ingest adds a batch of uploads to the session, in order. Every file gets a
// result; a failing file does not stop the others.
//
// Names already in the session are cache hits: nothing is parsed and the
// existing, possibly cleaned, table is kept.
func (s *Service) Ingest(ctx context.Context, sess *Session, files []UploadedFile) []IngestResult {
	results := make([]IngestResult, 0, len(files))
	for _, f := range files {
		res := s.ingestOne(ctx, sess, f)
		s.recordIngest(ctx, sess, res)
		results = append(results, res)
	}
	return results
}

func (s *Service) ingestOne(ctx context.Context, sess *Session, f UploadedFile) IngestResult {
	if sess.Has(f.Name) {
		return sess.Ingest(f)
	}

	if s.maxFileSize > 0 && f.Size > s.maxFileSize {
		return IngestResult{
			Name: f.Name,
			Err:  fmt.Errorf("%s is %d bytes, limit is %d: %w", f.Name, f.Size, s.maxFileSize, ErrFileTooLarge),
		}
	}

	release, err := s.limiter.Acquire(ctx, f.Name)
	if err != nil {
		return IngestResult{Name: f.Name, Err: err}
	}
	defer release()

	return sess.Ingest(f)
}

func (s *Service) recordIngest(ctx context.Context, sess *Session, res IngestResult) {
	logger := logging.WithFields(ctx, "session", sess.ID, "file", res.Name)

	var ev audit.Event
	switch {
	case res.Err != nil:
		logger.Warn("upload rejected", "error", res.Err)
		ev = audit.NewEvent(audit.ActionUploadFail, sess.ID, res.Name)
		ev.Detail = res.Err.Error()
	case res.Cached:
		if res.ContentChanged {
			logger.Info("upload reused cached table; content differs from first upload")
		}
		ev = audit.NewEvent(audit.ActionUploadCache, sess.ID, res.Name)
		ev.Rows = res.Entry.Table.NumRows()
		if res.ContentChanged {
			ev.Detail = "content changed"
		}
	default:
		t := res.Entry.Table
		logger.Info("upload parsed", "format", res.Entry.File.Format, "rows", t.NumRows(), "columns", t.NumCols())
		ev = audit.NewEvent(audit.ActionUpload, sess.ID, res.Name)
		ev.Rows = t.NumRows()
		ev.Detail = string(res.Entry.File.Format)
	}
	s.record(ctx, ev)
}

// ColumnSummary describes one column of a file view.
type ColumnSummary struct {
	Name    string
	Type    ColumnType
	Missing int
}

// FileView is a snapshot of an Entry for display.
type FileView struct {
	ID      string
	File    FileInfo
	Rows    int
	Columns []ColumnSummary
	Preview *Table
}

// Missing returns the total number of missing cells.
func (v *FileView) Missing() int {
	n := 0
	for _, c := range v.Columns {
		n += c.Missing
	}
	return n
}

// View returns a snapshot of the entry with its first rows.
func (s *Service) View(sess *Session, id string) (*FileView, error) {
	var view *FileView
	err := sess.With(id, func(e *Entry) error {
		view = newFileView(e, s.previewRows)
		return nil
	})
	return view, err
}

// Views returns snapshots of every entry in upload order.
func (s *Service) Views(sess *Session) []*FileView {
	entries := sess.Entries()
	views := make([]*FileView, 0, len(entries))
	for _, e := range entries {
		if v, err := s.View(sess, e.ID); err == nil {
			views = append(views, v)
		}
	}
	return views
}

func newFileView(e *Entry, previewRows int) *FileView {
	t := e.Table
	view := &FileView{
		ID:      e.ID,
		File:    e.File,
		Rows:    t.NumRows(),
		Columns: make([]ColumnSummary, 0, t.NumCols()),
		Preview: t.Head(previewRows),
	}
	for _, col := range t.Columns {
		view.Columns = append(view.Columns, ColumnSummary{
			Name:    col.Name,
			Type:    col.Type,
			Missing: col.MissingCount(),
		})
	}
	return view
}

// Deduplicate removes repeated rows from the entry's table and returns how
// many were removed.
func (s *Service) Deduplicate(ctx context.Context, sess *Session, id string) (int, error) {
	var removed int
	var name string
	err := sess.With(id, func(e *Entry) error {
		name = e.File.Name
		removed = Deduplicate(e.Table)
		return nil
	})
	if err != nil {
		return 0, err
	}

	logging.WithFields(ctx, "session", sess.ID, "file", name).Info("duplicates removed", "rows", removed)
	ev := audit.NewEvent(audit.ActionDeduplicate, sess.ID, name)
	ev.Rows = removed
	s.record(ctx, ev)
	return removed, nil
}

// FillMissing replaces missing numeric cells with their column mean and
// returns how many cells were filled.
func (s *Service) FillMissing(ctx context.Context, sess *Session, id string) (int, error) {
	var filled int
	var name string
	err := sess.With(id, func(e *Entry) error {
		name = e.File.Name
		filled = MeanFill(e.Table)
		return nil
	})
	if err != nil {
		return 0, err
	}

	logging.WithFields(ctx, "session", sess.ID, "file", name).Info("missing values filled", "cells", filled)
	ev := audit.NewEvent(audit.ActionFillMissing, sess.ID, name)
	ev.Rows = filled
	s.record(ctx, ev)
	return filled, nil
}

// Selection is the projected view of an entry shown under the column chooser.
type Selection struct {
	Columns []string
	Rows    int
	Head    *Table
}

// Select projects the entry onto columns and keeps the first limit rows for
// display. A limit of zero or less keeps every row.
func (s *Service) Select(sess *Session, id string, columns []string, limit int) (*Selection, error) {
	var sel *Selection
	err := sess.With(id, func(e *Entry) error {
		projected, err := Project(e.Table, columns)
		if err != nil {
			return err
		}
		sel = &Selection{Columns: projected.Names(), Rows: projected.NumRows(), Head: projected}
		if limit > 0 {
			sel.Head = projected.Head(limit)
		}
		return nil
	})
	return sel, err
}

// Chart prepares the quick chart for the selected columns. An empty selection
// means all columns.
func (s *Service) Chart(ctx context.Context, sess *Session, id string, columns []string) (*ChartData, error) {
	data, name, err := s.chartData(sess, id, columns)
	if err != nil {
		return nil, err
	}

	ev := audit.NewEvent(audit.ActionChart, sess.ID, name)
	ev.Rows = data.Rows
	ev.Detail = data.Series[0].Label + "," + data.Series[1].Label
	s.record(ctx, ev)
	return data, nil
}

// PeekChart is Chart without recording activity. It serves the image of a
// chart whose fragment was already rendered.
func (s *Service) PeekChart(sess *Session, id string, columns []string) (*ChartData, error) {
	data, _, err := s.chartData(sess, id, columns)
	return data, err
}

func (s *Service) chartData(sess *Session, id string, columns []string) (data *ChartData, name string, err error) {
	err = sess.With(id, func(e *Entry) error {
		name = e.File.Name
		projected, err := Project(e.Table, columns)
		if err != nil {
			return err
		}
		data, err = PrepareChart(projected)
		return err
	})
	return data, name, err
}

// Export serializes the selected columns of the entry's current table.
func (s *Service) Export(ctx context.Context, sess *Session, id string, columns []string, format ExportFormat) (*Artifact, error) {
	var art *Artifact
	var name string
	var rows int
	err := sess.With(id, func(e *Entry) error {
		name = e.File.Name
		projected, err := Project(e.Table, columns)
		if err != nil {
			return err
		}
		rows = projected.NumRows()
		art, err = Export(projected, e.File.Name, format)
		return err
	})
	if err != nil {
		return nil, err
	}

	logging.WithFields(ctx, "session", sess.ID, "file", name).Info("exported",
		"format", format, "artifact", art.FileName, "bytes", len(art.Data))
	ev := audit.NewEvent(audit.ActionExport, sess.ID, name)
	ev.Rows = rows
	ev.Detail = art.FileName
	s.record(ctx, ev)
	return art, nil
}

// record stamps the client onto ev and stores it. Recording failures are
// logged, never returned.
func (s *Service) record(ctx context.Context, ev audit.Event) {
	ev.IPAddress, ev.UserAgent = ClientFromContext(ctx)
	if err := s.recorder.Record(ctx, ev); err != nil {
		logging.FromContext(ctx).Warn("failed to record activity",
			"action", ev.Action, "file", ev.FileName, "error", err)
	}
}
