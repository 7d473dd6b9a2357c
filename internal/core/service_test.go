package core

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/DataSweeper/internal/audit"
)

// memRecorder keeps recorded events in memory.
type memRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *memRecorder) Record(_ context.Context, ev audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *memRecorder) actions() []audit.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.Action, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Action
	}
	return out
}

func newTestService(t *testing.T) (*Service, *memRecorder) {
	t.Helper()
	rec := &memRecorder{}
	svc := NewService(ServiceConfig{
		MaxFileSize:   1 << 20,
		MaxConcurrent: 2,
		MaxWait:       time.Second,
		IdleTimeout:   time.Hour,
		PreviewRows:   2,
	}, rec)
	return svc, rec
}

func TestService_IngestBatchWithFailure(t *testing.T) {
	svc, rec := newTestService(t)
	sess := svc.Store().Create()

	results := svc.Ingest(context.Background(), sess, []UploadedFile{
		NewUploadedFile("good.csv", []byte("a,b\n1,2\n")),
		NewUploadedFile("notes.txt", []byte("hello")),
		NewUploadedFile("also.csv", []byte("c\nx\n")),
	})

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("valid files failed: %v, %v", results[0].Err, results[2].Err)
	}
	if !errors.Is(results[1].Err, ErrUnsupportedFormat) {
		t.Errorf("txt error = %v, want ErrUnsupportedFormat", results[1].Err)
	}
	if sess.Len() != 2 {
		t.Errorf("session has %d entries, want 2", sess.Len())
	}

	want := []audit.Action{audit.ActionUpload, audit.ActionUploadFail, audit.ActionUpload}
	if got := rec.actions(); !reflect.DeepEqual(got, want) {
		t.Errorf("recorded %v, want %v", got, want)
	}
}

func TestService_IngestTooLarge(t *testing.T) {
	svc := NewService(ServiceConfig{MaxFileSize: 4}, nil)
	sess := svc.Store().Create()

	res := svc.Ingest(context.Background(), sess, []UploadedFile{
		NewUploadedFile("big.csv", []byte("a,b\n1,2\n")),
	})
	if !errors.Is(res[0].Err, ErrFileTooLarge) {
		t.Errorf("error = %v, want ErrFileTooLarge", res[0].Err)
	}
	if got := MapError(res[0].Err).Code; got != "FILE001" {
		t.Errorf("code = %q, want FILE001", got)
	}
}

func TestService_CleaningSurvivesReupload(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()
	sess := svc.Store().Create()
	data := []byte("x,y\n1,2\n1,2\n3,\n")

	res := svc.Ingest(ctx, sess, []UploadedFile{NewUploadedFile("a.csv", data)})
	id := res[0].Entry.ID

	removed, err := svc.Deduplicate(ctx, sess, id)
	if err != nil || removed != 1 {
		t.Fatalf("Deduplicate() = %d, %v; want 1, nil", removed, err)
	}
	filled, err := svc.FillMissing(ctx, sess, id)
	if err != nil || filled != 1 {
		t.Fatalf("FillMissing() = %d, %v; want 1, nil", filled, err)
	}

	again := svc.Ingest(ctx, sess, []UploadedFile{NewUploadedFile("a.csv", data)})
	if !again[0].Cached {
		t.Fatal("re-upload should be a cache hit")
	}

	view, err := svc.View(sess, id)
	if err != nil {
		t.Fatal(err)
	}
	if view.Rows != 2 || view.Missing() != 0 {
		t.Errorf("view rows = %d missing = %d, want 2 and 0", view.Rows, view.Missing())
	}
	if got := view.Preview.Record(1); !reflect.DeepEqual(got, []string{"3", "2"}) {
		t.Errorf("preview row = %q, want [3 2]", got)
	}

	want := []audit.Action{
		audit.ActionUpload, audit.ActionDeduplicate, audit.ActionFillMissing, audit.ActionUploadCache,
	}
	if got := rec.actions(); !reflect.DeepEqual(got, want) {
		t.Errorf("recorded %v, want %v", got, want)
	}
}

func TestService_ViewPreviewRows(t *testing.T) {
	svc, _ := newTestService(t)
	sess := svc.Store().Create()
	res := svc.Ingest(context.Background(), sess, []UploadedFile{
		NewUploadedFile("n.csv", []byte("n,label\n1,a\n2,\n3,c\n")),
	})

	view, err := svc.View(sess, res[0].Entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if view.Preview.NumRows() != 2 {
		t.Errorf("preview rows = %d, want 2", view.Preview.NumRows())
	}
	want := []ColumnSummary{
		{Name: "n", Type: ColumnNumeric},
		{Name: "label", Type: ColumnText, Missing: 1},
	}
	if !reflect.DeepEqual(view.Columns, want) {
		t.Errorf("columns = %+v, want %+v", view.Columns, want)
	}

	views := svc.Views(sess)
	if len(views) != 1 || views[0].ID != view.ID {
		t.Errorf("Views() = %+v", views)
	}
}

func TestService_ChartAndExport(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := ContextWithClient(context.Background(), "203.0.113.9", "test-agent")
	sess := svc.Store().Create()
	res := svc.Ingest(ctx, sess, []UploadedFile{
		NewUploadedFile("sales.csv", []byte("region,q1,q2\nnorth,1,2\nsouth,3,4\n")),
	})
	id := res[0].Entry.ID

	data, err := svc.Chart(ctx, sess, id, nil)
	if err != nil {
		t.Fatalf("Chart() error = %v", err)
	}
	if data.Series[0].Label != "q1" || data.Series[1].Label != "q2" {
		t.Errorf("series = %q, %q", data.Series[0].Label, data.Series[1].Label)
	}

	if _, err := svc.Chart(ctx, sess, id, []string{"region", "q1"}); !IsInformational(err) {
		t.Errorf("single numeric column: error = %v, want informational", err)
	}

	art, err := svc.Export(ctx, sess, id, []string{"q2", "region"}, ExportCSV)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if art.FileName != "sales.csv" {
		t.Errorf("FileName = %q", art.FileName)
	}
	if got := string(art.Data); got != "q2,region\n2,north\n4,south\n" {
		t.Errorf("export = %q", got)
	}

	if _, err := svc.Export(ctx, sess, id, []string{"nope"}, ExportCSV); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("unknown column: error = %v, want ErrColumnNotFound", err)
	}

	last := rec.events[len(rec.events)-1]
	if last.Action != audit.ActionExport || last.IPAddress != "203.0.113.9" || last.UserAgent != "test-agent" {
		t.Errorf("last event = %+v", last)
	}
}

func TestService_Select(t *testing.T) {
	svc, _ := newTestService(t)
	sess := svc.Store().Create()
	res := svc.Ingest(context.Background(), sess, []UploadedFile{
		NewUploadedFile("s.csv", []byte("a,b,c\n1,x,3\n2,y,4\n5,z,6\n")),
	})
	id := res[0].Entry.ID

	sel, err := svc.Select(sess, id, []string{"c", "a"}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(sel.Columns, []string{"c", "a"}) {
		t.Errorf("Columns = %v", sel.Columns)
	}
	if sel.Rows != 3 || sel.Head.NumRows() != 2 {
		t.Errorf("Rows = %d, head rows = %d", sel.Rows, sel.Head.NumRows())
	}

	all, err := svc.Select(sess, id, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if all.Head.NumRows() != 3 || len(all.Columns) != 3 {
		t.Errorf("full selection = %d rows, %v", all.Head.NumRows(), all.Columns)
	}

	if _, err := svc.Select(sess, id, []string{"missing"}, 0); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("unknown column: error = %v", err)
	}
}

func TestService_PeekChartDoesNotRecord(t *testing.T) {
	svc, rec := newTestService(t)
	sess := svc.Store().Create()
	res := svc.Ingest(context.Background(), sess, []UploadedFile{
		NewUploadedFile("p.csv", []byte("x,y\n1,2\n")),
	})

	before := len(rec.actions())
	data, err := svc.PeekChart(sess, res[0].Entry.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if data.Rows != 1 {
		t.Errorf("Rows = %d, want 1", data.Rows)
	}
	if got := len(rec.actions()); got != before {
		t.Errorf("PeekChart recorded %d events", got-before)
	}
}

func TestService_UnknownEntry(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	sess := svc.Store().Create()

	if _, err := svc.Deduplicate(ctx, sess, "nope"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("Deduplicate error = %v", err)
	}
	if _, err := svc.FillMissing(ctx, sess, "nope"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("FillMissing error = %v", err)
	}
	if _, err := svc.View(sess, "nope"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("View error = %v", err)
	}
	if _, err := svc.Chart(ctx, sess, "nope", nil); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("Chart error = %v", err)
	}
	if _, err := svc.Export(ctx, sess, "nope", nil, ExportExcel); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("Export error = %v", err)
	}
}

func TestService_SessionsAreIsolated(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	one := svc.Store().Create()
	two := svc.Store().Create()

	res := svc.Ingest(ctx, one, []UploadedFile{NewUploadedFile("a.csv", []byte("v\n1\n"))})
	if two.Has("a.csv") {
		t.Error("upload leaked into another session")
	}
	if _, err := svc.Deduplicate(ctx, two, res[0].Entry.ID); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("cross-session access error = %v, want ErrEntryNotFound", err)
	}
}
