package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/DataSweeper/internal/config"
	"github.com/JonMunkholm/DataSweeper/internal/core"
)

type testFile struct {
	name    string
	content string
}

type testServer struct {
	*httptest.Server
	svc    *core.Service
	client *http.Client
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	cfg := config.Defaults()
	cfg.Rate.Enabled = false
	cfg.Upload.MaxFileSize = 1 * config.KB
	cfg.Upload.MaxFiles = 3
	for _, m := range mutate {
		m(cfg)
	}

	svc := core.NewService(core.ServiceConfig{
		MaxFileSize:   cfg.Upload.MaxFileSize.Int64(),
		MaxConcurrent: 2,
		MaxWait:       time.Second,
		IdleTimeout:   time.Hour,
		PreviewRows:   cfg.Session.PreviewRows,
	}, nil)
	srv, err := NewServer(svc, cfg)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		srv.Shutdown(context.Background())
	})

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &testServer{Server: ts, svc: svc, client: &http.Client{Jar: jar}}
}

func (ts *testServer) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := ts.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func (ts *testServer) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	if err != nil {
		t.Fatal(err)
	}
	return ts.do(t, req)
}

func (ts *testServer) postForm(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ts.do(t, req)
}

func (ts *testServer) upload(t *testing.T, files ...testFile) (*http.Response, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.name)
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(part, f.content)
	}
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/upload", &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return ts.do(t, req)
}

// session returns the server-side session behind the client's cookie.
func (ts *testServer) session(t *testing.T) *core.Session {
	t.Helper()
	u, _ := url.Parse(ts.URL)
	for _, c := range ts.client.Jar.Cookies(u) {
		if c.Name == "sweeper_session" {
			if sess, ok := ts.svc.Store().Get(c.Value); ok {
				return sess
			}
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func (ts *testServer) fileID(t *testing.T, name string) string {
	t.Helper()
	for _, e := range ts.session(t).Entries() {
		if e.File.Name == name {
			return e.ID
		}
	}
	t.Fatalf("%s not in session", name)
	return ""
}

func assertContains(t *testing.T, body string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(body, w) {
			t.Errorf("body missing %q", w)
		}
	}
}

func TestDashboard_Empty(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.get(t, "/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	assertContains(t, body, "Data Sweeper", "No files yet", `name="files"`, "1KB each")
	if csp := resp.Header.Get("Content-Security-Policy"); !strings.Contains(csp, "default-src 'self'") {
		t.Errorf("CSP = %q", csp)
	}
	ts.session(t)
}

func TestUploadCleanExportFlow(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.upload(t,
		testFile{"a.csv", "a,b\n1,2\n1,2\n3,\n"},
		testFile{"notes.txt", "hello"},
	)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}
	assertContains(t, body,
		"Loaded a.csv: 3 rows, 2 columns.",
		"notes.txt: Unsupported file format",
		"Code: FILE006",
		"File: <code>a.csv</code>",
	)
	id := ts.fileID(t, "a.csv")

	_, body = ts.postForm(t, "/files/"+id+"/dedupe", nil)
	assertContains(t, body, "Duplicates removed: 1 row(s).")

	_, body = ts.postForm(t, "/files/"+id+"/fill", nil)
	assertContains(t, body, "Missing values filled: 1 cell(s).")

	resp, body = ts.postForm(t, "/files/"+id+"/export", url.Values{
		"format":  {"csv"},
		"columns": {"b", "a"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d: %s", resp.StatusCode, body)
	}
	if got := resp.Header.Get("Content-Disposition"); got != "attachment; filename=a.csv" {
		t.Errorf("Content-Disposition = %q", got)
	}
	if got := resp.Header.Get("Content-Type"); got != core.MIMECSV {
		t.Errorf("Content-Type = %q", got)
	}
	if body != "b,a\n2,1\n2,3\n" {
		t.Errorf("export body = %q", body)
	}

	resp, _ = ts.postForm(t, "/files/"+id+"/export", url.Values{"format": {"excel"}})
	if got := resp.Header.Get("Content-Type"); got != core.MIMEXLSX {
		t.Errorf("excel Content-Type = %q", got)
	}
	if got := resp.Header.Get("Content-Disposition"); got != "attachment; filename=a.xlsx" {
		t.Errorf("excel Content-Disposition = %q", got)
	}

	// Re-uploading the same name keeps the cleaned table.
	_, body = ts.upload(t, testFile{"a.csv", "a,b\n1,2\n1,2\n3,\n"})
	assertContains(t, body, "a.csv is already loaded.", "2 rows")
}

func TestFilePage_Chart(t *testing.T) {
	ts := newTestServer(t)
	ts.upload(t, testFile{"q.csv", "region,q1,q2\nnorth,1,2\nsouth,3,4\n"})
	id := ts.fileID(t, "q.csv")

	resp, body := ts.get(t, "/files/"+id+"?columns=q2&columns=q1&chart=1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	assertContains(t, body,
		`<img src="/files/`+id+`/chart.svg?columns=q2&amp;columns=q1"`,
		"Bar chart of q2 and q1",
		`fill="#0074d9"`,
		"Selected columns",
	)

	resp, body = ts.get(t, "/files/"+id+"/chart.svg?columns=q2&columns=q1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("svg status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.HasPrefix(strings.TrimSpace(body), "<svg") {
		t.Errorf("body is not SVG: %.40q", body)
	}
}

func TestChart_SingleNumericColumnIsInformational(t *testing.T) {
	ts := newTestServer(t)
	ts.upload(t, testFile{"one.csv", "x,label\n1,a\n2,b\n"})
	id := ts.fileID(t, "one.csv")

	resp, body := ts.get(t, "/files/"+id+"/chart")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fragment status = %d", resp.StatusCode)
	}
	assertContains(t, body, "notice-info",
		"Only one numeric column available for visualization or no valid numeric data")

	resp, _ = ts.get(t, "/files/"+id+"/chart.svg")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("svg status = %d, want 422", resp.StatusCode)
	}
}

func TestUnknownFile(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.get(t, "/files/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	assertContains(t, body, "Error 404", "SES001")

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/files/nope/dedupe", nil)
	req.Header.Set("Accept", "application/json")
	resp, body = ts.do(t, req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("json status = %d", resp.StatusCode)
	}
	var got ErrorResponse
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	if got.Code != "SES001" {
		t.Errorf("code = %q", got.Code)
	}
}

func TestUpload_Limits(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Upload.MaxFiles = 2 })

	big := "v\n" + strings.Repeat("1234567\n", 200)
	_, body := ts.upload(t,
		testFile{"big.csv", big},
		testFile{"ok.csv", "v\n1\n"},
		testFile{"extra.csv", "v\n2\n"},
	)
	assertContains(t, body,
		"big.csv: File exceeds the maximum upload size",
		"Loaded ok.csv",
		"Only the first 2 files were processed; 1 more were skipped.",
	)
	if strings.Contains(body, "extra.csv") {
		t.Error("skipped file was processed")
	}
}

func TestUpload_NoFile(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.postForm(t, "/upload", url.Values{"x": {"1"}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	assertContains(t, body, "FILE004")

	resp, _ = ts.upload(t)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty multipart status = %d, want 400", resp.StatusCode)
	}
}

func TestExport_Errors(t *testing.T) {
	ts := newTestServer(t)
	ts.upload(t, testFile{"e.csv", "a\n1\n"})
	id := ts.fileID(t, "e.csv")

	resp, _ := ts.postForm(t, "/files/"+id+"/export", url.Values{"format": {"parquet"}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad format status = %d", resp.StatusCode)
	}
	resp, body := ts.postForm(t, "/files/"+id+"/export", url.Values{"columns": {"zzz"}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown column status = %d", resp.StatusCode)
	}
	assertContains(t, body, "COL001")
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.get(t, "/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got HealthResponse
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatal(err)
	}
	if got.Status != "ok" || got.Uploads.MaxConcurrent != 2 {
		t.Errorf("health = %+v", got)
	}
}

func TestStaticFiles(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.get(t, "/static/app.css")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	assertContains(t, body, ".notice-error")
}

func TestSecurityHeaders_CSPDisabled(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Security.EnableCSP = false })

	resp, _ := ts.get(t, "/healthz")
	if resp.Header.Get("Content-Security-Policy") != "" {
		t.Error("CSP set while disabled")
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("nosniff header missing")
	}
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) {
		c.Rate.Enabled = true
		c.Rate.RequestsPerMinute = 2
	})

	for i := 0; i < 2; i++ {
		if resp, _ := ts.get(t, "/healthz"); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, resp.StatusCode)
		}
	}
	resp, body := ts.get(t, "/healthz")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("Retry-After missing")
	}
	assertContains(t, body, "RATE001")
}

func TestRateLimiter_WindowReset(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := newRateLimiter(1, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.allow("a") {
		t.Fatal("first request denied")
	}
	if rl.allow("a") {
		t.Error("second request in window allowed")
	}
	if !rl.allow("b") {
		t.Error("other client denied")
	}
	if got := rl.retryAfter("a"); got != 60 {
		t.Errorf("retryAfter = %d, want 60", got)
	}

	now = now.Add(time.Minute + time.Second)
	if !rl.allow("a") {
		t.Error("request after window denied")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrEntryNotFound, http.StatusNotFound},
		{core.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{core.ErrColumnNotFound, http.StatusBadRequest},
		{core.ErrSerialization, http.StatusUnprocessableEntity},
		{core.ErrTooManyUploads, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
