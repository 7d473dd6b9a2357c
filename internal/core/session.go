package core

// session.go holds the per-browser state of Data Sweeper.
//
// A Session maps uploaded file names to their current Entry. The first
// successful parse of a name creates the Entry; every later upload of the same
// name reuses it, so cleaning always acts on the same in-memory table. A Store
// owns all sessions of the process and evicts the ones left idle.

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// FileInfo describes the upload an Entry was parsed from.
type FileInfo struct {
	Name   string
	Size   int64
	Format Format
	Digest string
}

// SizeKB returns the file size in kilobytes.
func (f FileInfo) SizeKB() float64 {
	return float64(f.Size) / 1024
}

// Entry binds one uploaded file name to its current table.
type Entry struct {
	ID      string
	File    FileInfo
	Table   *Table
	Created time.Time
}

// IngestResult is the outcome of ingesting one file of a batch.
type IngestResult struct {
	Name  string
	Entry *Entry
	Err   error

	// Cached is set when an Entry already existed for the name and was reused.
	Cached bool

	// ContentChanged is set on a cache hit whose bytes differ from the
	// originally parsed upload. The cached table is kept regardless.
	ContentChanged bool
}

// Session is the state of one browser session.
// All methods are safe for concurrent use.
type Session struct {
	ID string

	mu     sync.Mutex
	byName map[string]*Entry
	byID   map[string]*Entry
	order  []string

	lastSeen atomic.Int64 // unix nanoseconds
}

// NewSession creates an empty session.
func NewSession(id string) *Session {
	s := &Session{
		ID:     id,
		byName: make(map[string]*Entry),
		byID:   make(map[string]*Entry),
	}
	s.touch(time.Now())
	return s
}

// Has reports whether an Entry exists for the file name.
func (s *Session) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byName[name]
	return ok
}

// Ingest parses file into a new Entry unless one already exists for its name,
// in which case the existing Entry is returned untouched.
func (s *Session) Ingest(file UploadedFile) IngestResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := IngestResult{Name: file.Name}
	digest := file.Digest()

	if e, ok := s.byName[file.Name]; ok {
		res.Entry = e
		res.Cached = true
		res.ContentChanged = e.File.Digest != digest
		return res
	}

	format, err := DetectFormat(file.Name)
	if err != nil {
		res.Err = err
		return res
	}
	t, err := ParseTable(format, file.Data)
	if err != nil {
		res.Err = err
		return res
	}

	e := &Entry{
		ID: uuid.NewString(),
		File: FileInfo{
			Name:   file.Name,
			Size:   file.Size,
			Format: format,
			Digest: digest,
		},
		Table:   t,
		Created: time.Now(),
	}
	s.byName[file.Name] = e
	s.byID[e.ID] = e
	s.order = append(s.order, file.Name)
	res.Entry = e
	return res
}

// With runs fn on the Entry with the given id while holding the session lock.
// fn may mutate the Entry's table in place.
func (s *Session) With(id string, fn func(*Entry) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byID[id]
	if !ok {
		return ErrEntryNotFound
	}
	return fn(e)
}

// Entries returns the session's entries in upload order.
func (s *Session) Entries() []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Entry, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}

// Len returns the number of entries.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Store keeps every live session of the process.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idle     time.Duration
	now      func() time.Time
}

// NewStore creates a store evicting sessions idle for longer than idle.
// A zero idle disables eviction.
func NewStore(idle time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		idle:     idle,
		now:      time.Now,
	}
}

// Get returns the session with the given id and marks it as used.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	sess, ok := st.sessions[id]
	st.mu.Unlock()
	if ok {
		sess.touch(st.now())
	}
	return sess, ok
}

// Create registers a new session under a random id.
func (st *Store) Create() *Session {
	sess := NewSession(uuid.NewString())
	sess.touch(st.now())

	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()
	return sess
}

// GetOrCreate returns the session for id, creating a fresh one when id is
// unknown or expired. created reports whether a new session was made.
func (st *Store) GetOrCreate(id string) (sess *Session, created bool) {
	if id != "" {
		if sess, ok := st.Get(id); ok {
			return sess, false
		}
	}
	return st.Create(), true
}

// Delete drops a session and everything in it.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep evicts sessions idle for longer than the store's idle timeout and
// returns how many were removed.
func (st *Store) Sweep() int {
	if st.idle <= 0 {
		return 0
	}
	cutoff := st.now().Add(-st.idle)

	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, sess := range st.sessions {
		if sess.idleSince().Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps idle sessions every interval until ctx is cancelled.
func (st *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if st.idle <= 0 || interval <= 0 {
		return
	}
	slog.Info("session janitor started", "idle_timeout", st.idle, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session janitor stopped")
			return
		case <-ticker.C:
			if n := st.Sweep(); n > 0 {
				slog.Info("expired idle sessions", "count", n, "remaining", st.Len())
			}
		}
	}
}
