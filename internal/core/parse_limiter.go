package core

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

// ErrTooManyUploads is returned when every parse slot stays busy for the
// limiter's whole wait. Clients should retry after a short delay.
var ErrTooManyUploads = errors.New("too many concurrent uploads, please try again later")

const (
	// DefaultMaxParses is the default number of files parsed at once.
	DefaultMaxParses = 5

	// DefaultParseWait is how long Acquire waits for a free slot.
	DefaultParseWait = 30 * time.Second
)

// ParseLimiter caps how many uploaded files are parsed at once across all
// sessions. A parse holds the raw file and its table in memory together.
type ParseLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu      sync.Mutex
	active  int
	parsing map[string]int // file name -> parses in flight
	idle    chan struct{}  // closed while active == 0
}

func NewParseLimiter(maxConcurrent int, maxWait time.Duration) *ParseLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxParses
	}
	if maxWait <= 0 {
		maxWait = DefaultParseWait
	}
	idle := make(chan struct{})
	close(idle)

	return &ParseLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		parsing: make(map[string]int),
		idle:    idle,
	}
}

// Acquire reserves a slot for parsing the named file. The returned release
// func frees it; calling release more than once is a no-op.
func (l *ParseLimiter) Acquire(ctx context.Context, name string) (release func(), err error) {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("waited %s to parse %s: %w", l.maxWait, name, ErrTooManyUploads)
	}

	l.begin(name)
	var once sync.Once
	return func() { once.Do(func() { l.end(name) }) }, nil
}

func (l *ParseLimiter) begin(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active == 0 {
		l.idle = make(chan struct{})
	}
	l.active++
	l.parsing[name]++
}

func (l *ParseLimiter) end(name string) {
	l.mu.Lock()
	if l.parsing[name]--; l.parsing[name] <= 0 {
		delete(l.parsing, name)
	}
	l.active--
	if l.active == 0 {
		close(l.idle)
	}
	l.mu.Unlock()

	<-l.slots
}

// Active returns the number of parses in progress.
func (l *ParseLimiter) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// WaitForDrain blocks until no parse is in progress or ctx is done.
func (l *ParseLimiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ParseStatus is a snapshot of the limiter for health output.
type ParseStatus struct {
	Active        int      `json:"active"`
	Available     int      `json:"available"`
	MaxConcurrent int      `json:"max_concurrent"`
	Files         []string `json:"files,omitempty"`
}

// Status returns the limiter state with the names of files being parsed.
func (l *ParseLimiter) Status() ParseStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ParseStatus{
		Active:        l.active,
		Available:     cap(l.slots) - l.active,
		MaxConcurrent: cap(l.slots),
		Files:         slices.Sorted(maps.Keys(l.parsing)),
	}
}
