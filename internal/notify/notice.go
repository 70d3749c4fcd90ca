// Package notify delivers advisory notices from the sync layer to the presentation layer.
package notify

import (
	"context"
	"sync"
	"time"
)

// Kind classifies the sync outcome a notice reports.
type Kind string

const (
	// KindSynced means the remote store accepted the write.
	KindSynced Kind = "synced"
	// KindLocalFallback means a write was kept on this device only.
	KindLocalFallback Kind = "local-fallback"
	// KindDegradedRead means a read was served from seed and local data because the remote was unreachable.
	KindDegradedRead Kind = "degraded-read"
	// KindRemoteEmpty means the remote answered with no listings and local data was shown instead.
	KindRemoteEmpty Kind = "remote-empty"
)

// Notice is a single advisory event. It never carries an error value.
type Notice struct {
	Kind      Kind      `json:"kind"`
	Operation string    `json:"operation"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
}

// Publisher receives notices. Implementations must not block for long and never fail the caller.
type Publisher interface {
	Publish(ctx context.Context, n Notice)
}

// Multi fans a notice out to every publisher in order.
type Multi []Publisher

// Publish implements Publisher.
func (m Multi) Publish(ctx context.Context, n Notice) {
	for _, p := range m {
		if p != nil {
			p.Publish(ctx, n)
		}
	}
}

// Recorder keeps the most recent notices in memory for polling clients and tests.
type Recorder struct {
	mu      sync.Mutex
	limit   int
	notices []Notice
}

// NewRecorder keeps at most limit notices; limit <= 0 means 50.
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = 50
	}
	return &Recorder{limit: limit}
}

// Publish implements Publisher.
func (r *Recorder) Publish(_ context.Context, n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notices = append(r.notices, n)
	if over := len(r.notices) - r.limit; over > 0 {
		r.notices = append([]Notice(nil), r.notices[over:]...)
	}
}

// Recent returns up to n notices, newest last. n <= 0 returns all retained notices.
func (r *Recorder) Recent(n int) []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := 0
	if n > 0 && n < len(r.notices) {
		start = len(r.notices) - n
	}
	out := make([]Notice, len(r.notices)-start)
	copy(out, r.notices[start:])
	return out
}

// Last returns the newest notice, if any.
func (r *Recorder) Last() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

// Kinds lists the kinds of all retained notices, oldest first.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()

	kinds := make([]Kind, len(r.notices))
	for i, n := range r.notices {
		kinds[i] = n.Kind
	}
	return kinds
}
