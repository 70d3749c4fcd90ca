package reconcile

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"scrapconnect/sync-client/internal/model"
)

// IDGenerator issues ids for listings created while the remote store is unreachable.
// Every id must start with model.LocalIDPrefix.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues time-ordered UUIDv7 ids, so local ids sort by creation time.
type UUIDGenerator struct{}

// NewID implements IDGenerator.
func (UUIDGenerator) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return model.LocalIDPrefix + id.String()
}

// Sequence issues LOCAL-1, LOCAL-2, ... and is safe for concurrent use.
type Sequence struct {
	next atomic.Uint64
}

// NewID implements IDGenerator.
func (s *Sequence) NewID() string {
	return fmt.Sprintf("%s%d", model.LocalIDPrefix, s.next.Add(1))
}
