package ir

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDSource allocates block and document ids.
type IDSource interface {
	Generate() string
}

// UUIDv7Source generates time-sortable UUIDv7 ids.
//
// UUIDv7 embeds a timestamp in the most significant bits, so ids sort by
// creation time, which keeps block listings and store rows in a stable order.
//
// Thread-safety: UUIDv7Source is stateless and safe for concurrent use.
type UUIDv7Source struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Source) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// DefaultIDs is the id source used when callers do not supply one.
var DefaultIDs IDSource = UUIDv7Source{}

// Sequence generates ids "<prefix>-1", "<prefix>-2", ... in order.
//
// Parsing the same script with a fresh Sequence yields the same block ids,
// so an unchanged script has an unchanged DocumentHash.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	seq    int
}

// NewSequence creates a sequence with the given prefix.
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

// Generate returns the next id.
func (s *Sequence) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return fmt.Sprintf("%s-%d", s.prefix, s.seq)
}

// Reset restarts the sequence. After Reset the next id ends in "-1".
func (s *Sequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = 0
}
