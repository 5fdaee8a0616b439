package reason

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator issues identifiers for new reasons
type IDGenerator interface {
	NewID() string
}

// TimestampIDs derives identifiers from the wall clock in milliseconds.
// Identifiers are strictly increasing: when the clock has not moved past
// the last issued value the next one is last+1.
type TimestampIDs struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewTimestampIDs creates a generator reading time.Now
func NewTimestampIDs() *TimestampIDs {
	return &TimestampIDs{now: time.Now}
}

// NewID implements IDGenerator
func (g *TimestampIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10)
}

// UUIDs issues random UUIDv4 identifiers
type UUIDs struct{}

// NewID implements IDGenerator
func (UUIDs) NewID() string {
	return uuid.NewString()
}

// NewIDGenerator returns the generator for a configured strategy
func NewIDGenerator(strategy string) (IDGenerator, error) {
	switch strategy {
	case "", "timestamp":
		return NewTimestampIDs(), nil
	case "uuid":
		return UUIDs{}, nil
	default:
		return nil, fmt.Errorf("unknown reason id strategy: %s", strategy)
	}
}
