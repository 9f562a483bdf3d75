package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewCorrelationID returns a time-sortable ULID used to pair an enclave
// request with its response across the broker.
func NewCorrelationID() string {
	return newAt(time.Now()).String()
}

func newAt(t time.Time) ulid.ULID {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy)
}

// CorrelationTime reports when a correlation id was minted. Ids that are not
// ULIDs, for example ones supplied by an upstream system, report false.
func CorrelationTime(id string) (time.Time, bool) {
	parsed, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(parsed.Time()), true
}

// NewMessageID returns a ULID for a Watermill message UUID.
func NewMessageID() string {
	return newAt(time.Now()).String()
}
