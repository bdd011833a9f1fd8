package ids

import (
	"fmt"
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// New returns a lexicographically sortable identifier suitable for storage keys.
// Identifiers embed their creation time, so a reverse key scan yields
// newest-first ordering without an extra index.
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// CaseNumber builds a human-readable case number such as ACV-20260830-4R2K9C.
// The random suffix is the tail of a fresh ULID, so numbers stay unique even
// when many cases are registered within one day.
func CaseNumber(prefix string, t time.Time) string {
	prefix = strings.TrimSpace(strings.ToUpper(prefix))
	if prefix == "" {
		prefix = "ACV"
	}
	id := New()
	return fmt.Sprintf("%s-%s-%s", prefix, t.UTC().Format("20060102"), id[len(id)-6:])
}
