package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator hands out ULIDs that stay lexicographically increasing even when
// several ledger entries are created within the same millisecond.
type Generator struct {
	mu   sync.Mutex
	mono io.Reader
	now  func() time.Time
}

// NewGenerator returns a Generator seeded from crypto/rand.
func NewGenerator() *Generator {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		mono: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0),
		now:  time.Now,
	}
}

// Next returns a new ULID string.
func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(g.now().UTC()), g.mono)
	if err != nil {
		// only possible if the clock runs backwards past the ULID epoch
		panic(err)
	}
	return id.String()
}

var std = NewGenerator()

// New returns a ULID string from the package generator.
func New() string {
	return std.Next()
}

// Time extracts the creation time encoded in a ULID produced by New.
func Time(s string) (time.Time, bool) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(u.Time()), true
}
