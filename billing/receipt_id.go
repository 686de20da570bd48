package billing

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// ReceiptIDGenerator issues IDs shaped "P<unix-seconds>-<6 digits>".
// Uniqueness is best effort: time plus randomness, not guaranteed.
type ReceiptIDGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	rand *rand.Rand
}

func NewReceiptIDGenerator() *ReceiptIDGenerator {
	return &ReceiptIDGenerator{
		now:  time.Now,
		rand: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// NewSeededReceiptIDGenerator gives reproducible IDs for tests.
func NewSeededReceiptIDGenerator(now func() time.Time, seed uint64) *ReceiptIDGenerator {
	return &ReceiptIDGenerator{
		now:  now,
		rand: rand.New(rand.NewPCG(seed, seed)),
	}
}

func (g *ReceiptIDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	suffix := 100000 + g.rand.IntN(900000) // [100000, 999999]
	return fmt.Sprintf("P%d-%d", g.now().Unix(), suffix)
}
