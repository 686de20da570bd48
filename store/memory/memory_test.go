package memory_test

import (
	"testing"

	"github.com/warp/renewal-engine/renewal"
	"github.com/warp/renewal-engine/store/memory"
	"github.com/warp/renewal-engine/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) renewal.ReceiptStore {
		return memory.New()
	})
}
