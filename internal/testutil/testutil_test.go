package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scriptblocks/internal/ir"
)

func TestSequentialIDs(t *testing.T) {
	ids := NewSequentialIDs("n")
	assert.Equal(t, "n-1", ids.Generate())
	assert.Equal(t, "n-2", ids.Generate())

	ids.Reset()
	assert.Equal(t, "n-1", ids.Generate())

	assert.Equal(t, "b-1", NewSequentialIDs("").Generate())
}

func TestSequentialIDs_ThreadSafe(t *testing.T) {
	ids := NewSequentialIDs("t")
	var mu sync.Mutex
	seen := map[string]bool{}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				id := ids.Generate()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 1000)
}

func TestDeterministicClock(t *testing.T) {
	c := NewDeterministicClock()
	assert.Equal(t, Epoch, c.Now())
	assert.Equal(t, Epoch.Add(time.Second), c.Now())

	c.Reset()
	assert.Equal(t, Epoch, c.Now())
}

func TestNestedDocument(t *testing.T) {
	doc := NestedDocument(t)

	require.Contains(t, doc.Blocks, "if1")
	assert.Equal(t, []string{"w1", "loop", "c1"}, doc.Blocks[RootID].Children[ir.SlotBody])
	assert.Equal(t, []string{"p1"}, doc.Blocks["if1"].Children[ir.SlotConsequent])
	assert.Empty(t, doc.Blocks["w1"].Children)
	assert.Equal(t, "x", FixedIDs("x").Generate())
}
