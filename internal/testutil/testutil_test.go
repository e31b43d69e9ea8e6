package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedIDGenerator(t *testing.T) {
	g := NewFixedIDGenerator("test-instance-001")
	assert.Equal(t, "test-instance-001", g.Generate())
	assert.Equal(t, "test-instance-001", g.Generate())
}

func TestFixedIDGenerator_DefaultID(t *testing.T) {
	g := NewFixedIDGenerator("")
	assert.Equal(t, "test-instance-default", g.Generate())
}

func TestSequenceIDGenerator(t *testing.T) {
	g := &SequenceIDGenerator{}
	assert.Equal(t, "inst-1", g.Generate())
	assert.Equal(t, "inst-2", g.Generate())
}

func TestSequenceIDGenerator_Concurrent(t *testing.T) {
	g := &SequenceIDGenerator{}
	seen := sync.Map{}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := g.Generate()
			if _, dup := seen.LoadOrStore(id, true); dup {
				t.Errorf("duplicate id %q", id)
			}
		}()
	}
	wg.Wait()
}

func TestFrozenClock(t *testing.T) {
	start := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	c := NewFrozenClock(start)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, c.Now(), c.Now(), "frozen clock never drifts")

	c.Advance(90 * time.Second)
	assert.Equal(t, start.Add(90*time.Second), c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}
