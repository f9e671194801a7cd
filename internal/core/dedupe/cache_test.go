package dedupe

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func TestCache_CheckAndMark(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newCache(time.Minute, 10, clock.Now)

	assert.False(t, c.CheckAndMark("1:ABC"), "first sighting is new")
	assert.True(t, c.CheckAndMark("1:ABC"), "second sighting is a duplicate")
	assert.False(t, c.CheckAndMark("2:ABC"), "other tenant is independent")

	clock.Advance(2 * time.Minute)
	assert.False(t, c.CheckAndMark("1:ABC"), "expired key is new again")
}

func TestCache_EvictsOldestAtCapacity(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newCache(time.Hour, 2, clock.Now)

	c.CheckAndMark("a")
	c.CheckAndMark("b")
	c.CheckAndMark("c")

	assert.Equal(t, 2, c.Len())
	assert.False(t, c.CheckAndMark("a"), "a was evicted")
}

func TestCache_Sweep(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newCache(time.Minute, 10, clock.Now)

	c.CheckAndMark("old")
	clock.Advance(90 * time.Second)
	c.CheckAndMark("fresh")

	c.sweep()
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.CheckAndMark("fresh"))
}

func TestCache_ConcurrentMarkSingleWinner(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := New(time.Minute, 100)
	defer c.Close()

	var fresh atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !c.CheckAndMark(Key(7, "MSG")) {
				fresh.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, fresh.Load())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "42:3EB0ABCD", Key(42, "3EB0ABCD"))
}
