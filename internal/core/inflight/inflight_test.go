package inflight

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSet_AcquireRelease(t *testing.T) {
	s := New()
	key := Key{TenantID: 1, Counterparty: "5511999990000@s.whatsapp.net"}

	release, ok := s.TryAcquire(key)
	require.True(t, ok)
	assert.True(t, s.Contains(key))

	_, ok = s.TryAcquire(key)
	assert.False(t, ok, "second acquire must fail while held")

	release()
	release()
	assert.False(t, s.Contains(key))
	assert.Equal(t, 0, s.Len())

	_, ok = s.TryAcquire(key)
	assert.True(t, ok)
}

func TestSet_KeysAreIndependent(t *testing.T) {
	s := New()

	_, ok := s.TryAcquire(Key{TenantID: 1, Counterparty: "a"})
	require.True(t, ok)
	_, ok = s.TryAcquire(Key{TenantID: 2, Counterparty: "a"})
	assert.True(t, ok)
	_, ok = s.TryAcquire(Key{TenantID: 1, Counterparty: "b"})
	assert.True(t, ok)
	assert.Equal(t, 3, s.Len())
}

func TestSet_ConcurrentSingleHolder(t *testing.T) {
	s := New()
	key := Key{TenantID: 9, Counterparty: "x"}

	var winners atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, ok := s.TryAcquire(key); ok {
				winners.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, winners.Load())
}

func TestKey_String(t *testing.T) {
	assert.Equal(t, "3:5511@s.whatsapp.net", Key{TenantID: 3, Counterparty: "5511@s.whatsapp.net"}.String())
}
