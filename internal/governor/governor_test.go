package governor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAdmit_SlidingWindow(t *testing.T) {
	g := New(10, 3)
	assert.True(t, g.Admit("u1"))
	assert.True(t, g.Admit("u1"))
	assert.True(t, g.Admit("u1"))
	assert.False(t, g.Admit("u1"), "fourth admission within the window must be denied")

	// A different user has an independent window.
	assert.True(t, g.Admit("u2"))
}

func TestAdmit_WindowPrunesOldEntries(t *testing.T) {
	g := New(10, 1)
	g.windowSize = 20 * time.Millisecond

	assert.True(t, g.Admit("u1"))
	assert.False(t, g.Admit("u1"))

	time.Sleep(30 * time.Millisecond)
	assert.True(t, g.Admit("u1"), "entries older than the window must be pruned")
}

func TestAcquireRelease_Semaphore(t *testing.T) {
	g := New(2, 100)

	p1 := g.Acquire()
	p2 := g.Acquire()

	acquired := make(chan struct{})
	go func() {
		p3 := g.Acquire()
		close(acquired)
		p3.Release()
	}()

	select {
	case <-acquired:
		t.Fatal("third acquire should block while two permits are held")
	case <-time.After(20 * time.Millisecond):
	}

	p1.Release()
	p1.Release() // Release must be safe to call more than once.

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("acquire never unblocked after release")
	}

	p2.Release()
}

func TestAdmit_ConcurrentUsersAreIndependent(t *testing.T) {
	g := New(10, 5)
	var wg sync.WaitGroup
	results := make([]bool, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = g.Admit("shared-user")
		}(i)
	}
	wg.Wait()

	admitted := 0
	for _, ok := range results {
		if ok {
			admitted++
		}
	}
	assert.Equal(t, 5, admitted, "at most the configured limit may be admitted under concurrent load")
}
