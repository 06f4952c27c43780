package lockreg

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireSharesLockInstanceForSamePath(t *testing.T) {
	a := Acquire("/tmp/store-a")
	defer a.Release()

	b := Acquire("/tmp/store-a")
	defer b.Release()

	require.Same(t, a.lock, b.lock)
}

func TestAcquireDiffersForDifferentPaths(t *testing.T) {
	a := Acquire("/tmp/store-a")
	defer a.Release()

	b := Acquire("/tmp/store-b")
	defer b.Release()

	require.NotSame(t, a.lock, b.lock)
}

func TestRelativeAndAbsolutePathsShareOneLock(t *testing.T) {
	a := Acquire("relative-store")
	defer a.Release()

	abs, err := filepath.Abs("relative-store")
	require.NoError(t, err)

	b := Acquire(abs)
	defer b.Release()

	require.Same(t, a.lock, b.lock)
}

func TestWriterExcludesReaders(t *testing.T) {
	w := Acquire("/tmp/store-concurrent")
	defer w.Release()

	w.Lock()

	unblocked := make(chan struct{})
	go func() {
		r := Acquire("/tmp/store-concurrent")
		defer r.Release()
		r.RLock()
		defer r.RUnlock()
		close(unblocked)
	}()

	select {
	case <-unblocked:
		t.Fatal("reader acquired RLock while writer held Lock")
	case <-time.After(20 * time.Millisecond):
	}

	w.Unlock()

	select {
	case <-unblocked:
	case <-time.After(time.Second):
		t.Fatal("reader never unblocked after writer released")
	}
}

func TestManyReadersConcurrent(t *testing.T) {
	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)

	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			l := Acquire("/tmp/store-many-readers")
			defer l.Release()
			l.RLock()
			defer l.RUnlock()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("concurrent readers deadlocked")
	}
}
