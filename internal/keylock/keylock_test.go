package keylock

import (
	"sync"
	"testing"
)

func TestLockSerializesSameKey(t *testing.T) {
	l := New()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("user-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Errorf("Expected counter 100, got %d", counter)
	}
}

func TestDifferentKeysDoNotBlock(t *testing.T) {
	l := New()

	unlockA := l.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := l.Lock("b")
		unlockB()
		close(done)
	}()
	<-done
	unlockA()
}

func TestLockReusesMutexForKey(t *testing.T) {
	l := New()
	unlock := l.Lock("k")
	unlock()
	unlock = l.Lock("k")
	unlock()

	if len(l.locks) != 1 {
		t.Errorf("Expected a single mutex for key, got %d", len(l.locks))
	}
}
