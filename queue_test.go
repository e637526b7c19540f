package socketclient

import (
	"sync"
	"testing"
	"time"
)

func TestSerialQueueRunsInOrder(t *testing.T) {
	q := NewSerialQueue()
	defer q.Stop()

	var mu sync.Mutex
	var got []int
	done := make(chan struct{})

	for i := 0; i < 10; i++ {
		i := i
		q.Dispatch(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			if i == 9 {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for queued tasks")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, v := range got {
		if i != v {
			t.Fatalf("tasks ran out of order: %v", got)
		}
	}
}

func TestSerialQueueDropsAfterStop(t *testing.T) {
	q := NewSerialQueue()
	q.Stop()

	ran := make(chan struct{}, 1)
	q.Dispatch(func() { ran <- struct{}{} })

	select {
	case <-ran:
		t.Error("expected a stopped queue to drop tasks")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSerialQueuePerformAfter(t *testing.T) {
	q := NewSerialQueue()
	defer q.Stop()

	fired := make(chan time.Time, 1)
	start := time.Now()
	q.performAfter(30*time.Millisecond, func() { fired <- time.Now() })

	select {
	case at := <-fired:
		if at.Sub(start) < 25*time.Millisecond {
			t.Errorf("task fired too early: %v", at.Sub(start))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for deferred task")
	}
}
