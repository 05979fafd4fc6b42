package settle

import (
	"testing"
	"time"
)

func TestRetryQueueDeliversAfterDelay(t *testing.T) {
	out := make(chan settleJob, 1)
	done := make(chan struct{})
	defer close(done)

	q := newRetryQueue(out, done)
	q.Enqueue(settleJob{BetID: "bet-1", Attempt: 1}, 10*time.Millisecond)

	select {
	case job := <-out:
		if job.BetID != "bet-1" {
			t.Fatalf("bet id = %s, want bet-1", job.BetID)
		}
	case <-time.After(time.Second):
		t.Fatal("job not delivered")
	}
}

func TestRetryQueueDropsAfterDone(t *testing.T) {
	out := make(chan settleJob) // unbuffered: delivery must block
	done := make(chan struct{})

	q := newRetryQueue(out, done)
	q.Enqueue(settleJob{BetID: "bet-2"}, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(done)

	select {
	case job := <-out:
		t.Fatalf("unexpected delivery after done: %+v", job)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRetryQueueNegativeDelay(t *testing.T) {
	out := make(chan settleJob, 1)
	done := make(chan struct{})
	defer close(done)

	q := newRetryQueue(out, done)
	q.Enqueue(settleJob{BetID: "bet-3"}, -time.Second)

	select {
	case <-out:
	case <-time.After(time.Second):
		t.Fatal("job not delivered with clamped delay")
	}
}
