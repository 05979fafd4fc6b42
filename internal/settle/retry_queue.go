package settle

import "time"

type settleJob struct {
	BetID       string
	WinningSide string
	Attempt     int
}

type retryQueue struct {
	out  chan<- settleJob
	done <-chan struct{}
}

func newRetryQueue(out chan<- settleJob, done <-chan struct{}) *retryQueue {
	return &retryQueue{out: out, done: done}
}

func (q *retryQueue) Enqueue(job settleJob, delay time.Duration) {
	if delay < 0 {
		delay = 0
	}
	time.AfterFunc(delay, func() {
		select {
		case <-q.done:
			return
		case q.out <- job:
			metricSettleQueueLen.Set(int64(len(q.out)))
		}
	})
}
