package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/logger"
)

type dispatchJob struct {
	roomID  int64
	payload []byte
	enqAt   time.Time
}

// Dispatcher publishes room events from a bounded queue on a fixed set of
// workers. Enqueue never blocks; a full queue drops the event with a warning.
type Dispatcher struct {
	pub       Publisher
	timeout   time.Duration
	ch        chan dispatchJob
	metricsCh chan time.Duration
	wg        sync.WaitGroup
}

func NewDispatcher(pub Publisher, queueSize int, timeout time.Duration) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Dispatcher{
		pub:       pub,
		timeout:   timeout,
		ch:        make(chan dispatchJob, queueSize),
		metricsCh: make(chan time.Duration, 4096),
	}
}

// Start launches the workers and returns a stop function that waits, up to
// the caller's deadline, for the queue to drain.
func (d *Dispatcher) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 4
	}
	stopCh := make(chan struct{})
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for {
				select {
				case job := <-d.ch:
					d.publish(job)
				case <-stopCh:
					// 남은 이벤트는 최대한 흘려보낸다
					for {
						select {
						case job := <-d.ch:
							d.publish(job)
						default:
							return
						}
					}
				}
			}
		}()
	}
	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(func() { close(stopCh) })
		done := make(chan struct{})
		go func() {
			d.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (d *Dispatcher) publish(job dispatchJob) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := d.pub.Publish(ctx, job.roomID, job.payload); err != nil {
		logger.Warn("realtime publish failed", zap.Int64("room_id", job.roomID), zap.Error(err))
		return
	}
	select {
	case d.metricsCh <- time.Since(job.enqAt):
	default:
	}
}

// Enqueue schedules ev for publishing. It reports false when the event was dropped.
func (d *Dispatcher) Enqueue(ev Event) bool {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error("realtime encode failed", zap.Int64("room_id", ev.RoomID), zap.Error(err))
		return false
	}
	select {
	case d.ch <- dispatchJob{roomID: ev.RoomID, payload: payload, enqAt: time.Now()}:
		return true
	default:
		logger.Warn("realtime queue full, drop event", zap.Int64("room_id", ev.RoomID), zap.String("type", string(ev.Type)))
		return false
	}
}

// Metrics streams enqueue-to-publish latency, one value per delivered event.
func (d *Dispatcher) Metrics() <-chan time.Duration { return d.metricsCh }

// QueueLen samples the current queue length.
func (d *Dispatcher) QueueLen() int { return len(d.ch) }
