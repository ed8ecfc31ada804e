package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Report describes the last finished cycle
type Report struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	Duration     string    `json:"duration"`
	Mode         string    `json:"mode"`
	Feeds        int       `json:"feeds"`
	FailedFeeds  []string  `json:"failed_feeds,omitempty"`
	Collected    int       `json:"collected"`
	Published    int       `json:"published"`
	WouldPublish int       `json:"would_publish"`
	Failed       int       `json:"failed"`
	Message      string    `json:"message"`
	Error        string    `json:"error,omitempty"`
}

// Scheduler runs one cycle right away and then one per interval. Cycles
// run on a single goroutine and never overlap.
type Scheduler struct {
	cycle    Cycle
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu   sync.RWMutex
	last *Report
	runs int
}

func NewScheduler(cycle Cycle, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cycle:    cycle,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.executeTask(NewPublishCycleTask(s.cycle))

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.executeTask(NewPublishCycleTask(s.cycle))
			}
		}
	}()
}

// Stop cancels the running cycle, if any, and waits for it to return
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) LastReport() (Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.last == nil {
		return Report{}, false
	}
	return *s.last, true
}

func (s *Scheduler) Runs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs
}

func (s *Scheduler) executeTask(task *PublishCycleTask) {
	task.Start()

	err := task.Execute(s.ctx)
	if err != nil {
		slog.Error("Task execution failed", "type", string(task.GetType()), "id", task.GetID(), "error", err)
	}

	report := newReport(task, err)

	s.mu.Lock()
	s.last = &report
	s.runs++
	s.mu.Unlock()
}

func newReport(task *PublishCycleTask, err error) Report {
	report := Report{
		ID:           task.ID,
		Duration:     task.GetDuration().String(),
		Mode:         task.cycle.Mode.String(),
		Feeds:        task.Stats.Feeds,
		FailedFeeds:  task.Stats.FailedFeeds,
		Collected:    task.Stats.Collected,
		Published:    task.Summary.Published,
		WouldPublish: task.Summary.WouldPublish,
		Failed:       task.Summary.Failed,
		Message:      task.Summary.Message(),
	}
	if task.StartedAt != nil {
		report.StartedAt = task.StartedAt.UTC()
	}
	if err != nil {
		report.Error = err.Error()
	}
	return report
}
