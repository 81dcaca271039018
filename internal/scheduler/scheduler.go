// Package scheduler runs periodic maintenance jobs such as the demo reset.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
	"github.com/samber/lo"
)

// ErrJobNotFound is returned for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// JobStatus represents the status of a job.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusScheduled JobStatus = "scheduled"
)

// JobInfo contains information about a scheduled job.
type JobInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      JobStatus `json:"status"`
	LastRun     time.Time `json:"lastRun"`
	NextRun     time.Time `json:"nextRun"`
	Schedule    string    `json:"schedule"`
	RunCount    int       `json:"runCount"`
	ErrorCount  int       `json:"errorCount"`
	LastError   string    `json:"lastError,omitempty"`
	Singleton   bool      `json:"singleton"`

	job gocron.Job
}

// JobFunc represents a function that can be scheduled.
type JobFunc func(ctx context.Context) error

// Scheduler manages scheduled jobs.
type Scheduler struct {
	gocron gocron.Scheduler
	mu     sync.Mutex
	jobs   map[string]*JobInfo
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new scheduler.
func New() (*Scheduler, error) {
	gocronScheduler, err := gocron.NewScheduler(gocron.WithLogger(newLogger()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		gocron: gocronScheduler,
		jobs:   make(map[string]*JobInfo),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	log.Info("Starting job scheduler")
	s.gocron.Start()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, info := range s.jobs {
		if nextRun, err := info.job.NextRun(); err == nil {
			info.NextRun = nextRun
			log.Debug("Next run time for job", "id", id, "nextRun", nextRun)
		} else {
			log.Warn("Failed to get next run time for job", "id", id, "error", err)
		}
	}
}

// Stop cancels running jobs and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	log.Info("Stopping job scheduler")
	s.cancel()
	return s.gocron.Shutdown()
}

// AddCronJob registers fn under id, triggered by a 5-field cron expression.
func (s *Scheduler) AddCronJob(id, name, description, cron string, fn JobFunc, singleton bool) error {
	return s.AddJob(id, name, description, cron, gocron.CronJob(cron, false), fn, singleton)
}

// AddJob registers fn under id with an arbitrary gocron definition.
// Singleton jobs never overlap; a trigger during a run is rescheduled.
func (s *Scheduler) AddJob(
	id, name, description, schedule string,
	def gocron.JobDefinition,
	fn JobFunc,
	singleton bool,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return fmt.Errorf("job %s already exists", id)
	}

	info := &JobInfo{
		ID:          id,
		Name:        name,
		Description: description,
		Status:      JobStatusScheduled,
		Schedule:    schedule,
		Singleton:   singleton,
	}

	var opts []gocron.JobOption
	if singleton {
		opts = append(opts, gocron.WithSingletonMode(gocron.LimitModeReschedule))
	}

	job, err := s.gocron.NewJob(def, gocron.NewTask(s.wrapJobFunc(id, fn)), opts...)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", id, err)
	}
	info.job = job
	s.jobs[id] = info

	log.Info("Added job to scheduler", "id", id, "name", name, "schedule", schedule, "singleton", singleton)
	return nil
}

// RunJobNow triggers a job outside its schedule.
func (s *Scheduler) RunJobNow(id string) error {
	s.mu.Lock()
	info, exists := s.jobs[id]
	s.mu.Unlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	log.Info("Manually triggering job", "id", id, "name", info.Name)
	if err := info.job.RunNow(); err != nil {
		return fmt.Errorf("failed to trigger job %s: %w", id, err)
	}
	return nil
}

// GetJobs returns a snapshot of all jobs ordered by id.
func (s *Scheduler) GetJobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := lo.MapToSlice(s.jobs, func(_ string, info *JobInfo) JobInfo { return *info })
	slices.SortFunc(jobs, func(a, b JobInfo) int { return strings.Compare(a.ID, b.ID) })
	return jobs
}

// GetJob returns a snapshot of one job.
func (s *Scheduler) GetJob(id string) (JobInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, exists := s.jobs[id]
	if !exists {
		return JobInfo{}, false
	}
	return *info, true
}

func (s *Scheduler) wrapJobFunc(id string, fn JobFunc) func() {
	return func() {
		s.mu.Lock()
		info := s.jobs[id]
		if info == nil {
			s.mu.Unlock()
			log.Error("Job info not found", "id", id)
			return
		}
		info.Status = JobStatusRunning
		info.LastRun = time.Now()
		info.RunCount++
		name := info.Name
		s.mu.Unlock()

		log.Info("Starting job", "id", id, "name", name)
		err := fn(s.ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		if nextRun, nerr := info.job.NextRun(); nerr == nil {
			info.NextRun = nextRun
		}
		if err != nil {
			log.Error("Job failed", "id", id, "name", name, "error", err)
			info.Status = JobStatusFailed
			info.ErrorCount++
			info.LastError = err.Error()
			return
		}
		log.Info("Job completed successfully", "id", id, "name", name)
		info.Status = JobStatusCompleted
		info.LastError = ""
	}
}
