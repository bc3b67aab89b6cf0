package workers

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"quest-board/models"
	"quest-board/services"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// Retention windows for the cleanup job and thresholds for the health check.
const (
	approvalRetention   = 90 * 24 * time.Hour
	questRetention      = 365 * 24 * time.Hour
	stuckClaimThreshold = 7 * 24 * time.Hour
)

// Fixed job names. These are the only valid arguments to TriggerJob/StopJob.
const (
	JobQuestClaimExpiry    = "quest-claim-expiry"
	JobQuestCooldownExpiry = "quest-cooldown-expiry"
	JobCleanupOldData      = "cleanup-old-data"
	JobHealthCheck         = "health-check"
	JobNotifyAdmins        = "notify-admins-pending-approvals"
)

// JobHandler is one scheduled unit of work. A returned error is recorded on
// the job's status but never stops future firings.
type JobHandler func() error

type registeredJob struct {
	handler JobHandler
	job     gocron.Job
}

// Scheduler owns the recurring-job registry: a gocron scheduler plus per-job
// handler and status maps, all behind one mutex. One instance per process,
// constructed in main and handed to the job admin routes. Statuses live only
// in memory; a restart starts every job fresh.
//
// The one concurrency guarantee: at most one execution per job name at a
// time. A firing that finds its job still running is skipped and logged,
// without touching the error counters.
type Scheduler struct {
	DB       *gorm.DB
	Quests   *services.QuestService
	Store    *services.StoreService
	Users    *services.UserService
	Notifier *services.NotificationService

	clock clockwork.Clock
	cron  gocron.Scheduler

	mu       sync.Mutex
	jobs     map[string]*registeredJob
	statuses map[string]*models.JobStatus
}

// NewScheduler wires the scheduler against the services its handlers need.
// Pass nil for clock to use wall time.
func NewScheduler(db *gorm.DB, quests *services.QuestService, store *services.StoreService, users *services.UserService, notifier *services.NotificationService, clock clockwork.Clock) (*Scheduler, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	cron, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithClock(clock),
	)
	if err != nil {
		return nil, fmt.Errorf("create gocron scheduler: %w", err)
	}

	return &Scheduler{
		DB:       db,
		Quests:   quests,
		Store:    store,
		Users:    users,
		Notifier: notifier,
		clock:    clock,
		cron:     cron,
		jobs:     make(map[string]*registeredJob),
		statuses: make(map[string]*models.JobStatus),
	}, nil
}

// InitializeJobs registers the fixed job set and starts the schedules.
// Cron expressions are evaluated in UTC.
func (s *Scheduler) InitializeJobs() error {
	jobs := []struct {
		name     string
		schedule string
		handler  JobHandler
	}{
		{JobQuestClaimExpiry, "0 * * * *", s.handleQuestClaimExpiry},
		{JobQuestCooldownExpiry, "0 * * * *", s.handleQuestCooldownExpiry},
		{JobCleanupOldData, "0 0 * * *", s.handleCleanupOldData},
		{JobHealthCheck, "*/30 * * * *", s.handleHealthCheck},
		{JobNotifyAdmins, "*/10 * * * *", s.handleNotifyAdmins},
	}

	for _, j := range jobs {
		if err := s.register(j.name, j.schedule, j.handler); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.refreshNextRuns()
	log.Printf("✅ [Scheduler] %d jobs registered and running (UTC)", len(jobs))
	return nil
}

// register binds a handler to a cron schedule and creates its status entry.
// The handler reference is stored at registration, so TriggerJob dispatches
// through the same map the schedule uses.
func (s *Scheduler) register(name, schedule string, handler JobHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered: %w", name, services.ErrConfiguration)
	}

	job, err := s.cron.NewJob(
		gocron.CronJob(schedule, false),
		gocron.NewTask(func() { s.runScheduled(name) }),
		gocron.WithName(name),
	)
	if err != nil {
		return fmt.Errorf("register job %q (%s): %w: %v", name, schedule, services.ErrConfiguration, err)
	}

	s.jobs[name] = &registeredJob{handler: handler, job: job}
	s.statuses[name] = &models.JobStatus{Name: name, Schedule: schedule}
	return nil
}

// runScheduled is the timer-driven entry: handler errors are recorded and
// swallowed so the schedule keeps going.
func (s *Scheduler) runScheduled(name string) {
	if err := s.run(name); err != nil {
		log.Printf("❌ [Scheduler] Job %q failed: %v", name, err)
	}
}

// TriggerJob runs a job immediately and synchronously, outside its schedule.
// Unlike scheduled firings, the handler's error comes back to the caller.
func (s *Scheduler) TriggerJob(name string) error {
	s.mu.Lock()
	_, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("job not found: %w", services.ErrNotFound)
	}

	log.Printf("▶️ [Scheduler] Manual trigger for job %q", name)
	return s.run(name)
}

// run executes a job under the per-name latch, updating its status record.
func (s *Scheduler) run(name string) error {
	s.mu.Lock()
	reg, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("job not found: %w", services.ErrNotFound)
	}
	status := s.statuses[name]
	if status.IsRunning {
		s.mu.Unlock()
		log.Printf("⏭️ [Scheduler] Job %q still running, skipping this firing", name)
		return nil
	}
	status.IsRunning = true
	s.mu.Unlock()

	started := s.clock.Now().UTC()
	err := reg.handler()

	s.mu.Lock()
	defer s.mu.Unlock()

	// StopJob may have removed the entry while the handler ran.
	status, ok = s.statuses[name]
	if !ok {
		return err
	}

	status.IsRunning = false
	status.LastRun = &started
	if next, nerr := reg.job.NextRun(); nerr == nil {
		status.NextRun = &next
	}

	if err != nil {
		status.ErrorCount++
		msg := err.Error()
		status.LastError = &msg
	} else {
		status.ErrorCount = 0
		status.LastError = nil
	}
	return err
}

// StopJob cancels future firings and drops the job and its status entry.
// A later re-registration starts from a fresh status.
func (s *Scheduler) StopJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("job not found: %w", services.ErrNotFound)
	}

	if err := s.cron.RemoveJob(reg.job.ID()); err != nil {
		return fmt.Errorf("remove job %q: %w", name, err)
	}
	delete(s.jobs, name)
	delete(s.statuses, name)
	log.Printf("🛑 [Scheduler] Job %q stopped and removed", name)
	return nil
}

// StopAllJobs removes every job and shuts the underlying scheduler down.
func (s *Scheduler) StopAllJobs() error {
	s.mu.Lock()
	s.jobs = make(map[string]*registeredJob)
	s.statuses = make(map[string]*models.JobStatus)
	s.mu.Unlock()

	if err := s.cron.Shutdown(); err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}
	log.Println("🛑 [Scheduler] All jobs stopped")
	return nil
}

// GetJobStatus returns a snapshot of one job's status.
func (s *Scheduler) GetJobStatus(name string) (*models.JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, ok := s.statuses[name]
	if !ok {
		return nil, fmt.Errorf("job not found: %w", services.ErrNotFound)
	}
	snapshot := *status
	return &snapshot, nil
}

// GetAllJobStatuses returns snapshots of every registered job, sorted by name.
func (s *Scheduler) GetAllJobStatuses() []models.JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.JobStatus, 0, len(s.statuses))
	for _, status := range s.statuses {
		out = append(out, *status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) refreshNextRuns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, reg := range s.jobs {
		if next, err := reg.job.NextRun(); err == nil {
			s.statuses[name].NextRun = &next
		}
	}
}

// --- Handlers ---

func (s *Scheduler) handleQuestClaimExpiry() error {
	freed, err := s.Quests.SweepClaimExpiry()
	if err != nil {
		return err
	}
	if freed > 0 {
		log.Printf("♻️ [Scheduler] Claim expiry sweep released %d quest(s)", freed)
	}
	return nil
}

func (s *Scheduler) handleQuestCooldownExpiry() error {
	reopened, err := s.Quests.SweepCooldownExpiry()
	if err != nil {
		return err
	}
	if reopened > 0 {
		log.Printf("♻️ [Scheduler] Cooldown sweep reopened %d quest(s)", reopened)
	}
	return nil
}

// handleCleanupOldData purges approval rows older than 90 days and
// terminal-status quests untouched for a year. Reward state is never touched.
func (s *Scheduler) handleCleanupOldData() error {
	now := s.clock.Now().UTC()

	result := s.DB.Where("created_at < ?", now.Add(-approvalRetention)).
		Delete(&models.QuestApproval{})
	if result.Error != nil {
		return fmt.Errorf("cleanup approvals: %w", result.Error)
	}
	approvals := result.RowsAffected

	result = s.DB.Where("status IN ? AND updated_at < ?",
		[]models.QuestStatus{models.QuestStatusApproved, models.QuestStatusRejected},
		now.Add(-questRetention)).
		Delete(&models.Quest{})
	if result.Error != nil {
		return fmt.Errorf("cleanup quests: %w", result.Error)
	}

	if approvals > 0 || result.RowsAffected > 0 {
		log.Printf("🧹 [Scheduler] Cleanup removed %d approval(s), %d quest(s)", approvals, result.RowsAffected)
	}
	return nil
}

// handleHealthCheck verifies store connectivity and logs warnings for stuck
// claims and negative balances. Read-only; fails only if the store is down.
func (s *Scheduler) handleHealthCheck() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return fmt.Errorf("health check: %w: %v", services.ErrStoreUnavailable, err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("health check ping: %w: %v", services.ErrStoreUnavailable, err)
	}

	now := s.clock.Now().UTC()

	var stuck int64
	if err := s.DB.Model(&models.Quest{}).
		Where("status = ? AND claimed_at < ?", models.QuestStatusClaimed, now.Add(-stuckClaimThreshold)).
		Count(&stuck).Error; err != nil {
		return fmt.Errorf("health check stuck claims: %w", err)
	}
	if stuck > 0 {
		log.Printf("⚠️ [Health] %d quest(s) claimed over 7 days without progress", stuck)
	}

	var negative int64
	if err := s.DB.Model(&models.User{}).
		Where("bounty_balance < 0").
		Count(&negative).Error; err != nil {
		return fmt.Errorf("health check balances: %w", err)
	}
	if negative > 0 {
		log.Printf("⚠️ [Health] %d user(s) with negative bounty balance", negative)
	}

	return nil
}

// handleNotifyAdmins counts work waiting on admin review (completed quests,
// pending store purchases) and pings every admin when there is any.
func (s *Scheduler) handleNotifyAdmins() error {
	var completed int64
	if err := s.DB.Model(&models.Quest{}).
		Where("status = ?", models.QuestStatusCompleted).
		Count(&completed).Error; err != nil {
		return fmt.Errorf("notify admins count quests: %w", err)
	}

	pending, err := s.Store.CountPendingTransactions()
	if err != nil {
		return fmt.Errorf("notify admins count transactions: %w", err)
	}

	if completed+pending == 0 {
		return nil
	}

	admins, err := s.Users.ListAdmins()
	if err != nil {
		return fmt.Errorf("notify admins list admins: %w", err)
	}

	for _, admin := range admins {
		s.Notifier.Emit(admin.ID, models.NotificationAdminApprovalNeeded,
			"Approvals waiting",
			fmt.Sprintf("%d completed quest(s) and %d pending purchase(s) need review.", completed, pending),
			map[string]interface{}{
				"completed_quests":     completed,
				"pending_transactions": pending,
			})
	}
	return nil
}
