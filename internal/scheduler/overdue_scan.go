// Package scheduler drives the periodic background scans: overdue loan
// detection and audit trail cleanup.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/config"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/loans"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/tasks"
)

// auditCleanupSchedule runs the retention sweep nightly.
const auditCleanupSchedule = "30 3 * * *"

// OverdueScanScheduler periodically finds open loans past their due date and
// enqueues one notification task per loan. The heavy lifting happens on the
// task queue so a slow scan never blocks the cron loop.
type OverdueScanScheduler struct {
	loans      *loans.Repository
	taskClient *tasks.Client
	scanCfg    config.OverdueScan
	auditCfg   config.Audit

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isScanning bool
	cancelFunc context.CancelFunc
}

// NewOverdueScanScheduler creates a new scheduler instance.
func NewOverdueScanScheduler(loansRepo *loans.Repository, taskClient *tasks.Client, scanCfg config.OverdueScan, auditCfg config.Audit) *OverdueScanScheduler {
	return &OverdueScanScheduler{
		loans:      loansRepo,
		taskClient: taskClient,
		scanCfg:    scanCfg,
		auditCfg:   auditCfg,
		cron:       cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if the overdue scan is enabled.
func (s *OverdueScanScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.scanCfg.Enabled {
		log.Printf("Overdue scan scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.scanCfg.Schedule, func() {
		s.runScan()
	})
	if err != nil {
		return fmt.Errorf("invalid overdue scan schedule %q: %w", s.scanCfg.Schedule, err)
	}
	s.entryID = entryID

	if _, err := s.cron.AddFunc(auditCleanupSchedule, func() {
		s.enqueueAuditCleanup()
	}); err != nil {
		return fmt.Errorf("failed to schedule audit cleanup: %w", err)
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Overdue scan scheduler: started with schedule %q", s.scanCfg.Schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running scan to finish.
func (s *OverdueScanScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	// Wake the shutdown watcher started in Start so it does not linger
	// until the parent context is cancelled.
	if s.cancelFunc != nil {
		s.cancelFunc()
	}

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Overdue scan scheduler: stopped")
}

// RunNow triggers an immediate scan.
func (s *OverdueScanScheduler) RunNow() {
	go s.runScan()
}

// IsRunning returns whether the scheduler is active.
func (s *OverdueScanScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the next scan will occur.
func (s *OverdueScanScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runScan finds loans past their due date and enqueues a notification task
// for each. The task itself stamps the loan, so overlapping scans cannot
// produce duplicate notices.
func (s *OverdueScanScheduler) runScan() {
	s.mu.Lock()
	if s.isScanning {
		s.mu.Unlock()
		log.Printf("Overdue scan: skipped (already scanning)")
		return
	}
	s.isScanning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isScanning = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	overdue, err := s.loans.FindOverdue(ctx, time.Now())
	if err != nil {
		log.Printf("Overdue scan: failed to query loans: %v", err)
		return
	}
	if len(overdue) == 0 {
		return
	}

	enqueued := 0
	for _, loan := range overdue {
		if _, err := s.taskClient.Add(tasks.NotifyOverdueLoanTask{LoanID: loan.ID}).Save(); err != nil {
			log.Printf("Overdue scan: failed to enqueue notice for loan %d: %v", loan.ID, err)
			continue
		}
		enqueued++
	}
	log.Printf("Overdue scan: enqueued %d notices for %d overdue loans", enqueued, len(overdue))
}

// enqueueAuditCleanup schedules the nightly audit retention sweep.
func (s *OverdueScanScheduler) enqueueAuditCleanup() {
	task := tasks.CleanupAuditEventsTask{RetentionDays: s.auditCfg.RetentionDays}
	if _, err := s.taskClient.Add(task).Save(); err != nil {
		log.Printf("Audit cleanup: failed to enqueue: %v", err)
	}
}
