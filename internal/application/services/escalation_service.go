package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/docuflow/backend/internal/domain/models"
	"github.com/docuflow/backend/internal/domain/ports"
	"github.com/docuflow/backend/pkg/constants"
	"github.com/docuflow/backend/pkg/utils"
)

// EscalationService periodically sweeps for overdue pending tasks and
// escalates each to the assignee's superior. A task escalates at most once:
// the sweep only picks up tasks whose escalated_to is still unset, so a
// repeated sweep over the same task is a no-op.
type EscalationService struct {
	tasks     ports.TaskRepository
	ledger    ports.DelegationLogRepository
	directory ports.Directory
	notifier  ports.Notifier
	tx        ports.TxRunner
	cron      *cron.Cron
	interval  time.Duration
}

// NewEscalationService creates a new EscalationService sweeping at the given
// interval
func NewEscalationService(
	tasks ports.TaskRepository,
	ledger ports.DelegationLogRepository,
	directory ports.Directory,
	notifier ports.Notifier,
	tx ports.TxRunner,
	interval time.Duration,
) *EscalationService {
	return &EscalationService{
		tasks:     tasks,
		ledger:    ledger,
		directory: directory,
		notifier:  notifier,
		tx:        tx,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		interval: interval,
	}
}

// Start schedules the recurring sweep. Safe to call once per process.
func (s *EscalationService) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, func() {
		if err := s.Sweep(context.Background()); err != nil {
			log.Printf("❌ Escalation sweep failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule escalation sweep: %w", err)
	}
	s.cron.Start()
	log.Printf("⏰ Escalation monitor started (every %s)", s.interval)
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish
func (s *EscalationService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Printf("⏰ Escalation monitor stopped")
}

// Sweep escalates every overdue pending task that has not been escalated
// yet. Each task is handled in its own transaction so one bad record cannot
// block the rest of the batch.
func (s *EscalationService) Sweep(ctx context.Context) error {
	now := time.Now().UTC()
	overdue, err := s.tasks.FindOverdue(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to list overdue tasks: %w", err)
	}
	if len(overdue) == 0 {
		return nil
	}

	log.Printf("⏰ Escalation sweep: %d overdue task(s)", len(overdue))
	for _, task := range overdue {
		if err := s.escalateTask(ctx, task, now); err != nil {
			log.Printf("⚠️ Failed to escalate task %s: %v", task.ID, err)
		}
	}
	return nil
}

// escalateTask hands one overdue task to the assignee's superior and
// extends its due time. Tasks whose assignee has no superior stay with the
// assignee untouched.
func (s *EscalationService) escalateTask(ctx context.Context, task *models.WorkflowTask, now time.Time) error {
	superior, err := s.directory.GetSuperior(ctx, task.AssigneeID)
	if err != nil {
		return fmt.Errorf("failed to look up superior of %s: %w", task.AssigneeID, err)
	}
	if superior == nil {
		log.Printf("⚠️ Task %s overdue but assignee %s has no superior, leaving in place", task.ID, task.AssigneeID)
		return nil
	}

	newDueAt := now.Add(constants.EscalationExtensionHours * time.Hour)
	err = s.tx.InTransaction(ctx, func(txCtx context.Context) error {
		if err := s.tasks.Escalate(txCtx, task.ID, superior.ID, newDueAt); err != nil {
			return fmt.Errorf("failed to escalate task: %w", err)
		}
		entry := &models.DelegationLogEntry{
			ID:          utils.GenerateID(),
			TaskID:      task.ID,
			FromUserID:  task.AssigneeID,
			ToUserID:    superior.ID,
			Action:      constants.LedgerActionEscalate,
			DelegatedAt: now,
		}
		return s.ledger.Append(txCtx, entry)
	})
	if err != nil {
		return err
	}

	if err := s.notifier.Notify(ctx, superior.ID, constants.NotificationTypeTaskEscalated,
		fmt.Sprintf("Escalated task: %s", task.StepName),
		fmt.Sprintf("The approval task '%s' was overdue and has been escalated to you", task.StepName)); err != nil {
		log.Printf("⚠️ Failed to notify %s about escalation of task %s: %v", superior.ID, task.ID, err)
	}

	log.Printf("⏰ Task %s escalated from %s to %s (new due %s)", task.ID, task.AssigneeID, superior.ID, newDueAt.Format(time.RFC3339))
	return nil
}
