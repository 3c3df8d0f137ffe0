package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/school-dashboard/backend/internal/emaillogs"
	"github.com/school-dashboard/backend/internal/mailer"
	"github.com/school-dashboard/backend/internal/metrics"
	"github.com/school-dashboard/backend/internal/models"
	"github.com/school-dashboard/backend/pkg/queue"
)

// EmailProcessor processes invite email jobs: SMTP delivery plus email log
// bookkeeping. Delivery failures are retried by the queue and never touch
// the invitation itself.
type EmailProcessor struct {
	logs   *emaillogs.Repository
	mailer mailer.Mailer
	queue  *queue.Queue
	logger *zap.Logger
}

// NewEmailProcessor creates an invite email processor.
func NewEmailProcessor(logs *emaillogs.Repository, m mailer.Mailer, q *queue.Queue, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{logs: logs, mailer: m, queue: q, logger: logger}
}

// Process executes one invite email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeInviteEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.InviteEmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	err := p.mailer.Send(ctx, payload.RecipientEmail, models.Role(payload.Role), payload.InviteLink)
	if err != nil {
		metrics.EmailsFailed.Inc()
		if mErr := p.logs.MarkFailed(ctx, payload.EmailLogID, err.Error()); mErr != nil {
			p.logger.Warn("mark email log failed", zap.Error(mErr), zap.String("email_log_id", payload.EmailLogID.String()))
		}
		return fmt.Errorf("send invite email: %w", err)
	}

	metrics.EmailsSent.Inc()
	if err := p.logs.MarkSent(ctx, payload.EmailLogID); err != nil {
		p.logger.Warn("mark email log sent failed", zap.Error(err), zap.String("email_log_id", payload.EmailLogID.String()))
	}
	p.logger.Info("invite email delivered",
		zap.String("invite_id", payload.InviteID.String()),
		zap.String("to", payload.RecipientEmail))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
