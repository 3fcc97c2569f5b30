// Package notify runs the fire-and-forget receipt/notification pipeline.
// Jobs are queued after a registration is durably persisted; failures are
// logged and swallowed, never surfaced to the registrant, and never roll
// back the registration.
package notify

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/ybthummar/MathFlowAI/internal/domain"
	"github.com/ybthummar/MathFlowAI/pkg/config"
)

const jobTimeout = 30 * time.Second

type jobKind int

const (
	jobConfirmation jobKind = iota
	jobStatusChange
)

type job struct {
	kind jobKind
	team domain.Team
}

// ReceiptRenderer renders the PDF attached to confirmation emails.
type ReceiptRenderer interface {
	Render(team domain.Team) ([]byte, error)
	Filename(registrationID string) string
}

// Service is a single-worker queue for outbound notifications.
type Service struct {
	jobs     chan job
	sender   Sender
	receipts ReceiptRenderer
	cfg      config.APIConfig
	logger   *slog.Logger
}

// New constructs a Service. Run must be started for jobs to drain.
func New(sender Sender, receipts ReceiptRenderer, cfg config.APIConfig, logger *slog.Logger) *Service {
	size := cfg.NotifyQueueSize
	if size <= 0 {
		size = 64
	}
	return &Service{
		jobs:     make(chan job, size),
		sender:   sender,
		receipts: receipts,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run drains the queue until ctx is cancelled. Each job gets its own timeout
// detached from any request lifecycle: once dispatched, a notification runs
// to completion or failure regardless of client disconnects.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.jobs:
			s.process(j)
		}
	}
}

// RegistrationConfirmed enqueues a confirmation email with PDF receipt.
func (s *Service) RegistrationConfirmed(team domain.Team) {
	s.enqueue(job{kind: jobConfirmation, team: team})
}

// StatusChanged enqueues a status-change email. PENDING targets are skipped;
// returning a team to the review queue is not worth an email.
func (s *Service) StatusChanged(team domain.Team) {
	if team.Status == domain.StatusPending {
		return
	}
	s.enqueue(job{kind: jobStatusChange, team: team})
}

// enqueue never blocks the request path: when the queue is full the job is
// dropped with an error log.
func (s *Service) enqueue(j job) {
	select {
	case s.jobs <- j:
	default:
		s.logger.Error("notification queue full, dropping job",
			"registration_id", j.team.RegistrationID,
			"kind", j.kind,
		)
	}
}

func (s *Service) process(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	var err error
	switch j.kind {
	case jobConfirmation:
		err = s.sendConfirmation(ctx, j.team)
	case jobStatusChange:
		err = s.sendStatusUpdate(ctx, j.team)
	}
	if err != nil {
		s.logger.Error("notification failed",
			"registration_id", j.team.RegistrationID,
			"kind", j.kind,
			"error", err,
		)
		return
	}
	s.logger.Info("notification sent",
		"registration_id", j.team.RegistrationID,
		"kind", j.kind,
	)
}

func (s *Service) sendConfirmation(ctx context.Context, team domain.Team) error {
	leader := team.Leader()
	html, err := renderEmail(confirmationTmpl, emailData{
		EventName:  s.cfg.EventName,
		EventDate:  s.cfg.EventDate,
		EventVenue: s.cfg.EventVenue,
		Team:       team,
		Leader:     leader,
	})
	if err != nil {
		return err
	}

	email := Email{
		To:      team.LeaderEmail,
		ToName:  leader.Name,
		Subject: fmt.Sprintf("Registration Confirmed - %s [%s]", s.cfg.EventName, team.RegistrationID),
		HTML:    html,
	}

	// The receipt is best-effort: a rendering failure downgrades the email
	// to attachment-less rather than losing the confirmation entirely.
	if s.receipts != nil {
		pdf, rerr := s.receipts.Render(team)
		if rerr != nil {
			s.logger.Error("receipt render failed, sending without attachment",
				"registration_id", team.RegistrationID,
				"error", rerr,
			)
		} else {
			email.Attachment = &Attachment{
				Filename: s.receipts.Filename(team.RegistrationID),
				Content:  pdf,
			}
		}
	}
	return s.sender.Send(ctx, email)
}

func (s *Service) sendStatusUpdate(ctx context.Context, team domain.Team) error {
	leader := team.Leader()
	html, err := renderEmail(statusTmpl, emailData{
		EventName:  s.cfg.EventName,
		EventDate:  s.cfg.EventDate,
		EventVenue: s.cfg.EventVenue,
		Team:       team,
		Leader:     leader,
		StatusLine: statusLine(team.TeamName, team.Status),
	})
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, Email{
		To:      team.LeaderEmail,
		ToName:  leader.Name,
		Subject: fmt.Sprintf("Registration %s - %s [%s]", team.Status, s.cfg.EventName, team.RegistrationID),
		HTML:    html,
	})
}
