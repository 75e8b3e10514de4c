// Package notification turns placement domain events into email alerts for
// the recruitment team.
package notification

import (
	"context"
	"time"

	"talenttrack_backend/internal/email"
	"talenttrack_backend/internal/events"
	"talenttrack_backend/platform/config"
	"talenttrack_backend/platform/logger"
)

// Sender is the alert delivery surface; email.SMTPSender implements it.
type Sender interface {
	SendRenegeAlert(ctx context.Context, toEmail, candidateName, reason string, revenueCleared float64) error
	SendAtRiskAlert(ctx context.Context, toEmail, candidateName string, guaranteeEnds time.Time) error
	SendGuaranteeCompletedAlert(ctx context.Context, toEmail, candidateName string) error
	SendFollowUpReminder(ctx context.Context, toEmail, candidateName string, guaranteeEnds time.Time) error
}

var _ Sender = (*email.SMTPSender)(nil)

// Module listens on the event bus and emails the alerts address.
type Module struct {
	sender  Sender
	alertTo string
	log     *logger.Logger
}

func NewModule(cfg config.EmailConfig, log *logger.Logger) *Module {
	m := &Module{alertTo: cfg.GetAlertsAddress(), log: log}
	if cfg.GetEmailEnabled() {
		m.sender = email.NewSMTPSender(
			cfg.GetSMTPHost(),
			cfg.GetSMTPPort(),
			cfg.GetSMTPUsername(),
			cfg.GetSMTPPassword(),
			cfg.GetEmailFromAddress(),
			cfg.GetEmailFromName(),
		)
	}
	return m
}

// NewModuleWithSender wires an explicit sender, used in tests.
func NewModuleWithSender(sender Sender, alertTo string, log *logger.Logger) *Module {
	return &Module{sender: sender, alertTo: alertTo, log: log}
}

// RegisterHandlers subscribes to the placement events that produce alerts.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.CandidateReneged{}.EventName(), m)
	bus.Subscribe(events.PlacementAtRisk{}.EventName(), m)
	bus.Subscribe(events.GuaranteeCompleted{}.EventName(), m)
	bus.Subscribe(events.PlacementFollowUpDue{}.EventName(), m)
	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate alert.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	if m.sender == nil || m.alertTo == "" {
		return nil
	}
	switch e := event.(type) {
	case events.CandidateReneged:
		return m.sender.SendRenegeAlert(ctx, m.alertTo, e.CandidateName, e.Reason, e.RevenueCleared)
	case events.PlacementAtRisk:
		return m.sender.SendAtRiskAlert(ctx, m.alertTo, e.CandidateName, e.GuaranteeEnds)
	case events.GuaranteeCompleted:
		return m.sender.SendGuaranteeCompletedAlert(ctx, m.alertTo, e.CandidateName)
	case events.PlacementFollowUpDue:
		return m.sender.SendFollowUpReminder(ctx, m.alertTo, e.CandidateName, e.GuaranteeEnds)
	}
	return nil
}
