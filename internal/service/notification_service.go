package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/RaythaHQ/ticket-system-sub001/internal/config"
	"github.com/RaythaHQ/ticket-system-sub001/internal/events"
	"github.com/RaythaHQ/ticket-system-sub001/internal/repository"
)

// NotificationService reacts to SLA compliance events. Delivery is a logged
// stub; the rule's breach behavior decides the audience.
type NotificationService struct {
	dispatcher events.Dispatcher
	rules      repository.SlaRuleRepository
	tickets    repository.TicketRepository
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, rules repository.SlaRuleRepository, tickets repository.TicketRepository, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		rules:      rules,
		tickets:    tickets,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to SLA events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventSlaApproaching, n.handleSlaApproaching)
	n.dispatcher.Subscribe(events.EventSlaBreached, n.handleSlaBreached)
	n.dispatcher.Subscribe(events.EventSlaExtended, n.handleSlaExtended)
}

func (n *NotificationService) handleSlaApproaching(ctx context.Context, event events.Event) error {
	n.logger.Info("SlaApproachingBreach", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.notifyForCompliance(ctx, event)
	return nil
}

func (n *NotificationService) handleSlaBreached(ctx context.Context, event events.Event) error {
	n.logger.Info("SlaBreached", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.notifyForCompliance(ctx, event)
	return nil
}

func (n *NotificationService) handleSlaExtended(ctx context.Context, event events.Event) error {
	n.logger.Info("SlaExtended", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

// notifyForCompliance resolves the rule's breach behavior and fans out to
// the configured audiences. Payloads without a rule fall back to the global
// webhook only.
func (n *NotificationService) notifyForCompliance(ctx context.Context, event events.Event) {
	payload, ok := event.Payload.(events.SlaCompliancePayload)
	if !ok || payload.RuleID == nil {
		n.sendWebhookStub(ctx, event, n.cfg.WebhookURL)
		return
	}

	rule, err := n.rules.GetByID(ctx, *payload.RuleID)
	if err != nil {
		n.logger.Warn("notification rule lookup failed",
			zap.String("rule_id", *payload.RuleID), zap.Error(err))
		n.sendWebhookStub(ctx, event, n.cfg.WebhookURL)
		return
	}

	behavior, err := rule.BreachBehavior()
	if err != nil {
		n.logger.Warn("breach behavior unreadable",
			zap.String("rule_id", rule.ID), zap.Error(err))
		return
	}

	if behavior.NotifyAssignee {
		if ticket, err := n.tickets.GetByID(ctx, event.TicketID); err == nil && ticket.AssigneeID != nil {
			n.sendEmailStub(ctx, event, "assignee:"+*ticket.AssigneeID)
		}
	}
	for _, addr := range behavior.AdditionalAddresses {
		n.sendEmailStub(ctx, event, addr)
	}
	if behavior.WebhookURL != "" {
		n.sendWebhookStub(ctx, event, behavior.WebhookURL)
	} else {
		n.sendWebhookStub(ctx, event, n.cfg.WebhookURL)
	}
}

func (n *NotificationService) sendEmailStub(ctx context.Context, event events.Event, recipient string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", recipient),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookStub(ctx context.Context, event events.Event, url string) {
	if strings.TrimSpace(url) == "" {
		return
	}
	n.logger.Debug("sendWebhookStub",
		zap.String("url", url),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
