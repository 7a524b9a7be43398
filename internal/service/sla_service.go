package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/RaythaHQ/ticket-system-sub001/internal/domain"
	"github.com/RaythaHQ/ticket-system-sub001/internal/events"
	"github.com/RaythaHQ/ticket-system-sub001/internal/repository"
	"github.com/RaythaHQ/ticket-system-sub001/internal/sla"
	apperrors "github.com/RaythaHQ/ticket-system-sub001/pkg/util"
)

// SlaService is the operator surface over the SLA engine: manual extensions,
// refreshes and rule inspection.
type SlaService struct {
	tickets      repository.TicketRepository
	rules        repository.SlaRuleRepository
	organization repository.OrganizationRepository
	history      repository.TicketHistoryRepository
	engine       *sla.DueDateEngine
	guard        *sla.ExtensionGuard
	clock        sla.Clock
	dispatcher   events.Dispatcher
	logger       *zap.Logger
}

// SlaDependencies bundles collaborators for the SLA service.
type SlaDependencies struct {
	TicketRepo       repository.TicketRepository
	RuleRepo         repository.SlaRuleRepository
	OrganizationRepo repository.OrganizationRepository
	HistoryRepo      repository.TicketHistoryRepository
	Engine           *sla.DueDateEngine
	Guard            *sla.ExtensionGuard
	Clock            sla.Clock
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
}

// NewSlaService constructs the service.
func NewSlaService(deps SlaDependencies) *SlaService {
	clock := deps.Clock
	if clock == nil {
		clock = sla.SystemClock{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	guard := deps.Guard
	if guard == nil {
		guard = sla.NewExtensionGuard(clock, nil)
	}
	return &SlaService{
		tickets:      deps.TicketRepo,
		rules:        deps.RuleRepo,
		organization: deps.OrganizationRepo,
		history:      deps.HistoryRepo,
		engine:       deps.Engine,
		guard:        guard,
		clock:        clock,
		dispatcher:   deps.Dispatcher,
		logger:       logger,
	}
}

// ExtendDueDate applies a manual extension on behalf of the staff actor.
// Rejections (caps, closed ticket, past result) come back as domain errors
// and leave the ticket untouched.
func (s *SlaService) ExtendDueDate(ctx context.Context, staff *domain.StaffMember, ticketID string, hours int) (*domain.Ticket, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	settings, err := s.organization.GetSettings(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	wasBreached := ticket.SlaStatus != nil && *ticket.SlaStatus == domain.SlaStatusBreached
	oldDue := copyTimePtr(ticket.SlaDueAt)

	newDue, err := s.guard.Extend(ticket, hours, staff, *settings)
	if err != nil {
		return nil, err
	}

	if err := s.tickets.UpdateSla(ctx, ticket); err != nil {
		return nil, mapWriteError(err)
	}

	s.recordSlaHistory(ctx, staff.ID, ticket.ID, domain.ChangeTypeSlaDueDate,
		map[string]any{"sla_due_at": oldDue},
		map[string]any{"sla_due_at": newDue, "extension_count": ticket.SlaExtensionCount})
	s.publish(ctx, events.Event{
		Type:     events.EventSlaExtended,
		TicketID: ticket.ID,
		Actor:    staffActor(staff.ID),
		Payload: events.SlaExtendedPayload{
			Hours:          hours,
			NewDueAt:       newDue,
			ExtensionCount: ticket.SlaExtensionCount,
			ClearedBreach:  wasBreached,
		},
	})
	return ticket, nil
}

// RefreshSla re-runs rule matching for a ticket on operator demand. With
// restartClock the due date is recomputed from now and any breach cleared.
func (s *SlaService) RefreshSla(ctx context.Context, staff *domain.StaffMember, ticketID string, restartClock bool) (*domain.Ticket, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	oldRule := copyStringPtr(ticket.SlaRuleID)
	oldDue := copyTimePtr(ticket.SlaDueAt)

	if _, err := s.engine.Refresh(ctx, ticket, restartClock); err != nil {
		return nil, err
	}

	if err := s.tickets.UpdateSla(ctx, ticket); err != nil {
		return nil, mapWriteError(err)
	}

	if !equalStringPtr(oldRule, ticket.SlaRuleID) {
		s.recordSlaHistory(ctx, staff.ID, ticket.ID, domain.ChangeTypeSlaRule,
			map[string]any{"sla_rule_id": oldRule},
			map[string]any{"sla_rule_id": ticket.SlaRuleID})
	}
	if !equalTimePtr(oldDue, ticket.SlaDueAt) {
		s.recordSlaHistory(ctx, staff.ID, ticket.ID, domain.ChangeTypeSlaDueDate,
			map[string]any{"sla_due_at": oldDue},
			map[string]any{"sla_due_at": ticket.SlaDueAt, "reason": "refresh"})
	}
	s.publish(ctx, events.Event{
		Type:     events.EventSlaRefreshed,
		TicketID: ticket.ID,
		Actor:    staffActor(staff.ID),
		Payload: events.SlaRuleAssignedPayload{
			OldRuleID: oldRule,
			NewRuleID: ticket.SlaRuleID,
			DueAt:     ticket.SlaDueAt,
		},
	})
	return ticket, nil
}

// ListRules returns every configured rule ordered the way the matcher walks.
func (s *SlaService) ListRules(ctx context.Context) ([]domain.SlaRule, error) {
	rules, err := s.rules.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return rules, nil
}

// GetRule fetches a rule by id.
func (s *SlaService) GetRule(ctx context.Context, ruleID string) (*domain.SlaRule, error) {
	rule, err := s.rules.GetByID(ctx, ruleID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("sla rule", map[string]any{"rule_id": ruleID})
		}
		return nil, apperrors.MapError(err)
	}
	return rule, nil
}

func (s *SlaService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *SlaService) recordSlaHistory(ctx context.Context, staffID, ticketID string, changeType domain.TicketChangeType, oldValue, newValue map[string]any) {
	if s.history == nil {
		return
	}
	actor := staffChange(staffID)
	entry := &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: actor.actorType,
		ChangedByID:   actor.actorID,
		ChangeType:    changeType,
		OldValue:      oldValue,
		NewValue:      newValue,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record SLA history",
			zap.String("ticket_id", ticketID),
			zap.Error(err))
	}
}

func (s *SlaService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
