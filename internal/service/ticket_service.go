package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/RaythaHQ/ticket-system-sub001/internal/domain"
	"github.com/RaythaHQ/ticket-system-sub001/internal/events"
	"github.com/RaythaHQ/ticket-system-sub001/internal/repository"
	"github.com/RaythaHQ/ticket-system-sub001/internal/sla"
	apperrors "github.com/RaythaHQ/ticket-system-sub001/pkg/util"
)

// TicketService coordinates ticket workflows and keeps the SLA fields
// consistent across creation, SLA-relevant edits, lifecycle transitions and
// snoozes.
type TicketService struct {
	tickets      repository.TicketRepository
	history      repository.TicketHistoryRepository
	organization repository.OrganizationRepository
	engine       *sla.DueDateEngine
	stateMachine *sla.ComplianceStateMachine
	snoozer      *sla.SnoozeClockAdjuster
	clock        sla.Clock
	dispatcher   events.Dispatcher
	logger       *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo       repository.TicketRepository
	HistoryRepo      repository.TicketHistoryRepository
	OrganizationRepo repository.OrganizationRepository
	Engine           *sla.DueDateEngine
	StateMachine     *sla.ComplianceStateMachine
	Clock            sla.Clock
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	OwningTeamID *string
	Title        string
	Description  string
	Priority     domain.TicketPriority
	Category     string
}

// TicketAttributeUpdate carries the SLA-relevant fields staff may edit.
// Nil fields are left unchanged.
type TicketAttributeUpdate struct {
	Priority     *domain.TicketPriority
	Category     *string
	OwningTeamID *string
	ClearTeam    bool
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clock := deps.Clock
	if clock == nil {
		clock = sla.SystemClock{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:      deps.TicketRepo,
		history:      deps.HistoryRepo,
		organization: deps.OrganizationRepo,
		engine:       deps.Engine,
		stateMachine: deps.StateMachine,
		snoozer:      sla.NewSnoozeClockAdjuster(),
		clock:        clock,
		dispatcher:   deps.Dispatcher,
		logger:       logger,
	}
}

// CreateTicket creates a ticket and runs the initial SLA evaluation.
func (s *TicketService) CreateTicket(ctx context.Context, requesterID string, input TicketCreateInput) (*domain.Ticket, error) {
	ticket := &domain.Ticket{
		ExternalKey:  generateTicketKey(),
		RequesterID:  requesterID,
		OwningTeamID: input.OwningTeamID,
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Status:       domain.TicketStatusOpen,
		Priority:     input.Priority,
		Category:     strings.TrimSpace(input.Category),
		CreatedAt:    s.clock.Now(),
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}

	rule, err := s.engine.EvaluateAndAssign(ctx, ticket)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    userActor(requesterID),
		Payload: events.TicketCreatedPayload{
			Priority:     ticket.Priority,
			Category:     ticket.Category,
			OwningTeamID: ticket.OwningTeamID,
			Title:        ticket.Title,
		},
	})
	if rule != nil {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventSlaRuleAssigned,
			TicketID: ticket.ID,
			Actor:    systemActor(),
			Payload: events.SlaRuleAssignedPayload{
				NewRuleID: ticket.SlaRuleID,
				DueAt:     ticket.SlaDueAt,
			},
		})
	}
	return ticket, nil
}

// UpdateAttributes edits the SLA-relevant ticket fields and re-evaluates the
// rule assignment. When the resolved rule is unchanged the due date is left
// alone; when it changes, the due clock restarts from creation time.
func (s *TicketService) UpdateAttributes(ctx context.Context, staff *domain.StaffMember, ticketID string, update TicketAttributeUpdate) (*domain.Ticket, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.IsClosed() {
		return nil, apperrors.NewConflict("Cannot modify a closed ticket", map[string]any{"ticket_id": ticketID})
	}

	before := snapshotSla(ticket)
	oldPriority := ticket.Priority
	oldCategory := ticket.Category
	oldTeam := ticket.OwningTeamID

	if update.Priority != nil {
		ticket.Priority = *update.Priority
	}
	if update.Category != nil {
		ticket.Category = strings.TrimSpace(*update.Category)
	}
	if update.ClearTeam {
		ticket.OwningTeamID = nil
	} else if update.OwningTeamID != nil {
		ticket.OwningTeamID = update.OwningTeamID
	}

	if _, err := s.engine.EvaluateAndAssign(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, mapWriteError(err)
	}

	s.recordAttributeHistory(ctx, staff, ticket, oldPriority, oldCategory, oldTeam)
	s.recordAndEmitSlaChanges(ctx, ticket, before, staffActor(staff.ID), "rule re-evaluation")
	return ticket, nil
}

// UpdateStatus moves the ticket through its lifecycle. Resolving or closing
// completes the SLA clock; a breach that already happened stays visible.
func (s *TicketService) UpdateStatus(ctx context.Context, staff *domain.StaffMember, ticketID string, newStatus domain.TicketStatus, comment string) (*domain.Ticket, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(ticket.Status, newStatus) {
		return nil, apperrors.NewValidationError("invalid status transition", map[string]any{
			"from": ticket.Status,
			"to":   newStatus,
		})
	}

	before := snapshotSla(ticket)
	oldStatus := ticket.Status
	ticket.Status = newStatus
	switch newStatus {
	case domain.TicketStatusResolved, domain.TicketStatusClosed, domain.TicketStatusCancelled:
		now := s.clock.Now()
		ticket.ClosedAt = &now
		s.stateMachine.Complete(ticket)
	default:
		ticket.ClosedAt = nil
		// Reopening resumes the compliance clock against the original due
		// date. A breached state stays as recorded.
		if ticket.SlaStatus != nil && *ticket.SlaStatus == domain.SlaStatusCompleted && ticket.SlaDueAt != nil {
			onTrack := domain.SlaStatusOnTrack
			ticket.SlaStatus = &onTrack
		}
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, mapWriteError(err)
	}

	s.recordHistory(ctx, staffChange(staff.ID), ticket.ID, domain.ChangeTypeStatus,
		map[string]any{"status": oldStatus},
		map[string]any{"status": newStatus, "comment": comment})
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    staffActor(staff.ID),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Comment:   comment,
		},
	})
	s.recordAndEmitSlaChanges(ctx, ticket, before, staffActor(staff.ID), "lifecycle change")
	return ticket, nil
}

// Snooze parks the ticket until the given instant.
func (s *TicketService) Snooze(ctx context.Context, staff *domain.StaffMember, ticketID string, until time.Time) (*domain.Ticket, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.IsClosed() {
		return nil, apperrors.NewConflict("Cannot snooze a closed ticket", map[string]any{"ticket_id": ticketID})
	}
	now := s.clock.Now()
	if !until.After(now) {
		return nil, apperrors.NewValidationError("Snooze end must be in the future", map[string]any{"until": until})
	}
	if ticket.SnoozedAt != nil && ticket.UnsnoozedAt == nil {
		return nil, apperrors.NewConflict("Ticket is already snoozed", map[string]any{"ticket_id": ticketID})
	}

	ticket.SnoozedAt = &now
	ticket.SnoozedUntil = &until
	ticket.UnsnoozedAt = nil
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, mapWriteError(err)
	}
	return ticket, nil
}

// Unsnooze wakes the ticket and, when the organization pauses the SLA clock
// during snoozes, shifts the due date forward by the snoozed duration. The
// shift never re-matches rules or changes compliance state by itself.
func (s *TicketService) Unsnooze(ctx context.Context, staff *domain.StaffMember, ticketID string) (*domain.Ticket, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.SnoozedAt == nil || ticket.UnsnoozedAt != nil {
		return nil, apperrors.NewValidationError("Ticket is not snoozed", map[string]any{"ticket_id": ticketID})
	}

	settings, err := s.organization.GetSettings(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := s.clock.Now()
	ticket.UnsnoozedAt = &now
	oldDue := ticket.SlaDueAt
	shifted := s.snoozer.ApplyUnsnooze(ticket, *settings)

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, mapWriteError(err)
	}

	if shifted != nil {
		paused := int(now.Sub(*ticket.SnoozedAt) / time.Minute)
		s.recordHistory(ctx, staffChange(staff.ID), ticket.ID, domain.ChangeTypeSlaDueDate,
			map[string]any{"sla_due_at": oldDue},
			map[string]any{"sla_due_at": shifted, "reason": "snooze pause"})
		s.publishEvent(ctx, events.Event{
			Type:     events.EventSlaClockShifted,
			TicketID: ticket.ID,
			Actor:    staffActor(staff.ID),
			Payload: events.SlaClockShiftedPayload{
				PausedMinutes: paused,
				NewDueAt:      *shifted,
			},
		})
	}
	return ticket, nil
}

// GetTicket fetches a ticket by id.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.getTicket(ctx, ticketID)
}

// ListHistory returns audit entries for the ticket.
func (s *TicketService) ListHistory(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	if _, err := s.getTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.history.ListByTicket(ctx, ticketID, limit, offset)
}

func (s *TicketService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) recordAttributeHistory(ctx context.Context, staff *domain.StaffMember, ticket *domain.Ticket, oldPriority domain.TicketPriority, oldCategory string, oldTeam *string) {
	if oldPriority != ticket.Priority {
		s.recordHistory(ctx, staffChange(staff.ID), ticket.ID, domain.ChangeTypePriority,
			map[string]any{"priority": oldPriority},
			map[string]any{"priority": ticket.Priority})
	}
	if oldCategory != ticket.Category {
		s.recordHistory(ctx, staffChange(staff.ID), ticket.ID, domain.ChangeTypeCategory,
			map[string]any{"category": oldCategory},
			map[string]any{"category": ticket.Category})
	}
	if !equalStringPtr(oldTeam, ticket.OwningTeamID) {
		s.recordHistory(ctx, staffChange(staff.ID), ticket.ID, domain.ChangeTypeTeam,
			map[string]any{"owning_team_id": oldTeam},
			map[string]any{"owning_team_id": ticket.OwningTeamID})
	}
}

// slaSnapshot captures the SLA fields before a mutation for change-log and
// event emission.
type slaSnapshot struct {
	RuleID *string
	DueAt  *time.Time
	Status *domain.SlaStatus
}

func snapshotSla(ticket *domain.Ticket) slaSnapshot {
	return slaSnapshot{
		RuleID: copyStringPtr(ticket.SlaRuleID),
		DueAt:  copyTimePtr(ticket.SlaDueAt),
		Status: copySlaStatusPtr(ticket.SlaStatus),
	}
}

// recordAndEmitSlaChanges diffs the snapshot against the persisted ticket and
// produces one history row and one event per changed SLA aspect.
func (s *TicketService) recordAndEmitSlaChanges(ctx context.Context, ticket *domain.Ticket, before slaSnapshot, actor events.Actor, reason string) {
	if !equalStringPtr(before.RuleID, ticket.SlaRuleID) {
		s.recordHistory(ctx, actorChange(actor), ticket.ID, domain.ChangeTypeSlaRule,
			map[string]any{"sla_rule_id": before.RuleID},
			map[string]any{"sla_rule_id": ticket.SlaRuleID})
		s.publishEvent(ctx, events.Event{
			Type:     events.EventSlaRuleAssigned,
			TicketID: ticket.ID,
			Actor:    actor,
			Payload: events.SlaRuleAssignedPayload{
				OldRuleID: before.RuleID,
				NewRuleID: ticket.SlaRuleID,
				DueAt:     ticket.SlaDueAt,
			},
		})
	}
	if !equalTimePtr(before.DueAt, ticket.SlaDueAt) {
		s.recordHistory(ctx, actorChange(actor), ticket.ID, domain.ChangeTypeSlaDueDate,
			map[string]any{"sla_due_at": before.DueAt},
			map[string]any{"sla_due_at": ticket.SlaDueAt, "reason": reason})
		s.publishEvent(ctx, events.Event{
			Type:     events.EventSlaDueDateChanged,
			TicketID: ticket.ID,
			Actor:    actor,
			Payload: events.SlaDueDateChangedPayload{
				OldDueAt: before.DueAt,
				NewDueAt: ticket.SlaDueAt,
				Reason:   reason,
			},
		})
	}
	if !equalSlaStatusPtr(before.Status, ticket.SlaStatus) {
		s.recordHistory(ctx, actorChange(actor), ticket.ID, domain.ChangeTypeSlaStatus,
			map[string]any{"sla_status": before.Status},
			map[string]any{"sla_status": ticket.SlaStatus})
	}
}

type historyActor struct {
	actorType domain.ActorType
	actorID   *string
}

func staffChange(staffID string) historyActor {
	id := staffID
	return historyActor{actorType: domain.ActorTypeStaff, actorID: &id}
}

func actorChange(actor events.Actor) historyActor {
	switch actor.Type {
	case domain.ActorTypeStaff:
		return historyActor{actorType: domain.ActorTypeStaff, actorID: actor.StaffID}
	case domain.ActorTypeUser:
		return historyActor{actorType: domain.ActorTypeUser, actorID: actor.UserID}
	default:
		return historyActor{actorType: domain.ActorTypeSystem}
	}
}

func (s *TicketService) recordHistory(ctx context.Context, actor historyActor, ticketID string, changeType domain.TicketChangeType, oldValue, newValue map[string]any) {
	if s.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: actor.actorType,
		ChangedByID:   actor.actorID,
		ChangeType:    changeType,
		OldValue:      oldValue,
		NewValue:      newValue,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record ticket history",
			zap.String("ticket_id", ticketID),
			zap.String("change_type", string(changeType)),
			zap.Error(err))
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
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

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func userActor(userID string) events.Actor {
	return events.Actor{Type: domain.ActorTypeUser, UserID: &userID}
}

func staffActor(staffID string) events.Actor {
	return events.Actor{Type: domain.ActorTypeStaff, StaffID: &staffID}
}

func systemActor() events.Actor {
	return events.Actor{Type: domain.ActorTypeSystem}
}

func mapWriteError(err error) error {
	if err == repository.ErrVersionConflict {
		return apperrors.NewConflict("Ticket was modified concurrently, retry the operation", nil)
	}
	if err == pgx.ErrNoRows {
		return apperrors.NewNotFound("ticket", nil)
	}
	return apperrors.MapError(err)
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:        {domain.TicketStatusInProgress, domain.TicketStatusCancelled},
	domain.TicketStatusInProgress:  {domain.TicketStatusPendingUser, domain.TicketStatusResolved, domain.TicketStatusCancelled},
	domain.TicketStatusPendingUser: {domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusCancelled},
	domain.TicketStatusResolved:    {domain.TicketStatusClosed, domain.TicketStatusInProgress},
	domain.TicketStatusClosed:      {},
	domain.TicketStatusCancelled:   {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func equalSlaStatusPtr(a, b *domain.SlaStatus) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyTimePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copySlaStatusPtr(p *domain.SlaStatus) *domain.SlaStatus {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
