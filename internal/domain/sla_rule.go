package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RuleConditions describes when an SLA rule applies. Absent fields impose no
// constraint; string comparisons are case-insensitive.
type RuleConditions struct {
	Priority     *TicketPriority `json:"priority,omitempty"`
	Category     *string         `json:"category,omitempty"`
	OwningTeamID *string         `json:"owning_team_id,omitempty"`
}

// BusinessHoursConfig defines the weekly window during which SLA time is
// consumed. Times are organization-local, HH:MM.
type BusinessHoursConfig struct {
	Workdays   []time.Weekday `json:"workdays"`
	StartOfDay string         `json:"start_of_day"`
	EndOfDay   string         `json:"end_of_day"`
}

// ErrDegenerateWindow marks a business-hours config that cannot consume time.
var ErrDegenerateWindow = errors.New("business hours window is empty")

// DayWindow returns the start and end of the daily window as minutes from
// midnight. A config with no valid workdays or a window that never opens
// returns ErrDegenerateWindow; callers fall back to calendar time.
func (c *BusinessHoursConfig) DayWindow() (startMin, endMin int, err error) {
	if c == nil || !c.hasValidWorkday() {
		return 0, 0, ErrDegenerateWindow
	}
	startMin, err = parseClockMinutes(c.StartOfDay)
	if err != nil {
		return 0, 0, fmt.Errorf("start_of_day: %w", err)
	}
	endMin, err = parseClockMinutes(c.EndOfDay)
	if err != nil {
		return 0, 0, fmt.Errorf("end_of_day: %w", err)
	}
	if endMin <= startMin {
		return 0, 0, ErrDegenerateWindow
	}
	return startMin, endMin, nil
}

// hasValidWorkday reports whether at least one configured workday is a real
// weekday. Out-of-range values arrive via JSON and must not leave the
// due-date walk advancing day by day with no window ever opening.
func (c *BusinessHoursConfig) hasValidWorkday() bool {
	for _, d := range c.Workdays {
		if d >= time.Sunday && d <= time.Saturday {
			return true
		}
	}
	return false
}

// IsWorkday reports whether the weekday belongs to the configured set.
func (c *BusinessHoursConfig) IsWorkday(day time.Weekday) bool {
	for _, d := range c.Workdays {
		if d == day {
			return true
		}
	}
	return false
}

func parseClockMinutes(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return h*60 + m, nil
}

// BreachBehavior describes what the notification subsystem should do when a
// rule's deadline is breached. The engine only carries it.
type BreachBehavior struct {
	NotifyAssignee      bool     `json:"notify_assignee"`
	AdditionalAddresses []string `json:"additional_addresses,omitempty"`
	WebhookURL          string   `json:"webhook_url,omitempty"`
}

// SlaRule is one organization-level service-level rule. Conditions,
// BusinessHours and BreachBehavior are stored as JSON documents and decoded
// on demand so a malformed payload degrades one rule, not the whole set.
type SlaRule struct {
	ID                      string
	Name                    string
	Description             string
	ConditionsRaw           json.RawMessage
	TargetResolutionMinutes int
	TargetCloseMinutes      *int
	BusinessHoursEnabled    bool
	BusinessHoursRaw        json.RawMessage
	BreachBehaviorRaw       json.RawMessage
	IsActive                bool
	Priority                int
	Position                int
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// Conditions decodes the rule's condition document.
func (r *SlaRule) Conditions() (RuleConditions, error) {
	var c RuleConditions
	if len(r.ConditionsRaw) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(r.ConditionsRaw, &c); err != nil {
		return RuleConditions{}, fmt.Errorf("rule %s conditions: %w", r.ID, err)
	}
	return c, nil
}

// BusinessHours decodes the business-hours document. Returns nil when the
// rule does not restrict counting to business hours.
func (r *SlaRule) BusinessHours() (*BusinessHoursConfig, error) {
	if !r.BusinessHoursEnabled || len(r.BusinessHoursRaw) == 0 {
		return nil, nil
	}
	var c BusinessHoursConfig
	if err := json.Unmarshal(r.BusinessHoursRaw, &c); err != nil {
		return nil, fmt.Errorf("rule %s business hours: %w", r.ID, err)
	}
	return &c, nil
}

// BreachBehavior decodes the breach-behavior document.
func (r *SlaRule) BreachBehavior() (BreachBehavior, error) {
	var b BreachBehavior
	if len(r.BreachBehaviorRaw) == 0 {
		return b, nil
	}
	if err := json.Unmarshal(r.BreachBehaviorRaw, &b); err != nil {
		return BreachBehavior{}, fmt.Errorf("rule %s breach behavior: %w", r.ID, err)
	}
	return b, nil
}
