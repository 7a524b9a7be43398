package domain

import "time"

// StaffRole enumerates internal operator roles.
type StaffRole string

const (
	StaffRoleAgent    StaffRole = "AGENT"
	StaffRoleTeamLead StaffRole = "TEAM_LEAD"
	StaffRoleAdmin    StaffRole = "ADMIN"
)

// StaffMember models a support agent or administrator.
type StaffMember struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         StaffRole
	TeamID       *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanManageTickets reports whether the member holds the manage-tickets
// capability, which exempts them from extension caps.
func (s *StaffMember) CanManageTickets() bool {
	if s == nil {
		return false
	}
	return s.Role == StaffRoleTeamLead || s.Role == StaffRoleAdmin
}
