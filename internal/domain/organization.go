package domain

import "time"

// OrganizationSettings holds the org-level switches the SLA engine consults.
type OrganizationSettings struct {
	ID                string
	Name              string
	PauseSlaOnSnooze  bool
	MaxExtensions     int
	MaxExtensionHours int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
