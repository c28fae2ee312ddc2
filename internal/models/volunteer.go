package models

import "time"

type VolunteerStatus string

const (
	VolunteerActive       VolunteerStatus = "active"
	VolunteerInactive     VolunteerStatus = "inactive"
	VolunteerOnAssignment VolunteerStatus = "on-assignment"
)

func (s VolunteerStatus) Valid() bool {
	switch s {
	case VolunteerActive, VolunteerInactive, VolunteerOnAssignment:
		return true
	}
	return false
}

type Availability string

const (
	AvailabilityFullTime Availability = "Full-time"
	AvailabilityPartTime Availability = "Part-time"
	AvailabilityWeekends Availability = "Weekends"
	AvailabilityFlexible Availability = "Flexible"
)

func (a Availability) Valid() bool {
	switch a {
	case AvailabilityFullTime, AvailabilityPartTime, AvailabilityWeekends, AvailabilityFlexible:
		return true
	}
	return false
}

// Volunteer is a person registered under exactly one NGO. CurrentAssignment
// is non-empty exactly when Status is on-assignment.
type Volunteer struct {
	ID                   string          `json:"id"`
	NGOID                string          `json:"ngo"`
	NGOName              string          `json:"ngoName"`
	Name                 string          `json:"name"`
	Email                string          `json:"email"`
	Phone                string          `json:"phone"`
	Address              string          `json:"address,omitempty"`
	Availability         Availability    `json:"availability"`
	Skills               []string        `json:"skills"`
	Status               VolunteerStatus `json:"status"`
	CurrentAssignment    string          `json:"currentAssignment,omitempty"`
	TotalAssignments     int             `json:"totalAssignments"`
	CompletedAssignments int             `json:"completedAssignments"`
	Rating               float64         `json:"rating"`
	CreatedAt            time.Time       `json:"createdAt"`
}
