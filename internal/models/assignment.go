package models

import "time"

type AssignmentStatus string

const (
	AssignmentAssigned   AssignmentStatus = "assigned"
	AssignmentAccepted   AssignmentStatus = "accepted"
	AssignmentInProgress AssignmentStatus = "in-progress"
	AssignmentCompleted  AssignmentStatus = "completed"
	AssignmentCancelled  AssignmentStatus = "cancelled"
)

func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentAssigned, AssignmentAccepted, AssignmentInProgress, AssignmentCompleted, AssignmentCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s AssignmentStatus) Terminal() bool {
	return s == AssignmentCompleted || s == AssignmentCancelled
}

type TaskType string

const (
	TaskPickup       TaskType = "Pickup"
	TaskDistribution TaskType = "Distribution"
	TaskBoth         TaskType = "Both"
)

func (t TaskType) Valid() bool {
	switch t {
	case TaskPickup, TaskDistribution, TaskBoth:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Coord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location pairs a human-readable address with optional coordinates.
// Coordinates are stored verbatim, never computed on.
type Location struct {
	Address     string `json:"address,omitempty"`
	Coordinates *Coord `json:"coordinates,omitempty"`
}

// Feedback is the 1-5 rating an NGO records on an assignment.
type Feedback struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// Assignment is a task issued by an NGO to one volunteer, optionally tied
// to a donation the NGO has claimed. VolunteerName is a snapshot so the
// record stays readable after the volunteer is deleted.
type Assignment struct {
	ID                   string           `json:"id"`
	NGOID                string           `json:"ngo"`
	VolunteerID          string           `json:"volunteer"`
	VolunteerName        string           `json:"volunteerName"`
	DonationID           string           `json:"donation,omitempty"`
	TaskType             TaskType         `json:"taskType"`
	TaskDescription      string           `json:"taskDescription"`
	PickupLocation       *Location        `json:"pickupLocation,omitempty"`
	DistributionLocation *Location        `json:"distributionLocation,omitempty"`
	ScheduledDate        time.Time        `json:"scheduledDate"`
	EstimatedDuration    string           `json:"estimatedDuration,omitempty"`
	Status               AssignmentStatus `json:"status"`
	Priority             Priority         `json:"priority"`
	Notes                string           `json:"notes,omitempty"`
	NotificationSent     bool             `json:"notificationSent"`
	AcceptedAt           *time.Time       `json:"acceptedAt,omitempty"`
	StartedAt            *time.Time       `json:"startedAt,omitempty"`
	CompletedAt          *time.Time       `json:"completedAt,omitempty"`
	Feedback             *Feedback        `json:"feedback,omitempty"`
	CreatedAt            time.Time        `json:"createdAt"`
}

var assignmentTransitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentAssigned:   {AssignmentAccepted, AssignmentCancelled},
	AssignmentAccepted:   {AssignmentInProgress, AssignmentCancelled},
	AssignmentInProgress: {AssignmentCompleted, AssignmentCancelled},
	AssignmentCompleted:  {},
	AssignmentCancelled:  {},
}

func (a *Assignment) CanTransitionTo(next AssignmentStatus) bool {
	for _, s := range assignmentTransitions[a.Status] {
		if s == next {
			return true
		}
	}
	return false
}
