// Package storage persists the platform entities. Every status transition
// is exposed as a conditional write: the update succeeds only if the stored
// status still matches the expected source state, which is the single
// cross-request coordination point the platform relies on.
package storage

import (
	"context"
	"time"

	"github.com/example/foodshare/internal/models"
)

// DonationStore persists donations. Transition methods return the updated
// record; a failed precondition surfaces as apperr.Conflict and a missing
// id as apperr.NotFound.
type DonationStore interface {
	InsertDonation(ctx context.Context, d *models.Donation) error
	GetDonation(ctx context.Context, id string) (*models.Donation, error)
	ListByRestaurant(ctx context.Context, restaurantID string) ([]*models.Donation, error)
	// ListAvailable returns available donations whose expiry is after now,
	// newest first. Stale available rows past expiry are filtered lazily.
	ListAvailable(ctx context.Context, now time.Time) ([]*models.Donation, error)
	ListClaimedBy(ctx context.Context, ngoID string) ([]*models.Donation, error)

	// ClaimDonation atomically moves an available, not-yet-expired donation
	// to claimed. Past-expiry rows conflict even before the sweep runs.
	ClaimDonation(ctx context.Context, id, ngoID, ngoName string, at time.Time) (*models.Donation, error)
	// TransitionDonation moves the donation from the expected status to
	// next. completedAt is stamped when next is completed.
	TransitionDonation(ctx context.Context, id string, from, next models.DonationStatus, at time.Time) (*models.Donation, error)
	// AcknowledgeDonation completes a picked-up donation claimed by ngoID,
	// stamping the completion fields and the acknowledgement together.
	AcknowledgeDonation(ctx context.Context, id, ngoID string, mealsServed, beneficiaries int, ack models.Acknowledgement, at time.Time) (*models.Donation, error)
	// ExpireDonations moves every available donation with expiry before
	// cutoff to expired and reports how many rows moved.
	ExpireDonations(ctx context.Context, cutoff time.Time) (int, error)
}

type VolunteerStore interface {
	InsertVolunteer(ctx context.Context, v *models.Volunteer) error
	// GetVolunteer resolves id under the owning NGO's scope.
	GetVolunteer(ctx context.Context, id, ngoID string) (*models.Volunteer, error)
	ListVolunteers(ctx context.Context, ngoID string) ([]*models.Volunteer, error)
	UpdateVolunteer(ctx context.Context, v *models.Volunteer) error
	DeleteVolunteer(ctx context.Context, id, ngoID string) error

	// BeginAssignment atomically marks the volunteer on-assignment,
	// links assignmentID and bumps totalAssignments. Fails with Conflict
	// when the volunteer already has an active assignment.
	BeginAssignment(ctx context.Context, id, ngoID, assignmentID string) (*models.Volunteer, error)
	// RevertAssignment undoes BeginAssignment (compensating write).
	RevertAssignment(ctx context.Context, id, assignmentID string, prev models.VolunteerStatus) error
	// EndAssignment frees the volunteer linked to assignmentID; completed
	// additionally bumps completedAssignments. Missing volunteers are not
	// an error: assignments outlive volunteer deletion.
	EndAssignment(ctx context.Context, assignmentID string, completed bool) error
}

type AssignmentStore interface {
	InsertAssignment(ctx context.Context, a *models.Assignment) error
	GetAssignment(ctx context.Context, id, ngoID string) (*models.Assignment, error)
	ListAssignments(ctx context.Context, ngoID string) ([]*models.Assignment, error)
	// TransitionAssignment moves the assignment from the expected status
	// to next, stamping the per-destination timestamp and attaching
	// feedback when supplied.
	TransitionAssignment(ctx context.Context, id string, from, next models.AssignmentStatus, at time.Time, fb *models.Feedback) (*models.Assignment, error)
	// RestoreAssignment overwrites the row from a snapshot; used only to
	// compensate a failed cascade.
	RestoreAssignment(ctx context.Context, a *models.Assignment) error
}

type OrderStore interface {
	InsertOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrdersByRestaurant(ctx context.Context, restaurantID string) ([]*models.Order, error)
	// ListOrdersWithFeedback returns the restaurant's orders carrying
	// feedback, most recent feedback first, capped at limit.
	ListOrdersWithFeedback(ctx context.Context, restaurantID string, limit int) ([]*models.Order, error)
	AttachOrderFeedback(ctx context.Context, id string, fb models.CustomerFeedback) (*models.Order, error)
}

// Store bundles the per-entity interfaces; both implementations satisfy it.
type Store interface {
	DonationStore
	VolunteerStore
	AssignmentStore
	OrderStore
}
