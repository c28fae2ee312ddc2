// Package coordinator manages volunteers and the assignment state machine.
// Creating an assignment can force the linked donation to picked-up, and
// finishing one frees the volunteer; both cascades are explicit sequences
// of conditional writes with compensation on partial failure.
package coordinator

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/foodshare/internal/apperr"
	"github.com/example/foodshare/internal/auth"
	"github.com/example/foodshare/internal/events"
	"github.com/example/foodshare/internal/models"
	"github.com/example/foodshare/internal/observability"
	"github.com/example/foodshare/internal/rbac"
	"github.com/example/foodshare/internal/storage"
)

type Coordinator struct {
	Volunteers  storage.VolunteerStore
	Assignments storage.AssignmentStore
	Donations   storage.DonationStore
	Events      events.Publisher
	Logger      *slog.Logger
	Now         func() time.Time
}

func New(store storage.Store, pub events.Publisher, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		Volunteers:  store,
		Assignments: store,
		Donations:   store,
		Events:      pub,
		Logger:      logger,
		Now:         time.Now,
	}
}

type VolunteerInput struct {
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Phone        string              `json:"phone"`
	Address      string              `json:"address"`
	Availability models.Availability `json:"availability"`
	Skills       []string            `json:"skills"`
}

func (c *Coordinator) AddVolunteer(ctx context.Context, actor auth.Identity, in VolunteerInput) (*models.Volunteer, error) {
	if err := rbac.Require(actor.Role, rbac.OpVolunteerManage); err != nil {
		return nil, err
	}
	if in.Name == "" || in.Email == "" || in.Phone == "" {
		return nil, apperr.New(apperr.Validation, "name, email, and phone are required")
	}
	if in.Availability == "" {
		in.Availability = models.AvailabilityFlexible
	}
	if !in.Availability.Valid() {
		return nil, apperr.Newf(apperr.Validation, "invalid availability %q", in.Availability)
	}
	if in.Skills == nil {
		in.Skills = []string{}
	}
	v := &models.Volunteer{
		ID:           uuid.NewString(),
		NGOID:        actor.UserID,
		NGOName:      actor.DisplayName,
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Address:      in.Address,
		Availability: in.Availability,
		Skills:       in.Skills,
		Status:       models.VolunteerActive,
		CreatedAt:    c.Now(),
	}
	if err := c.Volunteers.InsertVolunteer(ctx, v); err != nil {
		return nil, err
	}
	c.Logger.Info("volunteer added", "volunteer_id", v.ID, "ngo_id", actor.UserID)
	return v, nil
}

// VolunteerUpdate carries optional fields; nil means leave unchanged.
type VolunteerUpdate struct {
	Name         *string                 `json:"name"`
	Email        *string                 `json:"email"`
	Phone        *string                 `json:"phone"`
	Address      *string                 `json:"address"`
	Availability *models.Availability    `json:"availability"`
	Skills       *[]string               `json:"skills"`
	Status       *models.VolunteerStatus `json:"status"`
}

func (c *Coordinator) UpdateVolunteer(ctx context.Context, actor auth.Identity, volunteerID string, in VolunteerUpdate) (*models.Volunteer, error) {
	if err := rbac.Require(actor.Role, rbac.OpVolunteerManage); err != nil {
		return nil, err
	}
	v, err := c.Volunteers.GetVolunteer(ctx, volunteerID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		v.Name = *in.Name
	}
	if in.Email != nil {
		v.Email = *in.Email
	}
	if in.Phone != nil {
		v.Phone = *in.Phone
	}
	if in.Address != nil {
		v.Address = *in.Address
	}
	if in.Availability != nil {
		if !in.Availability.Valid() {
			return nil, apperr.Newf(apperr.Validation, "invalid availability %q", *in.Availability)
		}
		v.Availability = *in.Availability
	}
	if in.Skills != nil {
		v.Skills = *in.Skills
	}
	if in.Status != nil {
		// only the assignment machine may set on-assignment; manual
		// toggling covers active and inactive
		if *in.Status != models.VolunteerActive && *in.Status != models.VolunteerInactive {
			return nil, apperr.Newf(apperr.Validation, "status can only be set to active or inactive")
		}
		if v.Status == models.VolunteerOnAssignment {
			return nil, apperr.New(apperr.Conflict, "volunteer is on an assignment")
		}
		v.Status = *in.Status
	}
	if err := c.Volunteers.UpdateVolunteer(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// RemoveVolunteer is a hard delete. Historical assignments keep their
// volunteerName snapshot, so no cascading cleanup happens.
func (c *Coordinator) RemoveVolunteer(ctx context.Context, actor auth.Identity, volunteerID string) error {
	if err := rbac.Require(actor.Role, rbac.OpVolunteerManage); err != nil {
		return err
	}
	if err := c.Volunteers.DeleteVolunteer(ctx, volunteerID, actor.UserID); err != nil {
		return err
	}
	c.Logger.Info("volunteer removed", "volunteer_id", volunteerID, "ngo_id", actor.UserID)
	return nil
}

func (c *Coordinator) ListVolunteers(ctx context.Context, actor auth.Identity) ([]*models.Volunteer, error) {
	if err := rbac.Require(actor.Role, rbac.OpVolunteerManage); err != nil {
		return nil, err
	}
	return c.Volunteers.ListVolunteers(ctx, actor.UserID)
}

type AssignmentInput struct {
	VolunteerID          string           `json:"volunteerId"`
	DonationID           string           `json:"donationId"`
	TaskType             models.TaskType  `json:"taskType"`
	TaskDescription      string           `json:"taskDescription"`
	PickupLocation       *models.Location `json:"pickupLocation"`
	DistributionLocation *models.Location `json:"distributionLocation"`
	ScheduledDate        time.Time        `json:"scheduledDate"`
	EstimatedDuration    string           `json:"estimatedDuration"`
	Priority             models.Priority  `json:"priority"`
	Notes                string           `json:"notes"`
}

// CreateAssignment issues a task to a volunteer of the acting NGO. When a
// donation is linked it must currently be claimed by that NGO and gets
// advanced to picked-up as part of the same request. The write order is
// volunteer, donation, assignment; earlier steps are compensated when a
// later one fails so the request applies fully or not at all.
func (c *Coordinator) CreateAssignment(ctx context.Context, actor auth.Identity, in AssignmentInput) (*models.Assignment, error) {
	if err := rbac.Require(actor.Role, rbac.OpAssignmentManage); err != nil {
		return nil, err
	}
	if in.VolunteerID == "" || in.TaskType == "" || in.TaskDescription == "" || in.ScheduledDate.IsZero() {
		return nil, apperr.New(apperr.Validation, "volunteer, task type, description, and scheduled date are required")
	}
	if !in.TaskType.Valid() {
		return nil, apperr.Newf(apperr.Validation, "invalid task type %q", in.TaskType)
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, apperr.Newf(apperr.Validation, "invalid priority %q", in.Priority)
	}

	vol, err := c.Volunteers.GetVolunteer(ctx, in.VolunteerID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if vol.Status == models.VolunteerOnAssignment {
		return nil, apperr.New(apperr.Conflict, "volunteer is already on an assignment")
	}
	if in.DonationID != "" {
		d, err := c.Donations.GetDonation(ctx, in.DonationID)
		if err != nil {
			return nil, err
		}
		if d.ClaimedBy != actor.UserID {
			return nil, apperr.New(apperr.NotFound, "donation not found or not claimed by your NGO")
		}
		if d.Status != models.DonationClaimed {
			return nil, apperr.Newf(apperr.Conflict, "donation is %s, expected claimed", d.Status)
		}
	}

	assignmentID := uuid.NewString()
	prevStatus := vol.Status

	// step 1: reserve the volunteer (conditional on not being busy)
	vol, err = c.Volunteers.BeginAssignment(ctx, in.VolunteerID, actor.UserID, assignmentID)
	if err != nil {
		return nil, err
	}

	// step 2: advance the linked donation claimed -> picked-up
	if in.DonationID != "" {
		if _, err := c.Donations.TransitionDonation(ctx, in.DonationID, models.DonationClaimed, models.DonationPickedUp, c.Now()); err != nil {
			c.compensateBegin(ctx, in.VolunteerID, assignmentID, prevStatus)
			return nil, err
		}
	}

	a := &models.Assignment{
		ID:                   assignmentID,
		NGOID:                actor.UserID,
		VolunteerID:          in.VolunteerID,
		VolunteerName:        vol.Name,
		DonationID:           in.DonationID,
		TaskType:             in.TaskType,
		TaskDescription:      in.TaskDescription,
		PickupLocation:       in.PickupLocation,
		DistributionLocation: in.DistributionLocation,
		ScheduledDate:        in.ScheduledDate,
		EstimatedDuration:    in.EstimatedDuration,
		Status:               models.AssignmentAssigned,
		Priority:             in.Priority,
		Notes:                in.Notes,
		NotificationSent:     c.Events.Enabled(),
		CreatedAt:            c.Now(),
	}

	// step 3: persist the assignment itself
	if err := c.Assignments.InsertAssignment(ctx, a); err != nil {
		if in.DonationID != "" {
			if _, derr := c.Donations.TransitionDonation(ctx, in.DonationID, models.DonationPickedUp, models.DonationClaimed, c.Now()); derr != nil {
				c.Logger.Error("cascade compensation failed", "donation_id", in.DonationID, "error", derr)
			}
		}
		c.compensateBegin(ctx, in.VolunteerID, assignmentID, prevStatus)
		return nil, apperr.Wrap(apperr.Internal, "failed to create assignment", err)
	}

	observability.AssignmentsCreated.Inc()
	c.publish(ctx, events.AssignmentCreated, a.ID, actor.UserID)
	c.Logger.Info("assignment created", "assignment_id", a.ID, "volunteer_id", in.VolunteerID, "donation_id", in.DonationID)
	return a, nil
}

type StatusUpdate struct {
	Status   models.AssignmentStatus `json:"status"`
	Feedback *models.Feedback        `json:"feedback"`
}

// UpdateAssignmentStatus drives the assignment machine. Completing or
// cancelling frees the linked volunteer; only completion bumps the
// volunteer's completed counter. The assignment row moves first (it carries
// the conditional check), then the volunteer; the assignment is restored
// from its prior snapshot if the volunteer write fails.
func (c *Coordinator) UpdateAssignmentStatus(ctx context.Context, actor auth.Identity, assignmentID string, in StatusUpdate) (*models.Assignment, error) {
	if err := rbac.Require(actor.Role, rbac.OpAssignmentManage); err != nil {
		return nil, err
	}
	if !in.Status.Valid() {
		return nil, apperr.Newf(apperr.Validation, "invalid status %q", in.Status)
	}
	if in.Feedback != nil && (in.Feedback.Rating < 1 || in.Feedback.Rating > 5) {
		return nil, apperr.New(apperr.Validation, "feedback rating must be between 1 and 5")
	}
	prev, err := c.Assignments.GetAssignment(ctx, assignmentID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !prev.CanTransitionTo(in.Status) {
		return nil, apperr.Newf(apperr.Conflict, "cannot move assignment from %s to %s", prev.Status, in.Status)
	}

	a, err := c.Assignments.TransitionAssignment(ctx, assignmentID, prev.Status, in.Status, c.Now(), in.Feedback)
	if err != nil {
		return nil, err
	}

	if in.Status == models.AssignmentCompleted || in.Status == models.AssignmentCancelled {
		if err := c.Volunteers.EndAssignment(ctx, assignmentID, in.Status == models.AssignmentCompleted); err != nil {
			if rerr := c.Assignments.RestoreAssignment(ctx, prev); rerr != nil {
				c.Logger.Error("cascade compensation failed", "assignment_id", assignmentID, "error", rerr)
			}
			return nil, apperr.Wrap(apperr.Internal, "failed to release volunteer", err)
		}
		if in.Status == models.AssignmentCompleted {
			observability.AssignmentsCompleted.Inc()
		}
	}

	c.publish(ctx, events.AssignmentMoved, a.ID, actor.UserID)
	c.Logger.Info("assignment status updated", "assignment_id", a.ID, "status", a.Status)
	return a, nil
}

func (c *Coordinator) ListAssignments(ctx context.Context, actor auth.Identity) ([]*models.Assignment, error) {
	if err := rbac.Require(actor.Role, rbac.OpAssignmentManage); err != nil {
		return nil, err
	}
	return c.Assignments.ListAssignments(ctx, actor.UserID)
}

type Stats struct {
	TotalVolunteers      int `json:"totalVolunteers"`
	ActiveVolunteers     int `json:"activeVolunteers"`
	OnAssignment         int `json:"onAssignment"`
	TotalAssignments     int `json:"totalAssignments"`
	PendingAssignments   int `json:"pendingAssignments"`
	InProgress           int `json:"inProgress"`
	CompletedAssignments int `json:"completedAssignments"`
}

func (c *Coordinator) Stats(ctx context.Context, actor auth.Identity) (*Stats, error) {
	if err := rbac.Require(actor.Role, rbac.OpCoordinatorStats); err != nil {
		return nil, err
	}
	volunteers, err := c.Volunteers.ListVolunteers(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	assignments, err := c.Assignments.ListAssignments(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	s := &Stats{TotalVolunteers: len(volunteers), TotalAssignments: len(assignments)}
	for _, v := range volunteers {
		switch v.Status {
		case models.VolunteerActive:
			s.ActiveVolunteers++
		case models.VolunteerOnAssignment:
			s.OnAssignment++
		}
	}
	for _, a := range assignments {
		switch a.Status {
		case models.AssignmentAssigned:
			s.PendingAssignments++
		case models.AssignmentInProgress:
			s.InProgress++
		case models.AssignmentCompleted:
			s.CompletedAssignments++
		}
	}
	return s, nil
}

func (c *Coordinator) compensateBegin(ctx context.Context, volunteerID, assignmentID string, prev models.VolunteerStatus) {
	if err := c.Volunteers.RevertAssignment(ctx, volunteerID, assignmentID, prev); err != nil {
		c.Logger.Error("cascade compensation failed", "volunteer_id", volunteerID, "error", err)
	}
}

func (c *Coordinator) publish(ctx context.Context, eventType, entityID, actorID string) {
	evt := events.Event{Type: eventType, EntityID: entityID, Actor: actorID, At: c.Now()}
	if err := c.Events.Publish(ctx, evt); err != nil {
		c.Logger.Warn("event publish failed", "type", eventType, "entity_id", entityID, "error", err)
	}
}
