// Package lifecycle implements the donation state machine: the transitions
// from available through claimed and picked-up to completed, plus the
// expired branch, and the read paths over the donation set.
package lifecycle

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

type Engine struct {
	Store  storage.DonationStore
	Events events.Publisher
	Logger *slog.Logger
	Now    func() time.Time
}

func NewEngine(store storage.DonationStore, pub events.Publisher, logger *slog.Logger) *Engine {
	return &Engine{Store: store, Events: pub, Logger: logger, Now: time.Now}
}

type CreateInput struct {
	FoodType      string      `json:"foodType"`
	Quantity      float64     `json:"quantity"`
	Unit          models.Unit `json:"unit"`
	Description   string      `json:"description"`
	PickupAddress string      `json:"pickupAddress"`
	ExpiryTime    time.Time   `json:"expiryTime"`
}

// Create posts a new donation in state available. The restaurant name is
// snapshotted from the actor at creation time.
func (e *Engine) Create(ctx context.Context, actor auth.Identity, in CreateInput) (*models.Donation, error) {
	if err := rbac.Require(actor.Role, rbac.OpDonationCreate); err != nil {
		return nil, err
	}
	if in.FoodType == "" || in.Quantity <= 0 || in.PickupAddress == "" || in.ExpiryTime.IsZero() {
		return nil, apperr.New(apperr.Validation, "please provide all required fields")
	}
	if in.Unit == "" {
		in.Unit = models.UnitServings
	}
	if !in.Unit.Valid() {
		return nil, apperr.Newf(apperr.Validation, "invalid unit %q", in.Unit)
	}
	now := e.Now()
	d := &models.Donation{
		ID:             uuid.NewString(),
		RestaurantID:   actor.UserID,
		RestaurantName: actor.DisplayName,
		FoodType:       in.FoodType,
		Quantity:       in.Quantity,
		Unit:           in.Unit,
		Description:    in.Description,
		PickupAddress:  in.PickupAddress,
		ExpiryTime:     in.ExpiryTime,
		Status:         models.DonationAvailable,
		CreatedAt:      now,
	}
	if err := e.Store.InsertDonation(ctx, d); err != nil {
		return nil, err
	}
	observability.DonationsCreated.Inc()
	e.publish(ctx, events.DonationCreated, d.ID, actor.UserID)
	e.Logger.Info("donation created", "donation_id", d.ID, "restaurant_id", actor.UserID, "quantity", d.Quantity, "unit", d.Unit)
	return d, nil
}

// Claim moves an available donation to claimed for the acting NGO. The
// store performs the check-status-and-set in one operation, so two racing
// claims resolve to exactly one winner.
func (e *Engine) Claim(ctx context.Context, actor auth.Identity, donationID string) (*models.Donation, error) {
	if err := rbac.Require(actor.Role, rbac.OpDonationClaim); err != nil {
		return nil, err
	}
	d, err := e.Store.ClaimDonation(ctx, donationID, actor.UserID, actor.DisplayName, e.Now())
	if err != nil {
		if apperr.KindOf(err) == apperr.Conflict {
			observability.DonationClaimConflicts.Inc()
		}
		return nil, err
	}
	observability.DonationClaims.Inc()
	e.publish(ctx, events.DonationClaimed, d.ID, actor.UserID)
	e.Logger.Info("donation claimed", "donation_id", d.ID, "ngo_id", actor.UserID)
	return d, nil
}

// SetStatus is the restaurant-side transition. Only picked-up and completed
// are reachable here: claimed is written exclusively by Claim (it carries
// the claimant) and expired only by the sweep. It refuses skips and backward
// moves; completed via this path stamps completedAt but leaves the meal
// counters to Acknowledge.
func (e *Engine) SetStatus(ctx context.Context, actor auth.Identity, donationID string, next models.DonationStatus) (*models.Donation, error) {
	if err := rbac.Require(actor.Role, rbac.OpDonationSetStatus); err != nil {
		return nil, err
	}
	if !next.Valid() {
		return nil, apperr.Newf(apperr.Validation, "invalid status %q", next)
	}
	if next != models.DonationPickedUp && next != models.DonationCompleted {
		return nil, apperr.Newf(apperr.Validation, "status can only be set to %s or %s", models.DonationPickedUp, models.DonationCompleted)
	}
	d, err := e.Store.GetDonation(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if d.RestaurantID != actor.UserID {
		return nil, apperr.New(apperr.Forbidden, "not authorized to update this donation")
	}
	if !d.CanTransitionTo(next) {
		return nil, apperr.Newf(apperr.Conflict, "cannot move donation from %s to %s", d.Status, next)
	}
	updated, err := e.Store.TransitionDonation(ctx, donationID, d.Status, next, e.Now())
	if err != nil {
		return nil, err
	}
	evt := events.DonationStatusMoved
	if next == models.DonationCompleted {
		evt = events.DonationCompleted
	}
	e.publish(ctx, evt, updated.ID, actor.UserID)
	e.Logger.Info("donation status updated", "donation_id", updated.ID, "status", updated.Status)
	return updated, nil
}

type AcknowledgeInput struct {
	MealsServed   int    `json:"mealsServed"`
	Beneficiaries int    `json:"beneficiaries"`
	Photo         string `json:"photo"`
	Note          string `json:"note"`
}

// Acknowledge completes a picked-up donation. Only the claiming NGO may
// call it; this is the single path that writes mealsServed and
// beneficiaries, and it writes them together with completedAt.
func (e *Engine) Acknowledge(ctx context.Context, actor auth.Identity, donationID string, in AcknowledgeInput) (*models.Donation, error) {
	if err := rbac.Require(actor.Role, rbac.OpDonationAcknowledge); err != nil {
		return nil, err
	}
	if in.MealsServed < 0 || in.Beneficiaries < 0 {
		return nil, apperr.New(apperr.Validation, "meals served and beneficiaries must not be negative")
	}
	now := e.Now()
	ack := models.Acknowledgement{Photo: in.Photo, Note: in.Note, AddedAt: now}
	d, err := e.Store.AcknowledgeDonation(ctx, donationID, actor.UserID, in.MealsServed, in.Beneficiaries, ack, now)
	if err != nil {
		return nil, err
	}
	e.publish(ctx, events.DonationCompleted, d.ID, actor.UserID)
	e.Logger.Info("donation acknowledged", "donation_id", d.ID, "ngo_id", actor.UserID, "meals_served", in.MealsServed)
	return d, nil
}

func (e *Engine) ListMine(ctx context.Context, actor auth.Identity) ([]*models.Donation, error) {
	if err := rbac.Require(actor.Role, rbac.OpDonationListOwn); err != nil {
		return nil, err
	}
	return e.Store.ListByRestaurant(ctx, actor.UserID)
}

func (e *Engine) ListAvailable(ctx context.Context, actor auth.Identity) ([]*models.Donation, error) {
	if err := rbac.Require(actor.Role, rbac.OpDonationListAvailable); err != nil {
		return nil, err
	}
	return e.Store.ListAvailable(ctx, e.Now())
}

func (e *Engine) ListClaimed(ctx context.Context, actor auth.Identity) ([]*models.Donation, error) {
	if err := rbac.Require(actor.Role, rbac.OpDonationListClaimed); err != nil {
		return nil, err
	}
	return e.Store.ListClaimedBy(ctx, actor.UserID)
}

// MonthBucket is one month of completed donations in the stats trend.
type MonthBucket struct {
	Meals int `json:"meals"`
	Count int `json:"count"`
}

type Stats struct {
	TotalDonations     int                           `json:"totalDonations"`
	TotalMealsServed   int                           `json:"totalMealsServed"`
	TotalBeneficiaries int                           `json:"totalBeneficiaries"`
	NGOCount           int                           `json:"ngoCount"`
	StatusCounts       map[models.DonationStatus]int `json:"statusCounts"`
	MonthlyData        map[string]MonthBucket        `json:"monthlyData"`
}

// Stats derives the restaurant dashboard numbers from the stored donation
// set: per-status counts, completed totals, distinct claimants, and a
// six-month completion trend bucketed by calendar month ("Jan 2006").
func (e *Engine) Stats(ctx context.Context, actor auth.Identity) (*Stats, error) {
	if err := rbac.Require(actor.Role, rbac.OpDonationStats); err != nil {
		return nil, err
	}
	donations, err := e.Store.ListByRestaurant(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return BuildStats(donations, e.Now()), nil
}

// BuildStats is a pure function of the donation set plus now.
func BuildStats(donations []*models.Donation, now time.Time) *Stats {
	s := &Stats{
		TotalDonations: len(donations),
		StatusCounts: map[models.DonationStatus]int{
			models.DonationAvailable: 0,
			models.DonationClaimed:   0,
			models.DonationPickedUp:  0,
			models.DonationCompleted: 0,
			models.DonationExpired:   0,
		},
		MonthlyData: make(map[string]MonthBucket),
	}
	sixMonthsAgo := now.AddDate(0, -6, 0)
	claimants := make(map[string]struct{})
	for _, d := range donations {
		s.StatusCounts[d.Status]++
		if d.Status != models.DonationCompleted {
			continue
		}
		s.TotalMealsServed += d.MealsServed
		s.TotalBeneficiaries += d.Beneficiaries
		if d.ClaimedBy != "" {
			claimants[d.ClaimedBy] = struct{}{}
		}
		if d.CompletedAt != nil && !d.CompletedAt.Before(sixMonthsAgo) {
			key := d.CompletedAt.Format("Jan 2006")
			b := s.MonthlyData[key]
			b.Meals += d.MealsServed
			b.Count++
			s.MonthlyData[key] = b
		}
	}
	s.NGOCount = len(claimants)
	return s
}

// SweepExpired performs the stored available-to-expired transition for
// donations past expiry. Read paths already hide them; the sweep keeps the
// stored status field truthful.
func (e *Engine) SweepExpired(ctx context.Context) (int, error) {
	n, err := e.Store.ExpireDonations(ctx, e.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		observability.DonationsExpired.Add(float64(n))
		e.Logger.Info("expired donations swept", "count", n)
	}
	return n, nil
}

func (e *Engine) publish(ctx context.Context, eventType, entityID, actorID string) {
	evt := events.Event{Type: eventType, EntityID: entityID, Actor: actorID, At: e.Now()}
	if err := e.Events.Publish(ctx, evt); err != nil {
		e.Logger.Warn("event publish failed", "type", eventType, "entity_id", entityID, "error", err)
	}
}
