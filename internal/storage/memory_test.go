package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/example/foodshare/internal/apperr"
	"github.com/example/foodshare/internal/models"
)

func seedAvailable(t *testing.T, m *Memory, id string) {
	t.Helper()
	d := &models.Donation{
		ID:            id,
		RestaurantID:  "rest-1",
		FoodType:      "Rice",
		Quantity:      10,
		Unit:          models.UnitKg,
		PickupAddress: "12 Main St",
		ExpiryTime:    time.Now().Add(4 * time.Hour),
		Status:        models.DonationAvailable,
		CreatedAt:     time.Now(),
	}
	if err := m.InsertDonation(context.Background(), d); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestClaimDonationExactlyOneWinner(t *testing.T) {
	m := NewMemory()
	seedAvailable(t, m, "don-1")
	ctx := context.Background()

	const claimers = 16
	var wg sync.WaitGroup
	wins := make(chan string, claimers)
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		ngoID := "ngo-" + string(rune('a'+i))
		go func() {
			defer wg.Done()
			if _, err := m.ClaimDonation(ctx, "don-1", ngoID, ngoID, time.Now()); err == nil {
				wins <- ngoID
			} else if apperr.KindOf(err) != apperr.Conflict {
				t.Errorf("loser got %v, want conflict", err)
			}
		}()
	}
	wg.Wait()
	close(wins)

	var winners []string
	for w := range wins {
		winners = append(winners, w)
	}
	if len(winners) != 1 {
		t.Fatalf("expected exactly one winner, got %d", len(winners))
	}
	d, err := m.GetDonation(ctx, "don-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.Status != models.DonationClaimed || d.ClaimedBy != winners[0] {
		t.Fatalf("stored record disagrees with winner: %+v", d)
	}
}

func TestClaimDonationRejectsPastExpiry(t *testing.T) {
	m := NewMemory()
	seedAvailable(t, m, "don-1")
	ctx := context.Background()

	// still available in the store, but the claim clock is past expiry
	late := time.Now().Add(5 * time.Hour)
	if _, err := m.ClaimDonation(ctx, "don-1", "ngo-1", "NGO One", late); apperr.KindOf(err) != apperr.Conflict {
		t.Fatalf("claim past expiry: want conflict, got %v", err)
	}
	d, err := m.GetDonation(ctx, "don-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.Status != models.DonationAvailable || d.ClaimedBy != "" {
		t.Fatalf("failed claim must not write: %+v", d)
	}
}

func TestTransitionDonationChecksExpectedStatus(t *testing.T) {
	m := NewMemory()
	seedAvailable(t, m, "don-1")
	ctx := context.Background()

	if _, err := m.TransitionDonation(ctx, "don-1", models.DonationClaimed, models.DonationPickedUp, time.Now()); apperr.KindOf(err) != apperr.Conflict {
		t.Fatalf("stale expected status: want conflict, got %v", err)
	}
	if _, err := m.TransitionDonation(ctx, "missing", models.DonationAvailable, models.DonationClaimed, time.Now()); apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("missing id: want not found, got %v", err)
	}

	now := time.Now()
	if _, err := m.ClaimDonation(ctx, "don-1", "ngo-1", "NGO One", now); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := m.TransitionDonation(ctx, "don-1", models.DonationClaimed, models.DonationPickedUp, now); err != nil {
		t.Fatalf("transition: %v", err)
	}
	d, err := m.TransitionDonation(ctx, "don-1", models.DonationPickedUp, models.DonationCompleted, now)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if d.CompletedAt == nil {
		t.Fatal("completedAt not stamped on completion")
	}
}

func TestBeginAssignmentOnePerVolunteer(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	v := &models.Volunteer{ID: "vol-1", NGOID: "ngo-1", Name: "Asha", Status: models.VolunteerActive}
	if err := m.InsertVolunteer(ctx, v); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := m.BeginAssignment(ctx, "vol-1", "ngo-1", "asg-1")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if got.Status != models.VolunteerOnAssignment || got.CurrentAssignment != "asg-1" || got.TotalAssignments != 1 {
		t.Fatalf("reservation: %+v", got)
	}
	if _, err := m.BeginAssignment(ctx, "vol-1", "ngo-1", "asg-2"); apperr.KindOf(err) != apperr.Conflict {
		t.Fatalf("second begin: want conflict, got %v", err)
	}
	if _, err := m.BeginAssignment(ctx, "vol-1", "ngo-2", "asg-3"); apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("foreign ngo: want not found, got %v", err)
	}

	if err := m.RevertAssignment(ctx, "vol-1", "asg-1", models.VolunteerActive); err != nil {
		t.Fatalf("revert: %v", err)
	}
	got, _ = m.GetVolunteer(ctx, "vol-1", "ngo-1")
	if got.Status != models.VolunteerActive || got.CurrentAssignment != "" || got.TotalAssignments != 0 {
		t.Fatalf("revert incomplete: %+v", got)
	}
}

func TestEndAssignmentToleratesDeletedVolunteer(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	v := &models.Volunteer{ID: "vol-1", NGOID: "ngo-1", Name: "Asha", Status: models.VolunteerActive}
	if err := m.InsertVolunteer(ctx, v); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := m.BeginAssignment(ctx, "vol-1", "ngo-1", "asg-1"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := m.DeleteVolunteer(ctx, "vol-1", "ngo-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := m.EndAssignment(ctx, "asg-1", true); err != nil {
		t.Fatalf("end after delete: %v", err)
	}
}

func TestReadersDoNotShareMemory(t *testing.T) {
	m := NewMemory()
	seedAvailable(t, m, "don-1")
	ctx := context.Background()

	a, _ := m.GetDonation(ctx, "don-1")
	a.Status = models.DonationCompleted
	a.FoodType = "mutated"

	b, _ := m.GetDonation(ctx, "don-1")
	if b.Status != models.DonationAvailable || b.FoodType != "Rice" {
		t.Fatalf("store leaked internal state: %+v", b)
	}
}

func TestRestoreAssignmentOverwritesSnapshot(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	a := &models.Assignment{
		ID:              "asg-1",
		NGOID:           "ngo-1",
		VolunteerID:     "vol-1",
		TaskType:        models.TaskPickup,
		TaskDescription: "Collect",
		Status:          models.AssignmentInProgress,
		ScheduledDate:   time.Now(),
	}
	if err := m.InsertAssignment(ctx, a); err != nil {
		t.Fatalf("seed: %v", err)
	}
	snapshot, _ := m.GetAssignment(ctx, "asg-1", "ngo-1")

	if _, err := m.TransitionAssignment(ctx, "asg-1", models.AssignmentInProgress, models.AssignmentCompleted, time.Now(), nil); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := m.RestoreAssignment(ctx, snapshot); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got, _ := m.GetAssignment(ctx, "asg-1", "ngo-1")
	if got.Status != models.AssignmentInProgress || got.CompletedAt != nil {
		t.Fatalf("restore incomplete: %+v", got)
	}
}
