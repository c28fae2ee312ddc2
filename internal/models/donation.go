package models

import "time"

type DonationStatus string

const (
	DonationAvailable DonationStatus = "available"
	DonationClaimed   DonationStatus = "claimed"
	DonationPickedUp  DonationStatus = "picked-up"
	DonationCompleted DonationStatus = "completed"
	DonationExpired   DonationStatus = "expired"
)

type Unit string

const (
	UnitKg       Unit = "kg"
	UnitPlates   Unit = "plates"
	UnitServings Unit = "servings"
	UnitPieces   Unit = "pieces"
)

func (u Unit) Valid() bool {
	switch u {
	case UnitKg, UnitPlates, UnitServings, UnitPieces:
		return true
	}
	return false
}

func (s DonationStatus) Valid() bool {
	switch s {
	case DonationAvailable, DonationClaimed, DonationPickedUp, DonationCompleted, DonationExpired:
		return true
	}
	return false
}

// Acknowledgement is the completion record an NGO attaches to a donation.
// The photo is an opaque path written by the upload service.
type Acknowledgement struct {
	Photo   string    `json:"photo"`
	Note    string    `json:"note"`
	AddedAt time.Time `json:"addedAt"`
}

// Donation is one batch of surplus food offered by a restaurant.
// RestaurantName and ClaimedByName are point-in-time snapshots so history
// stays readable after the referenced account changes or disappears.
type Donation struct {
	ID              string           `json:"id"`
	RestaurantID    string           `json:"restaurant"`
	RestaurantName  string           `json:"restaurantName"`
	FoodType        string           `json:"foodType"`
	Quantity        float64          `json:"quantity"`
	Unit            Unit             `json:"unit"`
	Description     string           `json:"description,omitempty"`
	PickupAddress   string           `json:"pickupAddress"`
	ExpiryTime      time.Time        `json:"expiryTime"`
	Status          DonationStatus   `json:"status"`
	ClaimedBy       string           `json:"claimedBy,omitempty"`
	ClaimedByName   string           `json:"claimedByName,omitempty"`
	ClaimedAt       *time.Time       `json:"claimedAt,omitempty"`
	CompletedAt     *time.Time       `json:"completedAt,omitempty"`
	MealsServed     int              `json:"mealsServed"`
	Beneficiaries   int              `json:"beneficiaries"`
	Acknowledgement *Acknowledgement `json:"acknowledgement,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

var donationTransitions = map[DonationStatus][]DonationStatus{
	DonationAvailable: {DonationClaimed, DonationExpired},
	DonationClaimed:   {DonationPickedUp},
	DonationPickedUp:  {DonationCompleted},
	DonationCompleted: {},
	DonationExpired:   {},
}

// CanTransitionTo reports whether moving to next is a legal step. Forward
// only, one step at a time; completed and expired are terminal.
func (d *Donation) CanTransitionTo(next DonationStatus) bool {
	for _, s := range donationTransitions[d.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// Claimable reports whether an NGO may still claim the donation at t.
func (d *Donation) Claimable(t time.Time) bool {
	return d.Status == DonationAvailable && d.ExpiryTime.After(t)
}
