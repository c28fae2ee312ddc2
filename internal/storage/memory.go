package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/foodshare/internal/apperr"
	"github.com/example/foodshare/internal/models"
)

// Memory is the in-process store used for local runs and tests. It provides
// the same conditional-update semantics as Postgres under a single mutex.
type Memory struct {
	mu          sync.RWMutex
	donations   map[string]*models.Donation
	volunteers  map[string]*models.Volunteer
	assignments map[string]*models.Assignment
	orders      map[string]*models.Order
}

func NewMemory() *Memory {
	return &Memory{
		donations:   make(map[string]*models.Donation),
		volunteers:  make(map[string]*models.Volunteer),
		assignments: make(map[string]*models.Assignment),
		orders:      make(map[string]*models.Order),
	}
}

// --- donations ---

func (m *Memory) InsertDonation(ctx context.Context, d *models.Donation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.donations[d.ID] = cloneDonation(d)
	return nil
}

func (m *Memory) GetDonation(ctx context.Context, id string) (*models.Donation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.donations[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "donation not found")
	}
	return cloneDonation(d), nil
}

func (m *Memory) ListByRestaurant(ctx context.Context, restaurantID string) ([]*models.Donation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Donation
	for _, d := range m.donations {
		if d.RestaurantID == restaurantID {
			out = append(out, cloneDonation(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListAvailable(ctx context.Context, now time.Time) ([]*models.Donation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Donation
	for _, d := range m.donations {
		if d.Status == models.DonationAvailable && d.ExpiryTime.After(now) {
			out = append(out, cloneDonation(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListClaimedBy(ctx context.Context, ngoID string) ([]*models.Donation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Donation
	for _, d := range m.donations {
		if d.ClaimedBy == ngoID {
			out = append(out, cloneDonation(d))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].CreatedAt, out[j].CreatedAt
		if out[i].ClaimedAt != nil {
			ti = *out[i].ClaimedAt
		}
		if out[j].ClaimedAt != nil {
			tj = *out[j].ClaimedAt
		}
		return ti.After(tj)
	})
	return out, nil
}

func (m *Memory) ClaimDonation(ctx context.Context, id, ngoID, ngoName string, at time.Time) (*models.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.donations[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "donation not found")
	}
	if !d.Claimable(at) {
		return nil, apperr.New(apperr.Conflict, "donation is not available")
	}
	d.Status = models.DonationClaimed
	d.ClaimedBy = ngoID
	d.ClaimedByName = ngoName
	t := at
	d.ClaimedAt = &t
	return cloneDonation(d), nil
}

func (m *Memory) TransitionDonation(ctx context.Context, id string, from, next models.DonationStatus, at time.Time) (*models.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.donations[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "donation not found")
	}
	if d.Status != from {
		return nil, apperr.Newf(apperr.Conflict, "donation is %s, expected %s", d.Status, from)
	}
	d.Status = next
	if next == models.DonationCompleted {
		t := at
		d.CompletedAt = &t
	}
	return cloneDonation(d), nil
}

func (m *Memory) AcknowledgeDonation(ctx context.Context, id, ngoID string, mealsServed, beneficiaries int, ack models.Acknowledgement, at time.Time) (*models.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.donations[id]
	if !ok || d.ClaimedBy != ngoID {
		return nil, apperr.New(apperr.NotFound, "donation not found")
	}
	if d.Status != models.DonationPickedUp {
		return nil, apperr.Newf(apperr.Conflict, "donation is %s, expected picked-up", d.Status)
	}
	d.Status = models.DonationCompleted
	t := at
	d.CompletedAt = &t
	d.MealsServed = mealsServed
	d.Beneficiaries = beneficiaries
	a := ack
	d.Acknowledgement = &a
	return cloneDonation(d), nil
}

func (m *Memory) ExpireDonations(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, d := range m.donations {
		if d.Status == models.DonationAvailable && d.ExpiryTime.Before(cutoff) {
			d.Status = models.DonationExpired
			n++
		}
	}
	return n, nil
}

// --- volunteers ---

func (m *Memory) InsertVolunteer(ctx context.Context, v *models.Volunteer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volunteers[v.ID] = cloneVolunteer(v)
	return nil
}

func (m *Memory) GetVolunteer(ctx context.Context, id, ngoID string) (*models.Volunteer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.volunteers[id]
	if !ok || v.NGOID != ngoID {
		return nil, apperr.New(apperr.NotFound, "volunteer not found")
	}
	return cloneVolunteer(v), nil
}

func (m *Memory) ListVolunteers(ctx context.Context, ngoID string) ([]*models.Volunteer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Volunteer
	for _, v := range m.volunteers {
		if v.NGOID == ngoID {
			out = append(out, cloneVolunteer(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateVolunteer(ctx context.Context, v *models.Volunteer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.volunteers[v.ID]
	if !ok || cur.NGOID != v.NGOID {
		return apperr.New(apperr.NotFound, "volunteer not found")
	}
	m.volunteers[v.ID] = cloneVolunteer(v)
	return nil
}

func (m *Memory) DeleteVolunteer(ctx context.Context, id, ngoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.volunteers[id]
	if !ok || v.NGOID != ngoID {
		return apperr.New(apperr.NotFound, "volunteer not found")
	}
	delete(m.volunteers, id)
	return nil
}

func (m *Memory) BeginAssignment(ctx context.Context, id, ngoID, assignmentID string) (*models.Volunteer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.volunteers[id]
	if !ok || v.NGOID != ngoID {
		return nil, apperr.New(apperr.NotFound, "volunteer not found")
	}
	if v.Status == models.VolunteerOnAssignment {
		return nil, apperr.New(apperr.Conflict, "volunteer is already on an assignment")
	}
	v.Status = models.VolunteerOnAssignment
	v.CurrentAssignment = assignmentID
	v.TotalAssignments++
	return cloneVolunteer(v), nil
}

func (m *Memory) RevertAssignment(ctx context.Context, id, assignmentID string, prev models.VolunteerStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.volunteers[id]
	if !ok || v.CurrentAssignment != assignmentID {
		return nil
	}
	v.Status = prev
	v.CurrentAssignment = ""
	v.TotalAssignments--
	return nil
}

func (m *Memory) EndAssignment(ctx context.Context, assignmentID string, completed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.volunteers {
		if v.CurrentAssignment == assignmentID {
			v.Status = models.VolunteerActive
			v.CurrentAssignment = ""
			if completed {
				v.CompletedAssignments++
			}
			return nil
		}
	}
	// volunteer was deleted; the assignment keeps its name snapshot
	return nil
}

// --- assignments ---

func (m *Memory) InsertAssignment(ctx context.Context, a *models.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[a.ID] = cloneAssignment(a)
	return nil
}

func (m *Memory) GetAssignment(ctx context.Context, id, ngoID string) (*models.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assignments[id]
	if !ok || a.NGOID != ngoID {
		return nil, apperr.New(apperr.NotFound, "assignment not found")
	}
	return cloneAssignment(a), nil
}

func (m *Memory) ListAssignments(ctx context.Context, ngoID string) ([]*models.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Assignment
	for _, a := range m.assignments {
		if a.NGOID == ngoID {
			out = append(out, cloneAssignment(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledDate.After(out[j].ScheduledDate) })
	return out, nil
}

func (m *Memory) TransitionAssignment(ctx context.Context, id string, from, next models.AssignmentStatus, at time.Time, fb *models.Feedback) (*models.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "assignment not found")
	}
	if a.Status != from {
		return nil, apperr.Newf(apperr.Conflict, "assignment is %s, expected %s", a.Status, from)
	}
	a.Status = next
	t := at
	switch next {
	case models.AssignmentAccepted:
		a.AcceptedAt = &t
	case models.AssignmentInProgress:
		a.StartedAt = &t
	case models.AssignmentCompleted:
		a.CompletedAt = &t
	}
	if fb != nil {
		f := *fb
		a.Feedback = &f
	}
	return cloneAssignment(a), nil
}

func (m *Memory) RestoreAssignment(ctx context.Context, a *models.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[a.ID]; !ok {
		return apperr.New(apperr.NotFound, "assignment not found")
	}
	m.assignments[a.ID] = cloneAssignment(a)
	return nil
}

// --- orders ---

func (m *Memory) InsertOrder(ctx context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *Memory) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "order not found")
	}
	return cloneOrder(o), nil
}

func (m *Memory) ListOrdersByRestaurant(ctx context.Context, restaurantID string) ([]*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Order
	for _, o := range m.orders {
		if o.RestaurantID == restaurantID {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListOrdersWithFeedback(ctx context.Context, restaurantID string, limit int) ([]*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Order
	for _, o := range m.orders {
		if o.RestaurantID == restaurantID && o.CustomerFeedback != nil {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CustomerFeedback.AddedAt.After(out[j].CustomerFeedback.AddedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) AttachOrderFeedback(ctx context.Context, id string, fb models.CustomerFeedback) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "order not found")
	}
	f := fb
	o.CustomerFeedback = &f
	return cloneOrder(o), nil
}

// --- copy helpers; readers never share memory with the store ---

func cloneDonation(d *models.Donation) *models.Donation {
	c := *d
	if d.ClaimedAt != nil {
		t := *d.ClaimedAt
		c.ClaimedAt = &t
	}
	if d.CompletedAt != nil {
		t := *d.CompletedAt
		c.CompletedAt = &t
	}
	if d.Acknowledgement != nil {
		a := *d.Acknowledgement
		c.Acknowledgement = &a
	}
	return &c
}

func cloneVolunteer(v *models.Volunteer) *models.Volunteer {
	c := *v
	c.Skills = append([]string(nil), v.Skills...)
	return &c
}

func cloneAssignment(a *models.Assignment) *models.Assignment {
	c := *a
	if a.PickupLocation != nil {
		l := cloneLocation(a.PickupLocation)
		c.PickupLocation = l
	}
	if a.DistributionLocation != nil {
		l := cloneLocation(a.DistributionLocation)
		c.DistributionLocation = l
	}
	if a.AcceptedAt != nil {
		t := *a.AcceptedAt
		c.AcceptedAt = &t
	}
	if a.StartedAt != nil {
		t := *a.StartedAt
		c.StartedAt = &t
	}
	if a.CompletedAt != nil {
		t := *a.CompletedAt
		c.CompletedAt = &t
	}
	if a.Feedback != nil {
		f := *a.Feedback
		c.Feedback = &f
	}
	return &c
}

func cloneLocation(l *models.Location) *models.Location {
	c := *l
	if l.Coordinates != nil {
		co := *l.Coordinates
		c.Coordinates = &co
	}
	return &c
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = append([]models.OrderItem(nil), o.Items...)
	if o.CustomerFeedback != nil {
		f := *o.CustomerFeedback
		c.CustomerFeedback = &f
	}
	if o.CompletedAt != nil {
		t := *o.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
