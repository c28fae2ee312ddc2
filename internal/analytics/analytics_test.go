package analytics

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/foodshare/internal/apperr"
	"github.com/example/foodshare/internal/auth"
	"github.com/example/foodshare/internal/models"
	"github.com/example/foodshare/internal/storage"
)

var (
	customer   = auth.Identity{UserID: "cust-1", Role: models.RoleCustomer, DisplayName: "Priya"}
	restaurant = auth.Identity{UserID: "rest-1", Role: models.RoleRestaurant, DisplayName: "Tasty Bites"}
)

func newTestAggregator(t *testing.T) (*Aggregator, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory()
	dir := auth.NewMemoryResolver()
	dir.Put("tok-rest", restaurant)
	dir.Put("tok-cust", customer)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAggregator(store, dir, logger), store
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	if err != nil || p != PeriodMonth {
		t.Fatalf("empty period: got %s, %v", p, err)
	}
	if _, err := ParsePeriod("quarter"); apperr.KindOf(err) != apperr.Validation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if PeriodWeek.Days() != 7 || PeriodYear.Days() != 365 {
		t.Fatal("unexpected window lengths")
	}
}

func deliveredOrder(id string, createdAt time.Time, rating int, items ...models.OrderItem) *models.Order {
	o := &models.Order{
		ID:           id,
		RestaurantID: restaurant.UserID,
		CustomerID:   customer.UserID,
		Items:        items,
		Status:       models.OrderDelivered,
		OrderType:    models.OrderForMe,
		CreatedAt:    createdAt,
	}
	for _, item := range items {
		o.TotalAmount += item.Price * float64(item.Quantity)
	}
	if rating > 0 {
		o.CustomerFeedback = &models.CustomerFeedback{Rating: rating, AddedAt: createdAt}
	}
	return o
}

func TestBuildReport(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	in := now.AddDate(0, 0, -2)
	out := now.AddDate(0, 0, -40)

	orders := []*models.Order{
		deliveredOrder("o1", in, 5, models.OrderItem{Name: "Biryani", Quantity: 2, Price: 10.25}),
		deliveredOrder("o2", in, 4, models.OrderItem{Name: "Naan", Quantity: 3, Price: 2.00}),
		deliveredOrder("o3", in, 0, models.OrderItem{Name: "Biryani", Quantity: 1, Price: 10.25}),
		deliveredOrder("o4", out, 5, models.OrderItem{Name: "Soup", Quantity: 1, Price: 4.00}),
		{ID: "o5", RestaurantID: restaurant.UserID, Status: models.OrderPending, TotalAmount: 99, CreatedAt: in},
	}
	orders[2].OrderType = models.OrderDonateMeal

	r := BuildReport(orders, PeriodMonth, now)

	if r.TotalOrders != 4 {
		t.Fatalf("window orders: got %d", r.TotalOrders)
	}
	if r.CompletedOrders != 3 {
		t.Fatalf("completed: got %d", r.CompletedOrders)
	}
	// 20.50 + 6.00 + 10.25; pending and out-of-window never count
	if r.TotalRevenue != 36.75 {
		t.Fatalf("revenue: got %v", r.TotalRevenue)
	}
	if r.AverageOrderValue != 12.25 {
		t.Fatalf("average order value: got %v", r.AverageOrderValue)
	}
	if r.OrderForMe != 2 || r.DonatedMeals != 1 {
		t.Fatalf("type split: %+v", r)
	}
	// status counts cover the whole order set
	if r.StatusCounts[models.OrderDelivered] != 4 || r.StatusCounts[models.OrderPending] != 1 {
		t.Fatalf("status counts: %+v", r.StatusCounts)
	}

	if r.Feedback.TotalFeedbacks != 2 {
		t.Fatalf("feedbacks: got %d", r.Feedback.TotalFeedbacks)
	}
	if r.Feedback.AverageRating != 4.5 {
		t.Fatalf("average rating: got %v", r.Feedback.AverageRating)
	}
	if r.Feedback.RatingDistribution[5] != 1 || r.Feedback.RatingDistribution[4] != 1 || r.Feedback.RatingDistribution[3] != 0 {
		t.Fatalf("distribution: %+v", r.Feedback.RatingDistribution)
	}

	// zero-filled daily trend with the in-window orders aggregated
	if len(r.Trends) != 30 {
		t.Fatalf("trend length: got %d", len(r.Trends))
	}
	p := r.Trends[in.Format("2006-01-02")]
	if p.Orders != 4 || p.Completed != 3 || p.Revenue != 36.75 {
		t.Fatalf("trend point: %+v", p)
	}
	if p := r.Trends[now.Format("2006-01-02")]; p.Orders != 0 {
		t.Fatalf("today should be zero: %+v", p)
	}

	// ranked by quantity; only delivered in-window orders contribute
	if len(r.PopularItems) != 2 {
		t.Fatalf("popular items: %+v", r.PopularItems)
	}
	if r.PopularItems[0].Name != "Biryani" || r.PopularItems[0].Count != 3 {
		t.Fatalf("top item: %+v", r.PopularItems[0])
	}
	if r.PopularItems[1].Name != "Naan" || r.PopularItems[1].Count != 3 {
		t.Fatalf("tie should keep encounter order: %+v", r.PopularItems[1])
	}
}

func TestBuildReportAverageRounding(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	in := now.AddDate(0, 0, -1)
	orders := []*models.Order{
		deliveredOrder("o1", in, 0, models.OrderItem{Name: "A", Quantity: 1, Price: 15.50}),
		deliveredOrder("o2", in, 0, models.OrderItem{Name: "B", Quantity: 1, Price: 15.00}),
		deliveredOrder("o3", in, 0, models.OrderItem{Name: "C", Quantity: 1, Price: 15.00}),
	}
	r := BuildReport(orders, PeriodWeek, now)
	if r.TotalRevenue != 45.5 {
		t.Fatalf("revenue: got %v", r.TotalRevenue)
	}
	if r.AverageOrderValue != 15.17 {
		t.Fatalf("expected 45.50/3 rounded to 15.17, got %v", r.AverageOrderValue)
	}
}

func TestCreateOrderRecomputesTotals(t *testing.T) {
	a, _ := newTestAggregator(t)
	ctx := context.Background()

	o, err := a.CreateOrder(ctx, customer, CreateOrderInput{
		RestaurantID: restaurant.UserID,
		Items: []models.OrderItem{
			{Name: "Biryani", Quantity: 2, Price: 10.25, Subtotal: 999},
			{Name: "Naan", Quantity: 1, Price: 2.00},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if o.Items[0].Subtotal != 20.50 {
		t.Fatalf("subtotal must be recomputed: %v", o.Items[0].Subtotal)
	}
	if o.TotalAmount != 22.50 {
		t.Fatalf("total: got %v", o.TotalAmount)
	}
	if o.Status != models.OrderPending || o.PaymentStatus != models.PaymentPaid {
		t.Fatalf("initial statuses: %+v", o)
	}
	if o.OrderType != models.OrderForMe || o.PaymentMethod != "card" {
		t.Fatalf("defaults: %+v", o)
	}
	if o.RestaurantName != "Tasty Bites" || o.CustomerName != "Priya" {
		t.Fatalf("name snapshots: %+v", o)
	}

	if _, err := a.CreateOrder(ctx, customer, CreateOrderInput{RestaurantID: "nobody", Items: o.Items}); apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("unknown restaurant: expected not found, got %v", err)
	}
	if _, err := a.CreateOrder(ctx, customer, CreateOrderInput{
		RestaurantID: customer.UserID,
		Items:        o.Items,
	}); apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("non-restaurant target: expected not found, got %v", err)
	}
	if _, err := a.CreateOrder(ctx, restaurant, CreateOrderInput{}); apperr.KindOf(err) != apperr.Forbidden {
		t.Fatalf("restaurant ordering: expected forbidden, got %v", err)
	}
}

func TestSubmitFeedbackOwnOrdersOnly(t *testing.T) {
	a, _ := newTestAggregator(t)
	ctx := context.Background()

	o, err := a.CreateOrder(ctx, customer, CreateOrderInput{
		RestaurantID: restaurant.UserID,
		Items:        []models.OrderItem{{Name: "Naan", Quantity: 1, Price: 2.00}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if _, err := a.SubmitFeedback(ctx, customer, o.ID, 6, ""); apperr.KindOf(err) != apperr.Validation {
		t.Fatalf("rating 6: expected validation, got %v", err)
	}
	other := auth.Identity{UserID: "cust-2", Role: models.RoleCustomer, DisplayName: "Ravi"}
	if _, err := a.SubmitFeedback(ctx, other, o.ID, 4, ""); apperr.KindOf(err) != apperr.Forbidden {
		t.Fatalf("foreign order: expected forbidden, got %v", err)
	}

	updated, err := a.SubmitFeedback(ctx, customer, o.ID, 4, "good")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if updated.CustomerFeedback == nil || updated.CustomerFeedback.Rating != 4 {
		t.Fatalf("feedback not attached: %+v", updated.CustomerFeedback)
	}
}

func TestListFeedbacksNewestFirst(t *testing.T) {
	a, store := newTestAggregator(t)
	ctx := context.Background()
	a.FeedbackListLimit = 2

	base := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	for i, rating := range []int{3, 4, 5} {
		o := deliveredOrder(fmt.Sprintf("o%d", i+1), base.Add(time.Duration(i)*time.Hour), rating,
			models.OrderItem{Name: "Naan", Quantity: 1, Price: 2.00})
		o.CustomerName = "Priya"
		if err := store.InsertOrder(ctx, o); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	entries, err := a.ListFeedbacks(ctx, restaurant)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("limit not applied: got %d", len(entries))
	}
	if entries[0].Rating != 5 || entries[1].Rating != 4 {
		t.Fatalf("expected newest first, got %+v", entries)
	}
	if _, err := a.ListFeedbacks(ctx, customer); apperr.KindOf(err) != apperr.Forbidden {
		t.Fatalf("expected forbidden for customer, got %v", err)
	}
}
