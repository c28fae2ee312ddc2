// Package analytics derives restaurant dashboards from the order set. All
// reports are pure functions of the stored orders plus the query-time
// clock; nothing derived is ever persisted.
package analytics

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/example/foodshare/internal/apperr"
	"github.com/example/foodshare/internal/auth"
	"github.com/example/foodshare/internal/models"
	"github.com/example/foodshare/internal/rbac"
	"github.com/example/foodshare/internal/storage"
)

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ParsePeriod defaults an empty selector to month, matching the dashboard.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "":
		return PeriodMonth, nil
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return Period(s), nil
	}
	return "", apperr.Newf(apperr.Validation, "invalid period %q", s)
}

// Days returns the window length in whole days.
func (p Period) Days() int {
	switch p {
	case PeriodDay:
		return 1
	case PeriodWeek:
		return 7
	case PeriodYear:
		return 365
	default:
		return 30
	}
}

type Aggregator struct {
	Orders            storage.OrderStore
	Directory         auth.Directory
	Logger            *slog.Logger
	Now               func() time.Time
	FeedbackListLimit int
}

func NewAggregator(orders storage.OrderStore, dir auth.Directory, logger *slog.Logger) *Aggregator {
	return &Aggregator{Orders: orders, Directory: dir, Logger: logger, Now: time.Now, FeedbackListLimit: 20}
}

type TrendPoint struct {
	Orders    int     `json:"orders"`
	Revenue   float64 `json:"revenue"`
	Completed int     `json:"completed"`
}

type FeedbackSummary struct {
	AverageRating      float64     `json:"averageRating"`
	TotalFeedbacks     int         `json:"totalFeedbacks"`
	RatingDistribution map[int]int `json:"ratingDistribution"`
}

type PopularItem struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Report struct {
	Period            Period                     `json:"period"`
	TotalOrders       int                        `json:"totalOrders"`
	CompletedOrders   int                        `json:"completedOrders"`
	TotalRevenue      float64                    `json:"totalRevenue"`
	AverageOrderValue float64                    `json:"averageOrderValue"`
	OrderForMe        int                        `json:"orderForMe"`
	DonatedMeals      int                        `json:"donatedMeals"`
	StatusCounts      map[models.OrderStatus]int `json:"statusCounts"`
	Trends            map[string]TrendPoint      `json:"trends"`
	Feedback          FeedbackSummary            `json:"feedback"`
	PopularItems      []PopularItem              `json:"popularItems"`
}

func (a *Aggregator) Analytics(ctx context.Context, actor auth.Identity, period Period) (*Report, error) {
	if err := rbac.Require(actor.Role, rbac.OpOrderAnalytics); err != nil {
		return nil, err
	}
	orders, err := a.Orders.ListOrdersByRestaurant(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return BuildReport(orders, period, a.Now()), nil
}

// BuildReport computes the full dashboard from the order set. Revenue only
// counts delivered orders inside the window; status counts cover the whole
// order set; the trend is one point per day, zero-filled.
func BuildReport(orders []*models.Order, period Period, now time.Time) *Report {
	days := period.Days()
	start := now.AddDate(0, 0, -days)

	r := &Report{
		Period:       period,
		StatusCounts: make(map[models.OrderStatus]int),
		Trends:       make(map[string]TrendPoint),
		Feedback:     FeedbackSummary{RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}},
	}
	for _, s := range models.OrderStatuses {
		r.StatusCounts[s] = 0
	}
	for i := days - 1; i >= 0; i-- {
		key := now.AddDate(0, 0, -i).UTC().Format("2006-01-02")
		r.Trends[key] = TrendPoint{}
	}

	var delivered []*models.Order
	ratingSum := 0
	for _, o := range orders {
		r.StatusCounts[o.Status]++
		if o.CreatedAt.Before(start) {
			continue
		}
		r.TotalOrders++
		key := o.CreatedAt.UTC().Format("2006-01-02")
		p, inWindow := r.Trends[key]
		p.Orders++
		if o.Status == models.OrderDelivered {
			delivered = append(delivered, o)
			r.CompletedOrders++
			r.TotalRevenue += o.TotalAmount
			p.Revenue += o.TotalAmount
			p.Completed++
			switch o.OrderType {
			case models.OrderDonateMeal:
				r.DonatedMeals++
			default:
				r.OrderForMe++
			}
			if o.CustomerFeedback != nil && o.CustomerFeedback.Rating >= 1 && o.CustomerFeedback.Rating <= 5 {
				r.Feedback.TotalFeedbacks++
				r.Feedback.RatingDistribution[o.CustomerFeedback.Rating]++
				ratingSum += o.CustomerFeedback.Rating
			}
		}
		if inWindow {
			r.Trends[key] = p
		}
	}
	if r.CompletedOrders > 0 {
		r.AverageOrderValue = round2(r.TotalRevenue / float64(r.CompletedOrders))
	}
	if r.Feedback.TotalFeedbacks > 0 {
		r.Feedback.AverageRating = round1(float64(ratingSum) / float64(r.Feedback.TotalFeedbacks))
	}
	r.PopularItems = popularItems(delivered, 5)
	return r
}

// popularItems ranks items by total quantity over the delivered set; ties
// keep encounter order.
func popularItems(orders []*models.Order, top int) []PopularItem {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	next := 0
	for _, o := range orders {
		for _, item := range o.Items {
			if _, ok := counts[item.Name]; !ok {
				firstSeen[item.Name] = next
				next++
			}
			counts[item.Name] += item.Quantity
		}
	}
	items := make([]PopularItem, 0, len(counts))
	for name, count := range counts {
		items = append(items, PopularItem{Name: name, Count: count})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return firstSeen[items[i].Name] < firstSeen[items[j].Name]
	})
	if len(items) > top {
		items = items[:top]
	}
	return items
}

// FeedbackEntry is one row of the recent-feedback listing.
type FeedbackEntry struct {
	OrderID      string    `json:"orderId"`
	CustomerName string    `json:"customerName"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment,omitempty"`
	AddedAt      time.Time `json:"addedAt"`
	OrderDate    time.Time `json:"orderDate"`
}

func (a *Aggregator) ListFeedbacks(ctx context.Context, actor auth.Identity) ([]FeedbackEntry, error) {
	if err := rbac.Require(actor.Role, rbac.OpOrderFeedbackList); err != nil {
		return nil, err
	}
	limit := a.FeedbackListLimit
	if limit <= 0 {
		limit = 20
	}
	orders, err := a.Orders.ListOrdersWithFeedback(ctx, actor.UserID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]FeedbackEntry, 0, len(orders))
	for _, o := range orders {
		out = append(out, FeedbackEntry{
			OrderID:      o.ID,
			CustomerName: o.CustomerName,
			Rating:       o.CustomerFeedback.Rating,
			Comment:      o.CustomerFeedback.Comment,
			AddedAt:      o.CustomerFeedback.AddedAt,
			OrderDate:    o.CreatedAt,
		})
	}
	return out, nil
}

type CreateOrderInput struct {
	RestaurantID    string             `json:"restaurantId"`
	Items           []models.OrderItem `json:"items"`
	OrderType       models.OrderType   `json:"orderType"`
	PaymentMethod   string             `json:"paymentMethod"`
	DeliveryAddress string             `json:"deliveryAddress"`
}

// CreateOrder records a purchase. Totals are recomputed from the line
// items; payment details are stored verbatim, never acted on.
func (a *Aggregator) CreateOrder(ctx context.Context, actor auth.Identity, in CreateOrderInput) (*models.Order, error) {
	if err := rbac.Require(actor.Role, rbac.OpOrderCreate); err != nil {
		return nil, err
	}
	if in.RestaurantID == "" || len(in.Items) == 0 {
		return nil, apperr.New(apperr.Validation, "restaurant and items are required")
	}
	for _, item := range in.Items {
		if item.Name == "" || item.Quantity < 1 || item.Price < 0 {
			return nil, apperr.New(apperr.Validation, "each item needs a name, a positive quantity, and a price")
		}
	}
	if in.OrderType == "" {
		in.OrderType = models.OrderForMe
	}
	if !in.OrderType.Valid() {
		return nil, apperr.Newf(apperr.Validation, "invalid order type %q", in.OrderType)
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = "card"
	}
	restaurant, err := a.Directory.Lookup(ctx, in.RestaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant.Role != models.RoleRestaurant {
		return nil, apperr.New(apperr.NotFound, "restaurant not found")
	}

	items := make([]models.OrderItem, len(in.Items))
	total := 0.0
	for i, item := range in.Items {
		item.Subtotal = round2(item.Price * float64(item.Quantity))
		items[i] = item
		total += item.Subtotal
	}

	o := &models.Order{
		ID:              uuid.NewString(),
		RestaurantID:    in.RestaurantID,
		RestaurantName:  restaurant.DisplayName,
		CustomerID:      actor.UserID,
		CustomerName:    actor.DisplayName,
		Items:           items,
		TotalAmount:     round2(total),
		OrderType:       in.OrderType,
		Status:          models.OrderPending,
		PaymentStatus:   models.PaymentPaid,
		PaymentMethod:   in.PaymentMethod,
		DeliveryAddress: in.DeliveryAddress,
		CreatedAt:       a.Now(),
	}
	if err := a.Orders.InsertOrder(ctx, o); err != nil {
		return nil, err
	}
	a.Logger.Info("order created", "order_id", o.ID, "restaurant_id", o.RestaurantID, "total", o.TotalAmount)
	return o, nil
}

// SubmitFeedback attaches a rating to the caller's own order.
func (a *Aggregator) SubmitFeedback(ctx context.Context, actor auth.Identity, orderID string, rating int, comment string) (*models.Order, error) {
	if err := rbac.Require(actor.Role, rbac.OpOrderFeedbackSubmit); err != nil {
		return nil, err
	}
	if rating < 1 || rating > 5 {
		return nil, apperr.New(apperr.Validation, "rating must be between 1 and 5")
	}
	o, err := a.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != actor.UserID {
		return nil, apperr.New(apperr.Forbidden, "not authorized to add feedback to this order")
	}
	fb := models.CustomerFeedback{Rating: rating, Comment: comment, AddedAt: a.Now()}
	return a.Orders.AttachOrderFeedback(ctx, orderID, fb)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
