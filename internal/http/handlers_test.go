package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/foodshare/internal/analytics"
	"github.com/example/foodshare/internal/auth"
	"github.com/example/foodshare/internal/coordinator"
	"github.com/example/foodshare/internal/events"
	"github.com/example/foodshare/internal/lifecycle"
	"github.com/example/foodshare/internal/models"
	"github.com/example/foodshare/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := storage.NewMemory()
	resolver := auth.NewMemoryResolver()
	resolver.Put("tok-rest", auth.Identity{UserID: "rest-1", Role: models.RoleRestaurant, DisplayName: "Tasty Bites"})
	resolver.Put("tok-ngo", auth.Identity{UserID: "ngo-1", Role: models.RoleNGO, DisplayName: "Helping Hands"})
	resolver.Put("tok-ngo2", auth.Identity{UserID: "ngo-2", Role: models.RoleNGO, DisplayName: "Food Angels"})
	resolver.Put("tok-cust", auth.Identity{UserID: "cust-1", Role: models.RoleCustomer, DisplayName: "Priya"})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	donations := lifecycle.NewEngine(store, events.Nop{}, logger)
	coord := coordinator.New(store, events.Nop{}, logger)
	orders := analytics.NewAggregator(store, resolver, logger)
	return NewServer(donations, coord, orders, resolver, logger)
}

func do(t *testing.T, s *Server, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, out
}

func createDonation(t *testing.T, s *Server) string {
	t.Helper()
	rec, body := do(t, s, http.MethodPost, "/api/donations", "tok-rest", map[string]any{
		"foodType":      "Veg Biryani",
		"quantity":      20,
		"unit":          "servings",
		"pickupAddress": "12 Main St",
		"expiryTime":    time.Now().Add(4 * time.Hour).Format(time.RFC3339),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create donation: status %d body %v", rec.Code, body)
	}
	d := body["donation"].(map[string]any)
	return d["id"].(string)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	rec, body := do(t, s, http.MethodGet, "/api/donations/mine", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status %d", rec.Code)
	}
	if body["success"] != false || body["error"] != "unauthorized" {
		t.Fatalf("envelope: %v", body)
	}

	rec, _ = do(t, s, http.MethodGet, "/api/donations/mine", "bogus", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status %d", rec.Code)
	}

	// health never needs a token
	rec, _ = do(t, s, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: status %d", rec.Code)
	}
}

func TestRoleEnforcedAtEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec, _ := do(t, s, http.MethodGet, "/api/donations/available", "tok-rest", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("restaurant browsing available: status %d", rec.Code)
	}
	rec, _ = do(t, s, http.MethodGet, "/api/volunteers", "tok-cust", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("customer listing volunteers: status %d", rec.Code)
	}
	rec, _ = do(t, s, http.MethodGet, "/api/orders/analytics", "tok-ngo", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("ngo reading analytics: status %d", rec.Code)
	}
}

func TestDonationClaimFlow(t *testing.T) {
	s := newTestServer(t)
	id := createDonation(t, s)

	rec, body := do(t, s, http.MethodGet, "/api/donations/available", "tok-ngo", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("available: status %d", rec.Code)
	}
	if list := body["donations"].([]any); len(list) != 1 {
		t.Fatalf("expected 1 available donation, got %d", len(list))
	}

	rec, body = do(t, s, http.MethodPatch, "/api/donations/"+id+"/claim", "tok-ngo", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("claim: status %d body %v", rec.Code, body)
	}
	d := body["donation"].(map[string]any)
	if d["status"] != "claimed" || d["claimedBy"] != "ngo-1" {
		t.Fatalf("claim result: %v", d)
	}

	// losing claim surfaces as a conflict
	rec, body = do(t, s, http.MethodPatch, "/api/donations/"+id+"/claim", "tok-ngo2", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second claim: status %d", rec.Code)
	}
	if body["error"] != "conflict" {
		t.Fatalf("envelope: %v", body)
	}

	rec, body = do(t, s, http.MethodPatch, "/api/donations/"+id+"/status", "tok-rest", map[string]any{"status": "picked-up"})
	if rec.Code != http.StatusOK {
		t.Fatalf("picked-up: status %d body %v", rec.Code, body)
	}

	rec, body = do(t, s, http.MethodPatch, "/api/donations/"+id+"/acknowledge", "tok-ngo", map[string]any{
		"mealsServed":   18,
		"beneficiaries": 25,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("acknowledge: status %d body %v", rec.Code, body)
	}
	d = body["donation"].(map[string]any)
	if d["status"] != "completed" || d["mealsServed"] != float64(18) {
		t.Fatalf("acknowledge result: %v", d)
	}

	rec, _ = do(t, s, http.MethodPatch, "/api/donations/missing/claim", "tok-ngo2", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing donation: status %d", rec.Code)
	}
}

func TestAssignmentEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec, body := do(t, s, http.MethodPost, "/api/volunteers", "tok-ngo", map[string]any{
		"name":  "Asha",
		"email": "asha@example.org",
		"phone": "555-0101",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add volunteer: status %d body %v", rec.Code, body)
	}
	volID := body["volunteer"].(map[string]any)["id"].(string)

	rec, body = do(t, s, http.MethodPost, "/api/assignments", "tok-ngo", map[string]any{
		"volunteerId":     volID,
		"taskType":        "Pickup",
		"taskDescription": "Collect from Tasty Bites",
		"scheduledDate":   time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create assignment: status %d body %v", rec.Code, body)
	}
	asgID := body["assignment"].(map[string]any)["id"].(string)

	// the volunteer is busy now
	rec, _ = do(t, s, http.MethodPost, "/api/assignments", "tok-ngo", map[string]any{
		"volunteerId":     volID,
		"taskType":        "Pickup",
		"taskDescription": "Another task",
		"scheduledDate":   time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("double assignment: status %d", rec.Code)
	}

	rec, body = do(t, s, http.MethodGet, "/api/volunteers/stats", "tok-ngo", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: status %d", rec.Code)
	}
	stats := body["stats"].(map[string]any)
	if stats["onAssignment"] != float64(1) || stats["pendingAssignments"] != float64(1) {
		t.Fatalf("stats: %v", stats)
	}

	rec, _ = do(t, s, http.MethodPatch, "/api/assignments/"+asgID+"/status", "tok-ngo", map[string]any{"status": "accepted"})
	if rec.Code != http.StatusOK {
		t.Fatalf("accept: status %d", rec.Code)
	}
	// an NGO cannot touch another NGO's assignment
	rec, _ = do(t, s, http.MethodPatch, "/api/assignments/"+asgID+"/status", "tok-ngo2", map[string]any{"status": "in-progress"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign assignment: status %d", rec.Code)
	}
}

func TestOrderEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec, body := do(t, s, http.MethodPost, "/api/orders", "tok-cust", map[string]any{
		"restaurantId": "rest-1",
		"items":        []map[string]any{{"name": "Naan", "quantity": 2, "price": 2.5}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create order: status %d body %v", rec.Code, body)
	}
	order := body["order"].(map[string]any)
	if order["totalAmount"] != float64(5) {
		t.Fatalf("total: %v", order["totalAmount"])
	}
	orderID := order["id"].(string)

	rec, _ = do(t, s, http.MethodPatch, "/api/orders/"+orderID+"/feedback", "tok-cust", map[string]any{"rating": 9})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad rating: status %d", rec.Code)
	}
	rec, _ = do(t, s, http.MethodPatch, "/api/orders/"+orderID+"/feedback", "tok-cust", map[string]any{"rating": 5, "comment": "great"})
	if rec.Code != http.StatusOK {
		t.Fatalf("feedback: status %d", rec.Code)
	}

	rec, body = do(t, s, http.MethodGet, "/api/orders/analytics?period=week", "tok-rest", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("analytics: status %d", rec.Code)
	}
	report := body["analytics"].(map[string]any)
	if report["period"] != "week" {
		t.Fatalf("period: %v", report["period"])
	}
	rec, _ = do(t, s, http.MethodGet, "/api/orders/analytics?period=quarter", "tok-rest", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad period: status %d", rec.Code)
	}

	rec, body = do(t, s, http.MethodGet, "/api/orders/feedbacks", "tok-rest", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("feedbacks: status %d", rec.Code)
	}
	if list := body["feedbacks"].([]any); len(list) != 1 {
		t.Fatalf("expected 1 feedback, got %d", len(list))
	}
}
