package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/example/foodshare/internal/analytics"
)

func (s *Server) handleOrderAnalytics(w http.ResponseWriter, r *http.Request) {
	period, err := analytics.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	report, err := s.Orders.Analytics(r.Context(), identityFrom(r.Context()), period)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "", map[string]any{"analytics": report})
}

func (s *Server) handleOrderFeedbacks(w http.ResponseWriter, r *http.Request) {
	feedbacks, err := s.Orders.ListFeedbacks(r.Context(), identityFrom(r.Context()))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "", map[string]any{"feedbacks": feedbacks})
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var in analytics.CreateOrderInput
	if err := decodeBody(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	o, err := s.Orders.CreateOrder(r.Context(), identityFrom(r.Context()), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, "Order created successfully", map[string]any{"order": o})
}

func (s *Server) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := decodeBody(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	o, err := s.Orders.SubmitFeedback(r.Context(), identityFrom(r.Context()), mux.Vars(r)["id"], in.Rating, in.Comment)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "Feedback added successfully", map[string]any{"order": o})
}
