package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/foodshare/internal/analytics"
	"github.com/example/foodshare/internal/auth"
	"github.com/example/foodshare/internal/coordinator"
	"github.com/example/foodshare/internal/lifecycle"
)

// Server exposes the lifecycle core over HTTP+JSON. Authentication is an
// external collaborator: the resolver turns bearer tokens into identities
// and the handlers trust that resolution completely.
type Server struct {
	Donations *lifecycle.Engine
	Coord     *coordinator.Coordinator
	Orders    *analytics.Aggregator
	Auth      auth.Resolver

	logger *slog.Logger
	mux    *mux.Router
}

func NewServer(donations *lifecycle.Engine, coord *coordinator.Coordinator, orders *analytics.Aggregator, resolver auth.Resolver, logger *slog.Logger) *Server {
	s := &Server{
		Donations: donations,
		Coord:     coord,
		Orders:    orders,
		Auth:      resolver,
		logger:    logger,
		mux:       mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.mux.PathPrefix("/api").Subrouter()
	api.Use(s.authMiddleware)

	api.HandleFunc("/donations", s.handleCreateDonation).Methods(http.MethodPost)
	api.HandleFunc("/donations/mine", s.handleMyDonations).Methods(http.MethodGet)
	api.HandleFunc("/donations/available", s.handleAvailableDonations).Methods(http.MethodGet)
	api.HandleFunc("/donations/claimed", s.handleClaimedDonations).Methods(http.MethodGet)
	api.HandleFunc("/donations/stats", s.handleDonationStats).Methods(http.MethodGet)
	api.HandleFunc("/donations/{id}/claim", s.handleClaimDonation).Methods(http.MethodPatch)
	api.HandleFunc("/donations/{id}/status", s.handleDonationStatus).Methods(http.MethodPatch)
	api.HandleFunc("/donations/{id}/acknowledge", s.handleAcknowledgeDonation).Methods(http.MethodPatch)

	api.HandleFunc("/volunteers", s.handleListVolunteers).Methods(http.MethodGet)
	api.HandleFunc("/volunteers", s.handleAddVolunteer).Methods(http.MethodPost)
	api.HandleFunc("/volunteers/stats", s.handleCoordinatorStats).Methods(http.MethodGet)
	api.HandleFunc("/volunteers/{id}", s.handleUpdateVolunteer).Methods(http.MethodPatch)
	api.HandleFunc("/volunteers/{id}", s.handleRemoveVolunteer).Methods(http.MethodDelete)

	api.HandleFunc("/assignments", s.handleListAssignments).Methods(http.MethodGet)
	api.HandleFunc("/assignments", s.handleCreateAssignment).Methods(http.MethodPost)
	api.HandleFunc("/assignments/{id}/status", s.handleAssignmentStatus).Methods(http.MethodPatch)

	api.HandleFunc("/orders", s.handleCreateOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders/analytics", s.handleOrderAnalytics).Methods(http.MethodGet)
	api.HandleFunc("/orders/feedbacks", s.handleOrderFeedbacks).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/feedback", s.handleSubmitFeedback).Methods(http.MethodPatch)

	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods(http.MethodGet)
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }
