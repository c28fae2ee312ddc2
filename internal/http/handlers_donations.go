package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/example/foodshare/internal/lifecycle"
	"github.com/example/foodshare/internal/models"
)

func (s *Server) handleCreateDonation(w http.ResponseWriter, r *http.Request) {
	var in lifecycle.CreateInput
	if err := decodeBody(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	d, err := s.Donations.Create(r.Context(), identityFrom(r.Context()), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, "Donation created successfully", map[string]any{"donation": d})
}

func (s *Server) handleMyDonations(w http.ResponseWriter, r *http.Request) {
	donations, err := s.Donations.ListMine(r.Context(), identityFrom(r.Context()))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "", map[string]any{"donations": donations})
}

func (s *Server) handleAvailableDonations(w http.ResponseWriter, r *http.Request) {
	donations, err := s.Donations.ListAvailable(r.Context(), identityFrom(r.Context()))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "", map[string]any{"donations": donations})
}

func (s *Server) handleClaimedDonations(w http.ResponseWriter, r *http.Request) {
	donations, err := s.Donations.ListClaimed(r.Context(), identityFrom(r.Context()))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "", map[string]any{"donations": donations})
}

func (s *Server) handleDonationStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Donations.Stats(r.Context(), identityFrom(r.Context()))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "", map[string]any{"stats": stats})
}

func (s *Server) handleClaimDonation(w http.ResponseWriter, r *http.Request) {
	d, err := s.Donations.Claim(r.Context(), identityFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "Donation claimed successfully", map[string]any{"donation": d})
}

func (s *Server) handleDonationStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status models.DonationStatus `json:"status"`
	}
	if err := decodeBody(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	d, err := s.Donations.SetStatus(r.Context(), identityFrom(r.Context()), mux.Vars(r)["id"], in.Status)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "Donation status updated", map[string]any{"donation": d})
}

func (s *Server) handleAcknowledgeDonation(w http.ResponseWriter, r *http.Request) {
	var in lifecycle.AcknowledgeInput
	if err := decodeBody(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	d, err := s.Donations.Acknowledge(r.Context(), identityFrom(r.Context()), mux.Vars(r)["id"], in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "Acknowledgement added successfully", map[string]any{"donation": d})
}
