package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/example/foodshare/internal/coordinator"
)

func (s *Server) handleListVolunteers(w http.ResponseWriter, r *http.Request) {
	volunteers, err := s.Coord.ListVolunteers(r.Context(), identityFrom(r.Context()))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "", map[string]any{"volunteers": volunteers})
}

func (s *Server) handleAddVolunteer(w http.ResponseWriter, r *http.Request) {
	var in coordinator.VolunteerInput
	if err := decodeBody(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	v, err := s.Coord.AddVolunteer(r.Context(), identityFrom(r.Context()), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, "Volunteer added successfully", map[string]any{"volunteer": v})
}

func (s *Server) handleUpdateVolunteer(w http.ResponseWriter, r *http.Request) {
	var in coordinator.VolunteerUpdate
	if err := decodeBody(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	v, err := s.Coord.UpdateVolunteer(r.Context(), identityFrom(r.Context()), mux.Vars(r)["id"], in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "Volunteer updated successfully", map[string]any{"volunteer": v})
}

func (s *Server) handleRemoveVolunteer(w http.ResponseWriter, r *http.Request) {
	if err := s.Coord.RemoveVolunteer(r.Context(), identityFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "Volunteer deleted successfully", nil)
}

func (s *Server) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := s.Coord.ListAssignments(r.Context(), identityFrom(r.Context()))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "", map[string]any{"assignments": assignments})
}

func (s *Server) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	var in coordinator.AssignmentInput
	if err := decodeBody(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	a, err := s.Coord.CreateAssignment(r.Context(), identityFrom(r.Context()), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, "Assignment created successfully", map[string]any{"assignment": a})
}

func (s *Server) handleAssignmentStatus(w http.ResponseWriter, r *http.Request) {
	var in coordinator.StatusUpdate
	if err := decodeBody(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	a, err := s.Coord.UpdateAssignmentStatus(r.Context(), identityFrom(r.Context()), mux.Vars(r)["id"], in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "Assignment status updated", map[string]any{"assignment": a})
}

func (s *Server) handleCoordinatorStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Coord.Stats(r.Context(), identityFrom(r.Context()))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, "", map[string]any{"stats": stats})
}
