package handlers

import (
	"damoyeo/internal/models"
	"net/http"

	"github.com/gorilla/mux"
)

type ParticipantsResponse struct {
	Status       *models.ParticipationStatus `json:"status"`
	Participants []models.Participant        `json:"participants"`
}

func (h *Handlers) GetParticipants(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	postID := mux.Vars(r)["postId"]

	participants, err := h.ParticipationService.Roster(r.Context(), postID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	status, err := h.ParticipationService.Status(r.Context(), postID, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, ParticipantsResponse{Status: status, Participants: participants}, http.StatusOK)
}

func (h *Handlers) JoinPost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	status, err := h.ParticipationService.Join(r.Context(), mux.Vars(r)["postId"], userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, status, http.StatusOK)
}

func (h *Handlers) LeavePost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	status, err := h.ParticipationService.Leave(r.Context(), mux.Vars(r)["postId"], userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, status, http.StatusOK)
}

func (h *Handlers) GetFavorite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	status, err := h.FavoriteService.Status(r.Context(), mux.Vars(r)["postId"], userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, status, http.StatusOK)
}

func (h *Handlers) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	status, err := h.FavoriteService.Toggle(r.Context(), mux.Vars(r)["postId"], userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, status, http.StatusOK)
}
