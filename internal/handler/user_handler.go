package handlers

import (
	"damoyeo/internal/repository"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

type UpdateProfileRequest struct {
	Name     string `json:"user_name" validate:"required"`
	Nickname string `json:"user_nickname" validate:"max=30"`
	PhoneNum string `json:"user_phoneNum" validate:"omitempty,numeric,min=9,max=15"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

func (h *Handlers) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.UserService.GetProfile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, user, http.StatusOK)
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if _, ok := currentUser(w, r); !ok {
		return
	}

	user, err := h.UserService.GetProfile(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, user, http.StatusOK)
}

func (h *Handlers) UpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "Неверные данные", http.StatusBadRequest)
		return
	}

	user, err := h.UserService.UpdateProfile(r.Context(), repository.UpdateProfileRequest{
		UserID:   userID,
		Name:     req.Name,
		Nickname: req.Nickname,
		PhoneNum: req.PhoneNum,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, user, http.StatusOK)
}

func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "Пароль должен быть не менее 6 символов", http.StatusBadRequest)
		return
	}

	if err := h.UserService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]string{"message": "Пароль изменен"}, http.StatusOK)
}

func (h *Handlers) UploadProfileImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	file, closeFile, ok := h.formImage(w, r)
	if !ok {
		return
	}
	defer closeFile()

	user, err := h.UserService.UploadProfileImage(r.Context(), userID, file)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, user, http.StatusOK)
}

func (h *Handlers) MyPosts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	posts, err := h.PostService.MyPosts(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, PostsResponse{Posts: posts}, http.StatusOK)
}

func (h *Handlers) MyParticipations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	posts, err := h.PostService.ParticipatedPosts(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, PostsResponse{Posts: posts}, http.StatusOK)
}

func (h *Handlers) MyFavorites(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	posts, err := h.FavoriteService.ListFavorites(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, PostsResponse{Posts: posts}, http.StatusOK)
}
