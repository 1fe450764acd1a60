package handlers

import (
	"damoyeo/internal/models"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

type ChatsResponse struct {
	Chats []models.ChatRoom `json:"chats"`
}

type MessagesResponse struct {
	Messages []models.Message `json:"messages"`
}

type CreateChatRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type SendMessageRequest struct {
	Message string `json:"message"`
}

func (h *Handlers) GetChats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	rooms, err := h.ChatService.ListRooms(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, ChatsResponse{Chats: rooms}, http.StatusOK)
}

// CreateChat opens the 1:1 room with another user, reusing an existing one.
func (h *Handlers) CreateChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "Не указан собеседник", http.StatusBadRequest)
		return
	}

	chatID, err := h.ChatService.FindOrCreateRoom(r.Context(), userID, req.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]string{"chatId": chatID}, http.StatusOK)
}

func (h *Handlers) PinChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Pinned bool `json:"pinned"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	if err := h.ChatService.SetPinned(r.Context(), mux.Vars(r)["chatId"], userID, req.Pinned); err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]bool{"pinned": req.Pinned}, http.StatusOK)
}

func (h *Handlers) ExitChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	deleted, err := h.ChatService.Exit(r.Context(), mux.Vars(r)["chatId"], userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]bool{"deleted": deleted}, http.StatusOK)
}

func (h *Handlers) GetMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	messages, err := h.MessageService.History(r.Context(), mux.Vars(r)["chatId"], userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, MessagesResponse{Messages: messages}, http.StatusOK)
}

func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	message, err := h.MessageService.Send(r.Context(), mux.Vars(r)["chatId"], userID, req.Message)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, message, http.StatusCreated)
}

func (h *Handlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	marked, err := h.MessageService.MarkRead(r.Context(), mux.Vars(r)["chatId"], userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]int64{"marked": marked}, http.StatusOK)
}
