package handlers

import (
	"damoyeo/internal/models"
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

// ErrorResponse - стандартный ответ с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteError - универсальная функция для отправки ошибок
func WriteError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// writeSuccess - функция для успешных ответов
func writeSuccess(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

var errorStatuses = []struct {
	err    error
	status int
}{
	// checked first: a timeout wraps the underlying store error
	{models.ErrStoreTimeout, http.StatusGatewayTimeout},

	{models.ErrInvalidCategory, http.StatusBadRequest},
	{models.ErrInvalidRecruit, http.StatusBadRequest},
	{models.ErrInvalidCost, http.StatusBadRequest},
	{models.ErrUnsupportedImage, http.StatusBadRequest},
	{models.ErrEmptyMessage, http.StatusBadRequest},
	{models.ErrSelfChat, http.StatusBadRequest},
	{models.ErrImageTooLarge, http.StatusRequestEntityTooLarge},

	{models.ErrInvalidToken, http.StatusUnauthorized},
	{models.ErrInvalidPassword, http.StatusUnauthorized},

	{models.ErrForbidden, http.StatusForbidden},
	{models.ErrNotRoomMember, http.StatusForbidden},

	{models.ErrUserNotFound, http.StatusNotFound},
	{models.ErrPostNotFound, http.StatusNotFound},
	{models.ErrImageNotFound, http.StatusNotFound},
	{models.ErrRoomNotFound, http.StatusNotFound},

	{models.ErrEmailTaken, http.StatusConflict},
	{models.ErrAlreadyJoined, http.StatusConflict},
	{models.ErrRecruitmentFull, http.StatusConflict},
	{models.ErrNotJoined, http.StatusConflict},
	{models.ErrAuthorCannotLeave, http.StatusConflict},
	{models.ErrRecruitBelowCount, http.StatusConflict},

	{models.ErrStorageMissing, http.StatusServiceUnavailable},
}

// StatusFor maps a service error to the HTTP status it is reported with.
func StatusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// writeServiceError reports err with its mapped status. Unknown errors are
// logged and hidden behind a generic message.
func writeServiceError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("Внутренняя ошибка: %v", err)
		WriteError(w, "Внутренняя ошибка сервера", status)
		return
	}

	WriteError(w, err.Error(), status)
}
