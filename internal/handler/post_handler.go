package handlers

import (
	"damoyeo/internal/models"
	"damoyeo/internal/repository"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
)

type PostsResponse struct {
	Posts []models.Post `json:"posts"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (h *Handlers) GetPosts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	posts, err := h.PostService.ListPosts(r.Context(), query.Get("category"), query.Get("sort"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, PostsResponse{Posts: posts}, http.StatusOK)
}

func (h *Handlers) GetPost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	detail, err := h.PostService.GetPost(r.Context(), mux.Vars(r)["postId"], userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, detail, http.StatusOK)
}

func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	req, ok := h.decodePost(w, r)
	if !ok {
		return
	}

	post, err := h.PostService.CreatePost(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, post, http.StatusCreated)
}

func (h *Handlers) UpdatePost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	req, ok := h.decodePost(w, r)
	if !ok {
		return
	}

	post, err := h.PostService.UpdatePost(r.Context(), userID, mux.Vars(r)["postId"], req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, post, http.StatusOK)
}

func (h *Handlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.PostService.DeletePost(r.Context(), userID, mux.Vars(r)["postId"]); err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, MessageResponse{Message: "Пост успешно удален"}, http.StatusOK)
}

func (h *Handlers) AddImage(w http.ResponseWriter, r *http.Request) {
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

	post, err := h.PostService.AddImage(r.Context(), userID, mux.Vars(r)["postId"], file)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, post, http.StatusCreated)
}

// DeleteImage removes the image whose URL is passed in the url query
// parameter.
func (h *Handlers) DeleteImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	imageURL := r.URL.Query().Get("url")
	if imageURL == "" {
		WriteError(w, "Не указан адрес изображения", http.StatusBadRequest)
		return
	}

	post, err := h.PostService.DeleteImage(r.Context(), userID, mux.Vars(r)["postId"], imageURL)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, post, http.StatusOK)
}

func (h *Handlers) decodePost(w http.ResponseWriter, r *http.Request) (repository.CreatePostRequest, bool) {
	var req repository.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Неверный формат запроса", http.StatusBadRequest)
		return req, false
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "Неверные данные поста", http.StatusBadRequest)
		return req, false
	}

	if !models.IsValidCategory(req.Category) {
		WriteError(w, fmt.Sprintf("%s: %s", req.Category, models.ErrInvalidCategory), http.StatusBadRequest)
		return req, false
	}

	return req, true
}

// formImage reads the "image" part of a multipart upload limited to the
// configured size.
func (h *Handlers) formImage(w http.ResponseWriter, r *http.Request) (multipart.File, func(), bool) {
	// multipart framing on top of the file itself
	r.Body = http.MaxBytesReader(w, r.Body, h.Cfg.MaxUploadSize+1<<20)

	if err := r.ParseMultipartForm(h.Cfg.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, fmt.Sprintf("Файл слишком большой (макс. %s)",
				humanize.Bytes(uint64(h.Cfg.MaxUploadSize))), http.StatusRequestEntityTooLarge)
		} else {
			WriteError(w, "Ошибка при обработке файла", http.StatusBadRequest)
		}
		return nil, nil, false
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		WriteError(w, "Не удалось получить файл", http.StatusBadRequest)
		return nil, nil, false
	}

	return file, func() { file.Close() }, true
}
