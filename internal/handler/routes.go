package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// PublicPaths are served without an access token.
var PublicPaths = []string{
	"/",
	"/health",
	"/tables",
	"/api/auth/register",
	"/api/auth/login",
	"/api/auth/refresh-token",
}

func (h *Handlers) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", HomeHandler).Methods(http.MethodGet)
	r.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/tables", h.TablesHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh-token", h.RefreshToken).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)

	api.HandleFunc("/me", h.GetCurrentUser).Methods(http.MethodGet)
	api.HandleFunc("/me", h.UpdateCurrentUser).Methods(http.MethodPut)
	api.HandleFunc("/me/password", h.ChangePassword).Methods(http.MethodPut)
	api.HandleFunc("/me/image", h.UploadProfileImage).Methods(http.MethodPost)
	api.HandleFunc("/me/posts", h.MyPosts).Methods(http.MethodGet)
	api.HandleFunc("/me/participations", h.MyParticipations).Methods(http.MethodGet)
	api.HandleFunc("/me/favorites", h.MyFavorites).Methods(http.MethodGet)
	api.HandleFunc("/users/{userId}", h.GetUser).Methods(http.MethodGet)

	api.HandleFunc("/posts", h.GetPosts).Methods(http.MethodGet)
	api.HandleFunc("/posts", h.CreatePost).Methods(http.MethodPost)
	api.HandleFunc("/posts/{postId}", h.GetPost).Methods(http.MethodGet)
	api.HandleFunc("/posts/{postId}", h.UpdatePost).Methods(http.MethodPut)
	api.HandleFunc("/posts/{postId}", h.DeletePost).Methods(http.MethodDelete)
	api.HandleFunc("/posts/{postId}/images", h.AddImage).Methods(http.MethodPost)
	api.HandleFunc("/posts/{postId}/images", h.DeleteImage).Methods(http.MethodDelete)
	api.HandleFunc("/posts/{postId}/participants", h.GetParticipants).Methods(http.MethodGet)
	api.HandleFunc("/posts/{postId}/participants", h.JoinPost).Methods(http.MethodPost)
	api.HandleFunc("/posts/{postId}/participants", h.LeavePost).Methods(http.MethodDelete)
	api.HandleFunc("/posts/{postId}/favorite", h.GetFavorite).Methods(http.MethodGet)
	api.HandleFunc("/posts/{postId}/favorite", h.ToggleFavorite).Methods(http.MethodPost)

	api.HandleFunc("/chats", h.GetChats).Methods(http.MethodGet)
	api.HandleFunc("/chats", h.CreateChat).Methods(http.MethodPost)
	api.HandleFunc("/chats/{chatId}", h.ExitChat).Methods(http.MethodDelete)
	api.HandleFunc("/chats/{chatId}/pin", h.PinChat).Methods(http.MethodPatch)
	api.HandleFunc("/chats/{chatId}/messages", h.GetMessages).Methods(http.MethodGet)
	api.HandleFunc("/chats/{chatId}/messages", h.SendMessage).Methods(http.MethodPost)
	api.HandleFunc("/chats/{chatId}/read", h.MarkRead).Methods(http.MethodPost)

	api.HandleFunc("/ws/chats", h.ChatsSocket).Methods(http.MethodGet)
	api.HandleFunc("/ws/chats/{chatId}", h.ChatSocket).Methods(http.MethodGet)

	// subrouters answer method mismatches themselves
	for _, router := range []*mux.Router{r, api} {
		router.NotFoundHandler = http.HandlerFunc(notFound)
		router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	}

	return r
}

func notFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, "Не найдено", http.StatusNotFound)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
}
