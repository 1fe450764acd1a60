package handlers

import (
	"context"
	"damoyeo/internal/config"
	"damoyeo/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
)

type Handlers struct {
	AuthService          service.AuthService
	UserService          service.UserService
	PostService          service.PostService
	ParticipationService service.ParticipationService
	FavoriteService      service.FavoriteService
	ChatService          service.ChatService
	MessageService       service.MessageService
	TablesService        service.TablesService
	Cfg                  *config.Config
	Validate             *validator.Validate

	// Health reports whether the store answers; nil means always healthy.
	Health   func(ctx context.Context) error
	Upgrader websocket.Upgrader
}

func NewHandlers(service *service.Service, config *config.Config) *Handlers {
	h := &Handlers{
		AuthService:          service.Auth,
		UserService:          service.User,
		PostService:          service.Post,
		ParticipationService: service.Participation,
		FavoriteService:      service.Favorite,
		ChatService:          service.Chat,
		MessageService:       service.Message,
		TablesService:        service.Tables,
		Cfg:                  config,
		Validate:             validator.New(),
	}
	h.Upgrader = newUpgrader(config.AllowedWSOrigins)

	return h
}
