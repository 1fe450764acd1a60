package handlers

import (
	"context"
	"damoyeo/internal/models"
	"encoding/json"
	"log"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxFrameSize = 16 << 10
)

type roomsFrame struct {
	Type  string            `json:"type"`
	Chats []models.ChatRoom `json:"chats"`
}

type messagesFrame struct {
	Type     string           `json:"type"`
	Messages []models.Message `json:"messages"`
}

type ackFrame struct {
	Type    string          `json:"type"`
	TempID  string          `json:"tempId"`
	Message *models.Message `json:"message"`
}

type errorFrame struct {
	Type   string `json:"type"`
	TempID string `json:"tempId,omitempty"`
	Error  string `json:"error"`
}

// clientFrame is what a chat socket accepts: {"type":"send","tempId","message"}.
type clientFrame struct {
	Type    string `json:"type"`
	TempID  string `json:"tempId"`
	Message string `json:"message"`
}

// newUpgrader allows the listed origins, or every origin for "*". With no
// list the gorilla default applies: same host or no Origin header.
func newUpgrader(origins []string) websocket.Upgrader {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	if len(origins) == 0 {
		return upgrader
	}

	upgrader.CheckOrigin = func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
	}
	return upgrader
}

type socket struct {
	conn *websocket.Conn
	send chan []byte
}

func newSocket(conn *websocket.Conn) *socket {
	return &socket{conn: conn, send: make(chan []byte, 16)}
}

func (s *socket) queue(ctx context.Context, frame interface{}) {
	data, err := json.Marshal(frame)
	if err != nil {
		log.Printf("Ошибка кодирования кадра: %v", err)
		return
	}

	select {
	case s.send <- data:
	case <-ctx.Done():
	}
}

// readPump delivers client frames to handle until the connection fails.
func (s *socket) readPump(handle func(raw []byte)) {
	s.conn.SetReadLimit(maxFrameSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Ошибка чтения websocket: %v", err)
			}
			return
		}
		if handle != nil {
			handle(raw)
		}
	}
}

// writePump is the only writer of the connection. It closes the connection
// once ctx is done.
func (s *socket) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case data := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

// ChatsSocket streams the sorted room list of the current user.
func (h *Handlers) ChatsSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Ошибка upgrade websocket: %v", err)
		return
	}

	s := newSocket(conn)
	go s.writePump(ctx)

	rooms := h.ChatService.SubscribeRooms(ctx, userID)
	go func() {
		defer cancel()
		for snapshot := range rooms {
			if snapshot == nil {
				snapshot = []models.ChatRoom{}
			}
			s.queue(ctx, roomsFrame{Type: "rooms", Chats: snapshot})
		}
	}()

	s.readPump(nil)
}

// ChatSocket streams the messages of one room, accepts sends and marks what
// the other member wrote as read after each snapshot.
func (h *Handlers) ChatSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	chatID := mux.Vars(r)["chatId"]

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// membership errors are still plain HTTP responses here
	stream, err := h.MessageService.Subscribe(ctx, chatID, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Ошибка upgrade websocket: %v", err)
		return
	}

	s := newSocket(conn)
	go s.writePump(ctx)

	go func() {
		defer cancel()
		for snapshot := range stream {
			if snapshot == nil {
				snapshot = []models.Message{}
			}
			s.queue(ctx, messagesFrame{Type: "messages", Messages: snapshot})

			if _, err := h.MessageService.MarkRead(ctx, chatID, userID); err != nil && ctx.Err() == nil {
				log.Printf("Ошибка отметки прочтения в чате %s: %v", chatID, err)
			}
		}
	}()

	s.readPump(func(raw []byte) {
		var frame clientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			s.queue(ctx, errorFrame{Type: "error", Error: "Неверный формат сообщения"})
			return
		}

		if frame.Type != "send" {
			s.queue(ctx, errorFrame{Type: "error", TempID: frame.TempID, Error: "Неподдерживаемый тип сообщения"})
			return
		}

		message, err := h.MessageService.Send(ctx, chatID, userID, frame.Message)
		if err != nil {
			s.queue(ctx, errorFrame{Type: "error", TempID: frame.TempID, Error: frameError(err)})
			return
		}

		s.queue(ctx, ackFrame{Type: "ack", TempID: frame.TempID, Message: message})
	})
}

func frameError(err error) string {
	if StatusFor(err) == http.StatusInternalServerError {
		log.Printf("Ошибка отправки сообщения: %v", err)
		return "Не удалось отправить сообщение"
	}
	return err.Error()
}
