package websocket

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rajivgeraev/unlisted-api/internal/utils"
)

// TokenValidator проверяет токен сессии
type TokenValidator interface {
	ValidateToken(token string) (*utils.Claims, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Mini App открывается с домена Telegram, origin не проверяем
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler возвращает HTTP-обработчик, переводящий запрос /ws?token=... в WebSocket
func (m *Manager) Handler(tokens TokenValidator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		claims, err := tokens.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			m.log.Warn("Ошибка при установке WebSocket соединения", zap.Error(err))
			return
		}

		client := NewClient(claims.UserID, conn, m)
		client.Start()

		m.SendToUser(claims.UserID, Event{Type: EventConnected, UserID: claims.UserID})
	})
}
