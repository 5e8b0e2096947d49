package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Максимальное время ожидания для pong от клиента
	pongWait = 60 * time.Second

	// Отправлять ping-сообщения клиенту с этим интервалом
	pingPeriod = (pongWait * 9) / 10

	// Клиент только подписывается на обновления, входящие сообщения маленькие
	maxMessageSize = 4 * 1024

	writeWait = 10 * time.Second

	// Размер буфера для отправляемых сообщений
	writeBufferSize = 64
)

// Client представляет собой отдельное WebSocket соединение
type Client struct {
	ID      uuid.UUID
	UserID  string
	conn    *websocket.Conn
	send    chan []byte // Буферизованный канал исходящих сообщений
	manager *Manager

	sendMu sync.Mutex
	closed bool
}

// NewClient создает новый экземпляр Client
func NewClient(userID string, conn *websocket.Conn, manager *Manager) *Client {
	return &Client{
		ID:      uuid.New(),
		UserID:  userID,
		conn:    conn,
		send:    make(chan []byte, writeBufferSize),
		manager: manager,
	}
}

// Start запускает клиентские горутины для чтения и записи
func (c *Client) Start() {
	c.manager.AddClient(c)

	go c.readPump()
	go c.writePump()
}

// enqueue ставит сообщение в очередь без блокировки
func (c *Client) enqueue(message []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump обрабатывает входящие сообщения от клиента
func (c *Client) readPump() {
	defer func() {
		c.manager.RemoveClient(c.ID)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.manager.log.Warn("Неожиданное закрытие соединения", zap.Error(err))
			}
			break
		}

		c.handleIncomingMessage(message)
	}
}

// writePump отправляет сообщения клиенту
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Канал закрыт, отправляем сообщение о закрытии соединения
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.manager.log.Debug("Ошибка отправки сообщения", zap.Error(err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleIncomingMessage обрабатывает входящие сообщения от клиента
func (c *Client) handleIncomingMessage(message []byte) {
	var event Event
	if err := json.Unmarshal(message, &event); err != nil {
		c.manager.log.Debug("Некорректное сообщение от клиента", zap.Error(err))
		return
	}

	switch event.Type {
	case EventPing:
		pong, _ := json.Marshal(Event{Type: EventPong, UserID: c.UserID, Timestamp: time.Now()})
		c.enqueue(pong)
	default:
		c.manager.log.Debug("Необработанный тип события", zap.String("type", string(event.Type)))
	}
}
