package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventType определяет тип события WebSocket
type EventType string

const (
	EventConnected      EventType = "connected"
	EventListingUpdated EventType = "listing_updated"
	EventTradeUpdated   EventType = "trade_updated"
	EventPing           EventType = "ping"
	EventPong           EventType = "pong"
)

// Event представляет структуру сообщения для WebSocket
type Event struct {
	Type      EventType       `json:"type"`
	ListingID string          `json:"listing_id,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Manager представляет центральный менеджер для всех WebSocket соединений
type Manager struct {
	clients      map[uuid.UUID]*Client
	clientsMutex sync.RWMutex
	userClients  map[string]map[uuid.UUID]bool // userID -> map[clientID]bool
	userMutex    sync.RWMutex
	log          *zap.Logger
}

// NewManager создает новый экземпляр Manager
func NewManager(log *zap.Logger) *Manager {
	return &Manager{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[string]map[uuid.UUID]bool),
		log:         log,
	}
}

// AddClient регистрирует нового клиента
func (m *Manager) AddClient(client *Client) {
	m.clientsMutex.Lock()
	m.clients[client.ID] = client
	m.clientsMutex.Unlock()

	// Связываем клиент с пользователем
	m.userMutex.Lock()
	if _, exists := m.userClients[client.UserID]; !exists {
		m.userClients[client.UserID] = make(map[uuid.UUID]bool)
	}
	m.userClients[client.UserID][client.ID] = true
	m.userMutex.Unlock()

	m.log.Debug("WebSocket клиент подключен",
		zap.Stringer("client_id", client.ID), zap.String("user_id", client.UserID))
}

// RemoveClient удаляет клиента
func (m *Manager) RemoveClient(clientID uuid.UUID) {
	m.clientsMutex.Lock()
	client, exists := m.clients[clientID]
	if exists {
		delete(m.clients, clientID)
	}
	m.clientsMutex.Unlock()

	if !exists {
		return
	}

	userID := client.UserID

	// Удаляем клиент из связи с пользователем
	m.userMutex.Lock()
	if clients, ok := m.userClients[userID]; ok {
		delete(clients, clientID)
		// Если это был последний клиент пользователя, удаляем запись пользователя
		if len(clients) == 0 {
			delete(m.userClients, userID)
		}
	}
	m.userMutex.Unlock()

	client.closeSend()

	m.log.Debug("WebSocket клиент отключен",
		zap.Stringer("client_id", clientID), zap.String("user_id", userID))
}

// SendToUser отправляет событие всем соединениям конкретного пользователя
func (m *Manager) SendToUser(userID string, event Event) {
	if userID == "" {
		return
	}

	m.userMutex.RLock()
	clientIDs := make([]uuid.UUID, 0, len(m.userClients[userID]))
	for id := range m.userClients[userID] {
		clientIDs = append(clientIDs, id)
	}
	m.userMutex.RUnlock()

	if len(clientIDs) == 0 {
		// Пользователь не онлайн, актуальное состояние он получит через REST
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		m.log.Error("Ошибка сериализации события", zap.Error(err))
		return
	}

	for _, clientID := range clientIDs {
		m.clientsMutex.RLock()
		client, exists := m.clients[clientID]
		m.clientsMutex.RUnlock()

		if !exists {
			continue
		}

		if !client.enqueue(eventJSON) {
			// Канал заполнен, клиент слишком медленный - закрываем соединение
			m.log.Warn("Очередь клиента переполнена, соединение закрыто", zap.Stringer("client_id", client.ID))
			m.RemoveClient(client.ID)
		}
	}
}

// NotifyListing рассылает обновлённое объявление его участникам
func (m *Manager) NotifyListing(userIDs []uuid.UUID, listingID uuid.UUID, payload interface{}) {
	m.notify(userIDs, EventListingUpdated, listingID, payload)
}

// NotifyTrade рассылает изменение сделки её сторонам
func (m *Manager) NotifyTrade(userIDs []uuid.UUID, listingID uuid.UUID, payload interface{}) {
	m.notify(userIDs, EventTradeUpdated, listingID, payload)
}

func (m *Manager) notify(userIDs []uuid.UUID, eventType EventType, listingID uuid.UUID, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		m.log.Error("Ошибка сериализации данных события", zap.Error(err))
		return
	}
	for _, id := range userIDs {
		m.SendToUser(id.String(), Event{
			Type:      eventType,
			ListingID: listingID.String(),
			UserID:    id.String(),
			Timestamp: time.Now(),
			Payload:   data,
		})
	}
}

// ConnectedUsers возвращает количество пользователей онлайн
func (m *Manager) ConnectedUsers() int {
	m.userMutex.RLock()
	defer m.userMutex.RUnlock()
	return len(m.userClients)
}

// Shutdown корректно завершает работу менеджера WebSocket
func (m *Manager) Shutdown() {
	m.clientsMutex.Lock()
	clients := m.clients
	m.clients = make(map[uuid.UUID]*Client)
	m.clientsMutex.Unlock()

	for _, client := range clients {
		client.closeSend()
		if client.conn != nil {
			client.conn.Close()
		}
	}

	m.userMutex.Lock()
	m.userClients = make(map[string]map[uuid.UUID]bool)
	m.userMutex.Unlock()
}
