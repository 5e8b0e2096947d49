package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rajivgeraev/unlisted-api/internal/utils"
)

func newTestServer(t *testing.T) (*Manager, *utils.JWTService, *httptest.Server) {
	t.Helper()
	m := NewManager(zap.NewNop())
	jwtService := utils.NewJWTService("test-secret", time.Hour)
	srv := httptest.NewServer(m.Handler(jwtService))
	t.Cleanup(func() {
		m.Shutdown()
		srv.Close()
	})
	return m, jwtService, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestHandler_RejectsMissingOrInvalidToken(t *testing.T) {
	_, _, srv := newTestServer(t)

	_, resp, err := dial(t, srv, "")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = dial(t, srv, "garbage")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestManager_NotifyListingReachesParticipant(t *testing.T) {
	m, jwtService, srv := newTestServer(t)

	userID := uuid.New()
	token, err := jwtService.GenerateToken(userID, "user")
	require.NoError(t, err)

	conn, _, err := dial(t, srv, token)
	require.NoError(t, err)
	defer conn.Close()

	hello := readEvent(t, conn)
	assert.Equal(t, EventConnected, hello.Type)
	assert.Equal(t, 1, m.ConnectedUsers())

	listingID := uuid.New()
	m.NotifyListing([]uuid.UUID{uuid.New(), userID}, listingID, map[string]string{"status": "approved"})

	ev := readEvent(t, conn)
	assert.Equal(t, EventListingUpdated, ev.Type)
	assert.Equal(t, listingID.String(), ev.ListingID)
	assert.JSONEq(t, `{"status":"approved"}`, string(ev.Payload))
}

func TestClient_AnswersPing(t *testing.T) {
	_, jwtService, srv := newTestServer(t)

	token, err := jwtService.GenerateToken(uuid.New(), "user")
	require.NoError(t, err)

	conn, _, err := dial(t, srv, token)
	require.NoError(t, err)
	defer conn.Close()
	readEvent(t, conn)

	require.NoError(t, conn.WriteJSON(Event{Type: EventPing}))
	ev := readEvent(t, conn)
	assert.Equal(t, EventPong, ev.Type)
}

func TestManager_SendToOfflineUserIsNoop(t *testing.T) {
	m := NewManager(zap.NewNop())
	assert.NotPanics(t, func() {
		m.SendToUser(uuid.NewString(), Event{Type: EventListingUpdated})
		m.SendToUser("", Event{Type: EventListingUpdated})
	})
	assert.Equal(t, 0, m.ConnectedUsers())
}
