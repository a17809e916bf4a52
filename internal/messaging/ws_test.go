package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sudo-init-do/favo/internal/api"
	"github.com/sudo-init-do/favo/internal/domain"
)

type tokenAuth map[string]int64

func (a tokenAuth) Authenticate(_ context.Context, raw string) (domain.User, error) {
	id, ok := a[raw]
	if !ok {
		return domain.User{}, domain.ErrUnauthorized
	}
	return domain.User{ID: id}, nil
}

func startServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = api.HTTPErrorHandler(zap.NewNop())
	h := NewHandler(hub, tokenAuth{"tok-ana": 1, "tok-bruno": 2}, time.Second, []string{"*"})
	e.GET("/ws", h.Serve)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
}

func waitConnected(t *testing.T, hub *Hub, user int64, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Connected(user) == n }, 2*time.Second, 10*time.Millisecond)
}

func TestWebsocketDeliversToRecipient(t *testing.T) {
	hub := NewHub(zap.NewNop())
	srv := startServer(t, hub)

	ana, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "?token=tok-ana"), nil)
	require.NoError(t, err)
	defer ana.Close()

	header := http.Header{}
	header.Set(echo.HeaderAuthorization, "Bearer tok-bruno")
	bruno, _, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), header)
	require.NoError(t, err)
	defer bruno.Close()

	waitConnected(t, hub, 1, 1)
	waitConnected(t, hub, 2, 1)

	hub.Deliver(domain.Event{ID: "e1", Type: domain.EventPedidoAccepted, RecipientID: 1, PedidoID: 4})

	_ = ana.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := ana.ReadMessage()
	require.NoError(t, err)

	var got struct {
		Type string       `json:"type"`
		Data domain.Event `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, domain.EventPedidoAccepted, got.Type)
	assert.Equal(t, int64(4), got.Data.PedidoID)

	_ = bruno.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = bruno.ReadMessage()
	assert.Error(t, err, "bruno must not receive ana's event")
}

func TestWebsocketRejectsMissingToken(t *testing.T) {
	srv := startServer(t, NewHub(nil))

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(wsURL(srv, "?token=bogus"), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHubUnregisterOnClose(t *testing.T) {
	hub := NewHub(nil)
	srv := startServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "?token=tok-ana"), nil)
	require.NoError(t, err)
	waitConnected(t, hub, 1, 1)

	require.NoError(t, conn.Close())
	waitConnected(t, hub, 1, 0)

	// delivering to a user with no sockets is a no-op
	hub.Deliver(domain.Event{ID: "e2", Type: domain.EventOfferCreated, RecipientID: 1})
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(nil)
	cl := &client{userID: 9, send: make(chan []byte, 1)}
	hub.register(cl)

	hub.Deliver(domain.Event{ID: "a", RecipientID: 9})
	hub.Deliver(domain.Event{ID: "b", RecipientID: 9})
	assert.Len(t, cl.send, 1)

	hub.unregister(cl)
	_, open := <-cl.send
	assert.True(t, open, "buffered event is still readable")
	_, open = <-cl.send
	assert.False(t, open)
	assert.Zero(t, hub.Connected(9))
}
