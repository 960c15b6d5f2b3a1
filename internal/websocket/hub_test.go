package websocket

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"Agora/internal/models"
)

type rawEvent struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

func startHub(t *testing.T, opts Options) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(logs.GetLoggerFromLevel(slog.LevelError), opts)
	go hub.Run()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		server.Close()
		_ = hub.Shutdown(time.Second)
	})
	return hub, server
}

func dial(t *testing.T, server *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForSessions(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Count() == n }, 2*time.Second, 5*time.Millisecond)
}

func readEvent(t *testing.T, conn *websocket.Conn) rawEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt rawEvent
	require.NoError(t, conn.ReadJSON(&evt))
	return evt
}

func requireSilent(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	require.True(t, netErr.Timeout(), "expected a read timeout, got %v", err)
}

func TestHub_AnnounceMessage_FansOutToEverySession(t *testing.T) {
	req := require.New(t)
	hub, server := startHub(t, Options{})

	first := dial(t, server, nil)
	second := dial(t, server, nil)
	waitForSessions(t, hub, 2)

	hub.AnnounceMessage("alice", "/static/img/profile_pictures/alice.png", "2020-01-01 10:30", "general", "hello")

	third := dial(t, server, nil)
	waitForSessions(t, hub, 3)

	want := models.MessageAnnouncement{
		User:           "alice",
		UserPicture:    "/static/img/profile_pictures/alice.png",
		Time:           "2020-01-01 10:30",
		Channel:        "general",
		MessageContent: "hello",
	}
	for _, conn := range []*websocket.Conn{first, second} {
		evt := readEvent(t, conn)
		req.Equal(models.EventAnnounceMessage, evt.Name)
		var got models.MessageAnnouncement
		req.NoError(json.Unmarshal(evt.Data, &got))
		req.Equal(want, got)
		requireSilent(t, conn)
	}
	requireSilent(t, third)
}

func TestHub_AnnounceChannel_Payload(t *testing.T) {
	req := require.New(t)
	hub, server := startHub(t, Options{})
	conn := dial(t, server, nil)
	waitForSessions(t, hub, 1)

	hub.AnnounceChannel("random")

	evt := readEvent(t, conn)
	req.Equal(models.EventAnnounceChannel, evt.Name)
	req.JSONEq(`{"channelName":"random"}`, string(evt.Data))
}

func TestHub_SessionLeaves(t *testing.T) {
	hub, server := startHub(t, Options{})
	conn := dial(t, server, nil)
	waitForSessions(t, hub, 1)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))
	conn.Close()
	waitForSessions(t, hub, 0)

	// Broadcasting with nobody listening must not block.
	hub.AnnounceChannel("empty-room")
}

func TestHub_RejectsDisallowedOrigin(t *testing.T) {
	req := require.New(t)
	hub, server := startHub(t, Options{AllowedOrigins: []string{"http://localhost:8080"}})
	url := "ws" + strings.TrimPrefix(server.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.example.com"}})
	req.Error(err)
	req.Equal(http.StatusForbidden, resp.StatusCode)

	conn := dial(t, server, http.Header{"Origin": {"HTTP://LOCALHOST:8080"}})
	req.NotNil(conn)
	waitForSessions(t, hub, 1)
}

func TestHub_Shutdown(t *testing.T) {
	req := require.New(t)
	hub := NewHub(logs.GetLoggerFromLevel(slog.LevelError), Options{})
	go hub.Run()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	conn := dial(t, server, nil)
	waitForSessions(t, hub, 1)

	req.NoError(hub.Shutdown(2 * time.Second))
	req.Zero(hub.Count())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	req.Error(err)

	// Announcements after shutdown are dropped instead of blocking.
	done := make(chan struct{})
	go func() {
		hub.AnnounceChannel("late")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("AnnounceChannel blocked after shutdown")
	}
}

func TestOriginPolicy(t *testing.T) {
	policy := newOriginPolicy([]string{" https://Chat.Example.com ", "", "not a url"})
	require.True(t, policy.allows("https://chat.example.com", "api.example.com"))
	require.True(t, policy.allows("", "api.example.com"))
	require.False(t, policy.allows("https://other.example.com", "api.example.com"))
	require.False(t, policy.allows("::bad", "api.example.com"))

	require.True(t, newOriginPolicy([]string{"*"}).allows("https://anything.example.com", "api.example.com"))

	sameOrigin := newOriginPolicy(nil)
	require.True(t, sameOrigin.allows("http://localhost:8080", "localhost:8080"))
	require.False(t, sameOrigin.allows("http://localhost:3000", "localhost:8080"))
}
