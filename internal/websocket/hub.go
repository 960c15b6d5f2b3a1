package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"Agora/internal/models"
)

const defaultSendBufferSize = 256

type Options struct {
	// AllowedOrigins lists the browser origins allowed to connect; "*" allows
	// any and an empty list allows same-origin only. Requests without an
	// Origin header are not browsers and always pass.
	AllowedOrigins []string
	// SendBufferSize is the number of frames queued per session before the
	// session is dropped as too slow.
	SendBufferSize int
}

// Hub is the registry of live sessions and the fan-out point for
// announcements. Registration, removal and broadcast all go through the Run
// loop, so a session registered after a broadcast never sees it.
type Hub struct {
	sessions   map[uuid.UUID]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu     sync.RWMutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	upgrader websocket.Upgrader
	origins  originPolicy
	sendSize int
	log      *slog.Logger
}

func NewHub(log *slog.Logger, opts Options) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	if opts.SendBufferSize <= 0 {
		opts.SendBufferSize = defaultSendBufferSize
	}
	h := &Hub{
		sessions:   make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		origins:    newOriginPolicy(opts.AllowedOrigins),
		sendSize:   opts.SendBufferSize,
		log:        log.With("component", "hub"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.sessions[client.ID] = client
			count := len(h.sessions)
			h.mu.Unlock()
			h.log.Info("Session registered", "session", client.ID, "remote", client.addr, "sessions", count)

		case client := <-h.unregister:
			h.remove(client, "disconnected")

		case frame := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for _, client := range h.sessions {
				select {
				case client.send <- frame:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()
			for _, client := range slow {
				h.remove(client, "send buffer full")
			}
		}
	}
}

// remove is only called from Run.
func (h *Hub) remove(client *Client, reason string) {
	h.mu.Lock()
	if _, ok := h.sessions[client.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, client.ID)
	count := len(h.sessions)
	h.mu.Unlock()

	close(client.send)
	h.log.Info("Session removed", "session", client.ID, "reason", reason, "sessions", count)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.sessions))
	for id, client := range h.sessions {
		clients = append(clients, client)
		delete(h.sessions, id)
	}
	h.mu.Unlock()

	for _, client := range clients {
		close(client.send)
	}
	h.log.Info("Closed all sessions", "count", len(clients))
}

// Count returns the number of live sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// ServeWS upgrades the request and registers the new session.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := &Client{
		ID:   uuid.New(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.sendSize),
		addr: r.RemoteAddr,
	}

	h.wg.Add(2)
	select {
	case h.register <- client:
	case <-h.ctx.Done():
		h.wg.Add(-2)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

func (h *Hub) AnnounceChannel(channelName string) {
	h.emit(models.EventAnnounceChannel, models.ChannelAnnouncement{ChannelName: channelName})
}

func (h *Hub) AnnounceMessage(userName, userPicture, sentAt, channelName, content string) {
	h.emit(models.EventAnnounceMessage, models.MessageAnnouncement{
		User:           userName,
		UserPicture:    userPicture,
		Time:           sentAt,
		Channel:        channelName,
		MessageContent: content,
	})
}

// emit hands the frame to the Run loop. It returns once the loop took it, or
// right away when the hub is shut down.
func (h *Hub) emit(event string, data any) {
	frame, err := json.Marshal(models.Event{Name: event, Data: data})
	if err != nil {
		h.log.Error("Failed to encode event", "event", event, "error", err)
		return
	}
	select {
	case h.broadcast <- frame:
	case <-h.ctx.Done():
		h.log.Debug("Hub stopped, event dropped", "event", event)
	}
}

// Shutdown stops the Run loop, closes every session and waits for the
// session goroutines, at most timeout.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.cancel()
	<-h.done

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		h.log.Info("Hub stopped")
		return nil
	case <-time.After(timeout):
		h.log.Warn("Hub shutdown timed out, some sessions are still closing")
		return context.DeadlineExceeded
	}
}
