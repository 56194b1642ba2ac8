package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abrezinsky/cuevote/internal/logger"
	"github.com/abrezinsky/cuevote/internal/models"
	"github.com/abrezinsky/cuevote/internal/vote"
)

// Message types pushed to venue displays and voter devices
const (
	MsgActiveVotes  = "active_votes"
	MsgVoteResolved = "vote_resolved"
)

const (
	sendBuffer  = 256
	pongWait    = 60 * time.Second
	pingPeriod  = 54 * time.Second
	writeWait   = 10 * time.Second
	tickerEvery = time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Venue devices connect from the LAN by IP
	},
}

// VoteSource is the read side of the vote coordinator used by the hub
type VoteSource interface {
	ActiveVotes(venueID, sessionID, viewerID string) []models.ActiveVote
	Broker() *vote.Broker
}

// ActiveVotesPayload is the countdown message body
type ActiveVotesPayload struct {
	VenueID string              `json:"venue_id"`
	Votes   []models.ActiveVote `json:"votes"`
}

// Hub maintains the connected clients of each venue and pushes live vote
// state to them
type Hub struct {
	log        logger.Logger
	votes      VoteSource
	clients    map[string]map[*Client]bool
	subs       map[string]*vote.Subscription
	broadcast  chan venueMessage
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
}

type venueMessage struct {
	venueID string
	msg     models.WSMessage
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan models.WSMessage
	venueID   string
	sessionID string
	viewerID  string
}

// New creates a new Hub instance with injected dependencies
func New(log logger.Logger, votes VoteSource) *Hub {
	return &Hub{
		log:        log,
		votes:      votes,
		clients:    make(map[string]map[*Client]bool),
		subs:       make(map[string]*vote.Subscription),
		broadcast:  make(chan venueMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Start begins the hub's main loop in a goroutine
func (h *Hub) Start() {
	go h.run()
}

// run handles client registration/unregistration and message broadcasting
func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			venue := h.clients[client.venueID]
			if venue == nil {
				venue = make(map[*Client]bool)
				h.clients[client.venueID] = venue
				sub := h.votes.Broker().Subscribe(client.venueID)
				h.subs[client.venueID] = sub
				go h.forward(client.venueID, sub)
			}
			venue[client] = true
			total := len(venue)
			h.mutex.Unlock()
			h.log.Debug("Client connected", "venue_id", client.venueID, "venue_clients", total)

			// Send current votes to the new client
			client.trySend(h.activeVotesMessage(client))

		case client := <-h.unregister:
			h.mutex.Lock()
			if venue, ok := h.clients[client.venueID]; ok && venue[client] {
				delete(venue, client)
				close(client.send)
				if len(venue) == 0 {
					delete(h.clients, client.venueID)
					h.subs[client.venueID].Close()
					delete(h.subs, client.venueID)
				}
			}
			h.mutex.Unlock()
			h.log.Debug("Client disconnected", "venue_id", client.venueID)

		case vm := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients[vm.venueID] {
				if !client.trySend(vm.msg) {
					// Client's send channel is full, unregister
					go func(c *Client) {
						h.unregister <- c
					}(client)
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// forward relays a venue's resolution events until the subscription closes
func (h *Hub) forward(venueID string, sub *vote.Subscription) {
	for ev := range sub.C {
		h.BroadcastToVenue(venueID, MsgVoteResolved, ev)
	}
}

// BroadcastToVenue sends a message to every client of a venue
func (h *Hub) BroadcastToVenue(venueID, msgType string, payload interface{}) {
	h.broadcast <- venueMessage{
		venueID: venueID,
		msg:     models.WSMessage{Type: msgType, Payload: payload},
	}
}

// ClientCount returns the number of clients connected to a venue
func (h *Hub) ClientCount(venueID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients[venueID])
}

func (h *Hub) activeVotesMessage(c *Client) models.WSMessage {
	return models.WSMessage{
		Type: MsgActiveVotes,
		Payload: ActiveVotesPayload{
			VenueID: c.venueID,
			Votes:   h.votes.ActiveVotes(c.venueID, c.sessionID, c.viewerID),
		},
	}
}

// trySend queues a message without blocking and reports whether it fit
func (c *Client) trySend(msg models.WSMessage) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("WebSocket error", "error", err)
			}
			break
		}

		// Clients are receive-only; anything they send is logged and dropped
		var msg models.WSMessage
		if err := json.Unmarshal(message, &msg); err == nil {
			c.hub.log.Debug("Received message", "type", msg.Type, "venue_id", c.venueID)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
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
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			msgBytes, _ := json.Marshal(message)
			w.Write(msgBytes)

			if err := w.Close(); err != nil {
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

// ServeVenue upgrades a request to a websocket subscribed to one venue.
// The optional session_id and viewer_id query parameters personalize the
// active-votes countdown.
func (h *Hub) ServeVenue(w http.ResponseWriter, r *http.Request, venueID string) {
	if venueID == "" {
		http.Error(w, "venue id is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade error", "error", err)
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan models.WSMessage, sendBuffer),
		venueID:   venueID,
		sessionID: r.URL.Query().Get("session_id"),
		viewerID:  r.URL.Query().Get("viewer_id"),
	}
	h.register <- client

	// Allow collection of memory referenced by the caller by doing all work in new goroutines
	go client.writePump()
	go client.readPump()
}

// StartCountdown pushes every client's active votes once a second until ctx is cancelled
func (h *Hub) StartCountdown(ctx context.Context) {
	ticker := time.NewTicker(tickerEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info("Vote countdown stopped")
			return
		case <-ticker.C:
			h.pushCountdown()
		}
	}
}

// pushCountdown sends each client its personalized active-votes view.
// Venues without open votes are skipped.
func (h *Hub) pushCountdown() {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for venueID, venue := range h.clients {
		if len(h.votes.ActiveVotes(venueID, "", "")) == 0 {
			continue
		}
		for client := range venue {
			client.trySend(h.activeVotesMessage(client))
		}
	}
}
