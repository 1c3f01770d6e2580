package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"auction-house/internal/broadcast"
	"auction-house/internal/config"
	model "auction-house/internal/models"
	"auction-house/internal/subscriptions"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const maxMessageSize = 1024

// Envelope is the wire frame exchanged over the realtime channel.
// Inbound types: "subscribe", "unsubscribe". Outbound: "auctionUpdate", "error".
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outEnvelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type subscribePayload struct {
	AuctionID string `json:"auction_id"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// SnapshotSource provides the auction state sent to a freshly joined observer
type SnapshotSource interface {
	GetAuction(ctx context.Context, auctionID string) (model.Auction, []model.Bid, error)
}

// WSHandler upgrades connections and runs the subscribe/unsubscribe protocol
type WSHandler struct {
	source      SnapshotSource
	registry    *subscriptions.Registry
	coordinator *broadcast.Coordinator
	cfg         config.App
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a websocket handler wired to the registry and coordinator
func NewWSHandler(source SnapshotSource, registry *subscriptions.Registry, coordinator *broadcast.Coordinator, cfg config.App) *WSHandler {
	return &WSHandler{
		source:      source,
		registry:    registry,
		coordinator: coordinator,
		cfg:         cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// wsClient is one live connection. Writes go through the send channel so the
// broadcast path never blocks on a slow socket.
type wsClient struct {
	connID string
	conn   *websocket.Conn
	send   chan outEnvelope
	done   chan struct{}
	once   sync.Once
}

// SendSnapshot implements broadcast.Sender. It never blocks: a full send
// buffer or a closed connection is reported as an error so the coordinator
// can drop this connection.
func (c *wsClient) SendSnapshot(snap model.Snapshot) error {
	env := outEnvelope{Type: "auctionUpdate", Payload: snap}
	select {
	case <-c.done:
		return errors.New("connection closed")
	case c.send <- env:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

// sendError delivers an error frame; drops it silently if the buffer is full
func (c *wsClient) sendError(message string) {
	select {
	case <-c.done:
	case c.send <- outEnvelope{Type: "error", Payload: errorPayload{Message: message}}:
	default:
	}
}

// Close implements broadcast.Sender. The coordinator calls it when it drops
// this connection, so the peer observes the disconnect instead of idling on
// a socket that will receive no further updates.
func (c *wsClient) Close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Handle runs a websocket session: register with the coordinator, start the
// write pump, then serve inbound frames until the connection drops. Registry
// cleanup happens exactly once, whatever the cause of the close.
func (h *WSHandler) Handle(c *gin.Context) {
	callerID := CallerID(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.Warn("websocket upgrade failed", map[string]any{"error": err.Error()})
		return
	}

	client := &wsClient{
		connID: utils.GenerateID(),
		conn:   conn,
		send:   make(chan outEnvelope, h.cfg.SendBuffer),
		done:   make(chan struct{}),
	}

	h.coordinator.Register(client.connID, client)
	utils.Info("websocket connected", map[string]any{"conn_id": client.connID, "caller_id": callerID})

	go h.writePump(client)
	h.readPump(client)

	client.Close()
	h.coordinator.Unregister(client.connID)
	utils.Info("websocket disconnected", map[string]any{"conn_id": client.connID, "caller_id": callerID})
}

// readPump consumes inbound frames. Returning from here tears the session down.
func (h *WSHandler) readPump(client *wsClient) {
	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
		return nil
	})

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.Warn("websocket read error", map[string]any{"conn_id": client.connID, "error": err.Error()})
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			client.sendError("malformed message")
			continue
		}

		switch env.Type {
		case "subscribe":
			h.handleSubscribe(client, env.Payload)
		case "unsubscribe":
			h.handleUnsubscribe(client, env.Payload)
		default:
			client.sendError(fmt.Sprintf("unknown message type %q", env.Type))
		}
	}
}

// handleSubscribe joins the auction and sends the initial snapshot. The join
// happens before the state is read, so a bid committed while the snapshot is
// being fetched is still broadcast to this connection; the join is rolled
// back when the auction turns out not to exist. Joining an auction the
// connection already observes is a registry no-op, but the snapshot is
// resent.
func (h *WSHandler) handleSubscribe(client *wsClient, payload json.RawMessage) {
	var sub subscribePayload
	if err := json.Unmarshal(payload, &sub); err != nil || sub.AuctionID == "" {
		client.sendError("subscribe requires an auction_id")
		return
	}

	h.registry.Join(sub.AuctionID, client.connID)

	auction, bids, err := h.source.GetAuction(context.Background(), sub.AuctionID)
	if err != nil {
		h.registry.Leave(sub.AuctionID, client.connID)
		client.sendError(fmt.Sprintf("cannot subscribe to auction %s", sub.AuctionID))
		utils.Warn("subscribe rejected", map[string]any{
			"conn_id":    client.connID,
			"auction_id": sub.AuctionID,
			"error":      err.Error(),
		})
		return
	}

	var highest *model.Bid
	if len(bids) > 0 {
		highest = &bids[0]
	}
	if err := h.coordinator.SendInitial(client.connID, model.SnapshotOf(auction, highest)); err != nil {
		utils.Warn("initial snapshot send failed", map[string]any{
			"conn_id":    client.connID,
			"auction_id": sub.AuctionID,
			"error":      err.Error(),
		})
	}
}

func (h *WSHandler) handleUnsubscribe(client *wsClient, payload json.RawMessage) {
	var sub subscribePayload
	if err := json.Unmarshal(payload, &sub); err != nil || sub.AuctionID == "" {
		client.sendError("unsubscribe requires an auction_id")
		return
	}
	h.registry.Leave(sub.AuctionID, client.connID)
}

// writePump serializes all writes to the socket and keeps the connection
// alive with pings
func (h *WSHandler) writePump(client *wsClient) {
	pingPeriod := h.cfg.PongWait * 9 / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Close()
	}()

	for {
		select {
		case <-client.done:
			return
		case env := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := client.conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
