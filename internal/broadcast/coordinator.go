package broadcast

import (
	"fmt"
	"sync"

	model "auction-house/internal/models"
	"auction-house/internal/subscriptions"
	"auction-house/utils"
)

// Sender delivers snapshots to a single connection. Implementations must not
// block: a slow consumer returns an error instead of stalling the caller.
// Close tears the underlying connection down so the peer observes the drop.
type Sender interface {
	SendSnapshot(snap model.Snapshot) error
	Close()
}

// stream holds the per-auction broadcast state. Its lock serializes fan-outs
// for one auction so two concurrently committed snapshots cannot reach
// observers in reverse order, and lastVersion lets an overtaken snapshot be
// discarded instead of delivered stale.
type stream struct {
	mu          sync.Mutex
	lastVersion uint64
}

// Coordinator fans accepted state changes out to every connection observing
// the affected auction. Delivery is best-effort per connection: a failed send
// drops and closes that connection without disturbing the others or the
// operation that triggered the broadcast.
type Coordinator struct {
	registry *subscriptions.Registry

	mu      sync.RWMutex
	senders map[string]Sender // connID -> sender

	streamMu sync.Mutex
	streams  map[string]*stream // auctionID -> broadcast state
}

// NewCoordinator creates a Coordinator backed by the given registry
func NewCoordinator(registry *subscriptions.Registry) *Coordinator {
	return &Coordinator{
		registry: registry,
		senders:  make(map[string]Sender),
		streams:  make(map[string]*stream),
	}
}

// Register associates a connection with its sender
func (c *Coordinator) Register(connID string, sender Sender) {
	c.mu.Lock()
	c.senders[connID] = sender
	c.mu.Unlock()
}

// Unregister forgets a connection and clears all its subscriptions
func (c *Coordinator) Unregister(connID string) {
	c.mu.Lock()
	delete(c.senders, connID)
	c.mu.Unlock()
	c.registry.DropConnection(connID)
}

func (c *Coordinator) stream(auctionID string) *stream {
	c.streamMu.Lock()
	defer c.streamMu.Unlock()
	st, ok := c.streams[auctionID]
	if !ok {
		st = &stream{}
		c.streams[auctionID] = st
	}
	return st
}

// Publish sends a snapshot to every current subscriber of the auction.
// Fan-outs for the same auction serialize on the stream lock, and a snapshot
// whose version has already been overtaken is dropped, so observers never see
// the price move backwards. Send errors are logged and the dead connection is
// closed and dropped; they never propagate to the caller, whose state change
// has already committed.
func (c *Coordinator) Publish(snap model.Snapshot) {
	st := c.stream(snap.AuctionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if snap.Version != 0 {
		if snap.Version <= st.lastVersion {
			return
		}
		st.lastVersion = snap.Version
	}

	connIDs := c.registry.Subscribers(snap.AuctionID)
	if len(connIDs) == 0 {
		return
	}

	type deadConn struct {
		connID string
		sender Sender
	}
	var dead []deadConn
	c.mu.RLock()
	for _, connID := range connIDs {
		sender, ok := c.senders[connID]
		if !ok {
			dead = append(dead, deadConn{connID: connID})
			continue
		}
		if err := sender.SendSnapshot(snap); err != nil {
			utils.Warn("broadcast: dropping connection after failed send", map[string]any{
				"auction_id": snap.AuctionID,
				"conn_id":    connID,
				"error":      err.Error(),
			})
			dead = append(dead, deadConn{connID: connID, sender: sender})
		}
	}
	c.mu.RUnlock()

	for _, d := range dead {
		if d.sender != nil {
			d.sender.Close()
		}
		c.Unregister(d.connID)
	}
}

// SendInitial delivers the join-time snapshot to one connection. A snapshot
// already overtaken by a broadcast the subscriber received is skipped.
func (c *Coordinator) SendInitial(connID string, snap model.Snapshot) error {
	st := c.stream(snap.AuctionID)
	st.mu.Lock()
	stale := snap.Version != 0 && snap.Version < st.lastVersion
	st.mu.Unlock()
	if stale {
		return nil
	}

	c.mu.RLock()
	sender, ok := c.senders[connID]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("broadcast: unknown connection %s", connID)
	}
	return sender.SendSnapshot(snap)
}
