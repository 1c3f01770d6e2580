package subscriptions

import (
	"sync"
)

// group is the set of connections observing one auction. Each group carries
// its own lock so membership changes on different auctions never contend.
type group struct {
	mu    sync.Mutex
	conns map[string]struct{}
}

// Registry tracks which connections observe which auctions. It keeps a
// forward index (auction -> connections) for fan-out and an inverse index
// (connection -> auctions) so disconnect cleanup costs only the
// subscriptions of that connection. Pure in-memory bookkeeping; nothing here
// touches persisted state.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]*group

	invMu  sync.Mutex
	byConn map[string]map[string]struct{}
}

// NewRegistry creates an empty subscription registry
func NewRegistry() *Registry {
	return &Registry{
		groups: make(map[string]*group),
		byConn: make(map[string]map[string]struct{}),
	}
}

// Join subscribes a connection to an auction. Idempotent: joining twice has
// the same effect as once.
func (r *Registry) Join(auctionID, connID string) {
	r.mu.Lock()
	g, ok := r.groups[auctionID]
	if !ok {
		g = &group{conns: make(map[string]struct{})}
		r.groups[auctionID] = g
	}
	r.mu.Unlock()

	g.mu.Lock()
	g.conns[connID] = struct{}{}
	g.mu.Unlock()

	r.invMu.Lock()
	auctions, ok := r.byConn[connID]
	if !ok {
		auctions = make(map[string]struct{})
		r.byConn[connID] = auctions
	}
	auctions[auctionID] = struct{}{}
	r.invMu.Unlock()
}

// Leave unsubscribes a connection from an auction. No-op if not a member.
func (r *Registry) Leave(auctionID, connID string) {
	r.removeFromGroup(auctionID, connID)

	r.invMu.Lock()
	if auctions, ok := r.byConn[connID]; ok {
		delete(auctions, auctionID)
		if len(auctions) == 0 {
			delete(r.byConn, connID)
		}
	}
	r.invMu.Unlock()
}

// DropConnection removes a connection from every auction it was observing
// and returns the auctions it left. Must be invoked exactly once per
// physical disconnect.
func (r *Registry) DropConnection(connID string) []string {
	r.invMu.Lock()
	auctions := r.byConn[connID]
	delete(r.byConn, connID)
	r.invMu.Unlock()

	left := make([]string, 0, len(auctions))
	for auctionID := range auctions {
		r.removeFromGroup(auctionID, connID)
		left = append(left, auctionID)
	}
	return left
}

// Subscribers returns the connections currently observing an auction
func (r *Registry) Subscribers(auctionID string) []string {
	r.mu.RLock()
	g, ok := r.groups[auctionID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	g.mu.Lock()
	conns := make([]string, 0, len(g.conns))
	for connID := range g.conns {
		conns = append(conns, connID)
	}
	g.mu.Unlock()
	return conns
}

// IsMember reports whether a connection is subscribed to an auction
func (r *Registry) IsMember(auctionID, connID string) bool {
	r.mu.RLock()
	g, ok := r.groups[auctionID]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	g.mu.Lock()
	_, member := g.conns[connID]
	g.mu.Unlock()
	return member
}

func (r *Registry) removeFromGroup(auctionID, connID string) {
	r.mu.RLock()
	g, ok := r.groups[auctionID]
	r.mu.RUnlock()
	if !ok {
		return
	}

	g.mu.Lock()
	delete(g.conns, connID)
	empty := len(g.conns) == 0
	g.mu.Unlock()

	// drop the group once its last listener is gone
	if empty {
		r.mu.Lock()
		if g2, ok := r.groups[auctionID]; ok {
			g2.mu.Lock()
			if len(g2.conns) == 0 {
				delete(r.groups, auctionID)
			}
			g2.mu.Unlock()
		}
		r.mu.Unlock()
	}
}
