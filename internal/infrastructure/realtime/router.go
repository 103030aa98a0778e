package realtime

import (
	"sync"
)

// DefaultMaxPerTenant bounds concurrent dashboard sockets per tenant.
const DefaultMaxPerTenant = 8

// Router fans tenant notifications out to every open connection of that
// tenant. When a tenant exceeds its connection cap the oldest socket is
// closed.
type Router struct {
	mu           sync.RWMutex
	maxPerTenant int
	sessions     map[string]*Connection   // connection id -> connection
	tenants      map[string][]*Connection // tenant id -> connections, oldest first
}

func NewRouter(maxPerTenant int) *Router {
	if maxPerTenant <= 0 {
		maxPerTenant = DefaultMaxPerTenant
	}
	return &Router{
		maxPerTenant: maxPerTenant,
		sessions:     make(map[string]*Connection),
		tenants:      make(map[string][]*Connection),
	}
}

// Attach starts conn and subscribes it to its tenant.
func (r *Router) Attach(conn *Connection) {
	var evicted *Connection

	r.mu.Lock()
	list := r.tenants[conn.TenantID]
	if len(list) >= r.maxPerTenant {
		evicted = list[0]
		r.detachLocked(evicted.ID)
		list = r.tenants[conn.TenantID]
	}
	r.sessions[conn.ID] = conn
	r.tenants[conn.TenantID] = append(list, conn)
	r.mu.Unlock()

	conn.Start()

	if evicted != nil {
		evicted.Close(4001, "session replaced")
	}
}

func (r *Router) Detach(conn *Connection) {
	r.mu.Lock()
	r.detachLocked(conn.ID)
	r.mu.Unlock()
}

// NotifyTenant delivers payload to every connection of tenantID and returns
// how many accepted it.
func (r *Router) NotifyTenant(tenantID string, payload []byte) int {
	r.mu.RLock()
	conns := append([]*Connection(nil), r.tenants[tenantID]...)
	r.mu.RUnlock()

	delivered := 0
	for _, conn := range conns {
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// Connections reports the number of open connections of tenantID.
func (r *Router) Connections(tenantID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tenants[tenantID])
}

// Close terminates every connection.
func (r *Router) Close() {
	r.mu.Lock()
	all := make([]*Connection, 0, len(r.sessions))
	for _, conn := range r.sessions {
		all = append(all, conn)
	}
	r.sessions = make(map[string]*Connection)
	r.tenants = make(map[string][]*Connection)
	r.mu.Unlock()

	for _, conn := range all {
		conn.Close(1001, "server shutdown")
	}
}

func (r *Router) detachLocked(id string) {
	conn, ok := r.sessions[id]
	if !ok {
		return
	}
	delete(r.sessions, id)

	list := r.tenants[conn.TenantID]
	for i, c := range list {
		if c.ID == id {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(r.tenants, conn.TenantID)
		return
	}
	r.tenants[conn.TenantID] = list
}
