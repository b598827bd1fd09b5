package websocket

import (
	"strings"
	"sync"
)

// PresenceRegistry tracks which conversation each connection is
// currently viewing. The state is per connection, not per user: a
// user reading a chat on their phone while idle on their laptop is
// still viewing it.
type PresenceRegistry struct {
	mu sync.RWMutex

	// active maps a connection to the lowercased email of the
	// counterpart whose chat it has open.
	active map[*Client]string
}

// NewPresenceRegistry creates an empty registry
func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		active: make(map[*Client]string),
	}
}

// SetActive records that the connection is viewing the chat with the
// given counterpart email.
func (p *PresenceRegistry) SetActive(client *Client, peerEmail string) {
	peerEmail = strings.ToLower(strings.TrimSpace(peerEmail))
	if peerEmail == "" {
		p.ClearActive(client)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.active[client] = peerEmail
}

// ClearActive records that the connection is no longer viewing any
// chat. Called on explicit chat-closed and on disconnect.
func (p *PresenceRegistry) ClearActive(client *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.active, client)
}

// IsViewing reports whether ANY live connection of the user has the
// chat with peerEmail open.
func (p *PresenceRegistry) IsViewing(hub *Hub, userID, peerEmail string) bool {
	peerEmail = strings.ToLower(strings.TrimSpace(peerEmail))
	if peerEmail == "" {
		return false
	}

	clients := hub.MembersOf(userID)
	if len(clients) == 0 {
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, c := range clients {
		if p.active[c] == peerEmail {
			return true
		}
	}
	return false
}

// ActiveChat returns the counterpart email the connection is viewing,
// or empty.
func (p *PresenceRegistry) ActiveChat(client *Client) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active[client]
}
