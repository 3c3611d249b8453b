package core

import "sort"

// Presence maps connections to user names. Only the hub goroutine uses it.
type Presence struct {
	byClient map[*Client]string
	byUser   map[string]*Client
}

// NewPresence returns an empty registry.
func NewPresence() *Presence {
	return &Presence{
		byClient: make(map[*Client]string),
		byUser:   make(map[string]*Client),
	}
}

// Bind associates user with c and returns the client previously holding the
// name, if any. The evicted client is unbound.
func (p *Presence) Bind(c *Client, user string) *Client {
	p.Remove(c)
	old := p.byUser[user]
	if old == c {
		old = nil
	}
	if old != nil {
		delete(p.byClient, old)
	}
	p.byClient[c] = user
	p.byUser[user] = c
	return old
}

// Remove unbinds c and returns the name it held.
func (p *Presence) Remove(c *Client) string {
	user, ok := p.byClient[c]
	if !ok {
		return ""
	}
	delete(p.byClient, c)
	if p.byUser[user] == c {
		delete(p.byUser, user)
	}
	return user
}

// User returns the name bound to c.
func (p *Presence) User(c *Client) string {
	return p.byClient[c]
}

// Users returns the online names, sorted.
func (p *Presence) Users() []string {
	users := make([]string, 0, len(p.byUser))
	for u := range p.byUser {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}
