package gdb

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// Pool is a concurrency-safe registry of named clients, for tools that
// hold connections to several stubs at once.
type Pool struct {
	clients *xsync.MapOf[string, *Client]
}

// NewPool creates an empty Pool.
func NewPool() *Pool {
	return &Pool{clients: xsync.NewMapOf[string, *Client]()}
}

// Add registers client under name. A different client previously
// registered under the same name is closed and replaced.
func (p *Pool) Add(name string, client *Client) {
	if prev, ok := p.clients.LoadAndStore(name, client); ok && prev != client {
		_ = prev.Close()
	}
}

// Get returns the client registered under name.
func (p *Pool) Get(name string) (*Client, bool) {
	return p.clients.Load(name)
}

// Remove unregisters the client under name and closes it. Removing an
// unknown name is a no-op.
func (p *Pool) Remove(name string) {
	if client, ok := p.clients.LoadAndDelete(name); ok {
		_ = client.Close()
	}
}

// Size returns the number of registered clients.
func (p *Pool) Size() int {
	return p.clients.Size()
}

// Range calls f for each registered client until f returns false.
func (p *Pool) Range(f func(name string, client *Client) bool) {
	p.clients.Range(f)
}

// CloseAll closes every registered client and empties the pool.
func (p *Pool) CloseAll() {
	p.clients.Range(func(_ string, client *Client) bool {
		_ = client.Close()

		return true
	})

	p.clients.Clear()
}
