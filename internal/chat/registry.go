package chat

import (
	"strings"
	"sync"
)

// Connection es el contrato mínimo que el registro y el relay necesitan de
// una sesión viva. *Conn lo implementa; los tests usan dobles.
type Connection interface {
	UserID() string
	Push(payload []byte) error
	Close()
	Closed() bool
}

// Registry mantiene el mapa proceso-global de usuario -> conexiones vivas.
// Es el único escritor del mapa; toda mutación pasa por Register/Unregister.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]map[Connection]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]map[Connection]struct{}),
	}
}

// Register agrega la conexión al conjunto del usuario. Un handle cerrado
// nunca se vuelve a registrar: una reconexión produce un handle nuevo.
func (g *Registry) Register(userID string, c Connection) error {
	if c == nil || strings.TrimSpace(userID) == "" {
		return ErrChatUnauthorized
	}
	if c.Closed() {
		return ErrConnClosed
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	set, ok := g.conns[userID]
	if !ok {
		set = make(map[Connection]struct{})
		g.conns[userID] = set
	}
	set[c] = struct{}{}
	return nil
}

// Unregister es idempotente: quitar un par ausente es un no-op.
func (g *Registry) Unregister(userID string, c Connection) {
	g.mu.Lock()
	defer g.mu.Unlock()

	set, ok := g.conns[userID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(g.conns, userID)
	}
}

// ConnectionsFor devuelve una copia instantánea del conjunto del usuario.
// Un slice vacío significa usuario sin sesiones activas, no es un error.
func (g *Registry) ConnectionsFor(userID string) []Connection {
	g.mu.RLock()
	defer g.mu.RUnlock()

	set := g.conns[userID]
	out := make([]Connection, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}
