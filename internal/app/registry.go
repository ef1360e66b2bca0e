package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Pointing/internal/core"
	"github.com/dkeye/Pointing/internal/domain"
)

type sessionEntry struct {
	RoomID   domain.RoomID
	Username string
	Conn     core.SignalConnection
	Cancel   context.CancelFunc
}

// Registry tracks live connections and the (room, username) identity
// each one is bound to after its join.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[core.SessionID]*sessionEntry)}
}

func (r *Registry) Bind(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{Conn: conn, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound session")
}

// SetIdentity records which room member a connection speaks for.
func (r *Registry) SetIdentity(sid core.SessionID, roomID domain.RoomID, username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	e.RoomID = roomID
	e.Username = username
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).
		Str("room", string(roomID)).Str("user", username).Msg("bound identity")
	return true
}

func (r *Registry) Identity(sid core.SessionID) (domain.RoomID, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.Username == "" {
		return "", "", false
	}
	return e.RoomID, e.Username, true
}

func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

// SIDOf finds the connection currently speaking for a room member.
func (r *Registry) SIDOf(roomID domain.RoomID, username string) (core.SessionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for sid, e := range r.sessions {
		if e.RoomID == roomID && e.Username == username {
			return sid, true
		}
	}
	return "", false
}

// Cancel force-terminates a session: the context cancel stops the
// pumps and closing the transport unblocks any pending read. The
// binding is removed before the transport is touched, so the dying
// session's disconnect reconciliation finds no identity and cannot
// delete a member that rebound in the meantime.
func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.Lock()
	e, ok := r.sessions[sid]
	if ok {
		delete(r.sessions, sid)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	if e.Conn != nil {
		e.Conn.Close()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}
