package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Pointing/internal/core"
	"github.com/dkeye/Pointing/internal/domain"
)

// RoomRegistry owns the roomId -> session mapping. Rooms are created
// lazily on first reference and live until swept or process exit.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]core.RoomService
	opts  core.RoomOptions
}

func NewRoomRegistry(opts core.RoomOptions) *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[domain.RoomID]core.RoomService),
		opts:  opts,
	}
}

func (f *RoomRegistry) GetOrCreate(id domain.RoomID) core.RoomService {
	f.mu.RLock()
	room, ok := f.rooms[id]
	f.mu.RUnlock()
	if ok {
		return room
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok = f.rooms[id]; ok {
		return room
	}
	room = core.NewRoomService(id, f.opts)
	f.rooms[id] = room
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room created")
	return room
}

// Get never creates; operations that must not conjure a room use it.
func (f *RoomRegistry) Get(id domain.RoomID) (core.RoomService, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[id]
	return room, ok
}

func (f *RoomRegistry) List() []core.RoomInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(f.rooms))
	for id, r := range f.rooms {
		out = append(out, core.RoomInfo{ID: id, MemberCount: r.MemberCount(), Rounds: len(r.History())})
	}
	return out
}

func (f *RoomRegistry) StopRoom(id domain.RoomID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms, id)
}

// Sweep drops rooms that have been empty longer than ttl.
func (f *RoomRegistry) Sweep(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	f.mu.Lock()
	defer f.mu.Unlock()
	removed := 0
	for id, r := range f.rooms {
		if since, ok := r.EmptySince(); ok && since.Before(cutoff) {
			delete(f.rooms, id)
			removed++
		}
	}
	if removed > 0 {
		log.Info().Str("module", "app.rooms").Int("removed", removed).Msg("swept empty rooms")
	}
	return removed
}

// Run sweeps periodically until ctx is done. A non-positive ttl
// disables eviction and keeps the original process-lifetime behavior.
func (f *RoomRegistry) Run(ctx context.Context, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.Sweep(ttl)
		}
	}
}
