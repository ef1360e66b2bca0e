package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Pointing/internal/core"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, sid core.SessionID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		c.Close()
		ctl.limiter.Forget(sid)
		if room := ctl.Gateway.Disconnect(sid); room != nil {
			ctl.broadcastRoster(room)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				return
			}
			ctl.handleSignal(sid, c, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(sid core.SessionID, c *WsSignalConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.reject(c, "bad_payload")
		return
	}

	if !ctl.limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("type", env.Type).Msg("rate limited")
		return
	}

	switch env.Type {
	case "join-room":
		ctl.handleJoin(sid, c, data)
	case "cast-vote":
		ctl.handleCastVote(c, data)
	case "request-votes":
		ctl.handleRequestVotes(sid, c, data)
	case "reset-room":
		ctl.handleResetRoom(sid, c, data)
	case "next-round":
		ctl.handleNextRound(sid, c, data)
	case "remove-user":
		ctl.handleRemoveUser(sid, c, data)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

// broadcastJSON fans an event to the whole room; members that cannot
// keep up are handed to the backpressure policy. When the policy
// removed someone, the remaining members get a fresh roster. The
// recursion bottoms out because every round shrinks the roster.
func (ctl *SignalWSController) broadcastJSON(room core.RoomService, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("broadcastJSON marshal")
		return
	}
	res := room.Broadcast(b)
	if len(res.Dropped) > 0 && ctl.Gateway.DropSlow(room, res.Dropped) {
		ctl.broadcastRoster(room)
	}
}

func (ctl *SignalWSController) broadcastRoster(room core.RoomService) {
	ctl.broadcastJSON(room, userListEvent{Type: "user-list", Users: room.Roster()})
}

// broadcastVotes sends the current vote map. Before a reveal, masking
// (when enabled) hides values and keeps only who has voted.
func (ctl *SignalWSController) broadcastVotes(room core.RoomService, revealed bool) {
	votes := room.Votes()
	if ctl.Opts.MaskVotes && !revealed {
		votes = room.MaskedVotes()
	}
	ctl.broadcastJSON(room, voteUpdateEvent{Type: "vote-update", Votes: votes})
}

func (ctl *SignalWSController) broadcastStatus(room core.RoomService) {
	ctl.broadcastJSON(room, votingStatusEvent{Type: "voting-status", AllHaveVoted: room.AllHaveVoted()})
}

func (ctl *SignalWSController) broadcastHistory(room core.RoomService) {
	ctl.broadcastJSON(room, voteHistoryEvent{Type: "vote-history", History: room.History()})
}

func (ctl *SignalWSController) reject(c *WsSignalConn, reason string) {
	ctl.sendJSON(c, actionRejectedEvent{Type: "action-rejected", Reason: reason})
}
