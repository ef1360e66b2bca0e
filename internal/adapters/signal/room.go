package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Pointing/internal/core"
	"github.com/dkeye/Pointing/internal/domain"
)

func (ctl *SignalWSController) handleJoin(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	var p joinRoomEvent
	if err := decode(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.reject(conn, rejectReason(err))
		return
	}
	roomID, err := domain.NewRoomID(p.RoomID)
	if err != nil {
		ctl.reject(conn, rejectReason(err))
		return
	}
	role := p.Role
	if role == "" {
		role = domain.RoleDeveloper
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).
		Str("room", p.RoomID).Str("user", p.Username).Str("role", string(role)).Msg("join")

	room, left, err := ctl.Gateway.Join(sid, roomID, p.Username, role, conn)
	if err != nil {
		ctl.reject(conn, rejectReason(err))
		return
	}
	if left != nil {
		ctl.broadcastRoster(left)
	}
	ctl.broadcastRoster(room)
}

// handleRequestVotes is the reveal: no mutation, unmasked vote map to
// the whole room.
func (ctl *SignalWSController) handleRequestVotes(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	var p roomOnlyEvent
	if err := decode(data, &p); err != nil {
		ctl.reject(conn, rejectReason(err))
		return
	}
	room, err := ctl.Gateway.Reveal(sid, domain.RoomID(p.RoomID))
	if err != nil {
		ctl.reject(conn, rejectReason(err))
		return
	}
	ctl.broadcastVotes(room, true)
}

func (ctl *SignalWSController) handleResetRoom(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	var p roomOnlyEvent
	if err := decode(data, &p); err != nil {
		ctl.reject(conn, rejectReason(err))
		return
	}
	room, err := ctl.Gateway.Reset(sid, domain.RoomID(p.RoomID))
	if err != nil {
		ctl.reject(conn, rejectReason(err))
		return
	}
	ctl.broadcastVotes(room, false)
}

func (ctl *SignalWSController) handleNextRound(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	var p roomOnlyEvent
	if err := decode(data, &p); err != nil {
		ctl.reject(conn, rejectReason(err))
		return
	}
	room, _, err := ctl.Gateway.NextRound(sid, domain.RoomID(p.RoomID))
	if err != nil {
		ctl.reject(conn, rejectReason(err))
		return
	}
	ctl.broadcastVotes(room, false)
	ctl.broadcastHistory(room)
}

func (ctl *SignalWSController) handleRemoveUser(
	sid core.SessionID,
	conn *WsSignalConn,
	data []byte,
) {
	var p removeUserEvent
	if err := decode(data, &p); err != nil {
		ctl.reject(conn, rejectReason(err))
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).
		Str("room", p.RoomID).Str("target", p.TargetUsername).Msg("remove user")
	room, err := ctl.Gateway.RemoveUser(sid, domain.RoomID(p.RoomID), p.TargetUsername)
	if err != nil {
		ctl.reject(conn, rejectReason(err))
		return
	}
	ctl.broadcastRoster(room)
}
