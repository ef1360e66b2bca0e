package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Pointing/internal/domain"
)

func (ctl *SignalWSController) handleCastVote(
	conn *WsSignalConn,
	data []byte,
) {
	var p castVoteEvent
	if err := decode(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad vote payload")
		ctl.reject(conn, rejectReason(err))
		return
	}

	room, err := ctl.Gateway.CastVote(domain.RoomID(p.RoomID), p.Username, domain.VoteValue(p.Vote))
	if err != nil {
		ctl.reject(conn, rejectReason(err))
		return
	}

	log.Info().Str("module", "signal").Str("room", p.RoomID).Str("user", p.Username).Msg("vote cast")
	ctl.broadcastVotes(room, false)
	ctl.broadcastStatus(room)
}
