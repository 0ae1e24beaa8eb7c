package server

import (
	"log"
	"time"
)

// scheduleTurnTimer arms the per-room turn timer for the turn window
// identified by serial. Rearming replaces any previous timer for the room.
// The callback revalidates the serial inside the store transaction, so a
// stale fire after normal resolution is a harmless no-op; Stop is an
// optimization, not a guarantee. The serial, not the turn index, identifies
// the window: a match with extra-turn keeps the same index but opens a new
// window.
func (s *Server) scheduleTurnTimer(roomID string, turnSerial int, seconds int) {
	if seconds <= 0 {
		return
	}
	s.timersMu.Lock()
	if existing, ok := s.timers[roomID]; ok {
		existing.Stop()
	}
	s.timers[roomID] = time.AfterFunc(time.Duration(seconds)*time.Second, func() {
		s.turnTimerExpired(roomID, turnSerial)
	})
	s.timersMu.Unlock()
}

func (s *Server) cancelTurnTimer(roomID string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if timer, ok := s.timers[roomID]; ok {
		timer.Stop()
		delete(s.timers, roomID)
	}
}

// turnTimerExpired forces resolution of whatever turn is still open when the
// timer fires. A changed turn serial means play already moved on.
func (s *Server) turnTimerExpired(roomID string, turnSerial int) {
	var forced forcedResult
	var turnID string
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		game := activeGame(room)
		if game == nil || game.Status != gameActive {
			return nil
		}
		if game.TurnSerial != turnSerial {
			return nil
		}
		turn := openTurn(game)
		if turn == nil {
			turn = guessPendingTurn(game)
		}
		if turn == nil {
			return nil
		}
		turnID = turn.ID
		result, err := forceResolveTurn(room, game, turn)
		if err != nil {
			return err
		}
		forced = result
		return nil
	})
	if err != nil {
		log.Printf("turn timeout failed room_id=%s error=%v", roomID, err)
		return
	}
	if forced.Turn == nil {
		return
	}
	s.afterForcedResolution(room, forced, turnID, "timeout")
}

// TimeoutTurn force-resolves a specific turn. It is idempotent: calling it
// on a resolved turn, or after the game ended, has no effect.
func (s *Server) TimeoutTurn(roomID string, turnID string) error {
	var forced forcedResult
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		game := activeGame(room)
		if game == nil || game.Status != gameActive {
			return nil
		}
		turn, ok := findTurn(game, turnID)
		if !ok {
			return nil
		}
		if turn.Resolved && !turn.AwaitingAuthorGuess {
			return nil
		}
		result, err := forceResolveTurn(room, game, turn)
		if err != nil {
			return err
		}
		forced = result
		return nil
	})
	if err != nil {
		return err
	}
	if forced.Turn == nil {
		return nil
	}
	s.afterForcedResolution(room, forced, turnID, "timeout")
	return nil
}

// afterForcedResolution runs the fire-and-forget follow-ups of a forced
// resolution outside the store transaction: delayed flip-backs, the next
// turn timer, the audit event, and the broadcast.
func (s *Server) afterForcedResolution(room *Room, forced forcedResult, turnID string, reason string) {
	game := activeGame(room)
	if len(forced.FlipBack) > 0 {
		s.scheduleFlipBack(room.ID, forced.FlipBack)
	}
	if forced.Advanced && game != nil && game.Status == gameActive {
		s.scheduleTurnTimer(room.ID, game.TurnSerial, game.Settings.TurnSeconds)
	}
	if err := s.persistTurn(room, game, forced.Turn); err != nil {
		log.Printf("persist turn failed room_id=%s turn_id=%s error=%v", room.ID, turnID, err)
	}
	if err := s.persistCards(room, game); err != nil {
		log.Printf("persist cards failed room_id=%s error=%v", room.ID, err)
	}
	if err := s.persistGamePatch(room, game); err != nil {
		log.Printf("persist game failed room_id=%s error=%v", room.ID, err)
	}
	if err := s.persistEvent(room, "turn_timeout", EventPayload{
		TurnID:   turnID,
		MemberID: forced.Turn.PlayerID,
		CardIDs:  forced.Turn.Picks,
		Reason:   reason,
	}); err != nil {
		log.Printf("persist event failed room_id=%s error=%v", room.ID, err)
	}
	log.Printf("turn force-resolved room_id=%s turn_id=%s reason=%s", room.ID, turnID, reason)
	s.broadcastGameUpdate(room)
}

// scheduleFlipBack reverts mismatched cards after the reveal delay.
func (s *Server) scheduleFlipBack(roomID string, cardIDs []string) {
	delay := time.Duration(s.cfg.FlipBackDelayMs) * time.Millisecond
	time.AfterFunc(delay, func() {
		s.flipBackCards(roomID, cardIDs)
	})
}

// flipBackCards turns the given cards face down again. It only touches cards
// still face up, so racing with a later match or a second scheduling is safe.
func (s *Server) flipBackCards(roomID string, cardIDs []string) {
	reverted := false
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		game := activeGame(room)
		if game == nil {
			return nil
		}
		for _, cardID := range cardIDs {
			if card, ok := findCard(game, cardID); ok && card.State == cardFaceUp {
				card.State = cardFaceDown
				reverted = true
			}
		}
		return nil
	})
	if err != nil || !reverted {
		return
	}
	if err := s.persistCards(room, activeGame(room)); err != nil {
		log.Printf("persist cards failed room_id=%s error=%v", roomID, err)
	}
	s.broadcastGameUpdate(room)
}

// scheduleCollectionTimer auto-assembles the board when the collection
// window closes, provided the pool is ready. An unready pool leaves the
// room collecting; the host can still assemble manually later.
func (s *Server) scheduleCollectionTimer(roomID string, gameID int, seconds int) {
	if seconds <= 0 {
		return
	}
	time.AfterFunc(time.Duration(seconds)*time.Second, func() {
		assembled := false
		room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
			game := activeGame(room)
			if game == nil || game.ID != gameID || game.Status != gameCollecting {
				return nil
			}
			if !poolProgress(room, game.Settings.PairCount).ReadyForBoard {
				log.Printf("collection window closed with unready pool room_id=%s", roomID)
				return nil
			}
			if err := assembleBoard(room, game, s.rng); err != nil {
				return err
			}
			assembled = true
			return nil
		})
		if err != nil {
			log.Printf("collection auto-assemble failed room_id=%s error=%v", roomID, err)
			return
		}
		if !assembled {
			return
		}
		game := activeGame(room)
		if err := s.persistBoard(room, game); err != nil {
			log.Printf("persist board failed room_id=%s error=%v", roomID, err)
		}
		if err := s.persistEvent(room, "board_assembled", EventPayload{
			GameID: game.ID,
			Count:  len(game.Cards),
			Reason: "collect_timeout",
		}); err != nil {
			log.Printf("persist event failed room_id=%s error=%v", roomID, err)
		}
		log.Printf("board auto-assembled room_id=%s cards=%d", roomID, len(game.Cards))
		s.broadcastGameUpdate(room)
	})
}
