package server

import (
	"errors"
	"log"
)

// StartCollection is the host operation moving a lobby room into content
// collection. Curated mode seeds the pool immediately; player mode waits on
// submissions.
func (s *Server) StartCollection(roomID string, memberID int, mode string, settings GameSettings) (*Room, *GameState, error) {
	var seedIDs []int
	if mode == modeCurated {
		seedIDs = s.store.ReserveQuestionIDs(settings.PairCount)
	}
	var game *GameState
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		if room.HostID != memberID {
			return errNotHost
		}
		if room.Status != roomLobby {
			return errors.New("collection can only start from the lobby")
		}
		game = newGame(room, settings)
		room.Status = roomCollecting
		if mode == modeCurated {
			seedCuratedQuestions(room, seedIDs, s.rng)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if err := s.persistGame(room, game); err != nil {
		log.Printf("persist game failed room_id=%s error=%v", room.ID, err)
	}
	if err := s.persistQuestions(room); err != nil {
		log.Printf("persist questions failed room_id=%s error=%v", room.ID, err)
	}
	if err := s.persistEvent(room, "collection_started", EventPayload{
		GameID:   game.ID,
		MemberID: memberID,
		Mode:     mode,
	}); err != nil {
		log.Printf("persist event failed room_id=%s error=%v", room.ID, err)
	}
	s.scheduleCollectionTimer(room.ID, game.ID, settings.CollectSeconds)
	log.Printf("collection started room_id=%s game_id=%d mode=%s", room.ID, game.ID, mode)
	s.broadcastGameUpdate(room)
	return room, game, nil
}

// AssembleBoard builds the board for the active collecting game.
func (s *Server) AssembleBoard(roomID string, memberID int) (*Room, *GameState, error) {
	var game *GameState
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		if room.HostID != memberID {
			return errNotHost
		}
		game = activeGame(room)
		return assembleBoard(room, game, s.rng)
	})
	if err != nil {
		return nil, nil, err
	}
	if err := s.persistBoard(room, game); err != nil {
		log.Printf("persist board failed room_id=%s error=%v", room.ID, err)
	}
	if err := s.persistEvent(room, "board_assembled", EventPayload{
		GameID:   game.ID,
		MemberID: memberID,
		Count:    len(game.Cards),
	}); err != nil {
		log.Printf("persist event failed room_id=%s error=%v", room.ID, err)
	}
	log.Printf("board assembled room_id=%s game_id=%d cards=%d", room.ID, game.ID, len(game.Cards))
	s.broadcastGameUpdate(room)
	return room, game, nil
}

// StartGame flips a ready game to active and arms the first turn timer.
func (s *Server) StartGame(roomID string, memberID int) (*Room, *GameState, error) {
	var game *GameState
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		if room.HostID != memberID {
			return errNotHost
		}
		game = activeGame(room)
		return startGame(room, game)
	})
	if err != nil {
		return nil, nil, err
	}
	s.scheduleTurnTimer(room.ID, game.TurnSerial, game.Settings.TurnSeconds)
	if err := s.persistScores(room, game); err != nil {
		log.Printf("persist scores failed room_id=%s error=%v", room.ID, err)
	}
	if err := s.persistGamePatch(room, game); err != nil {
		log.Printf("persist game failed room_id=%s error=%v", room.ID, err)
	}
	if err := s.persistEvent(room, "game_started", EventPayload{
		GameID:      game.ID,
		MemberID:    memberID,
		PlayerCount: len(game.Scores),
	}); err != nil {
		log.Printf("persist event failed room_id=%s error=%v", room.ID, err)
	}
	log.Printf("game started room_id=%s game_id=%d players=%d", room.ID, game.ID, len(game.Scores))
	s.broadcastGameUpdate(room)
	return room, game, nil
}

// FlipCard runs one flip, resolving the turn when it is the second pick.
func (s *Server) FlipCard(roomID string, memberID int, cardID string) (*Room, flipResult, error) {
	var result flipResult
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		game := activeGame(room)
		outcome, err := flipCard(room, game, memberID, cardID)
		if err != nil {
			return err
		}
		result = outcome
		return nil
	})
	if err != nil {
		return nil, flipResult{}, err
	}
	game := activeGame(room)

	if len(result.FlipBack) > 0 {
		s.scheduleFlipBack(room.ID, result.FlipBack)
	}
	switch {
	case result.GameComplete:
		s.cancelTurnTimer(room.ID)
	case result.PickCount == 1 || result.Advanced || result.TurnResolved:
		// New turn, advance, kept turn, and pending author guess all restart
		// the clock.
		s.scheduleTurnTimer(room.ID, game.TurnSerial, game.Settings.TurnSeconds)
	}

	if err := s.persistTurn(room, game, result.Turn); err != nil {
		log.Printf("persist turn failed room_id=%s error=%v", room.ID, err)
	}
	if err := s.persistCards(room, game); err != nil {
		log.Printf("persist cards failed room_id=%s error=%v", room.ID, err)
	}
	if err := s.persistGamePatch(room, game); err != nil {
		log.Printf("persist game failed room_id=%s error=%v", room.ID, err)
	}
	s.persistFlipEvents(room, game, result, memberID, cardID)
	s.broadcastGameUpdate(room)
	return room, result, nil
}

func (s *Server) persistFlipEvents(room *Room, game *GameState, result flipResult, memberID int, cardID string) {
	record := func(eventType string, payload EventPayload) {
		if err := s.persistEvent(room, eventType, payload); err != nil {
			log.Printf("persist event failed room_id=%s type=%s error=%v", room.ID, eventType, err)
		}
	}
	record("card_flipped", EventPayload{
		GameID:     game.ID,
		MemberID:   memberID,
		CardID:     cardID,
		PickNumber: result.PickCount,
		TurnID:     result.Turn.ID,
	})
	if !result.TurnResolved {
		return
	}
	points := 0
	if score, ok := findScore(game, memberID); ok {
		points = score.Points
	}
	if result.Match {
		record("match_found", EventPayload{
			GameID:   game.ID,
			MemberID: memberID,
			CardIDs:  result.Matched,
			TurnID:   result.Turn.ID,
			Points:   points,
		})
	} else {
		record("mismatch", EventPayload{
			GameID:   game.ID,
			MemberID: memberID,
			CardIDs:  result.Turn.Picks,
			TurnID:   result.Turn.ID,
			Points:   points,
		})
	}
	if result.GameComplete {
		record("game_completed", EventPayload{
			GameID:     game.ID,
			MemberID:   memberID,
			DurationMs: game.CompletedAt.Sub(game.StartedAt).Milliseconds(),
		})
		log.Printf("game completed room_id=%s game_id=%d turns=%d", room.ID, game.ID, len(game.Turns))
	}
}

// SubmitAuthorGuess settles a pending author-guess challenge.
func (s *Server) SubmitAuthorGuess(roomID string, memberID int, guesses [2]AuthorGuess) (*Room, guessResult, error) {
	var result guessResult
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		game := activeGame(room)
		outcome, err := applyAuthorGuess(room, game, memberID, guesses)
		if err != nil {
			return err
		}
		result = outcome
		return nil
	})
	if err != nil {
		return nil, guessResult{}, err
	}
	game := activeGame(room)
	s.scheduleTurnTimer(room.ID, game.TurnSerial, game.Settings.TurnSeconds)
	if err := s.persistTurn(room, game, result.Turn); err != nil {
		log.Printf("persist turn failed room_id=%s error=%v", room.ID, err)
	}
	if err := s.persistGamePatch(room, game); err != nil {
		log.Printf("persist game failed room_id=%s error=%v", room.ID, err)
	}
	if err := s.persistEvent(room, "author_guess", EventPayload{
		GameID:   game.ID,
		MemberID: memberID,
		TurnID:   result.Turn.ID,
		Correct:  result.Correct,
	}); err != nil {
		log.Printf("persist event failed room_id=%s error=%v", room.ID, err)
	}
	s.broadcastGameUpdate(room)
	return room, result, nil
}

// HandleDisconnect marks a member gone and, when they held the turn,
// force-resolves it immediately instead of waiting out the turn timer.
func (s *Server) HandleDisconnect(roomID string, memberID int) {
	var forced forcedResult
	var turnID string
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		member, ok := findMember(room, memberID)
		if !ok {
			return errMemberNotFound
		}
		member.Disconnected = true
		game := activeGame(room)
		if game == nil || game.Status != gameActive || game.CurrentPlayerID != memberID {
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
		if !errors.Is(err, errMemberNotFound) {
			log.Printf("disconnect handling failed room_id=%s member_id=%d error=%v", roomID, memberID, err)
		}
		return
	}
	if err := s.persistEvent(room, "member_disconnected", EventPayload{MemberID: memberID}); err != nil {
		log.Printf("persist event failed room_id=%s error=%v", room.ID, err)
	}
	log.Printf("member disconnected room_id=%s member_id=%d", room.ID, memberID)
	if forced.Turn != nil {
		s.afterForcedResolution(room, forced, turnID, "disconnect")
		return
	}
	s.broadcastGameUpdate(room)
}

// Rematch starts a fresh collecting game over the same pool.
func (s *Server) Rematch(roomID string, memberID int) (*Room, *GameState, error) {
	var game *GameState
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		if room.HostID != memberID {
			return errNotHost
		}
		created, err := startRematch(room)
		if err != nil {
			return err
		}
		game = created
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if err := s.persistGame(room, game); err != nil {
		log.Printf("persist game failed room_id=%s error=%v", room.ID, err)
	}
	if err := s.persistEvent(room, "rematch_started", EventPayload{
		GameID:   game.ID,
		MemberID: memberID,
	}); err != nil {
		log.Printf("persist event failed room_id=%s error=%v", room.ID, err)
	}
	s.scheduleCollectionTimer(room.ID, game.ID, game.Settings.CollectSeconds)
	log.Printf("rematch started room_id=%s game_id=%d", room.ID, game.ID)
	s.broadcastGameUpdate(room)
	return room, game, nil
}
