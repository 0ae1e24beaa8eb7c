package server

// flipResult reports what one flip did so the caller can persist events,
// arm timers, and answer the client without re-reading room state.
type flipResult struct {
	Turn          *Turn
	PickCount     int
	TurnResolved  bool
	Match         bool
	GameComplete  bool
	AwaitingGuess bool
	Advanced      bool
	// FlipBack lists cards left face up that must revert after the delay.
	FlipBack []string
	Matched  []string
}

// flipCard is the core turn-engine transition. It runs inside the store's
// room closure, so the precondition checks and the mutation are atomic with
// respect to every other engine operation on the same room.
func flipCard(room *Room, game *GameState, memberID int, cardID string) (flipResult, error) {
	if game == nil || game.Status != gameActive {
		return flipResult{}, ErrGameNotActive
	}
	if game.CurrentPlayerID != memberID {
		return flipResult{}, ErrNotYourTurn
	}
	card, ok := findCard(game, cardID)
	if !ok {
		return flipResult{}, ErrInvalidCard
	}
	if card.State != cardFaceDown {
		return flipResult{}, ErrCardNotFlippable
	}
	if pending := guessPendingTurn(game); pending != nil {
		return flipResult{}, ErrTurnViolation
	}
	turn := openTurn(game)
	if turn != nil {
		if turn.PlayerID != memberID || len(turn.Picks) >= maxPicksPerTurn {
			return flipResult{}, ErrTurnViolation
		}
		for _, pick := range turn.Picks {
			if pick == cardID {
				return flipResult{}, ErrTurnViolation
			}
		}
	} else {
		game.Turns = append(game.Turns, Turn{
			ID:        newTurnID(),
			PlayerID:  memberID,
			StartedAt: timeNowUTC(),
		})
		turn = &game.Turns[len(game.Turns)-1]
	}

	card.State = cardFaceUp
	turn.Picks = append(turn.Picks, cardID)

	result := flipResult{Turn: turn, PickCount: len(turn.Picks)}
	if len(turn.Picks) < maxPicksPerTurn {
		return result, nil
	}
	return resolveTurn(room, game, turn)
}

// resolveTurn settles a two-pick turn: match detection, scoring, completion,
// and the extra-turn policy. Called exactly once per turn, synchronously from
// the second flip.
func resolveTurn(room *Room, game *GameState, turn *Turn) (flipResult, error) {
	first, ok1 := findCard(game, turn.Picks[0])
	second, ok2 := findCard(game, turn.Picks[1])
	if !ok1 || !ok2 {
		return flipResult{}, ErrInvalidCard
	}

	isMatch := first.QuestionID == second.QuestionID
	turn.Resolved = true
	turn.Correct = isMatch
	turn.ResolvedAt = timeNowUTC()

	result := flipResult{
		Turn:         turn,
		PickCount:    len(turn.Picks),
		TurnResolved: true,
		Match:        isMatch,
	}

	if !isMatch {
		result.FlipBack = []string{first.ID, second.ID}
		if err := advanceToNextPlayer(room, game); err != nil {
			return flipResult{}, err
		}
		result.Advanced = true
		return result, nil
	}

	first.State = cardMatched
	second.State = cardMatched
	result.Matched = []string{first.ID, second.ID}
	if score, ok := findScore(game, turn.PlayerID); ok {
		score.Points++
	}

	if allCardsMatched(game) {
		game.Status = gameComplete
		game.CompletedAt = timeNowUTC()
		room.Status = roomEnded
		result.GameComplete = true
		return result, nil
	}

	switch {
	case !game.Settings.ExtraTurnOnMatch:
		if err := advanceToNextPlayer(room, game); err != nil {
			return flipResult{}, err
		}
		result.Advanced = true
	case game.Settings.AuthorGuessBonus:
		turn.AwaitingAuthorGuess = true
		result.AwaitingGuess = true
	}
	// Otherwise the current player keeps the turn. The index stays, but a new
	// window opens, so timers armed for the old one must go stale.
	if !result.Advanced {
		game.TurnSerial++
	}
	return result, nil
}

// advanceToNextPlayer moves the turn to the next player in join order,
// wrapping around. Membership changes must have been handled before this is
// called; a missing current player is an invariant break, not a user error.
func advanceToNextPlayer(room *Room, game *GameState) error {
	players := orderedPlayers(room)
	if len(players) == 0 {
		return ErrNoPlayers
	}
	current := -1
	for i, player := range players {
		if player.ID == game.CurrentPlayerID {
			current = i
			break
		}
	}
	if current < 0 {
		return ErrCurrentPlayerNotFound
	}
	game.CurrentPlayerID = players[(current+1)%len(players)].ID
	game.TurnIndex++
	game.TurnSerial++
	return nil
}

type guessResult struct {
	Turn          *Turn
	Correct       bool
	ContinuesTurn bool
}

// applyAuthorGuess settles the author-guess challenge on a matched turn.
// Both guesses must name the true answer authors for the bonus turn; the
// match point itself is never revoked.
func applyAuthorGuess(room *Room, game *GameState, memberID int, guesses [2]AuthorGuess) (guessResult, error) {
	if game == nil || game.Status != gameActive {
		return guessResult{}, ErrGameNotActive
	}
	turn := guessPendingTurn(game)
	if turn == nil || turn.PlayerID != memberID {
		return guessResult{}, ErrNoGuessPending
	}
	if guesses[0].CardID == guesses[1].CardID {
		return guessResult{}, ErrInvalidCard
	}

	bothCorrect := true
	for _, guess := range guesses {
		picked := false
		for _, pick := range turn.Picks {
			if pick == guess.CardID {
				picked = true
				break
			}
		}
		if !picked {
			return guessResult{}, ErrInvalidCard
		}
		card, ok := findCard(game, guess.CardID)
		if !ok {
			return guessResult{}, ErrInvalidCard
		}
		author, ok := answerAuthor(room, card.QuestionID, card.AnswerID)
		if !ok || author != guess.AuthorID {
			bothCorrect = false
		}
	}

	turn.AwaitingAuthorGuess = false
	result := guessResult{Turn: turn, Correct: bothCorrect, ContinuesTurn: bothCorrect}
	if !bothCorrect {
		if err := advanceToNextPlayer(room, game); err != nil {
			return guessResult{}, err
		}
	} else {
		game.TurnSerial++
	}
	return result, nil
}

type forcedResult struct {
	Turn     *Turn
	Advanced bool
	// Reverted lists picks flipped straight back to face down.
	Reverted []string
	// FlipBack lists picks left face up for the delayed revert, mirroring a
	// normal mismatch resolution.
	FlipBack []string
}

// forceResolveTurn is the timeout and disconnect path. A single face-up pick
// reverts immediately; two unresolved picks are treated like a mismatch
// resolution; a pending author guess forfeits only the bonus turn. Points
// already awarded are never touched.
func forceResolveTurn(room *Room, game *GameState, turn *Turn) (forcedResult, error) {
	result := forcedResult{Turn: turn}

	if turn.Resolved {
		if !turn.AwaitingAuthorGuess {
			return result, nil
		}
		turn.AwaitingAuthorGuess = false
		if err := advanceToNextPlayer(room, game); err != nil {
			return forcedResult{}, err
		}
		result.Advanced = true
		return result, nil
	}

	turn.Resolved = true
	turn.Correct = false
	turn.ResolvedAt = timeNowUTC()

	switch len(turn.Picks) {
	case 1:
		if card, ok := findCard(game, turn.Picks[0]); ok && card.State == cardFaceUp {
			card.State = cardFaceDown
			result.Reverted = append(result.Reverted, card.ID)
		}
	case 2:
		for _, pick := range turn.Picks {
			if card, ok := findCard(game, pick); ok && card.State == cardFaceUp {
				result.FlipBack = append(result.FlipBack, card.ID)
			}
		}
	}

	if err := advanceToNextPlayer(room, game); err != nil {
		return forcedResult{}, err
	}
	result.Advanced = true
	return result, nil
}
