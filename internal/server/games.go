package server

import "errors"

func activeGame(room *Room) *GameState {
	if room.ActiveGameID == 0 {
		return nil
	}
	for i := range room.Games {
		if room.Games[i].ID == room.ActiveGameID {
			return &room.Games[i]
		}
	}
	return nil
}

// newGame appends a game in the collecting phase and makes it the room's
// active game. The room keeps an explicit active-game reference; nothing
// ever infers "the current game" from creation order.
func newGame(room *Room, settings GameSettings) *GameState {
	game := GameState{
		ID:       len(room.Games) + 1,
		Status:   gameCollecting,
		Settings: settings,
	}
	room.Games = append(room.Games, game)
	room.ActiveGameID = game.ID
	return &room.Games[len(room.Games)-1]
}

// startGame moves a ready game to active: scores zeroed for every player,
// first player by join order, turn index 0.
func startGame(room *Room, game *GameState) error {
	if game == nil || game.Status != gameReady {
		return errors.New("game is not ready to start")
	}
	players := orderedPlayers(room)
	if len(players) == 0 {
		return ErrNoPlayers
	}
	scores := make([]Score, 0, len(players))
	for _, player := range players {
		scores = append(scores, Score{PlayerID: player.ID})
	}
	game.Scores = scores
	game.CurrentPlayerID = players[0].ID
	game.TurnIndex = 0
	game.Status = gameActive
	room.Status = roomPlaying
	return nil
}

// startRematch creates a fresh collecting game after a completed one,
// reusing the room's question pool.
func startRematch(room *Room) (*GameState, error) {
	current := activeGame(room)
	if current == nil || current.Status != gameComplete {
		return nil, errors.New("no completed game to rematch")
	}
	game := newGame(room, current.Settings)
	room.Status = roomCollecting
	return game, nil
}

func findScore(game *GameState, playerID int) (*Score, bool) {
	for i := range game.Scores {
		if game.Scores[i].PlayerID == playerID {
			return &game.Scores[i], true
		}
	}
	return nil, false
}

func findTurn(game *GameState, turnID string) (*Turn, bool) {
	for i := range game.Turns {
		if game.Turns[i].ID == turnID {
			return &game.Turns[i], true
		}
	}
	return nil, false
}

// openTurn returns the single unresolved turn, if any.
func openTurn(game *GameState) *Turn {
	for i := range game.Turns {
		if !game.Turns[i].Resolved {
			return &game.Turns[i]
		}
	}
	return nil
}

// guessPendingTurn returns the resolved turn still waiting on its
// author-guess challenge, if any.
func guessPendingTurn(game *GameState) *Turn {
	for i := range game.Turns {
		if game.Turns[i].Resolved && game.Turns[i].AwaitingAuthorGuess {
			return &game.Turns[i]
		}
	}
	return nil
}

func answerAuthor(room *Room, questionID, answerID int) (int, bool) {
	question, ok := findQuestion(room, questionID)
	if !ok {
		return 0, false
	}
	for i := range question.Answers {
		if question.Answers[i].ID == answerID {
			return question.Answers[i].CreatedBy, true
		}
	}
	return 0, false
}
