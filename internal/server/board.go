package server

import (
	"errors"
	"math/rand"
)

// assembleBoard builds the card grid for a game in the collecting phase:
// pairCount questions, two answers each, one card per answer, positions
// shuffled with Fisher-Yates. The board is built as a fresh slice and only
// assigned to the game once complete, so a failed assembly leaves no cards.
func assembleBoard(room *Room, game *GameState, rng *rand.Rand) error {
	if game == nil || game.Status != gameCollecting {
		return errors.New("no collection phase in progress")
	}
	pairCount := game.Settings.PairCount
	qualified := qualifyingQuestions(room)
	if len(qualified) < pairCount {
		return ErrInsufficientContent
	}
	selected := qualified[:pairCount]

	cards := make([]Card, 0, pairCount*2)
	selectedIDs := make([]int, 0, pairCount)
	for _, question := range selected {
		pair, err := pickPairAnswers(question)
		if err != nil {
			return err
		}
		selectedIDs = append(selectedIDs, question.ID)
		for _, answer := range pair {
			cards = append(cards, Card{
				ID:         newCardID(),
				QuestionID: question.ID,
				AnswerID:   answer.ID,
				State:      cardFaceDown,
			})
		}
	}

	positions := make([]int, len(cards))
	for i := range positions {
		positions[i] = i
	}
	for i := len(positions) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		positions[i], positions[j] = positions[j], positions[i]
	}
	for i := range cards {
		cards[i].Position = positions[i]
	}

	game.Cards = cards
	game.SelectedQuestionIDs = selectedIDs
	game.Status = gameReady
	game.StartedAt = timeNowUTC()
	return nil
}

func findCard(game *GameState, cardID string) (*Card, bool) {
	for i := range game.Cards {
		if game.Cards[i].ID == cardID {
			return &game.Cards[i], true
		}
	}
	return nil, false
}

func allCardsMatched(game *GameState) bool {
	if len(game.Cards) == 0 {
		return false
	}
	for i := range game.Cards {
		if game.Cards[i].State != cardMatched {
			return false
		}
	}
	return true
}
