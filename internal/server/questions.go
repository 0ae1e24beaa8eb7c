package server

import (
	"errors"
	"math/rand"
	"sort"
)

var curatedQuestions = []string{
	"What's your favorite pizza topping?",
	"What superpower would you choose?",
	"What's your dream vacation destination?",
	"What's your favorite movie genre?",
	"What's your go-to comfort food?",
	"What animal would you want as a pet?",
	"What's your favorite season?",
	"What's your ideal way to spend a weekend?",
	"What's your favorite type of music?",
	"What's your biggest fear?",
	"What's your favorite childhood memory?",
	"What's your dream job?",
	"What's your favorite color?",
	"What's your favorite board game?",
	"What's your favorite ice cream flavor?",
	"What's your favorite book or book genre?",
	"What's your favorite way to exercise?",
	"What's your favorite holiday?",
	"What's your favorite app on your phone?",
	"What's your biggest accomplishment?",
}

// seedCuratedQuestions adds curated prompts to the room pool, one per
// reserved ID. Curated questions have no author and skip host approval.
func seedCuratedQuestions(room *Room, ids []int, rng *rand.Rand) {
	picks := rng.Perm(len(curatedQuestions))
	if len(ids) > len(picks) {
		ids = ids[:len(picks)]
	}
	for i, id := range ids {
		room.Questions = append(room.Questions, Question{
			ID:       id,
			Text:     curatedQuestions[picks[i]],
			Approved: true,
		})
	}
}

func findQuestion(room *Room, questionID int) (*Question, bool) {
	for i := range room.Questions {
		if room.Questions[i].ID == questionID {
			return &room.Questions[i], true
		}
	}
	return nil, false
}

func addQuestion(room *Room, id int, text string, createdBy int, approved bool) *Question {
	room.Questions = append(room.Questions, Question{
		ID:        id,
		Text:      text,
		CreatedBy: createdBy,
		Approved:  approved,
	})
	return &room.Questions[len(room.Questions)-1]
}

// upsertAnswer records one member's answer to a question. Resubmitting
// replaces the previous text rather than adding a second answer.
func upsertAnswer(question *Question, id int, memberID int, text string) (*Answer, bool) {
	for i := range question.Answers {
		if question.Answers[i].CreatedBy == memberID {
			question.Answers[i].Text = text
			return &question.Answers[i], true
		}
	}
	question.Answers = append(question.Answers, Answer{
		ID:        id,
		Text:      text,
		CreatedBy: memberID,
	})
	return &question.Answers[len(question.Answers)-1], false
}

// qualifyingQuestions returns the approved questions holding at least two
// answers, ordered most-answered first with creation order breaking ties.
// The order is deterministic so a game can record its selection.
func qualifyingQuestions(room *Room) []*Question {
	qualified := make([]*Question, 0, len(room.Questions))
	for i := range room.Questions {
		question := &room.Questions[i]
		if !question.Approved {
			continue
		}
		if len(question.Answers) < 2 {
			continue
		}
		qualified = append(qualified, question)
	}
	sort.SliceStable(qualified, func(i, j int) bool {
		return len(qualified[i].Answers) > len(qualified[j].Answers)
	})
	return qualified
}

type PoolProgress struct {
	Total         int
	Completed     int
	ReadyForBoard bool
}

func poolProgress(room *Room, pairCount int) PoolProgress {
	progress := PoolProgress{Total: 0}
	for i := range room.Questions {
		if !room.Questions[i].Approved {
			continue
		}
		progress.Total++
		if len(room.Questions[i].Answers) >= 2 {
			progress.Completed++
		}
	}
	progress.ReadyForBoard = progress.Completed >= pairCount
	return progress
}

// pickPairAnswers chooses two answers for one question, preferring two
// distinct authors: the first answer, then the first later answer by someone
// else. A single-author question falls back to its first two answers.
func pickPairAnswers(question *Question) ([2]Answer, error) {
	if len(question.Answers) < 2 {
		return [2]Answer{}, errors.New("question needs two answers")
	}
	first := question.Answers[0]
	for _, candidate := range question.Answers[1:] {
		if candidate.CreatedBy != first.CreatedBy {
			return [2]Answer{first, candidate}, nil
		}
	}
	return [2]Answer{first, question.Answers[1]}, nil
}
