package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"concentration/internal/db"

	"gorm.io/gorm"
)

// restoreRoomFromDB rebuilds a room into the in-memory store from its
// persisted records, e.g. after a process restart. The active game's turn
// timer is re-armed so a stalled turn still gets forced.
func (s *Server) restoreRoomFromDB(code string) (*Room, error) {
	if s.db == nil {
		return nil, errors.New("database not configured")
	}
	code = normalizeRoomCode(code)
	if code == "" {
		return nil, errors.New("room code is required")
	}
	if existing, ok := s.store.FindRoomByCode(code); ok {
		return existing, nil
	}

	var record db.Room
	if err := s.db.Where("code = ?", code).First(&record).Error; err != nil {
		return nil, err
	}

	members, err := s.loadMembers(record.ID)
	if err != nil {
		return nil, err
	}
	questions, err := s.loadQuestions(record.ID)
	if err != nil {
		return nil, err
	}
	games, err := s.loadGames(record.ID)
	if err != nil {
		return nil, err
	}

	room := &Room{
		ID:         fmt.Sprintf("room-%d", record.ID),
		DBID:       record.ID,
		Code:       record.Code,
		Status:     record.Status,
		MaxPlayers: record.MaxPlayers,
	}
	room.Members = buildMembers(members, room)
	room.Questions = buildQuestions(questions)
	room.Games = buildGames(games)
	room.ActiveGameID = activeGameRef(room.Games, record.ActiveGameID)

	if err := s.store.RestoreRoom(room); err != nil {
		return nil, err
	}

	if game := activeGame(room); game != nil && game.Status == gameActive {
		s.scheduleTurnTimer(room.ID, game.TurnSerial, game.Settings.TurnSeconds)
	}
	return room, nil
}

func (s *Server) loadMembers(roomID uint) ([]db.Member, error) {
	var members []db.Member
	if err := s.db.Where("room_id = ?", roomID).Order("joined_at asc").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (s *Server) loadQuestions(roomID uint) ([]db.Question, error) {
	var questions []db.Question
	err := s.db.Preload("Answers", func(conn *gorm.DB) *gorm.DB {
		return conn.Order("answers.id asc")
	}).Where("room_id = ?", roomID).Order("id asc").Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (s *Server) loadGames(roomID uint) ([]db.Game, error) {
	var games []db.Game
	err := s.db.Preload("Cards").Preload("Turns").Preload("Scores").
		Where("room_id = ?", roomID).Order("id asc").Find(&games).Error
	if err != nil {
		return nil, err
	}
	return games, nil
}

func buildMembers(records []db.Member, room *Room) []Member {
	members := make([]Member, 0, len(records))
	for _, record := range records {
		member := Member{
			ID:           int(record.ID),
			DBID:         record.ID,
			Name:         record.Name,
			Role:         record.Role,
			JoinedAt:     record.JoinedAt,
			Disconnected: true,
		}
		members = append(members, member)
		if record.Role == roleHost {
			room.HostID = member.ID
		}
	}
	return members
}

func buildQuestions(records []db.Question) []Question {
	questions := make([]Question, 0, len(records))
	for _, record := range records {
		question := Question{
			ID:       int(record.ID),
			DBID:     record.ID,
			Text:     record.Text,
			Approved: record.Approved,
		}
		if record.MemberID != nil {
			question.CreatedBy = int(*record.MemberID)
		}
		for _, answer := range record.Answers {
			question.Answers = append(question.Answers, Answer{
				ID:        int(answer.ID),
				DBID:      answer.ID,
				Text:      answer.Text,
				CreatedBy: int(answer.MemberID),
			})
		}
		questions = append(questions, question)
	}
	return questions
}

func buildGames(records []db.Game) []GameState {
	games := make([]GameState, 0, len(records))
	for index, record := range records {
		game := GameState{
			ID:        index + 1,
			DBID:      record.ID,
			Status:    record.Status,
			TurnIndex: record.TurnIndex,
			Settings: GameSettings{
				Mode:             record.Mode,
				PairCount:        record.PairCount,
				BoardSize:        record.BoardSize,
				TurnSeconds:      record.TurnSeconds,
				ExtraTurnOnMatch: record.ExtraTurnOnMatch,
				AuthorGuessBonus: record.AuthorGuessBonus,
			},
		}
		if record.CurrentMemberID != nil {
			game.CurrentPlayerID = int(*record.CurrentMemberID)
		}
		if record.StartedAt != nil {
			game.StartedAt = *record.StartedAt
		}
		if record.CompletedAt != nil {
			game.CompletedAt = *record.CompletedAt
		}
		game.Cards = buildCards(record.Cards)
		game.Turns = buildTurns(record.Turns)
		for _, score := range record.Scores {
			game.Scores = append(game.Scores, Score{
				DBID:     score.ID,
				PlayerID: int(score.MemberID),
				Points:   score.Points,
			})
		}
		games = append(games, game)
	}
	return games
}

// activeGameRef maps the room's persisted active game reference back to the
// in-memory game ID. Rooms written before the column existed have no
// reference; those fall back to the latest game.
func activeGameRef(games []GameState, dbID *uint) int {
	if dbID != nil {
		for _, game := range games {
			if game.DBID == *dbID {
				return game.ID
			}
		}
	}
	if len(games) > 0 {
		return games[len(games)-1].ID
	}
	return 0
}

func buildCards(records []db.Card) []Card {
	cards := make([]Card, 0, len(records))
	for _, record := range records {
		cards = append(cards, Card{
			ID:         record.UID,
			DBID:       record.ID,
			QuestionID: int(record.QuestionID),
			AnswerID:   int(record.AnswerID),
			Position:   record.Position,
			State:      record.State,
		})
	}
	sort.Slice(cards, func(i, j int) bool {
		return cards[i].Position < cards[j].Position
	})
	return cards
}

func buildTurns(records []db.Turn) []Turn {
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})
	turns := make([]Turn, 0, len(records))
	for _, record := range records {
		turn := Turn{
			ID:        record.UID,
			DBID:      record.ID,
			PlayerID:  int(record.MemberID),
			Resolved:  record.Resolved,
			Correct:   record.Correct,
			StartedAt: record.StartedAt,
		}
		if record.ResolvedAt != nil {
			turn.ResolvedAt = *record.ResolvedAt
		}
		if len(record.Picks) > 0 {
			_ = json.Unmarshal(record.Picks, &turn.Picks)
		}
		turns = append(turns, turn)
	}
	return turns
}
