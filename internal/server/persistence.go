package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"concentration/internal/db"

	"github.com/jackc/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

func (s *Server) persistRoom(room *Room) error {
	if s.db == nil {
		return nil
	}
	record := db.Room{
		Code:       room.Code,
		Status:     room.Status,
		MaxPlayers: room.MaxPlayers,
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return err
	}
	room.DBID = record.ID
	newID := fmt.Sprintf("room-%d", record.ID)
	if room.ID != newID {
		s.store.UpdateRoomID(room, newID)
	}
	return s.persistEvent(room, "room_created", EventPayload{
		RoomCode: room.Code,
	})
}

func (s *Server) persistMember(room *Room, member *Member) error {
	if s.db == nil {
		return nil
	}
	if member.DBID != 0 {
		return nil
	}
	if err := s.ensureRoomDBID(room); err != nil {
		return err
	}
	if room.DBID == 0 {
		return errRoomNotFound
	}
	record := db.Member{
		RoomID:   room.DBID,
		Name:     member.Name,
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
	if err := s.db.Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := s.findMemberDBID(room.DBID, member.Name)
			if lookupErr == nil && existing != 0 {
				member.DBID = existing
				return nil
			}
		}
		return err
	}
	member.DBID = record.ID
	return s.persistEvent(room, "member_joined", EventPayload{
		MemberID:   member.ID,
		MemberName: member.Name,
		Role:       member.Role,
	})
}

func (s *Server) persistRoomStatus(room *Room) error {
	if s.db == nil {
		return nil
	}
	if err := s.ensureRoomDBID(room); err != nil {
		return err
	}
	if room.DBID == 0 {
		return errRoomNotFound
	}
	return s.db.Model(&db.Room{}).Where("id = ?", room.DBID).Update("status", room.Status).Error
}

func (s *Server) persistQuestions(room *Room) error {
	if s.db == nil {
		return nil
	}
	if err := s.ensureRoomDBID(room); err != nil {
		return err
	}
	if room.DBID == 0 {
		return errRoomNotFound
	}
	for i := range room.Questions {
		question := &room.Questions[i]
		if question.DBID == 0 {
			record := db.Question{
				RoomID:   room.DBID,
				MemberID: s.memberDBIDRef(room, question.CreatedBy),
				Text:     question.Text,
				Approved: question.Approved,
			}
			if err := s.db.Create(&record).Error; err != nil {
				return err
			}
			question.DBID = record.ID
		}
		for j := range question.Answers {
			answer := &question.Answers[j]
			member, ok := findMember(room, answer.CreatedBy)
			if !ok || member.DBID == 0 {
				continue
			}
			if answer.DBID == 0 {
				record := db.Answer{
					QuestionID: question.DBID,
					MemberID:   member.DBID,
					Text:       answer.Text,
				}
				if err := s.db.Create(&record).Error; err != nil {
					return err
				}
				answer.DBID = record.ID
				continue
			}
			if err := s.db.Model(&db.Answer{}).
				Where("id = ?", answer.DBID).
				Update("text", answer.Text).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Server) persistQuestionApproval(room *Room, question *Question) error {
	if s.db == nil || question.DBID == 0 {
		return nil
	}
	return s.db.Model(&db.Question{}).
		Where("id = ?", question.DBID).
		Update("approved", question.Approved).Error
}

func (s *Server) persistGame(room *Room, game *GameState) error {
	if s.db == nil {
		return nil
	}
	if game.DBID != 0 {
		return nil
	}
	if err := s.ensureRoomDBID(room); err != nil {
		return err
	}
	if room.DBID == 0 {
		return errRoomNotFound
	}
	record := db.Game{
		RoomID:           room.DBID,
		Status:           game.Status,
		TurnIndex:        game.TurnIndex,
		PairCount:        game.Settings.PairCount,
		BoardSize:        game.Settings.BoardSize,
		Mode:             game.Settings.Mode,
		TurnSeconds:      game.Settings.TurnSeconds,
		ExtraTurnOnMatch: game.Settings.ExtraTurnOnMatch,
		AuthorGuessBonus: game.Settings.AuthorGuessBonus,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return err
	}
	game.DBID = record.ID
	if game.ID == room.ActiveGameID {
		if err := s.db.Model(&db.Room{}).Where("id = ?", room.DBID).
			Update("active_game_id", record.ID).Error; err != nil {
			return err
		}
	}
	return s.persistRoomStatus(room)
}

// persistGamePatch mirrors the mutable game fields after an engine
// transition.
func (s *Server) persistGamePatch(room *Room, game *GameState) error {
	if s.db == nil || game == nil || game.DBID == 0 {
		return nil
	}
	updates := map[string]any{
		"status":            game.Status,
		"turn_index":        game.TurnIndex,
		"current_member_id": s.memberDBIDRef(room, game.CurrentPlayerID),
	}
	if !game.StartedAt.IsZero() {
		updates["started_at"] = game.StartedAt
	}
	if !game.CompletedAt.IsZero() {
		updates["completed_at"] = game.CompletedAt
	}
	if err := s.db.Model(&db.Game{}).Where("id = ?", game.DBID).Updates(updates).Error; err != nil {
		return err
	}
	if err := s.persistScores(room, game); err != nil {
		return err
	}
	return s.persistRoomStatus(room)
}

func (s *Server) persistBoard(room *Room, game *GameState) error {
	if s.db == nil || game == nil {
		return nil
	}
	if game.DBID == 0 {
		if err := s.persistGame(room, game); err != nil {
			return err
		}
	}
	if err := s.db.Model(&db.Game{}).Where("id = ?", game.DBID).Updates(map[string]any{
		"status":     game.Status,
		"started_at": game.StartedAt,
	}).Error; err != nil {
		return err
	}
	return s.persistCards(room, game)
}

func (s *Server) persistCards(room *Room, game *GameState) error {
	if s.db == nil || game == nil || game.DBID == 0 {
		return nil
	}
	for i := range game.Cards {
		card := &game.Cards[i]
		if card.DBID == 0 {
			question, _ := findQuestion(room, card.QuestionID)
			record := db.Card{
				UID:      card.ID,
				GameID:   game.DBID,
				Position: card.Position,
				State:    card.State,
			}
			if question != nil {
				record.QuestionID = question.DBID
				for j := range question.Answers {
					if question.Answers[j].ID == card.AnswerID {
						record.AnswerID = question.Answers[j].DBID
					}
				}
			}
			if err := s.db.Create(&record).Error; err != nil {
				return err
			}
			card.DBID = record.ID
			continue
		}
		if err := s.db.Model(&db.Card{}).
			Where("id = ?", card.DBID).
			Update("state", card.State).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) persistTurn(room *Room, game *GameState, turn *Turn) error {
	if s.db == nil || game == nil || game.DBID == 0 || turn == nil {
		return nil
	}
	picks, err := json.Marshal(turn.Picks)
	if err != nil {
		return err
	}
	var resolvedAt *time.Time
	if !turn.ResolvedAt.IsZero() {
		at := turn.ResolvedAt
		resolvedAt = &at
	}
	if turn.DBID == 0 {
		record := db.Turn{
			UID:        turn.ID,
			GameID:     game.DBID,
			Picks:      datatypes.JSON(picks),
			Resolved:   turn.Resolved,
			Correct:    turn.Correct,
			StartedAt:  turn.StartedAt,
			ResolvedAt: resolvedAt,
		}
		if ref := s.memberDBIDRef(room, turn.PlayerID); ref != nil {
			record.MemberID = *ref
		}
		if err := s.db.Create(&record).Error; err != nil {
			return err
		}
		turn.DBID = record.ID
		return nil
	}
	return s.db.Model(&db.Turn{}).Where("id = ?", turn.DBID).Updates(map[string]any{
		"picks":       datatypes.JSON(picks),
		"resolved":    turn.Resolved,
		"correct":     turn.Correct,
		"resolved_at": resolvedAt,
	}).Error
}

func (s *Server) persistScores(room *Room, game *GameState) error {
	if s.db == nil || game == nil || game.DBID == 0 {
		return nil
	}
	for i := range game.Scores {
		score := &game.Scores[i]
		member, ok := findMember(room, score.PlayerID)
		if !ok || member.DBID == 0 {
			continue
		}
		if score.DBID == 0 {
			record := db.Score{
				GameID:   game.DBID,
				MemberID: member.DBID,
				Points:   score.Points,
			}
			if err := s.db.Create(&record).Error; err != nil {
				return err
			}
			score.DBID = record.ID
			continue
		}
		if err := s.db.Model(&db.Score{}).
			Where("id = ?", score.DBID).
			Update("points", score.Points).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) persistEvent(room *Room, eventType string, payload EventPayload) error {
	if s.db == nil {
		return nil
	}
	if err := s.ensureRoomDBID(room); err != nil {
		return err
	}
	if room.DBID == 0 {
		return errRoomNotFound
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := db.Event{
		RoomID:   room.DBID,
		GameID:   s.resolveEventGameID(room, payload),
		MemberID: s.memberDBIDRef(room, payload.MemberID),
		Type:     eventType,
		Payload:  datatypes.JSON(data),
	}
	return s.db.Create(&event).Error
}

func (s *Server) resolveEventGameID(room *Room, payload EventPayload) *uint {
	if payload.GameID <= 0 {
		return nil
	}
	for i := range room.Games {
		if room.Games[i].ID == payload.GameID && room.Games[i].DBID != 0 {
			id := room.Games[i].DBID
			return &id
		}
	}
	return nil
}

func (s *Server) memberDBIDRef(room *Room, memberID int) *uint {
	if memberID <= 0 {
		return nil
	}
	member, ok := findMember(room, memberID)
	if !ok || member.DBID == 0 {
		return nil
	}
	id := member.DBID
	return &id
}

func (s *Server) ensureRoomDBID(room *Room) error {
	if s.db == nil || room.DBID != 0 {
		return nil
	}
	var record db.Room
	if err := s.db.Where("code = ?", room.Code).First(&record).Error; err != nil {
		return nil
	}
	room.DBID = record.ID
	return nil
}

func (s *Server) findMemberDBID(roomDBID uint, name string) (uint, error) {
	var record db.Member
	if err := s.db.Where("room_id = ? AND name = ?", roomDBID, name).First(&record).Error; err != nil {
		return 0, err
	}
	return record.ID, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
