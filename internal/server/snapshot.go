package server

import "sort"

func roomSnapshot(room *Room) map[string]any {
	members := make([]map[string]any, 0, len(room.Members))
	for i := range room.Members {
		member := &room.Members[i]
		members = append(members, map[string]any{
			"member_id":    member.ID,
			"name":         member.Name,
			"role":         member.Role,
			"disconnected": member.Disconnected,
		})
	}
	return map[string]any{
		"room_id":   room.ID,
		"room_code": room.Code,
		"status":    room.Status,
		"host_id":   room.HostID,
		"members":   members,
	}
}

func poolSnapshot(room *Room, game *GameState, pairCount int) map[string]any {
	if game != nil {
		pairCount = game.Settings.PairCount
	}
	progress := poolProgress(room, pairCount)
	questions := make([]map[string]any, 0, len(room.Questions))
	for i := range room.Questions {
		question := &room.Questions[i]
		questions = append(questions, map[string]any{
			"question_id":  question.ID,
			"text":         question.Text,
			"created_by":   question.CreatedBy,
			"approved":     question.Approved,
			"answer_count": len(question.Answers),
		})
	}
	return map[string]any{
		"questions": questions,
		"progress": map[string]any{
			"total":           progress.Total,
			"completed":       progress.Completed,
			"ready_for_board": progress.ReadyForBoard,
		},
	}
}

// gameSnapshot is the client read model: card text is withheld unless the
// card is face up or matched. The hiding happens here, at the read boundary;
// storage always holds the full card.
func gameSnapshot(room *Room, game *GameState) map[string]any {
	if game == nil {
		return nil
	}
	cards := make([]map[string]any, 0, len(game.Cards))
	for i := range game.Cards {
		card := &game.Cards[i]
		entry := map[string]any{
			"card_id":  card.ID,
			"position": card.Position,
			"state":    card.State,
		}
		if card.State == cardFaceUp || card.State == cardMatched {
			if question, ok := findQuestion(room, card.QuestionID); ok {
				entry["question"] = question.Text
				for j := range question.Answers {
					if question.Answers[j].ID == card.AnswerID {
						entry["answer"] = question.Answers[j].Text
					}
				}
			}
		}
		cards = append(cards, entry)
	}
	sort.Slice(cards, func(i, j int) bool {
		return cards[i]["position"].(int) < cards[j]["position"].(int)
	})

	scores := make([]map[string]any, 0, len(game.Scores))
	for i := range game.Scores {
		score := &game.Scores[i]
		entry := map[string]any{
			"member_id": score.PlayerID,
			"points":    score.Points,
		}
		if member, ok := findMember(room, score.PlayerID); ok {
			entry["name"] = member.Name
		}
		scores = append(scores, entry)
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i]["points"].(int) > scores[j]["points"].(int)
	})

	snapshot := map[string]any{
		"game_id":           game.ID,
		"status":            game.Status,
		"turn_index":        game.TurnIndex,
		"current_player_id": game.CurrentPlayerID,
		"board_size":        len(game.Cards),
		"cards":             cards,
		"scores":            scores,
		"settings": map[string]any{
			"mode":                game.Settings.Mode,
			"pair_count":          game.Settings.PairCount,
			"turn_seconds":        game.Settings.TurnSeconds,
			"extra_turn_on_match": game.Settings.ExtraTurnOnMatch,
			"author_guess_bonus":  game.Settings.AuthorGuessBonus,
		},
	}
	turn := openTurn(game)
	if turn == nil {
		turn = guessPendingTurn(game)
	}
	if turn != nil {
		snapshot["current_turn"] = map[string]any{
			"turn_id":               turn.ID,
			"member_id":             turn.PlayerID,
			"picks":                 turn.Picks,
			"resolved":              turn.Resolved,
			"awaiting_author_guess": turn.AwaitingAuthorGuess,
		}
	}
	return snapshot
}
