package server

import (
	"errors"
	"log"
	"net/http"
)

type createRoomRequest struct {
	Name       string `json:"name"`
	MaxPlayers int    `json:"max_players"`
}

type joinRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type collectRequest struct {
	MemberID int    `json:"member_id"`
	Mode     string `json:"mode"`
	Settings struct {
		PairCount        *int  `json:"pair_count"`
		TurnSeconds      *int  `json:"turn_seconds"`
		CollectSeconds   *int  `json:"collect_seconds"`
		ExtraTurnOnMatch *bool `json:"extra_turn_on_match"`
		AuthorGuessBonus *bool `json:"author_guess_bonus"`
	} `json:"settings"`
}

type questionRequest struct {
	MemberID int    `json:"member_id"`
	Text     string `json:"text"`
}

type approveRequest struct {
	MemberID int   `json:"member_id"`
	Approved *bool `json:"approved"`
}

type answerRequest struct {
	MemberID   int    `json:"member_id"`
	QuestionID int    `json:"question_id"`
	Text       string `json:"text"`
}

type hostRequest struct {
	MemberID int `json:"member_id"`
}

type flipRequest struct {
	MemberID int    `json:"member_id"`
	CardID   string `json:"card_id"`
}

type authorGuessRequest struct {
	MemberID int `json:"member_id"`
	Guesses  []struct {
		CardID   string `json:"card_id"`
		AuthorID int    `json:"author_id"`
	} `json:"guesses"`
}

func (s *Server) roomByCode(w http.ResponseWriter, r *http.Request) (*Room, bool) {
	room, ok := s.store.FindRoomByCode(normalizeRoomCode(r.PathValue("code")))
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}
	return room, true
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name, err := validateName(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	maxPlayers := req.MaxPlayers
	if maxPlayers <= 0 {
		maxPlayers = s.cfg.MaxPlayers
	}
	room, host := s.store.CreateRoom(name, maxPlayers)
	if err := s.persistRoom(room); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create room")
		return
	}
	if err := s.persistMember(room, host); err != nil {
		log.Printf("persist member failed room_id=%s error=%v", room.ID, err)
	}
	log.Printf("room created room_id=%s code=%s host=%s", room.ID, room.Code, host.Name)
	writeJSON(w, http.StatusCreated, map[string]any{
		"room_id":   room.ID,
		"room_code": room.Code,
		"member_id": host.ID,
	})
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	summaries := s.store.ListRoomSummaries()
	rooms := make([]map[string]any, 0, len(summaries))
	for _, summary := range summaries {
		rooms = append(rooms, map[string]any{
			"room_id":   summary.ID,
			"room_code": summary.Code,
			"status":    summary.Status,
			"members":   summary.Members,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (s *Server) handleRoomState(w http.ResponseWriter, r *http.Request) {
	room, ok := s.roomByCode(w, r)
	if !ok {
		return
	}
	payload := roomSnapshot(room)
	if game := activeGame(room); game != nil {
		payload["game"] = gameSnapshot(room, game)
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name, err := validateName(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	role, err := validateRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	room, member, err := s.store.AddMember(normalizeRoomCode(r.PathValue("code")), name, role)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if err := s.persistMember(room, member); err != nil {
		log.Printf("persist member failed room_id=%s error=%v", room.ID, err)
	}
	log.Printf("member joined room_id=%s member_id=%d role=%s", room.ID, member.ID, member.Role)
	writeJSON(w, http.StatusOK, map[string]any{
		"room_id":   room.ID,
		"room_code": room.Code,
		"member_id": member.ID,
		"role":      member.Role,
	})
	s.broadcastGameUpdate(room)
}

func (s *Server) handleStartCollection(w http.ResponseWriter, r *http.Request) {
	room, ok := s.roomByCode(w, r)
	if !ok {
		return
	}
	var req collectRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mode := req.Mode
	if mode == "" {
		mode = modePlayer
	}
	if mode != modeCurated && mode != modePlayer {
		writeError(w, http.StatusBadRequest, "mode must be curated or player")
		return
	}
	settings := s.settingsFromRequest(mode, req)
	_, game, err := s.StartCollection(room.ID, req.MemberID, mode, settings)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"game_id":         game.ID,
		"collect_seconds": settings.CollectSeconds,
	})
}

func (s *Server) settingsFromRequest(mode string, req collectRequest) GameSettings {
	settings := GameSettings{
		Mode:             mode,
		PairCount:        s.cfg.PairCount,
		TurnSeconds:      s.cfg.TurnSeconds,
		CollectSeconds:   s.cfg.CollectSeconds,
		ExtraTurnOnMatch: s.cfg.ExtraTurnOnMatch,
		AuthorGuessBonus: s.cfg.AuthorGuessBonus,
	}
	if req.Settings.PairCount != nil && *req.Settings.PairCount > 0 {
		settings.PairCount = *req.Settings.PairCount
	}
	if req.Settings.TurnSeconds != nil && *req.Settings.TurnSeconds > 0 {
		settings.TurnSeconds = *req.Settings.TurnSeconds
	}
	if req.Settings.CollectSeconds != nil && *req.Settings.CollectSeconds > 0 {
		settings.CollectSeconds = *req.Settings.CollectSeconds
	}
	if req.Settings.ExtraTurnOnMatch != nil {
		settings.ExtraTurnOnMatch = *req.Settings.ExtraTurnOnMatch
	}
	if req.Settings.AuthorGuessBonus != nil {
		settings.AuthorGuessBonus = *req.Settings.AuthorGuessBonus
	}
	settings.BoardSize = settings.PairCount * 2
	return settings
}

func (s *Server) handleSubmitQuestion(w http.ResponseWriter, r *http.Request) {
	room, ok := s.roomByCode(w, r)
	if !ok {
		return
	}
	var req questionRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	text, err := validateQuestion(req.Text)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	questionID := s.store.NextQuestionID()
	room, err = s.store.UpdateRoom(room.ID, func(room *Room) error {
		if room.Status != roomCollecting {
			return errors.New("room is not collecting questions")
		}
		if _, ok := findMember(room, req.MemberID); !ok {
			return errMemberNotFound
		}
		addQuestion(room, questionID, text, req.MemberID, true)
		return nil
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if err := s.persistQuestions(room); err != nil {
		log.Printf("persist questions failed room_id=%s error=%v", room.ID, err)
	}
	if err := s.persistEvent(room, "question_submitted", EventPayload{
		MemberID:   req.MemberID,
		QuestionID: questionID,
	}); err != nil {
		log.Printf("persist event failed room_id=%s error=%v", room.ID, err)
	}
	writeJSON(w, http.StatusCreated, map[string]any{"question_id": questionID})
	s.broadcastGameUpdate(room)
}

func (s *Server) handleApproveQuestion(w http.ResponseWriter, r *http.Request) {
	room, ok := s.roomByCode(w, r)
	if !ok {
		return
	}
	questionID, ok := parseIntPathValue(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	var req approveRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	approved := true
	if req.Approved != nil {
		approved = *req.Approved
	}
	var question *Question
	room, err := s.store.UpdateRoom(room.ID, func(room *Room) error {
		if room.HostID != req.MemberID {
			return errNotHost
		}
		found, ok := findQuestion(room, questionID)
		if !ok {
			return errors.New("question not found")
		}
		found.Approved = approved
		question = found
		return nil
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if err := s.persistQuestionApproval(room, question); err != nil {
		log.Printf("persist approval failed room_id=%s error=%v", room.ID, err)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"question_id": questionID,
		"approved":    approved,
	})
	s.broadcastGameUpdate(room)
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	room, ok := s.roomByCode(w, r)
	if !ok {
		return
	}
	var req answerRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	text, err := validateAnswer(req.Text)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	answerID := s.store.NextAnswerID()
	updated := false
	room, err = s.store.UpdateRoom(room.ID, func(room *Room) error {
		if room.Status != roomCollecting {
			return errors.New("room is not collecting answers")
		}
		if _, ok := findMember(room, req.MemberID); !ok {
			return errMemberNotFound
		}
		question, ok := findQuestion(room, req.QuestionID)
		if !ok {
			return errors.New("question not found")
		}
		_, updated = upsertAnswer(question, answerID, req.MemberID, text)
		return nil
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if err := s.persistQuestions(room); err != nil {
		log.Printf("persist questions failed room_id=%s error=%v", room.ID, err)
	}
	if !updated {
		if err := s.persistEvent(room, "answer_submitted", EventPayload{
			MemberID:   req.MemberID,
			QuestionID: req.QuestionID,
			AnswerID:   answerID,
		}); err != nil {
			log.Printf("persist event failed room_id=%s error=%v", room.ID, err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"question_id": req.QuestionID,
		"updated":     updated,
	})
	s.broadcastGameUpdate(room)
}

func (s *Server) handleQuestionPool(w http.ResponseWriter, r *http.Request) {
	room, ok := s.roomByCode(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, poolSnapshot(room, activeGame(room), s.cfg.PairCount))
}

func (s *Server) handleAssembleBoard(w http.ResponseWriter, r *http.Request) {
	room, ok := s.roomByCode(w, r)
	if !ok {
		return
	}
	var req hostRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	_, game, err := s.AssembleBoard(room.ID, req.MemberID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"game_id":    game.ID,
		"card_count": len(game.Cards),
	})
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	room, ok := s.roomByCode(w, r)
	if !ok {
		return
	}
	var req hostRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	_, game, err := s.StartGame(room.ID, req.MemberID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"game_id":           game.ID,
		"current_player_id": game.CurrentPlayerID,
	})
}

func (s *Server) handleFlip(w http.ResponseWriter, r *http.Request) {
	room, ok := s.roomByCode(w, r)
	if !ok {
		return
	}
	var req flipRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	_, result, err := s.FlipCard(room.ID, req.MemberID, req.CardID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	payload := map[string]any{
		"turn_id":       result.Turn.ID,
		"pick_count":    result.PickCount,
		"turn_resolved": result.TurnResolved,
	}
	if result.TurnResolved {
		payload["is_match"] = result.Match
		payload["game_complete"] = result.GameComplete
		payload["awaiting_author_guess"] = result.AwaitingGuess
		payload["extra_turn"] = result.Match && !result.Advanced && !result.GameComplete
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleAuthorGuess(w http.ResponseWriter, r *http.Request) {
	room, ok := s.roomByCode(w, r)
	if !ok {
		return
	}
	var req authorGuessRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Guesses) != 2 {
		writeError(w, http.StatusBadRequest, "exactly two guesses are required")
		return
	}
	var guesses [2]AuthorGuess
	for i, guess := range req.Guesses {
		guesses[i] = AuthorGuess{CardID: guess.CardID, AuthorID: guess.AuthorID}
	}
	_, result, err := s.SubmitAuthorGuess(room.ID, req.MemberID, guesses)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"correct":        result.Correct,
		"continues_turn": result.ContinuesTurn,
	})
}

func (s *Server) handleRematch(w http.ResponseWriter, r *http.Request) {
	room, ok := s.roomByCode(w, r)
	if !ok {
		return
	}
	var req hostRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	_, game, err := s.Rematch(room.ID, req.MemberID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"game_id": game.ID})
}

func (s *Server) handleGameState(w http.ResponseWriter, r *http.Request) {
	room, ok := s.roomByCode(w, r)
	if !ok {
		return
	}
	game := activeGame(room)
	if game == nil {
		writeError(w, http.StatusNotFound, "no game in progress")
		return
	}
	writeJSON(w, http.StatusOK, gameSnapshot(room, game))
}
