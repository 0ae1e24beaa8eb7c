package server

type EventPayload struct {
	RoomCode    string   `json:"room_code,omitempty"`
	MemberID    int      `json:"member_id,omitempty"`
	MemberName  string   `json:"member,omitempty"`
	Role        string   `json:"role,omitempty"`
	GameID      int      `json:"game_id,omitempty"`
	QuestionID  int      `json:"question_id,omitempty"`
	AnswerID    int      `json:"answer_id,omitempty"`
	CardID      string   `json:"card_id,omitempty"`
	CardIDs     []string `json:"card_ids,omitempty"`
	Position    int      `json:"position,omitempty"`
	PickNumber  int      `json:"pick_number,omitempty"`
	TurnID      string   `json:"turn_id,omitempty"`
	TurnIndex   int      `json:"turn_index,omitempty"`
	Points      int      `json:"points,omitempty"`
	Mode        string   `json:"mode,omitempty"`
	Reason      string   `json:"reason,omitempty"`
	Count       int      `json:"count,omitempty"`
	PlayerCount int      `json:"player_count,omitempty"`
	DurationMs  int64    `json:"duration_ms,omitempty"`
	Correct     bool     `json:"correct,omitempty"`
}
