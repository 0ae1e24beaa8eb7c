package db

import (
	"time"

	"gorm.io/datatypes"
)

type Room struct {
	ID         uint   `gorm:"primaryKey"`
	Code       string `gorm:"size:8;uniqueIndex;not null"`
	Status     string `gorm:"size:32;not null"`
	MaxPlayers int    `gorm:"not null;default:8"`
	// ActiveGameID records which game the room currently points at; null for
	// rooms that never started one.
	ActiveGameID *uint     `gorm:"index"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
	Members    []Member
	Questions  []Question
	Games      []Game
	Events     []Event
}

type Member struct {
	ID        uint      `gorm:"primaryKey"`
	RoomID    uint      `gorm:"index;not null;uniqueIndex:idx_members_room_name"`
	Name      string    `gorm:"size:64;not null;uniqueIndex:idx_members_room_name"`
	Role      string    `gorm:"size:16;not null"`
	JoinedAt  time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Answers   []Answer
	Scores    []Score
}

type Question struct {
	ID        uint      `gorm:"primaryKey"`
	RoomID    uint      `gorm:"index;not null"`
	MemberID  *uint     `gorm:"index"`
	Text      string    `gorm:"size:280;not null"`
	Approved  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Answers   []Answer
}

type Answer struct {
	ID         uint      `gorm:"primaryKey"`
	QuestionID uint      `gorm:"index;not null;uniqueIndex:idx_answers_question_member"`
	MemberID   uint      `gorm:"index;not null;uniqueIndex:idx_answers_question_member"`
	Text       string    `gorm:"size:280;not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

type Game struct {
	ID               uint   `gorm:"primaryKey"`
	RoomID           uint   `gorm:"index;not null"`
	Status           string `gorm:"size:32;not null"`
	TurnIndex        int    `gorm:"not null;default:0"`
	CurrentMemberID  *uint  `gorm:"index"`
	PairCount        int    `gorm:"not null;default:8"`
	BoardSize        int    `gorm:"not null;default:16"`
	Mode             string `gorm:"size:16;not null"`
	TurnSeconds      int    `gorm:"not null;default:20"`
	ExtraTurnOnMatch bool   `gorm:"not null;default:true"`
	AuthorGuessBonus bool   `gorm:"not null;default:false"`
	StartedAt        *time.Time
	CompletedAt      *time.Time
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
	Cards            []Card
	Turns            []Turn
	Scores           []Score
}

type Card struct {
	ID         uint      `gorm:"primaryKey"`
	UID        string    `gorm:"size:36;uniqueIndex;not null"`
	GameID     uint      `gorm:"index;not null;uniqueIndex:idx_cards_game_position"`
	QuestionID uint      `gorm:"index;not null"`
	AnswerID   uint      `gorm:"index;not null"`
	Position   int       `gorm:"not null;uniqueIndex:idx_cards_game_position"`
	State      string    `gorm:"size:16;not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

type Turn struct {
	ID         uint           `gorm:"primaryKey"`
	UID        string         `gorm:"size:36;uniqueIndex;not null"`
	GameID     uint           `gorm:"index;not null"`
	MemberID   uint           `gorm:"index;not null"`
	Picks      datatypes.JSON `gorm:"type:jsonb;not null"`
	Resolved   bool           `gorm:"not null;default:false"`
	Correct    bool           `gorm:"not null;default:false"`
	StartedAt  time.Time      `gorm:"not null"`
	ResolvedAt *time.Time
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

type Score struct {
	ID        uint      `gorm:"primaryKey"`
	GameID    uint      `gorm:"index;not null;uniqueIndex:idx_scores_game_member"`
	MemberID  uint      `gorm:"index;not null;uniqueIndex:idx_scores_game_member"`
	Points    int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	RoomID    uint           `gorm:"index;not null"`
	GameID    *uint          `gorm:"index"`
	MemberID  *uint          `gorm:"index"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
