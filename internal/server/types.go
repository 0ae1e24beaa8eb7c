package server

import "time"

const (
	roomLobby      = "lobby"
	roomCollecting = "collecting"
	roomPlaying    = "playing"
	roomEnded      = "ended"
)

const (
	gameCollecting = "collecting"
	gameReady      = "ready"
	gameActive     = "active"
	gameComplete   = "complete"
)

const (
	cardFaceDown = "faceDown"
	cardFaceUp   = "faceUp"
	cardMatched  = "matched"
)

const (
	roleHost      = "host"
	rolePlayer    = "player"
	roleSpectator = "spectator"
)

const (
	modeCurated = "curated"
	modePlayer  = "player"
)

const maxPicksPerTurn = 2

type RoomSummary struct {
	ID      string
	Code    string
	Status  string
	Members int
}

type Room struct {
	ID           string
	DBID         uint
	Code         string
	Status       string
	HostID       int
	MaxPlayers   int
	Members      []Member
	Questions    []Question
	Games        []GameState
	ActiveGameID int
}

type Member struct {
	ID           int
	DBID         uint
	Name         string
	Role         string
	JoinedAt     time.Time
	Disconnected bool
}

type Question struct {
	ID        int
	DBID      uint
	Text      string
	CreatedBy int
	Approved  bool
	Answers   []Answer
}

type Answer struct {
	ID        int
	DBID      uint
	Text      string
	CreatedBy int
}

type GameSettings struct {
	Mode             string
	PairCount        int
	BoardSize        int
	TurnSeconds      int
	CollectSeconds   int
	ExtraTurnOnMatch bool
	AuthorGuessBonus bool
}

type GameState struct {
	ID     int
	DBID   uint
	Status string
	// TurnIndex counts advances between players. TurnSerial bumps whenever a
	// new turn window opens, including a kept turn after a match, so it is
	// what timer callbacks compare to detect a stale fire.
	TurnIndex       int
	TurnSerial      int
	CurrentPlayerID int
	Settings        GameSettings
	StartedAt       time.Time
	CompletedAt     time.Time
	Cards           []Card
	Turns           []Turn
	Scores          []Score
	// SelectedQuestionIDs records the board assembly selection order.
	SelectedQuestionIDs []int
}

type Card struct {
	ID         string
	DBID       uint
	QuestionID int
	AnswerID   int
	Position   int
	State      string
}

type Turn struct {
	ID                  string
	DBID                uint
	PlayerID            int
	Picks               []string
	Resolved            bool
	Correct             bool
	AwaitingAuthorGuess bool
	StartedAt           time.Time
	ResolvedAt          time.Time
}

type Score struct {
	DBID     uint
	PlayerID int
	Points   int
}

type AuthorGuess struct {
	CardID   string
	AuthorID int
}
