package server

import (
	"math/rand"
	"net/http"
	"sync"
	"time"

	"concentration/internal/config"

	"gorm.io/gorm"
)

type Server struct {
	store    *Store
	db       *gorm.DB
	ws       *wsHub
	cfg      config.Config
	rng      *rand.Rand
	timersMu sync.Mutex
	timers   map[string]*time.Timer
}

func New(conn *gorm.DB, cfg config.Config) *Server {
	return &Server{
		store:  NewStore(),
		db:     conn,
		ws:     newWSHub(),
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		timers: make(map[string]*time.Timer),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /api/rooms", s.handleListRooms)
	mux.HandleFunc("GET /api/rooms/{code}", s.handleRoomState)
	mux.HandleFunc("POST /api/rooms/{code}/join", s.handleJoinRoom)
	mux.HandleFunc("POST /api/rooms/{code}/collect", s.handleStartCollection)
	mux.HandleFunc("POST /api/rooms/{code}/questions", s.handleSubmitQuestion)
	mux.HandleFunc("POST /api/rooms/{code}/questions/{id}/approve", s.handleApproveQuestion)
	mux.HandleFunc("POST /api/rooms/{code}/answers", s.handleSubmitAnswer)
	mux.HandleFunc("GET /api/rooms/{code}/pool", s.handleQuestionPool)
	mux.HandleFunc("POST /api/rooms/{code}/assemble", s.handleAssembleBoard)
	mux.HandleFunc("POST /api/rooms/{code}/start", s.handleStartGame)
	mux.HandleFunc("POST /api/rooms/{code}/flip", s.handleFlip)
	mux.HandleFunc("POST /api/rooms/{code}/guess-authors", s.handleAuthorGuess)
	mux.HandleFunc("POST /api/rooms/{code}/rematch", s.handleRematch)
	mux.HandleFunc("GET /api/rooms/{code}/game", s.handleGameState)
	mux.HandleFunc("GET /api/rooms/{code}/events", s.handleListEvents)
	mux.HandleFunc("POST /api/admin/rooms/{code}/restore", s.requireAdminToken(s.handleAdminRestoreRoom))
	mux.HandleFunc("GET /ws/rooms/{code}", s.handleWebsocket)
	return mux
}
