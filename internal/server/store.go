package server

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Store holds all live rooms. Every read-then-write operation against a room
// runs inside UpdateRoom, which serializes it under the store mutex; that
// critical section is the transaction boundary the turn engine relies on.
type Store struct {
	mu             sync.Mutex
	nextID         int
	nextMemberID   int
	nextQuestionID int
	nextAnswerID   int
	rooms          map[string]*Room
}

func NewStore() *Store {
	return &Store{
		nextID:         1,
		nextMemberID:   1,
		nextQuestionID: 1,
		nextAnswerID:   1,
		rooms:          make(map[string]*Room),
	}
}

func (s *Store) CreateRoom(hostName string, maxPlayers int) (*Room, *Member) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprintf("room-%d", s.nextID)
	s.nextID++
	room := &Room{
		ID:         id,
		Code:       newRoomCode(),
		Status:     roomLobby,
		MaxPlayers: maxPlayers,
	}
	host := Member{
		ID:       s.nextMemberID,
		Name:     hostName,
		Role:     roleHost,
		JoinedAt: timeNowUTC(),
	}
	s.nextMemberID++
	room.Members = append(room.Members, host)
	room.HostID = host.ID
	s.rooms[id] = room
	return room, &room.Members[0]
}

func (s *Store) GetRoom(id string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	return room, ok
}

func (s *Store) FindRoomByCode(code string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findByCodeLocked(code)
}

func (s *Store) findByCodeLocked(code string) (*Room, bool) {
	for _, room := range s.rooms {
		if room.Code == code {
			return room, true
		}
	}
	return nil, false
}

func (s *Store) UpdateRoom(id string, update func(room *Room) error) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, errRoomNotFound
	}
	if err := update(room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *Store) UpdateRoomID(room *Room, newID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room.ID == newID {
		return
	}
	delete(s.rooms, room.ID)
	room.ID = newID
	s.rooms[newID] = room
}

// AddMember joins a room by ID or code. A member rejoining under the same
// name reclaims their existing seat regardless of room status. Players past
// MaxPlayers join as spectators.
func (s *Store) AddMember(roomIDOrCode, name, role string) (*Room, *Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomIDOrCode]
	if !ok {
		room, ok = s.findByCodeLocked(roomIDOrCode)
	}
	if !ok {
		return nil, nil, errRoomNotFound
	}
	if room.Status == roomEnded {
		return nil, nil, errors.New("room has ended")
	}

	for i := range room.Members {
		if room.Members[i].Name == name {
			room.Members[i].Disconnected = false
			return room, &room.Members[i], nil
		}
	}

	if role == "" || role == roleHost {
		role = rolePlayer
	}
	if role == rolePlayer && room.MaxPlayers > 0 && countPlayers(room) >= room.MaxPlayers {
		role = roleSpectator
	}
	member := Member{
		ID:       s.nextMemberID,
		Name:     name,
		Role:     role,
		JoinedAt: timeNowUTC(),
	}
	s.nextMemberID++
	room.Members = append(room.Members, member)
	return room, &room.Members[len(room.Members)-1], nil
}

// RestoreRoom registers a room rebuilt from persistence and advances the ID
// counters past everything the room carries, so later allocations cannot
// collide with restored records.
func (s *Store) RestoreRoom(room *Room) error {
	if room == nil {
		return errors.New("room is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.ID]; ok {
		return errors.New("room already loaded")
	}
	if _, ok := s.findByCodeLocked(room.Code); ok {
		return errors.New("room already loaded")
	}
	s.rooms[room.ID] = room
	if id := roomSortKey(room.ID); id >= s.nextID {
		s.nextID = id + 1
	}
	for i := range room.Members {
		if room.Members[i].ID >= s.nextMemberID {
			s.nextMemberID = room.Members[i].ID + 1
		}
	}
	for i := range room.Questions {
		if room.Questions[i].ID >= s.nextQuestionID {
			s.nextQuestionID = room.Questions[i].ID + 1
		}
		for _, answer := range room.Questions[i].Answers {
			if answer.ID >= s.nextAnswerID {
				s.nextAnswerID = answer.ID + 1
			}
		}
	}
	return nil
}

func (s *Store) NextQuestionID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextQuestionID
	s.nextQuestionID++
	return id
}

// ReserveQuestionIDs allocates a contiguous block of question IDs up front,
// for callers that mint questions inside an UpdateRoom closure.
func (s *Store) ReserveQuestionIDs(count int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, count)
	for i := 0; i < count; i++ {
		ids = append(ids, s.nextQuestionID)
		s.nextQuestionID++
	}
	return ids
}

func (s *Store) NextAnswerID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextAnswerID
	s.nextAnswerID++
	return id
}

func (s *Store) ListRoomSummaries() []RoomSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]RoomSummary, 0, len(s.rooms))
	for _, room := range s.rooms {
		list = append(list, RoomSummary{
			ID:      room.ID,
			Code:    room.Code,
			Status:  room.Status,
			Members: len(room.Members),
		})
	}
	sort.Slice(list, func(i, j int) bool {
		return roomSortKey(list[i].ID) < roomSortKey(list[j].ID)
	})
	return list
}

func roomSortKey(id string) int {
	parts := strings.Split(id, "-")
	if len(parts) < 2 {
		return 0
	}
	value, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0
	}
	return value
}

func (s *Store) GetMember(roomID string, memberID int) (*Room, *Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, nil, false
	}
	for i := range room.Members {
		if room.Members[i].ID == memberID {
			return room, &room.Members[i], true
		}
	}
	return room, nil, false
}

func findMember(room *Room, memberID int) (*Member, bool) {
	for i := range room.Members {
		if room.Members[i].ID == memberID {
			return &room.Members[i], true
		}
	}
	return nil, false
}

// orderedPlayers is the turn order: host and player roles by join time,
// spectators excluded.
func orderedPlayers(room *Room) []*Member {
	players := make([]*Member, 0, len(room.Members))
	for i := range room.Members {
		if room.Members[i].Role == roleSpectator {
			continue
		}
		players = append(players, &room.Members[i])
	}
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].JoinedAt.Before(players[j].JoinedAt)
	})
	return players
}

func countPlayers(room *Room) int {
	count := 0
	for i := range room.Members {
		if room.Members[i].Role != roleSpectator {
			count++
		}
	}
	return count
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
