package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
)

type wsHub struct {
	mu    sync.Mutex
	rooms map[string]map[*websocket.Conn]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{
		rooms: make(map[string]map[*websocket.Conn]struct{}),
	}
}

func (h *wsHub) Add(roomID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.rooms[roomID]
	if group == nil {
		group = make(map[*websocket.Conn]struct{})
		h.rooms[roomID] = group
	}
	group[conn] = struct{}{}
}

func (h *wsHub) Remove(roomID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.rooms[roomID]
	if group == nil {
		return
	}
	delete(group, conn)
	_ = conn.Close()
	if len(group) == 0 {
		delete(h.rooms, roomID)
	}
}

func (h *wsHub) Send(conn *websocket.Conn, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

func (h *wsHub) Broadcast(roomID string, payload any) {
	h.mu.Lock()
	group := h.rooms[roomID]
	conns := make([]*websocket.Conn, 0, len(group))
	for conn := range group {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.Remove(roomID, conn)
		}
	}
}

func (s *Server) broadcastGameUpdate(room *Room) {
	payload := map[string]any{
		"room": roomSnapshot(room),
	}
	if game := activeGame(room); game != nil {
		payload["game"] = gameSnapshot(room, game)
	}
	s.ws.Broadcast(room.ID, payload)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	room, ok := s.store.FindRoomByCode(normalizeRoomCode(r.PathValue("code")))
	if !ok {
		http.NotFound(w, r)
		return
	}
	memberID, _ := strconv.Atoi(r.URL.Query().Get("member_id"))
	if memberID > 0 {
		_, _ = s.store.UpdateRoom(room.ID, func(room *Room) error {
			if member, ok := findMember(room, memberID); ok {
				member.Disconnected = false
			}
			return nil
		})
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	log.Printf("ws connected room_id=%s member_id=%d remote=%s", room.ID, memberID, r.RemoteAddr)
	s.ws.Add(room.ID, conn)
	payload := map[string]any{
		"room": roomSnapshot(room),
	}
	if game := activeGame(room); game != nil {
		payload["game"] = gameSnapshot(room, game)
	}
	s.ws.Send(conn, payload)
	go s.readWS(room.ID, memberID, conn)
}

// readWS drains the connection; the read error on close is the disconnect
// signal that feeds the engine's forced-resolution path.
func (s *Server) readWS(roomID string, memberID int, conn *websocket.Conn) {
	defer s.ws.Remove(roomID, conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Printf("ws disconnected room_id=%s member_id=%d error=%v", roomID, memberID, err)
			break
		}
	}
	if memberID > 0 {
		s.HandleDisconnect(roomID, memberID)
	}
}
