package server

import (
	"encoding/json"
	"log"
	"net/http"

	"concentration/internal/db"
)

func (s *Server) handleAdminRestoreRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.restoreRoomFromDB(r.PathValue("code"))
	if err != nil {
		log.Printf("room restore failed code=%s error=%v", r.PathValue("code"), err)
		writeError(w, http.StatusNotFound, "room could not be restored")
		return
	}
	log.Printf("room restored room_id=%s code=%s members=%d", room.ID, room.Code, len(room.Members))
	writeJSON(w, http.StatusOK, roomSnapshot(room))
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	room, ok := s.roomByCode(w, r)
	if !ok {
		return
	}
	page, perPage := parsePagination(r, 50, 200)
	events := make([]map[string]any, 0, perPage)
	var total int64
	if s.db != nil && room.DBID != 0 {
		if err := s.db.Model(&db.Event{}).Where("room_id = ?", room.DBID).Count(&total).Error; err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load events")
			return
		}
		var records []db.Event
		err := s.db.Where("room_id = ?", room.DBID).
			Order("id asc").
			Offset((page - 1) * perPage).
			Limit(perPage).
			Find(&records).Error
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load events")
			return
		}
		for _, record := range records {
			event := map[string]any{
				"id":         record.ID,
				"type":       record.Type,
				"created_at": record.CreatedAt,
			}
			if record.GameID != nil {
				event["game_id"] = *record.GameID
			}
			if record.MemberID != nil {
				event["member_id"] = *record.MemberID
			}
			if len(record.Payload) > 0 {
				event["payload"] = json.RawMessage(record.Payload)
			}
			events = append(events, event)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events":     events,
		"pagination": buildPaginationData(page, perPage, total),
	})
}
