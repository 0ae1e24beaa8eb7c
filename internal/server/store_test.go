package server

import (
	"testing"
)

func TestCreateRoomSeedsHost(t *testing.T) {
	store := NewStore()
	room, host := store.CreateRoom("Ada", 8)
	if room.Status != roomLobby {
		t.Fatalf("expected lobby room, got %s", room.Status)
	}
	if host.Role != roleHost || room.HostID != host.ID {
		t.Fatalf("host not seeded: %+v", host)
	}
	if len(room.Code) != 4 {
		t.Fatalf("expected 4-char room code, got %q", room.Code)
	}
	found, ok := store.FindRoomByCode(room.Code)
	if !ok || found.ID != room.ID {
		t.Fatalf("room not findable by code")
	}
}

func TestAddMemberRejoinReclaimsSeat(t *testing.T) {
	store := NewStore()
	room, _ := store.CreateRoom("Ada", 8)
	_, ben, err := store.AddMember(room.Code, "Ben", rolePlayer)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	ben.Disconnected = true

	_, again, err := store.AddMember(room.Code, "Ben", rolePlayer)
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if again.ID != ben.ID {
		t.Fatalf("rejoin minted a new member: %d vs %d", again.ID, ben.ID)
	}
	if again.Disconnected {
		t.Fatalf("rejoin must clear the disconnected flag")
	}
	if len(room.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(room.Members))
	}
}

func TestAddMemberOverflowBecomesSpectator(t *testing.T) {
	store := NewStore()
	room, _ := store.CreateRoom("Ada", 2)
	if _, _, err := store.AddMember(room.ID, "Ben", rolePlayer); err != nil {
		t.Fatalf("join: %v", err)
	}
	_, cam, err := store.AddMember(room.ID, "Cam", rolePlayer)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if cam.Role != roleSpectator {
		t.Fatalf("expected overflow spectator, got %s", cam.Role)
	}
	players := orderedPlayers(room)
	if len(players) != 2 {
		t.Fatalf("spectator must not enter the turn order, got %d players", len(players))
	}
}

func TestUpdateRoomRejectsFailedClosure(t *testing.T) {
	store := NewStore()
	room, _ := store.CreateRoom("Ada", 8)
	wantErr := ErrGameNotActive
	_, err := store.UpdateRoom(room.ID, func(room *Room) error {
		room.Status = roomPlaying
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("expected closure error, got %v", err)
	}
	if _, err := store.UpdateRoom("missing", func(room *Room) error { return nil }); err != errRoomNotFound {
		t.Fatalf("expected errRoomNotFound, got %v", err)
	}
}

func TestRestoreRoomBumpsCounters(t *testing.T) {
	store := NewStore()
	room := &Room{
		ID:     "room-7",
		Code:   "ZZZZ",
		Status: roomLobby,
		Members: []Member{
			{ID: 41, Name: "Ada", Role: roleHost},
		},
		Questions: []Question{
			{ID: 9, Answers: []Answer{{ID: 30}}},
		},
		HostID: 41,
	}
	if err := store.RestoreRoom(room); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if err := store.RestoreRoom(room); err == nil {
		t.Fatalf("double restore must fail")
	}
	created, _ := store.CreateRoom("Ben", 8)
	if roomSortKey(created.ID) <= 7 {
		t.Fatalf("room counter not advanced: %s", created.ID)
	}
	_, member, err := store.AddMember(room.ID, "Cam", rolePlayer)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if member.ID <= 41 {
		t.Fatalf("member counter not advanced: %d", member.ID)
	}
	if id := store.NextQuestionID(); id <= 9 {
		t.Fatalf("question counter not advanced: %d", id)
	}
	if id := store.NextAnswerID(); id <= 30 {
		t.Fatalf("answer counter not advanced: %d", id)
	}
}
