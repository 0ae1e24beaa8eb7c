package server

import (
	"net/http"
	"strings"
	"testing"

	"concentration/internal/config"
)

// TestFullGameFlow walks the whole API surface: room setup, player-submitted
// content, board assembly, and play until someone is blocked by the rules.
func TestFullGameFlow(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	code, hostID := createRoom(t, ts, "Ada")
	benID := joinRoom(t, ts, code, "Ben")

	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+code+"/collect", map[string]any{
		"member_id": hostID,
		"mode":      "player",
		"settings":  map[string]any{"pair_count": 2},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("collect: expected 200, got %d", resp.StatusCode)
	}

	questionIDs := make([]int, 0, 2)
	for _, text := range []string{"What is your favorite color?", "What is your dream job?"} {
		resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+code+"/questions", map[string]any{
			"member_id": hostID,
			"text":      text,
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("question: expected 201, got %d", resp.StatusCode)
		}
		body := decodeBody(t, resp)
		questionIDs = append(questionIDs, int(body["question_id"].(float64)))
	}
	for _, questionID := range questionIDs {
		for _, memberID := range []int{hostID, benID} {
			resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+code+"/answers", map[string]any{
				"member_id":   memberID,
				"question_id": questionID,
				"text":        "an answer",
			})
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("answer: expected 200, got %d", resp.StatusCode)
			}
		}
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/rooms/"+code+"/pool", nil)
	pool := decodeBody(t, resp)
	progress := pool["progress"].(map[string]any)
	if progress["ready_for_board"] != true {
		t.Fatalf("pool should be ready, got %v", progress)
	}

	// Assembly and start are host-only.
	resp = doRequest(t, ts, http.MethodPost, "/api/rooms/"+code+"/assemble", map[string]any{"member_id": benID})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-host assemble: expected 403, got %d", resp.StatusCode)
	}
	resp = doRequest(t, ts, http.MethodPost, "/api/rooms/"+code+"/assemble", map[string]any{"member_id": hostID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("assemble: expected 200, got %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["card_count"].(float64) != 4 {
		t.Fatalf("expected 4 cards, got %v", body["card_count"])
	}
	resp = doRequest(t, ts, http.MethodPost, "/api/rooms/"+code+"/start", map[string]any{"member_id": hostID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: expected 200, got %d", resp.StatusCode)
	}
	current := int(decodeBody(t, resp)["current_player_id"].(float64))
	if current != hostID {
		t.Fatalf("host joined first and should open the game, got %d", current)
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/rooms/"+code+"/game", nil)
	game := decodeBody(t, resp)
	cards := game["cards"].([]any)
	if len(cards) != 4 {
		t.Fatalf("expected 4 cards in snapshot, got %d", len(cards))
	}
	firstCard := cards[0].(map[string]any)
	if _, leaked := firstCard["question"]; leaked {
		t.Fatalf("face-down card leaks its question: %v", firstCard)
	}

	// Playing out of turn is rejected.
	resp = doRequest(t, ts, http.MethodPost, "/api/rooms/"+code+"/flip", map[string]any{
		"member_id": benID,
		"card_id":   firstCard["card_id"],
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("off-turn flip: expected 409, got %d", resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/rooms/"+code+"/flip", map[string]any{
		"member_id": hostID,
		"card_id":   firstCard["card_id"],
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("flip: expected 200, got %d", resp.StatusCode)
	}
	flip := decodeBody(t, resp)
	if flip["pick_count"].(float64) != 1 || flip["turn_resolved"].(bool) {
		t.Fatalf("unexpected flip result: %v", flip)
	}

	// The flipped card is revealed to everyone in the next read.
	resp = doRequest(t, ts, http.MethodGet, "/api/rooms/"+code+"/game", nil)
	game = decodeBody(t, resp)
	revealed := 0
	for _, entry := range game["cards"].([]any) {
		card := entry.(map[string]any)
		if card["state"] == cardFaceUp {
			revealed++
			if _, ok := card["question"]; !ok {
				t.Fatalf("face-up card not revealed: %v", card)
			}
		}
	}
	if revealed != 1 {
		t.Fatalf("expected one face-up card, got %d", revealed)
	}
}

func TestJoinValidation(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	code, _ := createRoom(t, ts, "Ada")
	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+code+"/join", map[string]any{"name": ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty name: expected 400, got %d", resp.StatusCode)
	}
	resp = doRequest(t, ts, http.MethodPost, "/api/rooms/ZZZZ/join", map[string]any{"name": "Ben"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown room: expected 404, got %d", resp.StatusCode)
	}
}

// Codes are minted upper case, but clients type them by hand.
func TestJoinWithLowercaseCode(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	code, _ := createRoom(t, ts, "Ada")
	lower := strings.ToLower(code)

	benID := joinRoom(t, ts, lower, "Ben")
	if benID == 0 {
		t.Fatalf("lower-cased code must join the same room")
	}
	resp := doRequest(t, ts, http.MethodGet, "/api/rooms/"+lower, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("lower-cased lookup: expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["room_code"] != code {
		t.Fatalf("expected canonical code %q, got %v", code, body["room_code"])
	}
}

func TestCuratedCollectionSeedsPool(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	code, hostID := createRoom(t, ts, "Ada")
	joinRoom(t, ts, code, "Ben")

	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+code+"/collect", map[string]any{
		"member_id": hostID,
		"mode":      "curated",
		"settings":  map[string]any{"pair_count": 3},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("collect: expected 200, got %d", resp.StatusCode)
	}
	resp = doRequest(t, ts, http.MethodGet, "/api/rooms/"+code+"/pool", nil)
	pool := decodeBody(t, resp)
	questions := pool["questions"].([]any)
	if len(questions) != 3 {
		t.Fatalf("expected 3 curated questions, got %d", len(questions))
	}
	for _, entry := range questions {
		question := entry.(map[string]any)
		if question["created_by"].(float64) != 0 {
			t.Fatalf("curated question must have no author: %v", question)
		}
	}
}

func TestAdminRestoreRequiresToken(t *testing.T) {
	cfg := config.Default()
	cfg.AdminToken = "secret"
	srv := New(nil, cfg)
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	resp := doRequest(t, ts, http.MethodPost, "/api/admin/rooms/ABCD/restore", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", resp.StatusCode)
	}
}

func TestListEventsWithoutDatabase(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	code, _ := createRoom(t, ts, "Ada")
	resp := doRequest(t, ts, http.MethodGet, "/api/rooms/"+code+"/events", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("events: expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if events := body["events"].([]any); len(events) != 0 {
		t.Fatalf("expected no events without persistence, got %d", len(events))
	}
}
