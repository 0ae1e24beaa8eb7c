package server

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

func testRNG() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

// testRoom builds a room with the given player names, host first.
func testRoom(t *testing.T, names ...string) *Room {
	t.Helper()
	if len(names) == 0 {
		t.Fatalf("testRoom needs at least a host name")
	}
	store := NewStore()
	room, _ := store.CreateRoom(names[0], 8)
	for _, name := range names[1:] {
		if _, _, err := store.AddMember(room.ID, name, rolePlayer); err != nil {
			t.Fatalf("add member %s: %v", name, err)
		}
	}
	return room
}

// fillPool adds count questions, each answered by the first two members, so
// the pool qualifies for a board of count pairs.
func fillPool(t *testing.T, room *Room, count int) {
	t.Helper()
	if len(room.Members) < 2 {
		t.Fatalf("pool needs two members for distinct answers")
	}
	nextQuestion := 1000 + len(room.Questions)
	nextAnswer := 2000 + 2*len(room.Questions)
	for i := 0; i < count; i++ {
		question := addQuestion(room, nextQuestion, "question", room.Members[0].ID, true)
		nextQuestion++
		for j := 0; j < 2; j++ {
			upsertAnswer(question, nextAnswer, room.Members[j].ID, "answer")
			nextAnswer++
		}
	}
}

// startedGame assembles a board of pairCount pairs and starts the game.
func startedGame(t *testing.T, room *Room, settings GameSettings) *GameState {
	t.Helper()
	fillPool(t, room, settings.PairCount)
	game := newGame(room, settings)
	room.Status = roomCollecting
	if err := assembleBoard(room, game, testRNG()); err != nil {
		t.Fatalf("assemble board: %v", err)
	}
	if err := startGame(room, game); err != nil {
		t.Fatalf("start game: %v", err)
	}
	return game
}

func testSettings(pairCount int) GameSettings {
	return GameSettings{
		Mode:             modePlayer,
		PairCount:        pairCount,
		BoardSize:        pairCount * 2,
		TurnSeconds:      20,
		ExtraTurnOnMatch: true,
	}
}

// matchingPair returns two face-down cards sharing a question.
func matchingPair(t *testing.T, game *GameState) (string, string) {
	t.Helper()
	byQuestion := map[int][]string{}
	for i := range game.Cards {
		card := &game.Cards[i]
		if card.State != cardFaceDown {
			continue
		}
		byQuestion[card.QuestionID] = append(byQuestion[card.QuestionID], card.ID)
	}
	for _, ids := range byQuestion {
		if len(ids) == 2 {
			return ids[0], ids[1]
		}
	}
	t.Fatalf("no matching pair available")
	return "", ""
}

// mismatchedPair returns two face-down cards from different questions.
func mismatchedPair(t *testing.T, game *GameState) (string, string) {
	t.Helper()
	for i := range game.Cards {
		for j := range game.Cards {
			first, second := &game.Cards[i], &game.Cards[j]
			if first.State != cardFaceDown || second.State != cardFaceDown {
				continue
			}
			if first.QuestionID != second.QuestionID {
				return first.ID, second.ID
			}
		}
	}
	t.Fatalf("no mismatched pair available")
	return "", ""
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func createRoom(t *testing.T, ts *httptest.Server, hostName string) (string, int) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/rooms", map[string]any{"name": hostName})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return body["room_code"].(string), int(body["member_id"].(float64))
}

func joinRoom(t *testing.T, ts *httptest.Server, code, name string) int {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+code+"/join", map[string]any{"name": name})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return int(body["member_id"].(float64))
}
