package server

import (
	"testing"
	"time"

	"concentration/internal/config"
)

func timedOutGame(t *testing.T, srv *Server) (*Room, *GameState, string) {
	t.Helper()
	room, _ := srv.store.CreateRoom("Ada", 8)
	if _, _, err := srv.store.AddMember(room.ID, "Ben", rolePlayer); err != nil {
		t.Fatalf("join: %v", err)
	}
	game := startedGame(t, room, testSettings(2))

	cardA, _ := mismatchedPair(t, game)
	if _, err := flipCard(room, game, game.CurrentPlayerID, cardA); err != nil {
		t.Fatalf("flip: %v", err)
	}
	return room, game, openTurn(game).ID
}

func TestTimeoutTurnForcesOpenTurn(t *testing.T) {
	srv := New(nil, config.Default())
	room, game, turnID := timedOutGame(t, srv)
	holder := game.CurrentPlayerID

	if err := srv.TimeoutTurn(room.ID, turnID); err != nil {
		t.Fatalf("timeout: %v", err)
	}
	turn, _ := findTurn(game, turnID)
	if !turn.Resolved || turn.Correct {
		t.Fatalf("expected forced incorrect resolution, got %+v", turn)
	}
	if game.CurrentPlayerID == holder {
		t.Fatalf("timeout must advance the turn")
	}
}

func TestTimeoutTurnIsIdempotent(t *testing.T) {
	srv := New(nil, config.Default())
	room, game, turnID := timedOutGame(t, srv)

	if err := srv.TimeoutTurn(room.ID, turnID); err != nil {
		t.Fatalf("first timeout: %v", err)
	}
	indexAfter := game.TurnIndex
	holderAfter := game.CurrentPlayerID
	if err := srv.TimeoutTurn(room.ID, turnID); err != nil {
		t.Fatalf("second timeout: %v", err)
	}
	if game.TurnIndex != indexAfter || game.CurrentPlayerID != holderAfter {
		t.Fatalf("second timeout changed state")
	}
	if err := srv.TimeoutTurn(room.ID, "no-such-turn"); err != nil {
		t.Fatalf("unknown turn must be a no-op, got %v", err)
	}
}

func TestTimeoutTurnForfeitsPendingGuess(t *testing.T) {
	srv := New(nil, config.Default())
	room, _ := srv.store.CreateRoom("Ada", 8)
	if _, _, err := srv.store.AddMember(room.ID, "Ben", rolePlayer); err != nil {
		t.Fatalf("join: %v", err)
	}
	settings := testSettings(2)
	settings.AuthorGuessBonus = true
	game := startedGame(t, room, settings)
	holder := game.CurrentPlayerID

	cardA, cardB := matchingPair(t, game)
	if _, err := flipCard(room, game, holder, cardA); err != nil {
		t.Fatalf("flip: %v", err)
	}
	result, err := flipCard(room, game, holder, cardB)
	if err != nil {
		t.Fatalf("flip: %v", err)
	}
	if !result.AwaitingGuess {
		t.Fatalf("expected pending author guess")
	}

	if err := srv.TimeoutTurn(room.ID, result.Turn.ID); err != nil {
		t.Fatalf("timeout: %v", err)
	}
	if guessPendingTurn(game) != nil {
		t.Fatalf("pending guess not cleared")
	}
	if game.CurrentPlayerID == holder {
		t.Fatalf("forfeited guess must advance the turn")
	}
	if score, _ := findScore(game, holder); score.Points != 1 {
		t.Fatalf("match point must survive the forfeit, got %d", score.Points)
	}
}

// A match with extra-turn keeps the turn index but opens a new timer window.
// A timer armed for the old window that fires late must leave the fresh turn
// alone.
func TestStaleTimerFireIgnoresKeptTurn(t *testing.T) {
	srv := New(nil, config.Default())
	room, _ := srv.store.CreateRoom("Ada", 8)
	if _, _, err := srv.store.AddMember(room.ID, "Ben", rolePlayer); err != nil {
		t.Fatalf("join: %v", err)
	}
	game := startedGame(t, room, testSettings(3))
	holder := game.CurrentPlayerID
	staleSerial := game.TurnSerial

	cardA, cardB := matchingPair(t, game)
	if _, err := flipCard(room, game, holder, cardA); err != nil {
		t.Fatalf("flip: %v", err)
	}
	result, err := flipCard(room, game, holder, cardB)
	if err != nil {
		t.Fatalf("flip: %v", err)
	}
	if !result.Match || result.Advanced {
		t.Fatalf("expected a kept turn, got %+v", result)
	}
	if game.TurnSerial == staleSerial {
		t.Fatalf("kept turn must open a new timer window")
	}

	pick, _ := mismatchedPair(t, game)
	if _, err := flipCard(room, game, holder, pick); err != nil {
		t.Fatalf("flip: %v", err)
	}
	freshID := openTurn(game).ID

	srv.turnTimerExpired(room.ID, staleSerial)

	if turn, _ := findTurn(game, freshID); turn.Resolved {
		t.Fatalf("stale fire resolved the fresh turn")
	}
	if game.CurrentPlayerID != holder {
		t.Fatalf("stale fire moved the turn")
	}
	if card, _ := findCard(game, pick); card.State != cardFaceUp {
		t.Fatalf("stale fire touched the flipped card")
	}

	srv.turnTimerExpired(room.ID, game.TurnSerial)
	turn, _ := findTurn(game, freshID)
	if !turn.Resolved || game.CurrentPlayerID == holder {
		t.Fatalf("current-window fire must force the open turn")
	}
}

func TestStaleTimerFireKeepsPendingGuess(t *testing.T) {
	srv := New(nil, config.Default())
	room, _ := srv.store.CreateRoom("Ada", 8)
	if _, _, err := srv.store.AddMember(room.ID, "Ben", rolePlayer); err != nil {
		t.Fatalf("join: %v", err)
	}
	settings := testSettings(2)
	settings.AuthorGuessBonus = true
	game := startedGame(t, room, settings)
	holder := game.CurrentPlayerID
	staleSerial := game.TurnSerial

	cardA, cardB := matchingPair(t, game)
	if _, err := flipCard(room, game, holder, cardA); err != nil {
		t.Fatalf("flip: %v", err)
	}
	result, err := flipCard(room, game, holder, cardB)
	if err != nil {
		t.Fatalf("flip: %v", err)
	}
	if !result.AwaitingGuess {
		t.Fatalf("expected pending author guess")
	}

	srv.turnTimerExpired(room.ID, staleSerial)

	if guessPendingTurn(game) == nil {
		t.Fatalf("stale fire forfeited the pending guess")
	}
	if game.CurrentPlayerID != holder {
		t.Fatalf("stale fire moved the turn")
	}
}

func TestFlipBackRevertsOnlyFaceUpCards(t *testing.T) {
	srv := New(nil, config.Default())
	room, _ := srv.store.CreateRoom("Ada", 8)
	if _, _, err := srv.store.AddMember(room.ID, "Ben", rolePlayer); err != nil {
		t.Fatalf("join: %v", err)
	}
	game := startedGame(t, room, testSettings(3))
	holder := game.CurrentPlayerID

	cardA, cardB := mismatchedPair(t, game)
	if _, err := flipCard(room, game, holder, cardA); err != nil {
		t.Fatalf("flip: %v", err)
	}
	result, err := flipCard(room, game, holder, cardB)
	if err != nil {
		t.Fatalf("flip: %v", err)
	}
	if len(result.FlipBack) != 2 {
		t.Fatalf("expected two cards awaiting flip-back, got %v", result.FlipBack)
	}

	// One listed card got matched before the delay elapsed.
	first, _ := findCard(game, result.FlipBack[0])
	first.State = cardMatched

	srv.flipBackCards(room.ID, result.FlipBack)

	if first.State != cardMatched {
		t.Fatalf("flip-back must not touch a matched card")
	}
	if second, _ := findCard(game, result.FlipBack[1]); second.State != cardFaceDown {
		t.Fatalf("mismatched card not reverted, state=%s", second.State)
	}
}

func TestFlipBackFiresAfterDelay(t *testing.T) {
	cfg := config.Default()
	cfg.FlipBackDelayMs = 5
	srv := New(nil, cfg)
	room, _ := srv.store.CreateRoom("Ada", 8)
	if _, _, err := srv.store.AddMember(room.ID, "Ben", rolePlayer); err != nil {
		t.Fatalf("join: %v", err)
	}
	game := startedGame(t, room, testSettings(2))
	holder := game.CurrentPlayerID

	cardA, cardB := mismatchedPair(t, game)
	if _, _, err := srv.FlipCard(room.ID, holder, cardA); err != nil {
		t.Fatalf("flip: %v", err)
	}
	_, result, err := srv.FlipCard(room.ID, holder, cardB)
	if err != nil {
		t.Fatalf("flip: %v", err)
	}
	if len(result.FlipBack) != 2 {
		t.Fatalf("expected two cards awaiting flip-back, got %v", result.FlipBack)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		down := 0
		_, err := srv.store.UpdateRoom(room.ID, func(room *Room) error {
			game := activeGame(room)
			for _, id := range result.FlipBack {
				if card, ok := findCard(game, id); ok && card.State == cardFaceDown {
					down++
				}
			}
			return nil
		})
		if err != nil {
			t.Fatalf("read room: %v", err)
		}
		if down == len(result.FlipBack) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("cards not reverted after the delay")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDisconnectForcesHeldTurn(t *testing.T) {
	srv := New(nil, config.Default())
	room, game, turnID := timedOutGame(t, srv)
	holder := game.CurrentPlayerID

	srv.HandleDisconnect(room.ID, holder)
	member, _ := findMember(room, holder)
	if !member.Disconnected {
		t.Fatalf("member not marked disconnected")
	}
	turn, _ := findTurn(game, turnID)
	if !turn.Resolved {
		t.Fatalf("held turn not force-resolved on disconnect")
	}
	if game.CurrentPlayerID == holder {
		t.Fatalf("turn must pass on after disconnect")
	}
}

func TestDisconnectOffTurnOnlyMarksMember(t *testing.T) {
	srv := New(nil, config.Default())
	room, _ := srv.store.CreateRoom("Ada", 8)
	if _, _, err := srv.store.AddMember(room.ID, "Ben", rolePlayer); err != nil {
		t.Fatalf("join: %v", err)
	}
	game := startedGame(t, room, testSettings(2))
	players := orderedPlayers(room)
	offTurn := players[1].ID
	if offTurn == game.CurrentPlayerID {
		offTurn = players[0].ID
	}

	srv.HandleDisconnect(room.ID, offTurn)
	member, _ := findMember(room, offTurn)
	if !member.Disconnected {
		t.Fatalf("member not marked disconnected")
	}
	if game.TurnIndex != 0 {
		t.Fatalf("off-turn disconnect must not move the game")
	}
}
