package server

import (
	"testing"
)

func TestGameSnapshotHidesFaceDownText(t *testing.T) {
	room := testRoom(t, "Ada", "Ben")
	game := startedGame(t, room, testSettings(2))
	player := game.CurrentPlayerID

	cardA, _ := matchingPair(t, game)
	if _, err := flipCard(room, game, player, cardA); err != nil {
		t.Fatalf("flip: %v", err)
	}

	snapshot := gameSnapshot(room, game)
	cards := snapshot["cards"].([]map[string]any)
	if len(cards) != 4 {
		t.Fatalf("expected 4 cards, got %d", len(cards))
	}
	for _, card := range cards {
		state := card["state"].(string)
		_, hasQuestion := card["question"]
		_, hasAnswer := card["answer"]
		if state == cardFaceDown && (hasQuestion || hasAnswer) {
			t.Fatalf("face-down card leaks text: %v", card)
		}
		if state == cardFaceUp && (!hasQuestion || !hasAnswer) {
			t.Fatalf("face-up card missing text: %v", card)
		}
	}
}

func TestGameSnapshotRevealsMatchedText(t *testing.T) {
	room := testRoom(t, "Ada", "Ben")
	game := startedGame(t, room, testSettings(2))
	player := game.CurrentPlayerID

	cardA, cardB := matchingPair(t, game)
	if _, err := flipCard(room, game, player, cardA); err != nil {
		t.Fatalf("flip: %v", err)
	}
	if _, err := flipCard(room, game, player, cardB); err != nil {
		t.Fatalf("flip: %v", err)
	}

	snapshot := gameSnapshot(room, game)
	matched := 0
	for _, card := range snapshot["cards"].([]map[string]any) {
		if card["state"].(string) != cardMatched {
			continue
		}
		matched++
		if _, ok := card["question"]; !ok {
			t.Fatalf("matched card must reveal its question: %v", card)
		}
	}
	if matched != 2 {
		t.Fatalf("expected 2 matched cards, got %d", matched)
	}
}

func TestGameSnapshotCardsOrderedByPosition(t *testing.T) {
	room := testRoom(t, "Ada", "Ben")
	game := startedGame(t, room, testSettings(2))

	snapshot := gameSnapshot(room, game)
	cards := snapshot["cards"].([]map[string]any)
	for i, card := range cards {
		if card["position"].(int) != i {
			t.Fatalf("card %d out of order: %v", i, card)
		}
	}
}

func TestGameSnapshotCurrentTurn(t *testing.T) {
	room := testRoom(t, "Ada", "Ben")
	game := startedGame(t, room, testSettings(2))
	player := game.CurrentPlayerID

	if _, ok := gameSnapshot(room, game)["current_turn"]; ok {
		t.Fatalf("no turn should be reported before the first flip")
	}
	cardA, _ := mismatchedPair(t, game)
	if _, err := flipCard(room, game, player, cardA); err != nil {
		t.Fatalf("flip: %v", err)
	}
	turn, ok := gameSnapshot(room, game)["current_turn"].(map[string]any)
	if !ok {
		t.Fatalf("open turn missing from snapshot")
	}
	if turn["member_id"].(int) != player {
		t.Fatalf("wrong turn holder: %v", turn)
	}
	if len(turn["picks"].([]string)) != 1 {
		t.Fatalf("expected one pick, got %v", turn["picks"])
	}
}
