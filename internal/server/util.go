package server

import (
	"crypto/rand"
	"strings"

	"github.com/google/uuid"
)

// normalizeRoomCode canonicalizes a client-supplied room code. Codes are
// minted upper case, so every lookup path must fold case the same way.
func normalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func newRoomCode() string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "AAAA"
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}

func newCardID() string {
	return uuid.NewString()
}

func newTurnID() string {
	return uuid.NewString()
}
