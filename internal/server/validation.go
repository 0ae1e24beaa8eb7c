package server

import (
	"errors"
	"fmt"
	"strings"
)

const (
	maxNameLength     = 20
	maxQuestionLength = 200
	maxAnswerLength   = 200
)

func validateName(name string) (string, error) {
	return validateText("name", name, maxNameLength)
}

func validateQuestion(text string) (string, error) {
	return validateText("question", text, maxQuestionLength)
}

func validateAnswer(text string) (string, error) {
	return validateText("answer", text, maxAnswerLength)
}

func validateText(label, text string, maxLen int) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", fmt.Errorf("%s is required", label)
	}
	if len(trimmed) > maxLen {
		return "", fmt.Errorf("%s must be %d characters or fewer", label, maxLen)
	}
	if !isSafeText(trimmed) {
		return "", fmt.Errorf("%s contains unsupported characters", label)
	}
	return trimmed, nil
}

func validateRole(role string) (string, error) {
	switch role {
	case "", rolePlayer, roleSpectator:
		return role, nil
	default:
		return "", errors.New("role must be player or spectator")
	}
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}

func isSafeText(text string) bool {
	for _, r := range text {
		if r > 127 {
			return false
		}
		if r >= 'a' && r <= 'z' {
			continue
		}
		if r >= 'A' && r <= 'Z' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		switch r {
		case ' ', '-', '_', '\'', '"', '.', ',', '!', '?', ':', ';', '&', '(', ')', '/':
			continue
		default:
			return false
		}
	}
	return true
}
