package domain_test

import (
	"testing"

	"message-orchestrator/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestMessage_SearchText(t *testing.T) {
	msg := domain.Message{
		Title:   "Quantum lecture",
		Content: "An introduction to mechanics",
		Sender:  "u/gopher",
		Chat:    "r/physics",
	}
	assert.Equal(t, "Quantum lecture An introduction to mechanics u/gopher r/physics", msg.SearchText())
}

func TestMessage_SearchText_SkipsEmptyFields(t *testing.T) {
	msg := domain.Message{Title: "Only a title"}
	assert.Equal(t, "Only a title", msg.SearchText())

	assert.Equal(t, "", domain.Message{}.SearchText())
}
