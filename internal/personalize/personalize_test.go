package personalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/prospector/internal/models"
)

func TestConnectionMessagePrecedence(t *testing.T) {
	lead := &models.Lead{
		FirstName:     "Jane",
		Company:       "Initech",
		JobTitle:      "Senior Engineer",
		Industry:      "fintech",
		LastPostTopic: "observability",
	}

	// topic wins over industry
	msg := ConnectionMessage(lead)
	assert.Contains(t, msg, "Jane")
	assert.Contains(t, msg, "Senior Engineer")

	lead.LastPostTopic = ""
	msg = ConnectionMessage(lead)
	assert.Contains(t, msg, "fintech")

	lead.Industry = ""
	msg = ConnectionMessage(lead)
	assert.Contains(t, msg, "Initech")
}

func TestConnectionMessageFallbacks(t *testing.T) {
	msg := ConnectionMessage(&models.Lead{})
	assert.Contains(t, msg, "Hi there,")
	assert.Contains(t, msg, "your company")
	assert.NotContains(t, msg, "{firstName}")
	assert.NotContains(t, msg, "{company}")
}

func TestFollowUp(t *testing.T) {
	lead := &models.Lead{FirstName: "Jane", JobTitle: "CTO"}
	msg := FollowUp(lead, 1)
	assert.Contains(t, msg, "Jane")
	assert.Contains(t, msg, "CTO")

	assert.Empty(t, FollowUp(lead, 2))
}
