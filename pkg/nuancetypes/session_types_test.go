package nuancetypes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeakerRole(t *testing.T) {
	assert.Equal(t, "system", SpeakerSystem.Role())
	assert.Equal(t, "user", SpeakerUser.Role())
	assert.Equal(t, "assistant", SpeakerAssistant.String())
	assert.Equal(t, "unknown", Speaker(42).Role())
}

func TestReplyResultJSON(t *testing.T) {
	data, err := json.Marshal(ReplyResult{Response: "Bye", EndedBy: EndedByUser})
	require.NoError(t, err)
	assert.JSONEq(t, `{"response":"Bye","session_active":false,"turns_left":0,"ended_by":"user"}`, string(data))
}
