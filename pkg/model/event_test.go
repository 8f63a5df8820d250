package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistoryEventNeverMarshalsNull(t *testing.T) {
	raw, err := json.Marshal(HistoryEvent(nil))
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"history","data":{"messages":[]}}`, string(raw))
}

func TestWelcomeEventContent(t *testing.T) {
	ev := WelcomeEvent("alice")
	payload, ok := ev.Data.(WelcomePayload)
	require.True(t, ok)
	require.Equal(t, "alice", payload.UserID)
	require.Equal(t, "Welcome alice! You've joined the conversation.", payload.Content)
}

func TestPingEventHasNoData(t *testing.T) {
	raw, err := json.Marshal(PingEvent())
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"ping"}`, string(raw))
}

func TestFrameRoundTrip(t *testing.T) {
	raw := []byte(`{"type":"message","content":"hi"}`)
	var f Frame
	require.NoError(t, json.Unmarshal(raw, &f))
	require.Equal(t, EventMessage, f.Type)
	require.Equal(t, "hi", f.Content)
}
