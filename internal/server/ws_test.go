package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nuance/internal/testutils"
)

func dialWS(t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(env.handler)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendWS(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Message{Type: msgType, Payload: data}))
}

func readWS(t *testing.T, conn *websocket.Conn) (string, map[string]any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	var payload map[string]any
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	return msg.Type, payload
}

func TestWebSocket_Interview(t *testing.T) {
	env := newTestEnv(t)
	env.interview.Push(testutils.Step{Text: "How are you feeling today?"})
	conn := dialWS(t, env)

	sendWS(t, conn, TypeSessionStart, map[string]string{"session_id": "ws1", "mood": "calm"})
	typ, p := readWS(t, conn)
	require.Equal(t, TypeSessionStarted, typ)
	assert.Equal(t, "How are you feeling today?", p["response"])
	assert.Equal(t, float64(5), p["turns_left"])

	sendWS(t, conn, TypeSessionStart, map[string]string{"session_id": "ws1", "mood": "calm"})
	typ, p = readWS(t, conn)
	require.Equal(t, TypeError, typ)
	assert.Equal(t, "session_exists", p["code"])

	sendWS(t, conn, TypeSessionReply, map[string]string{"session_id": "ws1", "user_input": "Quiet morning."})
	typ, p = readWS(t, conn)
	require.Equal(t, TypeSessionReplied, typ)
	assert.Equal(t, "ws1", p["session_id"])
	assert.Equal(t, "What happened next?", p["response"])
	assert.Equal(t, float64(4), p["turns_left"])

	sendWS(t, conn, TypeSessionHistory, map[string]string{"session_id": "ws1"})
	typ, p = readWS(t, conn)
	require.Equal(t, TypeSessionHistory, typ)
	assert.Len(t, p["history"], 4)
	assert.NotContains(t, p, "ended_by")

	sendWS(t, conn, TypeSessionEnd, map[string]string{"session_id": "ws1"})
	typ, p = readWS(t, conn)
	require.Equal(t, TypeSessionEnded, typ)
	assert.Equal(t, "ws1", p["session_id"])

	sendWS(t, conn, TypeSessionReply, map[string]string{"session_id": "ws1", "user_input": "hi"})
	typ, p = readWS(t, conn)
	require.Equal(t, TypeError, typ)
	assert.Equal(t, "session_invalid", p["code"])
}

func TestWebSocket_InvalidMessages(t *testing.T) {
	env := newTestEnv(t)
	conn := dialWS(t, env)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	typ, p := readWS(t, conn)
	require.Equal(t, TypeError, typ)
	assert.Equal(t, ErrInvalidMessage, p["code"])

	sendWS(t, conn, "session.dance", map[string]string{})
	_, p = readWS(t, conn)
	assert.Contains(t, p["message"], "unknown message type")

	sendWS(t, conn, TypeSessionReply, map[string]string{"session_id": "x"})
	_, p = readWS(t, conn)
	assert.Contains(t, p["message"], "user_input")
}

func TestWebSocket_HandlerPanicKeepsConnection(t *testing.T) {
	env := newTestEnv(t)
	env.srv.deps.Orchestrator = nil
	conn := dialWS(t, env)

	sendWS(t, conn, TypeSessionStart, map[string]string{"session_id": "ws1", "mood": "happy"})
	typ, p := readWS(t, conn)
	require.Equal(t, TypeError, typ)
	assert.Equal(t, ErrInternal, p["code"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	typ, p = readWS(t, conn)
	require.Equal(t, TypeError, typ)
	assert.Equal(t, ErrInvalidMessage, p["code"])
}

func TestParseClientMessage(t *testing.T) {
	typ, p, err := parseClientMessage([]byte(`{"type":"session.start","payload":{"mood":"happy"}}`))
	require.NoError(t, err)
	assert.Equal(t, TypeSessionStart, typ)
	assert.Equal(t, "happy", p.Mood)

	_, _, err = parseClientMessage([]byte(`{"payload":{}}`))
	assert.ErrorContains(t, err, "missing 'type'")

	_, _, err = parseClientMessage([]byte(`{"type":"session.end","payload":{}}`))
	assert.ErrorContains(t, err, "session_id")

	_, _, err = parseClientMessage([]byte(`{"type":"session.end","payload":"oops"}`))
	assert.ErrorContains(t, err, "invalid payload")
}
