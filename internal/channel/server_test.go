package channel

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialTestServer(t *testing.T, r *Registry) *websocket.Conn {
	t.Helper()
	s := NewServer("", r)
	ts := httptest.NewServer(http.HandlerFunc(s.handleWS))
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/channel"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg string) reply {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var rep reply
	require.NoError(t, json.Unmarshal(data, &rep))
	return rep
}

func TestServerRoundTrip(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	conn := dialTestServer(t, r)

	rep := roundTrip(t, conn,
		`{"id":"1","channel":"com.automotive/can_bus","payload":{"method":"initialize"}}`)
	assert.Equal(t, "1", rep.ID)

	resp := parse(t, rep.Payload)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, true, resp.Result)
}

func TestServerAssignsReplyID(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	conn := dialTestServer(t, r)

	rep := roundTrip(t, conn,
		`{"channel":"com.automotive/sensors","payload":{"method":"getSpeed"}}`)
	assert.NotEmpty(t, rep.ID)
	assert.Equal(t, "ok", parse(t, rep.Payload).Status)
}

func TestServerMalformedEnvelope(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	conn := dialTestServer(t, r)

	for _, msg := range []string{`{broken`, `{"payload":{"method":"initialize"}}`} {
		rep := roundTrip(t, conn, msg)
		assert.Equal(t, CodeMalformedMessage, parse(t, rep.Payload).Code, msg)
	}
}

func TestServerCallsAreOrdered(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	conn := dialTestServer(t, r)

	first := roundTrip(t, conn,
		`{"id":"a","channel":"com.automotive/can_bus","payload":{"method":"initialize"}}`)
	second := roundTrip(t, conn,
		`{"id":"b","channel":"com.automotive/can_bus","payload":{"method":"readOBD2","args":12}}`)

	assert.Equal(t, "a", first.ID)
	assert.Equal(t, "b", second.ID)
	assert.Equal(t, "ok", parse(t, second.Payload).Status)
}
