package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/outpass/outpass-server/internal/config"
	"github.com/outpass/outpass-server/internal/core"
	"github.com/outpass/outpass-server/internal/proto"
)

func startTestServer(t *testing.T, maxOutside int) *httptest.Server {
	t.Helper()

	logger := zerolog.Nop()
	hub := core.NewHub(core.Options{MaxOutside: maxOutside}, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := NewServer(hub, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		WSMsgRate:         1000,
		WSMsgBurst:        1000,
	}, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func dialWS(t *testing.T, ctx context.Context, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

type outboundEnvelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string, data any) {
	t.Helper()

	var raw json.RawMessage
	if data != nil {
		payload, err := json.Marshal(data)
		require.NoError(t, err)
		raw = payload
	}
	require.NoError(t, wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: raw}))
}

// readUntil discards outbound messages until one of the wanted type arrives.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string) outboundEnvelope {
	t.Helper()

	for {
		var out outboundEnvelope
		require.NoError(t, wsjson.Read(ctx, conn, &out), "waiting for %s", msgType)
		if out.Type == msgType {
			return out
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := startTestServer(t, 4)

	resp, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)
}

func TestWebSocketLoginAndStateBroadcast(t *testing.T) {
	ts := startTestServer(t, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dialWS(t, ctx, ts)
	bob := dialWS(t, ctx, ts)

	send(t, ctx, alice, proto.InboundTypeLogin, proto.LoginData{Name: "Alice"})
	out := readUntil(t, ctx, alice, proto.OutboundTypeLoginSuccess)
	var success proto.LoginSuccessData
	require.NoError(t, json.Unmarshal(out.Data, &success))
	require.Equal(t, "Alice", success.Name)

	send(t, ctx, bob, proto.InboundTypeLogin, proto.LoginData{Name: "Bob"})
	readUntil(t, ctx, bob, proto.OutboundTypeLoginSuccess)

	// Alice takes the only slot; both connections see the broadcast.
	send(t, ctx, alice, proto.InboundTypeLeaveClass, nil)
	for _, conn := range []*websocket.Conn{alice, bob} {
		out = readUntil(t, ctx, conn, proto.OutboundTypeStateUpdate)
		var state proto.StateData
		require.NoError(t, json.Unmarshal(out.Data, &state))
		require.Len(t, state.Outside, 1)
		require.Equal(t, "Alice", state.Outside[0].Name)
		require.NotZero(t, state.Outside[0].Since)
		require.Empty(t, state.Queue)
	}

	// Bob queues, then gets his turn when Alice comes back.
	send(t, ctx, bob, proto.InboundTypeLeaveClass, nil)
	out = readUntil(t, ctx, bob, proto.OutboundTypeStateUpdate)
	var state proto.StateData
	require.NoError(t, json.Unmarshal(out.Data, &state))
	require.Len(t, state.Queue, 1)
	require.Equal(t, "Bob", state.Queue[0].Name)

	send(t, ctx, alice, proto.InboundTypeComeBack, nil)
	readUntil(t, ctx, bob, proto.OutboundTypeYourTurn)

	send(t, ctx, bob, proto.InboundTypeRequestState, nil)
	out = readUntil(t, ctx, bob, proto.OutboundTypeUserStatus)
	var status proto.UserStatusData
	require.NoError(t, json.Unmarshal(out.Data, &status))
	require.Equal(t, "queue", status.Status)
}

func TestWebSocketNameConflict(t *testing.T) {
	ts := startTestServer(t, 4)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first := dialWS(t, ctx, ts)
	second := dialWS(t, ctx, ts)

	send(t, ctx, first, proto.InboundTypeLogin, proto.LoginData{Name: "Carol"})
	readUntil(t, ctx, first, proto.OutboundTypeLoginSuccess)

	// Different browser, same name, different casing.
	send(t, ctx, second, proto.InboundTypeLogin, proto.LoginData{Name: "carol"})
	out := readUntil(t, ctx, second, proto.OutboundTypeLoginError)
	require.NotNil(t, out.Error)
	require.Equal(t, core.ErrCodeNameInUse, out.Error.Code)
}

func TestWebSocketRejectsUnknownType(t *testing.T) {
	ts := startTestServer(t, 4)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts)
	send(t, ctx, conn, "shout", nil)
	out := readUntil(t, ctx, conn, proto.OutboundTypeError)
	require.NotNil(t, out.Error)
	require.Equal(t, "invalid_message", out.Error.Code)
}

func TestWebSocketDisconnectFreesName(t *testing.T) {
	ts := startTestServer(t, 4)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first := dialWS(t, ctx, ts)
	send(t, ctx, first, proto.InboundTypeLogin, proto.LoginData{Name: "Dana"})
	readUntil(t, ctx, first, proto.OutboundTypeLoginSuccess)
	first.Close(websocket.StatusNormalClosure, "leaving")

	second := dialWS(t, ctx, ts)
	require.Eventually(t, func() bool {
		send(t, ctx, second, proto.InboundTypeLogin, proto.LoginData{Name: "Dana"})
		var out outboundEnvelope
		if err := wsjson.Read(ctx, second, &out); err != nil {
			return false
		}
		return out.Type == proto.OutboundTypeLoginSuccess
	}, 2*time.Second, 50*time.Millisecond)
}
