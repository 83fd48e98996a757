package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/johnywind/HA-IoTiX/internal/adam"
	"github.com/johnywind/HA-IoTiX/internal/coordinator"
)

func newTestServer(t *testing.T, mock *adam.MockClient) (*Server, *coordinator.Coordinator, *httptest.Server) {
	t.Helper()

	coord := coordinator.New(mock, zap.NewNop(), nil, time.Minute)
	server := NewServer(coord, zap.NewNop(), 0)

	ts := httptest.NewServer(server.server.Handler)
	t.Cleanup(ts.Close)

	return server, coord, ts
}

func TestHandleHealth(t *testing.T) {
	t.Run("unhealthy before the first cycle", func(t *testing.T) {
		_, _, ts := newTestServer(t, adam.NewMockClient())

		resp, err := http.Get(ts.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("healthy after a successful cycle", func(t *testing.T) {
		_, coord, ts := newTestServer(t, adam.NewMockClient())
		require.NoError(t, coord.Refresh(context.Background()))

		resp, err := http.Get(ts.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var health HealthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
		assert.Equal(t, "ok", health.Status)
	})

	t.Run("reports the failure reason", func(t *testing.T) {
		mock := adam.NewMockClient()
		_, coord, ts := newTestServer(t, mock)

		mock.FailWith("info", errors.New("no route to host"))
		require.Error(t, coord.Refresh(context.Background()))

		resp, err := http.Get(ts.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		var health HealthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
		assert.Equal(t, "unhealthy", health.Status)
		assert.Contains(t, health.LastError, "no route to host")
	})
}

func TestHandleSnapshot(t *testing.T) {
	t.Run("503 before the first cycle", func(t *testing.T) {
		_, _, ts := newTestServer(t, adam.NewMockClient())

		resp, err := http.Get(ts.URL + "/api/snapshot")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("serves the latest snapshot", func(t *testing.T) {
		mock := adam.NewMockClient()
		mock.Pins = []adam.PinConfig{{Pin: 0, Kind: adam.PinKindLight, Name: "Hall"}}
		mock.SetMockPinState(0, false, adam.PinState{State: true})

		_, coord, ts := newTestServer(t, mock)
		require.NoError(t, coord.Refresh(context.Background()))

		resp, err := http.Get(ts.URL + "/api/snapshot")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var snap coordinator.Snapshot
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
		assert.Equal(t, "Adam", snap.Device.Model)
		require.Len(t, snap.Pins, 1)
		assert.Equal(t, "Hall", snap.Pins[0].Name)
	})

	t.Run("rejects non-GET", func(t *testing.T) {
		_, _, ts := newTestServer(t, adam.NewMockClient())

		resp, err := http.Post(ts.URL+"/api/snapshot", "application/json", nil)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestHandleEntities(t *testing.T) {
	mock := adam.NewMockClient()
	mock.Pins = []adam.PinConfig{
		{Pin: 0, Kind: adam.PinKindLight, Name: "Hall"},
		{Pin: 1, Kind: adam.PinKindSwitch, Name: "Pump"},
		{Pin: 100, Kind: adam.PinKindCover, Name: "Blind", CoverID: 0},
	}
	mock.SetMockPinState(0, false, adam.PinState{State: true})
	mock.SetMockPinState(1, false, adam.PinState{State: false})

	_, coord, ts := newTestServer(t, mock)
	require.NoError(t, coord.Refresh(context.Background()))

	resp, err := http.Get(ts.URL + "/api/entities")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entities EntitiesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entities))
	require.Len(t, entities.Lights, 1)
	assert.True(t, entities.Lights[0].On)
	require.Len(t, entities.Switches, 1)
	require.Len(t, entities.Covers, 1)
	assert.Equal(t, "stopped", entities.Covers[0].Direction)
}

func TestWebsocket(t *testing.T) {
	mock := adam.NewMockClient()
	server, coord, ts := newTestServer(t, mock)
	require.NoError(t, coord.Refresh(context.Background()))

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	readMessage := func() wsMessage {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	t.Run("receives the current snapshot on connect", func(t *testing.T) {
		msg := readMessage()
		assert.Equal(t, "snapshot", msg.Type)
	})

	t.Run("receives broadcast button events", func(t *testing.T) {
		server.BroadcastButtonEvent(adam.ButtonEvent{InputPin: 3, EventType: adam.ButtonPressShort})

		msg := readMessage()
		require.Equal(t, "button_event", msg.Type)

		payload, err := json.Marshal(msg.Payload)
		require.NoError(t, err)
		var event adam.ButtonEvent
		require.NoError(t, json.Unmarshal(payload, &event))
		assert.Equal(t, 3, event.InputPin)
		assert.Equal(t, adam.ButtonPressShort, event.EventType)
	})

	t.Run("receives broadcast snapshots", func(t *testing.T) {
		server.BroadcastSnapshot(coord.Snapshot())

		msg := readMessage()
		assert.Equal(t, "snapshot", msg.Type)
	})
}

// Mirrors the production wiring: the coordinator feeds both snapshot and
// button-event broadcasts, so one refresh cycle that carries an event
// must push a button_event frame followed by the snapshot.
func TestWebsocketReceivesCycleButtonEvents(t *testing.T) {
	mock := adam.NewMockClient()
	mock.Events = []adam.ButtonEvent{{InputPin: 3, EventType: adam.ButtonPressShort}}

	server, coord, ts := newTestServer(t, mock)
	coord.OnSnapshot(server.BroadcastSnapshot)
	coord.OnButtonEvent(server.BroadcastButtonEvent)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, coord.Refresh(context.Background()))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var first wsMessage
	require.NoError(t, conn.ReadJSON(&first))
	require.Equal(t, "button_event", first.Type)

	payload, err := json.Marshal(first.Payload)
	require.NoError(t, err)
	var event adam.ButtonEvent
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, 3, event.InputPin)
	assert.Equal(t, adam.ButtonPressShort, event.EventType)

	var second wsMessage
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, "snapshot", second.Type)
}
