package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dd0wney/cluso-patchbay/pkg/events"
	"github.com/dd0wney/cluso-patchbay/pkg/health"
	"github.com/stretchr/testify/require"
)

func TestEventStream(t *testing.T) {
	bus := events.New()
	t.Cleanup(bus.Close)
	_, ts := newTestServer(t, Options{Bus: bus})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// Read data lines off the stream in the background.
	lines := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "data: ") {
				lines <- strings.TrimPrefix(line, "data: ")
			}
		}
		close(lines)
	}()

	// Wait until the stream handler has subscribed before mutating.
	require.Eventually(t, func() bool {
		return bus.SubscriberCount() > 0
	}, 2*time.Second, 10*time.Millisecond)

	resp2 := postJSON(t, ts.URL+"/devices", DeviceRequest{ID: "synth", Name: "Synth"})
	require.Equal(t, http.StatusCreated, resp2.StatusCode)
	resp2.Body.Close()

	select {
	case data, ok := <-lines:
		require.True(t, ok, "stream closed before delivering an event")
		var ev events.Event
		require.NoError(t, json.Unmarshal([]byte(data), &ev))
		require.Equal(t, events.DeviceAdded, ev.Type)
		require.Equal(t, "synth", ev.DeviceID)
		require.False(t, ev.Timestamp.IsZero())
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for device.added event")
	}
}

func TestEventStreamMethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	resp := postJSON(t, ts.URL+"/events", struct{}{})
	defer resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthProbes(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	seedDevices(t, s)

	resp, err := http.Get(ts.URL + "/health/live")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	live := decodeBody[health.Response](t, resp)
	require.Equal(t, health.StatusHealthy, live.Status)
	require.Contains(t, live.Checks, "memory")

	// Seeded devices are unconnected, which audits as Info only.
	resp, err = http.Get(ts.URL + "/health/ready")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ready := decodeBody[health.Response](t, resp)
	require.Equal(t, health.StatusHealthy, ready.Status)
	require.Contains(t, ready.Checks, "graph")
	// No project store configured, so no store probe registered.
	require.NotContains(t, ready.Checks, "project_store")
}
