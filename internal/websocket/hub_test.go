package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackingUpdate struct {
	OrderNumber    string `json:"orderNumber"`
	TrackingStatus string `json:"trackingStatus"`
}

func startHub(t *testing.T, origins []string) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(origins)
	go hub.Run()
	t.Cleanup(hub.Stop)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		number := strings.TrimPrefix(r.URL.Path, "/")
		_ = hub.Serve(w, r, number, trackingUpdate{OrderNumber: number, TrackingStatus: "Order Received"})
	}))
	t.Cleanup(server.Close)
	return hub, server
}

func dial(t *testing.T, server *httptest.Server, path string, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_SnapshotThenUpdates(t *testing.T) {
	hub, server := startHub(t, nil)
	conn := dial(t, server, "/SPS-250314-00001", nil)

	var snapshot trackingUpdate
	require.NoError(t, conn.ReadJSON(&snapshot))
	assert.Equal(t, "Order Received", snapshot.TrackingStatus)

	require.Eventually(t, func() bool { return hub.WatcherCount("SPS-250314-00001") == 1 }, time.Second, 10*time.Millisecond)

	hub.PublishTracking("SPS-250314-00002", trackingUpdate{OrderNumber: "SPS-250314-00002", TrackingStatus: "Processing"})
	hub.PublishTracking("SPS-250314-00001", trackingUpdate{OrderNumber: "SPS-250314-00001", TrackingStatus: "In Transit"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var update trackingUpdate
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, "SPS-250314-00001", update.OrderNumber)
	assert.Equal(t, "In Transit", update.TrackingStatus)
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub, server := startHub(t, nil)
	conn := dial(t, server, "/SPS-250314-00001", nil)

	var snapshot trackingUpdate
	require.NoError(t, conn.ReadJSON(&snapshot))
	require.Eventually(t, func() bool { return hub.WatcherCount("SPS-250314-00001") == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.WatcherCount("SPS-250314-00001") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RejectsForeignOrigin(t *testing.T) {
	_, server := startHub(t, []string{"https://shop.sps.pk"})

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/SPS-250314-00001"
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://evil.example.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	ok := dial(t, server, "/SPS-250314-00001", http.Header{"Origin": []string{"https://shop.sps.pk"}})
	var snapshot trackingUpdate
	assert.NoError(t, ok.ReadJSON(&snapshot))
}

func TestHub_StopClosesWatchers(t *testing.T) {
	hub, server := startHub(t, nil)
	conn := dial(t, server, "/SPS-250314-00001", nil)

	var snapshot trackingUpdate
	require.NoError(t, conn.ReadJSON(&snapshot))
	require.Eventually(t, func() bool { return hub.WatcherCount("SPS-250314-00001") == 1 }, time.Second, 10*time.Millisecond)

	hub.Stop()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHub_UpdateRightAfterServeFollowsSnapshot(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	t.Cleanup(hub.Stop)

	const number = "SPS-250314-00007"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, hub.Serve(w, r, number, trackingUpdate{OrderNumber: number, TrackingStatus: "Order Received"}))
		// publish before the peer has read anything
		hub.PublishTracking(number, trackingUpdate{OrderNumber: number, TrackingStatus: "Processing"})
	}))
	t.Cleanup(server.Close)

	conn := dial(t, server, "/"+number, nil)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first, second trackingUpdate
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, "Order Received", first.TrackingStatus)
	assert.Equal(t, "Processing", second.TrackingStatus)
}
