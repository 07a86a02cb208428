package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zahlentech/str8up_server/internal/model/dto"
	"github.com/zahlentech/str8up_server/internal/pkg/pubsub"
	"github.com/zahlentech/str8up_server/internal/pkg/ws"
	"github.com/zahlentech/str8up_server/internal/testutil"
)

type progressFrame struct {
	Type string            `json:"type"`
	Data dto.ProgressEvent `json:"data"`
}

func setupWebSocketServer(t *testing.T, origins []string) (*httptest.Server, *WebSocketHandler, *testContext) {
	t.Helper()

	tc := setupTestContext(t)
	h := NewWebSocketHandler(ws.NewHub(nil), tc.Assessments, origins, nil)

	router := gin.New()
	router.GET("/ws/:sessionId", h.Handle)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, h, tc
}

func dial(t *testing.T, srv *httptest.Server, sessionID string, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + sessionID
	return websocket.DefaultDialer.Dial(url, header)
}

func readFrame(t *testing.T, conn *websocket.Conn) progressFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame progressFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestWebSocketHandler_SnapshotThenRelay(t *testing.T) {
	srv, h, tc := setupWebSocketServer(t, nil)
	a := testutil.TestAssessment(t, tc.DB, testutil.WithStatus("processing", 20))

	conn, _, err := dial(t, srv, a.SessionID, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readFrame(t, conn)
	assert.Equal(t, pubsub.TypeProgress, first.Type)
	assert.Equal(t, a.SessionID, first.Data.SessionID)
	assert.Equal(t, "PROCESSING", first.Data.Status)
	assert.Equal(t, 20, first.Data.Progress)

	h.Relay(&pubsub.ProgressMessage{
		SessionID: a.SessionID,
		Status:    "processing",
		Step:      pubsub.StepScoring,
		Progress:  70,
		Message:   pubsub.StepMessages[pubsub.StepScoring],
	})

	next := readFrame(t, conn)
	assert.Equal(t, 70, next.Data.Progress)
	assert.Equal(t, "PROCESSING", next.Data.Status)
	assert.Equal(t, pubsub.StepMessages[pubsub.StepScoring], next.Data.CurrentStep)
}

func TestWebSocketHandler_SnapshotOnlyToNewConnection(t *testing.T) {
	srv, h, tc := setupWebSocketServer(t, nil)
	a := testutil.TestAssessment(t, tc.DB, testutil.WithStatus("processing", 20))

	first, _, err := dial(t, srv, a.SessionID, nil)
	require.NoError(t, err)
	defer first.Close()
	assert.Equal(t, 20, readFrame(t, first).Data.Progress)

	second, _, err := dial(t, srv, a.SessionID, nil)
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, 20, readFrame(t, second).Data.Progress)

	h.Relay(&pubsub.ProgressMessage{
		SessionID: a.SessionID,
		Status:    "processing",
		Step:      pubsub.StepScoring,
		Progress:  70,
		Message:   pubsub.StepMessages[pubsub.StepScoring],
	})

	// the first tab sees the relay next, not a second snapshot
	assert.Equal(t, 70, readFrame(t, first).Data.Progress)
	assert.Equal(t, 70, readFrame(t, second).Data.Progress)
}

func TestWebSocketHandler_UnknownSession(t *testing.T) {
	srv, _, _ := setupWebSocketServer(t, nil)

	_, resp, err := dial(t, srv, "missing", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSocketHandler_RejectsOrigin(t *testing.T) {
	srv, _, tc := setupWebSocketServer(t, []string{"https://str8up.example"})
	a := testutil.TestAssessment(t, tc.DB)

	header := http.Header{}
	header.Set("Origin", "https://evil.example")
	_, resp, err := dial(t, srv, a.SessionID, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://str8up.example")
	conn, _, err := dial(t, srv, a.SessionID, header)
	require.NoError(t, err)
	conn.Close()
}

func TestWebSocketHandler_RelayIgnoresUnwatched(t *testing.T) {
	_, h, _ := setupWebSocketServer(t, nil)
	assert.NotPanics(t, func() {
		h.Relay(&pubsub.ProgressMessage{SessionID: "nobody", Status: "completed", Progress: 100})
	})
}
