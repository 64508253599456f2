package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/colimarl/groupchat-server/internal/config"
	"github.com/colimarl/groupchat-server/internal/core"
	"github.com/colimarl/groupchat-server/internal/proto"
	"github.com/colimarl/groupchat-server/internal/store/blobfs"
	"github.com/colimarl/groupchat-server/internal/store/sqlite"
)

// outboundFrame mirrors proto.Outbound with raw data for test-side decoding.
type outboundFrame struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func startTestServer(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create message store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	blobs, err := blobfs.New(t.TempDir(), cfg.MaxUploadBytes)
	if err != nil {
		t.Fatalf("failed to create blob store: %v", err)
	}

	logger := zerolog.Nop()
	coord := core.NewCoordinator(st, core.NewRegistry(), &logger)

	server := NewServer(coord, blobs, cfg, &logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	return cfg
}

func dialWS(t *testing.T, ctx context.Context, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("ws dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "test done") })
	return conn
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) outboundFrame {
	t.Helper()

	var frame outboundFrame
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatalf("read frame failed: %v", err)
	}
	return frame
}

// mustHistory reads the connect-time snapshot every client receives first.
func mustHistory(t *testing.T, ctx context.Context, conn *websocket.Conn) []proto.ChatMessage {
	t.Helper()

	frame := readFrame(t, ctx, conn)
	if frame.Type != proto.OutboundTypeChatHistory {
		t.Fatalf("expected chat_history first, got %q", frame.Type)
	}
	var history []proto.ChatMessage
	if err := json.Unmarshal(frame.Data, &history); err != nil {
		t.Fatalf("decode history failed: %v", err)
	}
	return history
}

func sendChat(t *testing.T, ctx context.Context, conn *websocket.Conn, user, text string) {
	t.Helper()

	data, err := json.Marshal(proto.ChatMessageData{User: user, Text: text})
	if err != nil {
		t.Fatalf("marshal chat data failed: %v", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeChatMessage, Data: data}); err != nil {
		t.Fatalf("send chat failed: %v", err)
	}
}

func sendRaw(t *testing.T, ctx context.Context, conn *websocket.Conn, frame proto.Inbound) {
	t.Helper()

	if err := wsjson.Write(ctx, conn, frame); err != nil {
		t.Fatalf("send frame failed: %v", err)
	}
}

func uploadFile(t *testing.T, ts *httptest.Server, user, filename string, content []byte) *stdhttp.Response {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file failed: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file failed: %v", err)
	}
	if err := w.WriteField("user", user); err != nil {
		t.Fatalf("write user field failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart failed: %v", err)
	}

	resp, err := ts.Client().Post(ts.URL+"/upload", w.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("upload request failed: %v", err)
	}
	t.Cleanup(func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	})
	return resp
}
