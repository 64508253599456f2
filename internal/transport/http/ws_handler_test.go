package http

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/colimarl/groupchat-server/internal/proto"
)

func TestWebSocketHistoryThenLiveBroadcast(t *testing.T) {
	ts := startTestServer(t, testConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dialWS(t, ctx, ts)
	if history := mustHistory(t, ctx, alice); len(history) != 0 {
		t.Fatalf("expected empty history, got %d records", len(history))
	}
	bob := dialWS(t, ctx, ts)
	mustHistory(t, ctx, bob)

	sendChat(t, ctx, alice, "Alice", "hello")

	// Both clients receive the broadcast, the sender included.
	for _, conn := range []*websocket.Conn{alice, bob} {
		frame := readFrame(t, ctx, conn)
		if frame.Type != proto.OutboundTypeChatMessage {
			t.Fatalf("expected chat_message, got %q", frame.Type)
		}
		var msg proto.ChatMessage
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			t.Fatalf("decode message failed: %v", err)
		}
		if msg.User != "Alice" || msg.Text == nil || *msg.Text != "hello" || msg.ImageURL != nil {
			t.Fatalf("unexpected record: %+v", msg)
		}
		if _, err := time.Parse(proto.TimestampLayout, msg.Timestamp); err != nil {
			t.Fatalf("bad timestamp %q: %v", msg.Timestamp, err)
		}
	}
}

func TestWebSocketLateJoinerGetsFullHistory(t *testing.T) {
	ts := startTestServer(t, testConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dialWS(t, ctx, ts)
	mustHistory(t, ctx, alice)

	sendChat(t, ctx, alice, "Alice", "first")
	sendChat(t, ctx, alice, "Alice", "second")
	// Wait for both echoes so persistence is observable.
	readFrame(t, ctx, alice)
	readFrame(t, ctx, alice)

	bob := dialWS(t, ctx, ts)
	history := mustHistory(t, ctx, bob)
	if len(history) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(history))
	}
	if *history[0].Text != "first" || *history[1].Text != "second" {
		t.Fatalf("history out of order: %+v", history)
	}
}

func TestWebSocketEmptyTextSilentlyIgnored(t *testing.T) {
	ts := startTestServer(t, testConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts)
	mustHistory(t, ctx, conn)

	sendChat(t, ctx, conn, "Bob", "   ")
	sendChat(t, ctx, conn, "Bob", "real")

	// The whitespace-only submission produced neither a broadcast nor an
	// error; the next frame is the real message.
	frame := readFrame(t, ctx, conn)
	if frame.Type != proto.OutboundTypeChatMessage {
		t.Fatalf("expected chat_message, got %q (error: %+v)", frame.Type, frame.Error)
	}
	var msg proto.ChatMessage
	if err := json.Unmarshal(frame.Data, &msg); err != nil {
		t.Fatalf("decode message failed: %v", err)
	}
	if msg.Text == nil || *msg.Text != "real" {
		t.Fatalf("unexpected record: %+v", msg)
	}
}

func TestWebSocketUnknownTypeReturnsError(t *testing.T) {
	ts := startTestServer(t, testConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts)
	mustHistory(t, ctx, conn)

	sendRaw(t, ctx, conn, proto.Inbound{Type: "subscribe"})

	frame := readFrame(t, ctx, conn)
	if frame.Type != proto.OutboundTypeError || frame.Error == nil || frame.Error.Code != "bad_request" {
		t.Fatalf("expected bad_request error frame, got %+v", frame)
	}
}

func TestWebSocketRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MessageRateLimit = 2
	ts := startTestServer(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts)
	mustHistory(t, ctx, conn)

	sendChat(t, ctx, conn, "Bob", "one")
	sendChat(t, ctx, conn, "Bob", "two")
	sendChat(t, ctx, conn, "Bob", "three")

	var sawLimit bool
	for i := 0; i < 3; i++ {
		frame := readFrame(t, ctx, conn)
		if frame.Type == proto.OutboundTypeError && frame.Error != nil && frame.Error.Code == "rate_limited" {
			sawLimit = true
		}
	}
	if !sawLimit {
		t.Fatal("expected a rate_limited error frame")
	}
}
