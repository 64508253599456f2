package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colimarl/groupchat-server/internal/core"
	"github.com/colimarl/groupchat-server/internal/proto"
)

// WSHandler upgrades HTTP connections and bridges them to core sessions.
type WSHandler struct {
	coord     *core.Coordinator
	rateLimit int
	log       *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler. rateLimit caps inbound
// messages per connection per minute; zero disables the cap.
func NewWSHandler(coord *core.Coordinator, rateLimit int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{coord: coord, rateLimit: rateLimit, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	session := core.NewSession(uuid.NewString())
	if err := h.coord.OnConnect(ctx, session); err != nil {
		h.log.Error().Err(err).Str("session_id", session.ID).Msg("connect handshake failed")
		conn.Close(websocket.StatusInternalError, "history unavailable")
		return
	}
	defer h.coord.OnDisconnect(session)

	h.log.Debug().Str("session_id", session.ID).Msg("session connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, session)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, session)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("session_id", session.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *core.Session) error {
	limiter := newRateLimiter(h.rateLimit)
	limiter.startReset(ctx.Done())

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		if !limiter.allow() {
			if err := h.writeError(ctx, conn, core.ErrCodeRateLimited, "too many messages"); err != nil {
				return err
			}
			continue
		}

		switch inbound.Type {
		case proto.InboundTypeChatMessage:
			var data proto.ChatMessageData
			if err := json.Unmarshal(inbound.Data, &data); err != nil {
				if werr := h.writeError(ctx, conn, core.ErrCodeBadRequest, "malformed chat_message"); werr != nil {
					return werr
				}
				continue
			}

			// The submission must complete even if this client goes away
			// mid-flight; everyone else still gets the message.
			_, err := h.coord.SubmitText(context.WithoutCancel(ctx), data.User, data.Text)
			switch {
			case errors.Is(err, core.ErrEmptyMessage):
				// Silently ignored, nothing persisted.
			case err != nil:
				h.log.Error().Err(err).Str("session_id", session.ID).Msg("text submission failed")
				if werr := h.writeError(ctx, conn, core.ErrCodeStorage, "message not saved"); werr != nil {
					return werr
				}
			}
		default:
			if err := h.writeError(ctx, conn, core.ErrCodeBadRequest, "unknown message type"); err != nil {
				return err
			}
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, session *core.Session) error {
	for {
		select {
		case event, ok := <-session.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeError(ctx context.Context, conn *websocket.Conn, code, msg string) error {
	return wsjson.Write(ctx, conn, proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: &proto.Error{Code: code, Msg: msg},
	})
}
