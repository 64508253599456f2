package http

import (
	"github.com/colimarl/groupchat-server/internal/core"
	"github.com/colimarl/groupchat-server/internal/proto"
)

func chatMessageFromCore(m core.Message) proto.ChatMessage {
	out := proto.ChatMessage{
		User:      m.User,
		Timestamp: m.CreatedAt.UTC().Format(proto.TimestampLayout),
	}
	if m.IsImage() {
		url := m.ImageURL
		out.ImageURL = &url
	} else {
		text := m.Text
		out.Text = &text
	}
	return out
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventChatMessage:
		msg := chatMessageFromCore(*event.Message)
		return proto.Outbound{
			Type: proto.OutboundTypeChatMessage,
			Data: msg,
		}
	case core.EventHistory:
		history := make([]proto.ChatMessage, 0, len(event.History))
		for _, m := range event.History {
			history = append(history, chatMessageFromCore(m))
		}
		return proto.Outbound{
			Type: proto.OutboundTypeChatHistory,
			Data: history,
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: &proto.Error{Code: "unknown", Msg: "unknown error"},
			}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError,
			Error: &proto.Error{Code: "unknown", Msg: "unknown event kind"}}
	}
}
