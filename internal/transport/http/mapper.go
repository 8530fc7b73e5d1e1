package http

import (
	"encoding/json"

	"github.com/dkoval/chatterbox-server/internal/core"
	"github.com/dkoval/chatterbox-server/internal/proto"
)

// inboundToCommand maps a wire event to a core command. A malformed payload
// or unrecognized type yields an error payload for the sender only; the
// connection stays open.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.ErrorPayload) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinPayload
		if err := json.Unmarshal(inbound.Payload, &join); err != nil || join.RoomID <= 0 {
			return nil, &proto.ErrorPayload{Code: core.ErrCodeUnknownEvent, Message: "roomId is required"}
		}
		return &core.Command{Kind: core.CommandJoinRoom, Room: join.RoomID}, nil

	case proto.InboundTypeLeave:
		var leave proto.LeavePayload
		if err := json.Unmarshal(inbound.Payload, &leave); err != nil || leave.RoomID <= 0 {
			return nil, &proto.ErrorPayload{Code: core.ErrCodeUnknownEvent, Message: "roomId is required"}
		}
		return &core.Command{Kind: core.CommandLeaveRoom, Room: leave.RoomID}, nil

	case proto.InboundTypeMessage:
		var msg proto.MessagePayload
		if err := json.Unmarshal(inbound.Payload, &msg); err != nil {
			return nil, &proto.ErrorPayload{Code: core.ErrCodeUnknownEvent, Message: "malformed message payload"}
		}
		return &core.Command{Kind: core.CommandSendMessage, Content: msg.Content}, nil

	default:
		return nil, &proto.ErrorPayload{Code: core.ErrCodeUnknownEvent, Message: "unknown event type"}
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventRoomMessage:
		return proto.Outbound{
			Type: proto.OutboundTypeMessage,
			Payload: proto.MessageEvent{
				MessageID:  event.Message.ID,
				SenderID:   event.Message.SenderID,
				SenderName: event.SenderName,
				RoomID:     event.Message.RoomID,
				Content:    event.Message.Content,
				Timestamp:  event.Message.CreatedAt,
			},
		}

	case core.EventUserJoined:
		return proto.Outbound{
			Type: proto.OutboundTypeUserJoined,
			Payload: proto.PresenceEvent{
				UserID:    event.UserID,
				UserName:  event.UserName,
				Timestamp: event.Timestamp,
			},
		}

	case core.EventUserLeft:
		return proto.Outbound{
			Type: proto.OutboundTypeUserLeft,
			Payload: proto.PresenceEvent{
				UserID:    event.UserID,
				UserName:  event.UserName,
				Timestamp: event.Timestamp,
			},
		}

	case core.EventHistory:
		messages := make([]proto.HistoryMessage, 0, len(event.Messages))
		for _, msg := range event.Messages {
			messages = append(messages, proto.HistoryMessage{
				MessageID: msg.ID,
				SenderID:  msg.SenderID,
				RoomID:    msg.RoomID,
				Content:   msg.Content,
				Timestamp: msg.CreatedAt,
			})
		}
		return proto.Outbound{
			Type:    proto.OutboundTypeHistory,
			Payload: proto.HistoryEvent{Messages: messages},
		}

	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{
				Type:    proto.OutboundTypeError,
				Payload: proto.ErrorPayload{Code: core.ErrCodeInternal, Message: "unknown error"},
			}
		}
		return proto.Outbound{
			Type:    proto.OutboundTypeError,
			Payload: proto.ErrorPayload{Code: event.Error.Code, Message: event.Error.Message},
		}

	default:
		return proto.Outbound{Type: proto.OutboundTypeError, Payload: proto.ErrorPayload{Code: core.ErrCodeInternal, Message: "unknown event"}}
	}
}
