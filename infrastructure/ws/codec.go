package ws

import (
	"encoding/json"
	"fmt"

	"chat-hub/domain"
	"chat-hub/domain/event"
)

// envelope is the wire shape in both directions: a type tag and the
// payload for that type.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outEnvelope struct {
	Type    string            `json:"type"`
	Payload event.DomainEvent `json:"payload,omitempty"`
}

// Inbound payload shapes. Field names follow the consumer contract.
type authenticatePayload struct {
	Token string `json:"token"`
}

type roomPayload struct {
	Room string `json:"room"`
}

type loadMorePayload struct {
	Room string `json:"room"`
	Page int    `json:"page"`
}

type sendMessagePayload struct {
	Room    string `json:"room"`
	Content string `json:"content"`
	Type    string `json:"messageType"`
}

type recipientPayload struct {
	RecipientID string `json:"recipientId"`
}

type sendPrivatePayload struct {
	RecipientID string `json:"recipientId"`
	Content     string `json:"content"`
}

// DecodeCommand turns one wire frame into a command variant. Unknown
// types and malformed payloads are decode errors; the caller reports
// them to the originating connection only.
func DecodeCommand(data []byte) (domain.Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	switch env.Type {
	case "authenticate":
		var p authenticatePayload
		if err := unmarshalPayload(env.Payload, &p); err != nil {
			return nil, err
		}
		return domain.AuthenticateCommand{Token: p.Token}, nil
	case "join_room":
		var p roomPayload
		if err := unmarshalPayload(env.Payload, &p); err != nil {
			return nil, err
		}
		return domain.JoinRoomCommand{Room: domain.RoomID(p.Room)}, nil
	case "load_more_messages":
		var p loadMorePayload
		if err := unmarshalPayload(env.Payload, &p); err != nil {
			return nil, err
		}
		return domain.LoadMoreCommand{Room: domain.RoomID(p.Room), Page: p.Page}, nil
	case "send_message":
		var p sendMessagePayload
		if err := unmarshalPayload(env.Payload, &p); err != nil {
			return nil, err
		}
		return domain.SendMessageCommand{
			Room:    domain.RoomID(p.Room),
			Content: p.Content,
			Type:    domain.MessageType(p.Type),
		}, nil
	case "join_private_conversation":
		var p recipientPayload
		if err := unmarshalPayload(env.Payload, &p); err != nil {
			return nil, err
		}
		return domain.JoinPrivateCommand{RecipientID: p.RecipientID}, nil
	case "send_private_message":
		var p sendPrivatePayload
		if err := unmarshalPayload(env.Payload, &p); err != nil {
			return nil, err
		}
		return domain.SendPrivateCommand{RecipientID: p.RecipientID, Content: p.Content}, nil
	case "typing_start":
		var p roomPayload
		if err := unmarshalPayload(env.Payload, &p); err != nil {
			return nil, err
		}
		return domain.TypingStartCommand{Room: domain.RoomID(p.Room)}, nil
	case "typing_stop":
		var p roomPayload
		if err := unmarshalPayload(env.Payload, &p); err != nil {
			return nil, err
		}
		return domain.TypingStopCommand{Room: domain.RoomID(p.Room)}, nil
	case "private_typing":
		var p recipientPayload
		if err := unmarshalPayload(env.Payload, &p); err != nil {
			return nil, err
		}
		return domain.PrivateTypingStartCommand{RecipientID: p.RecipientID}, nil
	case "private_stop_typing":
		var p recipientPayload
		if err := unmarshalPayload(env.Payload, &p); err != nil {
			return nil, err
		}
		return domain.PrivateTypingStopCommand{RecipientID: p.RecipientID}, nil
	case "get_users":
		return domain.GetUsersCommand{}, nil
	case "user_logout":
		return domain.LogoutCommand{}, nil
	default:
		return nil, fmt.Errorf("unknown command type %q", env.Type)
	}
}

func unmarshalPayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	return nil
}

// EncodeEvent frames an outbound event under its wire name.
func EncodeEvent(e event.DomainEvent) ([]byte, error) {
	return json.Marshal(outEnvelope{Type: e.Name(), Payload: e})
}
