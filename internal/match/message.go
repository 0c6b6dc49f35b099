package match

import (
	"encoding/json"
	"errors"
	"fmt"

	"tictactoe/internal/entity"
)

// Opcodes on the wire. Game state traffic (start/update) shares opcode 1;
// system notices like a departure use opcode 2.
const (
	OpCodeGameData   int64 = 1
	OpCodePlayerLeft int64 = 2
)

const (
	TypeMove       = "move"
	TypeGameStart  = "game_start"
	TypeGameUpdate = "game_update"
	TypePlayerLeft = "player_left"
)

var ErrUnknownMessageType = errors.New("unknown message type")

// MoveMessage is the only client-originated message: place a mark at a
// board position.
type MoveMessage struct {
	Position int `json:"position"`
}

// decodeClientMessage turns an opaque payload into one of the known message
// variants. Malformed or unknown payloads come back as errors so callers can
// log them instead of silently dropping bytes on the floor.
func decodeClientMessage(data []byte) (any, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("malformed message: %w", err)
	}

	switch probe.Type {
	case TypeMove:
		var msg MoveMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("malformed move message: %w", err)
		}
		return msg, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, probe.Type)
	}
}

// stateEvent carries the full authoritative state to all match members.
type stateEvent struct {
	Type  string             `json:"type"`
	State *entity.MatchState `json:"state"`
}

// noticeEvent carries a human-readable system notice.
type noticeEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func encodeStateEvent(eventType string, state *entity.MatchState) ([]byte, error) {
	payload, err := json.Marshal(stateEvent{Type: eventType, State: state})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	return payload, nil
}

func encodeNoticeEvent(eventType, message string) ([]byte, error) {
	payload, err := json.Marshal(noticeEvent{Type: eventType, Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	return payload, nil
}
