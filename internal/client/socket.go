package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"tictactoe/internal/apperror"
	"tictactoe/internal/entity"
)

const (
	opCodeGameData   = 1
	opCodePlayerLeft = 2

	eventBufferSize = 16
)

// Event is a decoded inbound match event.
type Event struct {
	Type    string
	State   *entity.MatchState
	Message string
}

// opCode tolerates both string and numeric encodings; the JSON socket format
// serializes 64-bit integers as strings.
type opCode int64

func (that opCode) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatInt(int64(that), 10))), nil
}

func (that *opCode) UnmarshalJSON(data []byte) error {
	value, err := strconv.ParseInt(strings.Trim(string(data), `"`), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid op_code %s: %w", data, err)
	}
	*that = opCode(value)
	return nil
}

// envelope is the realtime protocol frame; exactly one payload field is set.
type envelope struct {
	Cid           string         `json:"cid,omitempty"`
	Error         *socketError   `json:"error,omitempty"`
	Match         *matchInfo     `json:"match,omitempty"`
	MatchJoin     *matchJoin     `json:"match_join,omitempty"`
	MatchLeave    *matchLeave    `json:"match_leave,omitempty"`
	MatchData     *matchData     `json:"match_data,omitempty"`
	MatchDataSend *matchDataSend `json:"match_data_send,omitempty"`
}

type socketError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type matchInfo struct {
	MatchID string `json:"match_id"`
}

type matchJoin struct {
	MatchID string `json:"match_id"`
}

type matchLeave struct {
	MatchID string `json:"match_id"`
}

type matchData struct {
	MatchID string `json:"match_id"`
	OpCode  opCode `json:"op_code"`
	Data    string `json:"data"`
}

type matchDataSend struct {
	MatchID string `json:"match_id"`
	OpCode  opCode `json:"op_code"`
	Data    string `json:"data"`
}

type moveMessage struct {
	Type     string `json:"type"`
	Position int    `json:"position"`
}

// Socket is a live realtime connection. One reader goroutine decodes frames:
// replies are routed to their pending request by cid, match data is decoded
// into Events.
type Socket struct {
	logger *slog.Logger
	conn   *websocket.Conn

	events chan Event

	done     chan struct{}
	doneOnce sync.Once

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan *envelope
}

// ConnectSocket dials the realtime endpoint with the session token.
func (that *Service) ConnectSocket(ctx context.Context) error {
	if that.session == nil {
		return apperror.ErrNotAuthenticated
	}

	endpoint := fmt.Sprintf("%s?lang=en&status=true&format=json&token=%s",
		that.server.SocketURL(), url.QueryEscape(that.session.Token))

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to dial socket: %w", err)
	}
	if resp != nil {
		_ = resp.Body.Close()
	}

	socket := &Socket{
		logger:  that.logger.With("component", "socket"),
		conn:    conn,
		events:  make(chan Event, eventBufferSize),
		done:    make(chan struct{}),
		pending: make(map[string]chan *envelope),
	}

	go socket.readLoop()

	that.socket = socket

	return nil
}

// Events exposes decoded match events. The channel is closed when the
// connection drops.
func (that *Service) Events() <-chan Event {
	if that.socket == nil {
		return nil
	}
	return that.socket.events
}

// JoinMatch joins the given match over the live socket.
func (that *Service) JoinMatch(ctx context.Context, matchID string) error {
	if that.socket == nil {
		return apperror.ErrNotConnected
	}

	reply, err := that.socket.call(ctx, &envelope{MatchJoin: &matchJoin{MatchID: matchID}})
	if err != nil {
		return fmt.Errorf("failed to join match %s: %w", matchID, err)
	}

	if reply.Match != nil && reply.Match.MatchID != "" {
		that.matchID = reply.Match.MatchID
	} else {
		that.matchID = matchID
	}

	that.logger.Info("joined match", "matchID", that.matchID)

	return nil
}

// SendMove submits a move for the current match. The board is not touched
// locally; the authoritative game_update broadcast carries the result.
func (that *Service) SendMove(position int) error {
	if that.socket == nil {
		return apperror.ErrNotConnected
	}
	if that.matchID == "" {
		return apperror.ErrNoActiveMatch
	}

	payload, err := json.Marshal(moveMessage{Type: "move", Position: position})
	if err != nil {
		return fmt.Errorf("failed to marshal move: %w", err)
	}

	return that.socket.send(&envelope{MatchDataSend: &matchDataSend{
		MatchID: that.matchID,
		OpCode:  opCodeGameData,
		Data:    base64.StdEncoding.EncodeToString(payload),
	}})
}

// LeaveMatch leaves the current match.
func (that *Service) LeaveMatch(ctx context.Context) error {
	if that.socket == nil {
		return apperror.ErrNotConnected
	}
	if that.matchID == "" {
		return apperror.ErrNoActiveMatch
	}

	if _, err := that.socket.call(ctx, &envelope{MatchLeave: &matchLeave{MatchID: that.matchID}}); err != nil {
		return fmt.Errorf("failed to leave match %s: %w", that.matchID, err)
	}

	that.logger.Info("left match", "matchID", that.matchID)
	that.matchID = ""

	return nil
}

// Disconnect tears down the socket, if any.
func (that *Service) Disconnect() {
	if that.socket == nil {
		return
	}

	that.socket.close()
	that.socket = nil
	that.matchID = ""
}

func (that *Socket) readLoop() {
	defer close(that.events)

	for {
		_, raw, err := that.conn.ReadMessage()
		if err != nil {
			that.logger.Info("socket closed", "error", err)
			that.markDone()
			return
		}

		var env envelope
		if err = json.Unmarshal(raw, &env); err != nil {
			that.logger.Warn("dropping unparseable frame", "error", err)
			continue
		}

		if env.Cid != "" {
			that.resolve(&env)
			continue
		}

		if env.MatchData != nil {
			that.dispatchMatchData(env.MatchData)
		}
	}
}

func (that *Socket) dispatchMatchData(data *matchData) {
	payload, err := decodePayload(data.Data)
	if err != nil {
		that.logger.Warn("dropping match data", "error", err)
		return
	}

	event, err := decodeEvent(payload)
	if err != nil {
		that.logger.Warn("dropping match event", "error", err)
		return
	}

	select {
	case that.events <- event:
	default:
		that.logger.Warn("event buffer full, dropping event", "type", event.Type)
	}
}

func (that *Socket) call(ctx context.Context, env *envelope) (*envelope, error) {
	cid := uuid.NewString()
	env.Cid = cid

	replyCh := make(chan *envelope, 1)

	that.pendingMu.Lock()
	that.pending[cid] = replyCh
	that.pendingMu.Unlock()

	defer func() {
		that.pendingMu.Lock()
		delete(that.pending, cid)
		that.pendingMu.Unlock()
	}()

	if err := that.send(env); err != nil {
		return nil, err
	}

	select {
	case reply := <-replyCh:
		if reply.Error != nil {
			return nil, fmt.Errorf("server error %d: %s", reply.Error.Code, reply.Error.Message)
		}
		return reply, nil
	case <-that.done:
		return nil, apperror.ErrNotConnected
	case <-ctx.Done():
		return nil, fmt.Errorf("request canceled: %w", ctx.Err())
	}
}

func (that *Socket) resolve(env *envelope) {
	that.pendingMu.Lock()
	replyCh, ok := that.pending[env.Cid]
	that.pendingMu.Unlock()

	if !ok {
		that.logger.Warn("reply with unknown cid", "cid", env.Cid)
		return
	}

	replyCh <- env
}

func (that *Socket) send(env *envelope) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err := that.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	return nil
}

func (that *Socket) markDone() {
	that.doneOnce.Do(func() { close(that.done) })
}

func (that *Socket) close() {
	that.markDone()
	_ = that.conn.Close()
}

// decodePayload normalizes a match data payload: the JSON socket format
// base64-encodes binary data, but raw JSON text is accepted as well.
func decodePayload(data string) ([]byte, error) {
	if json.Valid([]byte(data)) {
		return []byte(data), nil
	}

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("payload is neither JSON nor base64: %w", err)
	}

	return decoded, nil
}

// decodeEvent dispatches the tagged event envelope into an Event. Unknown
// types are errors, not silent no-ops.
func decodeEvent(payload []byte) (Event, error) {
	var env struct {
		Type    string             `json:"type"`
		State   *entity.MatchState `json:"state"`
		Message string             `json:"message"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return Event{}, fmt.Errorf("malformed event: %w", err)
	}

	switch env.Type {
	case "game_start", "game_update":
		if env.State == nil {
			return Event{}, fmt.Errorf("%s event without state", env.Type)
		}
		return Event{Type: env.Type, State: env.State}, nil
	case "player_left":
		return Event{Type: env.Type, Message: env.Message}, nil
	default:
		return Event{}, fmt.Errorf("unknown event type %q", env.Type)
	}
}
