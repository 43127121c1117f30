// internal/ws/messages.go
package ws

import (
	"encoding/json"
	"regexp"

	"github.com/maccorless/UpNDown/engine"
)

// Inbound action types.
const (
	ActionCreateRoom     = "create_room"
	ActionJoinRoom       = "join_room"
	ActionLeaveRoom      = "leave_room"
	ActionListRooms      = "list_rooms"
	ActionLookupRoom     = "lookup_room"
	ActionUpdateSettings = "update_settings"
	ActionStartGame      = "start_game"
	ActionPlayCard       = "play_card"
	ActionEndTurn        = "end_turn"
	ActionUseTrade       = "use_trade"
	ActionResetGame      = "reset_game"
)

// Gateway-level error codes, distinct from the engine taxonomy.
const (
	codeBadPayload  = "bad_payload"
	codeRateLimited = "rate_limited"
	codeInternal    = "internal"
)

// Envelope is the inbound message frame. ReqID is echoed on the ack so the
// client can correlate request and response.
type Envelope struct {
	Type  string          `json:"type"`
	ReqID string          `json:"reqId,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Ack is the synchronous response to the acting connection.
type Ack struct {
	Type  string      `json:"type"`
	ReqID string      `json:"reqId,omitempty"`
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error *ErrPayload `json:"error,omitempty"`
}

// ErrPayload carries a stable code plus a human-readable message.
type ErrPayload struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// Broadcast is the frame pushed to the other occupants of a room after an
// accepted action. It carries the same snapshot the ack carried.
type Broadcast struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

type createRoomPayload struct {
	Name     string           `json:"name"`
	Settings *settingsPayload `json:"settings,omitempty"`
}

type joinRoomPayload struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type roomPayload struct {
	Code string `json:"code"`
}

type updateSettingsPayload struct {
	Code     string          `json:"code"`
	Settings settingsPayload `json:"settings"`
}

type playCardPayload struct {
	Code   string `json:"code"`
	CardID string `json:"cardId"`
	PileID int    `json:"pileId"`
}

type useTradePayload struct {
	Code   string `json:"code"`
	CardID string `json:"cardId"`
}

// settingsPayload mirrors engine.Settings field for field so clients never
// construct engine types directly.
type settingsPayload struct {
	MinCardValue    int  `json:"minCardValue"`
	MaxCardValue    int  `json:"maxCardValue"`
	HandSize        int  `json:"handSize"`
	MinPlayers      int  `json:"minPlayers"`
	MaxPlayers      int  `json:"maxPlayers"`
	MinPlaysPerTurn int  `json:"minPlaysPerTurn"`
	RefillAfterPlay bool `json:"refillAfterPlay"`
	Public          bool `json:"public"`
	AllowUndo       bool `json:"allowUndo"`
}

func (p settingsPayload) toEngine() engine.Settings {
	return engine.Settings{
		MinCardValue:    p.MinCardValue,
		MaxCardValue:    p.MaxCardValue,
		HandSize:        p.HandSize,
		MinPlayers:      p.MinPlayers,
		MaxPlayers:      p.MaxPlayers,
		MinPlaysPerTurn: p.MinPlaysPerTurn,
		RefillAfterPlay: p.RefillAfterPlay,
		Public:          p.Public,
		AllowUndo:       p.AllowUndo,
	}
}

// validateCode enforces the 6-character uppercase-alphanumeric room code
// shape before anything reaches the room manager.
func validateCode(code string) *ErrPayload {
	if !codePattern.MatchString(code) {
		return &ErrPayload{Code: codeBadPayload, Msg: "room code must be 6 uppercase alphanumeric characters"}
	}
	return nil
}

// validateSettings runs the schema bounds before handing the payload to the
// room manager. The checks are the engine's; the gateway's job is to stop
// malformed payloads at the door with a payload error rather than a
// configuration error.
func validateSettings(p settingsPayload) *ErrPayload {
	if err := p.toEngine().Validate(); err != nil {
		return &ErrPayload{Code: codeBadPayload, Msg: err.Error()}
	}
	return nil
}

func decode(data json.RawMessage, into interface{}) *ErrPayload {
	if len(data) == 0 {
		return &ErrPayload{Code: codeBadPayload, Msg: "missing payload"}
	}
	if err := json.Unmarshal(data, into); err != nil {
		return &ErrPayload{Code: codeBadPayload, Msg: "malformed payload: " + err.Error()}
	}
	return nil
}

// errPayloadFor maps an error into the wire shape, forwarding engine codes
// verbatim.
func errPayloadFor(err error) *ErrPayload {
	if code := engine.CodeOf(err); code != "" {
		return &ErrPayload{Code: string(code), Msg: err.Error()}
	}
	return &ErrPayload{Code: codeInternal, Msg: err.Error()}
}
