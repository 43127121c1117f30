// internal/ws/server.go
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/maccorless/UpNDown/engine"
	"github.com/maccorless/UpNDown/internal/room"
)

// TokenVerifier resolves a bearer token to a player id. Satisfied by
// auth.Service.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// OnActionFunc observes every room-scoped action after dispatch. Runs on
// the read loop, so implementations must hand off anything slow.
type OnActionFunc func(roomCode, actorID, actionType string, accepted bool, phase string)

// Server is the synchronization gateway: it accepts websocket connections,
// applies per-connection rate limits, validates payloads, delegates to the
// room manager, acknowledges the caller and broadcasts the resulting state
// to the other occupants of the room.
type Server struct {
	rooms    *room.Manager
	verifier TokenVerifier
	origins  []string
	log      *logrus.Logger

	// OnAction, if set, receives every room-scoped action outcome.
	OnAction OnActionFunc

	mu      sync.RWMutex
	clients map[string]*client
}

// NewServer builds a gateway over the given room manager. verifier may be
// nil, in which case every connection gets a fresh identity.
func NewServer(rooms *room.Manager, verifier TokenVerifier, origins []string, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	return &Server{
		rooms:    rooms,
		verifier: verifier,
		origins:  origins,
		log:      log,
		clients:  make(map[string]*client),
	}
}

// ServeHTTP upgrades the connection and runs its read loop until the
// socket closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.origins,
	})
	if err != nil {
		s.log.WithError(err).Debug("websocket accept failed")
		return
	}

	playerID := s.identity(r)
	c := newClient(playerID, conn, s.log)

	s.mu.Lock()
	if prev, ok := s.clients[playerID]; ok {
		// One live connection per identity; the newer one wins.
		_ = prev.conn.Close(websocket.StatusPolicyViolation, "superseded by a newer connection")
	}
	s.clients[playerID] = c
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go c.writePump(ctx)

	c.sendJSON(Ack{Type: "welcome", OK: true, Data: map[string]string{"playerId": playerID}})
	c.log.Info("connected")

	s.readLoop(ctx, c)

	s.mu.Lock()
	current := s.clients[playerID] == c
	if current {
		delete(s.clients, playerID)
		close(c.send)
	}
	s.mu.Unlock()

	// A superseded connection must not tear down the identity the newer
	// connection is still using.
	if current && c.room != "" {
		s.rooms.Disconnect(c.room, c.id)
		if state, err := s.rooms.State(c.room); err == nil {
			s.broadcastState(c.room, state, c.id)
		}
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
	c.log.Info("disconnected")
}

// identity resolves the connection's player id: a valid token continues an
// existing identity, anything else mints a fresh one.
func (s *Server) identity(r *http.Request) string {
	token := r.URL.Query().Get("token")
	if token != "" && s.verifier != nil {
		if id, err := s.verifier.Verify(token); err == nil {
			return id
		}
		s.log.Debug("invalid token on handshake, issuing fresh identity")
	}
	return uuid.NewString()
}

func (s *Server) readLoop(ctx context.Context, c *client) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.sendJSON(Ack{Type: "error", OK: false, Error: &ErrPayload{Code: codeBadPayload, Msg: "malformed envelope"}})
			continue
		}
		if !c.limiter.allow(env.Type, time.Now()) {
			c.sendJSON(Ack{Type: env.Type, ReqID: env.ReqID, OK: false, Error: &ErrPayload{Code: codeRateLimited, Msg: "slow down"}})
			continue
		}
		s.dispatch(c, env)
	}
}

// dispatch validates the payload, runs the action and acknowledges the
// caller. Accepted state-changing actions broadcast the same snapshot to
// the other occupants.
func (s *Server) dispatch(c *client, env Envelope) {
	switch env.Type {
	case ActionCreateRoom:
		var p createRoomPayload
		if ep := decode(env.Data, &p); ep != nil {
			s.nack(c, env, ep)
			return
		}
		settings := engine.DefaultSettings()
		if p.Settings != nil {
			if ep := validateSettings(*p.Settings); ep != nil {
				s.nack(c, env, ep)
				return
			}
			settings = p.Settings.toEngine()
		}
		r, err := s.rooms.Create(c.id, p.Name, settings)
		if err != nil {
			s.nack(c, env, errPayloadFor(err))
			return
		}
		c.room = r.Code
		c.name = p.Name
		s.ack(c, env, map[string]interface{}{"code": r.Code, "state": r.State})

	case ActionJoinRoom:
		var p joinRoomPayload
		if ep := decode(env.Data, &p); ep != nil {
			s.nack(c, env, ep)
			return
		}
		if ep := validateCode(p.Code); ep != nil {
			s.nack(c, env, ep)
			return
		}
		state, err := s.rooms.Join(p.Code, c.id, p.Name)
		if err != nil {
			s.nack(c, env, errPayloadFor(err))
			return
		}
		c.room = p.Code
		c.name = p.Name
		s.ack(c, env, map[string]interface{}{"code": p.Code, "state": state})
		s.broadcastState(p.Code, state, c.id)

	case ActionLeaveRoom:
		var p roomPayload
		if ep := decode(env.Data, &p); ep != nil {
			s.nack(c, env, ep)
			return
		}
		if ep := validateCode(p.Code); ep != nil {
			s.nack(c, env, ep)
			return
		}
		state, err := s.rooms.Leave(p.Code, c.id)
		if err != nil {
			s.nack(c, env, errPayloadFor(err))
			return
		}
		if c.room == p.Code {
			c.room = ""
		}
		s.ack(c, env, map[string]interface{}{"code": p.Code})
		s.broadcastState(p.Code, state, c.id)

	case ActionListRooms:
		s.ack(c, env, map[string]interface{}{"rooms": s.rooms.ListPublic()})

	case ActionLookupRoom:
		var p roomPayload
		if ep := decode(env.Data, &p); ep != nil {
			s.nack(c, env, ep)
			return
		}
		if ep := validateCode(p.Code); ep != nil {
			s.nack(c, env, ep)
			return
		}
		sum, err := s.rooms.Lookup(p.Code)
		if err != nil {
			s.nack(c, env, errPayloadFor(err))
			return
		}
		s.ack(c, env, map[string]interface{}{"room": sum})

	case ActionUpdateSettings:
		var p updateSettingsPayload
		if ep := decode(env.Data, &p); ep != nil {
			s.nack(c, env, ep)
			return
		}
		if ep := validateCode(p.Code); ep != nil {
			s.nack(c, env, ep)
			return
		}
		if ep := validateSettings(p.Settings); ep != nil {
			s.nack(c, env, ep)
			return
		}
		s.gameAction(c, env, p.Code, func() (*engine.GameState, error) {
			return s.rooms.UpdateSettings(p.Code, c.id, p.Settings.toEngine())
		})

	case ActionStartGame:
		var p roomPayload
		if !s.decodeRoomAction(c, env, &p) {
			return
		}
		s.gameAction(c, env, p.Code, func() (*engine.GameState, error) {
			return s.rooms.StartGame(p.Code, c.id)
		})

	case ActionPlayCard:
		var p playCardPayload
		if ep := decode(env.Data, &p); ep != nil {
			s.nack(c, env, ep)
			return
		}
		if ep := validateCode(p.Code); ep != nil {
			s.nack(c, env, ep)
			return
		}
		if p.CardID == "" {
			s.nack(c, env, &ErrPayload{Code: codeBadPayload, Msg: "cardId required"})
			return
		}
		s.gameAction(c, env, p.Code, func() (*engine.GameState, error) {
			return s.rooms.Apply(p.Code, func(g *engine.GameState) (*engine.GameState, error) {
				return g.PlayCard(c.id, p.CardID, p.PileID)
			})
		})

	case ActionEndTurn:
		var p roomPayload
		if !s.decodeRoomAction(c, env, &p) {
			return
		}
		s.gameAction(c, env, p.Code, func() (*engine.GameState, error) {
			return s.rooms.Apply(p.Code, func(g *engine.GameState) (*engine.GameState, error) {
				return g.EndTurn(c.id)
			})
		})

	case ActionUseTrade:
		var p useTradePayload
		if ep := decode(env.Data, &p); ep != nil {
			s.nack(c, env, ep)
			return
		}
		if ep := validateCode(p.Code); ep != nil {
			s.nack(c, env, ep)
			return
		}
		if p.CardID == "" {
			s.nack(c, env, &ErrPayload{Code: codeBadPayload, Msg: "cardId required"})
			return
		}
		s.gameAction(c, env, p.Code, func() (*engine.GameState, error) {
			return s.rooms.Apply(p.Code, func(g *engine.GameState) (*engine.GameState, error) {
				return g.UseTrade(c.id, p.CardID)
			})
		})

	case ActionResetGame:
		var p roomPayload
		if !s.decodeRoomAction(c, env, &p) {
			return
		}
		s.gameAction(c, env, p.Code, func() (*engine.GameState, error) {
			return s.rooms.Apply(p.Code, func(g *engine.GameState) (*engine.GameState, error) {
				return g.Reset(c.id)
			})
		})

	default:
		s.nack(c, env, &ErrPayload{Code: codeBadPayload, Msg: "unknown action " + env.Type})
	}
}

func (s *Server) decodeRoomAction(c *client, env Envelope, p *roomPayload) bool {
	if ep := decode(env.Data, p); ep != nil {
		s.nack(c, env, ep)
		return false
	}
	if ep := validateCode(p.Code); ep != nil {
		s.nack(c, env, ep)
		return false
	}
	return true
}

// gameAction runs a room-scoped transition, acks the caller with the new
// snapshot and broadcasts the same snapshot to the other occupants. Failed
// actions are visible to the acting client only.
func (s *Server) gameAction(c *client, env Envelope, code string, fn func() (*engine.GameState, error)) {
	state, err := fn()
	if err != nil {
		// Rule violations are routine play, not failures worth a log line
		// above debug.
		c.log.WithError(err).WithField("action", env.Type).Debug("action rejected")
		s.nack(c, env, errPayloadFor(err))
		s.observe(code, c.id, env.Type, false, "")
		return
	}
	s.ack(c, env, map[string]interface{}{"state": state})
	s.broadcastState(code, state, c.id)
	s.observe(code, c.id, env.Type, true, string(state.Phase))
}

func (s *Server) observe(code, actor, action string, accepted bool, phase string) {
	if s.OnAction != nil {
		s.OnAction(code, actor, action, accepted, phase)
	}
}

func (s *Server) ack(c *client, env Envelope, data interface{}) {
	c.sendJSON(Ack{Type: env.Type, ReqID: env.ReqID, OK: true, Data: data})
}

func (s *Server) nack(c *client, env Envelope, ep *ErrPayload) {
	c.sendJSON(Ack{Type: env.Type, ReqID: env.ReqID, OK: false, Error: ep})
}

// broadcastState fans the snapshot out to every connected occupant except
// the acting client, which already got it in the ack.
func (s *Server) broadcastState(code string, state *engine.GameState, exclude string) {
	frame, err := json.Marshal(Broadcast{Type: "state", Data: state})
	if err != nil {
		s.log.WithError(err).Error("marshal broadcast frame")
		return
	}
	ids := s.rooms.ConnectedIDs(code)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range ids {
		if id == exclude {
			continue
		}
		if cl, ok := s.clients[id]; ok {
			cl.enqueue(frame)
		}
	}
}
