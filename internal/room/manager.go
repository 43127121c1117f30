// internal/room/manager.go
package room

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maccorless/UpNDown/engine"
)

// Room code alphabet excludes the easily confused characters I, O, 0 and 1.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the fixed length of every room code.
const CodeLength = 6

// Grace periods before an orphaned room (zero connected identities) is
// reclaimed. An in-progress game survives longer than an idle lobby so that
// a group that all dropped at once has a chance to come back.
const (
	LobbyGrace   = 5 * time.Minute
	PlayingGrace = 30 * time.Minute
)

// Room binds a public code to one game plus connection bookkeeping. The
// engine state is replaced wholesale on every accepted action, never edited
// in place.
type Room struct {
	Code      string
	State     *engine.GameState
	Connected map[string]bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary is the public listing entry for a room.
type Summary struct {
	Code       string `json:"code"`
	HostName   string `json:"hostName"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	Phase      string `json:"phase"`
	Public     bool   `json:"public"`
}

// OnGameEndFunc is invoked after any action moves a game to a terminal
// phase. It runs outside the manager lock.
type OnGameEndFunc func(code string, final *engine.GameState)

// Manager owns every live room. One mutex serializes all room actions and
// the reclamation sweep; rooms are few and actions are cheap, so finer
// locking has not been worth it.
type Manager struct {
	mu    sync.Mutex
	rooms map[string]*Room
	log   *logrus.Logger

	// OnGameEnd, if set, receives every game that reaches won or lost.
	OnGameEnd OnGameEndFunc
}

// NewManager creates an empty room manager.
func NewManager(log *logrus.Logger) *Manager {
	if log == nil {
		log = logrus.New()
	}
	return &Manager{
		rooms: make(map[string]*Room),
		log:   log,
	}
}

// randomSeed draws 8 bytes of OS entropy for the engine RNG and the deck
// shuffle.
func randomSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// newCode generates a collision-free room code. Caller holds m.mu.
func (m *Manager) newCode() string {
	buf := make([]byte, CodeLength)
	for {
		if _, err := rand.Read(buf); err != nil {
			panic("room: entropy source failed: " + err.Error())
		}
		code := make([]byte, CodeLength)
		for i, b := range buf {
			code[i] = codeAlphabet[int(b)%len(codeAlphabet)]
		}
		if _, taken := m.rooms[string(code)]; !taken {
			return string(code)
		}
	}
}

// Create opens a new room with the given host seated and connected.
func (m *Manager) Create(hostID, hostName string, settings engine.Settings) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	code := m.newCode()
	state, err := engine.NewGame(code, engine.Player{ID: hostID, Name: hostName, Host: true}, randomSeed(), settings)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	r := &Room{
		Code:      code,
		State:     state,
		Connected: map[string]bool{hostID: true},
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.rooms[code] = r
	m.log.WithFields(logrus.Fields{"room": code, "host": hostID}).Info("room created")
	return r, nil
}

// Join seats a player and marks the identity connected. Rejoining an
// already-seated identity is idempotent and only flips the connected flag.
func (m *Manager) Join(code, playerID, name string) (*engine.GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[code]
	if !ok {
		return nil, engine.NewError(engine.ErrCodeNotFound, "room %s does not exist", code)
	}
	if r.State.PlayerByID(playerID) == nil {
		next, err := r.State.AddPlayer(engine.Player{ID: playerID, Name: name})
		if err != nil {
			return nil, err
		}
		r.State = next
	}
	r.Connected[playerID] = true
	r.UpdatedAt = time.Now()
	return r.State, nil
}

// Leave removes a player from a room. In the lobby the seat is released and
// the host role moves to the next remaining occupant; an empty lobby is
// deleted immediately. In any other phase seats are fixed, so the identity
// is only marked disconnected and the orphan sweep handles the rest.
func (m *Manager) Leave(code, playerID string) (*engine.GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[code]
	if !ok {
		return nil, engine.NewError(engine.ErrCodeNotFound, "room %s does not exist", code)
	}
	delete(r.Connected, playerID)

	if r.State.Phase == engine.PhaseLobby {
		next, err := r.State.RemovePlayer(playerID)
		if err != nil {
			return nil, err
		}
		if len(next.Players) == 0 {
			delete(m.rooms, code)
			m.log.WithField("room", code).Info("room deleted, last player left")
			return next, nil
		}
		r.State = next
	}
	r.UpdatedAt = time.Now()
	return r.State, nil
}

// Disconnect marks an identity as no longer connected. Best effort on
// socket close; unknown rooms and players are ignored.
func (m *Manager) Disconnect(code, playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[code]
	if !ok {
		return
	}
	delete(r.Connected, playerID)
	r.UpdatedAt = time.Now()
	m.log.WithFields(logrus.Fields{"room": code, "player": playerID}).Debug("player disconnected")
}

// UpdateSettings replaces a lobby's configuration. Authority and bounds
// checks are the engine's.
func (m *Manager) UpdateSettings(code, actorID string, settings engine.Settings) (*engine.GameState, error) {
	return m.Apply(code, func(g *engine.GameState) (*engine.GameState, error) {
		return g.UpdateSettings(actorID, settings)
	})
}

// StartGame shuffles a fresh deck and starts the room's game. Host-only at
// this layer; everything else is the engine's start validation.
func (m *Manager) StartGame(code, actorID string) (*engine.GameState, error) {
	return m.Apply(code, func(g *engine.GameState) (*engine.GameState, error) {
		if actorID != g.HostID {
			return nil, engine.NewError(engine.ErrCodeAuthority, "only the host may start the game")
		}
		return g.Start(engine.ShuffledDeck(g.Settings, randomSeed()))
	})
}

// Apply runs an engine transition against a room's state and stores the
// result on success. Errors pass through untouched so the gateway can
// forward the engine's category verbatim.
func (m *Manager) Apply(code string, fn func(*engine.GameState) (*engine.GameState, error)) (*engine.GameState, error) {
	m.mu.Lock()
	r, ok := m.rooms[code]
	if !ok {
		m.mu.Unlock()
		return nil, engine.NewError(engine.ErrCodeNotFound, "room %s does not exist", code)
	}
	before := r.State.Phase
	next, err := fn(r.State)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if verr := next.CheckInvariants(); verr != nil {
		// A broken invariant is an engine bug, never a user error. Keep the
		// room alive but make the defect loud.
		m.log.WithError(verr).WithField("room", code).Error("game state invariant violated")
	}
	r.State = next
	r.UpdatedAt = time.Now()
	ended := before == engine.PhasePlaying && (next.Phase == engine.PhaseWon || next.Phase == engine.PhaseLost)
	cb := m.OnGameEnd
	m.mu.Unlock()

	if ended {
		m.log.WithFields(logrus.Fields{"room": code, "phase": next.Phase}).Info("game ended")
		if cb != nil {
			cb(code, next)
		}
	}
	return next, nil
}

// ListPublic returns the publicly joinable rooms: lobby phase, public,
// seats available, and at least one connected identity backing a seat.
func (m *Manager) ListPublic() []Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Summary, 0)
	for _, r := range m.rooms {
		g := r.State
		if g.Phase != engine.PhaseLobby || !g.Settings.Public {
			continue
		}
		if len(g.Players) >= g.Settings.MaxPlayers {
			continue
		}
		if !r.hasConnectedSeat() {
			continue
		}
		out = append(out, m.summarize(r))
	}
	return out
}

// Lookup returns a room's summary by code. Works for private rooms, which
// never appear in the public list.
func (m *Manager) Lookup(code string) (Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[code]
	if !ok {
		return Summary{}, engine.NewError(engine.ErrCodeNotFound, "room %s does not exist", code)
	}
	return m.summarize(r), nil
}

// State returns the current snapshot for a room.
func (m *Manager) State(code string) (*engine.GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[code]
	if !ok {
		return nil, engine.NewError(engine.ErrCodeNotFound, "room %s does not exist", code)
	}
	return r.State, nil
}

// ConnectedIDs returns the identities currently connected to a room. Used
// by the gateway to fan out broadcasts.
func (m *Manager) ConnectedIDs(code string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[code]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(r.Connected))
	for id := range r.Connected {
		ids = append(ids, id)
	}
	return ids
}

func (r *Room) hasConnectedSeat() bool {
	for _, p := range r.State.Players {
		if r.Connected[p.ID] {
			return true
		}
	}
	return false
}

func (m *Manager) summarize(r *Room) Summary {
	g := r.State
	host := ""
	if p := g.PlayerByID(g.HostID); p != nil {
		host = p.Name
	}
	return Summary{
		Code:       r.Code,
		HostName:   host,
		Players:    len(g.Players),
		MaxPlayers: g.Settings.MaxPlayers,
		Phase:      string(g.Phase),
		Public:     g.Settings.Public,
	}
}

// Sweep reclaims rooms with zero connected identities whose last activity
// is older than the phase-dependent grace period. Returns the number of
// rooms deleted. Runs on the same mutex as ordinary actions, so a sweep
// never races an in-flight transition on the same room.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for code, r := range m.rooms {
		if len(r.Connected) > 0 {
			continue
		}
		grace := LobbyGrace
		if r.State.Phase == engine.PhasePlaying {
			grace = PlayingGrace
		}
		if now.Sub(r.UpdatedAt) > grace {
			delete(m.rooms, code)
			deleted++
			m.log.WithFields(logrus.Fields{"room": code, "phase": r.State.Phase}).Info("orphan room reclaimed")
		}
	}
	return deleted
}

// Run sweeps on a fixed interval until the context is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			m.Sweep(t)
		}
	}
}

// Len reports the number of live rooms.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}
