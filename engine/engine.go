// Package engine implements the UpNDown cooperative card game rules.
//
// The engine is pure: every operation reads a GameState, derives a new one,
// and returns it alongside a categorized error on rejection. A rejected
// operation never modifies its input, so callers can store the returned
// state by full replacement and treat each accepted action as atomic.
package engine

import (
	"fmt"
	"time"
)

// Phase is the lifecycle phase of a game run. Transitions are monotonic
// (lobby → playing → won|lost); only an explicit host reset returns an
// ended game to the lobby.
type Phase string

const (
	PhaseLobby   Phase = "lobby"
	PhasePlaying Phase = "playing"
	PhaseWon     Phase = "won"
	PhaseLost    Phase = "lost"
)

const (
	// NumPiles is the fixed number of shared foundation piles.
	NumPiles = 4

	// SoloPlayerID is the sentinel player id for engine-only solitaire use,
	// where no connection identity exists.
	SoloPlayerID = "solitaire"

	// TradeTriggerName enables the trade action for any player whose display
	// name matches it case-insensitively at game start.
	TradeTriggerName = "oracle"
)

// Player is a seated participant. Hand order carries no rule meaning.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Host bool   `json:"host"`
	Hand []Card `json:"hand"`
}

// PlayerStats accumulates per-player counters over one game run.
type PlayerStats struct {
	CardsPlayed  int `json:"cardsPlayed"`
	PileDistance int `json:"pileDistance"`
	SkipPlays    int `json:"skipPlays"`
	TradeUses    int `json:"tradeUses"`
}

// Statistics is the per-game statistics block.
type Statistics struct {
	Turns     int                     `json:"turns"`
	StartedAt time.Time               `json:"startedAt"`
	EndedAt   time.Time               `json:"endedAt"`
	Players   map[string]*PlayerStats `json:"players"`
}

// TradeState tracks which players hold the rare trade ability and whether
// each has spent it this turn.
type TradeState struct {
	Enabled      map[string]bool `json:"enabled"`
	UsedThisTurn map[string]bool `json:"usedThisTurn"`
}

// GameState is the root aggregate and single source of truth for one room.
// It is serialized as-is to clients after every accepted action.
type GameState struct {
	GameID         string                   `json:"gameId"`
	HostID         string                   `json:"hostId"`
	Settings       Settings                 `json:"settings"`
	Players        []Player                 `json:"players"`
	Piles          [NumPiles]FoundationPile `json:"piles"`
	DrawPile       []Card                   `json:"drawPile"`
	CurrentPlayer  int                      `json:"currentPlayer"`
	Phase          Phase                    `json:"phase"`
	PlayedThisTurn int                      `json:"playedThisTurn"`
	Stats          Statistics               `json:"stats"`
	Trade          TradeState               `json:"trade"`

	// RNG is the xorshift64 state used for trade reinsertion. Seeded once at
	// NewGame; never exposed to clients.
	RNG uint64 `json:"-"`
}

// NewGame creates a game in the lobby phase with the given host seated.
func NewGame(gameID string, host Player, seed uint64, settings Settings) (*GameState, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if host.ID == "" {
		return nil, newError(ErrCodeConfig, "host player must have an id")
	}
	if seed == 0 {
		seed = 1 // xorshift cannot start at 0
	}
	host.Host = true
	host.Hand = nil
	return &GameState{
		GameID:   gameID,
		HostID:   host.ID,
		Settings: settings,
		Players:  []Player{host},
		Phase:    PhaseLobby,
		RNG:      seed,
	}, nil
}

func (g *GameState) nextRand() uint64 {
	x := g.RNG
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	g.RNG = x
	return x
}

// randN returns a random number in [0, n).
func (g *GameState) randN(n int) int {
	return int(g.nextRand() % uint64(n))
}

// solitaire reports whether this game has no turn concept: a single seated
// player may always act and never passes a turn boundary.
func (g *GameState) solitaire() bool {
	return len(g.Players) == 1
}

// Solitaire reports whether the game is running in solitaire mode.
func (g *GameState) Solitaire() bool { return g.solitaire() }

// playerIndex returns the seat index of the given player id, or -1.
func (g *GameState) playerIndex(id string) int {
	for i := range g.Players {
		if g.Players[i].ID == id {
			return i
		}
	}
	return -1
}

// PlayerByID returns the seated player with the given id, or nil.
func (g *GameState) PlayerByID(id string) *Player {
	if i := g.playerIndex(id); i >= 0 {
		return &g.Players[i]
	}
	return nil
}

// clone returns a deep copy. Transitions mutate only the copy, so a failed
// or concurrent reader of the original never observes partial application.
func (g *GameState) clone() *GameState {
	next := *g

	next.Players = make([]Player, len(g.Players))
	for i, p := range g.Players {
		next.Players[i] = p
		next.Players[i].Hand = append([]Card(nil), p.Hand...)
	}
	next.DrawPile = append([]Card(nil), g.DrawPile...)

	if g.Stats.Players != nil {
		next.Stats.Players = make(map[string]*PlayerStats, len(g.Stats.Players))
		for id, ps := range g.Stats.Players {
			cp := *ps
			next.Stats.Players[id] = &cp
		}
	}
	if g.Trade.Enabled != nil {
		next.Trade.Enabled = make(map[string]bool, len(g.Trade.Enabled))
		for id, v := range g.Trade.Enabled {
			next.Trade.Enabled[id] = v
		}
	}
	if g.Trade.UsedThisTurn != nil {
		next.Trade.UsedThisTurn = make(map[string]bool, len(g.Trade.UsedThisTurn))
		for id, v := range g.Trade.UsedThisTurn {
			next.Trade.UsedThisTurn[id] = v
		}
	}
	return &next
}

// CheckInvariants verifies structural invariants that only a bug can break,
// e.g. the current player pointing at an empty hand while the game is
// running, or a card id appearing twice across hands, draw pile and tops.
// It is meant for tests and defensive assertions, not user-facing errors.
func (g *GameState) CheckInvariants() error {
	seen := make(map[string]string)
	note := func(id, where string) error {
		if prev, dup := seen[id]; dup {
			return fmt.Errorf("card %s appears in both %s and %s", id, prev, where)
		}
		seen[id] = where
		return nil
	}
	for _, p := range g.Players {
		for _, c := range p.Hand {
			if err := note(c.ID, "hand of "+p.ID); err != nil {
				return err
			}
		}
	}
	for _, c := range g.DrawPile {
		if err := note(c.ID, "draw pile"); err != nil {
			return err
		}
	}
	for _, pile := range g.Piles {
		if pile.Top.ID == "" {
			continue
		}
		if err := note(pile.Top.ID, fmt.Sprintf("pile %d top", pile.ID)); err != nil {
			return err
		}
	}

	if g.Phase == PhasePlaying {
		if g.CurrentPlayer < 0 || g.CurrentPlayer >= len(g.Players) {
			return fmt.Errorf("current player index %d out of range", g.CurrentPlayer)
		}
		// A player may empty their hand mid-turn and still need to pass, but
		// can never begin a turn with an empty hand: turn advance skips them.
		if len(g.Players[g.CurrentPlayer].Hand) == 0 && g.PlayedThisTurn == 0 {
			allEmpty := true
			for _, p := range g.Players {
				if len(p.Hand) > 0 {
					allEmpty = false
					break
				}
			}
			if !allEmpty {
				return fmt.Errorf("current player %s begins a turn with an empty hand", g.Players[g.CurrentPlayer].ID)
			}
		}
	}
	return nil
}
