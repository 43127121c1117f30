package engine

import (
	"strings"
	"time"
)

// AddPlayer seats a player in the lobby. Seating an already-seated id is
// idempotent and returns the state unchanged.
func (g *GameState) AddPlayer(p Player) (*GameState, error) {
	if g.Phase != PhaseLobby {
		return nil, newError(ErrCodePhase, "cannot join: game is %s", g.Phase)
	}
	if p.ID == "" {
		return nil, newError(ErrCodeConfig, "player must have an id")
	}
	if g.playerIndex(p.ID) >= 0 {
		return g, nil
	}
	if len(g.Players) >= g.Settings.MaxPlayers {
		return nil, newError(ErrCodeConfig, "game is full (%d seats)", g.Settings.MaxPlayers)
	}
	next := g.clone()
	p.Host = false
	p.Hand = nil
	next.Players = append(next.Players, p)
	return next, nil
}

// RemovePlayer unseats a player in the lobby. If the host leaves, the next
// remaining occupant in join order inherits the host role.
func (g *GameState) RemovePlayer(playerID string) (*GameState, error) {
	if g.Phase != PhaseLobby {
		return nil, newError(ErrCodePhase, "cannot leave seat: game is %s", g.Phase)
	}
	idx := g.playerIndex(playerID)
	if idx < 0 {
		return nil, newError(ErrCodeNotFound, "player %s is not seated", playerID)
	}
	next := g.clone()
	next.Players = append(next.Players[:idx], next.Players[idx+1:]...)
	if playerID == next.HostID && len(next.Players) > 0 {
		next.Players[0].Host = true
		next.HostID = next.Players[0].ID
	}
	return next, nil
}

// UpdateSettings replaces the configuration. Host-only, lobby-only.
func (g *GameState) UpdateSettings(actorID string, s Settings) (*GameState, error) {
	if g.Phase != PhaseLobby {
		return nil, newError(ErrCodePhase, "cannot change settings: game is %s", g.Phase)
	}
	if actorID != g.HostID {
		return nil, newError(ErrCodeAuthority, "only the host may change settings")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if len(g.Players) > s.MaxPlayers {
		return nil, newError(ErrCodeConfig, "cannot lower max players below the %d already seated", len(g.Players))
	}
	next := g.clone()
	next.Settings = s
	return next, nil
}

// Start deals the given deck and moves the game to the playing phase.
//
// Solitaire (exactly one seated player) forces the refill-after-play policy.
// Multiplayer requires the player count within the configured bounds and
// exactly one designated host. Dealing is round-robin; if the deck is short
// the partial deal proceeds and the remainder, possibly empty, becomes the
// draw pile. Win/loss is evaluated immediately to defend against a
// pathological initial deal.
func (g *GameState) Start(dealtDeck []Card) (*GameState, error) {
	if g.Phase != PhaseLobby {
		return nil, newError(ErrCodePhase, "cannot start: game is %s", g.Phase)
	}

	if g.solitaire() {
		if g.Players[0].ID != g.HostID {
			return nil, newError(ErrCodeConfig, "solitaire player must be the host")
		}
	} else {
		if len(g.Players) < g.Settings.MinPlayers || len(g.Players) > g.Settings.MaxPlayers {
			return nil, newError(ErrCodeConfig, "player count %d outside configured bounds %d..%d",
				len(g.Players), g.Settings.MinPlayers, g.Settings.MaxPlayers)
		}
		hosts := 0
		for _, p := range g.Players {
			if p.Host {
				hosts++
			}
		}
		if hosts != 1 || g.playerIndex(g.HostID) < 0 || !g.Players[g.playerIndex(g.HostID)].Host {
			return nil, newError(ErrCodeConfig, "exactly one designated host required, found %d", hosts)
		}
	}

	next := g.clone()
	if next.solitaire() {
		next.Settings.RefillAfterPlay = true
	}
	next.Piles = newFoundationPiles(next.Settings)

	deck := append([]Card(nil), dealtDeck...)
	for c := 0; c < next.Settings.HandSize && len(deck) > 0; c++ {
		for i := range next.Players {
			if len(deck) == 0 {
				break
			}
			next.Players[i].Hand = append(next.Players[i].Hand, deck[0])
			deck = deck[1:]
		}
	}
	next.DrawPile = deck

	next.Stats = Statistics{
		StartedAt: time.Now(),
		Players:   make(map[string]*PlayerStats, len(next.Players)),
	}
	next.Trade = TradeState{
		Enabled:      make(map[string]bool),
		UsedThisTurn: make(map[string]bool),
	}
	for _, p := range next.Players {
		next.Stats.Players[p.ID] = &PlayerStats{}
		if strings.EqualFold(p.Name, TradeTriggerName) {
			next.Trade.Enabled[p.ID] = true
		}
	}

	next.CurrentPlayer = 0
	next.PlayedThisTurn = 0
	next.Phase = PhasePlaying
	next.evaluateTerminal()
	return next, nil
}

// PlayCard places one card from the actor's hand onto a foundation pile.
func (g *GameState) PlayCard(actorID, cardID string, pileID int) (*GameState, error) {
	if g.Phase != PhasePlaying {
		return nil, newError(ErrCodePhase, "cannot play: game is %s", g.Phase)
	}
	actorIdx := g.playerIndex(actorID)
	if actorIdx < 0 {
		return nil, newError(ErrCodeNotFound, "player %s is not seated", actorID)
	}
	if !g.solitaire() && actorIdx != g.CurrentPlayer {
		return nil, newError(ErrCodeAuthority, "it is not %s's turn", actorID)
	}
	if pileID < 0 || pileID >= NumPiles {
		return nil, newError(ErrCodeNotFound, "pile %d does not exist", pileID)
	}
	cardIdx := -1
	for i, c := range g.Players[actorIdx].Hand {
		if c.ID == cardID {
			cardIdx = i
			break
		}
	}
	if cardIdx < 0 {
		return nil, newError(ErrCodeNotFound, "card %s is not in hand", cardID)
	}

	card := g.Players[actorIdx].Hand[cardIdx]
	pile := g.Piles[pileID]
	if !IsLegalPlay(card, pile) {
		return nil, newError(ErrCodeRule, "card %d cannot be played on %s pile showing %d",
			card.Value, pile.Direction, pile.Top.Value)
	}

	next := g.clone()
	hand := next.Players[actorIdx].Hand
	next.Players[actorIdx].Hand = append(hand[:cardIdx], hand[cardIdx+1:]...)
	next.Piles[pileID].Top = card
	next.PlayedThisTurn++

	ps := next.Stats.Players[actorID]
	ps.CardsPlayed++
	ps.PileDistance += distance(card, pile)
	if isSkipPlay(card, pile) {
		ps.SkipPlays++
	}

	if next.solitaire() || next.Settings.RefillAfterPlay {
		next.drawInto(actorIdx, 1)
	}

	next.evaluateTerminal()
	return next, nil
}

// EndTurn closes the current player's turn. In solitaire there is no turn
// boundary to cross, so the same state is returned unchanged.
func (g *GameState) EndTurn(actorID string) (*GameState, error) {
	if g.Phase != PhasePlaying {
		return nil, newError(ErrCodePhase, "cannot end turn: game is %s", g.Phase)
	}
	actorIdx := g.playerIndex(actorID)
	if actorIdx < 0 {
		return nil, newError(ErrCodeNotFound, "player %s is not seated", actorID)
	}
	if g.solitaire() {
		return g, nil
	}
	if actorIdx != g.CurrentPlayer {
		return nil, newError(ErrCodeAuthority, "it is not %s's turn", actorID)
	}
	required := RequiredPlays(g.Settings.MinPlaysPerTurn, len(g.DrawPile))
	if g.PlayedThisTurn < required {
		return nil, newError(ErrCodeMinimum, "must play %d cards before ending the turn, played %d",
			required, g.PlayedThisTurn)
	}

	next := g.clone()
	next.PlayedThisTurn = 0
	for id := range next.Trade.UsedThisTurn {
		delete(next.Trade.UsedThisTurn, id)
	}
	next.Stats.Turns++

	if !next.Settings.RefillAfterPlay {
		deficit := next.Settings.HandSize - len(next.Players[actorIdx].Hand)
		if deficit > 0 {
			next.drawInto(actorIdx, deficit)
		}
	}

	// Advance to the next player in join order still holding cards. If no
	// hand is non-empty the index stays put; the win has already fired.
	for step := 1; step <= len(next.Players); step++ {
		cand := (next.CurrentPlayer + step) % len(next.Players)
		if len(next.Players[cand].Hand) > 0 {
			next.CurrentPlayer = cand
			break
		}
	}

	next.evaluateTerminal()
	return next, nil
}

// UseTrade swaps a held card back into the draw pile at a uniformly random
// position in exchange for a fresh draw. Once per turn, only for eligible
// players, only while the draw pile is non-empty. A denial mechanic, not a
// rule-bending play: it never sets the phase itself.
func (g *GameState) UseTrade(actorID, cardID string) (*GameState, error) {
	if g.Phase != PhasePlaying {
		return nil, newError(ErrCodePhase, "cannot trade: game is %s", g.Phase)
	}
	actorIdx := g.playerIndex(actorID)
	if actorIdx < 0 {
		return nil, newError(ErrCodeNotFound, "player %s is not seated", actorID)
	}
	if !g.Trade.Enabled[actorID] {
		return nil, newError(ErrCodeAuthority, "player %s cannot use the trade action", actorID)
	}
	if g.Trade.UsedThisTurn[actorID] {
		return nil, newError(ErrCodeAuthority, "trade action already used this turn")
	}
	if len(g.DrawPile) == 0 {
		return nil, newError(ErrCodeRule, "cannot trade with an empty draw pile")
	}
	cardIdx := -1
	for i, c := range g.Players[actorIdx].Hand {
		if c.ID == cardID {
			cardIdx = i
			break
		}
	}
	if cardIdx < 0 {
		return nil, newError(ErrCodeNotFound, "card %s is not in hand", cardID)
	}

	next := g.clone()
	hand := next.Players[actorIdx].Hand
	traded := hand[cardIdx]
	next.Players[actorIdx].Hand = append(hand[:cardIdx], hand[cardIdx+1:]...)
	next.drawInto(actorIdx, 1)

	pos := next.randN(len(next.DrawPile) + 1)
	next.DrawPile = append(next.DrawPile, Card{})
	copy(next.DrawPile[pos+1:], next.DrawPile[pos:])
	next.DrawPile[pos] = traded

	next.Trade.UsedThisTurn[actorID] = true
	next.Stats.Players[actorID].TradeUses++

	next.evaluateTerminal()
	return next, nil
}

// Reset returns a won or lost game to the lobby, keeping everyone seated.
// Host-only; the one way back once the phase has gone terminal.
func (g *GameState) Reset(actorID string) (*GameState, error) {
	if g.Phase != PhaseWon && g.Phase != PhaseLost {
		return nil, newError(ErrCodePhase, "cannot reset: game is %s", g.Phase)
	}
	if actorID != g.HostID {
		return nil, newError(ErrCodeAuthority, "only the host may reset the game")
	}
	next := g.clone()
	for i := range next.Players {
		next.Players[i].Hand = nil
	}
	next.DrawPile = nil
	next.Piles = [NumPiles]FoundationPile{}
	next.CurrentPlayer = 0
	next.PlayedThisTurn = 0
	next.Stats = Statistics{}
	next.Trade = TradeState{}
	next.Phase = PhaseLobby
	return next, nil
}

// drawInto moves up to n cards from the front of the draw pile into the
// player's hand.
func (g *GameState) drawInto(playerIdx, n int) {
	for i := 0; i < n && len(g.DrawPile) > 0; i++ {
		g.Players[playerIdx].Hand = append(g.Players[playerIdx].Hand, g.DrawPile[0])
		g.DrawPile = g.DrawPile[1:]
	}
}
