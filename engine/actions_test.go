package engine

import (
	"reflect"
	"testing"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// seqDeck builds a deterministic deck of consecutive values starting at from.
func seqDeck(from, count int) []Card {
	deck := make([]Card, count)
	for i := range deck {
		deck[i] = Card{ID: "d" + string(rune('0'+i/10)) + string(rune('0'+i%10)), Value: from + i}
	}
	return deck
}

func newLobby(t *testing.T, names ...string) *GameState {
	t.Helper()
	s := DefaultSettings()
	g, err := NewGame("g1", Player{ID: "p0", Name: names[0]}, 42, s)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	for i, name := range names[1:] {
		g, err = g.AddPlayer(Player{ID: "p" + string(rune('1'+i)), Name: name})
		if err != nil {
			t.Fatalf("AddPlayer: %v", err)
		}
	}
	return g
}

func mustStart(t *testing.T, g *GameState, deck []Card) *GameState {
	t.Helper()
	next, err := g.Start(deck)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return next
}

func handOf(g *GameState, playerID string) []Card {
	return g.PlayerByID(playerID).Hand
}

// countCards tallies every live card id across hands, draw pile and tops.
func countCards(g *GameState) int {
	n := len(g.DrawPile)
	for _, p := range g.Players {
		n += len(p.Hand)
	}
	for _, pile := range g.Piles {
		if pile.Top.ID != "" {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Lobby transitions
// ---------------------------------------------------------------------------

func TestAddPlayerIdempotent(t *testing.T) {
	g := newLobby(t, "alice", "bob")
	again, err := g.AddPlayer(Player{ID: "p1", Name: "bob"})
	if err != nil {
		t.Fatalf("re-adding a seated player: %v", err)
	}
	if again != g {
		t.Error("re-adding a seated player should return the state unchanged")
	}
}

func TestAddPlayerFullGame(t *testing.T) {
	g := newLobby(t, "a", "b", "c", "d", "e", "f")
	if _, err := g.AddPlayer(Player{ID: "p6", Name: "g"}); CodeOf(err) != ErrCodeConfig {
		t.Errorf("expected %s, got %v", ErrCodeConfig, err)
	}
}

func TestRemovePlayerReassignsHost(t *testing.T) {
	g := newLobby(t, "alice", "bob", "carol")
	next, err := g.RemovePlayer("p0")
	if err != nil {
		t.Fatalf("RemovePlayer: %v", err)
	}
	if next.HostID != "p1" || !next.Players[0].Host {
		t.Errorf("expected p1 to inherit host, got hostId=%s", next.HostID)
	}
}

func TestUpdateSettingsHostOnly(t *testing.T) {
	g := newLobby(t, "alice", "bob")
	s := DefaultSettings()
	s.MinPlaysPerTurn = 1
	if _, err := g.UpdateSettings("p1", s); CodeOf(err) != ErrCodeAuthority {
		t.Errorf("expected %s, got %v", ErrCodeAuthority, err)
	}
	next, err := g.UpdateSettings("p0", s)
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if next.Settings.MinPlaysPerTurn != 1 {
		t.Errorf("settings not applied: %+v", next.Settings)
	}
}

func TestUpdateSettingsRejectsBadBounds(t *testing.T) {
	g := newLobby(t, "alice")
	s := DefaultSettings()
	s.HandSize = 4
	if _, err := g.UpdateSettings("p0", s); CodeOf(err) != ErrCodeConfig {
		t.Errorf("expected %s, got %v", ErrCodeConfig, err)
	}
	s = DefaultSettings()
	s.MaxCardValue = s.MinCardValue + 10
	if _, err := g.UpdateSettings("p0", s); CodeOf(err) != ErrCodeConfig {
		t.Errorf("expected %s for narrow value span, got %v", ErrCodeConfig, err)
	}
}

// ---------------------------------------------------------------------------
// Start
// ---------------------------------------------------------------------------

func TestStartDealsRoundRobin(t *testing.T) {
	g := newLobby(t, "alice", "bob")
	deck := seqDeck(2, 98)
	g = mustStart(t, g, deck)

	if g.Phase != PhasePlaying {
		t.Fatalf("expected playing, got %s", g.Phase)
	}
	if len(handOf(g, "p0")) != 7 || len(handOf(g, "p1")) != 7 {
		t.Errorf("expected 7-card hands, got %d and %d", len(handOf(g, "p0")), len(handOf(g, "p1")))
	}
	if len(g.DrawPile) != 98-14 {
		t.Errorf("expected %d cards in draw pile, got %d", 98-14, len(g.DrawPile))
	}
	// Round-robin: p0 holds deck[0], p1 holds deck[1], p0 deck[2], ...
	if handOf(g, "p0")[0].ID != deck[0].ID || handOf(g, "p1")[0].ID != deck[1].ID {
		t.Error("deal order is not round-robin")
	}
	if err := g.CheckInvariants(); err != nil {
		t.Errorf("invariants after start: %v", err)
	}
}

func TestStartPileOrientation(t *testing.T) {
	g := mustStart(t, newLobby(t, "alice"), seqDeck(2, 98))
	asc, desc := 0, 0
	for _, pile := range g.Piles {
		switch pile.Direction {
		case Ascending:
			asc++
			if pile.Top.Value != 1 {
				t.Errorf("ascending pile starts at %d, want 1", pile.Top.Value)
			}
		case Descending:
			desc++
			if pile.Top.Value != 100 {
				t.Errorf("descending pile starts at %d, want 100", pile.Top.Value)
			}
		}
	}
	if asc != 2 || desc != 2 {
		t.Errorf("expected 2 ascending and 2 descending piles, got %d/%d", asc, desc)
	}
}

func TestStartShortDeckPartialDeal(t *testing.T) {
	g := newLobby(t, "alice", "bob")
	g = mustStart(t, g, seqDeck(2, 9)) // 9 cards for 14 slots

	total := len(handOf(g, "p0")) + len(handOf(g, "p1"))
	if total != 9 || len(g.DrawPile) != 0 {
		t.Errorf("partial deal: dealt %d, draw %d", total, len(g.DrawPile))
	}
}

func TestStartSolitaireForcesRefill(t *testing.T) {
	g := newLobby(t, "alice")
	if g.Settings.RefillAfterPlay {
		t.Fatal("default settings should not refill after play")
	}
	g = mustStart(t, g, seqDeck(2, 98))
	if !g.Settings.RefillAfterPlay {
		t.Error("solitaire must force refill after play")
	}
}

func TestStartRejectsBelowMinPlayers(t *testing.T) {
	g := newLobby(t, "alice", "bob")
	s := g.Settings
	s.MinPlayers = 3
	g, err := g.UpdateSettings("p0", s)
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if _, err := g.Start(seqDeck(2, 98)); CodeOf(err) != ErrCodeConfig {
		t.Errorf("expected %s, got %v", ErrCodeConfig, err)
	}
}

func TestStartWrongPhase(t *testing.T) {
	g := mustStart(t, newLobby(t, "alice", "bob"), seqDeck(2, 98))
	if _, err := g.Start(seqDeck(2, 98)); CodeOf(err) != ErrCodePhase {
		t.Errorf("expected %s, got %v", ErrCodePhase, err)
	}
}

func TestStartTradeTriggerName(t *testing.T) {
	g := newLobby(t, "alice", "Oracle")
	g = mustStart(t, g, seqDeck(2, 98))
	if !g.Trade.Enabled["p1"] {
		t.Error("display name matching the trigger should enable the trade action")
	}
	if g.Trade.Enabled["p0"] {
		t.Error("other players must not gain the trade action")
	}
}

// ---------------------------------------------------------------------------
// PlayCard
// ---------------------------------------------------------------------------

// playableState returns a 2-player playing state with known hands:
// p0 {10,12,14,16,18}, p1 {11,13,15,17,19}, draw pile empty, piles fresh.
func playableState(t *testing.T) *GameState {
	t.Helper()
	g := newLobby(t, "alice", "bob")
	s := g.Settings
	s.HandSize = 5
	s.MinPlaysPerTurn = 1
	g, err := g.UpdateSettings("p0", s)
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	return mustStart(t, g, seqDeck(10, 10))
}

func TestPlayCardSuccess(t *testing.T) {
	g := playableState(t)
	c := handOf(g, "p0")[0] // value 10
	next, err := g.PlayCard("p0", c.ID, 0)
	if err != nil {
		t.Fatalf("PlayCard: %v", err)
	}
	if next.Piles[0].Top.ID != c.ID {
		t.Error("pile top not replaced")
	}
	if len(handOf(next, "p0")) != 4 {
		t.Errorf("hand size %d, want 4", len(handOf(next, "p0")))
	}
	if next.PlayedThisTurn != 1 {
		t.Errorf("playedThisTurn %d, want 1", next.PlayedThisTurn)
	}
	ps := next.Stats.Players["p0"]
	if ps.CardsPlayed != 1 || ps.PileDistance != 9 || ps.SkipPlays != 0 {
		t.Errorf("stats %+v, want 1 played, distance 9, 0 skips", ps)
	}
	if err := next.CheckInvariants(); err != nil {
		t.Errorf("invariants: %v", err)
	}
}

func TestPlayCardSkipStatistic(t *testing.T) {
	g := playableState(t)
	// Put ascending pile 0 at 28; playing the 18 is a skip-by-10 play.
	g.Piles[0].Top = Card{ID: "seed", Value: 28}
	c := handOf(g, "p0")[4] // value 18
	next, err := g.PlayCard("p0", c.ID, 0)
	if err != nil {
		t.Fatalf("PlayCard: %v", err)
	}
	ps := next.Stats.Players["p0"]
	if ps.SkipPlays != 1 || ps.PileDistance != 10 {
		t.Errorf("stats %+v, want 1 skip and distance 10", ps)
	}
}

func TestPlayCardNotYourTurn(t *testing.T) {
	g := playableState(t)
	c := handOf(g, "p1")[0]
	if _, err := g.PlayCard("p1", c.ID, 0); CodeOf(err) != ErrCodeAuthority {
		t.Errorf("expected %s, got %v", ErrCodeAuthority, err)
	}
}

func TestPlayCardUnknownCardAndPile(t *testing.T) {
	g := playableState(t)
	if _, err := g.PlayCard("p0", "nope", 0); CodeOf(err) != ErrCodeNotFound {
		t.Errorf("unknown card: expected %s, got %v", ErrCodeNotFound, err)
	}
	c := handOf(g, "p0")[0]
	if _, err := g.PlayCard("p0", c.ID, 7); CodeOf(err) != ErrCodeNotFound {
		t.Errorf("unknown pile: expected %s, got %v", ErrCodeNotFound, err)
	}
}

// Idempotent rejection: an illegal play leaves the state deep-equal to the
// input; there is no partial application.
func TestPlayCardRejectionLeavesStateUntouched(t *testing.T) {
	g := newLobby(t, "alice", "bob")
	s := g.Settings
	s.HandSize = 5
	g, err := g.UpdateSettings("p0", s)
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	g = mustStart(t, g, seqDeck(10, 20))
	g.Piles[0].Top = Card{ID: "seed", Value: 50} // every hand card now illegal on pile 0
	before := g.clone()

	c := handOf(g, "p0")[0]
	if _, err := g.PlayCard("p0", c.ID, 0); CodeOf(err) != ErrCodeRule {
		t.Fatalf("expected %s, got %v", ErrCodeRule, err)
	}
	if !reflect.DeepEqual(before, g) {
		t.Error("rejected play modified the state")
	}
}

func TestPlayCardImmediateRefill(t *testing.T) {
	g := newLobby(t, "alice", "bob")
	s := g.Settings
	s.HandSize = 5
	s.MinPlaysPerTurn = 1
	s.RefillAfterPlay = true
	g, err := g.UpdateSettings("p0", s)
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	g = mustStart(t, g, seqDeck(10, 20)) // 10 dealt, 10 in draw pile

	c := handOf(g, "p0")[0]
	next, err := g.PlayCard("p0", c.ID, 0)
	if err != nil {
		t.Fatalf("PlayCard: %v", err)
	}
	if len(handOf(next, "p0")) != 5 {
		t.Errorf("refill after play: hand size %d, want 5", len(handOf(next, "p0")))
	}
	if len(next.DrawPile) != 9 {
		t.Errorf("draw pile %d, want 9", len(next.DrawPile))
	}
}

// ---------------------------------------------------------------------------
// EndTurn
// ---------------------------------------------------------------------------

func TestEndTurnGating(t *testing.T) {
	g := playableState(t)
	if _, err := g.EndTurn("p0"); CodeOf(err) != ErrCodeMinimum {
		t.Errorf("expected %s before any play, got %v", ErrCodeMinimum, err)
	}

	c := handOf(g, "p0")[0]
	g, err := g.PlayCard("p0", c.ID, 0)
	if err != nil {
		t.Fatalf("PlayCard: %v", err)
	}
	next, err := g.EndTurn("p0")
	if err != nil {
		t.Fatalf("EndTurn after meeting minimum: %v", err)
	}
	if next.CurrentPlayer != 1 {
		t.Errorf("current player %d, want 1", next.CurrentPlayer)
	}
	if next.PlayedThisTurn != 0 {
		t.Errorf("playedThisTurn %d, want 0 after turn end", next.PlayedThisTurn)
	}
	if next.Stats.Turns != 1 {
		t.Errorf("turn counter %d, want 1", next.Stats.Turns)
	}
}

func TestEndTurnWrongActor(t *testing.T) {
	g := playableState(t)
	if _, err := g.EndTurn("p1"); CodeOf(err) != ErrCodeAuthority {
		t.Errorf("expected %s, got %v", ErrCodeAuthority, err)
	}
}

func TestEndTurnSolitaireNoop(t *testing.T) {
	g := mustStart(t, newLobby(t, "alice"), seqDeck(2, 98))
	next, err := g.EndTurn("p0")
	if err != nil {
		t.Fatalf("EndTurn: %v", err)
	}
	if next != g {
		t.Error("solitaire EndTurn should return the same state")
	}
}

func TestEndTurnRefillsAtTurnEnd(t *testing.T) {
	g := newLobby(t, "alice", "bob")
	s := g.Settings
	s.HandSize = 5
	s.MinPlaysPerTurn = 1
	g, err := g.UpdateSettings("p0", s)
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	g = mustStart(t, g, seqDeck(10, 20)) // refill-at-turn-end policy, 10 in draw

	c := handOf(g, "p0")[0]
	g, err = g.PlayCard("p0", c.ID, 0)
	if err != nil {
		t.Fatalf("PlayCard: %v", err)
	}
	if len(handOf(g, "p0")) != 4 {
		t.Fatalf("no refill expected before turn end, hand %d", len(handOf(g, "p0")))
	}
	next, err := g.EndTurn("p0")
	if err != nil {
		t.Fatalf("EndTurn: %v", err)
	}
	if len(handOf(next, "p0")) != 5 {
		t.Errorf("end-of-turn refill: hand %d, want 5", len(handOf(next, "p0")))
	}
}

func TestEndTurnSkipsEmptyHands(t *testing.T) {
	g := playableState(t)
	// Empty p1's hand by hand; p0 plays and ends, so the turn must wrap to p0.
	g.Players[1].Hand = nil
	c := handOf(g, "p0")[0]
	g, err := g.PlayCard("p0", c.ID, 0)
	if err != nil {
		t.Fatalf("PlayCard: %v", err)
	}
	next, err := g.EndTurn("p0")
	if err != nil {
		t.Fatalf("EndTurn: %v", err)
	}
	if next.CurrentPlayer != 0 {
		t.Errorf("turn should wrap back to p0, got %d", next.CurrentPlayer)
	}
}

// ---------------------------------------------------------------------------
// Win / Loss scenarios
// ---------------------------------------------------------------------------

// A 2-player game, hand size 5, a deck sized exactly to deal 10 cards with
// zero remainder: the game reaches won the moment both hands are empty and
// no earlier.
func TestWinScenarioExactDeck(t *testing.T) {
	g := playableState(t) // deck 10..19 dealt fully, empty draw pile

	players := []string{"p0", "p1"}
	for turn := 0; turn < 10; turn++ {
		actor := players[turn%2]
		c := handOf(g, actor)[0] // hands remain sorted ascending by deal order
		var err error
		g, err = g.PlayCard(actor, c.ID, 0)
		if err != nil {
			t.Fatalf("turn %d: PlayCard(%d): %v", turn, c.Value, err)
		}
		if turn < 9 {
			if g.Phase != PhasePlaying {
				t.Fatalf("turn %d: phase %s before hands empty", turn, g.Phase)
			}
			g, err = g.EndTurn(actor)
			if err != nil {
				t.Fatalf("turn %d: EndTurn: %v", turn, err)
			}
		}
	}
	if g.Phase != PhaseWon {
		t.Errorf("phase %s, want won", g.Phase)
	}
	if g.Stats.EndedAt.IsZero() {
		t.Error("end timestamp not recorded")
	}
}

// Multiplayer with zero legal plays: phase stays playing when the minimum
// is satisfied (the player may still pass), and becomes lost when it is not.
func TestLossAsymmetryMultiplayer(t *testing.T) {
	g := playableState(t)
	deadHand := []Card{{ID: "dead", Value: 45}}
	g.Players[0].Hand = deadHand
	for i := range g.Piles {
		if g.Piles[i].Direction == Ascending {
			g.Piles[i].Top = Card{ID: "a", Value: 50}
		} else {
			g.Piles[i].Top = Card{ID: "d", Value: 30}
		}
	}

	met := g.clone()
	met.PlayedThisTurn = 1 // draw pile empty → required is 1
	met.evaluateTerminal()
	if met.Phase != PhasePlaying {
		t.Errorf("minimum met: phase %s, want playing", met.Phase)
	}

	unmet := g.clone()
	unmet.PlayedThisTurn = 0
	unmet.evaluateTerminal()
	if unmet.Phase != PhaseLost {
		t.Errorf("minimum unmet: phase %s, want lost", unmet.Phase)
	}
}

func TestLossSolitaireImmediate(t *testing.T) {
	g := mustStart(t, newLobby(t, "alice"), seqDeck(2, 98))
	g.Players[0].Hand = []Card{{ID: "dead", Value: 45}}
	g.DrawPile = nil
	for i := range g.Piles {
		if g.Piles[i].Direction == Ascending {
			g.Piles[i].Top = Card{ID: "a", Value: 50}
		} else {
			g.Piles[i].Top = Card{ID: "d", Value: 30}
		}
	}
	g.PlayedThisTurn = 3 // irrelevant in solitaire
	g.evaluateTerminal()
	if g.Phase != PhaseLost {
		t.Errorf("solitaire with no plays: phase %s, want lost", g.Phase)
	}
}

// ---------------------------------------------------------------------------
// Trade action
// ---------------------------------------------------------------------------

func tradeState(t *testing.T) *GameState {
	t.Helper()
	g := newLobby(t, "ORACLE", "bob")
	s := g.Settings
	s.HandSize = 5
	g, err := g.UpdateSettings("p0", s)
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	return mustStart(t, g, seqDeck(10, 30)) // 20 cards left in draw pile
}

func TestUseTradeSwapsCardIntoDrawPile(t *testing.T) {
	g := tradeState(t)
	traded := handOf(g, "p0")[2]
	next, err := g.UseTrade("p0", traded.ID)
	if err != nil {
		t.Fatalf("UseTrade: %v", err)
	}
	if len(handOf(next, "p0")) != 5 {
		t.Errorf("hand size %d, want unchanged 5", len(handOf(next, "p0")))
	}
	for _, c := range handOf(next, "p0") {
		if c.ID == traded.ID {
			t.Error("traded card still in hand")
		}
	}
	found := false
	for _, c := range next.DrawPile {
		if c.ID == traded.ID {
			found = true
			break
		}
	}
	if !found {
		t.Error("traded card not reinserted into the draw pile")
	}
	if len(next.DrawPile) != len(g.DrawPile) {
		t.Errorf("draw pile size changed: %d → %d", len(g.DrawPile), len(next.DrawPile))
	}
	if next.Stats.Players["p0"].TradeUses != 1 {
		t.Error("trade use not counted")
	}
	if err := next.CheckInvariants(); err != nil {
		t.Errorf("invariants: %v", err)
	}
}

func TestUseTradeOncePerTurn(t *testing.T) {
	g := tradeState(t)
	next, err := g.UseTrade("p0", handOf(g, "p0")[0].ID)
	if err != nil {
		t.Fatalf("UseTrade: %v", err)
	}
	if _, err := next.UseTrade("p0", handOf(next, "p0")[0].ID); CodeOf(err) != ErrCodeAuthority {
		t.Errorf("second use in one turn: expected %s, got %v", ErrCodeAuthority, err)
	}
}

func TestUseTradeResetAtTurnEnd(t *testing.T) {
	g := tradeState(t)
	g, err := g.UseTrade("p0", handOf(g, "p0")[0].ID)
	if err != nil {
		t.Fatalf("UseTrade: %v", err)
	}
	// p0 plays enough to end the turn, then the flag must clear.
	for g.PlayedThisTurn < RequiredPlays(g.Settings.MinPlaysPerTurn, len(g.DrawPile)) {
		played := false
		for _, c := range handOf(g, "p0") {
			for pi := range g.Piles {
				if IsLegalPlay(c, g.Piles[pi]) {
					g, err = g.PlayCard("p0", c.ID, pi)
					if err != nil {
						t.Fatalf("PlayCard: %v", err)
					}
					played = true
					break
				}
			}
			if played {
				break
			}
		}
		if !played {
			t.Fatal("no legal play available to satisfy the minimum")
		}
	}
	g, err = g.EndTurn("p0")
	if err != nil {
		t.Fatalf("EndTurn: %v", err)
	}
	if g.Trade.UsedThisTurn["p0"] {
		t.Error("per-turn trade flag should reset at turn end")
	}
}

func TestUseTradeIneligible(t *testing.T) {
	g := tradeState(t)
	if _, err := g.UseTrade("p1", handOf(g, "p1")[0].ID); CodeOf(err) != ErrCodeAuthority {
		t.Errorf("expected %s for ineligible player, got %v", ErrCodeAuthority, err)
	}
}

func TestUseTradeEmptyDrawPile(t *testing.T) {
	g := tradeState(t)
	g.DrawPile = nil
	if _, err := g.UseTrade("p0", handOf(g, "p0")[0].ID); CodeOf(err) != ErrCodeRule {
		t.Errorf("expected %s with empty draw pile, got %v", ErrCodeRule, err)
	}
}

// ---------------------------------------------------------------------------
// Reset and conservation
// ---------------------------------------------------------------------------

func TestResetReturnsToLobby(t *testing.T) {
	g := playableState(t)
	g.Phase = PhaseLost
	if _, err := g.Reset("p1"); CodeOf(err) != ErrCodeAuthority {
		t.Errorf("non-host reset: expected %s, got %v", ErrCodeAuthority, err)
	}
	next, err := g.Reset("p0")
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if next.Phase != PhaseLobby {
		t.Errorf("phase %s, want lobby", next.Phase)
	}
	if len(next.Players) != 2 {
		t.Error("reset must keep players seated")
	}
	for _, p := range next.Players {
		if len(p.Hand) != 0 {
			t.Error("reset must clear hands")
		}
	}
}

func TestResetRequiresTerminalPhase(t *testing.T) {
	g := playableState(t)
	if _, err := g.Reset("p0"); CodeOf(err) != ErrCodePhase {
		t.Errorf("expected %s, got %v", ErrCodePhase, err)
	}
}

// Card conservation: across a sequence of accepted actions every card stays
// in exactly one place, and the retired count equals the initial deck size
// minus the live count.
func TestCardConservation(t *testing.T) {
	g := tradeState(t)
	initial := countCards(g) // dealt + draw + 4 synthetic tops

	var err error
	retired := 0
	for i := 0; i < 6; i++ {
		if g.Phase != PhasePlaying {
			break
		}
		actor := g.Players[g.CurrentPlayer].ID
		played := false
		for _, c := range handOf(g, actor) {
			for pi := range g.Piles {
				if IsLegalPlay(c, g.Piles[pi]) {
					g, err = g.PlayCard(actor, c.ID, pi)
					if err != nil {
						t.Fatalf("PlayCard: %v", err)
					}
					retired++ // the covered top left play
					played = true
					break
				}
			}
			if played {
				break
			}
		}
		if !played {
			break
		}
		if err := g.CheckInvariants(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if countCards(g)+retired != initial {
			t.Fatalf("step %d: %d live + %d retired != %d initial", i, countCards(g), retired, initial)
		}
	}
}
