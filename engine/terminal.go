package engine

import "time"

// evaluateTerminal runs after every state-mutating operation, on the clone.
//
// Order matters: the win check comes first (all hands empty), then the loss
// check on the active player's continuations. Solitaire loses the moment no
// legal play exists; multiplayer loses only when the active player also has
// not met the turn's required play count: a player who met the minimum may
// pass the turn even holding only dead cards. This asymmetry is deliberate
// and changes observable game outcomes; do not unify the two modes.
func (g *GameState) evaluateTerminal() {
	if g.Phase != PhasePlaying {
		return
	}

	allEmpty := true
	for _, p := range g.Players {
		if len(p.Hand) > 0 {
			allEmpty = false
			break
		}
	}
	if allEmpty {
		g.Phase = PhaseWon
		g.markEnded()
		return
	}

	current := g.Players[g.CurrentPlayer]
	if HasAnyPlay(current.Hand, g.Piles) {
		return
	}

	if g.solitaire() {
		g.Phase = PhaseLost
		g.markEnded()
		return
	}

	required := RequiredPlays(g.Settings.MinPlaysPerTurn, len(g.DrawPile))
	if g.PlayedThisTurn < required {
		g.Phase = PhaseLost
		g.markEnded()
	}
}

// markEnded records the end timestamp once; phase monotonicity makes the
// write idempotent.
func (g *GameState) markEnded() {
	if g.Stats.EndedAt.IsZero() {
		g.Stats.EndedAt = time.Now()
	}
}
