package engine

// IsLegalPlay reports whether card may be placed on pile. Ascending piles
// accept any greater value, or exactly top−10 (the skip-by-10 exception
// applied backward). Descending piles accept any smaller value, or exactly
// top+10. No other exceptions exist.
func IsLegalPlay(card Card, pile FoundationPile) bool {
	switch pile.Direction {
	case Ascending:
		return card.Value > pile.Top.Value || card.Value == pile.Top.Value-10
	case Descending:
		return card.Value < pile.Top.Value || card.Value == pile.Top.Value+10
	}
	return false
}

// isSkipPlay reports whether placing card on pile uses the skip-by-10
// exception rather than the pile's natural direction.
func isSkipPlay(card Card, pile FoundationPile) bool {
	switch pile.Direction {
	case Ascending:
		return card.Value == pile.Top.Value-10
	case Descending:
		return card.Value == pile.Top.Value+10
	}
	return false
}

// RequiredPlays returns the number of cards the current player must play
// before ending the turn: 1 once the draw pile is empty, otherwise the
// configured minimum.
func RequiredPlays(configuredMinimum, drawPileSize int) int {
	if drawPileSize == 0 {
		return 1
	}
	return configuredMinimum
}

// distance returns the absolute value gap a play covers on a pile.
func distance(card Card, pile FoundationPile) int {
	d := card.Value - pile.Top.Value
	if d < 0 {
		return -d
	}
	return d
}
