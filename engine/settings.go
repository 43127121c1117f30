package engine

// Settings holds the validated game configuration.
type Settings struct {
	MinCardValue    int  `json:"minCardValue"`
	MaxCardValue    int  `json:"maxCardValue"`
	HandSize        int  `json:"handSize"`
	MinPlayers      int  `json:"minPlayers"`
	MaxPlayers      int  `json:"maxPlayers"`
	MinPlaysPerTurn int  `json:"minPlaysPerTurn"`
	RefillAfterPlay bool `json:"refillAfterPlay"`
	Public          bool `json:"public"`

	// AllowUndo is accepted and carried but not implemented by the engine.
	AllowUndo bool `json:"allowUndo"`
}

const (
	minValueSpan = 18
	minHandSize  = 5
	maxHandSize  = 9
	maxSeats     = 6
	maxMinPlays  = 3
)

// DefaultSettings returns the standard configuration: values 2–99, seven
// cards in hand, two plays per turn, refill at turn end.
func DefaultSettings() Settings {
	return Settings{
		MinCardValue:    2,
		MaxCardValue:    99,
		HandSize:        7,
		MinPlayers:      1,
		MaxPlayers:      maxSeats,
		MinPlaysPerTurn: 2,
		RefillAfterPlay: false,
		Public:          true,
	}
}

// Validate checks every configurable bound. A configuration error surfaces
// only at room creation or settings update, never mid-game.
func (s Settings) Validate() error {
	if s.MaxCardValue-s.MinCardValue+1 < minValueSpan {
		return newError(ErrCodeConfig, "card value range must span at least %d values, got %d..%d",
			minValueSpan, s.MinCardValue, s.MaxCardValue)
	}
	if s.HandSize < minHandSize || s.HandSize > maxHandSize {
		return newError(ErrCodeConfig, "hand size must be between %d and %d, got %d",
			minHandSize, maxHandSize, s.HandSize)
	}
	if s.MinPlayers < 1 || s.MaxPlayers > maxSeats || s.MinPlayers > s.MaxPlayers {
		return newError(ErrCodeConfig, "player bounds must satisfy 1 <= min <= max <= %d, got %d..%d",
			maxSeats, s.MinPlayers, s.MaxPlayers)
	}
	if s.MinPlaysPerTurn < 1 || s.MinPlaysPerTurn > maxMinPlays {
		return newError(ErrCodeConfig, "minimum plays per turn must be between 1 and %d, got %d",
			maxMinPlays, s.MinPlaysPerTurn)
	}
	return nil
}
