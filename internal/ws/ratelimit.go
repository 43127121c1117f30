// internal/ws/ratelimit.go
package ws

import "time"

// Rate limit windows per action type. Lobby queries are cheap and chatty;
// game actions are human-paced; room creation is the abuse magnet.
var limits = map[string]limit{
	ActionCreateRoom:     {3, 10 * time.Second},
	ActionJoinRoom:       {5, 10 * time.Second},
	ActionLeaveRoom:      {5, 10 * time.Second},
	ActionListRooms:      {10, 5 * time.Second},
	ActionLookupRoom:     {10, 5 * time.Second},
	ActionUpdateSettings: {5, 5 * time.Second},
	ActionStartGame:      {3, 5 * time.Second},
	ActionPlayCard:       {10, 2 * time.Second},
	ActionEndTurn:        {5, 2 * time.Second},
	ActionUseTrade:       {3, 2 * time.Second},
	ActionResetGame:      {3, 10 * time.Second},
}

var defaultLimit = limit{10, 5 * time.Second}

type limit struct {
	count  int
	window time.Duration
}

// rateLimiter is a per-connection sliding window over action timestamps.
// Owned by the connection's read loop, so it needs no locking.
type rateLimiter struct {
	events map[string][]time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{events: make(map[string][]time.Time)}
}

// allow records an attempt and reports whether it is within the action's
// window. Rejected attempts are not recorded, so a client hammering one
// action recovers as soon as it backs off.
func (rl *rateLimiter) allow(action string, now time.Time) bool {
	lim, ok := limits[action]
	if !ok {
		lim = defaultLimit
	}

	recent := rl.events[action][:0]
	for _, t := range rl.events[action] {
		if now.Sub(t) < lim.window {
			recent = append(recent, t)
		}
	}
	if len(recent) >= lim.count {
		rl.events[action] = recent
		return false
	}
	rl.events[action] = append(recent, now)
	return true
}
