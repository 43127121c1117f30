package engine

// CanChain reports whether at least required legal plays can be made in
// sequence from the given hand against the given pile tops. When refill is
// true each play hypothetically draws one replacement from the front of the
// draw pile before the next play is attempted, mirroring the live refill
// policy.
//
// The search is an explicit bounded depth-first walk: branching is at most
// |hand| × NumPiles per ply and depth is at most required (≤ 3 by
// configuration), so the worst case stays cheap at interactive latency.
// Every branch works on value copies of hand, tops and draw pile; the live
// state is never touched.
func CanChain(hand []Card, piles [NumPiles]FoundationPile, draw []Card, required int, refill bool) bool {
	if required <= 0 {
		return true
	}

	type frame struct {
		hand  []Card
		piles [NumPiles]FoundationPile
		draw  []Card
		depth int
	}

	stack := []frame{{
		hand:  append([]Card(nil), hand...),
		piles: piles,
		draw:  append([]Card(nil), draw...),
		depth: 0,
	}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for ci := range f.hand {
			for pi := range f.piles {
				if !IsLegalPlay(f.hand[ci], f.piles[pi]) {
					continue
				}
				if f.depth+1 >= required {
					return true
				}

				child := frame{
					hand:  make([]Card, 0, len(f.hand)),
					piles: f.piles,
					draw:  append([]Card(nil), f.draw...),
					depth: f.depth + 1,
				}
				child.hand = append(child.hand, f.hand[:ci]...)
				child.hand = append(child.hand, f.hand[ci+1:]...)
				child.piles[pi].Top = f.hand[ci]
				if refill && len(child.draw) > 0 {
					child.hand = append(child.hand, child.draw[0])
					child.draw = child.draw[1:]
				}
				stack = append(stack, child)
			}
		}
	}
	return false
}

// HasAnyPlay reports whether a single legal play exists at all. This is the
// depth-1 query loss detection runs after every mutating operation.
func HasAnyPlay(hand []Card, piles [NumPiles]FoundationPile) bool {
	for _, c := range hand {
		for _, p := range piles {
			if IsLegalPlay(c, p) {
				return true
			}
		}
	}
	return false
}
