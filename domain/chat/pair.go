package chat

import "fmt"

// Pair is the canonical, unordered form of two participants.
// Low is always the smaller identifier so {a,b} and {b,a} compare equal.
type Pair struct {
	Low  UserID
	High UserID
}

func NewPair(a, b UserID) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{Low: a, High: b}
}

func (p Pair) Members() [2]UserID {
	return [2]UserID{p.Low, p.High}
}

func (p Pair) Contains(id UserID) bool {
	return p.Low == id || p.High == id
}

// Distinct reports whether the pair names two different users.
func (p Pair) Distinct() bool {
	return p.Low != p.High
}

func (p Pair) String() string {
	return fmt.Sprintf("%d:%d", p.Low, p.High)
}
