// Copyright © 2024 The ELPS authors

package conversion

import (
	"github.com/luthersystems/sharpbind/symbols"
)

// Betterness is the outcome of comparing two candidates.
type Betterness int

const (
	Neither Betterness = iota
	Left
	Right
)

func (b Betterness) String() string {
	switch b {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "neither"
	}
}

// BetterTarget compares two conversion targets.  t1 is better when an
// implicit conversion exists from t1 to t2 but not back, or when t1 is a
// signed integral type and t2 an unsigned integral type of at least the
// same rank.
func (c *Classifier) BetterTarget(t1, t2 symbols.Type) Betterness {
	if c.IdentityConvertible(t1, t2) {
		return Neither
	}
	to2 := c.ClassifyImplicit(t1, t2).Exists()
	to1 := c.ClassifyImplicit(t2, t1).Exists()
	switch {
	case to2 && !to1:
		return Left
	case to1 && !to2:
		return Right
	}
	s1, s2 := symbols.Special(t1), symbols.Special(t2)
	switch {
	case signedBeatsUnsigned(s1, s2):
		return Left
	case signedBeatsUnsigned(s2, s1):
		return Right
	}
	return Neither
}

func signedBeatsUnsigned(s, u symbols.SpecialType) bool {
	switch s {
	case symbols.SpecialSByte:
		return u == symbols.SpecialByte || u == symbols.SpecialUInt16 || u == symbols.SpecialUInt32 || u == symbols.SpecialUInt64
	case symbols.SpecialInt16:
		return u == symbols.SpecialUInt16 || u == symbols.SpecialUInt32 || u == symbols.SpecialUInt64
	case symbols.SpecialInt32:
		return u == symbols.SpecialUInt32 || u == symbols.SpecialUInt64
	case symbols.SpecialInt64:
		return u == symbols.SpecialUInt64
	}
	return false
}
