// Copyright © 2024 The ELPS authors

package symbols

import (
	"math"
)

// Constant values are represented as Go values: int64 for signed integral
// types, uint64 for unsigned ones, float64 for float, double and decimal,
// rune for char, plus bool and string.  A nil value is the null constant.

type intRange struct {
	min int64
	max uint64
}

var integralRanges = map[SpecialType]intRange{
	SpecialSByte:  {math.MinInt8, math.MaxInt8},
	SpecialByte:   {0, math.MaxUint8},
	SpecialInt16:  {math.MinInt16, math.MaxInt16},
	SpecialUInt16: {0, math.MaxUint16},
	SpecialInt32:  {math.MinInt32, math.MaxInt32},
	SpecialUInt32: {0, math.MaxUint32},
	SpecialInt64:  {math.MinInt64, math.MaxInt64},
	SpecialUInt64: {0, math.MaxUint64},
	SpecialChar:   {0, math.MaxUint16},
}

// integerValue splits an integral constant into sign and magnitude.
func integerValue(v interface{}) (neg bool, mag uint64, ok bool) {
	switch v := v.(type) {
	case int64:
		if v < 0 {
			return true, uint64(-(v + 1)) + 1, true
		}
		return false, uint64(v), true
	case uint64:
		return false, v, true
	case rune:
		return false, uint64(v), true
	}
	return false, 0, false
}

// ConstantFits reports whether the integral constant v is representable in
// the integral type st.  It is the test behind implicit constant
// expression conversions.
func ConstantFits(v interface{}, st SpecialType) bool {
	r, ok := integralRanges[st]
	if !ok {
		return false
	}
	neg, mag, ok := integerValue(v)
	if !ok {
		return false
	}
	if neg {
		if r.min == 0 {
			return false
		}
		return mag <= uint64(-(r.min+1))+1
	}
	return mag <= r.max
}

// ConvertConstant converts the constant v to its representation in st.
// Integral narrowing wraps and floating point values truncate toward zero,
// as an unchecked explicit conversion would.  ok is false when v is not a
// constant of a convertible type.
func ConvertConstant(v interface{}, st SpecialType) (out interface{}, ok bool) {
	switch st {
	case SpecialBoolean:
		b, ok := v.(bool)
		return b, ok
	case SpecialString:
		if v == nil {
			return nil, true
		}
		s, ok := v.(string)
		return s, ok
	case SpecialSingle:
		f, ok := toFloat(v)
		return float64(float32(f)), ok
	case SpecialDouble, SpecialDecimal:
		return toFloat(v)
	}
	if _, integral := integralRanges[st]; !integral {
		return nil, false
	}
	var bits uint64
	switch v := v.(type) {
	case int64:
		bits = uint64(v)
	case uint64:
		bits = v
	case rune:
		bits = uint64(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
		if v < 0 {
			bits = uint64(int64(v))
		} else {
			bits = uint64(v)
		}
	default:
		return nil, false
	}
	switch st {
	case SpecialSByte:
		return int64(int8(bits)), true
	case SpecialByte:
		return uint64(uint8(bits)), true
	case SpecialInt16:
		return int64(int16(bits)), true
	case SpecialUInt16:
		return uint64(uint16(bits)), true
	case SpecialInt32:
		return int64(int32(bits)), true
	case SpecialUInt32:
		return uint64(uint32(bits)), true
	case SpecialInt64:
		return int64(bits), true
	case SpecialChar:
		return rune(uint16(bits)), true
	default:
		return bits, true
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch v := v.(type) {
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case rune:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}
