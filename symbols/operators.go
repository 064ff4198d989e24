// Copyright © 2024 The ELPS authors

package symbols

import (
	"github.com/luthersystems/sharpbind/syntax"
)

// Metadata names of user-defined conversion operators.
const (
	ImplicitConversionName = "op_Implicit"
	ExplicitConversionName = "op_Explicit"
)

var binaryOperatorNames = map[syntax.BinaryOp]string{
	syntax.BinaryAdd: "op_Addition",
	syntax.BinarySub: "op_Subtraction",
	syntax.BinaryMul: "op_Multiply",
	syntax.BinaryDiv: "op_Division",
	syntax.BinaryMod: "op_Modulus",
	syntax.BinaryAnd: "op_BitwiseAnd",
	syntax.BinaryOr:  "op_BitwiseOr",
	syntax.BinaryXor: "op_ExclusiveOr",
	syntax.BinaryShl: "op_LeftShift",
	syntax.BinaryShr: "op_RightShift",
	syntax.BinaryEq:  "op_Equality",
	syntax.BinaryNe:  "op_Inequality",
	syntax.BinaryLt:  "op_LessThan",
	syntax.BinaryGt:  "op_GreaterThan",
	syntax.BinaryLe:  "op_LessThanOrEqual",
	syntax.BinaryGe:  "op_GreaterThanOrEqual",
}

var unaryOperatorNames = map[syntax.UnaryOp]string{
	syntax.UnaryPlus:          "op_UnaryPlus",
	syntax.UnaryMinus:         "op_UnaryNegation",
	syntax.UnaryNot:           "op_LogicalNot",
	syntax.UnaryComplement:    "op_OnesComplement",
	syntax.UnaryPreIncrement:  "op_Increment",
	syntax.UnaryPostIncrement: "op_Increment",
	syntax.UnaryPreDecrement:  "op_Decrement",
	syntax.UnaryPostDecrement: "op_Decrement",
}

// BinaryOperatorName returns the metadata name of a user-defined binary
// operator, or "" when op cannot be overloaded.
func BinaryOperatorName(op syntax.BinaryOp) string { return binaryOperatorNames[op] }

// UnaryOperatorName returns the metadata name of a user-defined unary
// operator, or "" when op cannot be overloaded.
func UnaryOperatorName(op syntax.UnaryOp) string { return unaryOperatorNames[op] }

// operatorMethodName maps an operator token and operand count to its
// metadata name.
func operatorMethodName(token string, arity int) string {
	switch token {
	case "true":
		return "op_True"
	case "false":
		return "op_False"
	}
	if arity == 1 {
		for op, name := range unaryOperatorNames {
			if op.String() == token {
				return name
			}
		}
		return ""
	}
	for op, name := range binaryOperatorNames {
		if op.String() == token {
			return name
		}
	}
	return ""
}
