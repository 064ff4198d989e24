// Copyright © 2024 The ELPS authors

package diagnostic

import "sort"

// Code identifies a kind of diagnostic.  Binder codes are "SB" followed by
// four digits; lint diagnostics use the reporting analyzer's name.
type Code string

// Family groups codes for consumers that react to a class of failure
// rather than a specific code.
type Family int

const (
	FamilyOther Family = iota
	FamilyNameNotFound
	FamilyWrongArity
	FamilyAmbiguousReference
	FamilyOverloadResolution
	FamilyStaticInstance
	FamilyBadDynamicOperand
	FamilyScopeConflict
	FamilyQueryOperator
	FamilyValueKind
	FamilyConversion
	FamilyLint
)

func (f Family) String() string {
	switch f {
	case FamilyNameNotFound:
		return "name-not-found"
	case FamilyWrongArity:
		return "wrong-arity"
	case FamilyAmbiguousReference:
		return "ambiguous-reference"
	case FamilyOverloadResolution:
		return "overload-resolution-failure"
	case FamilyStaticInstance:
		return "static-instance-mismatch"
	case FamilyBadDynamicOperand:
		return "bad-dynamic-operand"
	case FamilyScopeConflict:
		return "scope-conflict"
	case FamilyQueryOperator:
		return "query-operator-not-found"
	case FamilyValueKind:
		return "value-kind"
	case FamilyConversion:
		return "conversion"
	case FamilyLint:
		return "lint"
	default:
		return "other"
	}
}

// Info describes a code.
type Info struct {
	Severity Severity
	Family   Family
	Format   string
}

const (
	// Name lookup.
	NameNotFound            Code = "SB0103"
	TypeOrNamespaceNotFound Code = "SB0246"
	MemberNotFound          Code = "SB0117"
	ExtensionNotFound       Code = "SB1061"
	NamespaceMemberNotFound Code = "SB0234"
	Inaccessible            Code = "SB0122"
	AmbiguousReference      Code = "SB0104"
	WrongArity              Code = "SB0305"
	NotGeneric              Code = "SB0308"
	UseBeforeDeclaration    Code = "SB0841"

	// Value kinds.
	BadSymbolKind          Code = "SB0118"
	NotValidInContext      Code = "SB0119"
	AssignmentTarget       Code = "SB0131"
	ReadOnlyProperty       Code = "SB0200"
	ReadOnlyField          Code = "SB0191"
	ReadOnlyLocal          Code = "SB1604"
	WriteOnlyProperty      Code = "SB0154"
	RefLvalueExpected      Code = "SB1510"
	MethodNameExpected     Code = "SB0149"
	NonInvocableMember     Code = "SB1955"
	VoidValue              Code = "SB0815"
	ThisUnavailable        Code = "SB0027"
	BaseUnavailable        Code = "SB0175"
	QueryRangeVariableRO   Code = "SB1947"
	BadIndexCount          Code = "SB0022"
	BadIndexTarget         Code = "SB0021"
	NoConstructors         Code = "SB0143"
	AbstractInstantiation  Code = "SB0144"
	StaticInstantiation    Code = "SB0712"
	AnonymousDuplicateName Code = "SB0833"
	AnonymousBadMember     Code = "SB0746"
	AnonymousBadValue      Code = "SB0828"
	NoBestArrayType        Code = "SB0826"
	ArrayInitLength        Code = "SB0847"
	UnsafeNeeded           Code = "SB0214"
	SizeOfUnsafe           Code = "SB0233"
	ConstantOverflow       Code = "SB0220"
	DivideByZero           Code = "SB0020"
	BadUnaryOperator       Code = "SB0023"
	BadBinaryOperator      Code = "SB0019"
	AmbiguousBinary        Code = "SB0034"
	AmbiguousUnary         Code = "SB0035"
	NoConditionalType      Code = "SB0173"

	// Conversions.
	NoImplicitConversion     Code = "SB0029"
	NoImplicitConversionCast Code = "SB0266"
	NoExplicitConversion     Code = "SB0030"
	NullToValueType          Code = "SB0037"
	LambdaNotDelegate        Code = "SB1660"
	LambdaArity              Code = "SB1593"
	LambdaParameterTypes     Code = "SB1661"
	LambdaReturnType         Code = "SB1662"
	MethodGroupToNonDelegate Code = "SB0428"
	NoMethodMatchesDelegate  Code = "SB0123"
	AsValueType              Code = "SB0077"

	// Local declarations.
	ConstantExpected    Code = "SB0133"
	ImplicitlyTypedInit Code = "SB0818"
	ImplicitlyTypedBad  Code = "SB0816"

	// Overload resolution.
	NoOverloadForArgCount   Code = "SB1501"
	BadArguments            Code = "SB1502"
	BadArgumentType         Code = "SB1503"
	BadArgumentRef          Code = "SB1620"
	BadNamedArgument        Code = "SB1739"
	DuplicateNamedArgument  Code = "SB1740"
	NamedArgumentPosition   Code = "SB1738"
	AmbiguousCall           Code = "SB0121"
	CannotInferTypeArgs     Code = "SB0411"
	ConstraintReferenceType Code = "SB0452"
	ConstraintValueType     Code = "SB0453"
	ConstraintNew           Code = "SB0310"
	ConstraintType          Code = "SB0311"
	BadProtectedAccess      Code = "SB1540"
	ObjectRequired          Code = "SB0120"
	InstanceAsStatic        Code = "SB0176"

	// Dynamic operands.
	DynamicLambdaArgument      Code = "SB1977"
	DynamicMethodGroupArgument Code = "SB1976"
	DynamicBadArgument         Code = "SB1978"
	DynamicExtension           Code = "SB1973"
	DynamicQuery               Code = "SB1979"

	// Scope conflicts.
	DuplicateLocal        Code = "SB0128"
	LocalShadowsEnclosing Code = "SB0136"
	NameMeaningChanged    Code = "SB0135"
	DuplicateRangeVar     Code = "SB1931"

	// Queries.
	QueryNoProvider       Code = "SB1935"
	QueryOperatorNotFound Code = "SB1936"
	QueryNoProviderCast   Code = "SB1934"
	QueryClauseInference  Code = "SB1942"
	QueryJoinKeyInference Code = "SB1941"
	QueryVoidProjection   Code = "SB1943"
	QueryLambdaConversion Code = "SB1937"
)

var codeInfo = map[Code]Info{
	NameNotFound:            {SeverityError, FamilyNameNotFound, "The name '%s' does not exist in the current context"},
	TypeOrNamespaceNotFound: {SeverityError, FamilyNameNotFound, "The type or namespace name '%s' could not be found (are you missing a using directive?)"},
	MemberNotFound:          {SeverityError, FamilyNameNotFound, "'%s' does not contain a definition for '%s'"},
	ExtensionNotFound:       {SeverityError, FamilyNameNotFound, "'%s' does not contain a definition for '%s' and no accessible extension method '%s' accepting a first argument of type '%s' could be found"},
	NamespaceMemberNotFound: {SeverityError, FamilyNameNotFound, "The type or namespace name '%s' does not exist in the namespace '%s'"},
	Inaccessible:            {SeverityError, FamilyNameNotFound, "'%s' is inaccessible due to its protection level"},
	AmbiguousReference:      {SeverityError, FamilyAmbiguousReference, "'%s' is an ambiguous reference between '%s' and '%s'"},
	WrongArity:              {SeverityError, FamilyWrongArity, "Using the generic %s '%s' requires %d type arguments"},
	NotGeneric:              {SeverityError, FamilyWrongArity, "The non-generic %s '%s' cannot be used with type arguments"},
	UseBeforeDeclaration:    {SeverityError, FamilyScopeConflict, "Cannot use local variable '%s' before it is declared"},

	BadSymbolKind:          {SeverityError, FamilyValueKind, "'%s' is a %s but is used like a %s"},
	NotValidInContext:      {SeverityError, FamilyValueKind, "'%s' is a %s, which is not valid in the given context"},
	AssignmentTarget:       {SeverityError, FamilyValueKind, "The left-hand side of an assignment must be a variable, property or indexer"},
	ReadOnlyProperty:       {SeverityError, FamilyValueKind, "Property or indexer '%s' cannot be assigned to -- it is read only"},
	ReadOnlyField:          {SeverityError, FamilyValueKind, "A readonly field '%s' cannot be assigned to"},
	ReadOnlyLocal:          {SeverityError, FamilyValueKind, "Cannot assign to '%s' because it is a constant"},
	WriteOnlyProperty:      {SeverityError, FamilyValueKind, "The property or indexer '%s' cannot be used in this context because it lacks the get accessor"},
	RefLvalueExpected:      {SeverityError, FamilyValueKind, "A ref or out value must be an assignable variable"},
	MethodNameExpected:     {SeverityError, FamilyValueKind, "Method name expected"},
	NonInvocableMember:     {SeverityError, FamilyValueKind, "Non-invocable member '%s' cannot be used like a method"},
	VoidValue:              {SeverityError, FamilyValueKind, "Cannot use an expression of type 'void' as a value"},
	ThisUnavailable:        {SeverityError, FamilyValueKind, "Keyword 'this' is not available in the current context"},
	BaseUnavailable:        {SeverityError, FamilyValueKind, "Use of keyword 'base' is not valid in this context"},
	QueryRangeVariableRO:   {SeverityError, FamilyValueKind, "Range variable '%s' cannot be assigned to -- it is read only"},
	BadIndexCount:          {SeverityError, FamilyValueKind, "Wrong number of indices inside []; expected %d"},
	BadIndexTarget:         {SeverityError, FamilyValueKind, "Cannot apply indexing with [] to an expression of type '%s'"},
	NoConstructors:         {SeverityError, FamilyValueKind, "The type '%s' has no constructors defined"},
	AbstractInstantiation:  {SeverityError, FamilyValueKind, "Cannot create an instance of the abstract type or interface '%s'"},
	StaticInstantiation:    {SeverityError, FamilyValueKind, "Cannot create an instance of the static class '%s'"},
	AnonymousDuplicateName: {SeverityError, FamilyValueKind, "An anonymous type cannot have multiple properties with the same name"},
	AnonymousBadMember:     {SeverityError, FamilyValueKind, "Invalid anonymous type member declarator; members must be declared with a member assignment, simple name or member access"},
	AnonymousBadValue:      {SeverityError, FamilyValueKind, "Cannot assign '%s' to anonymous type property"},
	NoBestArrayType:        {SeverityError, FamilyValueKind, "No best type found for implicitly-typed array"},
	ArrayInitLength:        {SeverityError, FamilyValueKind, "An array initializer of length '%d' is expected"},
	UnsafeNeeded:           {SeverityError, FamilyValueKind, "Pointers may only be used in an unsafe context"},
	SizeOfUnsafe:           {SeverityError, FamilyValueKind, "'%s' does not have a predefined size, therefore sizeof can only be used in an unsafe context"},
	ConstantOverflow:       {SeverityError, FamilyValueKind, "The operation overflows at compile time in checked mode"},
	DivideByZero:           {SeverityError, FamilyValueKind, "Division by constant zero"},
	BadUnaryOperator:       {SeverityError, FamilyValueKind, "Operator '%s' cannot be applied to operand of type '%s'"},
	BadBinaryOperator:      {SeverityError, FamilyValueKind, "Operator '%s' cannot be applied to operands of type '%s' and '%s'"},
	AmbiguousBinary:        {SeverityError, FamilyAmbiguousReference, "Operator '%s' is ambiguous on operands of type '%s' and '%s'"},
	AmbiguousUnary:         {SeverityError, FamilyAmbiguousReference, "Operator '%s' is ambiguous on an operand of type '%s'"},
	NoConditionalType:      {SeverityError, FamilyConversion, "Type of conditional expression cannot be determined because there is no implicit conversion between '%s' and '%s'"},

	NoImplicitConversion:     {SeverityError, FamilyConversion, "Cannot implicitly convert type '%s' to '%s'"},
	NoImplicitConversionCast: {SeverityError, FamilyConversion, "Cannot implicitly convert type '%s' to '%s'. An explicit conversion exists (are you missing a cast?)"},
	NoExplicitConversion:     {SeverityError, FamilyConversion, "Cannot convert type '%s' to '%s'"},
	NullToValueType:          {SeverityError, FamilyConversion, "Cannot convert null to '%s' because it is a non-nullable value type"},
	LambdaNotDelegate:        {SeverityError, FamilyConversion, "Cannot convert lambda expression to type '%s' because it is not a delegate type"},
	LambdaArity:              {SeverityError, FamilyConversion, "Delegate '%s' does not take %d arguments"},
	LambdaParameterTypes:     {SeverityError, FamilyConversion, "Cannot convert lambda expression to delegate type '%s' because the parameter types do not match the delegate parameter types"},
	LambdaReturnType:         {SeverityError, FamilyConversion, "Cannot convert lambda expression to delegate type '%s' because the return type is not implicitly convertible to '%s'"},
	MethodGroupToNonDelegate: {SeverityError, FamilyConversion, "Cannot convert method group '%s' to non-delegate type '%s'. Did you intend to invoke the method?"},
	NoMethodMatchesDelegate:  {SeverityError, FamilyConversion, "No overload for '%s' matches delegate '%s'"},
	AsValueType:              {SeverityError, FamilyConversion, "The as operator must be used with a reference type or nullable type ('%s' is a non-nullable value type)"},

	NoOverloadForArgCount:   {SeverityError, FamilyOverloadResolution, "No overload for method '%s' takes %d arguments"},
	BadArguments:            {SeverityError, FamilyOverloadResolution, "The best overloaded method match for '%s' has some invalid arguments"},
	BadArgumentType:         {SeverityError, FamilyOverloadResolution, "Argument %d: cannot convert from '%s' to '%s'"},
	BadArgumentRef:          {SeverityError, FamilyOverloadResolution, "Argument %d must be passed with the '%s' keyword"},
	BadNamedArgument:        {SeverityError, FamilyOverloadResolution, "The best overload for '%s' does not have a parameter named '%s'"},
	DuplicateNamedArgument:  {SeverityError, FamilyOverloadResolution, "Named argument '%s' cannot be specified multiple times"},
	NamedArgumentPosition:   {SeverityError, FamilyOverloadResolution, "Named argument specifications must appear after all fixed arguments have been specified"},
	AmbiguousCall:           {SeverityError, FamilyAmbiguousReference, "The call is ambiguous between the following methods or properties: '%s' and '%s'"},
	CannotInferTypeArgs:     {SeverityError, FamilyOverloadResolution, "The type arguments for method '%s' cannot be inferred from the usage. Try specifying the type arguments explicitly."},
	ConstraintReferenceType: {SeverityError, FamilyOverloadResolution, "The type '%s' must be a reference type in order to use it as parameter '%s' in the generic type or method '%s'"},
	ConstraintValueType:     {SeverityError, FamilyOverloadResolution, "The type '%s' must be a non-nullable value type in order to use it as parameter '%s' in the generic type or method '%s'"},
	ConstraintNew:           {SeverityError, FamilyOverloadResolution, "'%s' must be a non-abstract type with a public parameterless constructor in order to use it as parameter '%s' in the generic type or method '%s'"},
	ConstraintType:          {SeverityError, FamilyOverloadResolution, "The type '%s' cannot be used as type parameter '%s' in the generic type or method '%s'. There is no implicit reference conversion from '%s' to '%s'."},
	BadProtectedAccess:      {SeverityError, FamilyOverloadResolution, "Cannot access protected member '%s' via a qualifier of type '%s'; the qualifier must be of type '%s' (or derived from it)"},
	ObjectRequired:          {SeverityError, FamilyStaticInstance, "An object reference is required for the non-static field, method, or property '%s'"},
	InstanceAsStatic:        {SeverityError, FamilyStaticInstance, "Member '%s' cannot be accessed with an instance reference; qualify it with a type name instead"},

	DynamicLambdaArgument:      {SeverityError, FamilyBadDynamicOperand, "Cannot use a lambda expression as an argument to a dynamically dispatched operation without first casting it to a delegate type"},
	DynamicMethodGroupArgument: {SeverityError, FamilyBadDynamicOperand, "Cannot use a method group as an argument to a dynamically dispatched operation. Did you intend to invoke the method?"},
	DynamicBadArgument:         {SeverityError, FamilyBadDynamicOperand, "Cannot use an expression of type '%s' as an argument to a dynamically dispatched operation"},
	DynamicExtension:           {SeverityError, FamilyBadDynamicOperand, "'%s' has no applicable method named '%s' but appears to have an extension method by that name. Extension methods cannot be dynamically dispatched."},
	DynamicQuery:               {SeverityError, FamilyQueryOperator, "Query expressions over source type 'dynamic' are not allowed"},

	ConstantExpected:    {SeverityError, FamilyValueKind, "The expression being assigned to '%s' must be constant"},
	ImplicitlyTypedInit: {SeverityError, FamilyValueKind, "Implicitly-typed variables must be initialized"},
	ImplicitlyTypedBad:  {SeverityError, FamilyConversion, "Cannot assign %s to an implicitly-typed variable"},

	DuplicateLocal:        {SeverityError, FamilyScopeConflict, "A local variable named '%s' is already defined in this scope"},
	LocalShadowsEnclosing: {SeverityError, FamilyScopeConflict, "A local or parameter named '%s' cannot be declared in this scope because that name is used in an enclosing local scope to define a local or parameter"},
	NameMeaningChanged:    {SeverityError, FamilyScopeConflict, "'%s' conflicts with the declaration '%s'"},
	DuplicateRangeVar:     {SeverityError, FamilyScopeConflict, "The range variable '%s' conflicts with a previous declaration of '%s'"},

	QueryNoProvider:       {SeverityError, FamilyQueryOperator, "Could not find an implementation of the query pattern for source type '%s'. '%s' not found. Are you missing a using directive for 'System.Linq'?"},
	QueryOperatorNotFound: {SeverityError, FamilyQueryOperator, "Could not find an implementation of the query pattern for source type '%s'. '%s' not found."},
	QueryNoProviderCast:   {SeverityError, FamilyQueryOperator, "Could not find an implementation of the query pattern for source type '%s'. '%s' not found. Consider explicitly specifying the type of the range variable '%s'."},
	QueryClauseInference:  {SeverityError, FamilyQueryOperator, "The type of the expression in the %s clause is incorrect. Type inference failed in the call to '%s'."},
	QueryJoinKeyInference: {SeverityError, FamilyQueryOperator, "The type of one of the expressions in the %s clause is incorrect. Type inference failed in the call to '%s'."},
	QueryVoidProjection:   {SeverityError, FamilyQueryOperator, "The type of the expression in the %s clause is incorrect. The expression must not be of type 'void'."},
	QueryLambdaConversion: {SeverityError, FamilyQueryOperator, "The expression in the %s clause cannot be converted to the delegate type expected by '%s'"},
}

// Info returns the description of c.  Codes outside the binder's table,
// such as lint analyzer names, are warnings formatted from their first
// argument.
func (c Code) Info() Info {
	if info, ok := codeInfo[c]; ok {
		return info
	}
	return Info{Severity: SeverityWarning, Family: FamilyLint, Format: "%s"}
}

// Family returns the family c belongs to.
func (c Code) Family() Family { return c.Info().Family }

// Codes returns every binder code in ascending order.
func Codes() []Code {
	out := make([]Code, 0, len(codeInfo))
	for c := range codeInfo {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
