package config

// IsTestMode disables terminal coloring so reported diagnostics stay
// byte-stable under test harnesses. Set once at startup.
var IsTestMode = false

// MainFuncName is the conventional entry point of a checked program.
const MainFuncName = "main"

// Built-in trait names
const (
	EqTraitName           = "Eq"
	OrdTraitName          = "Ord"
	NumberTraitName       = "Number"
	IntLiteralTraitName   = "ConstructableByIntLiteral"
	FloatLiteralTraitName = "ConstructableByFloatLiteral"
)

// Built-in function names
const (
	AddFuncName       = "add"
	SubtractFuncName  = "subtract"
	MultiplyFuncName  = "multiply"
	DivideFuncName    = "divide"
	ModuloFuncName    = "modulo"
	NegativeFuncName  = "negative"
	EqualFuncName     = "isEqual"
	NotEqualFuncName  = "isNotEqual"
	LesserFuncName    = "isLesser"
	GreaterFuncName   = "isGreater"
	LesserEqFuncName  = "isLesserOrEqual"
	GreaterEqFuncName = "isGreaterOrEqual"
	AndFuncName       = "and"
	OrFuncName        = "or"
	NotFuncName       = "not"
	ParseIntFuncName  = "parseInt"
	ParseRealFuncName = "parseReal"
	ToStringFuncName  = "toString"
)

// Built-in type names
const (
	BoolTypeName    = "Bool"
	Int32TypeName   = "Int32"
	Int64TypeName   = "Int64"
	Float32TypeName = "Float32"
	Float64TypeName = "Float64"
	StringTypeName  = "String"
)
