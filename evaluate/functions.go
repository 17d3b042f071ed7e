package evaluate

import (
	"math"
	"strings"

	"github.com/google/uuid"

	"gluedb/ast"
	"gluedb/errs"
	"gluedb/value"
)

// evalFunction dispatches a scalar Function call. Arity is enforced per
// function name; Null in any non-null-aware argument propagates to Null
// per §4.5. Float-domain errors (e.g. sqrt of a negative number) are
// returned as the IEEE result (NaN), never as an error.
func (ev *Evaluator) evalFunction(ctx *Context, aggregated map[*ast.Aggregate]value.Value, fn *ast.Function) (Evaluated, error) {
	name := strings.ToUpper(fn.Name)
	args := fn.Args

	arity := func(n int) error {
		if len(args) != n {
			return errs.New(errs.KindFunctionArgsLength, "%s expects %d argument(s), got %d", name, n, len(args))
		}
		return nil
	}

	evalArg := func(i int) (Evaluated, error) { return ev.Eval(ctx, aggregated, args[i]) }

	evalStr := func(i int) (string, bool, error) {
		v, err := evalArg(i)
		if err != nil {
			return "", false, err
		}
		if v.IsNull() {
			return "", true, nil
		}
		s, ok := v.Str()
		if !ok {
			return "", false, errs.New(errs.KindFunctionRequiresStringValue, name)
		}
		return s, false, nil
	}

	evalFloat := func(i int) (float64, bool, error) {
		v, err := evalArg(i)
		if err != nil {
			return 0, false, err
		}
		vv := v.ToValue()
		if vv.IsNull() {
			return 0, true, nil
		}
		f, ok := vv.AsFloat64()
		if !ok {
			return 0, false, errs.New(errs.KindFunctionRequiresFloatValue, name)
		}
		return f, false, nil
	}

	evalInt := func(i int) (int64, bool, error) {
		v, err := evalArg(i)
		if err != nil {
			return 0, false, err
		}
		vv := v.ToValue()
		if vv.IsNull() {
			return 0, true, nil
		}
		n, ok := vv.Int64()
		if !ok {
			return 0, false, errs.New(errs.KindFunctionRequiresIntegerValue, name)
		}
		return n, false, nil
	}

	switch name {
	case "LOWER", "UPPER":
		if err := arity(1); err != nil {
			return Evaluated{}, err
		}
		s, isNull, err := evalStr(0)
		if err != nil {
			return Evaluated{}, err
		}
		if isNull {
			return FromValue(value.NewNull()), nil
		}
		if name == "LOWER" {
			return FromValue(value.NewStr(strings.ToLower(s))), nil
		}
		return FromValue(value.NewStr(strings.ToUpper(s))), nil

	case "SQRT", "CEIL", "ROUND", "FLOOR", "EXP", "LN", "LOG2", "LOG10",
		"SIN", "COS", "TAN", "ASIN", "ACOS", "ATAN", "RADIANS", "DEGREES":
		if err := arity(1); err != nil {
			return Evaluated{}, err
		}
		f, isNull, err := evalFloat(0)
		if err != nil {
			return Evaluated{}, err
		}
		if isNull {
			return FromValue(value.NewNull()), nil
		}
		return FromValue(value.NewF64(unaryMath(name, f))), nil

	case "PI":
		if err := arity(0); err != nil {
			return Evaluated{}, err
		}
		return FromValue(value.NewF64(math.Pi)), nil

	case "POWER":
		if err := arity(2); err != nil {
			return Evaluated{}, err
		}
		base, isNull, err := evalFloat(0)
		if err != nil {
			return Evaluated{}, err
		}
		if isNull {
			return FromValue(value.NewNull()), nil
		}
		power, isNull, err := evalFloat(1)
		if err != nil {
			return Evaluated{}, err
		}
		if isNull {
			return FromValue(value.NewNull()), nil
		}
		return FromValue(value.NewF64(math.Pow(base, power))), nil

	case "LOG":
		if err := arity(2); err != nil {
			return Evaluated{}, err
		}
		antilog, isNull, err := evalFloat(0)
		if err != nil {
			return Evaluated{}, err
		}
		if isNull {
			return FromValue(value.NewNull()), nil
		}
		base, isNull, err := evalFloat(1)
		if err != nil {
			return Evaluated{}, err
		}
		if isNull {
			return FromValue(value.NewNull()), nil
		}
		return FromValue(value.NewF64(math.Log(antilog) / math.Log(base))), nil

	case "GCD", "LCM":
		if err := arity(2); err != nil {
			return Evaluated{}, err
		}
		l, isNull, err := evalInt(0)
		if err != nil {
			return Evaluated{}, err
		}
		if isNull {
			return FromValue(value.NewNull()), nil
		}
		r, isNull, err := evalInt(1)
		if err != nil {
			return Evaluated{}, err
		}
		if isNull {
			return FromValue(value.NewNull()), nil
		}
		g := gcd(l, r)
		if name == "GCD" {
			return FromValue(value.NewI64(g)), nil
		}
		if g == 0 {
			return FromValue(value.NewI64(0)), nil
		}
		return FromValue(value.NewI64(l / g * r)), nil

	case "DIV":
		if err := arity(2); err != nil {
			return Evaluated{}, err
		}
		dividend, isNull, err := evalFloat(0)
		if err != nil {
			return Evaluated{}, err
		}
		if isNull {
			return FromValue(value.NewNull()), nil
		}
		divisor, isNull, err := evalFloat(1)
		if err != nil {
			return Evaluated{}, err
		}
		if isNull {
			return FromValue(value.NewNull()), nil
		}
		if divisor == 0 {
			return Evaluated{}, errs.New(errs.KindDivisorShouldNotBeZero, "DIV divisor must not be zero")
		}
		return FromValue(value.NewI64(int64(dividend / divisor))), nil

	case "MOD":
		if err := arity(2); err != nil {
			return Evaluated{}, err
		}
		dividend, err := evalArg(0)
		if err != nil {
			return Evaluated{}, err
		}
		divisor, err := evalArg(1)
		if err != nil {
			return Evaluated{}, err
		}
		if dividend.IsNull() || divisor.IsNull() {
			return FromValue(value.NewNull()), nil
		}
		v, err := value.Mod(dividend.ToValue(), divisor.ToValue())
		if err != nil {
			return Evaluated{}, err
		}
		return FromValue(v), nil

	case "LEFT", "RIGHT":
		if err := arity(2); err != nil {
			return Evaluated{}, err
		}
		s, isNull, err := evalStr(0)
		if err != nil {
			return Evaluated{}, err
		}
		if isNull {
			return FromValue(value.NewNull()), nil
		}
		size, isNull, err := evalInt(1)
		if err != nil {
			return Evaluated{}, err
		}
		if isNull {
			return FromValue(value.NewNull()), nil
		}
		if size < 0 {
			return Evaluated{}, errs.New(errs.KindFunctionRequiresUSizeValue, name)
		}
		runes := []rune(s)
		n := int(size)
		if n > len(runes) {
			n = len(runes)
		}
		if name == "LEFT" {
			return FromValue(value.NewStr(string(runes[:n]))), nil
		}
		return FromValue(value.NewStr(string(runes[len(runes)-n:]))), nil

	case "LPAD", "RPAD":
		if len(args) != 2 && len(args) != 3 {
			return Evaluated{}, errs.New(errs.KindFunctionArgsLength, "%s expects 2 or 3 arguments", name)
		}
		s, isNull, err := evalStr(0)
		if err != nil {
			return Evaluated{}, err
		}
		if isNull {
			return FromValue(value.NewNull()), nil
		}
		size, isNull, err := evalInt(1)
		if err != nil {
			return Evaluated{}, err
		}
		if isNull {
			return FromValue(value.NewNull()), nil
		}
		fill := " "
		if len(args) == 3 {
			f, isNull, err := evalStr(2)
			if err != nil {
				return Evaluated{}, err
			}
			if isNull {
				return FromValue(value.NewNull()), nil
			}
			fill = f
		}
		return FromValue(value.NewStr(pad(name, s, int(size), fill))), nil

	case "TRIM":
		return ev.evalTrim(ctx, aggregated, fn, trimBoth)
	case "LTRIM":
		return ev.evalTrim(ctx, aggregated, fn, trimLeading)
	case "RTRIM":
		return ev.evalTrim(ctx, aggregated, fn, trimTrailing)

	case "SUBSTR":
		return ev.evalSubstr(ctx, aggregated, fn)

	case "REVERSE":
		if err := arity(1); err != nil {
			return Evaluated{}, err
		}
		s, isNull, err := evalStr(0)
		if err != nil {
			return Evaluated{}, err
		}
		if isNull {
			return FromValue(value.NewNull()), nil
		}
		runes := []rune(s)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return FromValue(value.NewStr(string(runes))), nil

	case "REPEAT":
		if err := arity(2); err != nil {
			return Evaluated{}, err
		}
		s, isNull, err := evalStr(0)
		if err != nil {
			return Evaluated{}, err
		}
		if isNull {
			return FromValue(value.NewNull()), nil
		}
		n, isNull, err := evalInt(1)
		if err != nil {
			return Evaluated{}, err
		}
		if isNull {
			return FromValue(value.NewNull()), nil
		}
		if n < 0 {
			return Evaluated{}, errs.New(errs.KindFunctionRequiresUSizeValue, name)
		}
		return FromValue(value.NewStr(strings.Repeat(s, int(n)))), nil

	case "GENERATE_UUID":
		if err := arity(0); err != nil {
			return Evaluated{}, err
		}
		return FromValue(value.NewUUID(uuid.New())), nil

	default:
		return Evaluated{}, errs.New(errs.KindUnsupportedSyntax, "unknown function %s", name)
	}
}

func unaryMath(name string, f float64) float64 {
	switch name {
	case "SQRT":
		return math.Sqrt(f)
	case "CEIL":
		return math.Ceil(f)
	case "ROUND":
		return math.Round(f)
	case "FLOOR":
		return math.Floor(f)
	case "EXP":
		return math.Exp(f)
	case "LN":
		return math.Log(f)
	case "LOG2":
		return math.Log2(f)
	case "LOG10":
		return math.Log10(f)
	case "SIN":
		return math.Sin(f)
	case "COS":
		return math.Cos(f)
	case "TAN":
		return math.Tan(f)
	case "ASIN":
		return math.Asin(f)
	case "ACOS":
		return math.Acos(f)
	case "ATAN":
		return math.Atan(f)
	case "RADIANS":
		return f * math.Pi / 180
	case "DEGREES":
		return f * 180 / math.Pi
	default:
		return math.NaN()
	}
}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func pad(name, s string, size int, fill string) string {
	if len(fill) == 0 || size <= len(s) {
		if size < len(s) {
			return s[:size]
		}
		return s
	}
	padding := size - len(s)
	repeated := strings.Repeat(fill, padding/len(fill)+1)[:padding]
	if name == "LPAD" {
		return repeated + s
	}
	return s + repeated
}

type trimMode int

const (
	trimBoth trimMode = iota
	trimLeading
	trimTrailing
)

func (ev *Evaluator) evalTrim(ctx *Context, aggregated map[*ast.Aggregate]value.Value, fn *ast.Function, mode trimMode) (Evaluated, error) {
	if len(fn.Args) < 1 || len(fn.Args) > 2 {
		return Evaluated{}, errs.New(errs.KindFunctionArgsLength, "TRIM expects 1 or 2 arguments")
	}
	target, err := ev.Eval(ctx, aggregated, fn.Args[0])
	if err != nil {
		return Evaluated{}, err
	}
	if target.IsNull() {
		return FromValue(value.NewNull()), nil
	}
	s, ok := target.Str()
	if !ok {
		return Evaluated{}, errs.New(errs.KindFunctionRequiresStringValue, "TRIM")
	}

	cutset := " "
	if len(fn.Args) == 2 {
		chars, err := ev.Eval(ctx, aggregated, fn.Args[1])
		if err != nil {
			return Evaluated{}, err
		}
		if chars.IsNull() {
			return FromValue(value.NewNull()), nil
		}
		c, ok := chars.Str()
		if !ok {
			return Evaluated{}, errs.New(errs.KindFunctionRequiresStringValue, "TRIM")
		}
		cutset = c
	}

	var trimmed string
	switch mode {
	case trimLeading:
		trimmed = strings.TrimLeft(s, cutset)
	case trimTrailing:
		trimmed = strings.TrimRight(s, cutset)
	default:
		trimmed = strings.Trim(s, cutset)
	}
	return fromStrSlice(s, strings.Index(s, trimmed), strings.Index(s, trimmed)+len(trimmed)), nil
}

func (ev *Evaluator) evalSubstr(ctx *Context, aggregated map[*ast.Aggregate]value.Value, fn *ast.Function) (Evaluated, error) {
	if len(fn.Args) < 2 || len(fn.Args) > 3 {
		return Evaluated{}, errs.New(errs.KindFunctionArgsLength, "SUBSTR expects 2 or 3 arguments")
	}
	target, err := ev.Eval(ctx, aggregated, fn.Args[0])
	if err != nil {
		return Evaluated{}, err
	}
	if target.IsNull() {
		return FromValue(value.NewNull()), nil
	}
	s, ok := target.Str()
	if !ok {
		return Evaluated{}, errs.New(errs.KindFunctionRequiresStringValue, "SUBSTR")
	}

	startV, err := ev.Eval(ctx, aggregated, fn.Args[1])
	if err != nil {
		return Evaluated{}, err
	}
	if startV.IsNull() {
		return FromValue(value.NewNull()), nil
	}
	startArg, ok := startV.ToValue().Int64()
	if !ok {
		return Evaluated{}, errs.New(errs.KindFunctionRequiresIntegerValue, "SUBSTR")
	}
	start := startArg - 1

	count := int64(len(s))
	if len(fn.Args) == 3 {
		countV, err := ev.Eval(ctx, aggregated, fn.Args[2])
		if err != nil {
			return Evaluated{}, err
		}
		if countV.IsNull() {
			return FromValue(value.NewNull()), nil
		}
		count, ok = countV.ToValue().Int64()
		if !ok {
			return Evaluated{}, errs.New(errs.KindFunctionRequiresIntegerValue, "SUBSTR")
		}
		if count < 0 {
			return Evaluated{}, errs.New(errs.KindNegativeSubstrLenNotAllowed, "SUBSTR length must not be negative")
		}
	}

	end := maxI64(start+count, 0)
	if end > int64(len(s)) {
		end = int64(len(s))
	}
	start = minI64(maxI64(start, 0), int64(len(s)))
	if start > end {
		start = end
	}
	return fromStrSlice(s, int(start), int(end)), nil
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
