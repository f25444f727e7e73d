package render

import (
	"fmt"
	"math"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// activation evaluates a scalar expression in x on the CPU. The function set
// mirrors the scalar Kage built-ins so one expression text runs on both
// devices.
type activation struct {
	source   string
	identity bool
	program  *vm.Program
	machine  vm.VM
	env      map[string]any
}

func compileActivation(source string) (*activation, error) {
	a := &activation{source: source, env: map[string]any{"x": 0.0}}
	if source == "x" {
		a.identity = true
		return a, nil
	}
	opts := append([]expr.Option{
		expr.Env(a.env),
		expr.AsFloat64(),
		expr.DisableAllBuiltins(),
	}, glslFunctions()...)
	program, err := expr.Compile(source, opts...)
	if err != nil {
		return nil, err
	}
	a.program = program
	// Arity and argument types are only checked when the expression runs.
	for _, probe := range []float64{0, 1} {
		if _, err := a.eval(probe); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *activation) eval(x float64) (float64, error) {
	if a.identity {
		return x, nil
	}
	a.env["x"] = x
	out, err := a.machine.Run(a.program, a.env)
	if err != nil {
		return 0, err
	}
	v, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("activation returned %T", out)
	}
	return v, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func floats(name string, want int, params []any) ([]float64, error) {
	if len(params) != want {
		return nil, fmt.Errorf("%s expects %d argument(s), got %d", name, want, len(params))
	}
	out := make([]float64, len(params))
	for i, p := range params {
		f, err := toFloat(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[i] = f
	}
	return out, nil
}

func fn1(name string, f func(float64) float64) expr.Option {
	return expr.Function(name, func(params ...any) (any, error) {
		a, err := floats(name, 1, params)
		if err != nil {
			return nil, err
		}
		return f(a[0]), nil
	})
}

func fn2(name string, f func(float64, float64) float64) expr.Option {
	return expr.Function(name, func(params ...any) (any, error) {
		a, err := floats(name, 2, params)
		if err != nil {
			return nil, err
		}
		return f(a[0], a[1]), nil
	})
}

func fn3(name string, f func(float64, float64, float64) float64) expr.Option {
	return expr.Function(name, func(params ...any) (any, error) {
		a, err := floats(name, 3, params)
		if err != nil {
			return nil, err
		}
		return f(a[0], a[1], a[2]), nil
	})
}

func clampf(x, lo, hi float64) float64 { return math.Min(math.Max(x, lo), hi) }

func glslFunctions() []expr.Option {
	return []expr.Option{
		fn1("abs", math.Abs),
		fn1("sign", func(x float64) float64 {
			switch {
			case x > 0:
				return 1
			case x < 0:
				return -1
			}
			return 0
		}),
		fn1("floor", math.Floor),
		fn1("ceil", math.Ceil),
		fn1("fract", func(x float64) float64 { return x - math.Floor(x) }),
		fn2("mod", func(x, y float64) float64 { return x - y*math.Floor(x/y) }),
		fn2("min", math.Min),
		fn2("max", math.Max),
		fn3("clamp", clampf),
		fn3("mix", func(a, b, t float64) float64 { return a*(1-t) + b*t }),
		fn2("step", func(edge, x float64) float64 {
			if x < edge {
				return 0
			}
			return 1
		}),
		fn3("smoothstep", func(e0, e1, x float64) float64 {
			t := clampf((x-e0)/(e1-e0), 0, 1)
			return t * t * (3 - 2*t)
		}),
		fn2("pow", math.Pow),
		fn1("exp", math.Exp),
		fn1("exp2", math.Exp2),
		fn1("log", math.Log),
		fn1("log2", math.Log2),
		fn1("sqrt", math.Sqrt),
		fn1("inversesqrt", func(x float64) float64 { return 1 / math.Sqrt(x) }),
		fn1("sin", math.Sin),
		fn1("cos", math.Cos),
		fn1("tan", math.Tan),
		fn1("asin", math.Asin),
		fn1("acos", math.Acos),
		fn1("atan", math.Atan),
	}
}
