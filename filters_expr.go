package pipetemplar

import (
	"strings"

	expro "github.com/expr-lang/expr"
)

// filterExpr вычисляет выражение expr-lang, собранное из аргументов фильтра:
//
//	%{price | expr v * 2}
//	%{n | expr v > 1 ? "many" : "one"}
//
// Аргументы склеиваются через один пробел. В окружении доступны v (текущее
// значение), row (все аргументы запуска) и str() для приведения к строке.
func filterExpr(v any, args []string, row map[string]any, _ *Template) (any, error) {
	if len(args) == 0 {
		return nil, &MissingFilterParameterError{Filter: "expr"}
	}
	code := strings.Join(args, " ")
	env := map[string]any{
		"v":   v,
		"row": row,
		"str": func(x any) string { return toString(x) },
	}
	// Компилируем с тем же env, что и при выполнении
	program, err := expro.Compile(code, expro.Env(env))
	if err != nil {
		return nil, &FilterError{Filter: "expr", Err: err}
	}
	out, err := expro.Run(program, env)
	if err != nil {
		return nil, &FilterError{Filter: "expr", Err: err}
	}
	return out, nil
}
