package pipetemplar

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/cockroachdb/errors"
)

// NormalizeArgs приводит аргументы запуска к map[string]any. Вход не
// меняется: вложенные отображения и списки копируются.
// - map[string]any копируется (вложенные map[any]any приводятся)
// - map[string]string и прочие отображения с ключами-строками копируются
// - у map[any]any (например, из YAML) ключи рекурсивно приводятся к строке
// - string / []byte разбираются как JSON-объект
// - структуры проходят через JSON-сериализацию
func NormalizeArgs(in any) (map[string]any, error) {
	switch vv := in.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return deepNormalize(vv).(map[string]any), nil
	case map[string]string:
		out := make(map[string]any, len(vv))
		for k, val := range vv {
			out[k] = val
		}
		return out, nil
	case map[any]any:
		return deepNormalize(vv).(map[string]any), nil
	case string:
		return ArgsFromJSON([]byte(vv))
	case []byte:
		return ArgsFromJSON(vv)
	}
	rv := reflect.ValueOf(in)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = deepNormalize(iter.Value().Interface())
		}
		return out, nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return nil, errors.Wrapf(err, "normalize args of type %T", in)
	}
	return ArgsFromJSON(b)
}

// ArgsFromJSON разбирает JSON-объект в аргументы запуска. Числа остаются
// float64, как у encoding/json.
func ArgsFromJSON(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "decode json args")
	}
	if out == nil {
		return nil, errors.New("json args must be an object")
	}
	return out, nil
}

func deepNormalize(v any) any {
	switch vv := v.(type) {
	case []any:
		// сохраняем исходный порядок, просто рекурсивно нормализуем элементы
		out := make([]any, len(vv))
		for i := range vv {
			out[i] = deepNormalize(vv[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(vv))
		for k, val := range vv {
			out[k] = deepNormalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(vv))
		for k, val := range vv {
			out[fmt.Sprint(k)] = deepNormalize(val)
		}
		return out
	default:
		return vv
	}
}
