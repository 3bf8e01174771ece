package pipetemplar

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

// toString приводит значение к строковой форме, в которой оно попадает в
// результат. nil даёт пустую строку. Любой список выводится как строковые
// формы элементов через ", ", отображение выводится как JSON.
func toString(v any) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case []byte:
		return string(vv)
	case fmt.Stringer:
		return vv.String()
	case error:
		return vv.Error()
	case float64:
		if vv == float64(int64(vv)) {
			return strconv.FormatInt(int64(vv), 10)
		}
		return strconv.FormatFloat(vv, 'f', -1, 64)
	case float32:
		return toString(float64(vv))
	case int:
		return strconv.Itoa(vv)
	case int64:
		return strconv.FormatInt(vv, 10)
	case bool:
		if vv {
			return "true"
		}
		return "false"
	case []string:
		return strings.Join(vv, ", ")
	case []any:
		strs := make([]string, len(vv))
		for i, it := range vv {
			strs[i] = toString(it)
		}
		return strings.Join(strs, ", ")
	case map[string]any:
		b, err := json.Marshal(vv)
		if err != nil {
			return fmt.Sprintf("%v", vv)
		}
		return string(b)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		strs := make([]string, rv.Len())
		for i := range strs {
			strs[i] = toString(rv.Index(i).Interface())
		}
		return strings.Join(strs, ", ")
	case reflect.Map:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprintf("%v", v)
}

// toFloat пытается получить число из значения; ok=false для нечисловых.
func toFloat(v any) (float64, bool) {
	switch vv := v.(type) {
	case float64:
		return vv, true
	case float32:
		return float64(vv), true
	case int:
		return float64(vv), true
	case int8:
		return float64(vv), true
	case int16:
		return float64(vv), true
	case int32:
		return float64(vv), true
	case int64:
		return float64(vv), true
	case uint:
		return float64(vv), true
	case uint8:
		return float64(vv), true
	case uint16:
		return float64(vv), true
	case uint32:
		return float64(vv), true
	case uint64:
		return float64(vv), true
	case json.Number:
		f, err := vv.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(vv), 64)
		return f, err == nil
	case bool:
		if vv {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// lengthOf возвращает длину строки в символах или число элементов коллекции.
func lengthOf(v any) int {
	switch vv := v.(type) {
	case nil:
		return 0
	case string:
		return utf8.RuneCountInString(vv)
	case []byte:
		return utf8.RuneCount(vv)
	case []any:
		return len(vv)
	case map[string]any:
		return len(vv)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return rv.Len()
	default:
		return utf8.RuneCountInString(toString(v))
	}
}

// lookupKey достаёт вложенный ключ из значения-отображения.
func lookupKey(v any, key string) (any, bool) {
	switch vv := v.(type) {
	case map[string]any:
		r, ok := vv[key]
		return r, ok
	case map[string]string:
		r, ok := vv[key]
		return r, ok
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		r := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !r.IsValid() {
			return nil, false
		}
		return r.Interface(), true
	}
	return nil, false
}
