package pipetemplar

import (
	"bytes"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"hash"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// -----------------------------
// Встроенные фильтры
// -----------------------------

var hashes = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha224": sha256.New224,
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
}

var stripPolicy = bluemonday.StrictPolicy()

// DefaultFilters возвращает новый набор встроенных фильтров:
//   - uc, lc: верхний/нижний регистр
//   - s: "" для значения 1, иначе "s"
//   - length, strlen, count: длина строки или число элементов
//   - trim, ltrim, rtrim: обрезка пробелов
//   - h: HTML-экранирование (&amp; &lt; &gt; &quot; &apos;, управляющие символы как &#N;)
//   - u: экранирование для query-компонента URL (пробел → '+', '~' → %7E)
//   - json: JSON-сериализация; без него список выводится как "a, 1, true"
//   - hash ALGO: hex-дайджест (md5, sha1, sha224, sha256, sha384, sha512)
//   - base64: base64 строки
//   - nl2br: <br /> перед каждым переводом строки
//   - key NAME: значение вложенного ключа
//   - null: пустая строка
//   - strip: удаление HTML-разметки
//   - expr EXPR...: вычисление выражения expr-lang
func DefaultFilters() Filters {
	return Filters{
		"uc":     filterUpper,
		"lc":     filterLower,
		"s":      filterPlural,
		"length": filterLength,
		"strlen": filterLength,
		"count":  filterLength,
		"trim":   stringFilter(strings.TrimSpace),
		"ltrim":  stringFilter(func(s string) string { return strings.TrimLeftFunc(s, unicode.IsSpace) }),
		"rtrim":  stringFilter(func(s string) string { return strings.TrimRightFunc(s, unicode.IsSpace) }),
		"h":      stringFilter(escapeHTML),
		"u":      stringFilter(urlEncode),
		"json":   filterJSON,
		"hash":   filterHash,
		"base64": stringFilter(func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }),
		"nl2br":  stringFilter(nl2br),
		"key":    filterKey,
		"null":   stringFilter(func(string) string { return "" }),
		"strip":  stringFilter(stripPolicy.Sanitize),
		"expr":   filterExpr,
	}
}

// stringFilter превращает преобразование строки в Filter.
func stringFilter(fn func(string) string) Filter {
	return func(v any, _ []string, _ map[string]any, _ *Template) (any, error) {
		return fn(toString(v)), nil
	}
}

// Caser хранит состояние, поэтому создаётся на каждый вызов.
func filterUpper(v any, _ []string, _ map[string]any, _ *Template) (any, error) {
	return cases.Upper(language.Und).String(toString(v)), nil
}

func filterLower(v any, _ []string, _ map[string]any, _ *Template) (any, error) {
	return cases.Lower(language.Und).String(toString(v)), nil
}

func filterPlural(v any, _ []string, _ map[string]any, _ *Template) (any, error) {
	if f, ok := toFloat(v); ok && f == 1 {
		return "", nil
	}
	return "s", nil
}

func filterLength(v any, _ []string, _ map[string]any, _ *Template) (any, error) {
	return lengthOf(v), nil
}

func filterJSON(v any, _ []string, _ map[string]any, _ *Template) (any, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, &FilterError{Filter: "json", Err: err}
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func filterHash(v any, args []string, _ map[string]any, _ *Template) (any, error) {
	if len(args) != 1 {
		return nil, &MissingFilterParameterError{Filter: "hash"}
	}
	newHash, ok := hashes[strings.ToLower(args[0])]
	if !ok {
		return nil, &FilterError{Filter: "hash", Err: errors.Newf("unsupported algorithm %q", args[0])}
	}
	h := newHash()
	h.Write([]byte(toString(v)))
	return hex.EncodeToString(h.Sum(nil)), nil
}

func filterKey(v any, args []string, _ map[string]any, _ *Template) (any, error) {
	if len(args) != 1 {
		return nil, &MissingFilterParameterError{Filter: "key"}
	}
	r, ok := lookupKey(v, args[0])
	if !ok {
		return nil, &UnknownKeyError{Key: args[0]}
	}
	return r, nil
}

// urlEncode кодирует строку как application/x-www-form-urlencoded, включая '~'.
func urlEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "~", "%7E")
}

var htmlEntities = map[rune]string{
	'&':  "&amp;",
	'<':  "&lt;",
	'>':  "&gt;",
	'"':  "&quot;",
	'\'': "&apos;",
}

// escapeHTML экранирует спецсимволы HTML и управляющие символы, кроме
// \t, \n и \r.
func escapeHTML(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if ent, ok := htmlEntities[r]; ok {
			b.WriteString(ent)
			continue
		}
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			b.WriteString("&#")
			b.WriteString(strconv.Itoa(int(r)))
			b.WriteByte(';')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// nl2br вставляет <br /> перед каждым переводом строки (\r\n, \n\r, \n, \r),
// сохраняя сам перевод.
func nl2br(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '\n' && ch != '\r' {
			b.WriteByte(ch)
			continue
		}
		b.WriteString("<br />")
		b.WriteByte(ch)
		if i+1 < len(s) && (s[i+1] == '\n' || s[i+1] == '\r') && s[i+1] != ch {
			i++
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
