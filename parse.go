package pipetemplar

import (
	"regexp"
	"strings"
)

// -----------------------------
// Парсер шаблона
// -----------------------------

var (
	// Либо плейсхолдер %{key | filter args...}, либо литерал: всё до ближайшего
	// '%' или одиночный '%'. Альтернативы покрывают любой вход целиком.
	// \s в RE2 не включает \v, поэтому он добавлен явно во всех выражениях.
	rxAction = regexp.MustCompile(`%\{[\s\v]*([^\s\v|}]+)((?:[\s\v]*\|(?:[\s\v]*[^\s\v|}]+)+)*)[\s\v]*\}|([^%]+|%)`)
	// Имя фильтра и необязательные аргументы
	rxFilter       = regexp.MustCompile(`^([^\s\v|{}%]+)((?:[\s\v]+[^\s\v]+)*)[\s\v]*$`)
	rxDelimFilters = regexp.MustCompile(`[\s\v]*\|[\s\v]*`)
	rxDelimArgs    = regexp.MustCompile(`[\s\v]+`)
)

// Parse разбирает исходный текст шаблона в последовательность токенов.
// Пустые литералы не порождаются.
func Parse(src string) ([]Token, error) {
	ms := rxAction.FindAllStringSubmatchIndex(src, -1)
	toks := make([]Token, 0, len(ms))
	last := 0
	for _, m := range ms {
		start, end := m[0], m[1]
		if start != last {
			return nil, &InvalidTemplateError{Source: src, Offset: last}
		}
		last = end
		if m[2] >= 0 && m[3] > m[2] {
			filters, err := parseFilters(src[m[4]:m[5]])
			if err != nil {
				return nil, err
			}
			toks = append(toks, Placeholder{Key: src[m[2]:m[3]], Filters: filters})
			continue
		}
		if m[6] >= 0 && m[7] > m[6] {
			toks = append(toks, Literal{Text: src[m[6]:m[7]]})
		}
	}
	if last != len(src) {
		return nil, &InvalidTemplateError{Source: src, Offset: last}
	}
	return toks, nil
}

// parseFilters разбирает хвост плейсхолдера вида " | uc | hash sha1".
func parseFilters(s string) ([]FilterCall, error) {
	s = strings.TrimSpace(s)
	out := []FilterCall{}
	if s == "" {
		return out, nil
	}
	for _, clause := range rxDelimFilters.Split(s, -1) {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		m := rxFilter.FindStringSubmatch(clause)
		if m == nil {
			return nil, &InvalidFilterError{Clause: clause}
		}
		args := []string{}
		if rest := strings.TrimSpace(m[2]); rest != "" {
			args = rxDelimArgs.Split(rest, -1)
		}
		out = append(out, FilterCall{Name: m[1], Args: args})
	}
	return out, nil
}
