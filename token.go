package pipetemplar

// Token это разобранный фрагмент шаблона: Literal или Placeholder.
type Token interface {
	token()
}

// Literal выводится без изменений.
type Literal struct {
	Text string
}

// Placeholder ссылается на аргумент с цепочкой фильтров: %{key | f1 a b | f2}.
type Placeholder struct {
	Key     string
	Filters []FilterCall
}

// FilterCall описывает вызов фильтра с литеральными аргументами.
type FilterCall struct {
	Name string
	Args []string
}

func (Literal) token()     {}
func (Placeholder) token() {}

func cloneTokens(src []Token) []Token {
	out := make([]Token, len(src))
	for i, tok := range src {
		if ph, ok := tok.(Placeholder); ok {
			fs := make([]FilterCall, len(ph.Filters))
			for j, fc := range ph.Filters {
				fs[j] = FilterCall{Name: fc.Name, Args: append([]string{}, fc.Args...)}
			}
			tok = Placeholder{Key: ph.Key, Filters: fs}
		}
		out[i] = tok
	}
	return out
}
