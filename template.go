package pipetemplar

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

// Движок строковых шаблонов с синтаксисом %{key | filter arg...}.
// Поддержка:
// - подстановка аргумента: %{name}
// - цепочки фильтров слева направо: %{name | trim | uc}
// - литеральные аргументы фильтров: %{name | hash sha1}
// - одиночный '%' вне %{...} выводится как есть
// Шаблон разбирается один раз при создании; Run не меняет его состояние.

// Sink получает вывод шаблона по одному фрагменту на токен.
type Sink func(chunk string)

// Option настраивает Template.
type Option func(*Template)

// WithRegistry задаёт реестр фильтров по ссылке: его последующие изменения
// видны шаблону.
func WithRegistry(r *Registry) Option {
	return func(t *Template) { t.filters = r }
}

// WithFilters задаёт собственный реестр ровно из переданных фильтров. Он
// заменяет реестр по умолчанию, а не дополняет его.
func WithFilters(fs Filters) Option {
	return func(t *Template) { t.filters = NewRegistry(fs) }
}

// Template хранит разобранный шаблон.
type Template struct {
	source  string
	tokens  []Token
	filters *Registry // nil: используется DefaultRegistry
}

// New разбирает шаблон. Без WithRegistry/WithFilters шаблон использует
// DefaultRegistry, в том числе фильтры, добавленные в него позже.
func New(source string, opts ...Option) (*Template, error) {
	toks, err := Parse(source)
	if err != nil {
		return nil, err
	}
	t := &Template{source: source, tokens: toks}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// MustNew как New, но паникует при ошибке разбора.
func MustNew(source string, opts ...Option) *Template {
	t, err := New(source, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Once разбирает и сразу выполняет шаблон.
func Once(source string, args map[string]any, opts ...Option) (string, error) {
	t, err := New(source, opts...)
	if err != nil {
		return "", err
	}
	return t.Run(args)
}

// OnceTo разбирает шаблон и выполняет его в потоковом режиме.
func OnceTo(source string, args map[string]any, sink Sink, opts ...Option) error {
	t, err := New(source, opts...)
	if err != nil {
		return err
	}
	return t.RunTo(args, sink)
}

// Source возвращает исходный текст шаблона.
func (t *Template) Source() string { return t.source }

// String возвращает исходный текст шаблона.
func (t *Template) String() string { return t.source }

// Tokens возвращает копию разобранных токенов.
func (t *Template) Tokens() []Token { return cloneTokens(t.tokens) }

// Registry возвращает активный реестр фильтров.
func (t *Template) Registry() *Registry {
	if t.filters != nil {
		return t.filters
	}
	return DefaultRegistry
}

// Run выполняет шаблон и возвращает результат целиком.
func (t *Template) Run(args map[string]any) (string, error) {
	var b strings.Builder
	b.Grow(len(t.source))
	err := t.each(args, func(chunk string) error {
		b.WriteString(chunk)
		return nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// RunTo выполняет шаблон, передавая в sink вывод каждого токена по порядку.
// При ошибке уже переданные фрагменты остаются у получателя.
func (t *Template) RunTo(args map[string]any, sink Sink) error {
	return t.each(args, func(chunk string) error {
		sink(chunk)
		return nil
	})
}

// Execute выполняет шаблон в потоковом режиме с записью в w.
func (t *Template) Execute(w io.Writer, args map[string]any) error {
	return t.each(args, func(chunk string) error {
		if _, err := io.WriteString(w, chunk); err != nil {
			return errors.Wrap(err, "write template output")
		}
		return nil
	})
}

// -----------------------------
// Eval
// -----------------------------

func (t *Template) each(args map[string]any, emit func(string) error) error {
	reg := t.Registry()
	for _, tok := range t.tokens {
		chunk, err := t.evalToken(reg, tok, args)
		if err != nil {
			return err
		}
		if err := emit(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (t *Template) evalToken(reg *Registry, tok Token, args map[string]any) (string, error) {
	switch tt := tok.(type) {
	case Literal:
		return tt.Text, nil
	case Placeholder:
		v, ok := args[tt.Key]
		if !ok {
			return "", &UnknownKeyError{Key: tt.Key}
		}
		for _, fc := range tt.Filters {
			f, ok := reg.Lookup(fc.Name)
			if !ok {
				return "", &UnknownFilterError{Name: fc.Name}
			}
			var err error
			// Фильтр получает копию аргументов, токены шаблона не меняются
			v, err = f(v, append([]string{}, fc.Args...), args, t)
			if err != nil {
				return "", err
			}
		}
		return toString(v), nil
	default:
		return "", errors.AssertionFailedf("unexpected token type %T", tok)
	}
}
