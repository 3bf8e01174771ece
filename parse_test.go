package pipetemplar

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func ph(key string, filters ...FilterCall) Placeholder {
	if filters == nil {
		filters = []FilterCall{}
	}
	return Placeholder{Key: key, Filters: filters}
}

func fc(name string, args ...string) FilterCall {
	if args == nil {
		args = []string{}
	}
	return FilterCall{Name: name, Args: args}
}

func TestParse_Tokens(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want []Token
	}{
		{"empty", "", []Token{}},
		{"plain", "plain text", []Token{Literal{"plain text"}}},
		{"substitution", "%{greet}, %{name}!", []Token{ph("greet"), Literal{", "}, ph("name"), Literal{"!"}}},
		{"whitespace", "%{ \t bar }", []Token{ph("bar")}},
		{"multiline", "%{a\n|\nuc\n}", []Token{ph("a", fc("uc"))}},
		{"chain", "%{bar | uc | hash sha1}", []Token{ph("bar", fc("uc"), fc("hash", "sha1"))}},
		{"no spaces", "%{bar|uc|lc}", []Token{ph("bar", fc("uc"), fc("lc"))}},
		{"args", "%{a | wrap  x \t y }", []Token{ph("a", fc("wrap", "x", "y"))}},
		{"percent", "100% %{x}", []Token{Literal{"100"}, Literal{"%"}, Literal{" "}, ph("x")}},
		{"trailing percent", "50%", []Token{Literal{"50"}, Literal{"%"}}},
		{"space in key", "%{a b}", []Token{Literal{"%"}, Literal{"{a b}"}}},
		{"empty filter", "%{a|}", []Token{Literal{"%"}, Literal{"{a|}"}}},
		{"unclosed", "x %{a", []Token{Literal{"x "}, Literal{"%"}, Literal{"{a"}}},
		{"key punctuation", "%{some-key.v2}", []Token{ph("some-key.v2")}},
		{"vertical tab", "%{\vbar\v|\vuc\v}", []Token{ph("bar", fc("uc"))}},
		{"vertical tab in args", "%{a | f x\vy}", []Token{ph("a", fc("f", "x", "y"))}},
		{"case preserved", "%{Bar|UC}", []Token{ph("Bar", fc("UC"))}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.src)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tc.src, err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("Parse(%q) mismatch (-want +got):\n%s", tc.src, diff)
			}
		})
	}
}

func TestParse_CoversInput(t *testing.T) {
	src := "a%b%{c|uc}%%{ d } e%{f|g h}%"
	toks, err := Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// Литералы вместе с исходным текстом плейсхолдеров восстанавливают вход
	n := 0
	for _, tok := range toks {
		if l, ok := tok.(Literal); ok {
			if l.Text == "" {
				t.Fatalf("empty literal token")
			}
			n += len(l.Text)
		}
	}
	if want := len(src) - len("%{c|uc}") - len("%{ d }") - len("%{f|g h}"); n != want {
		t.Fatalf("literal bytes = %d, want %d", n, want)
	}
}

func TestParse_InvalidFilter(t *testing.T) {
	for src, clause := range map[string]string{
		"%{a | b{c}":      "b{c",
		"x %{a|uc|x%y} y": "x%y",
	} {
		_, err := Parse(src)
		var ife *InvalidFilterError
		if !errors.As(err, &ife) {
			t.Fatalf("Parse(%q): want InvalidFilterError, got %v", src, err)
		}
		if ife.Clause != clause {
			t.Fatalf("Parse(%q): clause = %q, want %q", src, ife.Clause, clause)
		}
		if !errors.Is(err, ErrInvalidFilter) {
			t.Fatalf("Parse(%q): errors.Is(ErrInvalidFilter) = false", src)
		}
	}
}

func TestParseFilters(t *testing.T) {
	got, err := parseFilters(" | uc|lc  |  hash  md5 ")
	if err != nil {
		t.Fatalf("parseFilters: %v", err)
	}
	want := []FilterCall{fc("uc"), fc("lc"), fc("hash", "md5")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	// пустая строка — пустой, но не nil список
	got, err = parseFilters("  ")
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("parseFilters(blank) = %#v, %v", got, err)
	}
}

func TestTokens_ReturnsCopy(t *testing.T) {
	tpl := MustNew("%{a | wrap x}")
	toks := tpl.Tokens()
	toks[0].(Placeholder).Filters[0].Args[0] = "mutated"
	toks[0] = Literal{"gone"}

	if diff := cmp.Diff([]Token{ph("a", fc("wrap", "x"))}, tpl.Tokens()); diff != "" {
		t.Fatalf("template tokens changed (-want +got):\n%s", diff)
	}
}
