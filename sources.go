package pipetemplar

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Source содержит исходный текст шаблона, заданный строкой или списком строк.
// Части склеиваются без разделителя.
type Source []string

// Text возвращает Source из одной строки.
func Text(s string) Source { return Source{s} }

// Lines возвращает Source из нескольких частей.
func Lines(parts ...string) Source { return Source(parts) }

// String склеивает части.
func (s Source) String() string { return strings.Join(s, "") }

// UnmarshalYAML принимает скаляр или последовательность строк.
func (s *Source) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*s = Source{n.Value}
		return nil
	case yaml.SequenceNode:
		var parts []string
		if err := n.Decode(&parts); err != nil {
			return err
		}
		*s = Source(parts)
		return nil
	default:
		return errors.Newf("line %d: template source must be a string or a list of strings", n.Line)
	}
}

// UnmarshalJSON принимает строку или массив строк.
func (s *Source) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = Source{one}
		return nil
	}
	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return errors.New("template source must be a string or an array of strings")
	}
	*s = Source(parts)
	return nil
}

// Sources сопоставляет имени шаблона его исходник.
type Sources map[string]Source

// SourceLookup описывает внешний источник шаблонов, к которому кэш обращается, если
// имени нет среди явно заданных исходников. Отсутствие ключа сообщается
// ошибкой ErrSourceNotFound.
type SourceLookup interface {
	LookupSource(key string) (string, error)
}

// LookupFunc позволяет использовать функцию как SourceLookup.
type LookupFunc func(key string) (string, error)

// LookupSource вызывает f(key).
func (f LookupFunc) LookupSource(key string) (string, error) { return f(key) }

// LookupSource позволяет использовать Sources как SourceLookup.
func (s Sources) LookupSource(key string) (string, error) {
	src, ok := s[key]
	if !ok {
		return "", ErrSourceNotFound
	}
	return src.String(), nil
}

// DecodeYAMLSources читает набор шаблонов из YAML:
//
//	greeting: "hello %{name}"
//	page:
//	  - "<h1>%{title | h}</h1>"
//	  - "<p>%{body | h | nl2br}</p>"
func DecodeYAMLSources(r io.Reader) (Sources, error) {
	out := Sources{}
	if err := yaml.NewDecoder(r).Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "decode yaml sources")
	}
	return out, nil
}

// DecodeTOMLSources читает набор шаблонов из TOML. Значения задаются
// строками или массивами строк.
func DecodeTOMLSources(r io.Reader) (Sources, error) {
	var raw map[string]any
	if _, err := toml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode toml sources")
	}
	out := make(Sources, len(raw))
	for name, v := range raw {
		switch vv := v.(type) {
		case string:
			out[name] = Source{vv}
		case []any:
			parts := make([]string, 0, len(vv))
			for _, p := range vv {
				s, ok := p.(string)
				if !ok {
					return nil, errors.Newf("template %q: array items must be strings", name)
				}
				parts = append(parts, s)
			}
			out[name] = Source(parts)
		default:
			return nil, errors.Newf("template %q: must be a string or an array of strings", name)
		}
	}
	return out, nil
}

// DecodeJSONSources читает набор шаблонов из JSON-объекта.
func DecodeJSONSources(r io.Reader) (Sources, error) {
	out := Sources{}
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "decode json sources")
	}
	return out, nil
}

// LoadSources читает набор шаблонов из файла; формат определяется по
// расширению (.yaml, .yml, .toml, .json).
func LoadSources(path string) (Sources, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sources %s", path)
	}
	defer func() { _ = f.Close() }()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return DecodeYAMLSources(f)
	case ".toml":
		return DecodeTOMLSources(f)
	case ".json":
		return DecodeJSONSources(f)
	default:
		return nil, errors.Newf("unsupported sources format %q", ext)
	}
}
