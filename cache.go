package pipetemplar

import (
	"io"
	"sort"
	"strconv"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CacheOption настраивает Cache.
type CacheOption func(*Cache)

// WithCacheRegistry задаёт общий реестр фильтров для всех шаблонов кэша.
func WithCacheRegistry(r *Registry) CacheOption {
	return func(c *Cache) { c.filters = r }
}

// WithCacheFilters задаёт собственный реестр кэша ровно из переданных фильтров.
func WithCacheFilters(fs Filters) CacheOption {
	return func(c *Cache) { c.filters = NewRegistry(fs) }
}

// WithFallback включает поиск исходников во внешнем источнике для имён,
// которых нет среди явно заданных.
func WithFallback(l SourceLookup) CacheOption {
	return func(c *Cache) { c.fallback = l }
}

// WithLogger задаёт логгер кэша.
func WithLogger(l *zap.Logger) CacheOption {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// Cache лениво разбирает и хранит шаблоны. Исходник каждого имени разбирается не более
// одного раза, в том числе при конкурентном первом обращении. Записи живут
// до Set/Delete для того же имени.
type Cache struct {
	mu        sync.RWMutex
	sources   Sources
	templates map[string]*Template
	versions  map[string]uint64 // растёт при Set/Delete, отсекает устаревший разбор
	pending   map[string]int    // число Get, ожидающих разбора ключа
	group     singleflight.Group

	filters  *Registry // nil: DefaultRegistry
	fallback SourceLookup
	logger   *zap.Logger
	parse    func(src string, opts ...Option) (*Template, error)
}

// NewCache создаёт кэш над набором исходников. Набор копируется.
func NewCache(sources Sources, opts ...CacheOption) *Cache {
	c := &Cache{
		sources:   make(Sources, len(sources)),
		templates: map[string]*Template{},
		versions:  map[string]uint64{},
		pending:   map[string]int{},
		logger:    zap.NewNop(),
		parse:     New,
	}
	for name, src := range sources {
		c.sources[name] = append(Source{}, src...)
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get возвращает разобранный шаблон, разбирая его при первом обращении.
func (c *Cache) Get(key string) (*Template, error) {
	c.mu.RLock()
	t, ok := c.templates[key]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	c.mu.Lock()
	if t, ok := c.templates[key]; ok {
		c.mu.Unlock()
		return t, nil
	}
	ver := c.versions[key]
	c.pending[key]++
	c.mu.Unlock()
	defer c.release(key)

	v, err, _ := c.group.Do(key+"\x00"+strconv.FormatUint(ver, 10), func() (any, error) {
		// Повторная проверка: разбор мог завершиться, пока мы ждали
		c.mu.RLock()
		t, ok := c.templates[key]
		c.mu.RUnlock()
		if ok {
			return t, nil
		}

		src, origin, err := c.resolve(key)
		if err != nil {
			return nil, err
		}
		t, err = c.parse(src, c.templateOptions()...)
		if err != nil {
			return nil, errors.Wrapf(err, "parse template %q", key)
		}

		c.mu.Lock()
		if c.versions[key] == ver {
			c.templates[key] = t
		}
		c.mu.Unlock()

		c.logger.Debug("template parsed",
			zap.String("template", key),
			zap.String("origin", origin),
			zap.Int("tokens", len(t.tokens)),
		)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Template), nil
}

// Run выполняет шаблон key с аргументами args.
func (c *Cache) Run(key string, args map[string]any) (string, error) {
	t, err := c.Get(key)
	if err != nil {
		return "", err
	}
	return t.Run(args)
}

// RunTo выполняет шаблон key в потоковом режиме.
func (c *Cache) RunTo(key string, args map[string]any, sink Sink) error {
	t, err := c.Get(key)
	if err != nil {
		return err
	}
	return t.RunTo(args, sink)
}

// Execute выполняет шаблон key с записью в w.
func (c *Cache) Execute(w io.Writer, key string, args map[string]any) error {
	t, err := c.Get(key)
	if err != nil {
		return err
	}
	return t.Execute(w, args)
}

// Has сообщает, есть ли исходник для key или уже разобранный шаблон.
// Внешний источник не опрашивается.
func (c *Cache) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.sources[key]; ok {
		return true
	}
	_, ok := c.templates[key]
	return ok
}

// Keys возвращает отсортированные имена явно заданных исходников.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.sources))
	for k := range c.sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set задаёт исходник для key и сбрасывает ранее разобранный шаблон.
func (c *Cache) Set(key string, src Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[key] = append(Source{}, src...)
	delete(c.templates, key)
	c.versions[key]++
}

// Delete удаляет исходник и разобранный шаблон для key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sources, key)
	delete(c.templates, key)
	if c.pending[key] > 0 {
		c.versions[key]++
		return
	}
	delete(c.versions, key)
}

// release снимает отметку ожидания разбора. Версия ключа без исходника
// больше никому не нужна и удаляется, так что карта версий не растёт.
func (c *Cache) release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[key] > 1 {
		c.pending[key]--
		return
	}
	delete(c.pending, key)
	if _, ok := c.sources[key]; !ok {
		delete(c.versions, key)
	}
}

func (c *Cache) resolve(key string) (src, origin string, err error) {
	c.mu.RLock()
	s, ok := c.sources[key]
	c.mu.RUnlock()
	if ok {
		return s.String(), "sources", nil
	}
	if c.fallback == nil {
		return "", "", &UnknownTemplateError{Name: key}
	}
	src, err = c.fallback.LookupSource(key)
	if errors.Is(err, ErrSourceNotFound) {
		c.logger.Debug("template not found in fallback", zap.String("template", key))
		return "", "", &UnknownTemplateError{Name: key}
	}
	if err != nil {
		return "", "", errors.Wrapf(err, "lookup template %q", key)
	}
	return src, "fallback", nil
}

func (c *Cache) templateOptions() []Option {
	if c.filters == nil {
		return nil
	}
	return []Option{WithRegistry(c.filters)}
}
