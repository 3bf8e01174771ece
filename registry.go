package pipetemplar

import (
	"sort"
	"sync"
)

// Filter преобразует значение плейсхолдера. v содержит результат предыдущего
// фильтра или исходный аргумент, args содержит литеральные аргументы из
// шаблона, row хранит все аргументы запуска, t указывает на выполняемый шаблон.
type Filter func(v any, args []string, row map[string]any, t *Template) (any, error)

// Filters хранит фильтры по имени.
type Filters map[string]Filter

// Registry хранит изменяемый набор фильтров. Имена разрешаются при выполнении
// шаблона, поэтому фильтры можно добавлять после разбора. Безопасен для
// конкурентного использования. Нулевое значение готово к работе и пусто.
type Registry struct {
	mu      sync.RWMutex
	filters map[string]Filter
}

// DefaultRegistry используется шаблонами и кэшами, созданными без явного
// реестра. Встроенные фильтры регистрируются при старте; глобальные фильтры
// добавляются через DefaultRegistry.Add. В тестах переменную можно подменить.
var DefaultRegistry = NewDefaultRegistry()

// NewRegistry создаёт реестр, содержащий ровно переданные фильтры.
func NewRegistry(fs Filters) *Registry {
	r := &Registry{filters: make(map[string]Filter, len(fs))}
	for name, f := range fs {
		r.filters[name] = f
	}
	return r
}

// NewDefaultRegistry создаёт независимый реестр со встроенными фильтрами.
func NewDefaultRegistry() *Registry {
	return NewRegistry(DefaultFilters())
}

// Add регистрирует фильтры, заменяя одноимённые.
func (r *Registry) Add(fs Filters) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.filters == nil {
		r.filters = make(map[string]Filter, len(fs))
	}
	for name, f := range fs {
		r.filters[name] = f
	}
}

// Set регистрирует один фильтр.
func (r *Registry) Set(name string, f Filter) {
	r.Add(Filters{name: f})
}

// Remove удаляет фильтр из реестра.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.filters, name)
}

// Lookup возвращает фильтр по точному совпадению имени.
func (r *Registry) Lookup(name string) (Filter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.filters[name]
	return f, ok
}

// Names возвращает отсортированный список имён фильтров.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.filters))
	for name := range r.filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone возвращает снимок реестра; дальнейшие изменения оригинала на него
// не влияют.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return NewRegistry(r.filters)
}
