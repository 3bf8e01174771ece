package pipetemplar

import (
	"strconv"

	"github.com/cockroachdb/errors"
)

// Ошибки разбора шаблона.
var (
	// ErrInvalidTemplate: исходный текст шаблона не удалось разобрать.
	ErrInvalidTemplate = errors.New("invalid template")

	// ErrInvalidFilter: секцию фильтра не удалось разложить на имя и аргументы.
	ErrInvalidFilter = errors.New("invalid filter")
)

// Ошибки выполнения шаблона.
var (
	// ErrUnknownKey: плейсхолдер ссылается на отсутствующий аргумент.
	ErrUnknownKey = errors.New("unknown key")

	// ErrUnknownFilter: фильтр не найден в активном реестре.
	ErrUnknownFilter = errors.New("unknown filter")

	// ErrMissingFilterParameter: фильтр вызван без обязательного аргумента.
	ErrMissingFilterParameter = errors.New("missing required filter parameter")

	// ErrFilterFailed: фильтр завершился ошибкой.
	ErrFilterFailed = errors.New("filter failed")
)

// Ошибки кэша шаблонов.
var (
	// ErrUnknownTemplate: для имени нет ни исходника, ни резервного источника.
	ErrUnknownTemplate = errors.New("unknown template")

	// ErrSourceNotFound возвращается SourceLookup, если ключ не найден.
	ErrSourceNotFound = errors.New("template source not found")
)

// InvalidTemplateError: сканирование шаблона не смогло продвинуться.
type InvalidTemplateError struct {
	Source string // исходный текст шаблона
	Offset int    // байтовая позиция, на которой остановился разбор
}

// Error реализует интерфейс error.
func (e *InvalidTemplateError) Error() string {
	return "invalid template at offset " + strconv.Itoa(e.Offset) + ": " + strconv.Quote(e.Source)
}

// Unwrap возвращает базовую ошибку.
func (e *InvalidTemplateError) Unwrap() error { return ErrInvalidTemplate }

// InvalidFilterError: некорректная секция фильтра внутри %{...}.
type InvalidFilterError struct {
	Clause string // текст секции фильтра
}

// Error реализует интерфейс error.
func (e *InvalidFilterError) Error() string { return "invalid filter: " + e.Clause }

// Unwrap возвращает базовую ошибку.
func (e *InvalidFilterError) Unwrap() error { return ErrInvalidFilter }

// UnknownKeyError: в аргументах нет ключа, на который ссылается шаблон
// (или фильтр key).
type UnknownKeyError struct {
	Key string
}

// Error реализует интерфейс error.
func (e *UnknownKeyError) Error() string { return "unknown key: " + e.Key }

// Unwrap возвращает базовую ошибку.
func (e *UnknownKeyError) Unwrap() error { return ErrUnknownKey }

// UnknownFilterError: имя фильтра не зарегистрировано.
type UnknownFilterError struct {
	Name string
}

// Error реализует интерфейс error.
func (e *UnknownFilterError) Error() string { return "unknown filter: " + e.Name }

// Unwrap возвращает базовую ошибку.
func (e *UnknownFilterError) Unwrap() error { return ErrUnknownFilter }

// MissingFilterParameterError: фильтру не хватило аргументов.
type MissingFilterParameterError struct {
	Filter string
}

// Error реализует интерфейс error.
func (e *MissingFilterParameterError) Error() string {
	return "missing required filter parameter for filter " + e.Filter
}

// Unwrap возвращает базовую ошибку.
func (e *MissingFilterParameterError) Unwrap() error { return ErrMissingFilterParameter }

// UnknownTemplateError: в кэше нет шаблона с таким именем.
type UnknownTemplateError struct {
	Name string
}

// Error реализует интерфейс error.
func (e *UnknownTemplateError) Error() string { return "unknown template: " + e.Name }

// Unwrap возвращает базовую ошибку.
func (e *UnknownTemplateError) Unwrap() error { return ErrUnknownTemplate }

// FilterError оборачивает прочие ошибки фильтров (сериализация, неизвестный
// алгоритм хеширования и т.п.).
type FilterError struct {
	Filter string
	Err    error
}

// Error реализует интерфейс error.
func (e *FilterError) Error() string {
	return "filter " + e.Filter + ": " + e.Err.Error()
}

// Unwrap возвращает исходную ошибку фильтра.
func (e *FilterError) Unwrap() error { return e.Err }

// Is позволяет проверять errors.Is(err, ErrFilterFailed).
func (e *FilterError) Is(target error) bool { return target == ErrFilterFailed }
