package pipetemplar

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// WorkbookSource хранит набор шаблонов из листа Excel. В колонке A
// имя шаблона, в колонках B, C, ... части исходника, которые склеиваются
// без разделителя. Строки с пустым именем или именем,
// начинающимся с '#', пропускаются.
type WorkbookSource struct {
	sheet   string
	sources Sources
}

// OpenWorkbookSource читает шаблоны из файла .xlsx. Пустой sheet означает первый лист.
func OpenWorkbookSource(path, sheet string, logger *zap.Logger) (*WorkbookSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("loading template workbook", zap.String("path", path), zap.String("sheet", sheet))

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open workbook %s", path)
	}
	defer func() { _ = f.Close() }()
	return NewWorkbookSource(f, sheet, logger)
}

// NewWorkbookSource читает шаблоны из уже открытой книги. Содержимое
// копируется, книгу после вызова можно закрыть.
func NewWorkbookSource(f *excelize.File, sheet string, logger *zap.Logger) (*WorkbookSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	startTime := time.Now()

	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = list[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %s", sheet)
	}

	sources := Sources{}
	for rIdx, row := range rows {
		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		if _, dup := sources[name]; dup {
			return nil, errors.Newf("sheet %s row %d: duplicate template %q", sheet, rIdx+1, name)
		}
		sources[name] = append(Source{}, row[1:]...)
	}

	logger.Debug("template workbook loaded",
		zap.String("sheet", sheet),
		zap.Int("templates", len(sources)),
		zap.Duration("took", time.Since(startTime)),
	)
	return &WorkbookSource{sheet: sheet, sources: sources}, nil
}

// Sheet возвращает имя прочитанного листа.
func (w *WorkbookSource) Sheet() string { return w.sheet }

// Sources возвращает копию прочитанных шаблонов, например для NewCache.
func (w *WorkbookSource) Sources() Sources {
	out := make(Sources, len(w.sources))
	for k, v := range w.sources {
		out[k] = append(Source{}, v...)
	}
	return out
}

// LookupSource реализует SourceLookup.
func (w *WorkbookSource) LookupSource(key string) (string, error) {
	return w.sources.LookupSource(key)
}
