package pipetemplar

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// DefaultSourceQuery используется SQLSource по умолчанию. Единственный
// параметр запроса: имя шаблона.
const DefaultSourceQuery = "SELECT body FROM templates WHERE name = ?"

// SQLSource ищет исходники шаблонов в таблице базы данных.
type SQLSource struct {
	db      *sql.DB
	query   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewSQLSource создаёт источник. При пустом query используется
// DefaultSourceQuery, timeout 0 отключает ограничение времени запроса,
// logger nil отключает логирование.
func NewSQLSource(db *sql.DB, query string, timeout time.Duration, logger *zap.Logger) *SQLSource {
	if query == "" {
		query = DefaultSourceQuery
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLSource{db: db, query: query, timeout: timeout, logger: logger}
}

// LookupSource реализует SourceLookup.
func (s *SQLSource) LookupSource(key string) (string, error) {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	startTime := time.Now()

	var body sql.NullString
	err := s.db.QueryRowContext(ctx, s.query, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Debug("template source not found", zap.String("template", key))
		return "", ErrSourceNotFound
	}
	if err != nil {
		s.logger.Warn("template source query failed", zap.String("template", key), zap.Error(err))
		return "", errors.Wrapf(err, "query template %q", key)
	}

	s.logger.Debug("template source loaded",
		zap.String("template", key),
		zap.Int("bytes", len(body.String)),
		zap.Duration("took", time.Since(startTime)),
	)
	return body.String, nil
}
