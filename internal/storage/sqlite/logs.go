package sqlite

import (
	"database/sql"

	"github.com/mandalnilabja/chatgate/internal/storage/models"
)

// LogRequest records one proxied upstream call.
func (s *Storage) LogRequest(log *models.RequestLog) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if log.ID == "" || log.Provider == "" {
		return ErrInvalidInput
	}

	_, err := s.db.Exec(
		`INSERT INTO request_logs
		(id, request_id, provider, subpath, method, model, prompt_tokens,
		 is_streaming, status_code, error_message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.RequestID, log.Provider, log.Subpath, log.Method,
		log.Model, log.PromptTokens, boolToInt(log.IsStreaming),
		log.StatusCode, log.ErrorMessage, log.DurationMs, log.CreatedAt,
	)
	return err
}

// GetRequestLogs returns request logs, newest first.
func (s *Storage) GetRequestLogs(filter models.LogFilter) ([]*models.RequestLog, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, request_id, provider, subpath, method,
		COALESCE(model, ''), prompt_tokens, is_streaming, status_code,
		COALESCE(error_message, ''), duration_ms, created_at
		FROM request_logs`
	args := []any{}

	if filter.Provider != "" {
		query += ` WHERE provider = ?`
		args = append(args, filter.Provider)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.RequestLog
	for rows.Next() {
		var l models.RequestLog
		var streaming int
		var status sql.NullInt64

		if err := rows.Scan(&l.ID, &l.RequestID, &l.Provider, &l.Subpath,
			&l.Method, &l.Model, &l.PromptTokens, &streaming, &status,
			&l.ErrorMessage, &l.DurationMs, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.IsStreaming = streaming != 0
		l.StatusCode = int(status.Int64)
		out = append(out, &l)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
