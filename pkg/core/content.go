package core

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Content fetches the note body from s. It is fetched on every call since
// the body may change remotely while the Note lives on.
func (n *Note) Content(ctx context.Context, s Store) (string, error) {
	return s.Content(ctx, n.ID())
}

// JSONContent fetches the body and decodes it as JSON. A body that is not
// valid JSON is logged and yields nil; only fetch errors are returned.
func (n *Note) JSONContent(ctx context.Context, s Store) (any, error) {
	content, err := n.Content(ctx, s)
	if err != nil {
		return nil, err
	}

	var v any
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		loggerFor(s).Warn("cannot parse note content as JSON",
			"note_id", n.ID(),
			"error", err)
		return nil, nil
	}
	return v, nil
}

// loggerFor returns the store's logger when it exposes one.
func loggerFor(s Store) *slog.Logger {
	if l, ok := s.(interface{ Logger() *slog.Logger }); ok {
		if logger := l.Logger(); logger != nil {
			return logger
		}
	}
	return slog.Default()
}
