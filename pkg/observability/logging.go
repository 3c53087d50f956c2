package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/palette/pkg/domain"
)

// LoggingHooks returns hooks that write one structured line per event.
// Visible list changes are logged at debug level; they fire on every keystroke.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnVisibleListChanged: func(ctx context.Context, e *domain.VisibleEvent) {
			logger.DebugContext(ctx, "visible_changed",
				"session_id", e.SessionID,
				"scope", e.ScopeID,
				"query", e.Query,
				"results", len(e.Results),
				"active", e.ActiveIndex,
			)
		},
		OnClose: func(ctx context.Context, e *domain.CloseEvent) {
			logger.InfoContext(ctx, "palette_close", "session_id", e.SessionID, "reason", e.Reason)
		},
		OnSelect: func(ctx context.Context, e *domain.SelectEvent) {
			logger.InfoContext(ctx, "action_select",
				"session_id", e.SessionID,
				"action_id", e.ActionID,
				"name", e.Name,
				"source", e.Source,
			)
		},
		OnPerformError: func(ctx context.Context, e *domain.PerformErrorEvent) {
			logger.ErrorContext(ctx, "perform_error",
				"session_id", e.SessionID,
				"action_id", e.ActionID,
				"panicked", e.Panicked,
				"error", e.Message,
			)
		},
		OnShortcutMatch: func(ctx context.Context, e *domain.ShortcutEvent) {
			logger.InfoContext(ctx, "shortcut_match",
				"session_id", e.SessionID,
				"action_id", e.ActionID,
				"keys", e.Keys,
			)
		},
		OnShortcutConflict: func(ctx context.Context, e *domain.ConflictEvent) {
			logger.WarnContext(ctx, "shortcut_conflict",
				"kind", e.Kind,
				"keys", e.Keys,
				"winner", e.Winner,
				"shadowed", e.Shadowed,
			)
		},
	}
}
