// Package notify reports pipeline run events to interested sinks.
//
// Core types:
//   - Notifier: interface for sending notifications
//   - Event: run event with type, message, severity and metadata
//
// Implementations:
//   - LogNotifier: logs events via slog
//   - WebhookNotifier: posts events to a generic HTTP webhook
//   - MultiNotifier: fans out to several notifiers
//   - NopNotifier: discards everything
package notify
