// Package logging builds the structured loggers used across ferry.
//
// # Overview
//
// The logging package configures Go's standard log/slog package with:
//   - JSON or text output
//   - Configurable log levels (debug, info, warn, error)
//   - Context fields: the stage name, the journal session and the
//     OpenTelemetry trace and span identifiers
//   - Redaction of policy payloads
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:          "info",
//	    Format:         "json",
//	    RedactPayloads: true,
//	})
//
//	ctx = logging.WithStage(ctx, "dxe")
//	logger.InfoContext(ctx, "seeded policy",
//	    "policy_id", id.String(),
//	    "payload", payload, // logged as "[redacted 12 bytes]"
//	)
//
// # Redaction
//
// Attributes named payload, data, secret, token or password (or ending in
// _payload and so on) are replaced by a size summary. Redaction is on by
// default.
package logging
