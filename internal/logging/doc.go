// Package logging provides structured logging with per-module log levels.
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"surface": "debug",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("board")
//	logger.Warn("Expander did not respond", "addr", 0x24, "error", err)
//
// When the process runs under systemd, records are also sent to the journal
// and can be filtered by module:
//
//	journalctl -t possumbox MODULE=surface
package logging
