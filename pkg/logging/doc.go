// Package logging provides structured logging configuration for tp2-backend.
//
// This package wraps log/slog so every component logs the same way. It
// supports configurable levels, text or JSON output, and an optional log
// file that receives a JSON copy of each record.
//
// # Usage
//
//	logger, closeLog, err := logging.Open(logging.Config{
//	    Level:  logging.ParseLevel("info"),
//	    Format: logging.FormatText,
//	    File:   "logs/tp2.log",
//	})
//	if err != nil {
//	    return err
//	}
//	defer closeLog()
//
//	logger.Info("server started", "port", 4000)
//
// # Access log
//
// Middleware assigns each request an id (X-Request-ID) and logs method,
// path, status, size and duration after the handler returns.
//
// # Integration
//
// Components accept a *slog.Logger through an option. If no logger is
// provided they use logging.Nop().
package logging
