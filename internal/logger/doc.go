// Package logger wraps zap to offer:
//   - a global sugared logger with a console encoder writing to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration and parsing utilities,
//   - convenience functions (Infof, WarnKV, etc.).
//
// Services accept a context and extract the logger from it, so every line
// written while resolving an addon carries that addon's fields.
package logger
