// Package logger wraps zap for the vessel-alarm binaries:
//   - one global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and switching,
//   - shortcuts (Infof, InfoKV, ErrorKV, ...) that read the logger from a context.
//
// Services never hold a logger field: they accept a context and log through it,
// so a name or key-value pairs attached once flow into every nested call.
package logger
