// Package log builds the application's slog loggers with automatic
// masking of credentials.
//
// Crawls are frequently configured with Authorization headers, API keys,
// or session cookies, and verbose logging prints request configuration.
// The SecureHandler masks attribute values that look like credentials so
// debug output stays safe to share:
//   - HTTP credential headers (Authorization, Cookie, X-Api-Key, ...)
//   - Values matching token patterns (JWT, Bearer, Basic auth, long keys)
//   - Attribute keys containing credential keywords
//
// Usage:
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("request configured",
//	    "authorization", "Bearer abc123", // masked
//	    "url", "https://api.example.com",
//	)
package log
