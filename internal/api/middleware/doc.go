// Package middleware provides HTTP middleware for the ipcd control plane.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing with configurable origins
//   - RateLimit: Per-IP token bucket rate limiting with idle cleanup
//   - RequestID: X-Request-ID propagation
//   - Logger: zap access log
//
// Example Usage:
//
//	corsMW, err := middleware.CORS(cfg.Server.CORSOrigins)
//	router.Use(middleware.RequestID(), middleware.Logger(logger), corsMW)
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
