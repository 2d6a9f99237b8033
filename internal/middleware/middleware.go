package middleware

// Middleware defined in this package:
// - RequestID / RequestLogger: per-request id and structured access log
// - AuthMiddleware: JWT validation and role gating
// - RateLimiter: fixed-window per-client limiting
// - SecurityHeaders / CORS: browser protections
// - HandleAPIError: central error-to-status mapping for controllers
// - BindJSON / BindQuery: request binding with field-level validation errors
