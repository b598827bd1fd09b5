// Package backend provides the CollegeConnect API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and MongoDB document schemas
// - internal/auth: Authentication and session services
// - internal/websocket: Realtime direct messaging over websocket
// - internal/repository: MongoDB persistence for every collection
// - internal/database: Database connection and index management
// - internal/email: SES-backed outbound mail
// - internal/middleware: HTTP middleware (auth, rate limiting, metrics)
// - internal/housekeeping: Periodic sweeps for expired content
// - internal/seed: Demo data for development

// See the individual package documentation for detailed API reference.
package backend
