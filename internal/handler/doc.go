// Package handler provides the HTTP surface of the CampusConnect API.
//
// Each handler struct wraps the domain services it serves and is thin: decode
// the body, read the caller from the context (middleware.GetUser), call one
// service method and write the result. NewRouter registers every route on a
// net/http ServeMux and applies the global middleware chain.
//
// # Response Format
//
// Success bodies are enveloped:
//
//	{"data": {...}, "_links": {...}}
//	{"data": [...], "pagination": {"page": 1, "limit": 12, "total": 40, "total_pages": 4, "has_more": true}}
//
// Failures are RFC 9457 problem details produced by MapServiceError. Domain
// conflicts carry their own type URI and code, and capacity failures add the
// limit and current values:
//
//	{"type": "https://campusconnect.dev/errors/club-full", "status": 409, "code": 3103, "limit": 30, "current": 30}
package handler
