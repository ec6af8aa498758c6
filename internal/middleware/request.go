package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen bounds ids accepted from clients.
const maxRequestIDLen = 64

type requestInfoKey struct{}

// requestInfo is shared between the logger and the handlers of one request.
type requestInfo struct {
	id        string
	errorKind string
}

// withRequestInfo attaches a fresh requestInfo to r, reusing a client
// supplied id when it is usable.
func withRequestInfo(r *http.Request) (*http.Request, *requestInfo) {
	id := sanitizeLogField(r.Header.Get(RequestIDHeader))
	if id == "" || len(id) > maxRequestIDLen {
		id = uuid.NewString()
	}
	info := &requestInfo{id: id}
	return r.WithContext(context.WithValue(r.Context(), requestInfoKey{}, info)), info
}

func infoFrom(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(*requestInfo)
	return info
}

// RequestID returns the id Logger assigned to the request, or "" outside it.
func RequestID(ctx context.Context) string {
	if info := infoFrom(ctx); info != nil {
		return info.id
	}
	return ""
}

// SetErrorKind records the error kind a handler answered with so the access
// log line can show it. Outside Logger it does nothing.
func SetErrorKind(r *http.Request, kind string) {
	if info := infoFrom(r.Context()); info != nil {
		info.errorKind = kind
	}
}
