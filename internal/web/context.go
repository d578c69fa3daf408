package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/catalog/internal/core"
)

// requestContext carries the caller's IP and User-Agent into the audit log.
func requestContext(r *http.Request) context.Context {
	return core.WithRequestMeta(r.Context(), clientIP(r), r.UserAgent())
}

// clientIP returns RemoteAddr without its port. TrustedRealIP has already
// replaced it with the forwarded address when the proxy is trusted.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
