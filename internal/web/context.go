package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/DataSweeper/internal/core"
	"github.com/JonMunkholm/DataSweeper/internal/web/middleware"
)

// requestContext adds the client IP and User-Agent for activity records.
// The IP has already been resolved by middleware.TrustedRealIP.
func requestContext(r *http.Request) context.Context {
	return core.ContextWithClient(r.Context(), middleware.ClientIP(r), r.UserAgent())
}
