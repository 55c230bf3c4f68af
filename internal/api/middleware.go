package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/taskvault/taskvault/internal/apperr"
	"github.com/taskvault/taskvault/internal/auth"
	"github.com/taskvault/taskvault/internal/logging"
	"github.com/taskvault/taskvault/internal/model"
)

// IdentityResolver maps a verified token subject to a stored user.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID string) (*model.User, *apperr.Error)
}

// AccessGuard 是所有任务/资料路由的唯一闸口：解析 Bearer token、校验签名与过期、
// 回查用户并把身份挂到请求上下文。任何一步失败都以 401 拒绝。
type AccessGuard struct {
	tokens *auth.TokenIssuer
	users  IdentityResolver
}

func NewAccessGuard(tokens *auth.TokenIssuer, users IdentityResolver) *AccessGuard {
	return &AccessGuard{tokens: tokens, users: users}
}

func (g *AccessGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeErr(r.Context(), w, apperr.Auth("Not authorized, token missing."))
			return
		}

		userID, err := g.tokens.Verify(token)
		if err != nil {
			writeErr(r.Context(), w, apperr.Auth("Token invalid or expired."))
			return
		}

		u, aerr := g.users.ResolveIdentity(r.Context(), userID)
		if aerr != nil {
			writeErr(r.Context(), w, aerr)
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), u)))
	})
}

// accessLog emits one structured line per request, tagged with the chi
// request id.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := context.WithValue(r.Context(), logging.TraceIDKey, middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))
		logging.Info(ctx, "http_access",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("dur", time.Since(start)),
		)
	})
}

// cors allows browser clients from any origin.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
