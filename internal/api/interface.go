package api

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/taskvault/taskvault/internal/apperr"
	"github.com/taskvault/taskvault/internal/logging"
	"github.com/taskvault/taskvault/internal/model"
)

type ctxKey int

const identityKey ctxKey = 0

// IdentityFrom returns the authenticated user attached by the access guard.
func IdentityFrom(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(identityKey).(*model.User)
	return u, ok
}

func withIdentity(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, identityKey, u)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeOK emits the {success:true, message, ...payload} envelope.
func writeOK(w http.ResponseWriter, status int, message string, payload map[string]any) {
	body := map[string]any{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		body[k] = v
	}
	writeJSON(w, status, body)
}

// writeErr converts any failure into the uniform error envelope. Internal
// causes are logged here and never leak to the caller.
func writeErr(ctx context.Context, w http.ResponseWriter, err error) {
	ae := apperr.From(err)
	if ae.Kind == apperr.KindInternal {
		logging.Error(ctx, "request failed", zap.Error(ae.Err))
	}
	writeJSON(w, ae.Status(), map[string]any{"success": false, "message": ae.Message})
}
