package router

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-streak-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-streak-go/internal/routine"
	"github.com/ovaphlow/pitchfork/service-streak-go/internal/setting"
)

// Prefix is the path every route is mounted under.
const Prefix = "/streak-api"

// Handlers groups the feature handlers mounted by RegisterRoutes.
type Handlers struct {
	Routine  *routine.Handler
	Settings *setting.Handler
	Auth     *auth.Service
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux.
// Everything except health requires a bearer token.
func RegisterRoutes(logger *zap.SugaredLogger, h Handlers) http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET "+Prefix+"/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	protect := auth.Middleware(h.Auth, logger)
	handle := func(pattern string, fn http.HandlerFunc) {
		method, path, _ := strings.Cut(pattern, " ")
		mux.Handle(method+" "+Prefix+path, protect(fn))
	}

	// streak routes
	handle("GET /streak", h.Routine.Status)
	handle("POST /streak/complete", h.Routine.Complete)
	handle("POST /streak/freeze", h.Routine.Freeze)
	handle("POST /streak/reset", h.Routine.ResetStreak)
	handle("POST /freezes", h.Routine.AddFreezes)

	// scan routes
	handle("POST /scans", h.Routine.RecordScan)
	handle("GET /scans", h.Routine.ListScans)
	handle("DELETE /scans", h.Routine.ResetScans)
	handle("DELETE /me", h.Routine.ResetAll)

	// setting routes
	handle("GET /settings", h.Settings.List)

	// request ID first so the access log and panics can quote it
	return WithRequestID(AccessLog(logger)(HardenResponses(mux)))
}
