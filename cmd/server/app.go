package main

import (
	"net/http"

	"github.com/diewo77/go-crm/auth"
	"github.com/diewo77/go-crm/httpx"
	"github.com/diewo77/go-crm/internal/middleware"
	"github.com/diewo77/go-crm/internal/policy"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	routerCfg *policy.RouterConfig
	handler   http.Handler
}

// NewApp creates a new application with all routes configured.
func NewApp(routerCfg *policy.RouterConfig) *App {
	app := &App{
		mux:       http.NewServeMux(),
		routerCfg: routerCfg,
	}
	app.setupRoutes()
	app.handler = middleware.Chain(app.mux,
		middleware.RequestID,
		middleware.Logging,
		middleware.Recover,
		middleware.CORS(routerCfg.CORSOrigins),
		auth.Middleware(routerCfg.Issuer, routerCfg.Revoker),
	)
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func (a *App) setupRoutes() {
	rc := a.routerCfg

	// Operations
	a.mux.HandleFunc("GET /health", rc.HealthHandler.Live)
	a.mux.HandleFunc("GET /healthz", rc.HealthHandler.Ready)

	// Accounts
	ah := rc.AuthHandler
	a.mux.HandleFunc("POST /api/auth/register", ah.Register)
	a.mux.HandleFunc("POST /api/auth/login", ah.Login)
	a.mux.Handle("POST /api/auth/logout", a.requireAuth(ah.Logout))

	me := rc.AccountHandler
	a.mux.Handle("GET /api/me", a.requireAuth(me.Me))
	a.mux.Handle("PUT /api/me", a.requireAuth(me.Update))
	a.mux.Handle("GET /api/me/logo", a.requireAuth(me.Logo))
	a.mux.Handle("POST /api/me/logo", a.requireAuth(me.UploadLogo))

	// Clients and prospects
	ch := rc.ClientHandler
	a.mux.Handle("GET /api/clients", a.requireAuth(ch.List))
	a.mux.Handle("POST /api/clients", a.requireAuth(ch.Create))
	a.mux.Handle("GET /api/clients/{id}", a.requireAuth(ch.Get))
	a.mux.Handle("PUT /api/clients/{id}", a.requireAuth(ch.Update))
	a.mux.Handle("DELETE /api/clients/{id}", a.requireAuth(ch.Delete))
	a.mux.Handle("POST /api/clients/{id}/convert", a.requireAuth(ch.Convert))

	// Quotes
	qh := rc.QuoteHandler
	a.mux.Handle("GET /api/quotes", a.requireAuth(qh.List))
	a.mux.Handle("POST /api/quotes", a.requireAuth(qh.Create))
	a.mux.Handle("GET /api/quotes/{id}", a.requireAuth(qh.Get))
	a.mux.Handle("PATCH /api/quotes/{id}", a.requireAuth(qh.Update))
	a.mux.Handle("DELETE /api/quotes/{id}", a.requireAuth(qh.Delete))
	a.mux.Handle("POST /api/quotes/{id}/items", a.requireAuth(qh.AddItem))
	a.mux.Handle("DELETE /api/quotes/{id}/items/{index}", a.requireAuth(qh.RemoveItem))
	a.mux.Handle("POST /api/quotes/{id}/status", a.requireAuth(qh.SetStatus))
	a.mux.Handle("POST /api/quotes/{id}/duplicate", a.requireAuth(qh.Duplicate))
	a.mux.Handle("GET /api/quotes/{id}/pdf", a.requireAuth(qh.PDF))

	a.mux.Handle("GET /api/stats", a.requireAuth(rc.StatsHandler.Summary))

	// Business cards
	cd := rc.CardHandler
	a.mux.Handle("GET /api/cards", a.requireAuth(cd.List))
	a.mux.Handle("POST /api/cards", a.requireAuth(cd.Create))
	a.mux.Handle("GET /api/cards/{id}", a.requireAuth(cd.Get))
	a.mux.Handle("PUT /api/cards/{id}", a.requireAuth(cd.Update))
	a.mux.Handle("DELETE /api/cards/{id}", a.requireAuth(cd.Delete))
	a.mux.Handle("POST /api/cards/{id}/photo", a.requireAuth(cd.UploadPhoto))
	a.mux.Handle("GET /api/cards/{id}/qrcode.png", a.requireAuth(cd.QRCode))

	// Public card pages
	pc := rc.PublicCardHandler
	a.mux.HandleFunc("GET /public/cards/{slug}", pc.View)
	a.mux.HandleFunc("GET /public/cards/{slug}/photo", pc.Photo)
	a.mux.Handle("POST /public/cards/{slug}/leads", rc.LeadLimiter.Handler(http.HandlerFunc(pc.CaptureLead)))

	a.mux.HandleFunc("/", a.notFound)
}

func (a *App) requireAuth(h http.HandlerFunc) http.Handler {
	return auth.RequireAuth(h)
}

func (a *App) notFound(w http.ResponseWriter, r *http.Request) {
	httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
}
