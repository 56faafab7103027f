// Package policy wires the ownership gate, the services and the HTTP
// handlers into one RouterConfig.
package policy

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/diewo77/go-crm/auth"
	"github.com/diewo77/go-crm/gate"
	"github.com/diewo77/go-crm/internal/config"
	"github.com/diewo77/go-crm/internal/handlers"
	"github.com/diewo77/go-crm/internal/middleware"
	"github.com/diewo77/go-crm/internal/repository"
	"github.com/diewo77/go-crm/internal/services"
	"github.com/diewo77/go-crm/internal/storage"
)

// Deps are the external resources the application runs on.
type Deps struct {
	DB      *gorm.DB
	Store   storage.ObjectStore
	Revoker auth.Revoker
	Config  *config.Config
	// Now overrides the clock of date-sensitive services.
	Now services.Clock
}

// RouterConfig holds configured handlers and middleware for the application.
type RouterConfig struct {
	Gate    *gate.Gate[uint]
	Issuer  *auth.Issuer
	Revoker auth.Revoker

	Accounts *services.AccountService

	AuthHandler       *handlers.AuthHandler
	AccountHandler    *handlers.AccountHandler
	ClientHandler     *handlers.ClientHandler
	QuoteHandler      *handlers.QuoteHandler
	StatsHandler      *handlers.StatsHandler
	CardHandler       *handlers.CardHandler
	PublicCardHandler *handlers.PublicCardHandler
	HealthHandler     *handlers.HealthHandler

	// LeadLimiter throttles anonymous lead submissions.
	LeadLimiter *middleware.RateLimiter
	CORSOrigins []string
}

func NewRouterConfig(d Deps) *RouterConfig {
	cfg := d.Config
	if d.Store == nil {
		d.Store = storage.Unavailable{}
	}
	if d.Revoker == nil {
		d.Revoker = auth.NopRevoker{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	g := gate.NewOwnerGate()
	issuer := auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL)

	users := repository.NewUserRepository(d.DB)
	clientRepo := repository.NewClientRepository(d.DB)
	quoteRepo := repository.NewQuoteRepository(d.DB)
	cardRepo := repository.NewCardRepository(d.DB)

	accounts := services.NewAccountService(users, issuer, d.Revoker, d.Store)
	clients := services.NewClientService(clientRepo, quoteRepo, g)
	quotes := services.NewQuoteService(quoteRepo, clients, g, d.Now)
	cards := services.NewCardService(cardRepo, d.Store, g, cfg.App.PublicURL)
	stats := services.NewStatsService(quoteRepo, clientRepo)
	exports := services.NewExportService(quotes, users)

	proxies, err := middleware.NewTrustedProxies(cfg.App.TrustedProxies)
	if err != nil {
		logrus.WithError(err).Warn("ignoring trusted proxies, client addresses come from the peer")
	}

	return &RouterConfig{
		Gate:     g,
		Issuer:   issuer,
		Revoker:  d.Revoker,
		Accounts: accounts,

		AuthHandler:       handlers.NewAuthHandler(accounts, !cfg.App.Dev),
		AccountHandler:    handlers.NewAccountHandler(accounts),
		ClientHandler:     handlers.NewClientHandler(clients),
		QuoteHandler:      handlers.NewQuoteHandler(quotes, exports),
		StatsHandler:      handlers.NewStatsHandler(stats),
		CardHandler:       handlers.NewCardHandler(cards),
		PublicCardHandler: handlers.NewPublicCardHandler(cards),
		HealthHandler:     handlers.NewHealthHandler(d.DB),

		LeadLimiter: middleware.NewRateLimiter(cfg.App.LeadRateRPS, cfg.App.LeadRateBurst).TrustProxies(proxies),
		CORSOrigins: cfg.App.CORSOrigins,
	}
}
