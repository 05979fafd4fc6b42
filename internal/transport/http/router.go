package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"kairos/internal/app/vault"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Deps carries the wired application surface. The router itself holds
// no business logic; every route is a thin decode/dispatch/encode shim.
type Deps struct {
	Vault       *vault.Service
	Public      *PublicHandlers
	AdminAPIKey string
}

func NewRouter(deps Deps) *chi.Mux {
	vaultHandlers := NewVaultHandlers(deps.Vault)
	roundHandlers := NewRoundHandlers(deps.Vault)
	publicHandlers := deps.Public

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", publicHandlers.Health())

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())

		r.Post("/vault/bet", vaultHandlers.Bet())
		r.Post("/vault/deposit", vaultHandlers.Deposit())
		r.Post("/vault/withdraw", vaultHandlers.Withdraw())
		r.Get("/vault/balance", vaultHandlers.Balance())
		r.Get("/vault/transfers", vaultHandlers.Transfers())

		r.Get("/rounds/current", roundHandlers.Current())
		r.Get("/rounds/{round_id}", roundHandlers.ByID())

		r.Get("/price", publicHandlers.Price())
		r.Get("/public/leaderboard", publicHandlers.Leaderboard())

		// Resolution trusts winning_side when supplied, so both resolve
		// surfaces are operator-only; the resolver worker settles rounds
		// for everyone else.
		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(deps.AdminAPIKey))
			r.Post("/vault/resolve", vaultHandlers.Resolve())
			r.Post("/offchain/resolve", vaultHandlers.Resolve())

			r.Route("/debug", func(r chi.Router) {
				r.Use(BodyCaptureMiddleware(4096))
				r.Get("/vars", expvar.Handler().ServeHTTP)
			})
		})
	})

	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 32)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
