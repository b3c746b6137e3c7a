// Package api exposes the campaign ledger and wallet over an HTTP JSON API.
//
// All mutating campaign routes require a bearer token; the token's subject
// is the caller's account address and doubles as the owner or donor
// identity in ledger operations. Reads are public.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// NewRouter assembles the full route tree.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/v1/healthz", s.health)

	r.Route("/v1/accounts", func(r chi.Router) {
		r.Post("/", s.createAccount)
		r.Get("/{address}", s.getAccount)
		r.With(s.signer.Authenticate).Post("/{address}/deposits", s.deposit)
	})

	r.Route("/v1/campaigns", func(r chi.Router) {
		r.Get("/", s.listCampaigns)
		r.Get("/{id}", s.getCampaign)
		r.Get("/{id}/donators", s.getDonators)
		r.Get("/{id}/events", s.listEvents)

		r.Group(func(r chi.Router) {
			r.Use(s.signer.Authenticate)
			r.Post("/", s.createCampaign)
			r.Post("/{id}/donations", s.donate)
			r.Post("/{id}/withdrawal", s.withdraw)
			r.Post("/{id}/refund", s.refund)
			r.Delete("/{id}", s.deleteCampaign)
		})
	})

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
