package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/Karuna/internal/middleware"
)

// MountRoutes registers all API routes on the given chi router. limiter
// guards the routes that call the generative model; nil disables it.
func MountRoutes(r chi.Router, h *Handlers, limiter *middleware.RateLimiter) {
	r.Get("/health", h.Health)

	r.Route("/api/data", func(r chi.Router) {
		r.Get("/docs", h.ListDoctors)
		r.Post("/docs", h.SearchDoctors)
		r.Get("/hospitals", h.ListHospitals)
		r.Post("/hospitals", h.SearchHospitals)
		r.Post("/search", h.DoctorsBySpecialization)
	})

	r.Route("/api/medicine", func(r chi.Router) {
		r.With(middleware.CacheGET(h.Cache)).Get("/", h.ListMedicines)
		r.With(middleware.CachePOST(h.Cache)).Post("/", h.MatchPrescription)
		r.Get("/{id}", h.GetMedicine)
	})

	r.Get("/api/student", h.ListStudents)

	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Handler)
		}
		r.Post("/api/diagnosis", h.Diagnose)
		r.Post("/api/chat/start", h.StartChat)
		r.Post("/api/chat/send", h.SendChat)
		r.Post("/api/report", h.AnalyzeReport)
	})

	r.Route("/api/cache", func(r chi.Router) {
		r.Use(AdminRecover)
		r.Delete("/clear", h.ClearCache)
		r.Get("/stats", h.CacheStats)
		r.Post("/delete-key", h.DeleteCacheKey)
		r.Post("/invalidate", h.InvalidateCache)
		r.Post("/reset-db", h.ResetDB)
	})
}
