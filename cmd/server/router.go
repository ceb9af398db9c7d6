package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/inkpress/inkpress-api/internal/api"
	apimiddleware "github.com/inkpress/inkpress-api/internal/api/middleware"
)

// setupRouter configures all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(app.logger, app.jwtService)
	tenantHandler := api.NewTenantHandler(app.logger, app.tenantService)
	contentHandler := api.NewContentHandler(app.logger, app.contentService)
	webhookHandler := api.NewWebhookHandler(app.logger, app.poller)

	adminAuth := apimiddleware.NewAdminAuth(app.jwtService)
	tenantAuth := apimiddleware.NewTenantAuth(app.tenantStore)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		// Administrative tenant management, guarded by JWT.
		r.Group(func(r chi.Router) {
			r.Use(adminAuth.Middleware)
			r.Post("/tenants", tenantHandler.Create)
			r.Get("/tenants/{id}", tenantHandler.Get)
			r.Patch("/tenants/{id}", tenantHandler.Update)
			r.Put("/tenants/{id}/brand-profile", tenantHandler.UpsertBrandProfile)
			r.Post("/tenants/{id}/cms-connections", tenantHandler.CreateCMSConnection)
		})

		// Tenant-facing content endpoints, guarded by API key.
		r.Group(func(r chi.Router) {
			r.Use(tenantAuth.Middleware)
			r.Post("/content/generate", contentHandler.Generate)
			r.Get("/content/tasks", contentHandler.ListTasks)
			r.Get("/content/tasks/{taskID}", contentHandler.GetTask)
			r.Post("/content/tasks/{taskID}/retry", contentHandler.RetryTask)
		})

		r.Post("/webhooks/notion/poll", webhookHandler.NotionPoll)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	r.Method(http.MethodGet, "/metrics", app.metrics.Handler())

	return r
}
