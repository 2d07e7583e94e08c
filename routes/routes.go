// routes/routes.go
package routes

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/pcsdental/invoicedesk/infrastructure"
	"github.com/pcsdental/invoicedesk/internal/auth"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *mux.Router, c *infrastructure.Container, logger *zap.Logger) {
	router.Use(requestLogger(logger))
	router.Use(auth.RealmMiddleware(c.Sessions))

	RegisterAuthRoutes(router, c.AuthHandler)
	RegisterWebhookRoutes(router, c.WebhookHandler)

	// Invoice API - list views and status transitions work without a
	// QuickBooks connection; sync requires one.
	apiRouter := router.PathPrefix("/api").Subrouter()
	RegisterInvoiceRoutes(apiRouter, c)
}

// requestLogger tags each request with an id and logs its outcome.
func requestLogger(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := uuid.NewString()
			start := time.Now()

			w.Header().Set("X-Request-ID", requestID)
			next.ServeHTTP(w, r)

			logger.Debug("request handled",
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Duration("duration", time.Since(start)))
		})
	}
}
