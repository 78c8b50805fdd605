// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/javajoker/coral-ledger/internal/config"
	"github.com/javajoker/coral-ledger/internal/handlers"
	"github.com/javajoker/coral-ledger/internal/i18n"
	"github.com/javajoker/coral-ledger/internal/metrics"
	"github.com/javajoker/coral-ledger/internal/middleware"
	"github.com/javajoker/coral-ledger/internal/services"
	"github.com/javajoker/coral-ledger/internal/utils"
)

const version = "1.0.0"

func Initialize(cfg *config.Config, svc *services.Services) *gin.Engine {
	// Initialize handlers
	invoiceHandler := handlers.NewInvoiceHandler(svc.Invoices, svc.Feeds)
	directoryHandler := handlers.NewDirectoryHandler(svc.Directory)
	shareHandler := handlers.NewShareHandler(svc.Shares)
	paymentHandler := handlers.NewPaymentHandler(svc.Payments)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)
	utils.SetJWTIssuer(cfg.JWT.Issuer)

	generalLimiter := middleware.NewRateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)
	writeLimiter := middleware.NewRateLimiter(rate.Limit(cfg.Server.WriteRateLimit), cfg.Server.WriteRateBurst)

	// Initialize Gin router
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logrus.WithError(err).Warn("Ignoring invalid TRUSTED_PROXIES")
	}

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	if cfg.Server.MetricsEnabled {
		r.Use(middleware.Metrics())
	}
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.BodyLimit(int64(cfg.Server.MaxRequestBodyKB) * 1024))
	r.Use(middleware.OptionalAuth())
	r.Use(generalLimiter.Middleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"version":   version,
			"payments":  svc.Payments.Enabled(),
			"languages": i18n.GetSupportedLanguages(),
			"time":      time.Now().UTC(),
		})
	})
	if cfg.Server.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	// write routes need a caller and share the stricter limiter
	write := func(h ...gin.HandlerFunc) []gin.HandlerFunc {
		return append([]gin.HandlerFunc{middleware.AuthRequired(), writeLimiter.Middleware()}, h...)
	}

	// API v1 routes
	v1 := r.Group("/v1")
	{
		invoices := v1.Group("/invoices")
		{
			invoices.GET("", invoiceHandler.ListInvoices)
			invoices.GET("/stats", invoiceHandler.GetStats)
			invoices.GET("/:id", invoiceHandler.GetInvoice)
			invoices.GET("/:id/value", invoiceHandler.GetInvoiceValue)

			protected := invoices.Group("", write()...)
			{
				protected.POST("", invoiceHandler.CreateInvoice)
				protected.PUT("/:id/status", invoiceHandler.UpdateStatus)
				protected.POST("/reports", invoiceHandler.ExportReport)
			}
		}

		users := v1.Group("/users")
		{
			users.GET("", directoryHandler.ListUsers)
			users.GET("/:id", directoryHandler.GetUser)
			users.POST("", write(directoryHandler.UpsertUser)...)
		}

		businesses := v1.Group("/businesses")
		{
			businesses.GET("", directoryHandler.ListBusinesses)
			businesses.GET("/:id", directoryHandler.GetBusiness)
			businesses.POST("", write(directoryHandler.UpsertBusiness)...)
		}

		products := v1.Group("/products")
		{
			products.GET("", directoryHandler.ListProducts)
			products.GET("/:id", directoryHandler.GetProduct)
			products.POST("", write(directoryHandler.UpsertProduct)...)
		}

		assets := v1.Group("/assets/:id/shares")
		{
			assets.GET("", shareHandler.GetAssetShares)
			assets.GET("/integrity", shareHandler.GetIntegrity)
			assets.POST("/root", write(shareHandler.MintRoot)...)
		}

		shares := v1.Group("/shares")
		{
			shares.GET("/:id", shareHandler.GetShare)
			shares.GET("/:id/quote", shareHandler.GetQuote)
			shares.POST("/:id/validate", shareHandler.ValidatePurchase)
			shares.POST("/:id/purchase", write(shareHandler.Purchase)...)
		}

		payments := v1.Group("/payments", write()...)
		{
			payments.POST("/shares/:id/intent", paymentHandler.CreateShareIntent)
			payments.POST("/invoices/:id/intent", paymentHandler.CreateInvoiceIntent)
			payments.POST("/invoices/:id/confirm", paymentHandler.ConfirmInvoicePayment)
		}
	}

	return r
}
