package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"machinery-rental-backend/config"
	"machinery-rental-backend/internal/mw"
	"machinery-rental-backend/internal/rental"
	"machinery-rental-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, svc *rental.Service, s store.Store, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(svc, s, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, cfg.RequestIPHeader)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Catalog reads; the list is cacheable, the availability probe is not
		// since it must reflect the latest admissions.
		api.GET("/machinery", caching, handler.GetMachinery)
		api.GET("/machinery/:id/availability", handler.GetMachineryAvailability)

		// Rental engine operations.
		api.POST("/rentals", handler.PostRental)
		api.POST("/rentals/:id/return", handler.PostRentalReturn)
		api.GET("/rentals/active", handler.GetActiveRentals)

		// Push subscription management.
		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
