package api

import (
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"machinery-rental-backend/internal/rental"
	"machinery-rental-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	svc     *rental.Service
	store   store.Store
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(svc *rental.Service, s store.Store, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		svc:     svc,
		store:   s,
		webpush: webpushOptions,
	}
}

// respondEngineError translates a rental engine error into the HTTP response
// for its kind. Untyped errors become a 500.
func respondEngineError(c *gin.Context, err error) {
	typed := rental.AsError(err)
	if typed == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	body := gin.H{
		"kind":  typed.Kind(),
		"error": typed.Message(),
	}
	if details := typed.Details(); details != nil {
		body["details"] = details
	}
	c.AbortWithStatusJSON(rental.HTTPStatus(typed.Kind()), body)
}
