package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"machinery-rental-backend/internal/rental"
)

type createRentalRequest struct {
	MachineryID int64     `json:"machinery_id" binding:"required"`
	CustomerID  uuid.UUID `json:"customer_id" binding:"required"`
	StartAt     time.Time `json:"start_at" binding:"required"`
	EndAt       time.Time `json:"end_at" binding:"required"`
	Notes       string    `json:"notes" binding:"max=500"`
}

// PostRental handles POST /api/rentals: the admission flow for both the admin
// creation screen and the storefront checkout.
func (h *Handler) PostRental(c *gin.Context) {
	var req createRentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.svc.RequestRental(c.Request.Context(), rental.Request{
		MachineryID: req.MachineryID,
		CustomerID:  req.CustomerID,
		StartAt:     req.StartAt.UTC(),
		EndAt:       req.EndAt.UTC(),
		Notes:       req.Notes,
	})
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

type returnRentalRequest struct {
	ReturnAt *time.Time `json:"return_at"`
}

// PostRentalReturn handles POST /api/rentals/:id/return. The body is optional;
// an omitted return_at defaults to the call time.
func (h *Handler) PostRentalReturn(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rental id"})
		return
	}

	var req returnRentalRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	returned, err := h.svc.ReturnRental(c.Request.Context(), id, req.ReturnAt)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, returned)
}

// GetActiveRentals handles GET /api/rentals/active: every open rental with
// its derived status, the feed the dashboard and report exporters consume.
func (h *Handler) GetActiveRentals(c *gin.Context) {
	rentals, err := h.svc.ListActiveAndOverdue(c.Request.Context())
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, rentals)
}
