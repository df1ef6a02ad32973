package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"machinery-rental-backend/internal/model"
)

// machineryResponse is the catalog entry plus its live rental load.
type machineryResponse struct {
	model.Machinery
	ActiveRentals int64 `json:"activeRentals"`
}

// GetMachinery handles GET /api/machinery: the active catalog with the
// number of open rentals per machinery.
func (h *Handler) GetMachinery(c *gin.Context) {
	machinery, err := h.store.ActiveMachinery(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve machinery"})
		return
	}

	counts, err := h.store.ActiveRentalCounts(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate rentals"})
		return
	}

	responses := make([]machineryResponse, 0, len(machinery))
	for _, m := range machinery {
		responses = append(responses, machineryResponse{
			Machinery:     m,
			ActiveRentals: counts[m.ID],
		})
	}
	c.JSON(http.StatusOK, responses)
}

// GetMachineryAvailability handles
// GET /api/machinery/{id}/availability?start=...&end=...[&exclude=...].
// It runs the admission check without booking anything, so the UI can probe
// dates before submitting.
func (h *Handler) GetMachineryAvailability(c *gin.Context) {
	machineryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid machinery ID"})
		return
	}

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'start' timestamp format. Use RFC3339."})
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'end' timestamp format. Use RFC3339."})
		return
	}

	excludeID := uuid.Nil
	if raw := c.Query("exclude"); raw != "" {
		excludeID, err = uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'exclude' rental id"})
			return
		}
	}

	decision, err := h.svc.CheckAvailability(c.Request.Context(), machineryID, start.UTC(), end.UTC(), excludeID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, decision)
}
