package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"razzlab/internal/auth"
	"razzlab/internal/models"
	"razzlab/internal/repository"
	"razzlab/internal/services"
	"razzlab/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ListingHandler struct {
	listingService *services.ListingService
	drawService    *services.DrawService
}

func NewListingHandler(listingService *services.ListingService, drawService *services.DrawService) *ListingHandler {
	return &ListingHandler{
		listingService: listingService,
		drawService:    drawService,
	}
}

// CreateListing creates a new listing
// POST /api/listings
func (h *ListingHandler) CreateListing(c *gin.Context) {
	sellerID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req models.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.listingService.CreateListing(c.Request.Context(), sellerID, &req)
	if err != nil {
		if errors.Is(err, models.ErrNotSeller) {
			c.JSON(http.StatusForbidden, gin.H{"error": "seller account required"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, listing)
}

// GetListings retrieves active listings with category filter and sort
// GET /api/listings?category=cards&sort=ending&limit=50
func (h *ListingHandler) GetListings(c *gin.Context) {
	category := c.Query("category")
	sort := repository.ListingSort(c.DefaultQuery("sort", string(repository.SortEndingSoonest)))

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	listings, err := h.listingService.GetListings(c.Request.Context(), category, sort, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get listings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"listings": toSummaries(listings)})
}

// GetListing retrieves a listing by ID
// GET /api/listings/:id
func (h *ListingHandler) GetListing(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing id"})
		return
	}

	listing, err := h.listingService.GetListingByID(c.Request.Context(), listingID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		return
	}

	c.JSON(http.StatusOK, models.ListingSummary{
		Listing:   *listing,
		Countdown: utils.FormatCountdown(listing.EndTime, time.Now()),
	})
}

// GetRecentWinners retrieves recently completed listings with winners
// GET /api/listings/recent-winners
func (h *ListingHandler) GetRecentWinners(c *gin.Context) {
	limit := 4
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	listings, err := h.listingService.GetRecentWinners(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get recent winners"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"listings": listings})
}

// JoinListing claims the next free spot
// POST /api/listings/:id/join
func (h *ListingHandler) JoinListing(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	displayName, _ := auth.GetDisplayName(c)

	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing id"})
		return
	}

	result, err := h.listingService.Join(c.Request.Context(), listingID, userID, displayName)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrListingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		case errors.Is(err, models.ErrAlreadyJoined):
			c.JSON(http.StatusConflict, gin.H{"error": "you have already joined this razz"})
		case errors.Is(err, models.ErrListingFull):
			c.JSON(http.StatusConflict, gin.H{"error": "this razz is full"})
		case errors.Is(err, models.ErrListingNotActive):
			c.JSON(http.StatusConflict, gin.H{"error": "this razz is no longer active"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join"})
		}
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetParticipants retrieves a listing's participants in spot order
// GET /api/listings/:id/participants
func (h *ListingHandler) GetParticipants(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing id"})
		return
	}

	participants, err := h.listingService.GetParticipants(c.Request.Context(), listingID)
	if err != nil {
		if errors.Is(err, models.ErrListingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get participants"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"participants": participants})
}

// DrawListing triggers the draw for an expired listing
// POST /api/listings/:id/draw
func (h *ListingHandler) DrawListing(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing id"})
		return
	}

	result, err := h.drawService.RunDraw(c.Request.Context(), listingID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrListingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		case errors.Is(err, models.ErrDrawNotDue):
			c.JSON(http.StatusConflict, gin.H{"error": "this razz has not ended yet"})
		case errors.Is(err, models.ErrNoParticipants):
			c.JSON(http.StatusConflict, gin.H{"error": "this razz has no participants"})
		case errors.Is(err, models.ErrInsufficientParticipants):
			c.JSON(http.StatusConflict, gin.H{"error": "not enough participants for the configured winner count"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to run draw"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// toSummaries decorates listings with their countdown strings
func toSummaries(listings []*models.Listing) []models.ListingSummary {
	now := time.Now()
	summaries := make([]models.ListingSummary, 0, len(listings))
	for _, l := range listings {
		summaries = append(summaries, models.ListingSummary{
			Listing:   *l,
			Countdown: utils.FormatCountdown(l.EndTime, now),
		})
	}
	return summaries
}
