package handlers

import (
	"net/http"

	"razzlab/internal/auth"
	"razzlab/internal/services"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	listingService *services.ListingService
	authService    *services.AuthService
}

func NewProfileHandler(listingService *services.ListingService, authService *services.AuthService) *ProfileHandler {
	return &ProfileHandler{
		listingService: listingService,
		authService:    authService,
	}
}

// GetProfile returns the authenticated user's profile
// GET /api/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.authService.GetUserByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetHosted returns listings the user created
// GET /api/profile/hosted
func (h *ProfileHandler) GetHosted(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	listings, err := h.listingService.GetHostedListings(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get hosted listings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"listings": listings})
}

// GetJoined returns listings the user holds a spot in
// GET /api/profile/joined
func (h *ProfileHandler) GetJoined(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	listings, err := h.listingService.GetJoinedListings(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get joined listings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"listings": listings})
}

// GetWon returns completed listings the user won
// GET /api/profile/won
func (h *ProfileHandler) GetWon(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	listings, err := h.listingService.GetWonListings(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get won listings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"listings": listings})
}
