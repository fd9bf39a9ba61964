package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"razzlab/internal/models"
	"razzlab/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListingService manages listing creation, browsing and spot joins
type ListingService struct {
	repo *repository.Repository
	db   *gorm.DB
}

func NewListingService(repo *repository.Repository, db *gorm.DB) *ListingService {
	return &ListingService{repo: repo, db: db}
}

// CreateListing validates and creates a new listing for a seller
func (s *ListingService) CreateListing(ctx context.Context, sellerID uint, req *models.CreateListingRequest) (*models.Listing, error) {
	var seller models.User
	if err := s.db.WithContext(ctx).Where("id = ?", sellerID).First(&seller).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotSeller
		}
		return nil, fmt.Errorf("failed to look up seller: %w", err)
	}
	if !seller.IsSeller {
		return nil, models.ErrNotSeller
	}

	if req.Spots < 1 {
		return nil, fmt.Errorf("number of spots must be positive")
	}
	if req.PricePerSpot.IsNegative() {
		return nil, fmt.Errorf("price per spot must be non-negative")
	}
	if !req.EndTime.After(time.Now()) {
		return nil, fmt.Errorf("end time must be in the future")
	}
	if req.IsMini {
		if req.MiniWinners == nil || *req.MiniWinners < 1 {
			return nil, fmt.Errorf("mini winners must be at least 1")
		}
	}

	category := req.Category
	if category == "" {
		category = "other"
	}

	listing := &models.Listing{
		ID:                uuid.New(),
		Title:             req.Title,
		Category:          category,
		Spots:             req.Spots,
		PricePerSpot:      req.PricePerSpot,
		EndTime:           req.EndTime,
		Status:            models.ListingStatusActive,
		ParticipantsCount: 0,
		SellerID:          sellerID,
		ImageURL:          req.ImageURL,
		IsMini:            req.IsMini,
		ParentID:          req.ParentID,
		CreatedAt:         time.Now(),
	}
	if req.IsMini {
		listing.MiniWinners = req.MiniWinners
	}

	if err := s.repo.CreateListing(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	return listing, nil
}

// GetListings retrieves active listings filtered by category and sorted
func (s *ListingService) GetListings(ctx context.Context, category string, sort repository.ListingSort, limit int) ([]*models.Listing, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.GetActiveListings(ctx, category, sort, limit)
}

// GetListingByID retrieves a single listing with its winners
func (s *ListingService) GetListingByID(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	return s.repo.GetListingByID(ctx, listingID)
}

// GetRecentWinners retrieves recently completed listings with their winners
func (s *ListingService) GetRecentWinners(ctx context.Context, limit int) ([]*models.Listing, error) {
	if limit <= 0 || limit > 100 {
		limit = 4
	}
	return s.repo.GetCompletedListings(ctx, limit)
}

// Join claims the next free spot in a listing for a user. Spot assignment is
// first-come-first-served; the repository runs the whole sequence atomically.
func (s *ListingService) Join(ctx context.Context, listingID uuid.UUID, userID uint, displayName string) (*models.JoinResponse, error) {
	participant, err := s.repo.JoinListing(ctx, listingID, userID, displayName)
	if err != nil {
		return nil, err
	}

	return &models.JoinResponse{
		ListingID:  participant.ListingID,
		SpotNumber: participant.SpotNumber,
		JoinedAt:   participant.JoinedAt,
	}, nil
}

// GetParticipants retrieves a listing's participants in spot order
func (s *ListingService) GetParticipants(ctx context.Context, listingID uuid.UUID) ([]*models.Participant, error) {
	if _, err := s.repo.GetListingByID(ctx, listingID); err != nil {
		return nil, err
	}
	return s.repo.GetParticipants(ctx, listingID)
}

// GetHostedListings retrieves all listings a seller created
func (s *ListingService) GetHostedListings(ctx context.Context, sellerID uint) ([]*models.Listing, error) {
	return s.repo.GetHostedListings(ctx, sellerID)
}

// GetJoinedListings retrieves all listings a user participates in
func (s *ListingService) GetJoinedListings(ctx context.Context, userID uint) ([]*models.Listing, error) {
	return s.repo.GetJoinedListings(ctx, userID)
}

// GetWonListings retrieves all completed listings a user won
func (s *ListingService) GetWonListings(ctx context.Context, userID uint) ([]*models.Listing, error) {
	return s.repo.GetWonListings(ctx, userID)
}
