package repository

import (
	"context"
	"errors"
	"time"

	"razzlab/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateListing creates a new listing
func (r *Repository) CreateListing(ctx context.Context, listing *models.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

// GetListingByID retrieves a listing by ID, including any recorded winners
func (r *Repository) GetListingByID(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).
		Preload("Winners", func(db *gorm.DB) *gorm.DB { return db.Order("place ASC") }).
		Where("id = ?", listingID).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrListingNotFound
		}
		return nil, err
	}
	return &listing, nil
}

// ListingSort selects the ordering of browse queries
type ListingSort string

const (
	SortEndingSoonest ListingSort = "ending"
	SortMostFilled    ListingSort = "spots"
	SortNewest        ListingSort = "newest"
)

// GetActiveListings retrieves active listings with optional category filter
// and sort order
func (r *Repository) GetActiveListings(ctx context.Context, category string, sort ListingSort, limit int) ([]*models.Listing, error) {
	query := r.db.WithContext(ctx).Where("status = ?", models.ListingStatusActive)
	if category != "" && category != "all" {
		query = query.Where("category = ?", category)
	}

	switch sort {
	case SortMostFilled:
		// fill ratio, fullest first
		query = query.Order("(participants_count * 1.0) / spots DESC")
	case SortNewest:
		query = query.Order("created_at DESC")
	default:
		query = query.Order("end_time ASC")
	}

	if limit > 0 {
		query = query.Limit(limit)
	}

	var listings []*models.Listing
	if err := query.Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// GetCompletedListings retrieves completed listings, most recently drawn
// first, with their winners
func (r *Repository) GetCompletedListings(ctx context.Context, limit int) ([]*models.Listing, error) {
	var listings []*models.Listing
	err := r.db.WithContext(ctx).
		Preload("Winners", func(db *gorm.DB) *gorm.DB { return db.Order("place ASC") }).
		Where("status = ?", models.ListingStatusCompleted).
		Order("completed_at DESC").
		Limit(limit).
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

// GetDueListings retrieves active listings whose end time has passed, oldest
// expiry first. Used by the draw resolver.
func (r *Repository) GetDueListings(ctx context.Context, now time.Time, limit int) ([]*models.Listing, error) {
	var listings []*models.Listing
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_time <= ?", models.ListingStatusActive, now).
		Order("end_time ASC").
		Limit(limit).
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

// JoinListing claims the next free spot in a listing for a user. The
// existence check, capacity check, counter increment and participant insert
// run in a single transaction, so concurrent joins can never produce
// duplicate or over-capacity spot numbers. The conditional increment
// (participants_count < spots) is the serialization point: the row lock it
// takes forces concurrent callers into a strict order, and whoever finds the
// counter at capacity gets ErrListingFull with no state change.
func (r *Repository) JoinListing(ctx context.Context, listingID uuid.UUID, userID uint, displayName string) (*models.Participant, error) {
	var participant *models.Participant

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listing models.Listing
		if err := tx.Where("id = ?", listingID).First(&listing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrListingNotFound
			}
			return err
		}

		if listing.Status != models.ListingStatusActive {
			return models.ErrListingNotActive
		}

		var existing int64
		if err := tx.Model(&models.Participant{}).
			Where("listing_id = ? AND user_id = ?", listingID, userID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return models.ErrAlreadyJoined
		}

		res := tx.Model(&models.Listing{}).
			Where("id = ? AND status = ? AND participants_count < spots", listingID, models.ListingStatusActive).
			Updates(map[string]interface{}{
				"participants_count": gorm.Expr("participants_count + 1"),
				"updated_at":         time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrListingFull
		}

		// Re-read inside the transaction: the counter now reflects our own
		// increment, which is this participant's spot number.
		var updated models.Listing
		if err := tx.Where("id = ?", listingID).First(&updated).Error; err != nil {
			return err
		}

		participant = &models.Participant{
			ID:          uuid.New(),
			ListingID:   listingID,
			UserID:      userID,
			DisplayName: displayName,
			SpotNumber:  updated.ParticipantsCount,
			JoinedAt:    time.Now(),
		}
		return tx.Create(participant).Error
	})

	if err != nil {
		return nil, err
	}
	return participant, nil
}

// GetParticipants retrieves all participants of a listing ordered by spot
// number, which gives the draw its deterministic index mapping
func (r *Repository) GetParticipants(ctx context.Context, listingID uuid.UUID) ([]*models.Participant, error) {
	var participants []*models.Participant
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("spot_number ASC").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

// CompleteDraw transitions a listing to completed and records its winners in
// one transaction. The status guard (status = 'active') makes the draw
// commit at most once: a concurrent draw that loses the race gets
// ErrListingNotActive and no rows are written.
func (r *Repository) CompleteDraw(ctx context.Context, listingID uuid.UUID, winners []models.Winner) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Listing{}).
			Where("id = ? AND status = ?", listingID, models.ListingStatusActive).
			Updates(map[string]interface{}{
				"status":       models.ListingStatusCompleted,
				"completed_at": now,
				"updated_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrListingNotActive
		}

		for i := range winners {
			winners[i].ID = uuid.New()
			winners[i].ListingID = listingID
			winners[i].DrawnAt = now
		}
		return tx.Create(&winners).Error
	})
}

// GetWinners retrieves the recorded winners of a listing in draw order
func (r *Repository) GetWinners(ctx context.Context, listingID uuid.UUID) ([]models.Winner, error) {
	var winners []models.Winner
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("place ASC").
		Find(&winners).Error
	if err != nil {
		return nil, err
	}
	return winners, nil
}

// GetHostedListings retrieves all listings created by a seller
func (r *Repository) GetHostedListings(ctx context.Context, sellerID uint) ([]*models.Listing, error) {
	var listings []*models.Listing
	err := r.db.WithContext(ctx).
		Preload("Winners", func(db *gorm.DB) *gorm.DB { return db.Order("place ASC") }).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

// GetJoinedListings retrieves all listings a user holds a spot in, via a
// cross-listing query over the participants table
func (r *Repository) GetJoinedListings(ctx context.Context, userID uint) ([]*models.Listing, error) {
	var listings []*models.Listing
	err := r.db.WithContext(ctx).
		Preload("Winners", func(db *gorm.DB) *gorm.DB { return db.Order("place ASC") }).
		Joins("JOIN participants ON participants.listing_id = listings.id").
		Where("participants.user_id = ?", userID).
		Order("listings.created_at DESC").
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

// GetWonListings retrieves all completed listings a user won
func (r *Repository) GetWonListings(ctx context.Context, userID uint) ([]*models.Listing, error) {
	var listings []*models.Listing
	err := r.db.WithContext(ctx).
		Preload("Winners", func(db *gorm.DB) *gorm.DB { return db.Order("place ASC") }).
		Joins("JOIN winners ON winners.listing_id = listings.id").
		Where("winners.user_id = ?", userID).
		Order("listings.completed_at DESC").
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}
