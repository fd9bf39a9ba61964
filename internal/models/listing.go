package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "active"
	ListingStatusCompleted ListingStatus = "completed"
)

// Listing represents a razz: a raffle with a fixed number of purchasable
// spots, an end time and a single draw event. Status moves one way, from
// active to completed, when the draw commits.
type Listing struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Title             string          `gorm:"size:255;not null" json:"title"`
	Category          string          `gorm:"size:100;index" json:"category"`
	Spots             int             `gorm:"not null" json:"spots"`
	PricePerSpot      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_per_spot"`
	EndTime           time.Time       `gorm:"not null;index" json:"end_time"`
	Status            ListingStatus   `gorm:"size:20;not null;default:active;index" json:"status"`
	ParticipantsCount int             `gorm:"not null;default:0" json:"participants_count"`
	SellerID          uint            `gorm:"not null;index" json:"seller_id"`
	ImageURL          string          `gorm:"size:500" json:"image_url"`
	IsMini            bool            `gorm:"default:false" json:"is_mini"`
	MiniWinners       *int            `json:"mini_winners,omitempty"`
	// ParentID is a weak back-reference grouping mini variants under a parent
	// listing. It is stored but draws never consult it; each listing's draw is
	// self-contained.
	ParentID    *uuid.UUID `gorm:"type:uuid" json:"parent_id,omitempty"`
	Winners     []Winner   `gorm:"foreignKey:ListingID" json:"winners"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Listing) TableName() string {
	return "listings"
}

// WinnerCount returns the number of winners the draw must select.
func (l *Listing) WinnerCount() int {
	if l.IsMini && l.MiniWinners != nil && *l.MiniWinners > 0 {
		return *l.MiniWinners
	}
	return 1
}

// Participant is one claimed spot in a listing. A user holds at most one spot
// per listing, and spot numbers are unique within a listing, assigned in
// strict join order.
type Participant struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ListingID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_participants_listing_user;uniqueIndex:idx_participants_listing_spot" json:"listing_id"`
	UserID      uint      `gorm:"not null;index;uniqueIndex:idx_participants_listing_user" json:"user_id"`
	DisplayName string    `gorm:"size:255" json:"display_name"`
	SpotNumber  int       `gorm:"not null;uniqueIndex:idx_participants_listing_spot" json:"spot_number"`
	JoinedAt    time.Time `json:"joined_at"`
}

func (Participant) TableName() string {
	return "participants"
}

// Winner records one drawn winner of a completed listing. Place preserves the
// order the draw produced; rows are written exactly once, in the same
// transaction that completes the listing.
type Winner struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ListingID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_winners_listing_place;uniqueIndex:idx_winners_listing_user" json:"listing_id"`
	Place       int       `gorm:"not null;uniqueIndex:idx_winners_listing_place" json:"place"`
	UserID      uint      `gorm:"not null;index;uniqueIndex:idx_winners_listing_user" json:"user_id"`
	DisplayName string    `gorm:"size:255" json:"display_name"`
	SpotNumber  int       `gorm:"not null" json:"spot_number"`
	DrawnAt     time.Time `json:"drawn_at"`
}

func (Winner) TableName() string {
	return "winners"
}

// CreateListingRequest represents a request to create a new listing
type CreateListingRequest struct {
	Title        string          `json:"title" binding:"required"`
	Category     string          `json:"category"`
	Spots        int             `json:"spots" binding:"required"`
	PricePerSpot decimal.Decimal `json:"price_per_spot"`
	EndTime      time.Time       `json:"end_time" binding:"required"`
	ImageURL     string          `json:"image_url"`
	IsMini       bool            `json:"is_mini"`
	MiniWinners  *int            `json:"mini_winners"`
	ParentID     *uuid.UUID      `json:"parent_id"`
}

// JoinResponse is returned after a successful join
type JoinResponse struct {
	ListingID  uuid.UUID `json:"listing_id"`
	SpotNumber int       `json:"spot_number"`
	JoinedAt   time.Time `json:"joined_at"`
}

// DrawResult is the outcome of a completed draw
type DrawResult struct {
	ListingID uuid.UUID `json:"listing_id"`
	Winners   []Winner  `json:"winners"`
	DrawnAt   time.Time `json:"drawn_at"`
}

// ListingSummary decorates a listing with display fields for browse views
type ListingSummary struct {
	Listing
	Countdown string `json:"countdown"`
}
