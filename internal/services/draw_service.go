package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"razzlab/internal/models"
	"razzlab/internal/random"
	"razzlab/internal/repository"

	"github.com/google/uuid"
)

// DrawService selects and commits winners for expired listings. A draw runs
// at most once per listing: the commit is guarded on status == active, and
// re-invocation after completion returns the already-recorded winners.
type DrawService struct {
	repo   *repository.Repository
	random random.Provider
	now    func() time.Time
}

func NewDrawService(repo *repository.Repository, provider random.Provider) *DrawService {
	return &DrawService{
		repo:   repo,
		random: provider,
		now:    time.Now,
	}
}

// RunDraw draws winners for a listing whose end time has passed and commits
// the terminal state. Calling it again on a completed listing is a no-op
// that returns the recorded result.
func (s *DrawService) RunDraw(ctx context.Context, listingID uuid.UUID) (*models.DrawResult, error) {
	listing, err := s.repo.GetListingByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if listing.Status == models.ListingStatusCompleted {
		return s.recordedResult(ctx, listing)
	}

	if s.now().Before(listing.EndTime) {
		return nil, models.ErrDrawNotDue
	}
	if listing.ParticipantsCount < 1 {
		return nil, models.ErrNoParticipants
	}

	k := listing.WinnerCount()
	if k > listing.ParticipantsCount {
		return nil, models.ErrInsufficientParticipants
	}

	participants, err := s.repo.GetParticipants(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	if len(participants) < k {
		return nil, models.ErrInsufficientParticipants
	}

	indices, err := s.random.Pick(ctx, len(participants), k)
	if err != nil {
		return nil, fmt.Errorf("failed to pick winner indices: %w", err)
	}

	winners := make([]models.Winner, 0, k)
	for place, idx := range indices {
		p := participants[idx]
		winners = append(winners, models.Winner{
			Place:       place + 1,
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			SpotNumber:  p.SpotNumber,
		})
	}

	err = s.repo.CompleteDraw(ctx, listingID, winners)
	if err != nil {
		if errors.Is(err, models.ErrListingNotActive) {
			// A concurrent draw won the race; hand back its result.
			log.Printf("[DrawService] listing %s already drawn, returning recorded winners", listingID)
			refreshed, gerr := s.repo.GetListingByID(ctx, listingID)
			if gerr != nil {
				return nil, gerr
			}
			return s.recordedResult(ctx, refreshed)
		}
		return nil, fmt.Errorf("failed to commit draw: %w", err)
	}

	log.Printf("[DrawService] listing %s drawn: %d winner(s) from %d participants",
		listingID, len(winners), len(participants))

	drawnAt := winners[0].DrawnAt
	return &models.DrawResult{
		ListingID: listingID,
		Winners:   winners,
		DrawnAt:   drawnAt,
	}, nil
}

// recordedResult returns the winners committed by an earlier draw
func (s *DrawService) recordedResult(ctx context.Context, listing *models.Listing) (*models.DrawResult, error) {
	winners := listing.Winners
	if len(winners) == 0 {
		loaded, err := s.repo.GetWinners(ctx, listing.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load winners: %w", err)
		}
		winners = loaded
	}
	if len(winners) == 0 {
		return nil, fmt.Errorf("listing %s is completed but has no recorded winners", listing.ID)
	}

	result := &models.DrawResult{
		ListingID: listing.ID,
		Winners:   winners,
		DrawnAt:   winners[0].DrawnAt,
	}
	return result, nil
}
