package jobs

import (
	"context"
	"errors"
	"log"
	"time"

	"razzlab/internal/models"
	"razzlab/internal/repository"
	"razzlab/internal/services"
)

// DrawResolver automatically draws winners for expired listings
type DrawResolver struct {
	repo        *repository.Repository
	drawService *services.DrawService
	interval    time.Duration
	stopChan    chan struct{}
}

// NewDrawResolver creates a new draw resolver job
func NewDrawResolver(repo *repository.Repository, drawService *services.DrawService, interval time.Duration) *DrawResolver {
	return &DrawResolver{
		repo:        repo,
		drawService: drawService,
		interval:    interval,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the draw resolution loop
func (dr *DrawResolver) Start() {
	log.Printf("[DrawResolver] Starting draw resolution job (interval: %v)", dr.interval)

	ticker := time.NewTicker(dr.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			dr.resolveDueListings()
		case <-dr.stopChan:
			log.Println("[DrawResolver] Stopping draw resolution job")
			return
		}
	}
}

// Stop stops the draw resolution loop
func (dr *DrawResolver) Stop() {
	close(dr.stopChan)
}

// resolveDueListings finds expired active listings and runs their draws
func (dr *DrawResolver) resolveDueListings() {
	ctx := context.Background()

	listings, err := dr.repo.GetDueListings(ctx, time.Now(), 100)
	if err != nil {
		log.Printf("[DrawResolver] Error fetching due listings: %v", err)
		return
	}

	if len(listings) == 0 {
		return
	}

	log.Printf("[DrawResolver] Drawing %d expired listings", len(listings))

	drawnCount := 0
	for _, listing := range listings {
		result, err := dr.drawService.RunDraw(ctx, listing.ID)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrNoParticipants):
				// Nobody joined; nothing to draw. The listing stays active
				// and will be picked up again on the next pass.
				log.Printf("[DrawResolver] Listing %s expired with no participants, skipping", listing.ID)
			case errors.Is(err, models.ErrInsufficientParticipants):
				log.Printf("[DrawResolver] Listing %s has fewer participants than winners, skipping", listing.ID)
			default:
				log.Printf("[DrawResolver] Error drawing listing %s: %v", listing.ID, err)
			}
			continue
		}

		drawnCount++
		log.Printf("[DrawResolver] Listing %s drawn with %d winner(s)", listing.ID, len(result.Winners))
	}

	if drawnCount > 0 {
		log.Printf("[DrawResolver] Drew %d listings", drawnCount)
	}
}
