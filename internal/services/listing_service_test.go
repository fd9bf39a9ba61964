package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"razzlab/internal/models"
	"razzlab/internal/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// Each test gets its own named in-memory database so state never leaks
	// between tests. cache=shared keeps it alive across pooled connections;
	// a single connection keeps sqlite from returning "table is locked"
	// under concurrent transactions.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.Participant{},
		&models.Winner{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string, isSeller bool) *models.User {
	t.Helper()
	user := models.User{
		Email:        email,
		PasswordHash: "x",
		DisplayName:  email,
		IsSeller:     isSeller,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return &user
}

func createTestListing(t *testing.T, svc *ListingService, sellerID uint, spots int) *models.Listing {
	t.Helper()
	listing, err := svc.CreateListing(context.Background(), sellerID, &models.CreateListingRequest{
		Title:        "Vintage Watch Razz",
		Category:     "watches",
		Spots:        spots,
		PricePerSpot: decimal.NewFromInt(5),
		EndTime:      time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to create listing: %v", err)
	}
	return listing
}

func TestCreateListingValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewListingService(repository.NewRepository(db), db)
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)
	buyer := createTestUser(t, db, "buyer@test.com", false)

	valid := func() *models.CreateListingRequest {
		return &models.CreateListingRequest{
			Title:        "Test Razz",
			Spots:        10,
			PricePerSpot: decimal.NewFromInt(2),
			EndTime:      time.Now().Add(time.Hour),
		}
	}

	if _, err := svc.CreateListing(ctx, buyer.ID, valid()); !errors.Is(err, models.ErrNotSeller) {
		t.Errorf("non-seller create: expected ErrNotSeller, got %v", err)
	}

	req := valid()
	req.Spots = 0
	if _, err := svc.CreateListing(ctx, seller.ID, req); err == nil {
		t.Error("expected error for non-positive spots")
	}

	req = valid()
	req.EndTime = time.Now().Add(-time.Minute)
	if _, err := svc.CreateListing(ctx, seller.ID, req); err == nil {
		t.Error("expected error for past end time")
	}

	req = valid()
	req.PricePerSpot = decimal.NewFromInt(-1)
	if _, err := svc.CreateListing(ctx, seller.ID, req); err == nil {
		t.Error("expected error for negative price")
	}

	req = valid()
	req.IsMini = true
	if _, err := svc.CreateListing(ctx, seller.ID, req); err == nil {
		t.Error("expected error for mini listing without winner count")
	}

	req = valid()
	req.Category = ""
	listing, err := svc.CreateListing(ctx, seller.ID, req)
	if err != nil {
		t.Fatalf("valid create failed: %v", err)
	}
	if listing.Category != "other" {
		t.Errorf("expected default category %q, got %q", "other", listing.Category)
	}
	if listing.Status != models.ListingStatusActive {
		t.Errorf("expected status active, got %q", listing.Status)
	}
	if listing.ParticipantsCount != 0 {
		t.Errorf("expected 0 participants, got %d", listing.ParticipantsCount)
	}
}

func TestJoinAssignsSequentialSpots(t *testing.T) {
	db := setupTestDB(t)
	svc := NewListingService(repository.NewRepository(db), db)
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)
	listing := createTestListing(t, svc, seller.ID, 3)

	for i := 1; i <= 3; i++ {
		user := createTestUser(t, db, fmt.Sprintf("user%d@test.com", i), false)
		resp, err := svc.Join(ctx, listing.ID, user.ID, user.DisplayName)
		if err != nil {
			t.Fatalf("join %d failed: %v", i, err)
		}
		if resp.SpotNumber != i {
			t.Errorf("join %d: expected spot %d, got %d", i, i, resp.SpotNumber)
		}
	}

	late := createTestUser(t, db, "late@test.com", false)
	if _, err := svc.Join(ctx, listing.ID, late.ID, late.DisplayName); !errors.Is(err, models.ErrListingFull) {
		t.Errorf("join on full listing: expected ErrListingFull, got %v", err)
	}

	updated, err := svc.GetListingByID(ctx, listing.ID)
	if err != nil {
		t.Fatalf("failed to reload listing: %v", err)
	}
	if updated.ParticipantsCount != 3 {
		t.Errorf("expected participants_count 3, got %d", updated.ParticipantsCount)
	}
}

func TestJoinRejectsDuplicateUser(t *testing.T) {
	db := setupTestDB(t)
	svc := NewListingService(repository.NewRepository(db), db)
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)
	user := createTestUser(t, db, "user@test.com", false)
	listing := createTestListing(t, svc, seller.ID, 5)

	if _, err := svc.Join(ctx, listing.ID, user.ID, user.DisplayName); err != nil {
		t.Fatalf("first join failed: %v", err)
	}
	if _, err := svc.Join(ctx, listing.ID, user.ID, user.DisplayName); !errors.Is(err, models.ErrAlreadyJoined) {
		t.Errorf("second join: expected ErrAlreadyJoined, got %v", err)
	}

	updated, err := svc.GetListingByID(ctx, listing.ID)
	if err != nil {
		t.Fatalf("failed to reload listing: %v", err)
	}
	if updated.ParticipantsCount != 1 {
		t.Errorf("expected participants_count 1, got %d", updated.ParticipantsCount)
	}
}

func TestJoinMissingListing(t *testing.T) {
	db := setupTestDB(t)
	svc := NewListingService(repository.NewRepository(db), db)

	user := createTestUser(t, db, "user@test.com", false)
	if _, err := svc.Join(context.Background(), uuid.New(), user.ID, user.DisplayName); !errors.Is(err, models.ErrListingNotFound) {
		t.Errorf("expected ErrListingNotFound, got %v", err)
	}
}

func TestJoinCompletedListing(t *testing.T) {
	db := setupTestDB(t)
	svc := NewListingService(repository.NewRepository(db), db)
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)
	listing := createTestListing(t, svc, seller.ID, 5)

	if err := db.Model(&models.Listing{}).Where("id = ?", listing.ID).
		Update("status", models.ListingStatusCompleted).Error; err != nil {
		t.Fatalf("failed to complete listing: %v", err)
	}

	user := createTestUser(t, db, "user@test.com", false)
	if _, err := svc.Join(ctx, listing.ID, user.ID, user.DisplayName); !errors.Is(err, models.ErrListingNotActive) {
		t.Errorf("expected ErrListingNotActive, got %v", err)
	}
}

func TestJoinConcurrentNeverOverfills(t *testing.T) {
	db := setupTestDB(t)
	svc := NewListingService(repository.NewRepository(db), db)
	ctx := context.Background()

	const spots = 5
	const contenders = 12

	seller := createTestUser(t, db, "seller@test.com", true)
	listing := createTestListing(t, svc, seller.ID, spots)

	users := make([]*models.User, contenders)
	for i := range users {
		users[i] = createTestUser(t, db, fmt.Sprintf("user%d@test.com", i), false)
	}

	var wg sync.WaitGroup
	results := make([]error, contenders)
	responses := make([]*models.JoinResponse, contenders)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			responses[i], results[i] = svc.Join(ctx, listing.ID, users[i].ID, users[i].DisplayName)
		}(i)
	}
	wg.Wait()

	joined := 0
	full := 0
	spotsSeen := make(map[int]bool)
	for i, err := range results {
		switch {
		case err == nil:
			joined++
			spot := responses[i].SpotNumber
			if spot < 1 || spot > spots {
				t.Errorf("spot number %d out of range [1, %d]", spot, spots)
			}
			if spotsSeen[spot] {
				t.Errorf("spot number %d assigned twice", spot)
			}
			spotsSeen[spot] = true
		case errors.Is(err, models.ErrListingFull):
			full++
		default:
			t.Errorf("unexpected join error: %v", err)
		}
	}

	if joined != spots {
		t.Errorf("expected %d successful joins, got %d", spots, joined)
	}
	if full != contenders-spots {
		t.Errorf("expected %d full rejections, got %d", contenders-spots, full)
	}

	updated, err := svc.GetListingByID(ctx, listing.ID)
	if err != nil {
		t.Fatalf("failed to reload listing: %v", err)
	}
	if updated.ParticipantsCount != spots {
		t.Errorf("expected participants_count %d, got %d", spots, updated.ParticipantsCount)
	}

	participants, err := svc.GetParticipants(ctx, listing.ID)
	if err != nil {
		t.Fatalf("failed to load participants: %v", err)
	}
	if len(participants) != spots {
		t.Fatalf("expected %d participant rows, got %d", spots, len(participants))
	}
	for i, p := range participants {
		if p.SpotNumber != i+1 {
			t.Errorf("participant %d: expected spot %d, got %d", i, i+1, p.SpotNumber)
		}
	}
}

func TestGetListingsFiltersAndSorts(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRepository(db)
	svc := NewListingService(repo, db)
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)

	mk := func(title, category string, endIn time.Duration) *models.Listing {
		listing, err := svc.CreateListing(ctx, seller.ID, &models.CreateListingRequest{
			Title:        title,
			Category:     category,
			Spots:        10,
			PricePerSpot: decimal.NewFromInt(1),
			EndTime:      time.Now().Add(endIn),
		})
		if err != nil {
			t.Fatalf("failed to create listing %s: %v", title, err)
		}
		return listing
	}

	mk("Soonest", "watches", time.Hour)
	mk("Later", "watches", 3*time.Hour)
	mk("Other Category", "sneakers", 2*time.Hour)

	watches, err := svc.GetListings(ctx, "watches", repository.SortEndingSoonest, 0)
	if err != nil {
		t.Fatalf("GetListings failed: %v", err)
	}
	if len(watches) != 2 {
		t.Fatalf("expected 2 watches listings, got %d", len(watches))
	}
	if watches[0].Title != "Soonest" {
		t.Errorf("expected soonest-ending listing first, got %q", watches[0].Title)
	}

	all, err := svc.GetListings(ctx, "all", repository.SortEndingSoonest, 0)
	if err != nil {
		t.Fatalf("GetListings failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 listings for category all, got %d", len(all))
	}
}
