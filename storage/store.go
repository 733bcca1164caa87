package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yonathanth/betbot-sub000/models"
	"github.com/yonathanth/betbot-sub000/utils"
)

// ClickStats are the per-listing click counters shown to admins and on the
// dashboard.
type ClickStats struct {
	Contacts int64 `json:"contacts"`
	Views    int64 `json:"views"`
}

// AggregateStats back the dashboard overview page.
type AggregateStats struct {
	TotalUsers        int64            `json:"totalUsers"`
	ActiveUsers       int64            `json:"activeUsers"`
	ListingsByStatus  map[string]int64 `json:"listingsByStatus"`
	ClicksLast7Days   int64            `json:"clicksLast7d"`
	ClicksLast30Days  int64            `json:"clicksLast30d"`
	NewListings7Days  int64            `json:"newListings7d"`
	NewListings30Days int64            `json:"newListings30d"`
}

// Store is the persistence gateway consumed by the conversation core and the
// dashboard. Users are keyed by their Telegram id; listings by row id.
type Store interface {
	GetUser(ctx context.Context, telegramID int64) (*models.User, error)
	CreateUser(ctx context.Context, telegramID int64) (*models.User, error)
	UpdateUser(ctx context.Context, telegramID int64, fields map[string]interface{}) error

	// CreateListing starts a draft. It refuses a second pending listing for
	// the same owner (utils.ErrDraftExists).
	CreateListing(ctx context.Context, ownerTelegramID int64, fields map[string]interface{}) (uint, error)
	// DraftListing resolves the owner's single mutable draft: the most
	// recently created pending listing.
	DraftListing(ctx context.Context, ownerTelegramID int64) (*models.Listing, error)
	// UpdateDraftListing applies fields to the owner's draft in one statement.
	UpdateDraftListing(ctx context.Context, ownerTelegramID int64, fields map[string]interface{}) error
	GetListing(ctx context.Context, id uint) (*models.Listing, error)
	GetPendingListings(ctx context.Context) ([]models.Listing, error)
	SetListingStatus(ctx context.Context, id uint, status, reason string) error
	UpdateListingFields(ctx context.Context, id uint, fields map[string]interface{}) error

	AddMedia(ctx context.Context, listingID uint, item models.ListingMedia) error
	GetMedia(ctx context.Context, listingID uint) ([]models.ListingMedia, error)
	DeleteMedia(ctx context.Context, listingID uint) error

	RecordClick(ctx context.Context, listingID uint, clickerID int64, kind string) error
	GetClickStats(ctx context.Context, listingID uint) (ClickStats, error)
	PruneClicks(ctx context.Context, olderThan time.Time) (int64, error)

	IsAdmin(ctx context.Context, telegramID int64) (bool, error)
	ListAdmins(ctx context.Context) ([]models.User, error)
	ListUsersByRole(ctx context.Context, role string) ([]models.User, error)

	GetAggregateStats(ctx context.Context) (AggregateStats, error)
	RecordAudit(ctx context.Context, entry models.AuditLog) error
}

// DBStore is the gorm-backed Store. Reads and idempotent writes get a
// bounded retry on transient failures; everything else fails fast.
type DBStore struct {
	db *gorm.DB
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

const maxRetries = 3

// withRetry runs op up to maxRetries times, backing off
// min(1s × attempt, 5s) between attempts.
func withRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = op()
		if err == nil || !utils.IsTransient(err) {
			return err
		}
		backoff := time.Duration(attempt) * time.Second
		if backoff > 5*time.Second {
			backoff = 5 * time.Second
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.ErrNotFound
	}
	return err
}

func (s *DBStore) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	err := withRetry(ctx, func() error {
		return s.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error
	})
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &user, nil
}

func (s *DBStore) CreateUser(ctx context.Context, telegramID int64) (*models.User, error) {
	active := true
	user := models.User{TelegramID: telegramID, IsActive: &active}
	err := withRetry(ctx, func() error {
		return s.db.WithContext(ctx).Create(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *DBStore) UpdateUser(ctx context.Context, telegramID int64, fields map[string]interface{}) error {
	return withRetry(ctx, func() error {
		res := s.db.WithContext(ctx).Model(&models.User{}).
			Where("telegram_id = ?", telegramID).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.ErrNotFound
		}
		return nil
	})
}

func (s *DBStore) CreateListing(ctx context.Context, ownerTelegramID int64, fields map[string]interface{}) (uint, error) {
	owner, err := s.GetUser(ctx, ownerTelegramID)
	if err != nil {
		return 0, err
	}

	var pending int64
	err = withRetry(ctx, func() error {
		return s.db.WithContext(ctx).Model(&models.Listing{}).
			Where("owner_id = ? AND status = ?", owner.ID, models.StatusPending).
			Count(&pending).Error
	})
	if err != nil {
		return 0, err
	}
	if pending > 0 {
		return 0, utils.ErrDraftExists
	}

	listing := models.Listing{OwnerID: owner.ID, Status: models.StatusPending}
	if err := s.db.WithContext(ctx).Create(&listing).Error; err != nil {
		return 0, err
	}
	if len(fields) > 0 {
		if err := s.UpdateListingFields(ctx, listing.ID, fields); err != nil {
			return 0, err
		}
	}
	return listing.ID, nil
}

func (s *DBStore) DraftListing(ctx context.Context, ownerTelegramID int64) (*models.Listing, error) {
	owner, err := s.GetUser(ctx, ownerTelegramID)
	if err != nil {
		return nil, err
	}
	var listing models.Listing
	err = withRetry(ctx, func() error {
		return s.db.WithContext(ctx).
			Where("owner_id = ? AND status = ?", owner.ID, models.StatusPending).
			Order("created_at DESC").First(&listing).Error
	})
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &listing, nil
}

func (s *DBStore) UpdateDraftListing(ctx context.Context, ownerTelegramID int64, fields map[string]interface{}) error {
	draft, err := s.DraftListing(ctx, ownerTelegramID)
	if err != nil {
		return err
	}
	return s.UpdateListingFields(ctx, draft.ID, fields)
}

func (s *DBStore) GetListing(ctx context.Context, id uint) (*models.Listing, error) {
	var listing models.Listing
	err := withRetry(ctx, func() error {
		return s.db.WithContext(ctx).Preload("Owner").First(&listing, id).Error
	})
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &listing, nil
}

func (s *DBStore) GetPendingListings(ctx context.Context) ([]models.Listing, error) {
	var listings []models.Listing
	err := withRetry(ctx, func() error {
		return s.db.WithContext(ctx).Preload("Owner").
			Where("status = ?", models.StatusPending).
			Order("created_at ASC").Find(&listings).Error
	})
	return listings, err
}

func (s *DBStore) SetListingStatus(ctx context.Context, id uint, status, reason string) error {
	fields := map[string]interface{}{"status": status}
	if reason != "" {
		fields["review_notes"] = reason
	}
	if status == models.StatusPublished {
		now := time.Now()
		fields["published_at"] = &now
	}
	return s.UpdateListingFields(ctx, id, fields)
}

// UpdateListingFields applies all changed columns in a single statement so
// readers never observe a partially updated listing.
func (s *DBStore) UpdateListingFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return withRetry(ctx, func() error {
		res := s.db.WithContext(ctx).Model(&models.Listing{}).
			Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.ErrNotFound
		}
		return nil
	})
}

func (s *DBStore) AddMedia(ctx context.Context, listingID uint, item models.ListingMedia) error {
	var count int64
	err := withRetry(ctx, func() error {
		return s.db.WithContext(ctx).Model(&models.ListingMedia{}).
			Where("listing_id = ?", listingID).Count(&count).Error
	})
	if err != nil {
		return err
	}
	if count >= models.MaxMediaPerListing {
		return utils.ErrMediaLimit
	}
	item.ListingID = listingID
	item.Position = int(count)
	return s.db.WithContext(ctx).Create(&item).Error
}

func (s *DBStore) GetMedia(ctx context.Context, listingID uint) ([]models.ListingMedia, error) {
	var media []models.ListingMedia
	err := withRetry(ctx, func() error {
		return s.db.WithContext(ctx).
			Where("listing_id = ?", listingID).
			Order("position ASC").Find(&media).Error
	})
	return media, err
}

func (s *DBStore) DeleteMedia(ctx context.Context, listingID uint) error {
	return s.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Delete(&models.ListingMedia{}).Error
}

func (s *DBStore) RecordClick(ctx context.Context, listingID uint, clickerID int64, kind string) error {
	event := models.ClickEvent{ListingID: listingID, ClickerID: clickerID, Kind: kind}
	return withRetry(ctx, func() error {
		return s.db.WithContext(ctx).Create(&event).Error
	})
}

func (s *DBStore) GetClickStats(ctx context.Context, listingID uint) (ClickStats, error) {
	var stats ClickStats
	err := withRetry(ctx, func() error {
		if err := s.db.WithContext(ctx).Model(&models.ClickEvent{}).
			Where("listing_id = ? AND kind = ?", listingID, models.ClickContact).
			Count(&stats.Contacts).Error; err != nil {
			return err
		}
		return s.db.WithContext(ctx).Model(&models.ClickEvent{}).
			Where("listing_id = ? AND kind = ?", listingID, models.ClickView).
			Count(&stats.Views).Error
	})
	return stats, err
}

func (s *DBStore) PruneClicks(ctx context.Context, olderThan time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Unscoped().
		Where("created_at < ?", olderThan).
		Delete(&models.ClickEvent{})
	return res.RowsAffected, res.Error
}

func (s *DBStore) IsAdmin(ctx context.Context, telegramID int64) (bool, error) {
	var count int64
	err := withRetry(ctx, func() error {
		return s.db.WithContext(ctx).Model(&models.User{}).
			Where("telegram_id = ? AND is_admin = true", telegramID).
			Count(&count).Error
	})
	return count > 0, err
}

func (s *DBStore) ListAdmins(ctx context.Context) ([]models.User, error) {
	var admins []models.User
	err := withRetry(ctx, func() error {
		return s.db.WithContext(ctx).Where("is_admin = true").Find(&admins).Error
	})
	return admins, err
}

func (s *DBStore) ListUsersByRole(ctx context.Context, role string) ([]models.User, error) {
	var users []models.User
	err := withRetry(ctx, func() error {
		q := s.db.WithContext(ctx).Where("is_active = true")
		if role != "" {
			q = q.Where("role = ?", role)
		}
		return q.Find(&users).Error
	})
	return users, err
}

func (s *DBStore) GetAggregateStats(ctx context.Context) (AggregateStats, error) {
	stats := AggregateStats{ListingsByStatus: map[string]int64{}}
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return stats, err
	}
	db.Model(&models.User{}).Where("is_active = true").Count(&stats.ActiveUsers)

	rows := []struct {
		Status string
		N      int64
	}{}
	if err := db.Model(&models.Listing{}).
		Select("status, count(*) as n").Group("status").Scan(&rows).Error; err != nil {
		return stats, err
	}
	for _, r := range rows {
		stats.ListingsByStatus[r.Status] = r.N
	}

	since7 := time.Now().AddDate(0, 0, -7)
	since30 := time.Now().AddDate(0, 0, -30)
	db.Model(&models.ClickEvent{}).Where("created_at >= ?", since7).Count(&stats.ClicksLast7Days)
	db.Model(&models.ClickEvent{}).Where("created_at >= ?", since30).Count(&stats.ClicksLast30Days)
	db.Model(&models.Listing{}).Where("created_at >= ?", since7).Count(&stats.NewListings7Days)
	db.Model(&models.Listing{}).Where("created_at >= ?", since30).Count(&stats.NewListings30Days)

	return stats, nil
}

func (s *DBStore) RecordAudit(ctx context.Context, entry models.AuditLog) error {
	return s.db.WithContext(ctx).Create(&entry).Error
}
