package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/momcare/mealplan/backend/internal/models"
	"github.com/momcare/mealplan/backend/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrProfileNotFound is returned when no profile exists for a user
var ErrProfileNotFound = errors.New("profile not found")

// ProfileService reads and writes planning profiles
type ProfileService struct {
	db *gorm.DB
}

// Ensure ProfileService implements ProfileStore
var _ ProfileStore = (*ProfileService)(nil)

// NewProfileService creates a new ProfileService instance
func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{
		db: db,
	}
}

// GetProfile retrieves a user's profile
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (types.UserProfile, error) {
	var row models.PregnancyProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.UserProfile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, userID)
	}
	if err != nil {
		return types.UserProfile{}, fmt.Errorf("failed to get profile: %w", err)
	}
	return row.ToDomain(), nil
}

// ListActiveProfiles returns every non-archived profile ordered by user id
func (s *ProfileService) ListActiveProfiles(ctx context.Context) ([]types.UserProfile, error) {
	var rows []models.PregnancyProfile
	if err := s.db.WithContext(ctx).Where("archived = ?", false).Order("user_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	out := make([]types.UserProfile, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// SaveProfile creates or replaces the profile of profile.UserID
func (s *ProfileService) SaveProfile(ctx context.Context, profile types.UserProfile) error {
	row := models.FromDomain(profile)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"due_date", "conception_date", "dietary_preference", "intolerances",
			"pre_existing_conditions", "mood", "available_food_items", "updated_at",
		}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// ArchiveProfile stops daily planning for a user
func (s *ProfileService) ArchiveProfile(ctx context.Context, userID string) error {
	res := s.db.WithContext(ctx).Model(&models.PregnancyProfile{}).Where("user_id = ?", userID).Update("archived", true)
	if res.Error != nil {
		return fmt.Errorf("failed to archive profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, userID)
	}
	return nil
}
