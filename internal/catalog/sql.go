package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/momcare/mealplan/backend/internal/models"
	"github.com/momcare/mealplan/backend/internal/types"
)

var foodItemColumns = []string{
	"id", "position", "name", "slot",
	"calories", "protein", "carbs", "fat", "sodium", "sugar",
	"vitamins", "dietary_tags", "allergen_tags", "mood_tags", "image_uri",
}

var foodItemInsertColumns = append(append([]string(nil), foodItemColumns...), "created_at", "updated_at", "deleted_at")

// SQLSource reads the dataset from the food_items and catalog_versions tables
type SQLSource struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

// NewSQLSource creates a source for the given driver ("postgres" uses $n
// placeholders, anything else uses ?)
func NewSQLSource(db *sql.DB, driver string) *SQLSource {
	var placeholder sq.PlaceholderFormat = sq.Question
	if driver == "postgres" {
		placeholder = sq.Dollar
	}
	return &SQLSource{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
	}
}

func (s *SQLSource) Version(ctx context.Context) (uint64, error) {
	query, args, err := s.builder.
		Select("COALESCE(MAX(version), 0)").
		From("catalog_versions").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build version query: %w", err)
	}

	var version int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to query catalog version: %w", err)
	}
	return uint64(version), nil
}

func (s *SQLSource) Load(ctx context.Context) (*Dataset, error) {
	version, err := s.Version(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := s.builder.
		Select(foodItemColumns...).
		From("food_items").
		Where(sq.Eq{"deleted_at": nil}).
		OrderBy("position", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query food items: %w", err)
	}
	defer rows.Close()

	ds := &Dataset{Version: version}
	for rows.Next() {
		var (
			row      models.FoodItem
			imageURI sql.NullString
		)
		if err := rows.Scan(
			&row.ID, &row.Position, &row.Name, &row.Slot,
			&row.Calories, &row.Protein, &row.Carbs, &row.Fat, &row.Sodium, &row.Sugar,
			&row.Vitamins, &row.DietaryTags, &row.AllergenTags, &row.MoodTags, &imageURI,
		); err != nil {
			return nil, fmt.Errorf("failed to scan food item: %w", err)
		}
		row.ImageURI = imageURI.String
		ds.Items = append(ds.Items, ItemFromRow(row))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate food items: %w", err)
	}
	return ds, nil
}

// Publish upserts the dataset items and records its version in one transaction.
// Rows missing from the dataset are soft-deleted.
func (s *SQLSource) Publish(ctx context.Context, ds *Dataset) error {
	current, err := s.Version(ctx)
	if err != nil {
		return err
	}
	if ds.Version <= current {
		return fmt.Errorf("%w: have %d, got %d", ErrStaleVersion, current, ds.Version)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	ids := make([]string, 0, len(ds.Items))
	for pos, item := range ds.Items {
		row := RowFromItem(item, pos)
		query, args, err := s.builder.
			Insert("food_items").
			Columns(foodItemInsertColumns...).
			Values(
				row.ID, row.Position, row.Name, row.Slot,
				row.Calories, row.Protein, row.Carbs, row.Fat, row.Sodium, row.Sugar,
				row.Vitamins, row.DietaryTags, row.AllergenTags, row.MoodTags, row.ImageURI,
				now, now, nil,
			).
			Suffix(`ON CONFLICT (id) DO UPDATE SET
				position = excluded.position, name = excluded.name, slot = excluded.slot,
				calories = excluded.calories, protein = excluded.protein, carbs = excluded.carbs,
				fat = excluded.fat, sodium = excluded.sodium, sugar = excluded.sugar,
				vitamins = excluded.vitamins, dietary_tags = excluded.dietary_tags,
				allergen_tags = excluded.allergen_tags, mood_tags = excluded.mood_tags,
				image_uri = excluded.image_uri, updated_at = excluded.updated_at, deleted_at = NULL`).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build upsert for %s: %w", item.ID, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to upsert food item %s: %w", item.ID, err)
		}
		ids = append(ids, item.ID)
	}

	del := s.builder.Update("food_items").Set("deleted_at", now).Where(sq.Eq{"deleted_at": nil})
	if len(ids) > 0 {
		del = del.Where(sq.NotEq{"id": ids})
	}
	query, args, err := del.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build soft delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to retire food items: %w", err)
	}

	query, args, err = s.builder.
		Insert("catalog_versions").
		Columns("version", "item_count", "created_at").
		Values(ds.Version, len(ds.Items), now).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build version insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record catalog version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog publish: %w", err)
	}
	return nil
}

// ItemFromRow converts a persisted row to a catalog item
func ItemFromRow(row models.FoodItem) types.FoodItem {
	return types.FoodItem{
		ID:   row.ID,
		Name: row.Name,
		Slot: types.MealSlot(row.Slot),
		Nutrients: types.Nutrients{
			Calories: row.Calories,
			Protein:  row.Protein,
			Carbs:    row.Carbs,
			Fat:      row.Fat,
			Sodium:   row.Sodium,
			Sugar:    row.Sugar,
		},
		Vitamins:     []string(row.Vitamins),
		DietaryTags:  []string(row.DietaryTags),
		AllergenTags: []string(row.AllergenTags),
		MoodTags:     []string(row.MoodTags),
		ImageURI:     row.ImageURI,
	}
}

// RowFromItem converts a catalog item to its persisted row
func RowFromItem(item types.FoodItem, position int) models.FoodItem {
	return models.FoodItem{
		ID:           item.ID,
		Position:     position,
		Name:         item.Name,
		Slot:         string(item.Slot),
		Calories:     item.Nutrients.Calories,
		Protein:      item.Nutrients.Protein,
		Carbs:        item.Nutrients.Carbs,
		Fat:          item.Nutrients.Fat,
		Sodium:       item.Nutrients.Sodium,
		Sugar:        item.Nutrients.Sugar,
		Vitamins:     models.JSONBStringArray(item.Vitamins),
		DietaryTags:  models.JSONBStringArray(item.DietaryTags),
		AllergenTags: models.JSONBStringArray(item.AllergenTags),
		MoodTags:     models.JSONBStringArray(item.MoodTags),
		ImageURI:     item.ImageURI,
	}
}
