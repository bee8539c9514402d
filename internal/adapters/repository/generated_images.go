package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nicnocquee/spanduck/internal/domain"
)

// listColumns are the generated_images columns the list DSL may reference.
var listColumns = map[string]bool{
	"id":          true,
	"name":        true,
	"type":        true,
	"url":         true,
	"image":       true,
	"user_id":     true,
	"project_id":  true,
	"template_id": true,
	"created_at":  true,
	"updated_at":  true,
}

// GeneratedImageRepository handles generated image persistence.
type GeneratedImageRepository struct {
	db *gorm.DB
}

func NewGeneratedImageRepository(db *gorm.DB) *GeneratedImageRepository {
	return &GeneratedImageRepository{db: db}
}

func (r *GeneratedImageRepository) Create(ctx context.Context, img *domain.GeneratedImage) error {
	entity := GeneratedImageEntity{
		Name:          img.Name,
		Type:          string(img.Type),
		URL:           img.URL,
		Image:         img.Image,
		ImageMetadata: datatypes.NewJSONType(img.ImageMetadata),
		UserID:        img.UserID,
		ProjectID:     img.ProjectID,
		TemplateID:    img.TemplateID,
	}
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return fmt.Errorf("failed to create generated image: %w", err)
	}
	img.ID = entity.ID
	img.CreatedAt = entity.CreatedAt
	img.UpdatedAt = entity.UpdatedAt
	return nil
}

func (r *GeneratedImageRepository) FindByID(ctx context.Context, id uint64) (*domain.GeneratedImage, error) {
	var entity GeneratedImageEntity
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get generated image %d: %w", id, err)
	}
	img := mapGeneratedImage(entity)
	return &img, nil
}

func (r *GeneratedImageRepository) List(ctx context.Context, q domain.ListQuery) ([]domain.GeneratedImage, error) {
	tx, err := ApplyListQuery(r.db.WithContext(ctx).Model(&GeneratedImageEntity{}), q)
	if err != nil {
		return nil, err
	}

	var entities []GeneratedImageEntity
	if err := tx.Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("failed to list generated images: %w", err)
	}

	images := make([]domain.GeneratedImage, 0, len(entities))
	for _, e := range entities {
		images = append(images, mapGeneratedImage(e))
	}
	return images, nil
}

func (r *GeneratedImageRepository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&GeneratedImageEntity{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete generated image %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("generated image %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ApplyListQuery translates the list DSL into gorm clauses.
// _id filters match exactly; other filters are case-insensitive substring matches.
// A from/to range takes precedence over limit.
func ApplyListQuery(tx *gorm.DB, q domain.ListQuery) (*gorm.DB, error) {
	for _, f := range q.Filters {
		if !listColumns[f.Field] {
			return nil, fmt.Errorf("%w: unknown filter column %q", domain.ErrValidation, f.Field)
		}
		if f.Exact {
			tx = tx.Where(clause.Eq{Column: clause.Column{Name: f.Field}, Value: f.Value})
		} else {
			tx = tx.Where(fmt.Sprintf("CAST(%s AS TEXT) ILIKE ?", f.Field), "%"+f.Value+"%")
		}
	}

	if len(q.Orders) == 0 {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true})
	}
	for _, o := range q.Orders {
		if !listColumns[o.Field] {
			return nil, fmt.Errorf("%w: unknown order column %q", domain.ErrValidation, o.Field)
		}
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Field}, Desc: o.Desc})
	}

	switch {
	case q.From != nil && q.To != nil:
		tx = tx.Offset(*q.From).Limit(*q.To - *q.From + 1)
	case q.Limit > 0:
		tx = tx.Limit(q.Limit)
	}
	return tx, nil
}
