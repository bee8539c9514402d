package usecases

import (
	"context"
	"fmt"

	"github.com/nicnocquee/spanduck/internal/domain"
	"github.com/nicnocquee/spanduck/pkg/log"
)

// GeneratedImageRepository persists generated image records.
type GeneratedImageRepository interface {
	Create(ctx context.Context, img *domain.GeneratedImage) error
	List(ctx context.Context, q domain.ListQuery) ([]domain.GeneratedImage, error)
	// FindByID returns nil, nil when no record exists.
	FindByID(ctx context.Context, id uint64) (*domain.GeneratedImage, error)
	Delete(ctx context.Context, id uint64) error
}

// CreateGeneratedImage is the input of GeneratedImagesUseCase.Create.
type CreateGeneratedImage struct {
	Type       string
	URL        string
	TemplateID int
	UserID     string
	ProjectID  int64
	Regenerate bool
}

// GeneratedImagesUseCase manages generated image records around the pipeline.
type GeneratedImagesUseCase struct {
	repo     GeneratedImageRepository
	generate *GenerateImageUseCase
	premium  *PremiumUseCase
}

// NewGeneratedImagesUseCase creates a new GeneratedImagesUseCase.
func NewGeneratedImagesUseCase(repo GeneratedImageRepository, generate *GenerateImageUseCase, premium *PremiumUseCase) *GeneratedImagesUseCase {
	return &GeneratedImagesUseCase{
		repo:     repo,
		generate: generate,
		premium:  premium,
	}
}

// Generate runs the pipeline for a raw source without persisting a record.
func (uc *GeneratedImagesUseCase) Generate(ctx context.Context, in CreateGeneratedImage) (*GenerateResult, error) {
	kind, err := domain.ParseSourceKind(in.Type)
	if err != nil {
		return nil, err
	}
	src, err := domain.ParseSource(kind, in.URL)
	if err != nil {
		return nil, err
	}

	return uc.generate.Execute(ctx, GenerateRequest{
		Source:     src,
		TemplateID: in.TemplateID,
		UserID:     in.UserID,
		ProjectID:  in.ProjectID,
		IsPremium:  uc.premium.IsPremium(ctx, in.UserID),
		Regenerate: in.Regenerate,
	})
}

// Download runs the pipeline and returns the rendered PNG bytes.
func (uc *GeneratedImagesUseCase) Download(ctx context.Context, in CreateGeneratedImage) ([]byte, *GenerateResult, error) {
	result, err := uc.Generate(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	data, err := uc.generate.ReadArtifact(ctx, result.FileName)
	if err != nil {
		return nil, nil, err
	}
	return data, result, nil
}

// Create generates the image and stores a record of it.
func (uc *GeneratedImagesUseCase) Create(ctx context.Context, in CreateGeneratedImage) (*domain.GeneratedImage, error) {
	result, err := uc.Generate(ctx, in)
	if err != nil {
		return nil, err
	}

	img := &domain.GeneratedImage{
		Name:          result.FileName,
		Type:          result.Metadata.Kind,
		URL:           in.URL,
		Image:         result.ArtifactURL,
		ImageMetadata: result.Metadata,
		UserID:        in.UserID,
		ProjectID:     in.ProjectID,
		TemplateID:    in.TemplateID,
	}
	if err := uc.repo.Create(ctx, img); err != nil {
		return nil, domain.Wrap(domain.ErrStore, "create generated image", err)
	}

	log.GlobalInfoCtx(ctx, "generated image created", "id", img.ID, "file", img.Name, "cached", result.Cached)
	return img, nil
}

// List returns records matching q.
func (uc *GeneratedImagesUseCase) List(ctx context.Context, q domain.ListQuery) ([]domain.GeneratedImage, error) {
	return uc.repo.List(ctx, q)
}

// Get returns one record.
func (uc *GeneratedImagesUseCase) Get(ctx context.Context, id uint64) (*domain.GeneratedImage, error) {
	img, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, fmt.Errorf("generated image %d: %w", id, domain.ErrNotFound)
	}
	return img, nil
}

// Delete removes a record. The stored artifact is kept, other records may share it.
func (uc *GeneratedImagesUseCase) Delete(ctx context.Context, id uint64) error {
	if _, err := uc.Get(ctx, id); err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	log.GlobalInfoCtx(ctx, "generated image deleted", "id", id)
	return nil
}
