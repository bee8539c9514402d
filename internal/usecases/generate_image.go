package usecases

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nicnocquee/spanduck/internal/domain"
	"github.com/nicnocquee/spanduck/internal/metrics"
	"github.com/nicnocquee/spanduck/pkg/log"
)

// Renderer compiles a numbered template with data and rasterizes it to PNG.
type Renderer interface {
	Exists(templateID int) bool
	Render(ctx context.Context, templateID int, data map[string]any) ([]byte, error)
}

// ArtifactStore persists rendered images under deterministic keys.
type ArtifactStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, data []byte, opts domain.PutOptions) (string, error)
	Read(ctx context.Context, key string) ([]byte, error)
	PublicURL(key string) string
}

// GenerateRequest is the input of one pipeline run.
type GenerateRequest struct {
	Source     domain.Source
	TemplateID int
	UserID     string
	ProjectID  int64
	IsPremium  bool
	// Regenerate skips the existence check and overwrites the stored image.
	Regenerate bool
}

// GenerateResult is the outcome of a pipeline run.
type GenerateResult struct {
	ArtifactURL string
	FileName    string
	Metadata    domain.Metadata
	Cached      bool
}

// GenerateImageUseCase sequences metadata resolution, rendering and storage.
type GenerateImageUseCase struct {
	metadata *ResolveMetadataUseCase
	renderer Renderer
	store    ArtifactStore
	group    singleflight.Group
	timeout  time.Duration
}

// NewGenerateImageUseCase creates a new GenerateImageUseCase.
func NewGenerateImageUseCase(metadata *ResolveMetadataUseCase, renderer Renderer, store ArtifactStore) *GenerateImageUseCase {
	return &GenerateImageUseCase{
		metadata: metadata,
		renderer: renderer,
		store:    store,
		timeout:  defaultSharedTimeout,
	}
}

// WithTimeout bounds the shared existence check and render and upload.
func (uc *GenerateImageUseCase) WithTimeout(d time.Duration) *GenerateImageUseCase {
	if d > 0 {
		uc.timeout = d
	}
	return uc
}

// Execute runs the pipeline for one request.
func (uc *GenerateImageUseCase) Execute(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	m, err := uc.metadata.Execute(ctx, req.Source)
	if err != nil {
		return nil, err
	}

	job, err := domain.NewRenderJob(req.Source, m, req.TemplateID, req.IsPremium)
	if err != nil {
		return nil, err
	}

	artifact, _, err := joinFlight(ctx, &uc.group, job.FileName, uc.timeout, func(ctx context.Context) (domain.Artifact, error) {
		return uc.artifact(ctx, job, req.Regenerate)
	})
	if err != nil {
		return nil, err
	}

	return &GenerateResult{
		ArtifactURL: artifact.URL,
		FileName:    artifact.FileName,
		Metadata:    m,
		Cached:      artifact.Cached,
	}, nil
}

// ReadArtifact returns the stored bytes of a rendered image.
func (uc *GenerateImageUseCase) ReadArtifact(ctx context.Context, fileName string) ([]byte, error) {
	data, err := uc.store.Read(ctx, fileName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, domain.Wrap(domain.ErrStore, "read artifact", err)
	}
	return data, nil
}

func validate(req GenerateRequest) error {
	if req.TemplateID <= 0 {
		return domain.ErrInvalidTemplateID
	}
	// Sources built outside ParseSource are re-checked here.
	if _, err := domain.ParseSource(req.Source.Kind, req.Source.URL); err != nil {
		return err
	}
	return nil
}

func (uc *GenerateImageUseCase) artifact(ctx context.Context, job domain.RenderJob, regenerate bool) (domain.Artifact, error) {
	if !regenerate {
		exists, err := uc.store.Exists(ctx, job.FileName)
		if err != nil {
			return domain.Artifact{}, domain.Wrap(domain.ErrStore, "check artifact", err)
		}
		metrics.RecordCacheLookup("artifact", exists)
		if exists {
			log.GlobalDebugCtx(ctx, "artifact cache hit", "file", job.FileName)
			return domain.Artifact{FileName: job.FileName, URL: uc.store.PublicURL(job.FileName), Cached: true}, nil
		}
	}

	if !uc.renderer.Exists(job.TemplateID) {
		return domain.Artifact{}, domain.Wrap(domain.ErrNotFound, "render", domain.ErrTemplateNotFound)
	}

	start := time.Now()
	png, err := uc.renderer.Render(ctx, job.TemplateID, job.Metadata.TemplateData(job.IsPremium))
	metrics.RecordRender(err, time.Since(start).Seconds())
	if err != nil {
		return domain.Artifact{}, domain.Wrap(domain.ErrRender, "render", err)
	}
	log.GlobalInfoCtx(ctx, "rendered artifact", "file", job.FileName, "bytes", len(png), "duration", time.Since(start))

	url, err := uc.store.Put(ctx, job.FileName, png, domain.PutOptions{Overwrite: true})
	if err != nil {
		return domain.Artifact{}, domain.Wrap(domain.ErrStore, "store artifact", err)
	}

	return domain.Artifact{FileName: job.FileName, URL: url}, nil
}
