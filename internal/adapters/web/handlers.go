package web

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/nicnocquee/spanduck/internal/domain"
	"github.com/nicnocquee/spanduck/internal/usecases"
	"github.com/nicnocquee/spanduck/pkg/log"
)

// ImageService is the generation and record API the handlers drive.
type ImageService interface {
	Generate(ctx context.Context, in usecases.CreateGeneratedImage) (*usecases.GenerateResult, error)
	Download(ctx context.Context, in usecases.CreateGeneratedImage) ([]byte, *usecases.GenerateResult, error)
	Create(ctx context.Context, in usecases.CreateGeneratedImage) (*domain.GeneratedImage, error)
	List(ctx context.Context, q domain.ListQuery) ([]domain.GeneratedImage, error)
	Get(ctx context.Context, id uint64) (*domain.GeneratedImage, error)
	Delete(ctx context.Context, id uint64) error
}

// Handlers contains the HTTP handlers of the service.
type Handlers struct {
	images   ImageService
	validate *validator.Validate
	timeout  time.Duration
}

// NewHandlers creates a new Handlers instance. timeout bounds each generation request.
func NewHandlers(images ImageService, timeout time.Duration) *Handlers {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Handlers{
		images:   images,
		validate: validator.New(),
		timeout:  timeout,
	}
}

// CreateGeneratedImage handles POST /generated-images.
func (h *Handlers) CreateGeneratedImage(c *fiber.Ctx) error {
	var req CreateGeneratedImageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", err)
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, "invalid request body", err)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	img, err := h.images.Create(ctx, req.toInput())
	if err != nil {
		log.GlobalErrorCtx(ctx, "create generated image failed", "type", req.Type, "url", req.URL, "template_id", req.TemplateID, "error", err)
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(Response{
		Message: "Image generated",
		Data:    img,
	})
}

// ListGeneratedImages handles GET /generated-images.
func (h *Handlers) ListGeneratedImages(c *fiber.Ctx) error {
	q, err := domain.ParseListQuery(c.Query("filter"), c.Query("order"), c.Query("limit"), c.Query("from"), c.Query("to"))
	if err != nil {
		return badRequest(c, "invalid query", err)
	}

	images, err := h.images.List(c.UserContext(), q)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return badRequest(c, "invalid query", err)
		}
		log.GlobalErrorCtx(c.UserContext(), "list generated images failed", "error", err)
		return respondError(c, err)
	}

	return c.JSON(ListResponse{
		Message: "OK",
		Data:    images,
		Count:   len(images),
	})
}

// GetGeneratedImage handles GET /generated-images/:id.
func (h *Handlers) GetGeneratedImage(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "invalid id", err)
	}

	img, err := h.images.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(Response{Message: "OK", Data: img})
}

// DeleteGeneratedImage handles DELETE /generated-images/:id.
func (h *Handlers) DeleteGeneratedImage(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "invalid id", err)
	}

	if err := h.images.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GenerateImage handles GET /images, running the pipeline without keeping a record.
func (h *Handlers) GenerateImage(c *fiber.Ctx) error {
	req := GenerateImageRequest{
		Source:     c.Query("source"),
		Type:       c.Query("type", string(domain.SourceURL)),
		TemplateID: c.QueryInt("templateID", 0),
		UserID:     c.Query("userID"),
		Regenerate: c.QueryBool("regenerate", false),
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, "invalid query", err)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	in := usecases.CreateGeneratedImage{
		Type:       req.Type,
		URL:        req.Source,
		TemplateID: req.TemplateID,
		UserID:     req.UserID,
		Regenerate: req.Regenerate,
	}

	if c.QueryBool("dl", false) {
		data, _, err := h.images.Download(ctx, in)
		if err != nil {
			log.GlobalErrorCtx(ctx, "download image failed", "source", req.Source, "template_id", req.TemplateID, "error", err)
			return respondError(c, err)
		}
		c.Type("png")
		return c.Send(data)
	}

	result, err := h.images.Generate(ctx, in)
	if err != nil {
		log.GlobalErrorCtx(ctx, "generate image failed", "source", req.Source, "template_id", req.TemplateID, "error", err)
		return respondError(c, err)
	}

	return c.JSON(Response{Message: "OK", Data: result.ArtifactURL})
}

// Health handles GET /health.
func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func parseID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("id"), 10, 64)
}
