package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/nicnocquee/spanduck/internal/domain"
	"github.com/nicnocquee/spanduck/internal/usecases"
)

// CreateGeneratedImageRequest is the body of POST /generated-images.
type CreateGeneratedImageRequest struct {
	Type       string `json:"type" validate:"required,oneof=twitter url"`
	URL        string `json:"url" validate:"required,url"`
	TemplateID int    `json:"template_id" validate:"required,gt=0"`
	UserID     string `json:"user_id" validate:"required,max=64"`
	ProjectID  int64  `json:"project_id" validate:"required,gt=0"`
	Regenerate bool   `json:"regenerate"`
}

func (r CreateGeneratedImageRequest) toInput() usecases.CreateGeneratedImage {
	return usecases.CreateGeneratedImage{
		Type:       r.Type,
		URL:        r.URL,
		TemplateID: r.TemplateID,
		UserID:     r.UserID,
		ProjectID:  r.ProjectID,
		Regenerate: r.Regenerate,
	}
}

// GenerateImageRequest holds the query of GET /images.
type GenerateImageRequest struct {
	Source     string `validate:"required,url"`
	Type       string `validate:"required,oneof=twitter url"`
	TemplateID int    `validate:"required,gt=0"`
	UserID     string `validate:"max=64"`
	Regenerate bool
}

// Response is the JSON envelope of every endpoint.
type Response struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ListResponse is the envelope of list endpoints.
type ListResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
	Count   int    `json:"count"`
}

func badRequest(c *fiber.Ctx, message string, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(Response{
		Message: message,
		Error:   err.Error(),
	})
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrTemplateNotFound):
		return fiber.StatusUnprocessableEntity, "Template not found"
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusUnprocessableEntity, "Invalid request"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "Not found"
	case errors.Is(err, domain.ErrUpstream):
		return fiber.StatusInternalServerError, "Failed to fetch metadata"
	case errors.Is(err, domain.ErrRender):
		return fiber.StatusInternalServerError, "Failed to render image"
	case errors.Is(err, domain.ErrStore):
		return fiber.StatusInternalServerError, "Failed to store image"
	default:
		return fiber.StatusInternalServerError, "Internal server error"
	}
}

func respondError(c *fiber.Ctx, err error) error {
	status, message := statusFor(err)
	return c.Status(status).JSON(Response{
		Message: message,
		Error:   err.Error(),
	})
}
