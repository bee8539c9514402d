// Package renderer compiles Handlebars templates with metadata and rasterizes them to PNG.
package renderer

import (
	"context"
	"fmt"
	"reflect"

	"github.com/aymerick/raymond"

	"github.com/nicnocquee/spanduck/internal/domain"
)

// Rasterizer turns an HTML document into PNG bytes.
type Rasterizer interface {
	Rasterize(ctx context.Context, html string) ([]byte, error)
}

// Renderer renders catalog templates through a Rasterizer.
type Renderer struct {
	catalog *Catalog
	raster  Rasterizer
}

// New creates a Renderer.
func New(catalog *Catalog, raster Rasterizer) *Renderer {
	return &Renderer{catalog: catalog, raster: raster}
}

// Exists reports whether templateID can be rendered.
func (r *Renderer) Exists(templateID int) bool {
	return r.catalog.Exists(templateID)
}

// Render compiles the template with data and rasterizes the result.
func (r *Renderer) Render(ctx context.Context, templateID int, data map[string]any) ([]byte, error) {
	html, err := r.Compile(templateID, data)
	if err != nil {
		return nil, err
	}

	png, err := r.raster.Rasterize(ctx, html)
	if err != nil {
		return nil, domain.Wrap(domain.ErrRender, fmt.Sprintf("template %d", templateID), err)
	}
	return png, nil
}

// Compile returns the HTML produced by the template and data.
func (r *Renderer) Compile(templateID int, data map[string]any) (string, error) {
	source, err := r.catalog.Load(templateID)
	if err != nil {
		return "", err
	}
	return Execute(source, data)
}

// Execute evaluates a Handlebars source with the isEqual helper available.
func Execute(source string, data map[string]any) (string, error) {
	tpl, err := raymond.Parse(source)
	if err != nil {
		return "", fmt.Errorf("%w: compile template: %w", domain.ErrRender, err)
	}
	tpl.RegisterHelper("isEqual", isEqual)

	out, err := tpl.Exec(data)
	if err != nil {
		return "", fmt.Errorf("%w: execute template: %w", domain.ErrRender, err)
	}
	return out, nil
}

// isEqual is used as a subexpression: {{#if (isEqual source "twitter")}}
func isEqual(a, b interface{}) bool {
	return reflect.DeepEqual(a, b)
}
