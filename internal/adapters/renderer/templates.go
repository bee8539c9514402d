package renderer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nicnocquee/spanduck/internal/domain"
)

// Catalog is a directory of numbered HTML templates: {dir}/{id}.html
type Catalog struct {
	dir string
}

// NewCatalog creates a catalog over dir.
func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir}
}

func (c *Catalog) path(templateID int) string {
	return filepath.Join(c.dir, strconv.Itoa(templateID)+".html")
}

// Exists reports whether a template file exists for templateID.
func (c *Catalog) Exists(templateID int) bool {
	if templateID <= 0 {
		return false
	}
	info, err := os.Stat(c.path(templateID))
	return err == nil && info.Mode().IsRegular()
}

// Load returns the source of a template.
func (c *Catalog) Load(templateID int) (string, error) {
	if templateID <= 0 {
		return "", domain.ErrInvalidTemplateID
	}
	data, err := os.ReadFile(c.path(templateID))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("template %d: %w", templateID, domain.ErrTemplateNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read template %d: %w", templateID, err)
	}
	return string(data), nil
}

// IDs lists the template IDs present in the catalog.
func (c *Catalog) IDs() ([]int, error) {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.html"))
	if err != nil {
		return nil, err
	}
	var ids []int
	for _, m := range matches {
		id, err := strconv.Atoi(strings.TrimSuffix(filepath.Base(m), ".html"))
		if err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}
