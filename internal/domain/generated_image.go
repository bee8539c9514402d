package domain

import "time"

// GeneratedImage is the persisted record of one generation request.
type GeneratedImage struct {
	ID            uint64     `json:"id"`
	Name          string     `json:"name"`
	Type          SourceKind `json:"type"`
	URL           string     `json:"url"`
	Image         string     `json:"image"`
	ImageMetadata Metadata   `json:"image_metadata"`
	UserID        string     `json:"user_id"`
	ProjectID     int64      `json:"project_id"`
	TemplateID    int        `json:"template_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
