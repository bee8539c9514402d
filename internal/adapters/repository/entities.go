package repository

import (
	"time"

	"gorm.io/datatypes"

	"github.com/nicnocquee/spanduck/internal/domain"
)

// TweetEntity is a resolved tweet cached by tweet ID.
type TweetEntity struct {
	ID          uint64                       `gorm:"primaryKey"`
	TweetID     string                       `gorm:"type:varchar(32);uniqueIndex;not null"`
	TweetURL    string                       `gorm:"type:text;not null"`
	Username    string                       `gorm:"type:varchar(64)"`
	DisplayName string                       `gorm:"type:varchar(255)"`
	Avatar      string                       `gorm:"type:text"`
	Content     string                       `gorm:"type:text"`
	Images      datatypes.JSONType[[]string] `gorm:"type:jsonb"`
	CreatedAt   time.Time                    `gorm:"autoCreateTime"`
	UpdatedAt   time.Time                    `gorm:"autoUpdateTime"`
}

func (TweetEntity) TableName() string {
	return "tweets"
}

// WebPageEntity is resolved page metadata. LookupURL is the identity it was
// requested under; URL is the canonical address the page resolved to.
type WebPageEntity struct {
	ID          uint64    `gorm:"primaryKey"`
	LookupURL   string    `gorm:"type:text;uniqueIndex;not null"`
	URL         string    `gorm:"type:text;not null"`
	Title       string    `gorm:"type:text"`
	Description string    `gorm:"type:text"`
	Image       string    `gorm:"type:text"`
	SiteName    string    `gorm:"type:varchar(255)"`
	Type        string    `gorm:"type:varchar(64)"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (WebPageEntity) TableName() string {
	return "web_pages"
}

// GeneratedImageEntity is the record of one generation request.
type GeneratedImageEntity struct {
	ID            uint64                              `gorm:"primaryKey"`
	Name          string                              `gorm:"type:varchar(255);not null"`
	Type          string                              `gorm:"type:varchar(16);not null"`
	URL           string                              `gorm:"type:text;not null"`
	Image         string                              `gorm:"type:text;not null"`
	ImageMetadata datatypes.JSONType[domain.Metadata] `gorm:"type:jsonb"`
	UserID        string                              `gorm:"type:varchar(64);index"`
	ProjectID     int64                               `gorm:"index"`
	TemplateID    int                                 `gorm:"not null"`
	CreatedAt     time.Time                           `gorm:"autoCreateTime"`
	UpdatedAt     time.Time                           `gorm:"autoUpdateTime"`
}

func (GeneratedImageEntity) TableName() string {
	return "generated_images"
}

// PremiumEntity is a user's premium entitlement.
type PremiumEntity struct {
	ID        uint64     `gorm:"primaryKey"`
	UserID    string     `gorm:"type:varchar(64);uniqueIndex;not null"`
	ExpiredAt *time.Time `gorm:"index"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
}

func (PremiumEntity) TableName() string {
	return "premium"
}

func mapGeneratedImage(e GeneratedImageEntity) domain.GeneratedImage {
	return domain.GeneratedImage{
		ID:            e.ID,
		Name:          e.Name,
		Type:          domain.SourceKind(e.Type),
		URL:           e.URL,
		Image:         e.Image,
		ImageMetadata: e.ImageMetadata.Data(),
		UserID:        e.UserID,
		ProjectID:     e.ProjectID,
		TemplateID:    e.TemplateID,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func mapTweet(e TweetEntity) domain.Metadata {
	m := domain.NewTweetMetadata(domain.TweetMetadata{
		TweetURL:    e.TweetURL,
		TweetID:     e.TweetID,
		Username:    e.Username,
		DisplayName: e.DisplayName,
		AvatarURL:   e.Avatar,
		Content:     e.Content,
		Images:      e.Images.Data(),
	})
	m.CreatedAt, m.UpdatedAt = &e.CreatedAt, &e.UpdatedAt
	return m
}

func mapWebPage(e WebPageEntity) domain.Metadata {
	m := domain.NewWebMetadata(domain.WebMetadata{
		URL:         e.URL,
		Title:       e.Title,
		Description: e.Description,
		ImageURL:    e.Image,
		SiteName:    e.SiteName,
		Type:        e.Type,
	})
	m.CreatedAt, m.UpdatedAt = &e.CreatedAt, &e.UpdatedAt
	return m
}
