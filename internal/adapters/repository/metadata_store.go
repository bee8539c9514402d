package repository

import (
	"context"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nicnocquee/spanduck/internal/domain"
)

// MetadataStore is a metadata cache backed by the tweets and web_pages tables.
type MetadataStore struct {
	db *gorm.DB
}

func NewMetadataStore(db *gorm.DB) *MetadataStore {
	return &MetadataStore{db: db}
}

// Get looks up metadata by identity. Duplicate rows are tolerated; the first wins.
func (s *MetadataStore) Get(ctx context.Context, id domain.Identity) (*domain.Metadata, bool, error) {
	switch id.Kind {
	case domain.SourceTweet:
		var rows []TweetEntity
		err := s.db.WithContext(ctx).Where("tweet_id = ?", id.Value).Order("id").Limit(1).Find(&rows).Error
		if err != nil {
			return nil, false, fmt.Errorf("failed to find tweet %s: %w", id.Value, err)
		}
		if len(rows) == 0 {
			return nil, false, nil
		}
		m := mapTweet(rows[0])
		return &m, true, nil

	case domain.SourceURL:
		var rows []WebPageEntity
		err := s.db.WithContext(ctx).Where("lookup_url = ?", id.Value).Order("id").Limit(1).Find(&rows).Error
		if err != nil {
			return nil, false, fmt.Errorf("failed to find web page %s: %w", id.Value, err)
		}
		if len(rows) == 0 {
			return nil, false, nil
		}
		m := mapWebPage(rows[0])
		return &m, true, nil

	default:
		return nil, false, domain.ErrUnknownSourceKind
	}
}

// Put upserts metadata under identity.
func (s *MetadataStore) Put(ctx context.Context, id domain.Identity, m domain.Metadata) error {
	if !m.Valid() || m.Kind != id.Kind {
		return fmt.Errorf("%w: metadata kind %q does not match identity %s", domain.ErrValidation, m.Kind, id)
	}

	db := s.db.WithContext(ctx)
	switch id.Kind {
	case domain.SourceTweet:
		images := m.Tweet.Images
		if images == nil {
			images = []string{}
		}
		entity := TweetEntity{
			TweetID:     id.Value,
			TweetURL:    m.Tweet.TweetURL,
			Username:    m.Tweet.Username,
			DisplayName: m.Tweet.DisplayName,
			Avatar:      m.Tweet.AvatarURL,
			Content:     m.Tweet.Content,
			Images:      datatypes.NewJSONType(images),
		}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tweet_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"tweet_url", "username", "display_name", "avatar", "content", "images", "updated_at"}),
		}).Create(&entity).Error
		if err != nil {
			return fmt.Errorf("failed to upsert tweet %s: %w", id.Value, err)
		}

	case domain.SourceURL:
		entity := WebPageEntity{
			LookupURL:   id.Value,
			URL:         m.Web.URL,
			Title:       m.Web.Title,
			Description: m.Web.Description,
			Image:       m.Web.ImageURL,
			SiteName:    m.Web.SiteName,
			Type:        m.Web.Type,
		}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "lookup_url"}},
			DoUpdates: clause.AssignmentColumns([]string{"url", "title", "description", "image", "site_name", "type", "updated_at"}),
		}).Create(&entity).Error
		if err != nil {
			return fmt.Errorf("failed to upsert web page %s: %w", id.Value, err)
		}
	}
	return nil
}
