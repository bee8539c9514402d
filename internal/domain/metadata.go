package domain

import (
	"time"
)

// TweetMetadata is the resolved content of a tweet.
type TweetMetadata struct {
	TweetURL    string   `json:"tweet_url"`
	TweetID     string   `json:"tweet_id"`
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	AvatarURL   string   `json:"avatar"`
	Content     string   `json:"content"`
	Images      []string `json:"images"`
}

// WebMetadata is the resolved OpenGraph/meta description of a web page.
type WebMetadata struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image"`
	SiteName    string `json:"site_name"`
	Type        string `json:"type"`
}

// Metadata is a tagged union over the two metadata variants.
// Kind decides which variant is set; it is fixed at construction.
type Metadata struct {
	Kind      SourceKind     `json:"kind"`
	Tweet     *TweetMetadata `json:"tweet,omitempty"`
	Web       *WebMetadata   `json:"web,omitempty"`
	CreatedAt *time.Time     `json:"created_at,omitempty"`
	UpdatedAt *time.Time     `json:"updated_at,omitempty"`
}

// NewTweetMetadata wraps tweet metadata in the union.
func NewTweetMetadata(t TweetMetadata) Metadata {
	return Metadata{Kind: SourceTweet, Tweet: &t}
}

// NewWebMetadata wraps web page metadata in the union.
func NewWebMetadata(w WebMetadata) Metadata {
	return Metadata{Kind: SourceURL, Web: &w}
}

// Valid reports whether exactly the variant named by Kind is set.
func (m Metadata) Valid() bool {
	switch m.Kind {
	case SourceTweet:
		return m.Tweet != nil && m.Web == nil
	case SourceURL:
		return m.Web != nil && m.Tweet == nil
	default:
		return false
	}
}

// Identity returns the identity the metadata resolved to.
// For web pages this is the canonical URL, which may differ from the requested one.
func (m Metadata) Identity() Identity {
	switch m.Kind {
	case SourceTweet:
		return Identity{Kind: SourceTweet, Value: m.Tweet.TweetID}
	default:
		return Identity{Kind: SourceURL, Value: m.Web.URL}
	}
}

// Touch stamps the persistence timestamps.
func (m *Metadata) Touch(now time.Time) {
	if m.CreatedAt == nil {
		created := now
		m.CreatedAt = &created
	}
	updated := now
	m.UpdatedAt = &updated
}

// Clone returns a copy that shares no pointers or slices with m.
func (m Metadata) Clone() Metadata {
	out := m
	if m.Tweet != nil {
		t := *m.Tweet
		if m.Tweet.Images != nil {
			t.Images = append([]string(nil), m.Tweet.Images...)
		}
		out.Tweet = &t
	}
	if m.Web != nil {
		w := *m.Web
		out.Web = &w
	}
	if m.CreatedAt != nil {
		created := *m.CreatedAt
		out.CreatedAt = &created
	}
	if m.UpdatedAt != nil {
		updated := *m.UpdatedAt
		out.UpdatedAt = &updated
	}
	return out
}

// TemplateData flattens the metadata into the record handed to templates,
// adding the source tag and the premium flag.
func (m Metadata) TemplateData(isPremium bool) map[string]any {
	data := map[string]any{
		"source":     string(m.Kind),
		"is_premium": isPremium,
	}

	switch m.Kind {
	case SourceTweet:
		images := m.Tweet.Images
		if images == nil {
			images = []string{}
		}
		data["tweet_url"] = m.Tweet.TweetURL
		data["tweet_id"] = m.Tweet.TweetID
		data["username"] = m.Tweet.Username
		data["display_name"] = m.Tweet.DisplayName
		data["avatar"] = m.Tweet.AvatarURL
		data["content"] = m.Tweet.Content
		data["images"] = images
	case SourceURL:
		data["url"] = m.Web.URL
		data["title"] = m.Web.Title
		data["description"] = m.Web.Description
		data["image"] = m.Web.ImageURL
		data["site_name"] = m.Web.SiteName
		data["type"] = m.Web.Type
	}

	return data
}
