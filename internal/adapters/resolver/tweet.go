// Package resolver turns source references into metadata by calling upstream services.
package resolver

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nicnocquee/spanduck/internal/domain"
	"github.com/nicnocquee/spanduck/pkg/log"
)

// TweetLookup fetches a tweet by its URL.
type TweetLookup interface {
	Lookup(ctx context.Context, tweetURL string) (domain.TweetMetadata, error)
}

// TweetResolver resolves tweet sources through a TweetLookup.
type TweetResolver struct {
	lookup TweetLookup
}

// NewTweetResolver creates a new TweetResolver.
func NewTweetResolver(lookup TweetLookup) *TweetResolver {
	return &TweetResolver{lookup: lookup}
}

// Resolve validates the tweet URL and looks the tweet up.
func (r *TweetResolver) Resolve(ctx context.Context, src domain.Source) (domain.Metadata, error) {
	parsed, err := domain.ParseSource(domain.SourceTweet, src.URL)
	if err != nil {
		return domain.Metadata{}, err
	}

	tweet, err := r.lookup.Lookup(ctx, parsed.URL)
	if err != nil {
		return domain.Metadata{}, domain.Wrap(domain.ErrUpstream, "lookup tweet "+parsed.TweetID, err)
	}

	tweet.TweetID = parsed.TweetID
	tweet.TweetURL = parsed.URL
	if tweet.Images == nil {
		tweet.Images = []string{}
	}
	return domain.NewTweetMetadata(tweet), nil
}

// TwitterClient is a TweetLookup backed by the Twitter API v2.
type TwitterClient struct {
	http *resty.Client
}

// TwitterConfig configures TwitterClient.
type TwitterConfig struct {
	BaseURL     string
	BearerToken string
	Timeout     time.Duration
}

// NewTwitterClient creates a Twitter API v2 client.
func NewTwitterClient(cfg TwitterConfig) *TwitterClient {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetAuthToken(cfg.BearerToken).
		SetHeader("User-Agent", "spanduck/1.0").
		SetTimeout(cfg.Timeout)

	return &TwitterClient{http: client}
}

type tweetResponse struct {
	Data *struct {
		ID       string `json:"id"`
		Text     string `json:"text"`
		AuthorID string `json:"author_id"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID              string `json:"id"`
			Name            string `json:"name"`
			Username        string `json:"username"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"users"`
		Media []struct {
			MediaKey string `json:"media_key"`
			Type     string `json:"type"`
			URL      string `json:"url"`
		} `json:"media"`
	} `json:"includes"`
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// Lookup fetches the tweet, its author and attached media.
func (c *TwitterClient) Lookup(ctx context.Context, tweetURL string) (domain.TweetMetadata, error) {
	u, err := url.Parse(tweetURL)
	if err != nil {
		return domain.TweetMetadata{}, fmt.Errorf("parse tweet URL: %w", err)
	}
	segments := strings.Split(strings.TrimSuffix(u.Path, "/"), "/")
	id := segments[len(segments)-1]

	var result tweetResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetQueryParams(map[string]string{
			"tweet.fields": "text",
			"expansions":   "author_id,attachments.media_keys",
			"media.fields": "media_key,url",
			"user.fields":  "name,username,profile_image_url",
		}).
		SetResult(&result).
		Get("/2/tweets/{id}")
	if err != nil {
		return domain.TweetMetadata{}, fmt.Errorf("failed to query Twitter API: %w", err)
	}
	if resp.IsError() {
		return domain.TweetMetadata{}, fmt.Errorf("Twitter API error (status %d): %s", resp.StatusCode(), resp.String())
	}
	if result.Data == nil {
		if len(result.Errors) > 0 {
			return domain.TweetMetadata{}, fmt.Errorf("Twitter API error: %s: %s", result.Errors[0].Title, result.Errors[0].Detail)
		}
		return domain.TweetMetadata{}, fmt.Errorf("Twitter API returned no tweet for %s", id)
	}

	tweet := domain.TweetMetadata{
		TweetURL: tweetURL,
		TweetID:  result.Data.ID,
		Content:  result.Data.Text,
		Images:   []string{},
	}
	for _, user := range result.Includes.Users {
		if user.ID == result.Data.AuthorID || result.Data.AuthorID == "" {
			tweet.Username = user.Username
			tweet.DisplayName = user.Name
			tweet.AvatarURL = user.ProfileImageURL
			break
		}
	}
	for _, media := range result.Includes.Media {
		if media.URL != "" {
			tweet.Images = append(tweet.Images, media.URL)
		}
	}

	log.GlobalDebugCtx(ctx, "tweet fetched", "tweet_id", id, "images", len(tweet.Images))
	return tweet, nil
}
