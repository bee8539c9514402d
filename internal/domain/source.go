// Package domain contains the core business entities and rules.
package domain

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// SourceKind discriminates what a source reference points at.
// The values double as the request "type" and the template "source" tag.
type SourceKind string

const (
	SourceTweet SourceKind = "twitter"
	SourceURL   SourceKind = "url"
)

// TweetHost is the only host accepted for tweet references.
const TweetHost = "twitter.com"

// Source is a validated reference to something that can be turned into an image.
type Source struct {
	Kind    SourceKind
	URL     string // original URL for tweets, normalized URL for web pages
	TweetID string // set for tweet sources only
}

// Identity is the cache identity of a source: tweet ID or normalized page URL.
type Identity struct {
	Kind  SourceKind
	Value string
}

// String returns the namespaced form used as a cache key: {kind}:{value}
func (i Identity) String() string {
	return string(i.Kind) + ":" + i.Value
}

// ParseSourceKind validates a raw source type.
func ParseSourceKind(s string) (SourceKind, error) {
	switch SourceKind(strings.ToLower(strings.TrimSpace(s))) {
	case SourceTweet:
		return SourceTweet, nil
	case SourceURL:
		return SourceURL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSourceKind, s)
	}
}

// ParseSource builds a Source from a source type and URL.
// Tweet URLs must be hosted on twitter.com and end with the status ID.
func ParseSource(kind SourceKind, rawURL string) (Source, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Source{}, fmt.Errorf("%w: source is required", ErrInvalidURL)
	}

	switch kind {
	case SourceTweet:
		u, err := url.Parse(rawURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return Source{}, ErrInvalidURL
		}
		if strings.ToLower(u.Host) != TweetHost {
			return Source{}, ErrTweetHost
		}
		id := lastPathSegment(u.Path)
		if !isDigits(id) {
			return Source{}, ErrInvalidTweetID
		}
		return Source{Kind: SourceTweet, URL: rawURL, TweetID: id}, nil

	case SourceURL:
		normalized, err := NormalizeURL(rawURL)
		if err != nil {
			return Source{}, err
		}
		return Source{Kind: SourceURL, URL: normalized}, nil

	default:
		return Source{}, ErrUnknownSourceKind
	}
}

// Identity returns the identity used to look up cached metadata.
func (s Source) Identity() Identity {
	if s.Kind == SourceTweet {
		return Identity{Kind: SourceTweet, Value: s.TweetID}
	}
	return Identity{Kind: SourceURL, Value: s.URL}
}

// NormalizeURL converts a page URL to canonical form: lower-case scheme and host,
// default port removed, fragment dropped, query sorted, empty path set to "/".
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}

	u.Host = strings.TrimSuffix(strings.ToLower(u.Host), ".")
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if (u.Scheme == "http" && strings.HasSuffix(u.Host, ":80")) ||
		(u.Scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Host[:strings.LastIndex(u.Host, ":")]
	}

	if u.Path == "" {
		u.Path = "/"
	}
	u.RawQuery = sortQuery(u.RawQuery)
	u.Fragment = ""
	u.RawFragment = ""

	return u.String(), nil
}

// sortQuery orders query parameters by key while keeping value order stable.
func sortQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	params := strings.Split(rawQuery, "&")
	sort.SliceStable(params, func(i, j int) bool {
		ki, _, _ := strings.Cut(params[i], "=")
		kj, _, _ := strings.Cut(params[j], "=")
		return ki < kj
	})
	return strings.Join(params, "&")
}

func lastPathSegment(path string) string {
	path = strings.TrimSuffix(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
