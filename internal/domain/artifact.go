package domain

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// RenderJob is everything needed to produce one artifact.
type RenderJob struct {
	Metadata   Metadata
	TemplateID int
	IsPremium  bool
	FileName   string
}

// NewRenderJob builds the job for rendering m with a template.
// The file name comes from the requested source, not the identity the
// metadata resolved to, so a repeat request can find the artifact before
// any canonical URL is known.
func NewRenderJob(requested Source, m Metadata, templateID int, isPremium bool) (RenderJob, error) {
	if templateID <= 0 {
		return RenderJob{}, ErrInvalidTemplateID
	}
	return RenderJob{
		Metadata:   m,
		TemplateID: templateID,
		IsPremium:  isPremium,
		FileName:   ArtifactFileName(requested.Identity(), templateID),
	}, nil
}

// Artifact is a stored rendered image.
type Artifact struct {
	FileName string
	URL      string
	Cached   bool // true when an existing object was reused
}

// ArtifactFileName returns the storage key for an identity and template:
// {tweetID}_{templateID}.png for tweets and {xxhash64(url)}_{templateID}.png for pages.
func ArtifactFileName(id Identity, templateID int) string {
	return fmt.Sprintf("%s_%d.png", SourceKey(id), templateID)
}

// SourceKey is the file-name-safe part of an identity.
func SourceKey(id Identity) string {
	if id.Kind == SourceTweet {
		return id.Value
	}
	return strconv.FormatUint(xxhash.Sum64String(id.Value), 16)
}

// PutOptions controls artifact writes.
type PutOptions struct {
	// Overwrite replaces an existing object; without it a second write conflicts.
	Overwrite bool
}
