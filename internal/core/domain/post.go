package domain

import "time"

// RawPost is a captured social-feed post as produced by the external scraper.
// It only lives for the duration of one ingestion pass.
type RawPost struct {
	// Content is the post body, possibly followed by UI chrome and replies.
	Content string `json:"content"`

	// Author is the display name of the poster. May be empty.
	Author string `json:"author,omitempty"`

	// Images are image URLs attached to the post, in display order.
	Images []string `json:"images,omitempty"`

	// URL uniquely identifies the post.
	URL string `json:"url"`

	// GroupName is the feed group the post was captured from.
	GroupName string `json:"groupName,omitempty"`

	// ScannedAt is when the post was captured.
	ScannedAt time.Time `json:"scannedAt"`
}

// Validate checks the fields the pipeline cannot run without.
func (p RawPost) Validate() error {
	if p.URL == "" {
		return ErrInvalidInput
	}
	return nil
}
