package download_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/MdMeraj01/youtube-downloader/internal/download"
	"github.com/stretchr/testify/assert"
)

func Test_Classify_KnownFailureSignals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		summary  string
		failure  string
		expected download.Category
	}{
		{"http 429", "HTTP Error 429", download.RateLimited},
		{"too many requests", "Too Many Requests, slow down", download.RateLimited},
		{"sign in", "Sign in to confirm your age", download.AccessRestricted},
		{"bot detection", "Sign in to confirm you're not a bot", download.AccessRestricted},
		{"login required", "login required to view this content", download.AccessRestricted},
		{"private", "This video is private", download.Unavailable},
		{"removed", "content removed by the uploader", download.Unavailable},
		{"unavailable", "Video unavailable", download.Unavailable},
		{"unmatched", "socket timeout after 30s", download.UnknownProviderFailure},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			classified := download.Classify(errors.New(tt.failure))
			assert.Equal(t, tt.expected, classified.Category)
		})
	}
}

func Test_Classify_PassesThroughClassifiedErrors(t *testing.T) {
	t.Parallel()

	original := &download.Error{Category: download.LocalIOFailure, Message: "artifact gone"}
	assert.Same(t, original, download.Classify(original))
}

func Test_Category_StatusCodesAreDistinct(t *testing.T) {
	t.Parallel()

	categories := []download.Category{
		download.InvalidInput,
		download.RateLimited,
		download.AccessRestricted,
		download.Unavailable,
		download.UnknownProviderFailure,
		download.LocalIOFailure,
	}

	seen := make(map[int]struct{})
	for _, category := range categories {
		code := category.StatusCode()
		_, dup := seen[code]
		assert.False(t, dup, "status code %d used by more than one category", code)
		seen[code] = struct{}{}
	}

	assert.Equal(t, http.StatusTooManyRequests, download.RateLimited.StatusCode())
	assert.Equal(t, http.StatusBadRequest, download.InvalidInput.StatusCode())
}

func Test_ParsePercent_NeverFails(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text     string
		expected float64
	}{
		{"42.5%", 42.5},
		{" 99.9% ", 99.9},
		{"100%", 100},
		{"", 0},
		{"N/A", 0},
		{"%", 0},
		{"garbage%", 0},
		{"-12%", 0},
		{"250%", 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, download.ParsePercent(tt.text), "input %q", tt.text)
	}
}
