// Package cache memoizes rendered analytics responses for a fixed TTL.
package cache

import (
	"context"
	"strings"
	"time"
)

// Entry is a stored HTTP result.
type Entry struct {
	Body        []byte `json:"body"`
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
}

// Cache is the Result Cache backend. Get reports a miss with ok=false and a
// nil error; a non-nil error means the backend could not be reached.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, e Entry, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	Close() error
}

const DefaultPrefix = "survey_api:"

// Key derives the cache key of a request from its path and raw query.
func Key(prefix, path, rawQuery string) string {
	var b strings.Builder
	b.Grow(len(prefix) + len(path) + len(rawQuery) + 1)
	b.WriteString(prefix)
	b.WriteString(path)
	b.WriteByte('?')
	b.WriteString(rawQuery)
	return b.String()
}

// SurveyPrefix is the key prefix shared by every cached route of one survey.
func SurveyPrefix(prefix, surveyID string) string {
	return prefix + "/api/surveys/" + surveyID + "/"
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) (Entry, bool, error) { return Entry{}, false, nil }
func (Noop) Set(context.Context, string, Entry, time.Duration) error { return nil }
func (Noop) DeletePrefix(context.Context, string) (int, error) { return 0, nil }
func (Noop) Close() error { return nil }
