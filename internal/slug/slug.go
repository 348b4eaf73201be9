// Package slug builds URL slugs for public case study pages.
package slug

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

const maxLength = 60

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// ErrExhausted is returned when every candidate within the attempt bound is
// taken.
var ErrExhausted = errors.New("no free slug within attempt limit")

// Generate lower-cases s, collapses runs of non-alphanumeric characters to a
// single hyphen, trims hyphens at both ends and truncates to 60 characters.
func Generate(s string) string {
	out := nonAlphanumeric.ReplaceAllString(strings.ToLower(s), "-")
	out = strings.Trim(out, "-")
	if len(out) > maxLength {
		out = out[:maxLength]
	}
	return out
}

// TakenFunc reports whether candidate belongs to a record other than the one
// being published.
type TakenFunc func(ctx context.Context, candidate string) (bool, error)

// Unique probes base, base-1, base-2, ... and returns the first candidate
// that is not taken. At most maxAttempts candidates are tried.
func Unique(ctx context.Context, base string, maxAttempts int, taken TakenFunc) (string, error) {
	candidate := base
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			candidate = base + "-" + strconv.Itoa(i)
		}
		used, err := taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
	}
	return "", ErrExhausted
}
