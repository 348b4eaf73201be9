package models

import "errors"

var (
	// ErrStatusConflict means a conditional status write found the row in an
	// unexpected status.
	ErrStatusConflict = errors.New("project status changed concurrently")
	// ErrInvalidTransition means the pipeline never moves a project between
	// the two statuses.
	ErrInvalidTransition = errors.New("invalid project status transition")
	// ErrSlugTaken means another published case study holds the slug.
	ErrSlugTaken = errors.New("slug already taken")
)
