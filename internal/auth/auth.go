// Package auth carries the authenticated user identifier through a
// context. Issuing sessions is the job of whatever sits in front of the
// planner; everything downstream only needs the id.
package auth

import (
	"context"
	"errors"
	"strings"
)

// ErrAuthRequired is returned when no authenticated user is present.
var ErrAuthRequired = errors.New("authentication required")

type userKey struct{}

// WithUser returns a context carrying userID.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, strings.TrimSpace(userID))
}

// UserFrom returns the user carried by ctx, or ErrAuthRequired.
func UserFrom(ctx context.Context) (string, error) {
	id, _ := ctx.Value(userKey{}).(string)
	if id == "" {
		return "", ErrAuthRequired
	}
	return id, nil
}
