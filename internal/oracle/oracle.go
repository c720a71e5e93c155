// Package oracle answers whether a platform account has an accepted
// submission for a problem. The contest engine only consumes it.
package oracle

import (
	"context"

	"github.com/ZJUSCT/CSArena/internal/database/models"
)

type Oracle interface {
	HasAcceptedSubmission(ctx context.Context, platform models.Platform, username, problem string) (bool, error)
}

// Trust accepts every claim made by a user with a platform handle.
type Trust struct{}

func (Trust) HasAcceptedSubmission(_ context.Context, _ models.Platform, username, _ string) (bool, error) {
	return username != "", nil
}

// Func adapts a function to the Oracle interface.
type Func func(ctx context.Context, platform models.Platform, username, problem string) (bool, error)

func (f Func) HasAcceptedSubmission(ctx context.Context, platform models.Platform, username, problem string) (bool, error) {
	return f(ctx, platform, username, problem)
}
