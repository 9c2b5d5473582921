package action

import (
	"context"

	"go.uber.org/zap"
)

// Runner is an operation on GitHub that can be executed repeatedly.
type Runner interface {
	Run(ctx context.Context) error
	String() string
	LogFields() []zap.Field
}
