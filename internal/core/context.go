package core

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const ctxKeyOperator contextKey = "operator_id"

// ContextWithOperator records the authenticated operator on ctx.
func ContextWithOperator(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKeyOperator, id)
}

// OperatorFromContext returns the operator set by ContextWithOperator.
func OperatorFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxKeyOperator).(uuid.UUID)
	return id, ok
}
