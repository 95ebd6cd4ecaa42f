package shared

import "context"

// Specification encapsulates a query-side business rule over one entity
// type. Repositories use specifications for in-memory filtering; the SQL
// repositories express the same rules directly in their queries.
type Specification[T any] interface {
	IsSatisfiedBy(ctx context.Context, entity T) bool
}

// AndSpecification is the logical AND of two specifications.
type AndSpecification[T any] struct {
	Left  Specification[T]
	Right Specification[T]
}

func (spec AndSpecification[T]) IsSatisfiedBy(ctx context.Context, entity T) bool {
	return spec.Left.IsSatisfiedBy(ctx, entity) && spec.Right.IsSatisfiedBy(ctx, entity)
}

// And composes two specifications with logical AND.
func And[T any](left, right Specification[T]) Specification[T] {
	return AndSpecification[T]{Left: left, Right: right}
}

// OrSpecification is the logical OR of two specifications.
type OrSpecification[T any] struct {
	Left  Specification[T]
	Right Specification[T]
}

func (spec OrSpecification[T]) IsSatisfiedBy(ctx context.Context, entity T) bool {
	return spec.Left.IsSatisfiedBy(ctx, entity) || spec.Right.IsSatisfiedBy(ctx, entity)
}

// Or composes two specifications with logical OR.
func Or[T any](left, right Specification[T]) Specification[T] {
	return OrSpecification[T]{Left: left, Right: right}
}

// NotSpecification negates a specification.
type NotSpecification[T any] struct {
	Spec Specification[T]
}

func (spec NotSpecification[T]) IsSatisfiedBy(ctx context.Context, entity T) bool {
	return !spec.Spec.IsSatisfiedBy(ctx, entity)
}

// Not negates a specification.
func Not[T any](inner Specification[T]) Specification[T] {
	return NotSpecification[T]{Spec: inner}
}
