package repository

import (
	"context"

	"student-connect/internal/domain"
)

// PostFilter narrows and pages a feed listing.
type PostFilter struct {
	Kind   domain.PostKind // empty = all kinds
	Search string          // empty = no text match
	Skip   int
	Limit  int
}

// PostRepository defines persistence operations for Post entities.
type PostRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, post *domain.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Post, error)
	List(ctx context.Context, filter PostFilter) ([]domain.Post, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]domain.Post, error)
}

// CommentRepository defines persistence operations for Comment entities.
type CommentRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, comment *domain.Comment) (int64, error)
	ListByPost(ctx context.Context, postID int64) ([]domain.Comment, error)
}
