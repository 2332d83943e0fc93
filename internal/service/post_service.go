package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"student-connect/internal/domain"
	"student-connect/internal/repository"
	"student-connect/internal/storage"
)

var (
	// ErrPostNotFound is returned when a post id does not exist.
	ErrPostNotFound = errors.New("post not found")
	// ErrInvalidPostKind is returned for post kinds outside the fixed set.
	ErrInvalidPostKind = errors.New("invalid post type")
)

const defaultPostPageSize = 20

// Attachment is an optional file uploaded alongside a post.
type Attachment struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

// CreatePostInput carries the multipart form fields of a new post.
type CreatePostInput struct {
	Title      string
	Content    string
	Kind       string
	TagsRaw    string
	JobLink    string
	Attachment *Attachment
}

// PostService covers the feed: posts, comments, search and per-user listings.
type PostService interface {
	CreatePost(ctx context.Context, author *domain.User, input CreatePostInput) (*domain.Post, error)
	ListPosts(ctx context.Context, kind, search string, skip, limit int) ([]domain.Post, error)
	GetPost(ctx context.Context, id int64) (*domain.Post, []domain.Comment, error)
	AddComment(ctx context.Context, postID int64, author *domain.User, content string) (*domain.Comment, error)
	ListUserPosts(ctx context.Context, username string) (*domain.User, []domain.Post, error)
}

type postService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	users    repository.UserRepository
	media    storage.Service
}

func NewPostService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	users repository.UserRepository,
	media storage.Service,
) PostService {
	return &postService{
		posts:    posts,
		comments: comments,
		users:    users,
		media:    media,
	}
}

func (s *postService) CreatePost(ctx context.Context, author *domain.User, input CreatePostInput) (*domain.Post, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errors.New("title is required")
	}
	kind := domain.PostKind(input.Kind)
	if !domain.ValidPostKind(kind) {
		return nil, ErrInvalidPostKind
	}

	post := &domain.Post{
		Title:          title,
		Content:        input.Content,
		Kind:           kind,
		Tags:           splitTagsRaw(input.TagsRaw),
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		AuthorName:     author.FullName,
	}
	if link := strings.TrimSpace(input.JobLink); link != "" {
		post.JobLink = &link
	}

	// Attachments only apply to notes; for other kinds they are silently ignored.
	if input.Attachment != nil && kind == domain.PostKindNotes {
		key := "documents/" + uuid.New().String() + filepath.Ext(input.Attachment.Filename)
		url, err := s.media.UploadObject(ctx, key, input.Attachment.Data, input.Attachment.ContentType)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		post.FileURL = &url
	}

	if _, err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) ListPosts(ctx context.Context, kind, search string, skip, limit int) ([]domain.Post, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultPostPageSize
	}
	return s.posts.List(ctx, repository.PostFilter{
		Kind:   domain.PostKind(kind),
		Search: search,
		Skip:   skip,
		Limit:  limit,
	})
}

func (s *postService) GetPost(ctx context.Context, id int64) (*domain.Post, []domain.Comment, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrPostNotFound
		}
		return nil, nil, err
	}

	comments, err := s.comments.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, nil, err
	}
	return post, comments, nil
}

func (s *postService) AddComment(ctx context.Context, postID int64, author *domain.User, content string) (*domain.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("content is required")
	}

	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	comment := &domain.Comment{
		PostID:         postID,
		Content:        content,
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		AuthorName:     author.FullName,
	}
	if _, err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *postService) ListUserPosts(ctx context.Context, username string) (*domain.User, []domain.Post, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}

	posts, err := s.posts.ListByAuthor(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, posts, nil
}

// splitTagsRaw turns a comma-separated form value into a tag list. An empty
// string yields an empty list, not [""].
func splitTagsRaw(raw string) []string {
	if raw == "" {
		return []string{}
	}
	return strings.Split(raw, ",")
}
