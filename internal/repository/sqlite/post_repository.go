package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"student-connect/internal/domain"
	"student-connect/internal/repository"
)

const createPostsTable = `
CREATE TABLE IF NOT EXISTS posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	kind TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '',
	job_link TEXT NULL,
	file_url TEXT NULL,
	author_id INTEGER NOT NULL,
	author_username TEXT NOT NULL,
	author_name TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`

type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) repository.PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createPostsTable); err != nil {
		return fmt.Errorf("create posts table: %w", err)
	}
	return nil
}

func (r *PostRepository) Create(ctx context.Context, post *domain.Post) (int64, error) {
	post.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO posts (title, content, kind, tags, job_link, file_url, author_id, author_username, author_name, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.Title,
		post.Content,
		string(post.Kind),
		joinTags(post.Tags),
		post.JobLink,
		post.FileURL,
		post.AuthorID,
		post.AuthorUsername,
		post.AuthorName,
		post.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("post last insert id: %w", err)
	}
	post.ID = id
	return id, nil
}

const selectPostColumns = `id, title, content, kind, tags, job_link, file_url, author_id, author_username, author_name, created_at`

func (r *PostRepository) GetByID(ctx context.Context, id int64) (*domain.Post, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+selectPostColumns+`
FROM posts
WHERE id = ?`,
		id,
	)
	post, err := scanPost(row)
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (r *PostRepository) List(ctx context.Context, filter repository.PostFilter) ([]domain.Post, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.Search != "" {
		conds = append(conds, "(title LIKE ? OR tags LIKE ? OR author_username LIKE ? OR author_name LIKE ?)")
		needle := "%" + filter.Search + "%"
		args = append(args, needle, needle, needle, needle)
	}

	query := `SELECT ` + selectPostColumns + ` FROM posts`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Skip)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

func (r *PostRepository) ListByAuthor(ctx context.Context, authorID int64) ([]domain.Post, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+selectPostColumns+`
FROM posts
WHERE author_id = ?
ORDER BY created_at DESC, id DESC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list posts by author: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

func collectPosts(rows *sql.Rows) ([]domain.Post, error) {
	posts := []domain.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

func scanPost(row interface {
	Scan(dest ...any) error
}) (*domain.Post, error) {
	var (
		post    domain.Post
		kind    string
		tags    string
		jobLink sql.NullString
		fileURL sql.NullString
	)
	if err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&kind,
		&tags,
		&jobLink,
		&fileURL,
		&post.AuthorID,
		&post.AuthorUsername,
		&post.AuthorName,
		&post.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("post: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}
	post.Kind = domain.PostKind(kind)
	post.Tags = splitTags(tags)
	if jobLink.Valid {
		post.JobLink = &jobLink.String
	}
	if fileURL.Valid {
		post.FileURL = &fileURL.String
	}
	return &post, nil
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(tags string) []string {
	if tags == "" {
		return []string{}
	}
	return strings.Split(tags, ",")
}
