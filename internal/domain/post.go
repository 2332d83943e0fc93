package domain

import "time"

// PostKind classifies a post on the feed.
type PostKind string

const (
	PostKindNotes   PostKind = "notes"
	PostKindJobs    PostKind = "jobs"
	PostKindThreads PostKind = "threads"
)

// ValidPostKind reports whether k is one of the known post kinds.
func ValidPostKind(k PostKind) bool {
	switch k {
	case PostKindNotes, PostKindJobs, PostKindThreads:
		return true
	}
	return false
}

// Post is a feed entry. Author fields are a snapshot taken at creation time
// and do not follow later profile edits.
type Post struct {
	ID             int64
	Title          string
	Content        string
	Kind           PostKind
	Tags           []string
	JobLink        *string
	FileURL        *string
	AuthorID       int64
	AuthorUsername string
	AuthorName     string
	CreatedAt      time.Time
}

// Comment belongs to exactly one post. Author fields are snapshotted like on Post.
type Comment struct {
	ID             int64
	PostID         int64
	Content        string
	AuthorID       int64
	AuthorUsername string
	AuthorName     string
	CreatedAt      time.Time
}
