package http

import (
	"strconv"
	"time"

	"student-connect/internal/domain"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type ProfileResponse struct {
	ID             string `json:"id"`
	Email          string `json:"email,omitempty"`
	Username       string `json:"username"`
	FullName       string `json:"full_name"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profile_picture"`
}

type PostResponse struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	PostType       string   `json:"post_type"`
	Tags           []string `json:"tags"`
	JobLink        *string  `json:"job_link"`
	FileURL        *string  `json:"file_url"`
	AuthorID       string   `json:"author_id"`
	AuthorUsername string   `json:"author_username"`
	AuthorName     string   `json:"author_name"`
	CreatedAt      string   `json:"created_at"`
}

type CommentResponse struct {
	ID             string `json:"id"`
	PostID         string `json:"post_id"`
	Content        string `json:"content"`
	AuthorID       string `json:"author_id"`
	AuthorUsername string `json:"author_username"`
	AuthorName     string `json:"author_name"`
	CreatedAt      string `json:"created_at"`
}

type PostDetailResponse struct {
	PostResponse
	Comments []CommentResponse `json:"comments"`
}

type UserPostsResponse struct {
	ProfileResponse
	Posts []PostResponse `json:"posts"`
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func userToProfile(user *domain.User, includeEmail bool) ProfileResponse {
	resp := ProfileResponse{
		ID:             formatID(user.ID),
		Username:       user.Username,
		FullName:       user.FullName,
		Bio:            user.Bio,
		ProfilePicture: user.AvatarURL,
	}
	if includeEmail {
		resp.Email = user.Email
	}
	return resp
}

func postToResponse(post domain.Post) PostResponse {
	return PostResponse{
		ID:             formatID(post.ID),
		Title:          post.Title,
		Content:        post.Content,
		PostType:       string(post.Kind),
		Tags:           post.Tags,
		JobLink:        post.JobLink,
		FileURL:        post.FileURL,
		AuthorID:       formatID(post.AuthorID),
		AuthorUsername: post.AuthorUsername,
		AuthorName:     post.AuthorName,
		CreatedAt:      post.CreatedAt.Format(time.RFC3339),
	}
}

func commentToResponse(comment domain.Comment) CommentResponse {
	return CommentResponse{
		ID:             formatID(comment.ID),
		PostID:         formatID(comment.PostID),
		Content:        comment.Content,
		AuthorID:       formatID(comment.AuthorID),
		AuthorUsername: comment.AuthorUsername,
		AuthorName:     comment.AuthorName,
		CreatedAt:      comment.CreatedAt.Format(time.RFC3339),
	}
}

func postDetailToResponse(post domain.Post, comments []domain.Comment) PostDetailResponse {
	resp := PostDetailResponse{
		PostResponse: postToResponse(post),
		Comments:     make([]CommentResponse, len(comments)),
	}
	for i := range comments {
		resp.Comments[i] = commentToResponse(comments[i])
	}
	return resp
}

func userPostsToResponse(user *domain.User, posts []domain.Post) UserPostsResponse {
	resp := UserPostsResponse{
		ProfileResponse: userToProfile(user, false),
		Posts:           make([]PostResponse, len(posts)),
	}
	for i := range posts {
		resp.Posts[i] = postToResponse(posts[i])
	}
	return resp
}
