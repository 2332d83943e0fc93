package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"student-connect/internal/repository/sqlite"
	"student-connect/internal/service"
	"student-connect/internal/token"
)

type fakeMedia struct {
	fail bool
}

func (f *fakeMedia) UploadObject(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	if f.fail {
		return "", errors.New("media store down")
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	return "https://media.test/" + key, nil
}

type fakeMailer struct {
	ok bool
}

func (f *fakeMailer) Send(to, subject, htmlBody string) bool {
	return f.ok
}

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	userRepo := sqlite.NewUserRepository(db)
	postRepo := sqlite.NewPostRepository(db)
	commentRepo := sqlite.NewCommentRepository(db)
	require.NoError(t, userRepo.Init(ctx))
	require.NoError(t, postRepo.Init(ctx))
	require.NoError(t, commentRepo.Init(ctx))

	media := &fakeMedia{}
	tokens := token.NewService("test-secret")
	users := service.NewUserService(userRepo, tokens, media, &fakeMailer{ok: true}, 30*time.Minute, time.Hour, "http://localhost:5173")
	posts := service.NewPostService(postRepo, commentRepo, userRepo, media)

	router := gin.New()
	NewHandler(users, posts).RegisterRoutes(router)
	return router
}

func doJSON(router *gin.Engine, method, path, bearer string, payload any) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func registerUser(t *testing.T, router *gin.Engine, email, username, fullName string) string {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": email, "username": username, "password": "hunter22", "full_name": fullName,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	require.Equal(t, "bearer", body["token_type"])
	return body["access_token"].(string)
}

func multipartBody(t *testing.T, fields map[string]string, filename, contentType, fileContent string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if filename != "" {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = io.Copy(part, strings.NewReader(fileContent))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

func doMultipart(router *gin.Engine, path, bearer string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRootAndHealth(t *testing.T) {
	router := newTestServer(t)

	w := doJSON(router, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Student Connect API", decodeBody(t, w)["message"])

	w = doJSON(router, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterConflictsAndLogin(t *testing.T) {
	router := newTestServer(t)
	registerUser(t, router, "a@example.com", "alice", "Alice Smith")

	w := doJSON(router, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "a@example.com", "username": "alice2", "password": "x", "full_name": "Dup",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(router, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "a2@example.com", "username": "alice", "password": "x", "full_name": "Dup",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(router, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "a@example.com", "password": "hunter22",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "a@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerAuthRequired(t *testing.T) {
	router := newTestServer(t)

	w := doJSON(router, http.MethodGet, "/api/user/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodGet, "/api/user/profile", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfileGetAndUpdate(t *testing.T) {
	router := newTestServer(t)
	aliceToken := registerUser(t, router, "a@example.com", "alice", "Alice Smith")
	registerUser(t, router, "b@example.com", "bob", "Bob Jones")

	w := doJSON(router, http.MethodGet, "/api/user/profile", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "a@example.com", body["email"])
	assert.Equal(t, "", body["bio"])
	_, hasHash := body["password_hash"]
	assert.False(t, hasHash)

	w = doJSON(router, http.MethodPut, "/api/user/profile", aliceToken, gin.H{"bio": "hey there"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/user/profile", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, "hey there", body["bio"])
	assert.Equal(t, "Alice Smith", body["full_name"]) // untouched by the patch

	w = doJSON(router, http.MethodPut, "/api/user/profile", aliceToken, gin.H{"username": "bob"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUploadProfilePicture(t *testing.T) {
	router := newTestServer(t)
	aliceToken := registerUser(t, router, "a@example.com", "alice", "Alice Smith")

	body, contentType := multipartBody(t, nil, "me.png", "image/png", "png-bytes")
	w := doMultipart(router, "/api/upload/profile-picture", aliceToken, body, contentType)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, decodeBody(t, w)["url"], "profile_pictures/")

	body, contentType = multipartBody(t, nil, "notes.txt", "text/plain", "not an image")
	w = doMultipart(router, "/api/upload/profile-picture", aliceToken, body, contentType)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostLifecycle(t *testing.T) {
	router := newTestServer(t)
	aliceToken := registerUser(t, router, "a@example.com", "alice", "Alice Smith")
	bobToken := registerUser(t, router, "b@example.com", "bob", "Bob Jones")

	// Alice creates a notes post with an attachment.
	body, contentType := multipartBody(t, map[string]string{
		"title":     "Compilers lecture notes",
		"content":   "week 3",
		"post_type": "notes",
		"tags":      "cs,compilers",
	}, "week3.pdf", "application/pdf", "pdf-bytes")
	w := doMultipart(router, "/api/posts", aliceToken, body, contentType)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody(t, w)
	postID := created["id"].(string)
	assert.Equal(t, []any{"cs", "compilers"}, created["tags"])
	assert.Contains(t, created["file_url"], "documents/")

	// Public fetch: attachment URL present, no comments yet.
	w = doJSON(router, http.MethodGet, "/api/posts/"+postID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	fetched := decodeBody(t, w)
	assert.Contains(t, fetched["file_url"], "documents/")
	assert.Equal(t, []any{}, fetched["comments"])
	assert.Equal(t, "alice", fetched["author_username"])

	// Bob comments; the comment carries his snapshot.
	w = doJSON(router, http.MethodPost, "/api/posts/"+postID+"/comments", bobToken, gin.H{"content": "thanks!"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(router, http.MethodGet, "/api/posts/"+postID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	fetched = decodeBody(t, w)
	comments := fetched["comments"].([]any)
	require.Len(t, comments, 1)
	comment := comments[0].(map[string]any)
	assert.Equal(t, "thanks!", comment["content"])
	assert.Equal(t, "bob", comment["author_username"])
	assert.Equal(t, "Bob Jones", comment["author_name"])

	// Anonymous users cannot comment.
	w = doJSON(router, http.MethodPost, "/api/posts/"+postID+"/comments", "", gin.H{"content": "drive-by"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetPostInvalidAndMissingID(t *testing.T) {
	router := newTestServer(t)

	w := doJSON(router, http.MethodGet, "/api/posts/not-a-number", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodGet, "/api/posts/987654", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListPostsFilterAndSearch(t *testing.T) {
	router := newTestServer(t)
	aliceToken := registerUser(t, router, "a@example.com", "alice", "Alice Smith")

	for _, p := range []struct{ title, kind string }{
		{"Compilers lecture notes", "notes"},
		{"Backend internship", "jobs"},
		{"Study group?", "threads"},
	} {
		body, contentType := multipartBody(t, map[string]string{
			"title": p.title, "content": "x", "post_type": p.kind,
		}, "", "", "")
		w := doMultipart(router, "/api/posts", aliceToken, body, contentType)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := doJSON(router, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 3)
	assert.Equal(t, "Study group?", list[0]["title"]) // newest first

	w = doJSON(router, http.MethodGet, "/api/posts?post_type=jobs", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Backend internship", list[0]["title"])

	w = doJSON(router, http.MethodGet, "/api/posts?search=compilers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)

	w = doJSON(router, http.MethodGet, "/api/posts?skip=1&limit=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Backend internship", list[0]["title"])
}

func TestCreatePostRejectsUnknownKindOverHTTP(t *testing.T) {
	router := newTestServer(t)
	aliceToken := registerUser(t, router, "a@example.com", "alice", "Alice Smith")

	body, contentType := multipartBody(t, map[string]string{
		"title": "t", "content": "x", "post_type": "poems",
	}, "", "", "")
	w := doMultipart(router, "/api/posts", aliceToken, body, contentType)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserPostsPage(t *testing.T) {
	router := newTestServer(t)
	aliceToken := registerUser(t, router, "a@example.com", "alice", "Alice Smith")

	body, contentType := multipartBody(t, map[string]string{
		"title": "hello", "content": "x", "post_type": "threads",
	}, "", "", "")
	w := doMultipart(router, "/api/posts", aliceToken, body, contentType)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, http.MethodGet, "/api/user/alice", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decodeBody(t, w)
	assert.Equal(t, "alice", page["username"])
	_, hasEmail := page["email"]
	assert.False(t, hasEmail) // public page hides the email
	posts := page["posts"].([]any)
	require.Len(t, posts, 1)

	w = doJSON(router, http.MethodGet, "/api/user/ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResetPasswordFlowOverHTTP(t *testing.T) {
	router := newTestServer(t)
	registerUser(t, router, "a@example.com", "alice", "Alice Smith")

	w := doJSON(router, http.MethodPost, "/api/auth/forgot-password", "", gin.H{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodPost, "/api/auth/forgot-password", "", gin.H{"email": "a@example.com"})
	assert.Equal(t, http.StatusOK, w.Code)

	resetToken, err := token.NewService("test-secret").Issue("a@example.com", token.PurposeReset, time.Hour)
	require.NoError(t, err)

	w = doJSON(router, http.MethodPost, "/api/auth/reset-password", "", gin.H{
		"token": resetToken, "new_password": "brand-new",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(router, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "a@example.com", "password": "brand-new",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// A session token is not accepted by the reset endpoint.
	sessionToken := registerUser(t, router, "b@example.com", "bob", "Bob Jones")
	w = doJSON(router, http.MethodPost, "/api/auth/reset-password", "", gin.H{
		"token": sessionToken, "new_password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
