package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"student-connect/internal/domain"
	"student-connect/internal/service"
)

const currentUserKey = "currentUser"

// Handler wires HTTP routes to domain services.
type Handler struct {
	users service.UserService
	posts service.PostService
}

func NewHandler(users service.UserService, posts service.PostService) *Handler {
	return &Handler{
		users: users,
		posts: posts,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	router.Use(cors.New(corsCfg))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Student Connect API"})
	})

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)
		api.POST("/auth/forgot-password", h.forgotPassword)
		api.POST("/auth/reset-password", h.resetPassword)

		api.GET("/user/profile", h.requireAuth, h.getProfile)
		api.PUT("/user/profile", h.requireAuth, h.updateProfile)
		api.POST("/upload/profile-picture", h.requireAuth, h.uploadProfilePicture)

		api.POST("/posts", h.requireAuth, h.createPost)
		api.GET("/posts", h.listPosts)
		api.GET("/posts/:id", h.getPost)
		api.POST("/posts/:id/comments", h.requireAuth, h.addComment)

		api.GET("/user/:username", h.getUserPosts)
	}
}

// requireAuth resolves the bearer token to a user and aborts with 401 on any failure.
func (h *Handler) requireAuth(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	user, err := h.users.CurrentUser(c.Request.Context(), parts[1])
	if err != nil {
		if errors.Is(err, service.ErrInvalidSession) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Set(currentUserKey, user)
	c.Next()
}

func currentUser(c *gin.Context) *domain.User {
	return c.MustGet(currentUserKey).(*domain.User)
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accessToken, err := h.users.Register(c.Request.Context(), req.Email, req.Username, req.Password, req.FullName)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, tokenResponse{AccessToken: accessToken, TokenType: "bearer"})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accessToken, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, tokenResponse{AccessToken: accessToken, TokenType: "bearer"})
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *Handler) forgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.users.ForgotPassword(c.Request.Context(), req.Email)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Reset link sent to email"})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, service.ErrEmailSendFailed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to send email"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.users.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidSession) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}

func (h *Handler) getProfile(c *gin.Context) {
	c.JSON(http.StatusOK, userToProfile(currentUser(c), true))
}

type updateProfileRequest struct {
	FullName *string `json:"full_name"`
	Bio      *string `json:"bio"`
	Username *string `json:"username"`
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.users.UpdateProfile(c.Request.Context(), currentUser(c).ID, service.ProfileUpdate{
		FullName: req.FullName,
		Bio:      req.Bio,
		Username: req.Username,
	})
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}

func (h *Handler) uploadProfilePicture(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	url, err := h.users.SetAvatar(c.Request.Context(), currentUser(c), file, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotAnImage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "file must be an image"})
		case errors.Is(err, service.ErrUploadFailed):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "upload failed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *Handler) createPost(c *gin.Context) {
	input := service.CreatePostInput{
		Title:   c.PostForm("title"),
		Content: c.PostForm("content"),
		Kind:    c.PostForm("post_type"),
		TagsRaw: c.PostForm("tags"),
		JobLink: c.PostForm("job_link"),
	}

	if fileHeader, err := c.FormFile("file"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer file.Close()
		input.Attachment = &service.Attachment{
			Filename:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Data:        file,
		}
	}

	post, err := h.posts.CreatePost(c.Request.Context(), currentUser(c), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPostKind):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post type"})
		case errors.Is(err, service.ErrUploadFailed):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "file upload failed"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, postToResponse(*post))
}

func (h *Handler) listPosts(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	posts, err := h.posts.ListPosts(c.Request.Context(), c.Query("post_type"), c.Query("search"), skip, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]PostResponse, len(posts))
	for i := range posts {
		resp[i] = postToResponse(posts[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getPost(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	post, comments, err := h.posts.GetPost(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, postDetailToResponse(*post, comments))
}

type addCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *Handler) addComment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.posts.AddComment(c.Request.Context(), id, currentUser(c), req.Content)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, commentToResponse(*comment))
}

func (h *Handler) getUserPosts(c *gin.Context) {
	user, posts, err := h.posts.ListUserPosts(c.Request.Context(), c.Param("username"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, userPostsToResponse(user, posts))
}
