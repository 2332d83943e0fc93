package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"student-connect/internal/domain"
	"student-connect/internal/mailer"
	"student-connect/internal/repository"
	"student-connect/internal/storage"
	"student-connect/internal/token"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserAlreadyExists is returned when registering with a taken email or username.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUsernameTaken is returned when a profile update collides with another user's name.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrUserNotFound is returned when a looked-up user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidSession indicates a missing, expired or wrong-purpose bearer token.
	ErrInvalidSession = errors.New("invalid session")
	// ErrNotAnImage is returned when an avatar upload has a non-image content type.
	ErrNotAnImage = errors.New("file must be an image")
	// ErrEmailSendFailed is returned when the reset email could not be delivered.
	ErrEmailSendFailed = errors.New("failed to send email")
	// ErrUploadFailed is returned when the media store rejects an upload.
	ErrUploadFailed = errors.New("upload failed")
)

// ProfileUpdate is a partial patch. Nil fields are left untouched; a non-nil
// empty string is written as empty.
type ProfileUpdate struct {
	FullName *string
	Bio      *string
	Username *string
}

// UserService covers registration, login, sessions, profile management and the
// password-reset flow.
type UserService interface {
	Register(ctx context.Context, email, username, password, fullName string) (string, error)
	Authenticate(ctx context.Context, email, password string) (string, error)
	CurrentUser(ctx context.Context, bearerToken string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID int64, patch ProfileUpdate) error
	SetAvatar(ctx context.Context, user *domain.User, data io.Reader, contentType string) (string, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
}

type userService struct {
	users      repository.UserRepository
	tokens     *token.Service
	media      storage.Service
	mail       mailer.Sender
	sessionTTL time.Duration
	resetTTL   time.Duration
	resetBase  string
}

func NewUserService(
	users repository.UserRepository,
	tokens *token.Service,
	media storage.Service,
	mail mailer.Sender,
	sessionTTL, resetTTL time.Duration,
	resetLinkBaseURL string,
) UserService {
	return &userService{
		users:      users,
		tokens:     tokens,
		media:      media,
		mail:       mail,
		sessionTTL: sessionTTL,
		resetTTL:   resetTTL,
		resetBase:  strings.TrimSuffix(resetLinkBaseURL, "/"),
	}
}

func (s *userService) Register(ctx context.Context, email, username, password, fullName string) (string, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	fullName = strings.TrimSpace(fullName)

	if email == "" {
		return "", errors.New("email is required")
	}
	if username == "" {
		return "", errors.New("username is required")
	}
	if password == "" {
		return "", errors.New("password is required")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return "", ErrUserAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return "", ErrUserAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		FullName:     fullName,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		// The unique indexes backstop the pre-checks under concurrent registration.
		if errors.Is(err, repository.ErrDuplicate) {
			return "", ErrUserAlreadyExists
		}
		return "", err
	}

	return s.tokens.Issue(user.Email, "", s.sessionTTL)
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Issue(user.Email, "", s.sessionTTL)
}

func (s *userService) CurrentUser(ctx context.Context, bearerToken string) (*domain.User, error) {
	claims, err := s.tokens.Verify(bearerToken)
	if err != nil {
		return nil, ErrInvalidSession
	}
	// Reset tokens must not open a session.
	if claims.Purpose != "" {
		return nil, ErrInvalidSession
	}

	user, err := s.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int64, patch ProfileUpdate) error {
	if patch.Username != nil {
		other, err := s.users.GetByUsername(ctx, *patch.Username)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if err == nil && other.ID != userID {
			return ErrUsernameTaken
		}
	}

	err := s.users.UpdateProfile(ctx, userID, repository.ProfilePatch{
		FullName: patch.FullName,
		Bio:      patch.Bio,
		Username: patch.Username,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return ErrUsernameTaken
	}
	return err
}

func (s *userService) SetAvatar(ctx context.Context, user *domain.User, data io.Reader, contentType string) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrNotAnImage
	}

	// Stable per-user key so repeated uploads overwrite rather than accumulate.
	key := fmt.Sprintf("profile_pictures/user_%d", user.ID)
	url, err := s.media.UploadObject(ctx, key, data, contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	if err := s.users.UpdateAvatarURL(ctx, user.ID, url); err != nil {
		return "", err
	}
	return url, nil
}

func (s *userService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	resetToken, err := s.tokens.Issue(user.Email, token.PurposeReset, s.resetTTL)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	resetLink := s.resetBase + "/reset-password?token=" + resetToken
	body := fmt.Sprintf(`
	<h2>Password Reset Request</h2>
	<p>Click the link below to reset your password:</p>
	<a href="%s">Reset Password</a>
	<p>This link will expire in 1 hour.</p>
	`, resetLink)

	if !s.mail.Send(user.Email, "Password Reset", body) {
		return ErrEmailSendFailed
	}
	return nil
}

func (s *userService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	claims, err := s.tokens.Verify(resetToken)
	if err != nil {
		return ErrInvalidSession
	}
	if claims.Purpose != token.PurposeReset {
		return ErrInvalidSession
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.users.UpdatePasswordHash(ctx, claims.Subject, string(hash))
}
