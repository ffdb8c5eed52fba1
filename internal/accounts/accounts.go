// Package accounts manages users: registration with e-mail verification,
// password login, profiles and capability grants.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storefront/internal/models"
)

const (
	minPasswordLen = 8
	// bcrypt rejects longer input.
	maxPasswordLen = 72
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", minPasswordLen)
	ErrLongPassword       = fmt.Errorf("password must be at most %d bytes", maxPasswordLen)
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveUser       = errors.New("user is not active")
	ErrInvalidToken       = errors.New("invalid verification token")
)

// Repository is the user storage. Users are returned with their permissions.
type Repository interface {
	FindUser(ctx context.Context, id uint) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByToken(ctx context.Context, token string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	SaveUser(ctx context.Context, u *models.User) error
	// GrantPermissions attaches permissions by codename; unknown codenames are an error.
	GrantPermissions(ctx context.Context, userID uint, codenames ...string) error
	// DeleteUser removes the user. Products it owned are kept with no owner.
	DeleteUser(ctx context.Context, id uint) error
}

type Service struct {
	repo     Repository
	log      zerolog.Logger
	newToken func() string
	// verifyURL prefixes the logged verification links.
	verifyURL string
}

type Option func(*Service)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithTokenGenerator replaces the uuid token source.
func WithTokenGenerator(fn func() string) Option {
	return func(s *Service) { s.newToken = fn }
}

func WithVerifyURL(prefix string) Option {
	return func(s *Service) { s.verifyURL = strings.TrimSuffix(prefix, "/") }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		log:       zerolog.Nop(),
		newToken:  func() string { return uuid.NewString() },
		verifyURL: "/users/verify",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// Register creates an inactive user holding a verification token.
func (s *Service) Register(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.newUser(ctx, email, password)
	if err != nil {
		return nil, err
	}
	token := s.newToken()
	u.Token = &token
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	// No mailer is wired; the link goes to the log.
	s.log.Info().Uint("user_id", u.ID).Str("email", u.Email).
		Str("verify_url", s.verifyURL+"/"+token).Msg("verification link issued")
	return u, nil
}

// Verify activates the user owning token and clears it.
func (s *Service) Verify(ctx context.Context, token string) (*models.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidToken
	}
	u, err := s.repo.FindUserByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	u.IsActive = true
	u.Token = nil
	if err := s.repo.SaveUser(ctx, u); err != nil {
		return nil, fmt.Errorf("activate user: %w", err)
	}
	return u, nil
}

// Authenticate checks the password of an active user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !models.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}
	return u, nil
}

// CurrentUser reloads the session user with its permissions.
func (s *Service) CurrentUser(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.repo.FindUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}
	return u, nil
}

// ProfilePatch holds optional profile fields; Avatar is an asset reference.
type ProfilePatch struct {
	Phone   *string
	Country *string
	Avatar  *string
}

func (s *Service) UpdateProfile(ctx context.Context, id uint, patch ProfilePatch) (*models.User, error) {
	u, err := s.repo.FindUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Phone != nil {
		u.Phone = truncate(strings.TrimSpace(*patch.Phone), 35)
	}
	if patch.Country != nil {
		u.Country = truncate(strings.TrimSpace(*patch.Country), 70)
	}
	if patch.Avatar != nil {
		u.Avatar = *patch.Avatar
	}
	if err := s.repo.SaveUser(ctx, u); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return u, nil
}

// CreateSuperuser creates an active staff superuser.
func (s *Service) CreateSuperuser(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.newUser(ctx, email, password)
	if err != nil {
		return nil, err
	}
	u.IsActive = true
	u.IsStaff = true
	u.IsSuperuser = true
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create superuser: %w", err)
	}
	return u, nil
}

// GrantModerator gives the user every capability needed for limited product edits.
func (s *Service) GrantModerator(ctx context.Context, email string) (*models.User, error) {
	u, err := s.repo.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if err := s.repo.GrantPermissions(ctx, u.ID, models.ModeratorPermissions...); err != nil {
		return nil, fmt.Errorf("grant moderator: %w", err)
	}
	return s.repo.FindUser(ctx, u.ID)
}

// DeleteUser removes the account behind email. Its products stay in the
// catalog without an owner.
func (s *Service) DeleteUser(ctx context.Context, email string) error {
	u, err := s.repo.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if err := s.repo.DeleteUser(ctx, u.ID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.log.Info().Uint("user_id", u.ID).Str("email", u.Email).Msg("user deleted")
	return nil
}

func (s *Service) newUser(ctx context.Context, email, password string) (*models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}
	if len(password) > maxPasswordLen {
		return nil, ErrLongPassword
	}
	if _, err := s.repo.FindUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	hash, err := models.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &models.User{Email: email, PasswordHash: hash}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
