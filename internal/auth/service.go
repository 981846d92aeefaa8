package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/galleria/pkg/models"
)

// UserDirectory stores marketplace profiles for new accounts.
type UserDirectory interface {
	CreateOrGetUser(ctx context.Context, u models.User) (*models.User, error)
}

// RegisterRequest is the input to Service.Register.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	PhotoURL string
}

// Service coordinates the identity provider, the marketplace user directory
// and the session store.
type Service struct {
	provider Provider
	users    UserDirectory
	sessions SessionStore
	now      func() time.Time
	logger   *zap.Logger
}

// NewService creates a Service. users may be nil, in which case no profile is
// created on registration.
func NewService(provider Provider, users UserDirectory, sessions SessionStore, logger *zap.Logger) *Service {
	if sessions == nil {
		sessions = &MemorySessionStore{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		provider: provider,
		users:    users,
		sessions: sessions,
		now:      time.Now,
		logger:   logger,
	}
}

// SetClock replaces the time source used for expiry checks.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Register validates the request, creates the account, sets its display
// profile and records the user with the marketplace. The new session is
// stored and returned.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" {
		return nil, ErrNameRequired
	}
	if err := ValidateEmail(req.Email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	tokens, err := s.provider.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	updated, err := s.provider.UpdateProfile(ctx, tokens.IDToken, req.Name, req.PhotoURL)
	if err != nil {
		return nil, fmt.Errorf("set profile: %w", err)
	}
	if updated.RefreshToken == "" {
		updated.RefreshToken = tokens.RefreshToken
	}
	tokens = updated

	if s.users != nil {
		if _, err := s.users.CreateOrGetUser(ctx, models.User{
			Name:     req.Name,
			Email:    req.Email,
			PhotoURL: req.PhotoURL,
		}); err != nil {
			return nil, fmt.Errorf("create marketplace user: %w", err)
		}
	}

	sess, err := s.establish(tokens)
	if err != nil {
		return nil, err
	}
	if sess.Name == "" {
		sess.Name = req.Name
	}
	if sess.PhotoURL == "" {
		sess.PhotoURL = req.PhotoURL
	}
	if err := s.sessions.Save(sess); err != nil {
		return nil, err
	}
	s.logger.Info("registered", zap.String("email", sess.Email))
	return sess, nil
}

// Login signs in with email and password and stores the session.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	sess, err := s.establish(tokens)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(sess); err != nil {
		return nil, err
	}
	s.logger.Info("signed in", zap.String("email", sess.Email))
	return sess, nil
}

// Logout clears the stored session. Logging out while signed out is not an
// error.
func (s *Service) Logout(ctx context.Context) error {
	sess, err := s.sessions.Load()
	if err != nil && !errors.Is(err, ErrNotSignedIn) {
		return err
	}
	if sess != nil {
		if err := s.provider.SignOut(ctx, sess.IDToken); err != nil {
			s.logger.Warn("provider sign-out failed", zap.Error(err))
		}
	}
	return s.sessions.Clear()
}

// Current returns the stored session. It fails with ErrNotSignedIn when none
// exists and ErrSessionExpired once its token has expired.
func (s *Service) Current(context.Context) (*Session, error) {
	sess, err := s.sessions.Load()
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		return nil, ErrSessionExpired
	}
	return sess, nil
}

// Token returns the current ID token. It lets a Service act as the token
// source of a marketplace client.
func (s *Service) Token(ctx context.Context) (string, error) {
	sess, err := s.Current(ctx)
	if err != nil {
		return "", err
	}
	return sess.IDToken, nil
}

func (s *Service) establish(t *Tokens) (*Session, error) {
	sess, err := ParseSession(t.IDToken)
	if err != nil {
		return nil, err
	}
	sess.RefreshToken = t.RefreshToken
	if sess.UserID == "" {
		sess.UserID = t.UserID
	}
	return sess, nil
}
