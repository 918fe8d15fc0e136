package users

import (
	"context"
	"errors"
	"time"

	"github.com/akozlenkov/authgate/internal/common"
	"github.com/akozlenkov/authgate/internal/server/auth"
	"github.com/akozlenkov/authgate/internal/server/config"
	"github.com/akozlenkov/authgate/internal/server/directory"
)

// CredentialVerifier proves a username/password pair against the directory
// and returns the directory's attributes for the user.
type CredentialVerifier interface {
	Authenticate(ctx context.Context, username, password string) (*directory.User, error)
}

type Service struct {
	verifier              CredentialVerifier
	repo                  Repository
	jwtSecret             []byte
	tokenValidityDuration time.Duration
}

func NewService(verifier CredentialVerifier, repo Repository, cfg *config.Config) *Service {
	return &Service{
		verifier:              verifier,
		repo:                  repo,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
	}
}

// Authenticate runs the full login flow: verify the credential against the
// directory, mirror the directory attributes into the local store, and issue
// a short-lived access token for the stored user.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, string, error) {

	dirUser, err := s.verifier.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, common.ErrorInvalidCredentials) {
			return nil, "", err
		}
		return nil, "", common.ErrorDirectorySearchFailed
	}

	user, err := s.Reconcile(ctx, dirUser)
	if err != nil {
		return nil, "", err
	}

	token, err := auth.GenerateToken(user.ID, user.Username, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return nil, "", common.ErrorInternal
	}

	return user, token, nil
}

// Reconcile mirrors a directory snapshot into the local store. Missing rows
// are created and existing rows refreshed in one statement, so the local copy
// always reflects the directory's latest attributes after a login.
func (s *Service) Reconcile(ctx context.Context, dirUser *directory.User) (*User, error) {

	user := &User{
		Username: dirUser.UID,
		Email:    dirUser.Mail,
		Name:     dirUser.GivenName,
		Surname:  dirUser.Surname,
	}

	user, err := s.repo.Upsert(ctx, user)
	if err != nil {
		return nil, common.ErrorUserSyncFailed
	}

	return user, nil
}

// ValidateToken reports whether the token is currently valid. Invalid,
// expired and malformed tokens all yield false; the method never errors so
// callers can return the verdict directly.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) bool {
	_, err := auth.ParseToken(tokenString, s.jwtSecret)
	return err == nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}
