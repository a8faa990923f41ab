package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/smart-energy-home/internal/domain"
	"github.com/ANIKETSHETTY47/smart-energy-home/internal/metrics"
)

const tokenBytes = 32

// SessionCache holds resolved users keyed by token digest. Misses fall through
// to the UserStore.
type SessionCache interface {
	Get(ctx context.Context, digest string) (*domain.User, bool)
	Set(ctx context.Context, digest string, u *domain.User)
	Delete(ctx context.Context, digest string)
}

type noCache struct{}

func (noCache) Get(context.Context, string) (*domain.User, bool) { return nil, false }
func (noCache) Set(context.Context, string, *domain.User)         {}
func (noCache) Delete(context.Context, string)                    {}

// CredentialService owns user records and password verification.
type CredentialService struct {
	users  UserStore
	hasher *PasswordHasher
	// dummy is verified against when the email is unknown so both failure
	// paths cost the same.
	dummy string
}

func NewCredentialService(users UserStore, hasher *PasswordHasher) (*CredentialService, error) {
	dummy, err := hasher.Hash("not-a-password")
	if err != nil {
		return nil, err
	}
	return &CredentialService{users: users, hasher: hasher, dummy: dummy}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *CredentialService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidArgument)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrInvalidArgument)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", domain.ErrInvalidArgument)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Authenticate returns the user for a matching email/password pair. Unknown
// emails and wrong passwords produce the same error.
func (s *CredentialService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.users.UserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		s.hasher.Verify(password, s.dummy)
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthenticated)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthenticated)
	}
	return u, nil
}

// SessionService issues and resolves bearer tokens. A user has at most one
// live token; only its SHA-256 digest is persisted.
type SessionService struct {
	creds *CredentialService
	users UserStore
	cache SessionCache
}

func NewSessionService(creds *CredentialService, users UserStore, cache SessionCache) *SessionService {
	if cache == nil {
		cache = noCache{}
	}
	return &SessionService{creds: creds, users: users, cache: cache}
}

func digestToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Login replaces any previous session of the user.
func (s *SessionService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	u, err := s.creds.Authenticate(ctx, email, password)
	if err != nil {
		metrics.ObserveLogin(err)
		return "", nil, err
	}
	token, err := newToken()
	if err != nil {
		return "", nil, fmt.Errorf("token: %w", err)
	}
	digest := digestToken(token)
	if err := s.users.SetTokenDigest(ctx, u.ID, &digest); err != nil {
		return "", nil, fmt.Errorf("store token: %w", err)
	}
	if u.TokenDigest != nil {
		s.cache.Delete(ctx, *u.TokenDigest)
	}
	u.TokenDigest = &digest
	metrics.ObserveLogin(nil)
	log.Info().Int64("user_id", u.ID).Msg("login")
	return token, u, nil
}

func (s *SessionService) Resolve(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", domain.ErrUnauthenticated)
	}
	digest := digestToken(token)
	if u, ok := s.cache.Get(ctx, digest); ok {
		u.TokenDigest = &digest
		return u, nil
	}
	u, err := s.users.UserByTokenDigest(ctx, digest)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	s.remember(ctx, digest, u)
	return u, nil
}

// remember caches u under digest, then re-reads the row. A Login or Logout
// that replaced the digest in between either deletes the entry itself or is
// seen by the re-read, so a stale digest never outlives the database.
func (s *SessionService) remember(ctx context.Context, digest string, u *domain.User) {
	if _, ok := s.cache.(noCache); ok {
		return
	}
	s.cache.Set(ctx, digest, u)
	if _, err := s.users.UserByTokenDigest(ctx, digest); err != nil {
		s.cache.Delete(ctx, digest)
	}
}

// Logout is idempotent.
func (s *SessionService) Logout(ctx context.Context, u *domain.User) error {
	if err := s.users.SetTokenDigest(ctx, u.ID, nil); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("clear token: %w", err)
	}
	if u.TokenDigest != nil {
		s.cache.Delete(ctx, *u.TokenDigest)
	}
	u.TokenDigest = nil
	return nil
}

// UpdateProfile overwrites the supplied fields. The session stays valid.
func (s *SessionService) UpdateProfile(ctx context.Context, u *domain.User, name, password *string) error {
	var newName, newHash *string
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return fmt.Errorf("%w: name must not be empty", domain.ErrInvalidArgument)
		}
		newName = &trimmed
	}
	if password != nil {
		if *password == "" {
			return fmt.Errorf("%w: password must not be empty", domain.ErrInvalidArgument)
		}
		hash, err := s.creds.hasher.Hash(*password)
		if err != nil {
			return err
		}
		newHash = &hash
	}
	if newName == nil && newHash == nil {
		return nil
	}
	if err := s.users.UpdateProfile(ctx, u.ID, newName, newHash); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if newName != nil {
		u.Name = *newName
	}
	if u.TokenDigest != nil {
		s.cache.Delete(ctx, *u.TokenDigest)
	}
	return nil
}
