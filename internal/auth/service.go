// Package auth registers users, issues bearer tokens and resolves them back
// to users.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sudo-init-do/favo/internal/domain"
	"github.com/sudo-init-do/favo/internal/utils"
)

type UserStore interface {
	Create(ctx context.Context, u domain.User) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
}

type Publisher interface {
	Publish(ctx context.Context, ev domain.Event) error
}

// Options holds the token and hashing settings.
type Options struct {
	Secret     string
	TTL        time.Duration
	BcryptCost int
}

type Service struct {
	users  UserStore
	events Publisher
	opts   Options
	log    *zap.Logger
}

func NewService(users UserStore, events Publisher, opts Options, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{users: users, events: events, opts: opts, log: log}
}

// Register creates an account. New users act as requesters unless they ask
// for something else.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (domain.User, error) {
	hash, err := utils.HashPassword(req.Password, s.opts.BcryptCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := domain.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Nombre:       strings.TrimSpace(req.Nombre),
		EsProveedor:  req.EsProveedor != nil && *req.EsProveedor,
		EsDemanda:    req.EsDemanda == nil || *req.EsDemanda,
		UbicacionID:  req.UbicacionID,
	}
	created, err := s.users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.User{}, fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
		return domain.User{}, err
	}

	if s.events != nil {
		ev := domain.Event{
			ID:          uuid.NewString(),
			Type:        domain.EventUserRegistered,
			RecipientID: created.ID,
			ActorID:     created.ID,
			Title:       created.Nombre,
			Detail:      created.Email,
			OccurredAt:  time.Now().UTC(),
		}
		if err := s.events.Publish(context.WithoutCancel(ctx), ev); err != nil {
			s.log.Warn("registration event failed", zap.Int64("user_id", created.ID), zap.Error(err))
		}
	}
	return created, nil
}

// Login checks the credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (utils.AccessToken, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return utils.AccessToken{}, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
		}
		return utils.AccessToken{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return utils.AccessToken{}, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	tok, err := utils.NewAccessToken(s.opts.Secret, u.Email, s.opts.TTL)
	if err != nil {
		return utils.AccessToken{}, fmt.Errorf("sign token: %w", err)
	}
	return tok, nil
}

// Authenticate resolves a raw bearer token to the current state of its user.
func (s *Service) Authenticate(ctx context.Context, raw string) (domain.User, error) {
	email, err := utils.ParseSubject(s.opts.Secret, raw)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: invalid or expired token", domain.ErrUnauthorized)
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, fmt.Errorf("%w: user no longer exists", domain.ErrUnauthorized)
		}
		return domain.User{}, err
	}
	return u, nil
}
