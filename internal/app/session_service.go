package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cadgen/internal/model"
	"cadgen/internal/pkg/jwtutil"
)

// SessionStore keeps session state between requests.
type SessionStore interface {
	Name() string
	Get(ctx context.Context, id string) (*model.SessionState, bool, error)
	Save(ctx context.Context, state *model.SessionState) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

type SessionService struct {
	store         SessionStore
	secret        string
	ttl           time.Duration
	defaultFormat model.Format
	logger        *zap.Logger
	newID         func() string
}

func NewSessionService(store SessionStore, secret string, ttl time.Duration, defaultFormat model.Format, logger *zap.Logger) *SessionService {
	return &SessionService{
		store:         store,
		secret:        secret,
		ttl:           ttl,
		defaultFormat: defaultFormat,
		logger:        logger.With(zap.String("component", "session")),
		newID:         uuid.NewString,
	}
}

// Resolve returns the state behind token and the token the client should hold.
// A missing or invalid token starts a fresh session; a valid token whose state has
// expired keeps its ID but starts over.
func (s *SessionService) Resolve(ctx context.Context, token string) (*model.SessionState, string, error) {
	if token != "" {
		claims, err := jwtutil.ParseToken(s.secret, token)
		if err == nil {
			state, found, err := s.store.Get(ctx, claims.SessionID)
			if err != nil {
				return nil, "", fmt.Errorf("load session failed: %w", err)
			}
			if found {
				return state, token, nil
			}
			state = model.NewSessionState(claims.SessionID, s.defaultFormat)
			if err := s.Save(ctx, state); err != nil {
				return nil, "", err
			}
			return state, token, nil
		}
		s.logger.Debug("discarding session token", zap.Error(err))
	}

	state := model.NewSessionState(s.newID(), s.defaultFormat)
	newToken, err := jwtutil.GenerateToken(s.secret, s.ttl, state.ID)
	if err != nil {
		return nil, "", err
	}
	if err := s.Save(ctx, state); err != nil {
		return nil, "", err
	}
	s.logger.Debug("started session", zap.String("session_id", state.ID))
	return state, newToken, nil
}

func (s *SessionService) Save(ctx context.Context, state *model.SessionState) error {
	if err := s.store.Save(ctx, state); err != nil {
		return fmt.Errorf("save session failed: %w", err)
	}
	return nil
}

func (s *SessionService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *SessionService) StoreName() string {
	return s.store.Name()
}

func (s *SessionService) TTL() time.Duration {
	return s.ttl
}
