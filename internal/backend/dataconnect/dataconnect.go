// Package dataconnect wraps the managed data service behind typed query
// and mutation calls. The service stores user records and the public
// match history shown on the dashboard.
package dataconnect

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/gestureflow/client/internal/infrastructure/logging"
)

// User is a stored account record.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// PublicGame is one finished match visible to all users.
type PublicGame struct {
	ID       string    `json:"id"`
	Game     string    `json:"game"`
	Player   string    `json:"player"`
	Score    int       `json:"score"`
	Won      bool      `json:"won"`
	PlayedAt time.Time `json:"played_at"`
}

// Service issues typed calls against the data-service endpoint.
type Service struct {
	resty  *resty.Client
	logger *logging.Logger
}

// New creates a service client for the given base URL.
func New(baseURL string, timeout time.Duration, logger *logging.Logger) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		resty: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
		logger: logger.Named("dataconnect"),
	}
}

// SetAuthToken installs the bearer token used for all calls.
func (s *Service) SetAuthToken(token string) {
	s.resty.SetAuthToken(token)
}

// CreateUser registers a user record after account creation.
func (s *Service) CreateUser(ctx context.Context, email, username string) (*User, error) {
	var out User
	resp, err := s.resty.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "username": username}).
		SetResult(&out).
		Post("/users")
	if err != nil {
		return nil, fmt.Errorf("dataconnect: create user: %w", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return nil, fmt.Errorf("dataconnect: create user returned %s", resp.Status())
	}
	return &out, nil
}

// GetUserByID fetches one user record.
func (s *Service) GetUserByID(ctx context.Context, id string) (*User, error) {
	var out User
	resp, err := s.resty.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/users/" + id)
	if err != nil {
		return nil, fmt.Errorf("dataconnect: get user: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("dataconnect: user %s not found", id)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("dataconnect: get user returned %s", resp.Status())
	}
	return &out, nil
}

// CreatePublicGame records a finished match on the public board.
func (s *Service) CreatePublicGame(ctx context.Context, g PublicGame) (*PublicGame, error) {
	var out PublicGame
	resp, err := s.resty.R().
		SetContext(ctx).
		SetBody(g).
		SetResult(&out).
		Post("/public_games")
	if err != nil {
		return nil, fmt.Errorf("dataconnect: create public game: %w", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return nil, fmt.Errorf("dataconnect: create public game returned %s", resp.Status())
	}
	return &out, nil
}

// ListPublicGames returns recent public matches, newest first.
func (s *Service) ListPublicGames(ctx context.Context, limit int) ([]PublicGame, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []PublicGame
	resp, err := s.resty.R().
		SetContext(ctx).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetResult(&out).
		Get("/public_games")
	if err != nil {
		return nil, fmt.Errorf("dataconnect: list public games: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("dataconnect: list public games returned %s", resp.Status())
	}
	return out, nil
}
