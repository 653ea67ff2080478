// MovieAPI implementation of [MovieService]
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the hosted movie API.
const DefaultBaseURL = "https://movie-api-joud-a1d184147f81.herokuapp.com"

// RequestIDHeader carries a per-request uuid for log correlation.
const RequestIDHeader = "X-Request-ID"

const maxBodySize = 8 << 20

// MovieAPIOpts configures a [MovieAPI].
type MovieAPIOpts struct {
	BaseURL string
	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client
	// Tokens supplies the bearer token. A nil source, or one returning [shared.ErrNoSession], sends no header.
	Tokens oauth2.TokenSource
	// RequestsPerSecond enables client-side rate limiting when positive.
	RequestsPerSecond float64
	Logger            *log.Logger
}

// MovieAPI talks to the movie REST API.
type MovieAPI struct {
	baseURL    string
	httpClient *http.Client
	tokens     oauth2.TokenSource
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewMovieAPI creates a new [MovieAPI].
func NewMovieAPI(opts MovieAPIOpts) *MovieAPI {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	api := &MovieAPI{
		baseURL:    baseURL,
		httpClient: client,
		tokens:     opts.Tokens,
		logger:     logger,
	}

	if opts.RequestsPerSecond > 0 {
		api.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return api
}

// BaseURL returns the API root without a trailing slash.
func (a *MovieAPI) BaseURL() string { return a.baseURL }

type request struct {
	method string
	path   string
	body   any
	// public requests attach a valid token if one exists but never fail on a missing or expired one.
	public bool
}

// do performs req and decodes a 2xx JSON body into result when result is non-nil.
func (a *MovieAPI) do(ctx context.Context, req request, result any) error {
	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return newValidationError("failed to encode request: %v", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, a.baseURL+req.path, body)
	if err != nil {
		return &APIError{Kind: KindValidation, Message: "failed to create request", Err: err}
	}

	requestID := shared.GenerateID()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if err := a.authorize(httpReq, req.public); err != nil {
		return err
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return newNetworkError(err)
		}
	}

	logger := a.logger.With("method", req.method, "path", req.path, "request_id", requestID)
	start := time.Now()

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		logger.Warn("request failed", "error", err)
		return newNetworkError(fmt.Errorf("%w: %w", shared.ErrAPIRequest, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		logger.Warn("failed to read response", "status", resp.StatusCode, "error", err)
		return newNetworkError(fmt.Errorf("failed to read response: %w", err))
	}

	logger.Debug("request", "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newStatusError(resp.StatusCode, data)
		logger.Info("API error", "status", resp.StatusCode, "kind", apiErr.Kind, "message", apiErr.Message)
		return apiErr
	}

	if result == nil {
		return nil
	}

	if err := json.Unmarshal(data, result); err != nil {
		return &APIError{Kind: KindValidation, Status: resp.StatusCode, Message: "unexpected response from server", Err: err}
	}
	return nil
}

func (a *MovieAPI) authorize(req *http.Request, public bool) error {
	if a.tokens == nil {
		return nil
	}

	tok, err := a.tokens.Token()
	switch {
	case errors.Is(err, shared.ErrNoSession):
		return nil
	case err != nil:
		if public {
			return nil
		}
		return newNetworkError(fmt.Errorf("failed to read token: %w", err))
	}

	if !tok.Valid() {
		if public {
			return nil
		}
		return &APIError{Kind: KindUnauthorized, Message: "Session expired, please log in again", Err: shared.ErrTokenExpired}
	}

	tok.SetAuthHeader(req)
	return nil
}

func segment(s string) string {
	return url.PathEscape(s)
}

func (a *MovieAPI) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var user models.User
	if err := a.do(ctx, request{method: http.MethodPost, path: "/users", body: req, public: true}, &user); err != nil {
		return nil, err
	}
	if err := validateUser(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *MovieAPI) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	var resp LoginResponse
	if err := a.do(ctx, request{method: http.MethodPost, path: "/login", body: creds, public: true}, &resp); err != nil {
		return nil, err
	}
	if err := resp.validate(); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *MovieAPI) ListMovies(ctx context.Context) ([]models.Movie, error) {
	return a.movies(ctx, "/movies")
}

func (a *MovieAPI) MoviesByGenre(ctx context.Context, genre string) ([]models.Movie, error) {
	if strings.TrimSpace(genre) == "" {
		return nil, newValidationError("genre is required")
	}
	return a.movies(ctx, "/movies/genre/"+segment(genre))
}

func (a *MovieAPI) movies(ctx context.Context, path string) ([]models.Movie, error) {
	var movies []models.Movie
	if err := a.do(ctx, request{method: http.MethodGet, path: path}, &movies); err != nil {
		return nil, err
	}

	for i := range movies {
		if err := validateMovie(&movies[i]); err != nil {
			return nil, err
		}
	}
	if movies == nil {
		movies = []models.Movie{}
	}
	return movies, nil
}

func (a *MovieAPI) GetMovie(ctx context.Context, title string) (*models.Movie, error) {
	if strings.TrimSpace(title) == "" {
		return nil, newValidationError("title is required")
	}

	var movie models.Movie
	if err := a.do(ctx, request{method: http.MethodGet, path: "/movies/title/" + segment(title)}, &movie); err != nil {
		return nil, err
	}
	if err := validateMovie(&movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

func (a *MovieAPI) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := a.do(ctx, request{method: http.MethodGet, path: "/users"}, &users); err != nil {
		return nil, err
	}
	for i := range users {
		if err := validateUser(&users[i]); err != nil {
			return nil, err
		}
		users[i].Password = ""
	}
	return users, nil
}

func (a *MovieAPI) GetUser(ctx context.Context, username string) (*models.User, error) {
	if username == "" {
		return nil, newValidationError("username is required")
	}

	var user models.User
	if err := a.do(ctx, request{method: http.MethodGet, path: "/users/" + segment(username)}, &user); err != nil {
		return nil, err
	}
	if err := validateUser(&user); err != nil {
		return nil, err
	}
	user.Password = ""
	return &user, nil
}

func (a *MovieAPI) UpdateUser(ctx context.Context, username string, req UpdateUserRequest) (*models.User, error) {
	if username == "" {
		return nil, newValidationError("username is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var user models.User
	if err := a.do(ctx, request{method: http.MethodPut, path: "/users/" + segment(username), body: req}, &user); err != nil {
		return nil, err
	}
	if err := validateUser(&user); err != nil {
		return nil, err
	}
	user.Password = ""
	return &user, nil
}

func (a *MovieAPI) DeleteUser(ctx context.Context, username string) error {
	if username == "" {
		return newValidationError("username is required")
	}
	return a.do(ctx, request{method: http.MethodDelete, path: "/users/" + segment(username)}, nil)
}

func (a *MovieAPI) AddFavorite(ctx context.Context, username, movieID string) error {
	if username == "" || movieID == "" {
		return newValidationError("username and movie id are required")
	}
	path := fmt.Sprintf("/users/%s/favorites/%s", segment(username), segment(movieID))
	return a.do(ctx, request{method: http.MethodPost, path: path, body: struct{}{}}, nil)
}

func (a *MovieAPI) RemoveFavorite(ctx context.Context, username, movieID string) error {
	if username == "" || movieID == "" {
		return newValidationError("username and movie id are required")
	}
	path := fmt.Sprintf("/users/%s/movies/%s", segment(username), segment(movieID))
	return a.do(ctx, request{method: http.MethodDelete, path: path}, nil)
}

var _ MovieService = (*MovieAPI)(nil)
