package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/flix/internal/shared"
	tu "github.com/desertthunder/flix/internal/testing"
	"golang.org/x/oauth2"
)

const movieJSON = `{"_id":"42","Title":"Inception","Description":"Dreams","Genre":{"Name":"Sci-Fi","Description":"Science fiction"},"Director":{"Name":"Christopher Nolan","Bio":"British","Birth":"1970"}}`

func newTestAPI(t *testing.T, handler http.HandlerFunc, tokens oauth2.TokenSource) *MovieAPI {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewMovieAPI(MovieAPIOpts{BaseURL: server.URL, Tokens: tokens})
}

func TestNewMovieAPI(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		api := NewMovieAPI(MovieAPIOpts{})
		if api.BaseURL() != DefaultBaseURL {
			t.Errorf("expected default base URL, got %s", api.BaseURL())
		}
		if api.httpClient == nil || api.httpClient.Timeout != 30*time.Second {
			t.Error("expected default client with 30s timeout")
		}
		if api.limiter != nil {
			t.Error("expected no rate limiter by default")
		}
	})

	t.Run("Trailing Slash And Limiter", func(t *testing.T) {
		api := NewMovieAPI(MovieAPIOpts{BaseURL: "http://example.com/", RequestsPerSecond: 5})
		if api.BaseURL() != "http://example.com" {
			t.Errorf("expected trailing slash trimmed, got %s", api.BaseURL())
		}
		if api.limiter == nil {
			t.Error("expected rate limiter")
		}
	})
}

func TestMovieAPIAuthorization(t *testing.T) {
	t.Run("Attaches Bearer Token", func(t *testing.T) {
		api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer abc" {
				t.Errorf("expected bearer header, got %q", got)
			}
			if r.Header.Get(RequestIDHeader) == "" {
				t.Error("expected request id header")
			}
			w.Write([]byte("[" + movieJSON + "]"))
		}, tu.NewStaticTokens("abc"))

		if _, err := api.ListMovies(context.Background()); err != nil {
			t.Fatalf("ListMovies() error = %v", err)
		}
	})

	t.Run("Request Headers", func(t *testing.T) {
		transport := tu.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"Username":"alice","Email":"a@x.com","FavoriteMovies":[]}`)),
			Header:     http.Header{},
		}, nil)
		api := NewMovieAPI(MovieAPIOpts{
			BaseURL:    "http://example.com",
			HTTPClient: &http.Client{Transport: transport},
			Tokens:     tu.NewStaticTokens("abc"),
		})

		if _, err := api.UpdateUser(context.Background(), "alice", UpdateUserRequest{Username: "alice", Email: "a@x.com"}); err != nil {
			t.Fatalf("UpdateUser() error = %v", err)
		}

		req := transport.LastRequest()
		if req == nil {
			t.Fatal("expected a request")
		}
		if req.Method != http.MethodPut || req.URL.Path != "/users/alice" {
			t.Errorf("unexpected request %s %s", req.Method, req.URL.Path)
		}
		if got := req.Header.Get("Authorization"); got != "Bearer abc" {
			t.Errorf("expected bearer header, got %q", got)
		}
		if got := req.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("expected JSON content type, got %q", got)
		}
		if got := req.Header.Get("Accept"); got != "application/json" {
			t.Errorf("expected JSON accept, got %q", got)
		}
	})

	t.Run("Omits Header Without Session", func(t *testing.T) {
		api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "" {
				t.Errorf("expected no auth header, got %q", got)
			}
			w.Write([]byte("[]"))
		}, tu.StaticTokens{Err: shared.ErrNoSession})

		movies, err := api.ListMovies(context.Background())
		if err != nil {
			t.Fatalf("ListMovies() error = %v", err)
		}
		if movies == nil || len(movies) != 0 {
			t.Errorf("expected empty non-nil list, got %v", movies)
		}
	})

	t.Run("Expired Token Fails Without Request", func(t *testing.T) {
		called := false
		expired := tu.StaticTokens{Tok: &oauth2.Token{AccessToken: "abc", Expiry: time.Now().Add(-time.Hour)}}
		api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			called = true
		}, expired)

		_, err := api.ListMovies(context.Background())
		if !IsUnauthorized(err) {
			t.Fatalf("expected Unauthorized, got %v", err)
		}
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Error("expected ErrTokenExpired in chain")
		}
		if called {
			t.Error("server should not be called with an expired token")
		}
	})

	t.Run("Expired Token Does Not Block Login", func(t *testing.T) {
		expired := tu.StaticTokens{Tok: &oauth2.Token{AccessToken: "old", Expiry: time.Now().Add(-time.Hour)}}
		api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "" {
				t.Error("expired token should not be sent")
			}
			w.Write([]byte(`{"token":"new","user":{"Username":"alice","FavoriteMovies":[]}}`))
		}, expired)

		resp, err := api.Login(context.Background(), Credentials{Username: "alice", Password: "p"})
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if resp.Token != "new" {
			t.Errorf("unexpected token %s", resp.Token)
		}
	})
}

func TestMovieAPIErrors(t *testing.T) {
	tc := []struct {
		name    string
		status  int
		body    string
		kind    ErrorKind
		message string
	}{
		{name: "401", status: http.StatusUnauthorized, body: "Unauthorized", kind: KindUnauthorized, message: "Unauthorized"},
		{name: "403", status: http.StatusForbidden, body: "", kind: KindUnauthorized, message: "Unauthorized"},
		{name: "404 json message", status: http.StatusNotFound, body: `{"message":"Movie not found"}`, kind: KindNotFound, message: "Movie not found"},
		{name: "500 json error", status: http.StatusInternalServerError, body: `{"error":"db down"}`, kind: KindServerError, message: "db down"},
		{name: "400 plain text", status: http.StatusBadRequest, body: "alice already exists", kind: KindServerError, message: "alice already exists"},
		{name: "502 html", status: http.StatusBadGateway, body: "<html>bad gateway</html>", kind: KindServerError, message: "Server error"},
		{name: "json without message", status: http.StatusInternalServerError, body: `{}`, kind: KindServerError, message: "Server error"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}, nil)

			_, err := api.ListMovies(context.Background())

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T %v", err, err)
			}
			if apiErr.Kind != tt.kind {
				t.Errorf("expected kind %s, got %s", tt.kind, apiErr.Kind)
			}
			if apiErr.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, apiErr.Status)
			}
			if apiErr.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, apiErr.Message)
			}
		})
	}

	t.Run("Network", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		api := NewMovieAPI(MovieAPIOpts{BaseURL: "http://example.com", HTTPClient: client})

		_, err := api.ListMovies(context.Background())
		if KindOf(err) != KindNetwork {
			t.Fatalf("expected Network, got %v", err)
		}
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Error("expected ErrAPIRequest in chain")
		}
	})

	t.Run("Failed Response Body Read", func(t *testing.T) {
		client := &http.Client{
			Transport: tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusOK,
				Body:       &tu.FCloser{},
				Header:     http.Header{},
			}, nil),
		}
		api := NewMovieAPI(MovieAPIOpts{BaseURL: "http://example.com", HTTPClient: client})

		if _, err := api.ListMovies(context.Background()); KindOf(err) != KindNetwork {
			t.Errorf("expected Network, got %v", err)
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("[]"))
		}, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := api.ListMovies(ctx)
		if KindOf(err) != KindNetwork || !errors.Is(err, context.Canceled) {
			t.Errorf("expected Network wrapping context.Canceled, got %v", err)
		}
	})

	t.Run("Malformed Response", func(t *testing.T) {
		api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"not":"a list"}`))
		}, nil)

		if _, err := api.ListMovies(context.Background()); KindOf(err) != KindValidation {
			t.Errorf("expected Validation, got %v", err)
		}
	})

	t.Run("Movie Missing Id", func(t *testing.T) {
		api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"Title":"Nameless"}]`))
		}, nil)

		if _, err := api.ListMovies(context.Background()); KindOf(err) != KindValidation {
			t.Errorf("expected Validation, got %v", err)
		}
	})

	t.Run("Login Response Missing Token", func(t *testing.T) {
		api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"user":{"Username":"alice"}}`))
		}, nil)

		_, err := api.Login(context.Background(), Credentials{Username: "alice", Password: "p"})
		if KindOf(err) != KindValidation {
			t.Errorf("expected Validation, got %v", err)
		}
	})
}

func TestMovieAPIEndpoints(t *testing.T) {
	type call struct {
		method string
		path   string
		body   map[string]any
	}

	var got call
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		got = call{method: r.Method, path: r.URL.EscapedPath()}
		if r.Body != nil {
			data, _ := io.ReadAll(r.Body)
			if len(data) > 0 {
				json.Unmarshal(data, &got.body)
			}
		}

		switch {
		case r.URL.Path == "/login":
			w.Write([]byte(`{"token":"abc","user":{"Username":"alice","FavoriteMovies":[]}}`))
		case r.URL.Path == "/movies" || strings.HasPrefix(r.URL.Path, "/movies/genre/"):
			w.Write([]byte("[" + movieJSON + "]"))
		case strings.HasPrefix(r.URL.Path, "/movies/title/"):
			w.Write([]byte(movieJSON))
		case r.URL.Path == "/users" && r.Method == http.MethodGet:
			w.Write([]byte(`[{"Username":"alice","Password":"$2a$hash"}]`))
		case r.Method == http.MethodDelete && !strings.Contains(r.URL.Path, "/movies/"):
			w.Write([]byte("alice was deleted."))
		case strings.Contains(r.URL.Path, "/favorites/") || strings.Contains(r.URL.Path, "/movies/"):
			w.Write([]byte(`{"Username":"alice","FavoriteMovies":["42"]}`))
		default:
			w.Write([]byte(`{"_id":"u1","Username":"alice","Email":"a@x.com","Birthday":"1990-01-01T00:00:00.000Z","FavoriteMovies":["42"]}`))
		}
	}, tu.NewStaticTokens("abc"))

	ctx := context.Background()

	t.Run("Register", func(t *testing.T) {
		user, err := api.Register(ctx, RegisterRequest{Username: "alice", Password: "p", Email: "a@x.com", Birthday: "1990-01-01"})
		if err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		if got.method != http.MethodPost || got.path != "/users" {
			t.Errorf("unexpected call %+v", got)
		}
		if got.body["Birthday"] != "1990-01-01" || got.body["Email"] != "a@x.com" {
			t.Errorf("unexpected body %v", got.body)
		}
		if user.Birthday.String() != "1990-01-01" {
			t.Errorf("unexpected birthday %s", user.Birthday)
		}
	})

	t.Run("Login", func(t *testing.T) {
		resp, err := api.Login(ctx, Credentials{Username: "alice", Password: "p"})
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if resp.Token != "abc" || resp.User.Username != "alice" || resp.User.FavoriteMovies.Len() != 0 {
			t.Errorf("unexpected login response %+v", resp)
		}
	})

	t.Run("GetMovie Escapes Title", func(t *testing.T) {
		movie, err := api.GetMovie(ctx, "The Dark Knight")
		if err != nil {
			t.Fatalf("GetMovie() error = %v", err)
		}
		if got.path != "/movies/title/The%20Dark%20Knight" {
			t.Errorf("unexpected path %s", got.path)
		}
		if movie.Director.Name != "Christopher Nolan" {
			t.Errorf("unexpected movie %+v", movie)
		}
	})

	t.Run("MoviesByGenre", func(t *testing.T) {
		movies, err := api.MoviesByGenre(ctx, "Sci-Fi")
		if err != nil {
			t.Fatalf("MoviesByGenre() error = %v", err)
		}
		if got.path != "/movies/genre/Sci-Fi" || len(movies) != 1 {
			t.Errorf("unexpected result %s %v", got.path, movies)
		}
	})

	t.Run("ListUsers Strips Passwords", func(t *testing.T) {
		users, err := api.ListUsers(ctx)
		if err != nil {
			t.Fatalf("ListUsers() error = %v", err)
		}
		if len(users) != 1 || users[0].Password != "" {
			t.Errorf("unexpected users %+v", users)
		}
	})

	t.Run("GetUser", func(t *testing.T) {
		user, err := api.GetUser(ctx, "alice")
		if err != nil {
			t.Fatalf("GetUser() error = %v", err)
		}
		if got.method != http.MethodGet || got.path != "/users/alice" {
			t.Errorf("unexpected call %+v", got)
		}
		if !user.FavoriteMovies.Has("42") {
			t.Errorf("unexpected favorites %v", user.FavoriteMovies)
		}
	})

	t.Run("UpdateUser", func(t *testing.T) {
		_, err := api.UpdateUser(ctx, "alice", UpdateUserRequest{Username: "alice", Password: "new", Email: "a@x.com", Birthday: "1990-01-01"})
		if err != nil {
			t.Fatalf("UpdateUser() error = %v", err)
		}
		if got.method != http.MethodPut || got.path != "/users/alice" {
			t.Errorf("unexpected call %+v", got)
		}
		for _, field := range []string{"Username", "Password", "Email", "Birthday"} {
			if _, ok := got.body[field]; !ok {
				t.Errorf("expected %s in update body", field)
			}
		}
	})

	t.Run("DeleteUser Plain Text Body", func(t *testing.T) {
		if err := api.DeleteUser(ctx, "alice"); err != nil {
			t.Fatalf("DeleteUser() error = %v", err)
		}
		if got.method != http.MethodDelete || got.path != "/users/alice" {
			t.Errorf("unexpected call %+v", got)
		}
	})

	t.Run("AddFavorite", func(t *testing.T) {
		if err := api.AddFavorite(ctx, "alice", "42"); err != nil {
			t.Fatalf("AddFavorite() error = %v", err)
		}
		if got.method != http.MethodPost || got.path != "/users/alice/favorites/42" {
			t.Errorf("unexpected call %+v", got)
		}
	})

	t.Run("RemoveFavorite", func(t *testing.T) {
		if err := api.RemoveFavorite(ctx, "alice", "42"); err != nil {
			t.Fatalf("RemoveFavorite() error = %v", err)
		}
		if got.method != http.MethodDelete || got.path != "/users/alice/movies/42" {
			t.Errorf("unexpected call %+v", got)
		}
	})
}

func TestValidation(t *testing.T) {
	calls := 0
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	}, nil)
	ctx := context.Background()

	tc := []struct {
		name string
		run  func() error
	}{
		{name: "register empty username", run: func() error {
			_, err := api.Register(ctx, RegisterRequest{Password: "p", Email: "a@x.com"})
			return err
		}},
		{name: "register bad email", run: func() error {
			_, err := api.Register(ctx, RegisterRequest{Username: "a", Password: "p", Email: "nope"})
			return err
		}},
		{name: "register bad birthday", run: func() error {
			_, err := api.Register(ctx, RegisterRequest{Username: "a", Password: "p", Email: "a@x.com", Birthday: "01/01/1990"})
			return err
		}},
		{name: "login empty password", run: func() error {
			_, err := api.Login(ctx, Credentials{Username: "alice"})
			return err
		}},
		{name: "update empty email", run: func() error {
			_, err := api.UpdateUser(ctx, "alice", UpdateUserRequest{Username: "alice"})
			return err
		}},
		{name: "favorite without id", run: func() error {
			return api.AddFavorite(ctx, "alice", "")
		}},
		{name: "empty title", run: func() error {
			_, err := api.GetMovie(ctx, " ")
			return err
		}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if KindOf(err) != KindValidation {
				t.Errorf("expected Validation, got %v", err)
			}
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput in chain, got %v", err)
			}
		})
	}

	if calls != 0 {
		t.Errorf("validation failures must not reach the server, got %d calls", calls)
	}
}

func TestErrorHelpers(t *testing.T) {
	err := &APIError{Kind: KindNotFound, Status: 404, Message: "Movie not found"}
	wrapped := errors.Join(errors.New("context"), err)

	if KindOf(wrapped) != KindNotFound {
		t.Errorf("KindOf() = %v", KindOf(wrapped))
	}
	if Message(wrapped) != "Movie not found" {
		t.Errorf("Message() = %q", Message(wrapped))
	}
	if KindOf(errors.New("plain")) != 0 {
		t.Error("expected zero kind for plain error")
	}
	if err.Error() != "NotFound (404): Movie not found" {
		t.Errorf("Error() = %q", err.Error())
	}
	if KindValidation.String() != "Validation" {
		t.Errorf("String() = %q", KindValidation.String())
	}
}
