package tasks

import (
	"context"
	"sync"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/repositories"
	"github.com/desertthunder/flix/internal/services"
)

// fakeAPI is an in-memory [services.MovieService] with per-method error injection and gates.
type fakeAPI struct {
	mu     sync.Mutex
	movies []models.Movie
	user   models.User
	token  string
	errs   map[string]error
	gates  map[string]chan struct{}
	enter  chan string
	calls  []string
	after  func(method string)
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		movies: []models.Movie{
			{ID: "1", Title: "Inception", Genre: models.Genre{Name: "Sci-Fi"}, Director: models.Director{Name: "Christopher Nolan"}},
			{ID: "42", Title: "The Matrix", Genre: models.Genre{Name: "Sci-Fi"}, Director: models.Director{Name: "Lana Wachowski"}},
			{ID: "7", Title: "Pulp Fiction", Genre: models.Genre{Name: "Crime"}, Director: models.Director{Name: "Quentin Tarantino"}},
		},
		user:  models.User{ID: "u1", Username: "alice", Email: "a@x.com", FavoriteMovies: models.FavoriteSet{}},
		token: "abc",
		errs:  make(map[string]error),
		gates: make(map[string]chan struct{}),
		enter: make(chan string, 16),
	}
}

func (f *fakeAPI) fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[method] = err
}

// hold makes method block until the returned func is called.
func (f *fakeAPI) hold(method string) func() {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gates[method] = gate
	f.mu.Unlock()
	return func() { close(gate) }
}

func (f *fakeAPI) begin(ctx context.Context, method string) error {
	f.mu.Lock()
	f.calls = append(f.calls, method)
	gate := f.gates[method]
	f.mu.Unlock()

	if gate != nil {
		f.enter <- method
		select {
		case <-gate:
		case <-ctx.Done():
			return &services.APIError{Kind: services.KindNetwork, Message: "Network error", Err: ctx.Err()}
		}
	}

	f.mu.Lock()
	err, after := f.errs[method], f.after
	f.mu.Unlock()

	if after != nil {
		after(method)
	}
	return err
}

func (f *fakeAPI) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (f *fakeAPI) serverFavorites() models.FavoriteSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.NewFavoriteSet(f.user.FavoriteMovies...)
}

func (f *fakeAPI) Register(ctx context.Context, req services.RegisterRequest) (*models.User, error) {
	if err := f.begin(ctx, "Register"); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &models.User{Username: req.Username, Email: req.Email}, nil
}

func (f *fakeAPI) Login(ctx context.Context, creds services.Credentials) (*services.LoginResponse, error) {
	if err := f.begin(ctx, "Login"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	user := f.user
	return &services.LoginResponse{Token: f.token, User: &user}, nil
}

func (f *fakeAPI) ListMovies(ctx context.Context) ([]models.Movie, error) {
	if err := f.begin(ctx, "ListMovies"); err != nil {
		return nil, err
	}
	return append([]models.Movie{}, f.movies...), nil
}

func (f *fakeAPI) GetMovie(ctx context.Context, title string) (*models.Movie, error) {
	if err := f.begin(ctx, "GetMovie"); err != nil {
		return nil, err
	}
	for _, m := range f.movies {
		if m.Title == title {
			return &m, nil
		}
	}
	return nil, &services.APIError{Kind: services.KindNotFound, Status: 404, Message: "Movie not found"}
}

func (f *fakeAPI) MoviesByGenre(ctx context.Context, genre string) ([]models.Movie, error) {
	if err := f.begin(ctx, "MoviesByGenre"); err != nil {
		return nil, err
	}
	return nil, nil
}

func (f *fakeAPI) ListUsers(ctx context.Context) ([]models.User, error) {
	if err := f.begin(ctx, "ListUsers"); err != nil {
		return nil, err
	}
	return []models.User{f.user}, nil
}

func (f *fakeAPI) GetUser(ctx context.Context, username string) (*models.User, error) {
	if err := f.begin(ctx, "GetUser"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	user := f.user
	user.FavoriteMovies = models.NewFavoriteSet(f.user.FavoriteMovies...)
	return &user, nil
}

func (f *fakeAPI) UpdateUser(ctx context.Context, username string, req services.UpdateUserRequest) (*models.User, error) {
	if err := f.begin(ctx, "UpdateUser"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user.Username = req.Username
	f.user.Email = req.Email
	if req.Birthday != "" {
		f.user.Birthday, _ = models.ParseDate(req.Birthday)
	}
	user := f.user
	return &user, nil
}

func (f *fakeAPI) DeleteUser(ctx context.Context, username string) error {
	return f.begin(ctx, "DeleteUser")
}

func (f *fakeAPI) AddFavorite(ctx context.Context, username, movieID string) error {
	if err := f.begin(ctx, "AddFavorite"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user.FavoriteMovies = f.user.FavoriteMovies.With(movieID)
	return nil
}

func (f *fakeAPI) RemoveFavorite(ctx context.Context, username, movieID string) error {
	if err := f.begin(ctx, "RemoveFavorite"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user.FavoriteMovies = f.user.FavoriteMovies.Without(movieID)
	return nil
}

var _ services.MovieService = (*fakeAPI)(nil)

// loggedIn returns a memory-backed store holding alice's session with favorites.
func loggedIn(favorites ...string) (*repositories.MemoryKV, *repositories.Store) {
	kv := repositories.NewMemoryKV()
	store := repositories.NewStore(kv, nil)
	store.Write(context.Background(), models.Session{
		Token: "abc",
		User: models.User{
			ID:             "u1",
			Username:       "alice",
			Email:          "a@x.com",
			FavoriteMovies: models.NewFavoriteSet(favorites...),
		},
	})
	return kv, store
}

// snapshot returns the raw stored values for byte-level comparison.
func snapshot(kv *repositories.MemoryKV) map[string]string {
	values, _ := kv.Get(context.Background(), repositories.TokenKey, repositories.UserKey)
	return values
}

var errUnauthorized = &services.APIError{Kind: services.KindUnauthorized, Status: 401, Message: "Unauthorized"}
var errServer = &services.APIError{Kind: services.KindServerError, Status: 500, Message: "Server error"}
