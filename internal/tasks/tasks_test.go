package tasks

import (
	"context"
	"errors"
	"maps"
	"testing"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/repositories"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/shared"
)

func TestAuthenticator(t *testing.T) {
	ctx := context.Background()

	t.Run("Register Does Not Log In", func(t *testing.T) {
		api := newFakeAPI()
		kv := repositories.NewMemoryKV()
		auth := NewAuthenticator(api, repositories.NewStore(kv, nil), nil)

		user, err := auth.Register(ctx, services.RegisterRequest{Username: "alice", Password: "p", Email: "a@x.com", Birthday: "1990-01-01"})
		if err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		if user.Username != "alice" {
			t.Errorf("unexpected user %+v", user)
		}
		if keys := kv.Keys(); len(keys) != 0 {
			t.Errorf("registration must not write a session, found %v", keys)
		}
	})

	t.Run("Login Writes Session", func(t *testing.T) {
		api := newFakeAPI()
		store := repositories.NewMemoryStore()
		auth := NewAuthenticator(api, store, nil)

		if _, err := auth.Login(ctx, services.Credentials{Username: "alice", Password: "p"}); err != nil {
			t.Fatalf("Login() error = %v", err)
		}

		session, err := store.Read(ctx)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if session.Token != "abc" {
			t.Errorf("expected token abc, got %s", session.Token)
		}
		if session.User.Username != "alice" || session.User.FavoriteMovies.Len() != 0 {
			t.Errorf("unexpected stored user %+v", session.User)
		}

		current, err := auth.Current(ctx)
		if err != nil || current.Token != "abc" {
			t.Errorf("Current() = %+v, %v", current, err)
		}
	})

	t.Run("Login Failure Writes Nothing", func(t *testing.T) {
		api := newFakeAPI()
		api.fail("Login", errUnauthorized)
		kv := repositories.NewMemoryKV()
		auth := NewAuthenticator(api, repositories.NewStore(kv, nil), nil)

		if _, err := auth.Login(ctx, services.Credentials{Username: "alice", Password: "wrong"}); err == nil {
			t.Fatal("expected login error")
		}
		if keys := kv.Keys(); len(keys) != 0 {
			t.Errorf("failed login must not write, found %v", keys)
		}
	})

	t.Run("Logout Clears Both Keys", func(t *testing.T) {
		kv, store := loggedIn("1")
		auth := NewAuthenticator(newFakeAPI(), store, nil)

		if err := auth.Logout(ctx); err != nil {
			t.Fatalf("Logout() error = %v", err)
		}
		if keys := kv.Keys(); len(keys) != 0 {
			t.Errorf("expected empty storage, found %v", keys)
		}
		if _, err := auth.Current(ctx); !errors.Is(err, shared.ErrNoSession) {
			t.Errorf("expected ErrNoSession, got %v", err)
		}
	})
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()

	t.Run("Load Caches Once", func(t *testing.T) {
		api := newFakeAPI()
		_, store := loggedIn()
		catalog := NewCatalog(api, store, nil)

		if catalog.State() != CatalogIdle {
			t.Errorf("expected idle, got %s", catalog.State())
		}

		movies, err := catalog.Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(movies) != 3 || catalog.State() != CatalogLoaded {
			t.Errorf("unexpected load result %d %s", len(movies), catalog.State())
		}

		if _, err := catalog.Load(ctx); err != nil {
			t.Fatalf("second Load() error = %v", err)
		}
		if n := api.count("ListMovies"); n != 1 {
			t.Errorf("expected one network call, got %d", n)
		}
	})

	t.Run("Failure Caches Nothing And Retries", func(t *testing.T) {
		api := newFakeAPI()
		api.fail("ListMovies", errServer)
		_, store := loggedIn()
		catalog := NewCatalog(api, store, nil)

		if _, err := catalog.Load(ctx); services.KindOf(err) != services.KindServerError {
			t.Fatalf("expected ServerError, got %v", err)
		}
		if catalog.State() != CatalogFailed || len(catalog.Movies()) != 0 || catalog.Err() == nil {
			t.Errorf("expected failed state with no cache")
		}
		if n := NewNotice(OpLoadCatalog, catalog.Err()); n.Message != MsgCatalogFailed {
			t.Errorf("unexpected notice %q", n.Message)
		}

		api.fail("ListMovies", nil)
		movies, err := catalog.Retry(ctx)
		if err != nil {
			t.Fatalf("Retry() error = %v", err)
		}
		if len(movies) != 3 || catalog.State() != CatalogLoaded {
			t.Errorf("expected loaded after retry")
		}
	})

	t.Run("Load While Loading", func(t *testing.T) {
		api := newFakeAPI()
		release := api.hold("ListMovies")
		_, store := loggedIn()
		catalog := NewCatalog(api, store, nil)

		done := make(chan error, 1)
		go func() {
			_, err := catalog.Load(ctx)
			done <- err
		}()
		<-api.enter

		if catalog.State() != CatalogLoading {
			t.Errorf("expected loading, got %s", catalog.State())
		}
		if _, err := catalog.Load(ctx); !errors.Is(err, shared.ErrLoadInProgress) {
			t.Errorf("expected ErrLoadInProgress, got %v", err)
		}

		release()
		if err := <-done; err != nil {
			t.Fatalf("Load() error = %v", err)
		}
	})

	t.Run("Unauthorized Clears Session", func(t *testing.T) {
		api := newFakeAPI()
		api.fail("ListMovies", errUnauthorized)
		kv, store := loggedIn()
		catalog := NewCatalog(api, store, nil)

		_, err := catalog.Load(ctx)
		if !errors.Is(err, shared.ErrNotAuthenticated) || !services.IsUnauthorized(err) {
			t.Fatalf("expected ErrNotAuthenticated wrapping Unauthorized, got %v", err)
		}
		if keys := kv.Keys(); len(keys) != 0 {
			t.Errorf("expected session cleared, found %v", keys)
		}
		if n := NewNotice(OpLoadCatalog, err); n.Message != MsgSessionExpired {
			t.Errorf("unexpected notice %q", n.Message)
		}
	})

	t.Run("Derived Views", func(t *testing.T) {
		api := newFakeAPI()
		_, store := loggedIn()
		catalog := NewCatalog(api, store, nil)
		catalog.Load(ctx)

		views := catalog.Views(models.NewFavoriteSet("42"))
		for _, v := range views {
			if v.Favorite != (v.ID == "42") {
				t.Errorf("unexpected favorite flag for %s", v.ID)
			}
		}

		if got := catalog.ByGenre("sci-fi"); len(got) != 2 {
			t.Errorf("expected 2 sci-fi movies, got %d", len(got))
		}
		if m, ok := catalog.Movie("7"); !ok || m.Director.Name != "Quentin Tarantino" {
			t.Errorf("unexpected movie lookup %+v", m)
		}
		if got := catalog.InSet(models.NewFavoriteSet("7", "gone")); len(got) != 1 || got[0].ID != "7" {
			t.Errorf("unexpected InSet %v", got)
		}
		if n := api.count("ListMovies"); n != 1 {
			t.Errorf("derived values must not call the network, got %d calls", n)
		}

		catalog.Reset()
		if catalog.State() != CatalogIdle || len(catalog.Movies()) != 0 {
			t.Error("expected reset to idle")
		}
	})

	t.Run("Load From Before Reset Is Discarded", func(t *testing.T) {
		api := newFakeAPI()
		api.hold("ListMovies")
		_, store := loggedIn()
		catalog := NewCatalog(api, store, nil)

		oldCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			_, err := catalog.Load(oldCtx)
			done <- err
		}()
		<-api.enter

		catalog.Reset()

		api.mu.Lock()
		delete(api.gates, "ListMovies")
		api.mu.Unlock()
		if _, err := catalog.Load(ctx); err != nil {
			t.Fatalf("fresh Load() error = %v", err)
		}

		cancel()
		<-done

		if catalog.State() != CatalogLoaded || len(catalog.Movies()) != 3 || catalog.Err() != nil {
			t.Errorf("stale load overwrote cache: state=%s movies=%d err=%v", catalog.State(), len(catalog.Movies()), catalog.Err())
		}
	})

	t.Run("Failure From Before Reset Is Discarded", func(t *testing.T) {
		api := newFakeAPI()
		api.hold("ListMovies")
		kv, store := loggedIn()
		catalog := NewCatalog(api, store, nil)

		oldCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			_, err := catalog.Load(oldCtx)
			done <- err
		}()
		<-api.enter

		catalog.Reset()
		cancel()
		if err := <-done; services.KindOf(err) != services.KindNetwork {
			t.Errorf("expected the caller to see Network, got %v", err)
		}
		if catalog.State() != CatalogIdle || catalog.Err() != nil {
			t.Errorf("expected idle after reset, got %s %v", catalog.State(), catalog.Err())
		}
		if keys := kv.Keys(); len(keys) != 2 {
			t.Errorf("session must be untouched, found %v", keys)
		}
	})
}

func TestSynchronizer(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, favorites ...string) (*fakeAPI, *repositories.MemoryKV, *repositories.Store, *Synchronizer) {
		t.Helper()
		api := newFakeAPI()
		api.user.FavoriteMovies = models.NewFavoriteSet(favorites...)
		kv, store := loggedIn(favorites...)
		sync := NewSynchronizer(api, store, nil)
		if err := sync.Init(ctx); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		return api, kv, store, sync
	}

	agree := func(t *testing.T, api *fakeAPI, store *repositories.Store, sync *Synchronizer, want models.FavoriteSet) {
		t.Helper()
		session, err := store.Read(ctx)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if !sync.Favorites().Equal(want) {
			t.Errorf("memory = %v, want %v", sync.Favorites(), want)
		}
		if !session.User.FavoriteMovies.Equal(want) {
			t.Errorf("persisted = %v, want %v", session.User.FavoriteMovies, want)
		}
		if !api.serverFavorites().Equal(want) {
			t.Errorf("server = %v, want %v", api.serverFavorites(), want)
		}
	}

	t.Run("Add From Empty", func(t *testing.T) {
		api, _, store, sync := setup(t)

		result, err := sync.Toggle(ctx, "42")
		if err != nil {
			t.Fatalf("Toggle() error = %v", err)
		}
		if !result.Favorite || result.Op() != OpAddFavorite {
			t.Errorf("unexpected result %+v", result)
		}
		if api.count("AddFavorite") != 1 || api.count("RemoveFavorite") != 0 {
			t.Error("expected addFavorite to be called")
		}
		agree(t, api, store, sync, models.NewFavoriteSet("42"))
		if n := NewNotice(result.Op(), nil); n.Message != MsgFavoriteAdded {
			t.Errorf("unexpected notice %q", n.Message)
		}
	})

	t.Run("Remove Existing", func(t *testing.T) {
		api, _, store, sync := setup(t, "42")

		result, err := sync.Toggle(ctx, "42")
		if err != nil {
			t.Fatalf("Toggle() error = %v", err)
		}
		if result.Favorite || result.Op() != OpRemoveFavorite {
			t.Errorf("unexpected result %+v", result)
		}
		if api.count("RemoveFavorite") != 1 {
			t.Error("expected removeFavorite to be called")
		}
		agree(t, api, store, sync, models.FavoriteSet{})
	})

	t.Run("Toggle Twice Restores State", func(t *testing.T) {
		api, _, store, sync := setup(t, "1")

		for i := 0; i < 2; i++ {
			if _, err := sync.Toggle(ctx, "42"); err != nil {
				t.Fatalf("Toggle() #%d error = %v", i+1, err)
			}
		}
		agree(t, api, store, sync, models.NewFavoriteSet("1"))
	})

	t.Run("Preserves Other User Fields", func(t *testing.T) {
		_, _, store, sync := setup(t)

		if _, err := sync.Toggle(ctx, "42"); err != nil {
			t.Fatalf("Toggle() error = %v", err)
		}
		session, _ := store.Read(ctx)
		if session.Token != "abc" || session.User.Email != "a@x.com" || session.User.ID != "u1" {
			t.Errorf("other fields changed: %+v", session)
		}
	})

	t.Run("Failure Leaves Everything Unchanged", func(t *testing.T) {
		for _, kind := range []*services.APIError{errServer, {Kind: services.KindNetwork, Message: "Network error"}, {Kind: services.KindNotFound, Status: 404, Message: "Movie not found"}} {
			t.Run(kind.Kind.String(), func(t *testing.T) {
				api, kv, _, sync := setup(t, "1")
				api.fail("AddFavorite", kind)

				before := snapshot(kv)
				memBefore := sync.Favorites()

				_, err := sync.Toggle(ctx, "42")
				if services.KindOf(err) != kind.Kind {
					t.Fatalf("expected %s, got %v", kind.Kind, err)
				}
				if !maps.Equal(before, snapshot(kv)) {
					t.Errorf("store changed: %v -> %v", before, snapshot(kv))
				}
				if !sync.Favorites().Equal(memBefore) {
					t.Errorf("memory changed: %v -> %v", memBefore, sync.Favorites())
				}
				if sync.Pending("42") {
					t.Error("failed toggle must not stay pending")
				}
			})
		}
	})

	t.Run("Unauthorized Invalidates Session", func(t *testing.T) {
		api, kv, _, sync := setup(t)
		api.fail("AddFavorite", errUnauthorized)

		_, err := sync.Toggle(ctx, "42")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
		if keys := kv.Keys(); len(keys) != 0 {
			t.Errorf("expected session cleared, found %v", keys)
		}
	})

	t.Run("Rejects Overlapping Toggle", func(t *testing.T) {
		api, _, store, sync := setup(t)
		release := api.hold("AddFavorite")

		done := make(chan error, 1)
		go func() {
			_, err := sync.Toggle(ctx, "42")
			done <- err
		}()
		<-api.enter

		if !sync.Pending("42") {
			t.Error("expected toggle to be pending")
		}
		if _, err := sync.Toggle(ctx, "42"); !errors.Is(err, shared.ErrToggleInProgress) {
			t.Errorf("expected ErrToggleInProgress, got %v", err)
		}
		if n := api.count("AddFavorite"); n != 1 {
			t.Errorf("overlapping toggle must not call the API, got %d calls", n)
		}

		release()
		if err := <-done; err != nil {
			t.Fatalf("Toggle() error = %v", err)
		}
		agree(t, api, store, sync, models.NewFavoriteSet("42"))
	})

	t.Run("Different Movies May Overlap", func(t *testing.T) {
		api, _, store, sync := setup(t)
		release := api.hold("AddFavorite")

		done := make(chan error, 2)
		for _, id := range []string{"1", "42"} {
			go func() {
				_, err := sync.Toggle(ctx, id)
				done <- err
			}()
			<-api.enter
		}
		release()

		for i := 0; i < 2; i++ {
			if err := <-done; err != nil {
				t.Fatalf("Toggle() error = %v", err)
			}
		}
		agree(t, api, store, sync, models.NewFavoriteSet("1", "42"))
	})

	t.Run("Missing Array Treated As Empty", func(t *testing.T) {
		api := newFakeAPI()
		kv := repositories.NewMemoryKV()
		kv.Set(ctx, map[string]string{
			repositories.TokenKey: "abc",
			repositories.UserKey:  `{"Username":"alice","Email":"a@x.com"}`,
		})
		store := repositories.NewStore(kv, nil)
		sync := NewSynchronizer(api, store, nil)
		if err := sync.Init(ctx); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := sync.Toggle(ctx, "42"); err != nil {
			t.Fatalf("Toggle() error = %v", err)
		}
		agree(t, api, store, sync, models.NewFavoriteSet("42"))
	})

	t.Run("Requires Session", func(t *testing.T) {
		sync := NewSynchronizer(newFakeAPI(), repositories.NewMemoryStore(), nil)
		if err := sync.Init(ctx); !errors.Is(err, shared.ErrNoSession) {
			t.Errorf("expected ErrNoSession from Init, got %v", err)
		}
		if _, err := sync.Toggle(ctx, "42"); !errors.Is(err, shared.ErrNoSession) {
			t.Errorf("expected ErrNoSession, got %v", err)
		}
		if _, err := sync.Toggle(ctx, ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Cancelled View Still Persists Server Change", func(t *testing.T) {
		api, _, store, sync := setup(t)

		tctx, cancel := context.WithCancel(ctx)
		defer cancel()
		api.after = func(string) { cancel() }

		if _, err := sync.Toggle(tctx, "42"); err != nil {
			t.Fatalf("Toggle() error = %v", err)
		}
		agree(t, api, store, sync, models.NewFavoriteSet("42"))
	})
}

func TestProfile(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, favorites ...string) (*fakeAPI, *repositories.MemoryKV, *repositories.Store, *Profile) {
		t.Helper()
		api := newFakeAPI()
		api.user.FavoriteMovies = models.NewFavoriteSet(favorites...)
		kv, store := loggedIn(favorites...)
		catalog := NewCatalog(api, store, nil)
		profile := NewProfile(api, store, catalog, NewSynchronizer(api, store, nil), nil)
		return api, kv, store, profile
	}

	agree := func(t *testing.T, api *fakeAPI, store *repositories.Store, sync *Synchronizer, want models.FavoriteSet) {
		t.Helper()
		session, err := store.Read(ctx)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if !sync.Favorites().Equal(want) {
			t.Errorf("memory = %v, want %v", sync.Favorites(), want)
		}
		if !session.User.FavoriteMovies.Equal(want) {
			t.Errorf("persisted = %v, want %v", session.User.FavoriteMovies, want)
		}
		if !api.serverFavorites().Equal(want) {
			t.Errorf("server = %v, want %v", api.serverFavorites(), want)
		}
	}

	t.Run("Activate Drops Stale Favorites From Display", func(t *testing.T) {
		_, _, store, profile := setup(t, "42", "gone")

		view, err := profile.Activate(ctx)
		if err != nil {
			t.Fatalf("Activate() error = %v", err)
		}
		if len(view.Favorites) != 1 || view.Favorites[0].ID != "42" {
			t.Errorf("expected only catalog favorites displayed, got %v", view.Favorites)
		}

		session, _ := store.Read(ctx)
		if !session.User.FavoriteMovies.Has("gone") {
			t.Error("stale ids must stay persisted")
		}
		if !profile.Loaded() {
			t.Error("expected profile loaded")
		}
	})

	t.Run("Activate Order", func(t *testing.T) {
		api, _, _, profile := setup(t)
		if _, err := profile.Activate(ctx); err != nil {
			t.Fatalf("Activate() error = %v", err)
		}
		if len(api.calls) != 2 || api.calls[0] != "GetUser" || api.calls[1] != "ListMovies" {
			t.Errorf("expected GetUser then ListMovies, got %v", api.calls)
		}
	})

	t.Run("Activate Without Session", func(t *testing.T) {
		api := newFakeAPI()
		store := repositories.NewMemoryStore()
		profile := NewProfile(api, store, NewCatalog(api, store, nil), NewSynchronizer(api, store, nil), nil)

		if _, err := profile.Activate(ctx); !errors.Is(err, shared.ErrNoSession) {
			t.Errorf("expected ErrNoSession, got %v", err)
		}
		if len(api.calls) != 0 {
			t.Errorf("expected no API calls, got %v", api.calls)
		}
	})

	t.Run("Toggle Reflected In View", func(t *testing.T) {
		_, _, _, profile := setup(t, "42")
		profile.Activate(ctx)

		if _, err := profile.Toggle(ctx, "42"); err != nil {
			t.Fatalf("Toggle() error = %v", err)
		}
		if view := profile.View(); len(view.Favorites) != 0 || view.User.FavoriteMovies.Len() != 0 {
			t.Errorf("expected favorite removed from view, got %+v", view)
		}
	})

	t.Run("Update Overwrites Stored User Verbatim", func(t *testing.T) {
		api, _, store, profile := setup(t, "42")
		profile.Activate(ctx)

		updated, err := profile.Update(ctx, services.UpdateUserRequest{Username: "alice2", Password: "new", Email: "new@x.com", Birthday: "1991-02-03"})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.Username != "alice2" {
			t.Errorf("unexpected updated user %+v", updated)
		}

		session, _ := store.Read(ctx)
		if session.Token != "abc" {
			t.Error("token must be kept")
		}
		if session.User.Username != "alice2" || session.User.Email != "new@x.com" || session.User.Birthday.String() != "1991-02-03" {
			t.Errorf("stored user not overwritten: %+v", session.User)
		}
		if session.User.Password != "" {
			t.Error("password must not be stored")
		}

		if _, err := profile.Toggle(ctx, "7"); err != nil {
			t.Fatalf("Toggle() after rename error = %v", err)
		}
		if !api.serverFavorites().Has("7") {
			t.Error("expected toggle under the new username")
		}
	})

	t.Run("Update Validation Fails Before Request", func(t *testing.T) {
		api, kv, _, profile := setup(t)
		profile.Activate(ctx)
		before := snapshot(kv)

		_, err := profile.Update(ctx, services.UpdateUserRequest{Username: "alice", Email: "not-an-email"})
		if services.KindOf(err) != services.KindValidation {
			t.Fatalf("expected Validation, got %v", err)
		}
		if api.count("UpdateUser") != 0 {
			t.Error("invalid input must not reach the API")
		}
		if !maps.Equal(before, snapshot(kv)) {
			t.Error("store changed after validation failure")
		}
	})

	t.Run("Update Failure Leaves Store", func(t *testing.T) {
		api, kv, _, profile := setup(t)
		profile.Activate(ctx)
		api.fail("UpdateUser", errServer)
		before := snapshot(kv)

		if _, err := profile.Update(ctx, services.UpdateUserRequest{Username: "alice", Email: "b@x.com"}); err == nil {
			t.Fatal("expected error")
		}
		if !maps.Equal(before, snapshot(kv)) {
			t.Error("store changed after failed update")
		}
	})

	t.Run("Concurrent Update Rejected", func(t *testing.T) {
		api, _, _, profile := setup(t)
		profile.Activate(ctx)
		release := api.hold("UpdateUser")

		done := make(chan error, 1)
		go func() {
			_, err := profile.Update(ctx, services.UpdateUserRequest{Username: "alice", Email: "b@x.com"})
			done <- err
		}()
		<-api.enter

		if !profile.Updating() {
			t.Error("expected update in flight")
		}
		if _, err := profile.Update(ctx, services.UpdateUserRequest{Username: "alice", Email: "c@x.com"}); !errors.Is(err, shared.ErrUpdateInProgress) {
			t.Errorf("expected ErrUpdateInProgress, got %v", err)
		}

		release()
		if err := <-done; err != nil {
			t.Fatalf("Update() error = %v", err)
		}
	})

	t.Run("Update Before Activate", func(t *testing.T) {
		_, _, _, profile := setup(t)
		if _, err := profile.Update(ctx, services.UpdateUserRequest{Username: "alice", Email: "a@x.com"}); !errors.Is(err, shared.ErrNotLoaded) {
			t.Errorf("expected ErrNotLoaded, got %v", err)
		}
	})

	t.Run("Delete Clears Both Keys", func(t *testing.T) {
		_, kv, store, profile := setup(t, "42")
		profile.Activate(ctx)

		if err := profile.Delete(ctx); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if keys := kv.Keys(); len(keys) != 0 {
			t.Errorf("expected both keys cleared, found %v", keys)
		}
		if _, err := store.Read(ctx); !errors.Is(err, shared.ErrNoSession) {
			t.Errorf("expected absent session, got %v", err)
		}
		if !profile.Deleted() || profile.Loaded() {
			t.Error("expected deleted profile")
		}
		if view := profile.View(); view.User.Username != "" || len(view.Favorites) != 0 {
			t.Errorf("deleted profile must not expose user data, got %+v", view)
		}
	})

	t.Run("Toggle During Activate Survives", func(t *testing.T) {
		api, _, store, _ := setup(t)
		sync := NewSynchronizer(api, store, nil)
		if err := sync.Init(ctx); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		profile := NewProfile(api, store, NewCatalog(api, store, nil), sync, nil)

		release := api.hold("ListMovies")
		done := make(chan error, 1)
		go func() {
			_, err := profile.Activate(ctx)
			done <- err
		}()
		<-api.enter

		if _, err := sync.Toggle(ctx, "42"); err != nil {
			t.Fatalf("Toggle() error = %v", err)
		}
		release()
		if err := <-done; err != nil {
			t.Fatalf("Activate() error = %v", err)
		}

		agree(t, api, store, sync, models.NewFavoriteSet("42"))
		if view := profile.View(); len(view.Favorites) != 1 || view.Favorites[0].ID != "42" {
			t.Errorf("expected toggled movie in view, got %v", view.Favorites)
		}
	})

	t.Run("Toggle Pending Across Activate Survives", func(t *testing.T) {
		api, _, store, _ := setup(t)
		sync := NewSynchronizer(api, store, nil)
		if err := sync.Init(ctx); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		profile := NewProfile(api, store, NewCatalog(api, store, nil), sync, nil)

		release := api.hold("AddFavorite")
		done := make(chan error, 1)
		go func() {
			_, err := sync.Toggle(ctx, "42")
			done <- err
		}()
		<-api.enter

		if _, err := profile.Activate(ctx); err != nil {
			t.Fatalf("Activate() error = %v", err)
		}
		release()
		if err := <-done; err != nil {
			t.Fatalf("Toggle() error = %v", err)
		}

		agree(t, api, store, sync, models.NewFavoriteSet("42"))
	})

	t.Run("Toggle During Update Survives", func(t *testing.T) {
		api, _, store, _ := setup(t)
		sync := NewSynchronizer(api, store, nil)
		profile := NewProfile(api, store, NewCatalog(api, store, nil), sync, nil)
		if _, err := profile.Activate(ctx); err != nil {
			t.Fatalf("Activate() error = %v", err)
		}

		release := api.hold("UpdateUser")
		done := make(chan error, 1)
		go func() {
			_, err := profile.Update(ctx, services.UpdateUserRequest{Username: "alice", Email: "b@x.com"})
			done <- err
		}()
		<-api.enter

		if _, err := sync.Toggle(ctx, "7"); err != nil {
			t.Fatalf("Toggle() error = %v", err)
		}
		// the response reflects the account as it was before the toggle
		api.mu.Lock()
		api.user.FavoriteMovies = models.FavoriteSet{}
		api.mu.Unlock()
		release()
		if err := <-done; err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		session, _ := store.Read(ctx)
		if session.User.Email != "b@x.com" {
			t.Errorf("expected updated email stored, got %s", session.User.Email)
		}
		if !sync.Favorites().Has("7") || !session.User.FavoriteMovies.Has("7") {
			t.Errorf("toggle lost: memory=%v persisted=%v", sync.Favorites(), session.User.FavoriteMovies)
		}
	})

	t.Run("Delete Failure Keeps Session", func(t *testing.T) {
		api, kv, _, profile := setup(t)
		profile.Activate(ctx)
		api.fail("DeleteUser", errServer)
		before := snapshot(kv)

		if err := profile.Delete(ctx); err == nil {
			t.Fatal("expected error")
		}
		if !maps.Equal(before, snapshot(kv)) {
			t.Error("session must survive a failed delete")
		}
		if profile.Deleted() {
			t.Error("profile must not be marked deleted")
		}
	})
}

func TestNewNotice(t *testing.T) {
	tc := []struct {
		name string
		op   Operation
		err  error
		want string
	}{
		{name: "login ok", op: OpLogin, want: MsgLoggedIn},
		{name: "register ok", op: OpRegister, want: MsgRegistered},
		{name: "update ok", op: OpUpdateProfile, want: MsgProfileUpdated},
		{name: "delete ok", op: OpDeleteProfile, want: MsgProfileDeleted},
		{name: "remove ok", op: OpRemoveFavorite, want: MsgFavoriteRemoved},
		{name: "server message", op: OpAddFavorite, err: &services.APIError{Kind: services.KindNotFound, Message: "Movie not found"}, want: "Movie not found"},
		{name: "busy", op: OpAddFavorite, err: shared.ErrToggleInProgress, want: MsgActionInProgress},
		{name: "no session", op: OpLoadProfile, err: shared.ErrNoSession, want: MsgSessionExpired},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNotice(tt.op, tt.err)
			if n.Message != tt.want {
				t.Errorf("NewNotice() = %q, want %q", n.Message, tt.want)
			}
			if n.Failed() != (tt.err != nil) {
				t.Errorf("Failed() = %v", n.Failed())
			}
		})
	}
}
