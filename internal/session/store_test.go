package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"library-client/internal/domain"
	"library-client/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *testutil.MockLibraryAPI, *testutil.MockSessionRepository) {
	t.Helper()
	api := testutil.NewMockLibraryAPI(testutil.NewSeededLibrary(t))
	repo := testutil.NewMockSessionRepository()
	store := NewStore(api, WithRepository(repo))
	api.SetTokenSource(store)
	return store, api, repo
}

func TestStore_SignIn(t *testing.T) {
	store, _, repo := newTestStore(t)

	sess, err := store.SignIn(context.Background(), domain.Credentials{Username: "admin", Password: "admin123"})
	require.NoError(t, err)

	assert.True(t, sess.Authenticated())
	assert.True(t, sess.IsAdmin)
	assert.Equal(t, "Library Admin", sess.DisplayName)
	assert.NotZero(t, sess.UserID)
	assert.Equal(t, sess, store.Current())
	assert.Equal(t, sess.Token, store.Token())

	require.NotNil(t, repo.Current())
	assert.Equal(t, sess.Token, repo.Current().Token)
}

func TestStore_SignInFailureKeepsState(t *testing.T) {
	store, api, _ := newTestStore(t)

	before, err := store.SignIn(context.Background(), domain.Credentials{Username: "reader", Password: "reader123"})
	require.NoError(t, err)

	_, err = store.SignIn(context.Background(), domain.Credentials{Username: "reader", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Equal(t, before, store.Current())

	t.Run("blank credentials never reach the api", func(t *testing.T) {
		api.Reset()
		_, err := store.SignIn(context.Background(), domain.Credentials{Username: "  ", Password: "x"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		assert.Zero(t, api.TotalCalls())
	})
}

func TestStore_SignInFetchesMissingUserID(t *testing.T) {
	store, api, _ := newTestStore(t)
	api.LoginFunc = func(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
		token, _, err := api.Lib.Login(creds.Username, creds.Password)
		if err != nil {
			return nil, err
		}
		return &domain.Session{Token: token, Username: creds.Username}, nil
	}

	sess, err := store.SignIn(context.Background(), domain.Credentials{Username: "reader", Password: "reader123"})
	require.NoError(t, err)

	assert.Equal(t, 1, api.Calls("Profile"))
	assert.NotZero(t, sess.UserID)
	assert.Equal(t, "Avid Reader", sess.DisplayName)
}

func TestStore_SignInProfileIdentity(t *testing.T) {
	loginWithoutID := func(api *testutil.MockLibraryAPI) func(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
		return func(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
			token, _, err := api.Lib.Login(creds.Username, creds.Password)
			if err != nil {
				return nil, err
			}
			return &domain.Session{Token: token, Username: creds.Username}, nil
		}
	}

	t.Run("profile key is not the user id", func(t *testing.T) {
		store, api, _ := newTestStore(t)
		api.LoginFunc = loginWithoutID(api)
		api.ProfileFunc = func(ctx context.Context) (*domain.Profile, error) {
			return &domain.Profile{ID: 77, FullName: "Avid Reader"}, nil
		}

		sess, err := store.SignIn(context.Background(), domain.Credentials{Username: "reader", Password: "reader123"})
		require.NoError(t, err)
		assert.Zero(t, sess.UserID)
		assert.Equal(t, "Avid Reader", sess.DisplayName)
	})

	t.Run("rejected profile fails the sign in", func(t *testing.T) {
		store, api, repo := newTestStore(t)
		api.LoginFunc = loginWithoutID(api)
		api.ProfileFunc = func(ctx context.Context) (*domain.Profile, error) {
			return nil, domain.ErrUnauthenticated
		}

		sess, err := store.SignIn(context.Background(), domain.Credentials{Username: "reader", Password: "reader123"})
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		assert.False(t, sess.Authenticated())
		assert.False(t, store.Current().Authenticated())
		assert.Nil(t, repo.Current())
	})

	t.Run("other profile failures keep the session", func(t *testing.T) {
		store, api, _ := newTestStore(t)
		api.LoginFunc = loginWithoutID(api)
		api.ProfileFunc = func(ctx context.Context) (*domain.Profile, error) {
			return nil, domain.ErrUnknown
		}

		sess, err := store.SignIn(context.Background(), domain.Credentials{Username: "reader", Password: "reader123"})
		require.NoError(t, err)
		assert.True(t, sess.Authenticated())
		assert.Zero(t, sess.UserID)
	})
}

func TestStore_SignUp(t *testing.T) {
	store, _, repo := newTestStore(t)

	sess, err := store.SignUp(context.Background(), domain.Signup{
		Username: "newbie",
		Password: "pass1234",
		FullName: "New Reader",
	})
	require.NoError(t, err)

	assert.True(t, sess.Authenticated())
	assert.False(t, sess.IsAdmin)
	assert.Equal(t, "newbie", sess.Username)
	assert.NotNil(t, repo.Current())

	_, err = store.SignUp(context.Background(), domain.Signup{Username: "", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_SignOutIsIdempotent(t *testing.T) {
	store, _, repo := newTestStore(t)
	ctx := context.Background()

	_, err := store.SignIn(ctx, domain.Credentials{Username: "reader", Password: "reader123"})
	require.NoError(t, err)

	store.SignOut(ctx)
	assert.False(t, store.Current().Authenticated())
	assert.Nil(t, repo.Current())

	store.SignOut(ctx)
	assert.Equal(t, domain.Session{}, store.Current())
}

func TestStore_Check(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		err          error
		wantFailure  bool
		wantSignedIn bool
	}{
		{"unauthenticated", domain.ErrUnauthenticated, true, false},
		{"unauthorized", domain.ErrUnauthorized, true, false},
		{"wrapped", errors.Join(errors.New("borrow"), domain.ErrUnauthenticated), true, false},
		{"business rule", domain.ErrAlreadyBorrowed, false, true},
		{"nil", nil, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _, repo := newTestStore(t)
			sess, err := store.SignIn(ctx, domain.Credentials{Username: "reader", Password: "reader123"})
			require.NoError(t, err)

			got := store.Check(ctx, sess.Token, tt.err)

			assert.Equal(t, tt.wantFailure, got)
			assert.Equal(t, tt.wantSignedIn, store.Current().Authenticated())
			assert.Equal(t, tt.wantSignedIn, repo.Current() != nil)
		})
	}
}

func TestStore_CheckIgnoresNewerSession(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	old, err := store.SignIn(ctx, domain.Credentials{Username: "reader", Password: "reader123"})
	require.NoError(t, err)
	current, err := store.SignIn(ctx, domain.Credentials{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	require.NotEqual(t, old.Token, current.Token)

	assert.True(t, store.Check(ctx, old.Token, domain.ErrUnauthenticated))
	assert.Equal(t, current, store.Current())
}

func TestStore_Refresh(t *testing.T) {
	store, api, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Refresh(ctx)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Zero(t, api.Calls("Profile"))

	sess, err := store.SignIn(ctx, domain.Credentials{Username: "reader", Password: "reader123"})
	require.NoError(t, err)

	t.Run("revoked token ends the session", func(t *testing.T) {
		api.Lib.RevokeToken(sess.Token)

		_, err := store.Refresh(ctx)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		assert.False(t, store.Current().Authenticated())
	})
}

func TestStore_Restore(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing stored", func(t *testing.T) {
		store, _, _ := newTestStore(t)
		sess, err := store.Restore(ctx)
		require.NoError(t, err)
		assert.False(t, sess.Authenticated())
	})

	t.Run("stored session", func(t *testing.T) {
		store, _, repo := newTestStore(t)
		saved := testutil.NewTestSession(testutil.WithAdmin())
		require.NoError(t, repo.Save(ctx, saved))

		sess, err := store.Restore(ctx)
		require.NoError(t, err)
		assert.Equal(t, *saved, sess)
		assert.Equal(t, saved.Token, store.Token())
	})

	t.Run("storage failure", func(t *testing.T) {
		store, _, repo := newTestStore(t)
		repo.LoadFunc = func(ctx context.Context) (*domain.Session, error) {
			return nil, errors.New("disk on fire")
		}
		_, err := store.Restore(ctx)
		assert.Error(t, err)
	})

	t.Run("no repository", func(t *testing.T) {
		store := NewStore(testutil.NewMockLibraryAPI(testutil.NewTestLibrary(t)))
		sess, err := store.Restore(ctx)
		require.NoError(t, err)
		assert.False(t, sess.Authenticated())
	})
}

func TestStore_PersistFailureKeepsSession(t *testing.T) {
	store, _, repo := newTestStore(t)
	repo.SaveFunc = func(ctx context.Context, s *domain.Session) error {
		return errors.New("read-only filesystem")
	}

	sess, err := store.SignIn(context.Background(), domain.Credentials{Username: "reader", Password: "reader123"})
	require.NoError(t, err)
	assert.Equal(t, sess, store.Current())
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	sess, err := store.SignIn(ctx, domain.Credentials{Username: "reader", Password: "reader123"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Current()
			_ = store.Token()
		}()
		go func() {
			defer wg.Done()
			store.Check(ctx, sess.Token, domain.ErrUnauthenticated)
		}()
	}
	wg.Wait()

	assert.False(t, store.Current().Authenticated())
}
