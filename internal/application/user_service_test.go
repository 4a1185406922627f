package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

// userRepositoryStub provides an in-memory UserRepository for tests.
type userRepositoryStub struct {
	usersByID map[string]User
	hashes    map[string]string

	createErr error
	getErr    error
	updateErr error
	deleteErr error
	listErr   error
}

func newUserRepositoryStub() *userRepositoryStub {
	return &userRepositoryStub{
		usersByID: make(map[string]User),
		hashes:    make(map[string]string),
	}
}

func (r *userRepositoryStub) seed(user User, hash string) {
	r.usersByID[user.ID] = user
	r.hashes[user.ID] = hash
}

func (r *userRepositoryStub) CreateUser(ctx context.Context, user User, passwordHash string) (User, error) {
	if r.createErr != nil {
		return User{}, r.createErr
	}
	r.seed(user, passwordHash)
	return user, nil
}

func (r *userRepositoryStub) GetUser(ctx context.Context, id string) (User, error) {
	if r.getErr != nil {
		return User{}, r.getErr
	}
	user, ok := r.usersByID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *userRepositoryStub) UpdateUser(ctx context.Context, user User, passwordHash string) (User, error) {
	if r.updateErr != nil {
		return User{}, r.updateErr
	}
	if _, ok := r.usersByID[user.ID]; !ok {
		return User{}, ErrNotFound
	}
	r.seed(user, passwordHash)
	return user, nil
}

func (r *userRepositoryStub) DeleteUser(ctx context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.usersByID[id]; !ok {
		return ErrNotFound
	}
	delete(r.usersByID, id)
	delete(r.hashes, id)
	return nil
}

func (r *userRepositoryStub) ListUsers(ctx context.Context) ([]User, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]User, 0, len(r.usersByID))
	for _, user := range r.usersByID {
		out = append(out, user)
	}
	return out, nil
}

func (r *userRepositoryStub) GetPasswordHash(ctx context.Context, id string) (string, error) {
	hash, ok := r.hashes[id]
	if !ok {
		return "", ErrNotFound
	}
	return hash, nil
}

func plainHasher(password string) (string, error) {
	return "hashed:" + password, nil
}

func TestUserService_CreateUser(t *testing.T) {
	t.Parallel()

	admin := Principal{UserID: "admin", IsAdmin: true}
	fixedNow := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

	t.Run("creates users with a hashed password", func(t *testing.T) {
		t.Parallel()

		repo := newUserRepositoryStub()
		svc := NewUserService(repo, plainHasher, func() string { return "user-1" }, func() time.Time { return fixedNow })

		created, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: admin,
			Input: UserInput{
				Email:       "  Asha@Example.com ",
				DisplayName: " Asha ",
				Password:    "correct horse",
				Timezone:    "Asia/Kolkata",
			},
		})
		if err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}

		if created.ID != "user-1" {
			t.Fatalf("expected generated ID, got %q", created.ID)
		}
		if created.Email != "asha@example.com" {
			t.Fatalf("expected normalized email, got %q", created.Email)
		}
		if created.DisplayName != "Asha" {
			t.Fatalf("expected trimmed display name, got %q", created.DisplayName)
		}
		if !created.CreatedAt.Equal(fixedNow) || !created.UpdatedAt.Equal(fixedNow) {
			t.Fatalf("expected clock timestamps, got %v / %v", created.CreatedAt, created.UpdatedAt)
		}
		if repo.hashes["user-1"] != "hashed:correct horse" {
			t.Fatalf("expected stored hash, got %q", repo.hashes["user-1"])
		}
	})

	t.Run("rejects non-admin callers", func(t *testing.T) {
		t.Parallel()

		svc := NewUserService(newUserRepositoryStub(), plainHasher, nil, nil)

		_, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: Principal{UserID: "user-2"},
			Input:     UserInput{Email: "a@example.com", DisplayName: "A", Password: "long enough"},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("collects field errors", func(t *testing.T) {
		t.Parallel()

		svc := NewUserService(newUserRepositoryStub(), plainHasher, nil, nil)

		_, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: admin,
			Input: UserInput{
				Email:       "not-an-email",
				DisplayName: "  ",
				Password:    "short",
				Timezone:    "Mars/Olympus",
			},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"email", "display_name", "password", "timezone"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Errorf("expected a field error for %s, got %#v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("propagates repository failures", func(t *testing.T) {
		t.Parallel()

		expected := errors.New("boom")
		repo := newUserRepositoryStub()
		repo.createErr = expected
		svc := NewUserService(repo, plainHasher, nil, nil)

		_, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: admin,
			Input:     UserInput{Email: "a@example.com", DisplayName: "A", Password: "long enough"},
		})
		if !errors.Is(err, expected) {
			t.Fatalf("expected %v, got %v", expected, err)
		}
	})
}

func TestUserService_UpdateUser(t *testing.T) {
	t.Parallel()

	admin := Principal{UserID: "admin", IsAdmin: true}
	fixedNow := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

	seedUser := func(repo *userRepositoryStub) User {
		user := User{
			ID:          "user-1",
			Email:       "asha@example.com",
			DisplayName: "Asha",
			Timezone:    "Asia/Kolkata",
			CreatedAt:   fixedNow.Add(-24 * time.Hour),
			UpdatedAt:   fixedNow.Add(-24 * time.Hour),
		}
		repo.seed(user, "hashed:original")
		return user
	}

	t.Run("keeps the password when none is supplied", func(t *testing.T) {
		t.Parallel()

		repo := newUserRepositoryStub()
		seedUser(repo)
		svc := NewUserService(repo, plainHasher, nil, func() time.Time { return fixedNow })

		updated, err := svc.UpdateUser(context.Background(), UpdateUserParams{
			Principal: admin,
			UserID:    "user-1",
			Input:     UserInput{Email: "asha@example.com", DisplayName: "Asha Rao", Timezone: "Asia/Kolkata"},
		})
		if err != nil {
			t.Fatalf("UpdateUser failed: %v", err)
		}

		if updated.DisplayName != "Asha Rao" {
			t.Fatalf("expected updated display name, got %q", updated.DisplayName)
		}
		if !updated.UpdatedAt.Equal(fixedNow) {
			t.Fatalf("expected UpdatedAt to advance, got %v", updated.UpdatedAt)
		}
		if repo.hashes["user-1"] != "hashed:original" {
			t.Fatalf("expected the stored hash to survive, got %q", repo.hashes["user-1"])
		}
	})

	t.Run("rotates the password when supplied", func(t *testing.T) {
		t.Parallel()

		repo := newUserRepositoryStub()
		seedUser(repo)
		svc := NewUserService(repo, plainHasher, nil, func() time.Time { return fixedNow })

		_, err := svc.UpdateUser(context.Background(), UpdateUserParams{
			Principal: admin,
			UserID:    "user-1",
			Input:     UserInput{Email: "asha@example.com", DisplayName: "Asha", Password: "rotated password"},
		})
		if err != nil {
			t.Fatalf("UpdateUser failed: %v", err)
		}
		if repo.hashes["user-1"] != "hashed:rotated password" {
			t.Fatalf("expected rotated hash, got %q", repo.hashes["user-1"])
		}
	})

	t.Run("returns not found for unknown users", func(t *testing.T) {
		t.Parallel()

		svc := NewUserService(newUserRepositoryStub(), plainHasher, nil, nil)

		_, err := svc.UpdateUser(context.Background(), UpdateUserParams{
			Principal: admin,
			UserID:    "missing",
			Input:     UserInput{Email: "a@example.com", DisplayName: "A"},
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("rejects non-admin callers", func(t *testing.T) {
		t.Parallel()

		repo := newUserRepositoryStub()
		seedUser(repo)
		svc := NewUserService(repo, plainHasher, nil, nil)

		_, err := svc.UpdateUser(context.Background(), UpdateUserParams{
			Principal: Principal{UserID: "user-1"},
			UserID:    "user-1",
			Input:     UserInput{Email: "asha@example.com", DisplayName: "Asha"},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestUserService_GetUser(t *testing.T) {
	t.Parallel()

	repo := newUserRepositoryStub()
	repo.seed(User{ID: "user-1", Email: "asha@example.com"}, "hash")
	svc := NewUserService(repo, plainHasher, nil, nil)

	t.Run("lets users fetch themselves", func(t *testing.T) {
		t.Parallel()

		user, err := svc.GetUser(context.Background(), Principal{UserID: "user-1"}, "user-1")
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if user.Email != "asha@example.com" {
			t.Fatalf("unexpected user: %#v", user)
		}
	})

	t.Run("lets admins fetch anyone", func(t *testing.T) {
		t.Parallel()

		if _, err := svc.GetUser(context.Background(), Principal{UserID: "admin", IsAdmin: true}, "user-1"); err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
	})

	t.Run("rejects other users", func(t *testing.T) {
		t.Parallel()

		_, err := svc.GetUser(context.Background(), Principal{UserID: "user-2"}, "user-1")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	t.Parallel()

	t.Run("deletes for admins", func(t *testing.T) {
		t.Parallel()

		repo := newUserRepositoryStub()
		repo.seed(User{ID: "user-1"}, "hash")
		svc := NewUserService(repo, plainHasher, nil, nil)

		if err := svc.DeleteUser(context.Background(), Principal{IsAdmin: true}, "user-1"); err != nil {
			t.Fatalf("DeleteUser failed: %v", err)
		}
		if _, ok := repo.usersByID["user-1"]; ok {
			t.Fatalf("expected user to be removed")
		}
	})

	t.Run("rejects non-admins", func(t *testing.T) {
		t.Parallel()

		svc := NewUserService(newUserRepositoryStub(), plainHasher, nil, nil)
		if err := svc.DeleteUser(context.Background(), Principal{UserID: "user-1"}, "user-1"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("returns not found for unknown ids", func(t *testing.T) {
		t.Parallel()

		svc := NewUserService(newUserRepositoryStub(), plainHasher, nil, nil)
		if err := svc.DeleteUser(context.Background(), Principal{IsAdmin: true}, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestUserService_ListUsers(t *testing.T) {
	t.Parallel()

	t.Run("sorts by email case-insensitively", func(t *testing.T) {
		t.Parallel()

		repo := newUserRepositoryStub()
		repo.seed(User{ID: "u3", Email: "Zed@example.com"}, "h")
		repo.seed(User{ID: "u1", Email: "asha@example.com"}, "h")
		repo.seed(User{ID: "u2", Email: "Meera@example.com"}, "h")
		svc := NewUserService(repo, plainHasher, nil, nil)

		users, err := svc.ListUsers(context.Background(), Principal{UserID: "u1"})
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}

		got := make([]string, 0, len(users))
		for _, user := range users {
			got = append(got, user.ID)
		}
		want := []string{"u1", "u2", "u3"}
		if len(got) != len(want) {
			t.Fatalf("expected %d users, got %d", len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected order %v, got %v", want, got)
			}
		}
	})

	t.Run("rejects anonymous callers", func(t *testing.T) {
		t.Parallel()

		svc := NewUserService(newUserRepositoryStub(), plainHasher, nil, nil)
		if _, err := svc.ListUsers(context.Background(), Principal{}); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}
