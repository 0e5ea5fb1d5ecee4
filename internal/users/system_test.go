package users_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/panolabel/panolabel/internal/users"
	"github.com/panolabel/panolabel/pkg/lifecycle"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func seededSystem(t *testing.T) (*users.System, *users.MemoryStore) {
	t.Helper()

	store := users.NewMemoryStore()
	sys := users.NewSystem(store, testLogger())

	lc := lifecycle.New()
	sys.Start(lc)
	lc.WaitForStartup()

	return sys, store
}

func TestAuthenticate(t *testing.T) {
	sys, _ := seededSystem(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		username  string
		password  string
		wantAdmin bool
		wantErr   error
	}{
		{name: "admin", username: "admin", password: "admin123", wantAdmin: true},
		{name: "annotator", username: "annotator", password: "anno123"},
		{name: "wrong password", username: "admin", password: "nope", wantErr: users.ErrInvalidCredentials},
		{name: "unknown user", username: "ghost", password: "admin123", wantErr: users.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := sys.Authenticate(ctx, users.Credentials{
				Username: tt.username,
				Password: tt.password,
			})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("authenticate failed: %v", err)
			}
			if u.IsAdmin != tt.wantAdmin {
				t.Errorf("got isAdmin=%v, want %v", u.IsAdmin, tt.wantAdmin)
			}
			if u.Username != tt.username {
				t.Errorf("got username %q, want %q", u.Username, tt.username)
			}
		})
	}
}

func TestSeedSkipsPopulatedStore(t *testing.T) {
	store := users.NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Insert(ctx, users.User{Username: "existing", Password: "pw"}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	sys := users.NewSystem(store, testLogger())
	lc := lifecycle.New()
	sys.Start(lc)
	lc.WaitForStartup()

	count, err := sys.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("got %d users, want 1; seeding should not touch a populated store", count)
	}
}

func TestSeedDefaultAccounts(t *testing.T) {
	sys, store := seededSystem(t)
	ctx := context.Background()

	count, err := sys.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("got %d users, want 2", count)
	}

	admin, err := store.FindByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("admin account missing: %v", err)
	}
	if !admin.IsAdmin {
		t.Error("admin account not flagged as admin")
	}

	found, err := sys.Find(ctx, admin.ID.String())
	if err != nil {
		t.Fatalf("find by id failed: %v", err)
	}
	if found.Username != "admin" {
		t.Errorf("got username %q, want admin", found.Username)
	}
}
