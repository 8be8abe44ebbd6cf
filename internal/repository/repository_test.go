package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/iliyamo/event-checkin/internal/model"
)

// sqliteSchema mirrors the MySQL migrations closely enough for the
// repositories' portable queries.
const sqliteSchema = `
CREATE TABLE users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'STAFF',
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE refresh_tokens (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    token_hash TEXT NOT NULL UNIQUE,
    expires_at DATETIME NOT NULL,
    revoked_at DATETIME NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE participants (
    id TEXT PRIMARY KEY COLLATE BINARY,
    name TEXT NOT NULL DEFAULT '',
    organization TEXT NOT NULL DEFAULT '',
    room TEXT NOT NULL DEFAULT '',
    seat_number TEXT NOT NULL DEFAULT '' COLLATE BINARY,
    avatar TEXT NOT NULL DEFAULT '',
    qr_code TEXT NOT NULL,
    checked_in INTEGER NOT NULL DEFAULT 0,
    checked_in_at DATETIME NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Exec(sqliteSchema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func seedParticipants(t *testing.T, repo *ParticipantRepo, ids ...string) {
	t.Helper()
	for i, id := range ids {
		err := repo.Create(context.Background(), model.Participant{
			ID:           id,
			Name:         "Người " + id,
			Organization: "Tổ " + id,
			Room:         "Mặt trận",
			SeatNumber:   string(rune('1' + i)),
			QRCode:       "data:image/png;base64,AAAA",
		})
		if err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
}

func TestParticipantRepoCreateAndGet(t *testing.T) {
	repo := NewParticipantRepo(openTestDB(t))
	ctx := context.Background()
	seedParticipants(t, repo, "A", "B")

	p, err := repo.GetByID(ctx, "B")
	if err != nil {
		t.Fatalf("get B: %v", err)
	}
	if p.Name != "Người B" || p.Room != "Mặt trận" || p.CheckedIn || p.CheckedInAt != nil {
		t.Fatalf("unexpected participant %+v", p)
	}

	bySeat, err := repo.GetBySeatNumber(ctx, "1")
	if err != nil {
		t.Fatalf("get by seat: %v", err)
	}
	if bySeat.ID != "A" {
		t.Fatalf("seat 1 belongs to %q, want A", bySeat.ID)
	}

	if _, err := repo.GetByID(ctx, "Z"); !errors.Is(err, ErrParticipantNotFound) {
		t.Fatalf("GetByID(Z) err = %v, want ErrParticipantNotFound", err)
	}
	if _, err := repo.GetBySeatNumber(ctx, "99"); !errors.Is(err, ErrParticipantNotFound) {
		t.Fatalf("GetBySeatNumber(99) err = %v, want ErrParticipantNotFound", err)
	}
}

func TestParticipantRepoMatchesIDsExactly(t *testing.T) {
	repo := NewParticipantRepo(openTestDB(t))
	ctx := context.Background()
	seedParticipants(t, repo, "An", "Ân")

	for _, id := range []string{"An", "Ân"} {
		p, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID(%q): %v", id, err)
		}
		if p.ID != id {
			t.Fatalf("GetByID(%q) returned %q", id, p.ID)
		}
	}
	if _, err := repo.GetByID(ctx, "an"); !errors.Is(err, ErrParticipantNotFound) {
		t.Fatalf("GetByID(an) = %v, want ErrParticipantNotFound", err)
	}
	changed, err := repo.MarkCheckedIn(ctx, "AN", time.Now())
	if err != nil || changed {
		t.Fatalf("MarkCheckedIn(AN) = %v, %v; want no match", changed, err)
	}
}

func TestParticipantRepoMarkCheckedInOnce(t *testing.T) {
	repo := NewParticipantRepo(openTestDB(t))
	ctx := context.Background()
	seedParticipants(t, repo, "A")
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	changed, err := repo.MarkCheckedIn(ctx, "A", now)
	if err != nil || !changed {
		t.Fatalf("first mark = %v, %v; want true, nil", changed, err)
	}
	changed, err = repo.MarkCheckedIn(ctx, "A", now.Add(time.Minute))
	if err != nil || changed {
		t.Fatalf("second mark = %v, %v; want false, nil", changed, err)
	}
	changed, err = repo.MarkCheckedIn(ctx, "missing", now)
	if err != nil || changed {
		t.Fatalf("mark missing = %v, %v; want false, nil", changed, err)
	}

	p, err := repo.GetByID(ctx, "A")
	if err != nil {
		t.Fatalf("get A: %v", err)
	}
	if !p.CheckedIn || p.CheckedInAt == nil {
		t.Fatalf("A not checked in: %+v", p)
	}
}

func TestParticipantRepoSetAllCheckedIn(t *testing.T) {
	repo := NewParticipantRepo(openTestDB(t))
	ctx := context.Background()
	seedParticipants(t, repo, "A", "B", "C")
	now := time.Now()

	if _, err := repo.MarkCheckedIn(ctx, "B", now); err != nil {
		t.Fatalf("mark B: %v", err)
	}

	res, err := repo.SetAllCheckedIn(ctx, true, now)
	if err != nil {
		t.Fatalf("set all true: %v", err)
	}
	if res.Matched != 3 || res.Modified != 2 {
		t.Fatalf("set all true = %+v, want matched 3 modified 2", res)
	}

	res, err = repo.SetAllCheckedIn(ctx, false, now)
	if err != nil {
		t.Fatalf("set all false: %v", err)
	}
	if res.Matched != 3 || res.Modified != 3 {
		t.Fatalf("set all false = %+v, want matched 3 modified 3", res)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, p := range list {
		if p.CheckedIn || p.CheckedInAt != nil {
			t.Fatalf("%s still checked in", p.ID)
		}
	}
}

func TestParticipantRepoDeleteAll(t *testing.T) {
	repo := NewParticipantRepo(openTestDB(t))
	ctx := context.Background()
	seedParticipants(t, repo, "A", "B", "C")

	n, err := repo.DeleteAll(ctx)
	if err != nil || n != 3 {
		t.Fatalf("DeleteAll = %d, %v; want 3, nil", n, err)
	}
	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty table, got %d rows", len(list))
	}
}

func TestUserRepoEnsureAdmin(t *testing.T) {
	repo := NewUserRepo(openTestDB(t))
	ctx := context.Background()

	created, err := repo.EnsureAdmin(ctx, " Admin@Example.com ", "s3cret", 4)
	if err != nil || !created {
		t.Fatalf("EnsureAdmin = %v, %v; want true, nil", created, err)
	}
	created, err = repo.EnsureAdmin(ctx, "admin@example.com", "other", 4)
	if err != nil || created {
		t.Fatalf("second EnsureAdmin = %v, %v; want false, nil", created, err)
	}

	u, err := repo.GetByEmail(ctx, "ADMIN@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u.Role != model.RoleAdmin || !u.IsActive {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestTokenRepoLifecycle(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepo(db)
	tokens := NewTokenRepo(db)
	ctx := context.Background()
	// whole seconds keep sqlite's text timestamps comparable
	now := time.Now().UTC().Truncate(time.Second)

	uid, err := users.Create(ctx, "staff@example.com", "pw", model.RoleStaff, 4)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := tokens.StoreRefresh(ctx, uid, "hash-1", now.Add(time.Hour)); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, err := tokens.ValidateRefresh(ctx, "hash-1", now)
	if err != nil || got != uid {
		t.Fatalf("validate = %d, %v; want %d, nil", got, err, uid)
	}
	if _, err := tokens.ValidateRefresh(ctx, "hash-1", now.Add(2*time.Hour)); !errors.Is(err, ErrInvalidRefresh) {
		t.Fatalf("expired token err = %v", err)
	}
	if err := tokens.RevokeAllForUser(ctx, uid, now); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := tokens.ValidateRefresh(ctx, "hash-1", now); !errors.Is(err, ErrInvalidRefresh) {
		t.Fatalf("revoked token err = %v", err)
	}
	if _, err := tokens.ValidateRefresh(ctx, "unknown", now); !errors.Is(err, ErrInvalidRefresh) {
		t.Fatalf("unknown token err = %v", err)
	}
}

func TestTokenRepoConsumeOnce(t *testing.T) {
	db := openTestDB(t)
	tokens := NewTokenRepo(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	if err := tokens.StoreRefresh(ctx, 9, "hash-2", now.Add(time.Hour)); err != nil {
		t.Fatalf("store: %v", err)
	}
	uid, err := tokens.Consume(ctx, "hash-2", now)
	if err != nil || uid != 9 {
		t.Fatalf("consume = %d, %v", uid, err)
	}
	if _, err := tokens.Consume(ctx, "hash-2", now); !errors.Is(err, ErrInvalidRefresh) {
		t.Fatalf("second consume err = %v", err)
	}
}

func TestTokenRepoPurgeExpired(t *testing.T) {
	db := openTestDB(t)
	tokens := NewTokenRepo(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	_ = tokens.StoreRefresh(ctx, 1, "old", now.Add(-time.Hour))
	_ = tokens.StoreRefresh(ctx, 1, "live", now.Add(time.Hour))
	n, err := tokens.PurgeExpired(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("purge = %d, %v", n, err)
	}
	if _, err := tokens.ValidateRefresh(ctx, "live", now); err != nil {
		t.Fatalf("live token purged: %v", err)
	}
}
