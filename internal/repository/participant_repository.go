package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/event-checkin/internal/model"
)

const participantColumns = "id,name,organization,room,seat_number,avatar,qr_code,checked_in,checked_in_at"

// ParticipantRepo persists participants in the `participants` table.  The
// queries stick to portable SQL so the same repository runs on MySQL in
// production and on SQLite in tests.
type ParticipantRepo struct{ DB *sql.DB }

func NewParticipantRepo(db *sql.DB) *ParticipantRepo { return &ParticipantRepo{DB: db} }

// BulkResult reports how many rows a bulk update touched.  Matched counts
// every row the update applied to; Modified counts rows whose value changed.
type BulkResult struct {
	Matched  int64
	Modified int64
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParticipant(s rowScanner) (model.Participant, error) {
	var (
		p           model.Participant
		checkedInAt sql.NullTime
	)
	err := s.Scan(&p.ID, &p.Name, &p.Organization, &p.Room, &p.SeatNumber, &p.Avatar, &p.QRCode, &p.CheckedIn, &checkedInAt)
	if err != nil {
		return model.Participant{}, err
	}
	if checkedInAt.Valid {
		t := checkedInAt.Time.UTC()
		p.CheckedInAt = &t
	}
	return p, nil
}

// Create inserts a new participant.  CheckedIn is always stored as false.
func (r *ParticipantRepo) Create(ctx context.Context, p model.Participant) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO participants (id,name,organization,room,seat_number,avatar,qr_code,checked_in) VALUES (?,?,?,?,?,?,?,0)",
		p.ID, p.Name, p.Organization, p.Room, p.SeatNumber, p.Avatar, p.QRCode)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateParticipant
		}
		return fmt.Errorf("insert participant %q: %w", p.ID, err)
	}
	return nil
}

// GetByID fetches a participant by identifier.
func (r *ParticipantRepo) GetByID(ctx context.Context, id string) (model.Participant, error) {
	p, err := scanParticipant(r.DB.QueryRowContext(ctx,
		"SELECT "+participantColumns+" FROM participants WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Participant{}, ErrParticipantNotFound
	}
	return p, err
}

// GetBySeatNumber fetches the first participant holding the given seat.
func (r *ParticipantRepo) GetBySeatNumber(ctx context.Context, seat string) (model.Participant, error) {
	p, err := scanParticipant(r.DB.QueryRowContext(ctx,
		"SELECT "+participantColumns+" FROM participants WHERE seat_number=? ORDER BY id LIMIT 1", seat))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Participant{}, ErrParticipantNotFound
	}
	return p, err
}

// MarkCheckedIn flips checked_in from false to true for one participant.
// The update is conditional so concurrent scans of the same code cannot
// both succeed; the returned bool is false when no row changed (unknown
// id or already checked in).
func (r *ParticipantRepo) MarkCheckedIn(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE participants SET checked_in=1, checked_in_at=? WHERE id=? AND checked_in=0",
		at.UTC(), id)
	if err != nil {
		return false, fmt.Errorf("mark checked in %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SetAllCheckedIn sets checked_in on every participant inside a single
// transaction.
func (r *ParticipantRepo) SetAllCheckedIn(ctx context.Context, value bool, at time.Time) (BulkResult, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return BulkResult{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var out BulkResult
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM participants").Scan(&out.Matched); err != nil {
		return BulkResult{}, fmt.Errorf("count participants: %w", err)
	}
	var res sql.Result
	if value {
		res, err = tx.ExecContext(ctx,
			"UPDATE participants SET checked_in=1, checked_in_at=COALESCE(checked_in_at, ?) WHERE checked_in=0", at.UTC())
	} else {
		res, err = tx.ExecContext(ctx,
			"UPDATE participants SET checked_in=0, checked_in_at=NULL WHERE checked_in=1")
	}
	if err != nil {
		return BulkResult{}, fmt.Errorf("bulk set checked_in=%t: %w", value, err)
	}
	if out.Modified, err = res.RowsAffected(); err != nil {
		return BulkResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return BulkResult{}, err
	}
	committed = true
	return out, nil
}

// DeleteAll removes every participant and returns the number of rows deleted.
func (r *ParticipantRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM participants")
	if err != nil {
		return 0, fmt.Errorf("delete participants: %w", err)
	}
	return res.RowsAffected()
}

// List returns every participant ordered by identifier.
func (r *ParticipantRepo) List(ctx context.Context) ([]model.Participant, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+participantColumns+" FROM participants ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	out := make([]model.Participant, 0)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
