// Package service holds the check-in pipeline: scan validation, the
// checked-in state transition, notification fan-out and the attendance
// statistics the dashboards poll.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/event-checkin/internal/metrics"
	"github.com/iliyamo/event-checkin/internal/model"
	"github.com/iliyamo/event-checkin/internal/queue"
	"github.com/iliyamo/event-checkin/internal/realtime"
	"github.com/iliyamo/event-checkin/internal/repository"
	"github.com/iliyamo/event-checkin/internal/room"
)

// ParticipantStore is the durable participant record store.
type ParticipantStore interface {
	Create(ctx context.Context, p model.Participant) error
	GetByID(ctx context.Context, id string) (model.Participant, error)
	GetBySeatNumber(ctx context.Context, seat string) (model.Participant, error)
	MarkCheckedIn(ctx context.Context, id string, at time.Time) (bool, error)
	SetAllCheckedIn(ctx context.Context, value bool, at time.Time) (repository.BulkResult, error)
	DeleteAll(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]model.Participant, error)
}

// QREncoder renders a participant id as an image payload.
type QREncoder interface {
	Encode(id string) (string, error)
}

// Broadcaster delivers an event to the clients of a room, or to every
// client when room is "".
type Broadcaster interface {
	Broadcast(ctx context.Context, room, event string, payload any) error
}

// Greeter renders the welcome line shown on the room display.
type Greeter interface {
	Welcome(name, organization string) string
}

// Auditor records successful check-ins outside the request path.
type Auditor interface {
	PublishCheckinRecorded(ctx context.Context, ev queue.CheckinRecordedEvent) error
}

// Deps bundles the collaborators of ParticipantService.  Store, QR and Bus
// are required; Auditor may be nil.
type Deps struct {
	Store   ParticipantStore
	QR      QREncoder
	Bus     Broadcaster
	Greeter Greeter
	Auditor Auditor
	Logger  *slog.Logger
	Now     func() time.Time
}

// ParticipantService implements the check-in pipeline.  It takes no locks:
// the store's conditional update is the only synchronisation point.
type ParticipantService struct {
	store   ParticipantStore
	qr      QREncoder
	bus     Broadcaster
	greeter Greeter
	auditor Auditor
	logger  *slog.Logger
	now     func() time.Time
}

// NewParticipantService wires the pipeline and panics if a required
// dependency is missing.
func NewParticipantService(d Deps) *ParticipantService {
	if d.Store == nil || d.QR == nil || d.Bus == nil {
		panic("nil dependency passed to NewParticipantService")
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &ParticipantService{
		store:   d.Store,
		qr:      d.QR,
		bus:     d.Bus,
		greeter: d.Greeter,
		auditor: d.Auditor,
		logger:  d.Logger,
		now:     d.Now,
	}
}

// Entry is one row of a generate batch.
type Entry struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Organization string `json:"organization"`
	Room         string `json:"room"`
	SeatNumber   string `json:"seatNumber"`
	Avatar       string `json:"avatar"`
}

// Summary is the participant view returned to scanners and dashboards.  It
// never carries the QR payload.
type Summary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Organization string `json:"organization"`
	Room         string `json:"room"`
	RoomCode     string `json:"roomCode"`
	SeatNumber   string `json:"seatNumber,omitempty"`
	Avatar       string `json:"avatar,omitempty"`
	CheckedIn    bool   `json:"checkedIn"`
}

// Record is a freshly generated participant including its QR payload.
type Record struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Organization string `json:"organization"`
	Room         string `json:"room"`
	SeatNumber   string `json:"seatNumber,omitempty"`
	Avatar       string `json:"avatar,omitempty"`
	QRCode       string `json:"qrCode"`
}

// WelcomeEvent is the payload of the room-scoped welcome notification.
type WelcomeEvent struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Organization string    `json:"organization"`
	Room         string    `json:"room"`
	RoomCode     string    `json:"roomCode"`
	SeatNumber   string    `json:"seatNumber,omitempty"`
	Avatar       string    `json:"avatar,omitempty"`
	CheckedIn    bool      `json:"checkedIn"`
	Timestamp    time.Time `json:"timestamp"`
	Message      string    `json:"message"`
}

// BulkResult reports the effect of BulkSetCheckedIn.
type BulkResult struct {
	Matched  int64 `json:"matchedCount"`
	Modified int64 `json:"modifiedCount"`
}

// GenerateError is returned when a batch aborts part way.  Records created
// before the failing entry stay persisted and are listed in Created.
type GenerateError struct {
	Index   int
	ID      string
	Created []Record
	Err     error
}

func (e *GenerateError) Error() string {
	return fmt.Sprintf("generate entry %d (%q): %v", e.Index, e.ID, e.Err)
}

func (e *GenerateError) Unwrap() error { return e.Err }

func summarize(p model.Participant) Summary {
	return Summary{
		ID:           p.ID,
		Name:         p.Name,
		Organization: p.Organization,
		Room:         p.Room,
		RoomCode:     room.Code(p.Room),
		SeatNumber:   p.SeatNumber,
		Avatar:       p.Avatar,
		CheckedIn:    p.CheckedIn,
	}
}

type operatorKey struct{}

// WithOperator tags ctx with the user performing a scan, for the audit trail.
func WithOperator(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, operatorKey{}, userID)
}

func operatorFrom(ctx context.Context) string {
	s, _ := ctx.Value(operatorKey{}).(string)
	return s
}

// CheckIn marks the participant identified by a scanned code as present.
// A participant can be checked in once; later scans fail with
// ErrAlreadyCheckedIn and produce no notification.  On success a welcome
// event goes to the participant's room and a stats-update to everyone.
func (s *ParticipantService) CheckIn(ctx context.Context, id string) (Summary, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		metrics.ScansTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return Summary{}, ErrInvalidInput
	}

	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			metrics.ScansTotal.WithLabelValues(metrics.ResultNotFound).Inc()
			s.logger.Info("scan rejected: unknown code", "participant_id", id)
			return Summary{}, ErrNotFound
		}
		metrics.ScansTotal.WithLabelValues(metrics.ResultError).Inc()
		return Summary{}, fmt.Errorf("lookup %q: %w", id, err)
	}
	if p.CheckedIn {
		metrics.ScansTotal.WithLabelValues(metrics.ResultRepeat).Inc()
		s.logger.Info("scan rejected: already checked in", "participant_id", id)
		return Summary{}, ErrAlreadyCheckedIn
	}

	now := s.now().UTC()
	changed, err := s.store.MarkCheckedIn(ctx, id, now)
	if err != nil {
		metrics.ScansTotal.WithLabelValues(metrics.ResultError).Inc()
		return Summary{}, err
	}
	if !changed {
		// Another scanner flipped the flag between our read and our write.
		metrics.ScansTotal.WithLabelValues(metrics.ResultRepeat).Inc()
		s.logger.Info("scan rejected: concurrent check-in", "participant_id", id)
		return Summary{}, ErrAlreadyCheckedIn
	}
	p.CheckedIn = true
	p.CheckedInAt = &now
	sum := summarize(p)

	welcome := WelcomeEvent{
		ID:           p.ID,
		Name:         p.Name,
		Organization: p.Organization,
		Room:         p.Room,
		RoomCode:     sum.RoomCode,
		SeatNumber:   p.SeatNumber,
		Avatar:       p.Avatar,
		CheckedIn:    true,
		Timestamp:    now,
		Message:      s.welcomeMessage(p),
	}
	// Without a room the welcome goes to every display.
	if sum.RoomCode == "" {
		s.logger.Warn("participant has no room, welcome sent to all displays", "participant_id", p.ID)
	}
	s.broadcast(ctx, sum.RoomCode, realtime.EventWelcome, welcome)
	s.broadcast(ctx, "", realtime.EventStatsUpdate, nil)

	metrics.ScansTotal.WithLabelValues(metrics.ResultOK).Inc()
	s.logger.Info("participant checked in", "participant_id", p.ID, "room_code", sum.RoomCode)
	s.audit(ctx, p, sum.RoomCode, now)
	return sum, nil
}

func (s *ParticipantService) welcomeMessage(p model.Participant) string {
	if s.greeter == nil {
		return fmt.Sprintf("Chào mừng %s (%s) đến với đại hội!", p.Name, p.Organization)
	}
	return s.greeter.Welcome(p.Name, p.Organization)
}

// broadcast never fails the request: delivery is best effort.
func (s *ParticipantService) broadcast(ctx context.Context, roomCode, event string, payload any) {
	if err := s.bus.Broadcast(ctx, roomCode, event, payload); err != nil {
		s.logger.Warn("broadcast failed", "event", event, "room_code", roomCode, "error", err)
	}
}

func (s *ParticipantService) audit(ctx context.Context, p model.Participant, roomCode string, at time.Time) {
	if s.auditor == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	err := s.auditor.PublishCheckinRecorded(actx, queue.CheckinRecordedEvent{
		ParticipantID: p.ID,
		Name:          p.Name,
		Organization:  p.Organization,
		Room:          p.Room,
		RoomCode:      roomCode,
		Operator:      operatorFrom(ctx),
		CheckedInAt:   at.Format(time.RFC3339),
	})
	if err != nil {
		s.logger.Warn("audit publish failed", "participant_id", p.ID, "error", err)
	}
}

// BulkSetCheckedIn sets every participant's checked-in flag to value in one
// update and signals dashboards to refresh.  No welcome events are sent.
func (s *ParticipantService) BulkSetCheckedIn(ctx context.Context, value bool) (BulkResult, error) {
	res, err := s.store.SetAllCheckedIn(ctx, value, s.now().UTC())
	if err != nil {
		return BulkResult{}, err
	}
	metrics.BulkOperationsTotal.WithLabelValues(fmt.Sprintf("checkin_all_%t", value)).Inc()
	s.logger.Info("bulk check-in update", "value", value, "matched", res.Matched, "modified", res.Modified)
	s.broadcast(ctx, "", realtime.EventStatsUpdate, nil)
	return BulkResult{Matched: res.Matched, Modified: res.Modified}, nil
}

// DeleteAll removes every participant and returns how many were deleted.
func (s *ParticipantService) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	metrics.BulkOperationsTotal.WithLabelValues("delete_all").Inc()
	s.logger.Info("all participants deleted", "deleted", n)
	s.broadcast(ctx, "", realtime.EventStatsUpdate, nil)
	return n, nil
}

// Generate creates one participant per entry, in order, each with a fresh
// QR code and checked-in false.  Every entry must carry an id; the batch is
// rejected up front otherwise.  The first encoding or storage failure stops
// the batch with a *GenerateError; entries stored before it are kept.
func (s *ParticipantService) Generate(ctx context.Context, entries []Entry) ([]Record, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrInvalidInput)
	}
	for i, e := range entries {
		if strings.TrimSpace(e.ID) == "" {
			return nil, fmt.Errorf("%w: entry %d has no id", ErrInvalidInput, i)
		}
	}

	created := make([]Record, 0, len(entries))
	defer func() {
		if len(created) > 0 {
			metrics.BulkOperationsTotal.WithLabelValues("generate").Inc()
			s.broadcast(ctx, "", realtime.EventStatsUpdate, nil)
		}
	}()
	for i, e := range entries {
		id := strings.TrimSpace(e.ID)
		qr, err := s.qr.Encode(id)
		if err != nil {
			return created, s.generateFailed(i, id, created, err)
		}
		p := model.Participant{
			ID:           id,
			Name:         e.Name,
			Organization: e.Organization,
			Room:         strings.TrimSpace(e.Room),
			SeatNumber:   e.SeatNumber,
			Avatar:       e.Avatar,
			QRCode:       qr,
		}
		if err := s.store.Create(ctx, p); err != nil {
			return created, s.generateFailed(i, id, created, err)
		}
		created = append(created, Record{
			ID:           p.ID,
			Name:         p.Name,
			Organization: p.Organization,
			Room:         p.Room,
			SeatNumber:   p.SeatNumber,
			Avatar:       p.Avatar,
			QRCode:       p.QRCode,
		})
	}
	s.logger.Info("participants generated", "count", len(created))
	return created, nil
}

func (s *ParticipantService) generateFailed(i int, id string, created []Record, err error) error {
	s.logger.Error("generate aborted", "index", i, "participant_id", id, "persisted", len(created), "error", err)
	return &GenerateError{Index: i, ID: id, Created: created, Err: err}
}

// FindBySeat looks a participant up by seat number.
func (s *ParticipantService) FindBySeat(ctx context.Context, seat string) (Summary, error) {
	seat = strings.TrimSpace(seat)
	if seat == "" {
		return Summary{}, ErrInvalidInput
	}
	p, err := s.store.GetBySeatNumber(ctx, seat)
	if err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			return Summary{}, ErrNotFound
		}
		return Summary{}, err
	}
	return summarize(p), nil
}

// Stats recomputes attendance figures from the store on every call.
func (s *ParticipantService) Stats(ctx context.Context) (Stats, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Aggregate(list), nil
}
