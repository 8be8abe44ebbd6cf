package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-checkin/internal/middleware"
	"github.com/iliyamo/event-checkin/internal/service"
)

type fakeCheckin struct {
	checkInErr  error
	lastID      string
	bulkValue   *bool
	generateErr error
	entries     []service.Entry
	seatErr     error
	statsErr    error
	deleteErr   error
}

func (f *fakeCheckin) CheckIn(_ context.Context, id string) (service.Summary, error) {
	f.lastID = id
	if f.checkInErr != nil {
		return service.Summary{}, f.checkInErr
	}
	return service.Summary{ID: id, Name: "An", Room: "Mặt trận", RoomCode: "mattran", CheckedIn: true}, nil
}

func (f *fakeCheckin) BulkSetCheckedIn(_ context.Context, value bool) (service.BulkResult, error) {
	f.bulkValue = &value
	return service.BulkResult{Matched: 3, Modified: 2}, nil
}

func (f *fakeCheckin) DeleteAll(context.Context) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return 4, nil
}

func (f *fakeCheckin) Generate(_ context.Context, entries []service.Entry) ([]service.Record, error) {
	f.entries = entries
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	out := make([]service.Record, 0, len(entries))
	for _, e := range entries {
		out = append(out, service.Record{ID: e.ID, Name: e.Name, QRCode: "data:image/png;base64,AA=="})
	}
	return out, nil
}

func (f *fakeCheckin) FindBySeat(_ context.Context, seat string) (service.Summary, error) {
	if f.seatErr != nil {
		return service.Summary{}, f.seatErr
	}
	return service.Summary{ID: "A", SeatNumber: seat}, nil
}

func (f *fakeCheckin) Stats(context.Context) (service.Stats, error) {
	if f.statsErr != nil {
		return service.Stats{}, f.statsErr
	}
	return service.Aggregate(nil), nil
}

func serve(t *testing.T, h echo.HandlerFunc, method, target, body string, params ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	middleware.SetIdentity(c, "7", "STAFF")
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	var out map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %q: %v", rec.Body.String(), err)
		}
	}
	return rec, out
}

func TestCheckInHandlerStatuses(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		err    error
		status int
		msg    string
	}{
		{"ok", `{"id":"B"}`, nil, http.StatusOK, "Check-in successful"},
		{"unknown", `{"id":"Z"}`, service.ErrNotFound, http.StatusNotFound, "Invalid QR"},
		{"repeat", `{"id":"B"}`, service.ErrAlreadyCheckedIn, http.StatusBadRequest, "Already checked in"},
		{"missing id", `{}`, nil, http.StatusBadRequest, "id required"},
		{"store down", `{"id":"B"}`, errors.New("connection refused"), http.StatusInternalServerError, "Check-in error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewParticipantHandler(&fakeCheckin{checkInErr: tc.err})
			rec, out := serve(t, h.CheckIn, http.MethodPost, "/api/participants/checkin", tc.body)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if out["message"] != tc.msg {
				t.Fatalf("message = %v, want %q", out["message"], tc.msg)
			}
			if strings.Contains(rec.Body.String(), "connection refused") {
				t.Fatal("internal error detail leaked")
			}
		})
	}
}

func TestCheckInHandlerSummary(t *testing.T) {
	svc := &fakeCheckin{}
	h := NewParticipantHandler(svc)
	_, out := serve(t, h.CheckIn, http.MethodPost, "/api/participants/checkin", `{"id":"B"}`)

	p, ok := out["participant"].(map[string]any)
	if !ok {
		t.Fatalf("participant missing: %v", out)
	}
	if p["roomCode"] != "mattran" || p["room"] != "Mặt trận" {
		t.Fatalf("participant = %v", p)
	}
	if _, ok := p["qrCode"]; ok {
		t.Fatal("summary must not carry the QR payload")
	}
	if svc.lastID != "B" {
		t.Fatalf("service got id %q", svc.lastID)
	}
}

func TestSetAllCheckedInHandler(t *testing.T) {
	svc := &fakeCheckin{}
	h := NewParticipantHandler(svc)

	rec, out := serve(t, h.SetAllCheckedIn, http.MethodPost, "/", "", "value", "true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if out["matchedCount"] != float64(3) || out["modifiedCount"] != float64(2) {
		t.Fatalf("body = %v", out)
	}
	if svc.bulkValue == nil || !*svc.bulkValue {
		t.Fatal("service not called with true")
	}

	rec, _ = serve(t, h.SetAllCheckedIn, http.MethodPost, "/", "", "value", "maybe")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDeleteAllHandler(t *testing.T) {
	rec, out := serve(t, NewParticipantHandler(&fakeCheckin{}).DeleteAll, http.MethodDelete, "/", "")
	if rec.Code != http.StatusOK || out["deletedCount"] != float64(4) {
		t.Fatalf("status = %d body = %v", rec.Code, out)
	}
	rec, _ = serve(t, NewParticipantHandler(&fakeCheckin{deleteErr: errors.New("x")}).DeleteAll, http.MethodDelete, "/", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestGenerateHandler(t *testing.T) {
	svc := &fakeCheckin{}
	h := NewParticipantHandler(svc)
	body := `[{"id":"A","name":"An","room":"Mặt trận","seatNumber":"1"},{"id":"B","name":"Bình"}]`

	rec, _ := serve(t, h.Generate, http.MethodPost, "/", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var recs []service.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 2 || recs[0].QRCode == "" {
		t.Fatalf("records = %+v", recs)
	}
	if svc.entries[0].SeatNumber != "1" || svc.entries[0].Room != "Mặt trận" {
		t.Fatalf("entries = %+v", svc.entries)
	}
}

func TestGenerateHandlerErrors(t *testing.T) {
	h := NewParticipantHandler(&fakeCheckin{generateErr: service.ErrInvalidInput})
	rec, out := serve(t, h.Generate, http.MethodPost, "/", `[{"name":"x"}]`)
	if rec.Code != http.StatusBadRequest || out["message"] != "every participant needs an id" {
		t.Fatalf("status = %d body = %v", rec.Code, out)
	}

	empty := &fakeCheckin{}
	rec, out = serve(t, NewParticipantHandler(empty).Generate, http.MethodPost, "/", `[]`)
	if rec.Code != http.StatusBadRequest || out["message"] != "no participants" {
		t.Fatalf("empty batch: status = %d body = %v", rec.Code, out)
	}
	if empty.entries != nil {
		t.Fatal("empty batch reached the service")
	}

	gerr := &service.GenerateError{Index: 1, ID: "B", Created: []service.Record{{ID: "A"}}, Err: errors.New("dup")}
	h = NewParticipantHandler(&fakeCheckin{generateErr: gerr})
	rec, out = serve(t, h.Generate, http.MethodPost, "/", `[{"id":"A"},{"id":"B"}]`)
	if rec.Code != http.StatusInternalServerError || out["createdCount"] != float64(1) {
		t.Fatalf("status = %d body = %v", rec.Code, out)
	}

	h = NewParticipantHandler(&fakeCheckin{})
	if rec, _ := serve(t, h.Generate, http.MethodPost, "/", `{"id":"A"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("object body status = %d, want 400", rec.Code)
	}
}

func TestFindBySeatHandler(t *testing.T) {
	rec, out := serve(t, NewParticipantHandler(&fakeCheckin{}).FindBySeat, http.MethodGet, "/", "", "key", "A-01")
	if rec.Code != http.StatusOK || out["seatNumber"] != "A-01" {
		t.Fatalf("status = %d body = %v", rec.Code, out)
	}
	rec, _ = serve(t, NewParticipantHandler(&fakeCheckin{seatErr: service.ErrNotFound}).FindBySeat, http.MethodGet, "/", "", "key", "Z")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestStatsHandler(t *testing.T) {
	rec, out := serve(t, NewParticipantHandler(&fakeCheckin{}).Stats, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	rooms, _ := out["rooms"].([]any)
	if out["total"] != float64(0) || len(rooms) != 5 {
		t.Fatalf("body = %v", out)
	}
	rec, out = serve(t, NewParticipantHandler(&fakeCheckin{statsErr: errors.New("x")}).Stats, http.MethodGet, "/", "")
	if rec.Code != http.StatusInternalServerError || out["message"] != "Stats error" {
		t.Fatalf("status = %d body = %v", rec.Code, out)
	}
}

func TestHealth(t *testing.T) {
	rec, _ := serve(t, Health, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}
