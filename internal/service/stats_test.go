package service

import (
	"testing"

	"github.com/iliyamo/event-checkin/internal/model"
	"github.com/iliyamo/event-checkin/internal/room"
)

func TestAggregateEmpty(t *testing.T) {
	st := Aggregate(nil)
	if st.Total != 0 || st.CheckedIn != 0 || st.NotCheckedIn != 0 {
		t.Fatalf("totals = %+v", st)
	}
	if len(st.Rooms) != len(room.All) {
		t.Fatalf("got %d rooms, want %d", len(st.Rooms), len(room.All))
	}
	for i, r := range room.All {
		if st.Rooms[i].Room != r.String() || st.Rooms[i].RoomCode != r.Code() {
			t.Fatalf("room %d = %+v", i, st.Rooms[i])
		}
		if st.Rooms[i].Remaining == nil {
			t.Fatalf("room %d remaining should be an empty list", i)
		}
	}
	if st.CheckedInParticipants == nil {
		t.Fatal("checked-in list should be empty, not nil")
	}
}

func TestAggregateInvariants(t *testing.T) {
	list := []model.Participant{
		{ID: "1", Name: "a", Room: "Mặt trận", CheckedIn: true, SeatNumber: "1"},
		{ID: "2", Name: "b", Room: "Mặt trận"},
		{ID: "3", Name: "c", Room: " Hội Phụ nữ ", CheckedIn: true},
		{ID: "4", Name: "d", Room: "Zeta"},
		{ID: "5", Name: "e", Room: "Alpha", CheckedIn: true},
		{ID: "6", Name: "f"},
	}
	st := Aggregate(list)

	if st.Total != 6 || st.CheckedIn+st.NotCheckedIn != st.Total || st.CheckedIn != 3 {
		t.Fatalf("totals = %d/%d/%d", st.Total, st.CheckedIn, st.NotCheckedIn)
	}
	sum := 0
	for _, r := range st.Rooms {
		sum += r.Total
		if r.CheckedIn+r.NotCheckedIn != r.Total || len(r.Remaining) != r.NotCheckedIn {
			t.Fatalf("room invariant broken: %+v", r)
		}
	}
	if sum != st.Total {
		t.Fatalf("room totals sum to %d, want %d", sum, st.Total)
	}

	names := make([]string, 0, len(st.Rooms))
	for _, r := range st.Rooms {
		names = append(names, r.Room)
	}
	want := []string{"Mặt trận", "Đoàn Thanh niên", "Hội Phụ nữ", "Hội Nông dân", "Hội Cựu chiến binh", "", "Alpha", "Zeta"}
	if len(names) != len(want) {
		t.Fatalf("rooms = %q", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("rooms = %q, want %q", names, want)
		}
	}
	if st.Rooms[2].CheckedIn != 1 {
		t.Fatalf("padded room name not folded: %+v", st.Rooms[2])
	}
	if st.Rooms[0].Remaining[0].ID != "2" {
		t.Fatalf("remaining = %+v", st.Rooms[0].Remaining)
	}
}
