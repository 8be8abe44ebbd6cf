package service

import (
	"sort"

	"github.com/iliyamo/event-checkin/internal/model"
	"github.com/iliyamo/event-checkin/internal/room"
)

// Stats is the attendance snapshot served to dashboards.
type Stats struct {
	Total                 int         `json:"total"`
	CheckedIn             int         `json:"checkedIn"`
	NotCheckedIn          int         `json:"notCheckedIn"`
	CheckedInParticipants []SeatRef   `json:"checkedInParticipants"`
	Rooms                 []RoomStats `json:"rooms"`
}

// SeatRef identifies a checked-in participant on the seating plan.
type SeatRef struct {
	Name       string `json:"name"`
	SeatNumber string `json:"seatNumber"`
}

// RoomStats is the per-room breakdown.  Remaining lists the participants of
// the room who have not checked in yet.
type RoomStats struct {
	Room         string    `json:"room"`
	RoomCode     string    `json:"roomCode"`
	Total        int       `json:"total"`
	CheckedIn    int       `json:"checkedIn"`
	NotCheckedIn int       `json:"notCheckedIn"`
	Remaining    []Summary `json:"remaining"`
}

// Aggregate derives Stats from a full participant listing.  The five
// enumerated rooms always appear first, in display order; room names
// outside the enumeration follow sorted by name.
func Aggregate(list []model.Participant) Stats {
	out := Stats{
		CheckedInParticipants: make([]SeatRef, 0),
	}
	byRoom := make(map[string]*RoomStats)
	get := func(name string) *RoomStats {
		rs, ok := byRoom[name]
		if !ok {
			rs = &RoomStats{Room: name, RoomCode: room.Code(name), Remaining: make([]Summary, 0)}
			byRoom[name] = rs
		}
		return rs
	}
	for _, r := range room.All {
		get(r.String())
	}

	for _, p := range list {
		rs := get(canonicalRoom(p.Room))
		out.Total++
		rs.Total++
		if p.CheckedIn {
			out.CheckedIn++
			rs.CheckedIn++
			out.CheckedInParticipants = append(out.CheckedInParticipants, SeatRef{Name: p.Name, SeatNumber: p.SeatNumber})
			continue
		}
		rs.Remaining = append(rs.Remaining, summarize(p))
	}
	out.NotCheckedIn = out.Total - out.CheckedIn

	out.Rooms = make([]RoomStats, 0, len(byRoom))
	for _, r := range room.All {
		rs := byRoom[r.String()]
		rs.NotCheckedIn = rs.Total - rs.CheckedIn
		out.Rooms = append(out.Rooms, *rs)
		delete(byRoom, r.String())
	}
	extra := make([]string, 0, len(byRoom))
	for name := range byRoom {
		extra = append(extra, name)
	}
	sort.Strings(extra)
	for _, name := range extra {
		rs := byRoom[name]
		rs.NotCheckedIn = rs.Total - rs.CheckedIn
		out.Rooms = append(out.Rooms, *rs)
	}
	return out
}

// canonicalRoom folds whitespace variants of enumerated room names onto
// the enumerated spelling.
func canonicalRoom(name string) string {
	if r, ok := room.Parse(name); ok {
		return r.String()
	}
	return name
}
