// Package room holds the fixed set of event rooms and the routing keys used
// to scope realtime notifications to the display in each room.
package room

import "strings"

// Room is one of the named seating categories of the congress.
type Room int

const (
	MatTran Room = iota
	DoanThanhNien
	HoiPhuNu
	HoiNongDan
	HoiCuuChienBinh
)

var names = [...]string{
	MatTran:         "Mặt trận",
	DoanThanhNien:   "Đoàn Thanh niên",
	HoiPhuNu:        "Hội Phụ nữ",
	HoiNongDan:      "Hội Nông dân",
	HoiCuuChienBinh: "Hội Cựu chiến binh",
}

var codes = [...]string{
	MatTran:         "mattran",
	DoanThanhNien:   "doanthanhnien",
	HoiPhuNu:        "hoiphunu",
	HoiNongDan:      "hoinongdan",
	HoiCuuChienBinh: "hoicuuchienbinh",
}

// All lists the rooms in display order.
var All = []Room{MatTran, DoanThanhNien, HoiPhuNu, HoiNongDan, HoiCuuChienBinh}

func (r Room) String() string { return names[r] }

// Code is the routing key clients join to receive this room's events.
func (r Room) Code() string { return codes[r] }

// Parse finds the room with the given display name. Surrounding whitespace
// is ignored; the comparison is otherwise exact.
func Parse(name string) (Room, bool) {
	name = strings.TrimSpace(name)
	for _, r := range All {
		if names[r] == name {
			return r, true
		}
	}
	return 0, false
}

// Code maps a room display name to its routing key. Names outside the
// enumeration are returned unchanged.
func Code(name string) string {
	if r, ok := Parse(name); ok {
		return r.Code()
	}
	return name
}
