package room

import "testing"

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Mặt trận", "mattran"},
		{" Mặt trận ", "mattran"},
		{"Đoàn Thanh niên", "doanthanhnien"},
		{"Hội Phụ nữ", "hoiphunu"},
		{"Hội Nông dân", "hoinongdan"},
		{"Hội Cựu chiến binh", "hoicuuchienbinh"},
		{"Khách mời", "Khách mời"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Code(tt.name); got != tt.want {
			t.Errorf("Code(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestRoomsHaveDistinctCodes(t *testing.T) {
	seen := map[string]Room{}
	for _, r := range All {
		if prev, ok := seen[r.Code()]; ok {
			t.Fatalf("%v and %v share code %q", prev, r, r.Code())
		}
		seen[r.Code()] = r
		if got, ok := Parse(r.String()); !ok || got != r {
			t.Fatalf("Parse(%q) = %v,%v", r.String(), got, ok)
		}
	}
	if len(All) != 5 {
		t.Fatalf("expected 5 rooms, got %d", len(All))
	}
}
