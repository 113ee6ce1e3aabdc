package model

import "testing"

func TestNewRadiusUser(t *testing.T) {
	u := NewRadiusUser("subscriber01", "pw")

	if u.Username != "subscriber01" {
		t.Errorf("Username = %q, want %q", u.Username, "subscriber01")
	}
	if u.Password != "pw" {
		t.Errorf("Password = %q, want %q", u.Password, "pw")
	}
	if !u.Active {
		t.Error("Active = false, want true")
	}
	if u.FramedIP != "" {
		t.Errorf("FramedIP = %q, want empty", u.FramedIP)
	}
}

func TestGroupList(t *testing.T) {
	tests := []struct {
		name   string
		groups string
		want   []string
	}{
		{name: "empty", groups: "", want: nil},
		{name: "single", groups: "gold", want: []string{"gold"}},
		{name: "multiple with spaces", groups: "gold, silver ,bronze", want: []string{"gold", "silver", "bronze"}},
		{name: "trailing comma", groups: "gold,", want: []string{"gold"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewRadiusUser("alice", "pw")
			u.Groups = tt.groups
			got := u.GroupList()
			if len(got) != len(tt.want) {
				t.Fatalf("GroupList() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("GroupList()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNewRadiusClient(t *testing.T) {
	c := NewRadiusClient("10.0.0.5", "testing123", "edge-nas-01")

	if c.IP != "10.0.0.5" {
		t.Errorf("IP = %q, want %q", c.IP, "10.0.0.5")
	}
	if c.Secret != "testing123" {
		t.Errorf("Secret = %q, want %q", c.Secret, "testing123")
	}
	if c.Name != "edge-nas-01" {
		t.Errorf("Name = %q, want %q", c.Name, "edge-nas-01")
	}
	if !c.Active {
		t.Error("Active = false, want true")
	}
}
