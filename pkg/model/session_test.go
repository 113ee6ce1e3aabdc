package model

import "testing"

func TestSessionStatusConstants(t *testing.T) {
	tests := []struct {
		status SessionStatus
		want   string
	}{
		{StatusPending, "PENDING"},
		{StatusActive, "ACTIVE"},
		{StatusTerminated, "TERMINATED"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if string(tt.status) != tt.want {
				t.Errorf("SessionStatus = %q, want %q", tt.status, tt.want)
			}
		})
	}
}

func TestNewSession(t *testing.T) {
	sess := NewSession(
		"uuid-12345678",
		"subscriber01",
		"10.0.0.5",
		15,
		"192.168.5.10",
		1704067200,
	)

	if sess.UUID != "uuid-12345678" {
		t.Errorf("UUID = %q, want %q", sess.UUID, "uuid-12345678")
	}
	if sess.Username != "subscriber01" {
		t.Errorf("Username = %q, want %q", sess.Username, "subscriber01")
	}
	if sess.NasIP != "10.0.0.5" {
		t.Errorf("NasIP = %q, want %q", sess.NasIP, "10.0.0.5")
	}
	if sess.NasPort != 15 {
		t.Errorf("NasPort = %d, want %d", sess.NasPort, 15)
	}
	if sess.FramedIP != "192.168.5.10" {
		t.Errorf("FramedIP = %q, want %q", sess.FramedIP, "192.168.5.10")
	}
	if sess.Status != StatusPending {
		t.Errorf("Status = %q, want PENDING", sess.Status)
	}
	if sess.StartTime != 1704067200 {
		t.Errorf("StartTime = %d, want 1704067200", sess.StartTime)
	}
	if sess.LastUpdate != 1704067200 {
		t.Errorf("LastUpdate = %d, want 1704067200", sess.LastUpdate)
	}
}

func TestSessionTerminated(t *testing.T) {
	sess := NewSession("u", "alice", "10.0.0.5", 1, "", 0)
	if sess.Terminated() {
		t.Error("Terminated() = true for PENDING session")
	}
	sess.Status = StatusTerminated
	if !sess.Terminated() {
		t.Error("Terminated() = false for TERMINATED session")
	}
}
