package server

import (
	"context"
	"net"
	"testing"

	"github.com/oyaguma3/subscriber-radius/pkg/apperr"
	"github.com/oyaguma3/subscriber-radius/pkg/model"
)

// fakeClientStore はstore.ClientStoreのテスト用実装
type fakeClientStore struct {
	clients map[string]*model.RadiusClient
	err     error
}

func (f *fakeClientStore) Get(_ context.Context, ip string) (*model.RadiusClient, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.clients[ip]
	if !ok {
		return nil, apperr.ErrKeyNotFound
	}
	return c, nil
}

func (f *fakeClientStore) Put(_ context.Context, _ *model.RadiusClient) error { return nil }

func (f *fakeClientStore) Delete(_ context.Context, _ string) error { return nil }

func TestSecretSourceFound(t *testing.T) {
	ss := NewSecretSource(&fakeClientStore{clients: map[string]*model.RadiusClient{
		"10.0.0.5": model.NewRadiusClient("10.0.0.5", "testing123", "bras-01"),
	}})

	addr := &net.UDPAddr{IP: net.ParseIP("10.0.0.5"), Port: 1812}
	secret, err := ss.RADIUSSecret(context.Background(), addr)
	if err != nil {
		t.Fatalf("RADIUSSecret failed: %v", err)
	}
	if string(secret) != "testing123" {
		t.Errorf("secret = %q, want %q", secret, "testing123")
	}
}

func TestSecretSourceUnknownClient(t *testing.T) {
	ss := NewSecretSource(&fakeClientStore{clients: map[string]*model.RadiusClient{}})

	addr := &net.UDPAddr{IP: net.ParseIP("203.0.113.9"), Port: 1812}
	secret, err := ss.RADIUSSecret(context.Background(), addr)
	if err != nil {
		t.Fatalf("RADIUSSecret failed: %v", err)
	}
	// nilを返すとパケットは黙って破棄される
	if secret != nil {
		t.Errorf("secret = %q, want nil", secret)
	}
}

func TestSecretSourceInactiveClient(t *testing.T) {
	inactive := model.NewRadiusClient("10.0.0.5", "testing123", "bras-01")
	inactive.Active = false
	ss := NewSecretSource(&fakeClientStore{clients: map[string]*model.RadiusClient{
		"10.0.0.5": inactive,
	}})

	addr := &net.UDPAddr{IP: net.ParseIP("10.0.0.5"), Port: 1812}
	secret, _ := ss.RADIUSSecret(context.Background(), addr)
	if secret != nil {
		t.Errorf("secret = %q, want nil for inactive client", secret)
	}
}

func TestSecretSourceStoreError(t *testing.T) {
	ss := NewSecretSource(&fakeClientStore{err: apperr.ErrValkeyUnavailable})

	addr := &net.UDPAddr{IP: net.ParseIP("10.0.0.5"), Port: 1812}
	secret, err := ss.RADIUSSecret(context.Background(), addr)
	if err != nil {
		t.Fatalf("RADIUSSecret must not propagate store errors, got: %v", err)
	}
	if secret != nil {
		t.Errorf("secret = %q, want nil on store error", secret)
	}
}

func TestSecretSourceNilAddr(t *testing.T) {
	ss := NewSecretSource(&fakeClientStore{})

	secret, err := ss.RADIUSSecret(context.Background(), nil)
	if err != nil {
		t.Fatalf("RADIUSSecret failed: %v", err)
	}
	if secret != nil {
		t.Errorf("secret = %q, want nil", secret)
	}
}
