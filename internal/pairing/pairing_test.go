package pairing

import (
	"context"
	"encoding/json"
	"testing"

	"commuterdash/internal/kvstore"
)

func TestGenerateCodeShape(t *testing.T) {
	code, err := GenerateCode()
	if err != nil {
		t.Fatalf("GenerateCode() error = %v", err)
	}
	if len(code) != codeLength {
		t.Fatalf("len(code) = %d, want %d", len(code), codeLength)
	}
	for _, r := range code {
		if !containsRune(codeAlphabet, r) {
			t.Errorf("code %q contains rune %q outside codeAlphabet", code, r)
		}
	}
}

func containsRune(s string, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}

func TestClaimCompletePollRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewManager(kvstore.NewMemoryStore(64))

	status, err := m.ClaimByDevice(ctx, "ABC123", "device-1", "trmnl")
	if err != nil {
		t.Fatalf("ClaimByDevice() error = %v", err)
	}
	if status != StatusCreated {
		t.Errorf("status = %v, want %v", status, StatusCreated)
	}

	if res, err := m.Poll(ctx, "ABC123"); err != nil || res.Status != StatusWaiting {
		t.Fatalf("Poll() before completion = %+v, err = %v, want status %v", res, err, StatusWaiting)
	}

	prefs := json.RawMessage(`{"coffeeEnabled":true}`)
	if err := m.CompleteFromWizard(ctx, "ABC123", "https://device.example/webhook", prefs); err != nil {
		t.Fatalf("CompleteFromWizard() error = %v", err)
	}

	res, err := m.Poll(ctx, "ABC123")
	if err != nil {
		t.Fatalf("Poll() after completion error = %v", err)
	}
	if res.Status != StatusPaired {
		t.Errorf("status = %v, want %v", res.Status, StatusPaired)
	}
	if res.WebhookURL != "https://device.example/webhook" {
		t.Errorf("WebhookURL = %q, want %q", res.WebhookURL, "https://device.example/webhook")
	}
}

func TestPollConsumesEntryExactlyOnce(t *testing.T) {
	ctx := context.Background()
	m := NewManager(kvstore.NewMemoryStore(64))

	if _, err := m.ClaimByDevice(ctx, "XYZ789", "device-1", "trmnl"); err != nil {
		t.Fatalf("ClaimByDevice() error = %v", err)
	}
	if err := m.CompleteFromWizard(ctx, "XYZ789", "https://device.example/hook", nil); err != nil {
		t.Fatalf("CompleteFromWizard() error = %v", err)
	}

	first, err := m.Poll(ctx, "XYZ789")
	if err != nil || first.Status != StatusPaired {
		t.Fatalf("first Poll() = %+v, err = %v, want status %v", first, err, StatusPaired)
	}

	second, err := m.Poll(ctx, "XYZ789")
	if err != nil {
		t.Fatalf("second Poll() error = %v", err)
	}
	if second.Status != StatusExpired {
		t.Errorf("second Poll() status = %v, want %v (entry must be consumed after first read)", second.Status, StatusExpired)
	}
}

func TestClaimByDeviceRejectsConflictingDevice(t *testing.T) {
	ctx := context.Background()
	m := NewManager(kvstore.NewMemoryStore(64))

	if _, err := m.ClaimByDevice(ctx, "CODE01", "device-1", "trmnl"); err != nil {
		t.Fatalf("first ClaimByDevice() error = %v", err)
	}

	_, err := m.ClaimByDevice(ctx, "CODE01", "device-2", "trmnl")
	if err != ErrCodeInUse {
		t.Errorf("ClaimByDevice() with a different deviceId error = %v, want %v", err, ErrCodeInUse)
	}
}

func TestClaimByDeviceIsIdempotentForSameDevice(t *testing.T) {
	ctx := context.Background()
	m := NewManager(kvstore.NewMemoryStore(64))

	if _, err := m.ClaimByDevice(ctx, "CODE02", "device-1", "trmnl"); err != nil {
		t.Fatalf("first ClaimByDevice() error = %v", err)
	}
	status, err := m.ClaimByDevice(ctx, "CODE02", "device-1", "trmnl")
	if err != nil {
		t.Fatalf("repeat ClaimByDevice() error = %v", err)
	}
	if status != StatusWaiting {
		t.Errorf("repeat claim status = %v, want %v", status, StatusWaiting)
	}
}

func TestPollUnknownCodeReportsExpired(t *testing.T) {
	ctx := context.Background()
	m := NewManager(kvstore.NewMemoryStore(64))

	res, err := m.Poll(ctx, "NOSUCH")
	if err != nil {
		t.Fatalf("Poll() of an unknown code returned an error, want nil: %v", err)
	}
	if res.Status != StatusExpired {
		t.Errorf("status = %v, want %v", res.Status, StatusExpired)
	}
}
