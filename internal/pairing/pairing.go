// Package pairing implements the device pairing lifecycle: a device claims
// a short code, the wizard later writes a webhook URL and preferences into
// the same entry, and the next device poll consumes (and deletes) it.
package pairing

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"commuterdash/internal/config"
	"commuterdash/internal/kvstore"
)

// ErrCodeInUse is returned when a device POSTs a code already claimed by a
// different deviceId.
var ErrCodeInUse = errors.New("pairing: code in use")

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const codeLength = 6

// Entry is the KV-persisted pairing record. ID is a server-assigned
// correlation id, independent of the device-chosen DeviceID, so pairing
// events for one code can be traced through logs even when the device
// reuses ids across re-pairs.
type Entry struct {
	ID          string          `json:"id"`
	DeviceID    string          `json:"deviceId,omitempty"`
	DeviceKind  string          `json:"deviceKind,omitempty"`
	WebhookURL  string          `json:"webhookUrl,omitempty"`
	Preferences json.RawMessage `json:"preferences,omitempty"`
	CreatedAt   time.Time       `json:"createdAtUTC"`
}

// Status is the device-visible pairing state.
type Status string

const (
	StatusCreated Status = "created"
	StatusWaiting Status = "waiting"
	StatusPaired  Status = "paired"
	StatusExpired Status = "expired"
)

// Manager mediates between devices and the wizard through a shared KV store.
type Manager struct {
	kv kvstore.Store
}

// NewManager wraps a KV store for pairing use.
func NewManager(kv kvstore.Store) *Manager {
	return &Manager{kv: kv}
}

func key(code string) string {
	return "pair:" + code
}

// GenerateCode draws a 6-character A-Z0-9 code from a cryptographic RNG.
// Devices generate this locally; exposed here too so a wizard or test
// harness can mint one the same way.
func GenerateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate pairing code: %w", err)
	}
	out := make([]byte, codeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out), nil
}

// ClaimByDevice is called when a device first presents a code
// (POST /api/pair/{CODE} {deviceId, deviceKind}). If the code is unclaimed
// it creates the entry; if already claimed by a different deviceId it
// returns ErrCodeInUse.
func (m *Manager) ClaimByDevice(ctx context.Context, code, deviceID, deviceKind string) (Status, error) {
	existing, err := m.get(ctx, code)
	if err == nil {
		if existing.DeviceID != "" && existing.DeviceID != deviceID {
			return "", ErrCodeInUse
		}
		existing.DeviceKind = deviceKind
		if err := m.put(ctx, code, existing); err != nil {
			return "", err
		}
		if existing.WebhookURL != "" {
			return StatusPaired, nil
		}
		return StatusWaiting, nil
	}

	entry := Entry{ID: uuid.NewString(), DeviceID: deviceID, DeviceKind: deviceKind, CreatedAt: time.Now().UTC()}
	if err := m.put(ctx, code, entry); err != nil {
		return "", err
	}
	return StatusCreated, nil
}

// CompleteFromWizard is called when the wizard POSTs the webhook URL and
// preferences for a code. It creates the entry if none exists yet.
func (m *Manager) CompleteFromWizard(ctx context.Context, code, webhookURL string, preferences json.RawMessage) error {
	entry, err := m.get(ctx, code)
	if err != nil {
		entry = Entry{ID: uuid.NewString(), CreatedAt: time.Now().UTC()}
	}
	entry.WebhookURL = webhookURL
	entry.Preferences = preferences
	return m.put(ctx, code, entry)
}

// PollResult is what a device sees on GET /api/pair/{CODE}.
type PollResult struct {
	Status     Status `json:"status"`
	WebhookURL string `json:"webhookUrl,omitempty"`
	PairingID  string `json:"pairingId,omitempty"`
}

// Poll is the device-side read. A paired entry is deleted after this single
// successful read; an absent/expired entry
// reports StatusExpired so the device regenerates a fresh code.
func (m *Manager) Poll(ctx context.Context, code string) (PollResult, error) {
	entry, err := m.get(ctx, code)
	if err != nil {
		return PollResult{Status: StatusExpired}, nil
	}
	if entry.WebhookURL == "" {
		return PollResult{Status: StatusWaiting}, nil
	}
	result := PollResult{Status: StatusPaired, WebhookURL: entry.WebhookURL, PairingID: entry.ID}
	if err := m.kv.Delete(ctx, key(code)); err != nil {
		return PollResult{}, fmt.Errorf("consume pairing entry: %w", err)
	}
	return result, nil
}

func (m *Manager) get(ctx context.Context, code string) (Entry, error) {
	raw, err := m.kv.Get(ctx, key(code))
	if err != nil {
		return Entry{}, err
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, fmt.Errorf("decode pairing entry: %w", err)
	}
	return e, nil
}

func (m *Manager) put(ctx context.Context, code string, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode pairing entry: %w", err)
	}
	return m.kv.Set(ctx, key(code), raw, config.PairingTTL)
}
