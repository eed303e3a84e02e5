package geocode

import (
	"context"
	"encoding/json"
	"testing"

	"commuterdash/internal/geo"
	"commuterdash/internal/kvstore"
)

func TestResolveReturnsCachedLocationWithoutUpstreamCall(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore(16)
	r := NewResolver(kv, "")

	want := geo.Location{FormattedAddress: "1 Collins St, Melbourne VIC", Latitude: -37.8142, Longitude: 144.9745}
	raw, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal seed location error = %v", err)
	}
	if err := kv.Set(ctx, cacheKey("1 Collins St"), raw, 0); err != nil {
		t.Fatalf("seed cache error = %v", err)
	}

	got, err := r.Resolve(ctx, "1 Collins St")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != want {
		t.Errorf("Resolve() = %+v, want %+v", got, want)
	}
}

func TestCacheKeyIsAddressScoped(t *testing.T) {
	a := cacheKey("1 Collins St")
	b := cacheKey("2 Collins St")
	if a == b {
		t.Error("cacheKey() produced the same key for two different addresses")
	}
	if cacheKey("1 Collins St") != a {
		t.Error("cacheKey() is not deterministic for the same address")
	}
}
