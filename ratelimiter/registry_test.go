package ratelimiter

import "testing"

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	if _, ok := registry.Get("non-existent"); ok {
		t.Error("expected no limiter for unknown model")
	}

	first := New(100, 10)
	registry.Set("test-model", first)

	got, ok := registry.Get("test-model")
	if !ok || got != first {
		t.Error("retrieved limiter does not match set limiter")
	}

	second := New(200, 20)
	registry.Set("test-model", second)
	if got, _ := registry.Get("test-model"); got != second {
		t.Error("retrieved limiter does not match overwritten limiter")
	}

	registry.Set("test-model", nil)
	if _, ok := registry.Get("test-model"); ok {
		t.Error("setting nil should remove the limiter")
	}

	registry.Set("other", first)
	registry.Delete("other")
	if _, ok := registry.Get("other"); ok {
		t.Error("expected limiter to be deleted")
	}
}
