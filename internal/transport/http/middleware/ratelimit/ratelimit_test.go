package ratelimit

import "testing"

func TestAllowUnlimited(t *testing.T) {
	l := New()
	for i := 0; i < 1000; i++ {
		if !l.Allow("user", 0) {
			t.Fatal("limit of 0 should never reject")
		}
	}
}

func TestAllowExhaustsBucket(t *testing.T) {
	l := New()
	limit := 5

	for i := 0; i < limit; i++ {
		if !l.Allow("user", limit) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("user", limit) {
		t.Error("request over the limit should be rejected")
	}
}

func TestAllowSeparateIdentities(t *testing.T) {
	l := New()

	for i := 0; i < 3; i++ {
		l.Allow("alice", 3)
	}
	if l.Allow("alice", 3) {
		t.Error("alice should be rate limited")
	}
	if !l.Allow("bob", 3) {
		t.Error("bob has a separate bucket and should be allowed")
	}
}
