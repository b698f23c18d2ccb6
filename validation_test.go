package logmerge

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/creastat/logmerge/core"
	"github.com/creastat/logmerge/sinks"
)

func TestGuardCheck(t *testing.T) {
	g := Guard{Now: fixedClock}

	tests := []struct {
		name   string
		entry  core.Entry
		reason core.SkipReason
	}{
		{"past", entryAt(1, "ok"), ""},
		{"exactly now", core.Entry{Timestamp: now, Payload: "edge"}, ""},
		{"one nanosecond ahead", core.Entry{Timestamp: now.Add(time.Nanosecond)}, core.SkipReasonFuture},
		{"far future", future("later"), core.SkipReasonFuture},
		{"zero timestamp", core.Entry{Payload: "no-date"}, core.SkipReasonMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Check(tt.entry)
			if tt.reason == "" {
				if err != nil {
					t.Fatalf("expected entry accepted, got %v", err)
				}
				return
			}
			var entryErr *EntryError
			if !errors.As(err, &entryErr) {
				t.Fatalf("expected *EntryError, got %v", err)
			}
			if entryErr.Reason != tt.reason {
				t.Errorf("expected reason %s, got %s", tt.reason, entryErr.Reason)
			}
		})
	}
}

func TestGuardDefaultsToWallClock(t *testing.T) {
	var g Guard
	if err := g.Check(core.Entry{Timestamp: time.Now().Add(-time.Minute)}); err != nil {
		t.Errorf("expected recent entry accepted, got %v", err)
	}
	if err := g.Check(core.Entry{Timestamp: time.Now().Add(time.Hour)}); err == nil {
		t.Error("expected future entry rejected")
	}
}

func TestEntryErrorMessage(t *testing.T) {
	err := &EntryError{Reason: core.SkipReasonFuture, Entry: future("x"), Now: now}
	if !strings.Contains(err.Error(), "is after now") {
		t.Errorf("unexpected message %q", err.Error())
	}
	err = &EntryError{Reason: core.SkipReasonMalformed}
	if err.Error() != "entry has no timestamp" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestValidateRun(t *testing.T) {
	notNil := func(int) bool { return false }

	if err := validateRun(3, notNil, sinks.NewCollect()); err != nil {
		t.Errorf("expected valid run, got %v", err)
	}

	err := validateRun(0, notNil, nil)
	if !errors.Is(err, ErrNilSink) {
		t.Errorf("expected ErrNilSink, got %v", err)
	}

	err = validateRun(3, func(i int) bool { return i == 2 }, sinks.NewCollect())
	if err == nil || !strings.Contains(err.Error(), "source 2 is nil") {
		t.Errorf("expected nil source error, got %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	retry := func(r core.RetryConfig) Config {
		cfg := DefaultConfig()
		cfg.SkipPolicy = core.SkipPolicyRetry
		cfg.Retry = r
		return cfg
	}

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"default", DefaultConfig(), ""},
		{"retry default bounds", retry(core.DefaultRetryConfig()), ""},
		{"retry immediate", retry(core.RetryConfig{MaxAttempts: 1}), ""},
		{"unknown policy", Config{SkipPolicy: "panic"}, "unknown skip policy"},
		{"negative concurrency", Config{SkipPolicy: core.SkipPolicyDrop, PrimeConcurrency: -1}, "prime_concurrency"},
		{"zero attempts", retry(core.RetryConfig{}), "max_attempts"},
		{"negative interval", retry(core.RetryConfig{MaxAttempts: 2, InitialInterval: -time.Second}), "must not be negative"},
		{"initial above max", retry(core.RetryConfig{MaxAttempts: 2, InitialInterval: time.Second, MaxInterval: time.Millisecond}), "exceeds"},
		{"drop ignores retry bounds", Config{SkipPolicy: core.SkipPolicyDrop}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(tt.cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected valid config, got %v", err)
				}
				return
			}
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !strings.Contains(verr.Details, tt.wantErr) {
				t.Errorf("expected details containing %q, got %q", tt.wantErr, verr.Details)
			}
		})
	}
}
