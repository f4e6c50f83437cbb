package passphrase

import (
	"errors"
	"strings"
	"testing"
)

func fakeSource(env map[string]string, terminal bool, prompt func(string) (string, error)) *Source {
	s := NewSource("TIP_KEYSTORE_PASS", "wallet")
	s.lookup = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	s.isTerminal = func() bool { return terminal }
	s.prompt = prompt
	return s
}

func TestSourcePrefersEnvironment(t *testing.T) {
	prompted := false
	s := fakeSource(map[string]string{"TIP_KEYSTORE_PASS": "hunter2"}, true, func(string) (string, error) {
		prompted = true
		return "", nil
	})
	got, err := s.Get()
	if err != nil || got != "hunter2" {
		t.Fatalf("Get() = %q, %v", got, err)
	}
	if prompted {
		t.Fatalf("prompt should not run when env is set")
	}
}

func TestSourceRejectsEmptyEnvironment(t *testing.T) {
	s := fakeSource(map[string]string{"TIP_KEYSTORE_PASS": "  "}, true, nil)
	if _, err := s.Get(); err == nil || !strings.Contains(err.Error(), "set but empty") {
		t.Fatalf("expected empty env error, got %v", err)
	}
}

func TestSourceWithoutTerminal(t *testing.T) {
	s := fakeSource(nil, false, nil)
	if _, err := s.Get(); err == nil || !strings.Contains(err.Error(), "TIP_KEYSTORE_PASS") {
		t.Fatalf("expected hint about env var, got %v", err)
	}
}

func TestSourcePromptsOnceAndCaches(t *testing.T) {
	calls := 0
	s := fakeSource(nil, true, func(label string) (string, error) {
		calls++
		if label != "wallet" {
			t.Fatalf("unexpected label %q", label)
		}
		return "secret", nil
	})
	for i := 0; i < 3; i++ {
		got, err := s.Get()
		if err != nil || got != "secret" {
			t.Fatalf("Get() = %q, %v", got, err)
		}
	}
	if calls != 1 {
		t.Fatalf("prompt called %d times", calls)
	}
}

func TestSourcePromptErrors(t *testing.T) {
	s := fakeSource(nil, true, func(string) (string, error) { return "", errors.New("tty closed") })
	if _, err := s.Get(); err == nil {
		t.Fatalf("expected prompt error")
	}
	blank := fakeSource(nil, true, func(string) (string, error) { return "   ", nil })
	if _, err := blank.Get(); err == nil {
		t.Fatalf("expected blank passphrase to fail")
	}
}
