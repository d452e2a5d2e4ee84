package credentials

import (
	"context"
	"strings"
	"testing"
)

func newTestManager() *Manager {
	return NewManager(WithKeyring(NewMockKeyring()))
}

func TestSetGetDelete(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	if err := m.Set(ctx, "u1", "secret-token"); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	info, err := m.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !info.Found || info.Token != "secret-token" || info.Source != SourceKeyring {
		t.Errorf("info = %+v", info)
	}

	if err := m.Delete(ctx, "u1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	info, err = m.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get after delete error: %v", err)
	}
	if info.Found {
		t.Error("token found after delete")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	m := newTestManager()
	if err := m.Delete(context.Background(), "never-stored"); err != nil {
		t.Errorf("Delete of absent token error: %v", err)
	}
}

func TestEnvironmentFallback(t *testing.T) {
	t.Setenv(EnvToken, "env-token")
	m := newTestManager()

	info, err := m.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !info.Found || info.Token != "env-token" || info.Source != SourceEnvironment {
		t.Errorf("info = %+v", info)
	}
}

func TestKeyringTakesPriorityOverEnvironment(t *testing.T) {
	t.Setenv(EnvToken, "env-token")
	ctx := context.Background()
	m := newTestManager()
	_ = m.Set(ctx, "u1", "keyring-token")

	info, _ := m.Get(ctx, "u1")
	if info.Token != "keyring-token" || info.Source != SourceKeyring {
		t.Errorf("info = %+v, want keyring to win", info)
	}
}

func TestPromptTokenReadsLine(t *testing.T) {
	var out strings.Builder
	token, err := PromptToken(strings.NewReader("  the-token  \n"), &out, "u1")
	if err != nil {
		t.Fatalf("PromptToken error: %v", err)
	}
	if token != "the-token" {
		t.Errorf("token = %q", token)
	}
	if !strings.Contains(out.String(), "u1") {
		t.Errorf("prompt output = %q, want it to name the account", out.String())
	}
}

func TestPromptTokenEmptyInput(t *testing.T) {
	var out strings.Builder
	if _, err := PromptToken(strings.NewReader(""), &out, "u1"); err == nil {
		t.Fatal("PromptToken with no input should fail")
	}
}

func TestMockKeyringIsolatesServices(t *testing.T) {
	k := NewMockKeyring()
	_ = k.Set("svc-a", "acct", "a")
	_ = k.Set("svc-b", "acct", "b")

	got, err := k.Get("svc-a", "acct")
	if err != nil || got != "a" {
		t.Errorf("Get(svc-a) = %q, %v", got, err)
	}
	if err := k.Delete("svc-a", "acct"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := k.Get("svc-a", "acct"); err == nil {
		t.Error("Get after delete should fail")
	}
	if got, _ := k.Get("svc-b", "acct"); got != "b" {
		t.Error("deleting one service touched another")
	}
}
