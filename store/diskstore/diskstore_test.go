package diskstore

import (
	"testing"

	"taskdeck/store"
)

func mustNewStore(t *testing.T) *Store {
	t.Helper()
	s := New(t.TempDir())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreImplementsInterface(t *testing.T) {
	var _ store.KV = (*Store)(nil)
}

func TestReadMissingKeyReturnsFallback(t *testing.T) {
	s := mustNewStore(t)

	if got := s.Read("absent", []byte("fallback")); string(got) != "fallback" {
		t.Errorf("Read(absent) = %q, want %q", got, "fallback")
	}
}

func TestWriteThenRead(t *testing.T) {
	s := mustNewStore(t)

	s.Write("td_tasks_v2", []byte(`{"f1":[]}`))
	if got := s.Read("td_tasks_v2", nil); string(got) != `{"f1":[]}` {
		t.Errorf("Read = %q, want stored value", got)
	}
}

func TestValuesSurviveReopen(t *testing.T) {
	dir := t.TempDir()

	s := New(dir)
	s.Write("key", []byte("value"))
	_ = s.Close()

	reopened := New(dir)
	defer func() { _ = reopened.Close() }()

	if got := reopened.Read("key", nil); string(got) != "value" {
		t.Errorf("Read after reopen = %q, want %q", got, "value")
	}
}
