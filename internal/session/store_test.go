package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "credentials.json"))
}

func TestStoreSetLoadClear(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.Load())
	_, ok := s.Current()
	require.False(t, ok)

	creds := Credentials{Token: "tok-1", User: User{ID: "u1", Email: "a@example.com", Name: "A"}}
	require.NoError(t, s.Set(creds))

	// A fresh store over the same file sees the persisted credential.
	s2 := NewStore(s.path)
	require.NoError(t, s2.Load())
	got, ok := s2.Current()
	require.True(t, ok)
	require.Equal(t, "tok-1", got.Token)
	require.Equal(t, "u1", got.User.ID)

	require.NoError(t, s.Clear())
	require.Equal(t, "", s.Token())
	require.NoError(t, s2.Load())
	_, ok = s2.Current()
	require.False(t, ok)
}

func TestStoreLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := NewStore(path)
	require.NoError(t, s.Load())
	_, ok := s.Current()
	require.False(t, ok)
	// corrupt file is removed so the next load is clean
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestInvalidateBroadcastsToAllSubscribers(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.Set(Credentials{Token: "tok", User: User{ID: "u1"}}))

	ch1, cancel1 := s.Subscribe()
	ch2, cancel2 := s.Subscribe()
	defer cancel1()
	defer cancel2()

	s.Invalidate("TOKEN_EXPIRED", "session expired")

	for _, ch := range []<-chan Invalidation{ch1, ch2} {
		select {
		case ev := <-ch:
			require.Equal(t, "TOKEN_EXPIRED", ev.Code)
			require.Equal(t, "session expired", ev.Message)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive invalidation")
		}
	}

	_, ok := s.Current()
	require.False(t, ok)
}

func TestInvalidateSkipsCancelledSubscriber(t *testing.T) {
	s := tempStore(t)
	ch, cancel := s.Subscribe()
	cancel()

	s.Invalidate("INVALID_TOKEN", "bad token")

	select {
	case <-ch:
		t.Fatal("cancelled subscriber should not receive events")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestInvalidateDoesNotBlockOnFullSubscriber(t *testing.T) {
	s := tempStore(t)
	ch, cancel := s.Subscribe()
	defer cancel()

	// fill the buffer, then invalidate twice; the second send is dropped
	s.Invalidate("TOKEN_EXPIRED", "one")
	done := make(chan struct{})
	go func() {
		s.Invalidate("TOKEN_EXPIRED", "two")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Invalidate blocked on a full subscriber channel")
	}
	ev := <-ch
	require.Equal(t, "one", ev.Message)
}
