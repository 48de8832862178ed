package cache

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	datasource "github.com/eugener/proxydb/internal"
	"github.com/eugener/proxydb/internal/telemetry"
	"github.com/eugener/proxydb/internal/testutil"
)

var _ datasource.DataSource = (*Source)(nil)

func newSource(t *testing.T, next datasource.DataSource, opts ...Option) *Source {
	t.Helper()
	s, err := New(next, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSource_Memoizes(t *testing.T) {
	t.Parallel()
	fake := &testutil.FakeSource{}
	s := newSource(t, fake)
	ctx := context.Background()

	for range 2 {
		got, err := s.Fetch(ctx, "k")
		if err != nil {
			t.Fatal(err)
		}
		if got != "fake:k" {
			t.Errorf("Fetch = %q, want %q", got, "fake:k")
		}
	}

	if fake.Calls("k") != 1 {
		t.Errorf("wrapped calls = %d, want 1", fake.Calls("k"))
	}
}

func TestSource_KeepsFirstValue(t *testing.T) {
	t.Parallel()
	fake := &testutil.FakeSource{}
	s := newSource(t, fake)
	ctx := context.Background()

	first, err := s.Fetch(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}

	fake.SetFetchFn(func(context.Context, string) (string, error) {
		return "changed", nil
	})

	for range 3 {
		got, err := s.Fetch(ctx, "k")
		if err != nil {
			t.Fatal(err)
		}
		if got != first {
			t.Errorf("Fetch = %q, want first value %q", got, first)
		}
	}

	// A new key sees the changed source.
	if got, _ := s.Fetch(ctx, "other"); got != "changed" {
		t.Errorf("Fetch(other) = %q, want %q", got, "changed")
	}
}

func TestSource_KeyIndependence(t *testing.T) {
	t.Parallel()
	fake := &testutil.FakeSource{}
	s := newSource(t, fake)
	ctx := context.Background()

	a, _ := s.Fetch(ctx, "A")
	b, _ := s.Fetch(ctx, "B")
	if a == b {
		t.Errorf("distinct keys returned same value %q", a)
	}
	if fake.Calls("A") != 1 || fake.Calls("B") != 1 {
		t.Errorf("calls A=%d B=%d, want 1 each", fake.Calls("A"), fake.Calls("B"))
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestSource_ErrorsNotCached(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	fake := &testutil.FakeSource{
		FetchFn: func(context.Context, string) (string, error) {
			return "", boom
		},
	}
	s := newSource(t, fake)
	ctx := context.Background()

	if _, err := s.Fetch(ctx, "k"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	fake.SetFetchFn(nil)
	got, err := s.Fetch(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if got != "fake:k" {
		t.Errorf("Fetch = %q, want %q", got, "fake:k")
	}
	if fake.Calls("k") != 2 {
		t.Errorf("wrapped calls = %d, want 2", fake.Calls("k"))
	}
}

func TestSource_FreshInstanceEmpty(t *testing.T) {
	t.Parallel()
	fake := &testutil.FakeSource{}
	ctx := context.Background()

	first := newSource(t, fake)
	first.Fetch(ctx, "k")

	second := newSource(t, fake)
	if second.Len() != 0 {
		t.Errorf("fresh Len = %d, want 0", second.Len())
	}
	second.Fetch(ctx, "k")
	if fake.Calls("k") != 2 {
		t.Errorf("wrapped calls = %d, want 2 (one per instance)", fake.Calls("k"))
	}
}

func TestSource_CancelledContext(t *testing.T) {
	t.Parallel()
	fake := &testutil.FakeSource{}
	s := newSource(t, fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Fetch(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if fake.TotalCalls() != 0 {
		t.Errorf("wrapped calls = %d, want 0", fake.TotalCalls())
	}
}

func TestSource_WaiterSurvivesOwnerCancel(t *testing.T) {
	t.Parallel()
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	fake := &testutil.FakeSource{
		FetchFn: func(ctx context.Context, key string) (string, error) {
			once.Do(func() { close(started) })
			<-release
			return "fake:" + key, nil
		},
	}
	s := newSource(t, fake)

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()

	var wg sync.WaitGroup
	wg.Go(func() {
		s.Fetch(ctxA, "k")
	})
	<-started

	var got string
	var errB error
	wg.Go(func() {
		got, errB = s.Fetch(context.Background(), "k")
	})

	time.Sleep(20 * time.Millisecond)
	cancelA()
	close(release)
	wg.Wait()

	if errB != nil || got != "fake:k" {
		t.Errorf("live caller Fetch = %q, %v; want %q, nil", got, errB, "fake:k")
	}
	if fake.Calls("k") != 1 {
		t.Errorf("wrapped calls = %d, want 1", fake.Calls("k"))
	}
}

func TestSource_Concurrent(t *testing.T) {
	t.Parallel()
	fake := &testutil.FakeSource{}
	s := newSource(t, fake)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 100 {
		wg.Go(func() {
			if got, err := s.Fetch(ctx, "k"); err != nil || got != "fake:k" {
				t.Errorf("Fetch = %q, %v", got, err)
			}
		})
	}
	wg.Wait()

	if fake.Calls("k") != 1 {
		t.Errorf("wrapped calls = %d, want 1", fake.Calls("k"))
	}
}

func TestSource_LogsAndMetrics(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	m := telemetry.NewMetrics(prometheus.NewPedanticRegistry())

	s := newSource(t, &testutil.FakeSource{}, WithLogger(log), WithMetrics(m))
	ctx := context.Background()
	s.Fetch(ctx, "k")
	s.Fetch(ctx, "k")

	out := buf.String()
	if !strings.Contains(out, "get from real object") {
		t.Errorf("log missing miss trace: %s", out)
	}
	if !strings.Contains(out, "get from cache") {
		t.Errorf("log missing hit trace: %s", out)
	}
	if got := promtest.ToFloat64(m.CacheMisses); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
	if got := promtest.ToFloat64(m.CacheHits); got != 1 {
		t.Errorf("hits = %v, want 1", got)
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New(nil); !errors.Is(err, datasource.ErrNilSource) {
		t.Errorf("New(nil) err = %v, want ErrNilSource", err)
	}
	if _, err := New(&testutil.FakeSource{}, WithStore(nil)); err == nil {
		t.Error("WithStore(nil) should fail")
	}
}

func TestWithStore(t *testing.T) {
	t.Parallel()
	mem, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	s := newSource(t, &testutil.FakeSource{}, WithStore(mem))
	ctx := context.Background()
	s.Fetch(ctx, "k")

	got, ok := mem.Get(ctx, "k")
	if !ok || got != "fake:k" {
		t.Errorf("store Get = %q, %v; want %q, true", got, ok, "fake:k")
	}
}
