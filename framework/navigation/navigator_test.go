package navigation_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/km-arc/go-tivi/framework/navigation"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func recordTo(got *navigation.Params) navigation.Destination {
	return func(_ context.Context, p navigation.Params) error {
		*got = p
		return nil
	}
}

// ── Navigate ─────────────────────────────────────────────────────────────────

func TestNavigator_BarePath(t *testing.T) {
	n := navigation.New()
	called := false
	n.Handle("/discover", func(context.Context, navigation.Params) error {
		called = true
		return nil
	})

	if err := n.Navigate(context.Background(), "/discover"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if !called {
		t.Error("destination was not called")
	}
}

func TestNavigator_FullURIWithParamsAndQuery(t *testing.T) {
	n := navigation.New()
	var got navigation.Params
	n.Handle("/shows/{showID}", recordTo(&got))

	if err := n.Navigate(context.Background(), "tivi://app/shows/42?tab=seasons"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if got.Get("showID") != "42" {
		t.Errorf("showID: got %q want %q", got.Get("showID"), "42")
	}
	if got.Query.Get("tab") != "seasons" {
		t.Errorf("tab: got %q want %q", got.Query.Get("tab"), "seasons")
	}
}

func TestNavigator_UnknownDestination(t *testing.T) {
	n := navigation.New()
	n.Handle("/discover", func(context.Context, navigation.Params) error { return nil })

	err := n.Navigate(context.Background(), "/nowhere")
	if !errors.Is(err, navigation.ErrUnknownDestination) {
		t.Errorf("expected ErrUnknownDestination, got %v", err)
	}
}

func TestNavigator_DestinationErrorReturned(t *testing.T) {
	n := navigation.New()
	boom := errors.New("boom")
	n.Handle("/settings", func(context.Context, navigation.Params) error { return boom })

	if err := n.Navigate(context.Background(), "/settings"); !errors.Is(err, boom) {
		t.Errorf("got %v want %v", err, boom)
	}
}

func TestNavigator_ContextPropagates(t *testing.T) {
	type key struct{}
	n := navigation.New()
	var seen any
	n.Handle("/x", func(ctx context.Context, _ navigation.Params) error {
		seen = ctx.Value(key{})
		return nil
	})

	ctx := context.WithValue(context.Background(), key{}, "v")
	if err := n.Navigate(ctx, "/x"); err != nil {
		t.Fatal(err)
	}
	if seen != "v" {
		t.Errorf("context value: got %v", seen)
	}
}

// ── Groups & Prefixes ────────────────────────────────────────────────────────

func TestNavigator_Prefix(t *testing.T) {
	n := navigation.New()
	var got navigation.Params
	n.Prefix("/shows", func(s *navigation.Navigator) {
		s.Handle("/{showID}/seasons/{season}", recordTo(&got))
	})

	if err := n.Navigate(context.Background(), "/shows/7/seasons/2"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if got.Get("showID") != "7" || got.Get("season") != "2" {
		t.Errorf("params: showID=%q season=%q", got.Get("showID"), got.Get("season"))
	}
}

func TestNavigator_Group_Middleware(t *testing.T) {
	n := navigation.New()
	n.Handle("/public", func(context.Context, navigation.Params) error { return nil })

	guarded := false
	n.Group(func(g *navigation.Navigator) {
		g.Middleware(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				guarded = true
				next.ServeHTTP(w, r)
			})
		})
		g.Handle("/account", func(context.Context, navigation.Params) error { return nil })
	})

	if err := n.Navigate(context.Background(), "/public"); err != nil {
		t.Fatal(err)
	}
	if guarded {
		t.Error("group middleware should not wrap routes outside the group")
	}
	if err := n.Navigate(context.Background(), "/account"); err != nil {
		t.Fatal(err)
	}
	if !guarded {
		t.Error("group middleware should wrap routes inside the group")
	}
}

func TestNavigator_MiddlewareCanBlock(t *testing.T) {
	n := navigation.New()
	n.Middleware(func(http.Handler) http.Handler {
		return http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	})
	n.Handle("/blocked", func(context.Context, navigation.Params) error { return nil })

	if err := n.Navigate(context.Background(), "/blocked"); !errors.Is(err, navigation.ErrUnknownDestination) {
		t.Errorf("expected ErrUnknownDestination, got %v", err)
	}
}

func TestNavigator_Routes(t *testing.T) {
	n := navigation.New()
	n.Handle("/discover", func(context.Context, navigation.Params) error { return nil })
	n.Handle("/settings", func(context.Context, navigation.Params) error { return nil })

	if got := len(n.Routes()); got != 2 {
		t.Errorf("Routes(): got %d want 2", got)
	}
}
