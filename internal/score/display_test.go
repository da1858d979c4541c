package score

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"taste-fit/internal/api"
	"taste-fit/internal/domain"
)

func newDisplay(t *testing.T, handler http.HandlerFunc) *Display {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := api.NewClient(server.URL, nil, zap.NewNop())
	client.SetSleep(func(time.Duration) {})
	return NewDisplay(client, zap.NewNop(), "s1")
}

func TestMessageThresholds(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{92, "This coffee is right in your sweet spot"},
		{85, "This coffee is right in your sweet spot"},
		{84, "Strong alignment with your taste preferences"},
		{72, "Strong alignment with your taste preferences"},
		{70, "Strong alignment with your taste preferences"},
		{69, "Some attributes match, others differ from your usual"},
		{55, "Some attributes match, others differ from your usual"},
		{50, "Some attributes match, others differ from your usual"},
		{49, "This coffee explores different territory for you"},
		{30, "This coffee explores different territory for you"},
	}
	for _, tc := range cases {
		if got := Message(tc.score); got != tc.want {
			t.Fatalf("score %d: expected %q, got %q", tc.score, tc.want, got)
		}
	}
}

func TestDirectionFor(t *testing.T) {
	cases := []struct {
		delta int
		want  Direction
	}{
		{3, DirectionHigher},
		{2, DirectionHigher},
		{1, DirectionAligned},
		{0, DirectionAligned},
		{-1, DirectionAligned},
		{-2, DirectionLower},
	}
	for _, tc := range cases {
		if got := DirectionFor(tc.delta); got != tc.want {
			t.Fatalf("delta %d: expected %q, got %q", tc.delta, tc.want, got)
		}
	}
}

func TestRefreshScored(t *testing.T) {
	d := newDisplay(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/affective/taste-fit" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"profile_exists": true,
			"score": 86,
			"label": "Great Match",
			"breakdown": {
				"aroma": {"match": 88, "delta": 1, "pref": 7, "product": 8},
				"acidity": {"match": 63, "delta": -3, "pref": 8, "product": 5}
			}
		}`))
	})

	d.Refresh(context.Background(), map[domain.Attribute]int{domain.AttrAroma: 8})
	if d.State() != StateScored {
		t.Fatalf("expected scored, got %s", d.State())
	}
	result, ok := d.Result()
	if !ok || result.Score != 86 || result.Label != "Great Match" {
		t.Fatalf("unexpected result %+v", result)
	}
	if d.Message() != "This coffee is right in your sweet spot" {
		t.Fatalf("unexpected message %q", d.Message())
	}
	if DirectionFor(result.Breakdown[domain.AttrAcidity].Delta) != DirectionLower {
		t.Fatalf("expected acidity row to read lower")
	}
}

func TestRefreshNoProfile(t *testing.T) {
	d := newDisplay(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"profile_exists": false, "score": null}`))
	})

	d.Refresh(context.Background(), nil)
	if d.State() != StateNoProfile {
		t.Fatalf("expected no-profile, got %s", d.State())
	}
	if _, ok := d.Result(); ok {
		t.Fatalf("no result expected in no-profile state")
	}
}

func TestRefreshFailureCollapsesToNoProfile(t *testing.T) {
	d := newDisplay(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"boom"}`))
	})

	d.Refresh(context.Background(), nil)
	if d.State() != StateNoProfile {
		t.Fatalf("fetch failures must degrade to empty display, got %s", d.State())
	}
}

func TestRefreshNeverCaches(t *testing.T) {
	var calls int
	d := newDisplay(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"profile_exists": true, "score": 60, "label": "Good Fit", "breakdown": {}}`))
	})

	d.Refresh(context.Background(), nil)
	d.Refresh(context.Background(), nil)
	if calls != 2 {
		t.Fatalf("every refresh must re-request, got %d calls", calls)
	}
}
