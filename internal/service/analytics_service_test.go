package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"go.uber.org/zap"

	"taste-fit/internal/domain"
	"taste-fit/internal/repository"
)

func newAnalyticsFixture(t *testing.T) (*AnalyticsService, repository.ProfileRepository, repository.ResponseRepository, repository.EventRepository) {
	t.Helper()
	profiles := repository.NewMemoryProfileRepository()
	responses := repository.NewMemoryResponseRepository()
	events := repository.NewMemoryEventRepository()
	svc := NewAnalyticsService(zap.NewNop(), profiles, responses, events)
	return svc, profiles, responses, events
}

func strPtr(s string) *string { return &s }

func storedResponse(sessionID, productID string, mode domain.Mode, created time.Time) repository.StoredResponse {
	return repository.StoredResponse{
		TastingResponse: domain.TastingResponse{
			SessionID: sessionID,
			ProductID: productID,
			VariantID: "v1",
			Mode:      mode,
		},
		ResponseID: sessionID + "-" + productID,
		CreatedAt:  created,
	}
}

func TestListProductsGroupsAndFilters(t *testing.T) {
	svc, _, responses, _ := newAnalyticsFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	responses.Create(ctx, storedResponse("s1", "ethiopia", domain.ModePreferenceOnly, now.Add(-2*time.Hour)))
	responses.Create(ctx, storedResponse("s2", "ethiopia", domain.ModeTasted, now.Add(-time.Hour)))
	responses.Create(ctx, storedResponse("s3", "colombia", domain.ModeTasted, now))

	rows, err := svc.ListProducts(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 products, got %d", len(rows))
	}
	// Ordenado por ultima respuesta descendente.
	if rows[0].ProductID != "colombia" {
		t.Fatalf("expected colombia first, got %q", rows[0].ProductID)
	}
	for _, row := range rows {
		if row.ProductID == "ethiopia" {
			if row.ResponseCount != 2 {
				t.Fatalf("expected 2 responses for ethiopia, got %d", row.ResponseCount)
			}
			if len(row.Modes) != 2 {
				t.Fatalf("expected both modes, got %v", row.Modes)
			}
		}
	}

	filtered, err := svc.ListProducts(ctx, "ETHI")
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ProductID != "ethiopia" {
		t.Fatalf("expected case-insensitive match, got %v", filtered)
	}
}

func TestSummaryAveragesAndDistributions(t *testing.T) {
	svc, _, responses, _ := newAnalyticsFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := storedResponse("s1", "ethiopia", domain.ModeTasted, now)
	first.Aroma = intPtr(7)
	first.OverallLiking = intPtr(8)
	first.StandoutTags = []string{"fruity", "floral"}
	first.Notes = strPtr("bright")
	responses.Create(ctx, first)

	second := storedResponse("s2", "ethiopia", domain.ModeTasted, now)
	second.Aroma = intPtr(8)
	second.OverallLiking = intPtr(9)
	second.StandoutTags = []string{"fruity"}
	responses.Create(ctx, second)

	summary, err := svc.Summary(ctx, "ethiopia", noTime(), noTime())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Count != 2 {
		t.Fatalf("expected count 2, got %d", summary.Count)
	}
	if got := summary.Averages["aroma_1to9"]; got != 7.5 {
		t.Fatalf("expected aroma average 7.5, got %v", got)
	}
	if got := summary.Distributions["aroma_1to9"]["7"]; got != 1 {
		t.Fatalf("expected one aroma=7, got %d", got)
	}
	if got := summary.StandoutTags["fruity"]; got != 2 {
		t.Fatalf("expected fruity counted twice, got %d", got)
	}
	if summary.NotesCount != 1 {
		t.Fatalf("expected 1 note, got %d", summary.NotesCount)
	}
	if got := summary.ModeBreakdown["tasted"]; got != 2 {
		t.Fatalf("expected 2 tasted, got %d", got)
	}
}

func TestSegmentsBandsPerAttribute(t *testing.T) {
	svc, profiles, _, _ := newAnalyticsFixture(t)
	ctx := context.Background()

	put := func(sessionID string, aroma int) {
		p := testProfile(sessionID)
		p.AromaPref = aroma
		profiles.Put(ctx, repository.StoredProfile{
			PreferenceProfile: p,
			ProfileID:         sessionID,
			UpdatedAt:         time.Now().UTC(),
		})
	}
	put("s1", 2)
	put("s2", 5)
	put("s3", 9)

	segments, err := svc.Segments(ctx, noTime(), noTime())
	if err != nil {
		t.Fatalf("segments: %v", err)
	}
	if segments.TotalProfiles != 3 {
		t.Fatalf("expected 3 profiles, got %d", segments.TotalProfiles)
	}
	aroma := segments.Segments["aroma"]
	if aroma.Low != 1 || aroma.Mid != 1 || aroma.High != 1 {
		t.Fatalf("unexpected aroma bands %+v", aroma)
	}
	// testProfile deja flavor en 8 para las tres sesiones.
	flavor := segments.Segments["flavor"]
	if flavor.High != 3 {
		t.Fatalf("expected 3 high flavor, got %+v", flavor)
	}
}

func TestFunnelCountsEvents(t *testing.T) {
	svc, _, _, events := newAnalyticsFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	add := func(name string, times int) {
		for i := 0; i < times; i++ {
			events.Create(ctx, repository.StoredEvent{
				EventID:   name,
				EventName: name,
				EventTime: now,
				SessionID: "s1",
			})
		}
	}
	add("product_viewed", 4)
	add("affective_form_viewed", 3)
	add("affective_form_opened", 2)
	add("affective_form_submitted", 1)
	add("unrelated_event", 5)

	funnel, err := svc.Funnel(ctx, noTime(), noTime())
	if err != nil {
		t.Fatalf("funnel: %v", err)
	}
	want := map[string]int{
		"product_viewed":           4,
		"affective_form_viewed":    3,
		"affective_form_opened":    2,
		"affective_form_submitted": 1,
	}
	for name, count := range want {
		if funnel[name] != count {
			t.Fatalf("funnel[%s] = %d, want %d", name, funnel[name], count)
		}
	}
	if _, ok := funnel["unrelated_event"]; ok {
		t.Fatalf("unexpected event in funnel")
	}
}

func TestExportCSVPipesTags(t *testing.T) {
	svc, _, responses, _ := newAnalyticsFixture(t)
	ctx := context.Background()

	r := storedResponse("s1", "ethiopia", domain.ModeTasted, time.Now().UTC())
	r.Aroma = intPtr(7)
	r.StandoutTags = []string{"fruity", "floral", "bright"}
	r.FitTags = []string{"too sour"}
	responses.Create(ctx, r)

	data, err := svc.ExportCSV(ctx, "", noTime(), noTime())
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}
	header := rows[0]
	if header[0] != "response_id" || header[len(header)-1] != "created_at" {
		t.Fatalf("unexpected header %v", header)
	}
	col := func(name string) string {
		for i, h := range header {
			if h == name {
				return rows[1][i]
			}
		}
		t.Fatalf("missing column %q", name)
		return ""
	}
	if got := col("standout_tags"); got != "fruity|floral|bright" {
		t.Fatalf("expected pipe-joined tags, got %q", got)
	}
	if got := col("fit_tags"); got != "too sour" {
		t.Fatalf("unexpected fit tags %q", got)
	}
	if got := col("aroma_1to9"); got != "7" {
		t.Fatalf("unexpected aroma %q", got)
	}
	if got := col("flavor_1to9"); got != "" {
		t.Fatalf("expected empty cell for nil rating, got %q", got)
	}
}

func TestDeleteDataRemovesEverythingAndAudits(t *testing.T) {
	svc, profiles, responses, events := newAnalyticsFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	profiles.Put(ctx, repository.StoredProfile{PreferenceProfile: testProfile("s1"), ProfileID: "p1", UpdatedAt: now})
	profiles.Put(ctx, repository.StoredProfile{PreferenceProfile: testProfile("s2"), ProfileID: "p2", UpdatedAt: now})
	responses.Create(ctx, storedResponse("s1", "ethiopia", domain.ModeTasted, now))
	events.Create(ctx, repository.StoredEvent{EventID: "e1", EventName: "product_viewed", EventTime: now, SessionID: "s1"})

	counts, err := svc.DeleteData(ctx, "s1", "", "admin@example.com")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if counts.Profiles != 1 || counts.Responses != 1 || counts.Events != 1 {
		t.Fatalf("unexpected counts %+v", counts)
	}

	if _, ok, _ := profiles.GetBySession(ctx, "s1"); ok {
		t.Fatalf("expected s1 profile gone")
	}
	if _, ok, _ := profiles.GetBySession(ctx, "s2"); !ok {
		t.Fatalf("expected s2 profile untouched")
	}

	audits, err := events.CountByName(ctx, "data_deleted", noTime(), noTime())
	if err != nil {
		t.Fatalf("count audits: %v", err)
	}
	if audits != 1 {
		t.Fatalf("expected 1 audit event, got %d", audits)
	}
}

func TestDeleteDataRequiresIdentifier(t *testing.T) {
	svc, _, _, _ := newAnalyticsFixture(t)

	_, err := svc.DeleteData(context.Background(), "", "", "admin@example.com")
	if err == nil {
		t.Fatalf("expected error without identifiers")
	}
}
