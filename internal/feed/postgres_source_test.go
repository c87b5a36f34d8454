package feed

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"

	"github.com/wolfman30/parto-platform/internal/interactions"
)

func TestPostgresSourceCandidates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	now := time.Now().UTC()
	cols := []string{"id", "buyer_id", "phone_number", "vehicle_make", "vehicle_model", "vehicle_year",
		"requested_parts", "condition", "location_text", "state", "created_at", "sla_deadline", "first_engagement_at",
		"has_record", "has_interacted", "is_starred", "is_ignored", "first_interacted_at", "unmask_count", "unmasked"}
	rows := pgxmock.NewRows(cols).
		AddRow("lead-1", "buyer-1", "9876543210", "Kia", "Seltos", 2022, []string{"Grille"}, "NEW", "Vashi, Navi Mumbai", "NEW", now, now.Add(time.Hour), nil,
			true, false, true, false, nil, 2, false).
		AddRow("lead-2", "buyer-2", "9876500000", "Kia", "Sonet", 2021, []string{"Wiper"}, "USED", "Thane", "ACTIVE", now, now.Add(time.Hour), nil,
			false, false, false, false, nil, 0, false)
	mock.ExpectQuery("NOT COALESCE\\(li.is_ignored, false\\)").
		WithArgs("sup-1", []string{"kia"}, 11, 0).
		WillReturnRows(rows)

	src := NewPostgresSource(mock)
	got, err := src.Candidates(context.Background(), CandidateQuery{
		SupplierID: "sup-1",
		Brands:     []string{"kia"},
		Filter:     interactions.FilterAll,
		Limit:      11,
	})
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Interaction == nil || !got[0].Interaction.IsStarred || got[0].UnmaskCount != 2 {
		t.Fatalf("unexpected first candidate %#v", got[0])
	}
	if got[1].Interaction != nil {
		t.Fatalf("expected no interaction for second candidate")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresSourceCounts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT").WithArgs("sup-1").
		WillReturnRows(pgxmock.NewRows([]string{"unmasked", "active", "avg"}).AddRow(4, 10, 42.5))

	c, err := NewPostgresSource(mock).Counts(context.Background(), "sup-1", time.Now())
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if c.Unmasked != 4 || c.Active != 10 || c.AvgMinutesToUnmask != 42.5 {
		t.Fatalf("unexpected counts %#v", c)
	}
}
