package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/gluteintel/progress-tracker/internal/core/domain"
)

func newMockRepo(t *testing.T) (*SessionRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewSessionRepository(db), mock, func() { db.Close() }
}

func TestAppendTagsWritesOneRowPerTag(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO tag_records").
		WithArgs("S1", "Shelf Glutes", nil, now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO tag_records").
		WithArgs("S1", "Round (Bubble)", nil, now).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := repo.AppendTags(context.Background(), "S1", []string{"Shelf Glutes", "Round (Bubble)"}, now, "")
	if err != nil {
		t.Fatalf("AppendTags() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAppendTagsTwiceIssuesTwoIndependentBatches(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	now := time.Now().UTC()
	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO tag_records").
			WithArgs("S1", "Peach Shape", nil, now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}

	// No idempotency key: the store never deduplicates on its own.
	for i := 0; i < 2; i++ {
		if err := repo.AppendTags(context.Background(), "S1", []string{"Peach Shape"}, now, ""); err != nil {
			t.Fatalf("AppendTags() error = %v", err)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAppendTagsRejectsOutOfVocabularyTag(t *testing.T) {
	repo, _, done := newMockRepo(t)
	defer done()

	err := repo.AppendTags(context.Background(), "S1", []string{"Hexagonal"}, time.Now(), "")
	if err == nil {
		t.Fatalf("expected vocabulary rejection")
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAppendTagsAcceptsUnknownSentinel(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO tag_records").
		WithArgs("S1", domain.UnknownTag, "chain-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.AppendTags(context.Background(), "S1", []string{domain.UnknownTag}, now, "chain-1"); err != nil {
		t.Fatalf("AppendTags() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTagsForPreservesAppendOrder(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "session_id", "tag", "recorded_at"}).
		AddRow(int64(1), "S1", "Square", now).
		AddRow(int64(2), "S1", "Shelf Glutes", now).
		AddRow(int64(3), "S1", "Square", now)

	mock.ExpectQuery("FROM tag_records").
		WithArgs("S1").
		WillReturnRows(rows)

	records, err := repo.TagsFor(context.Background(), "S1")
	if err != nil {
		t.Fatalf("TagsFor() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Tag != "Square" || records[1].Tag != "Shelf Glutes" || records[2].Tag != "Square" {
		t.Fatalf("append order not preserved: %+v", records)
	}
}

func TestTagFrequencyDescendingWithFirstSeenTieBreak(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "session_id", "tag", "recorded_at"})
	for i, tag := range []string{"Square", "Shelf Glutes", "Square", "Peach Shape", "Shelf Glutes", "Square"} {
		rows.AddRow(int64(i+1), "S1", tag, now)
	}
	mock.ExpectQuery("FROM tag_records").
		WithArgs("S1").
		WillReturnRows(rows)

	freq, err := repo.TagFrequency(context.Background(), "S1")
	if err != nil {
		t.Fatalf("TagFrequency() error = %v", err)
	}
	want := []domain.TagCount{
		{Tag: "Square", Count: 3},
		{Tag: "Shelf Glutes", Count: 2},
		{Tag: "Peach Shape", Count: 1},
	}
	if len(freq) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(freq))
	}
	for i := range want {
		if freq[i] != want[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, freq[i], want[i])
		}
	}
}

func TestAppendPlanDefaultsStatusToOK(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectExec("INSERT INTO plan_records").
		WithArgs("S1", "## Week 1", "ok", nil, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.AppendPlan(context.Background(), "S1", "## Week 1", "", now, ""); err != nil {
		t.Fatalf("AppendPlan() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestHasTags(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("S1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	found, err := repo.HasTags(context.Background(), "S1")
	if err != nil {
		t.Fatalf("HasTags() error = %v", err)
	}
	if !found {
		t.Fatalf("expected tags to exist")
	}
}
