package storage

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikolag/summit/internal/config"
	"github.com/nikolag/summit/internal/domain"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	cfg := &config.ServerConfig{
		DBPath: filepath.Join(t.TempDir(), "summit-test.db"),
	}

	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testParticipant(pid string) domain.Participant {
	return domain.Participant{
		PID:                 pid,
		Name:                "Amar HODZIC",
		Gender:              domain.GenderMale,
		Grade:               domain.GradeNormal,
		RepresentingCountry: "C027",
		DOB:                 domain.NewDate(1990, time.April, 12),
		POB:                 "Mostar",
		BirthCountry:        "C027",
		Citizenships:        []string{"C027", "C033"},
		Phone:               "+38761123456",
		TravelDocType:       domain.DocPassport,
		TravelDocIssueDate:  domain.NewDate(2021, time.May, 1),
		TravelDocExpiryDate: domain.NewDate(2031, time.April, 30),
		TravelDocIssuedBy:   "C027",
		Transportation:      domain.TransportAirplane,
		TravellingFrom:      "Sarajevo",
		ReturningTo:         "Sarajevo",
	}
}

func testEvent(eid string) domain.Event {
	return domain.Event{
		EID:         eid,
		Title:       "Border Security Seminar",
		Location:    "Zagreb",
		DateFrom:    domain.NewDate(2025, time.September, 1),
		DateTo:      domain.NewDate(2025, time.September, 5),
		HostCountry: "C033",
	}
}

func TestParticipantRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	p := testParticipant("P0001")
	require.NoError(t, s.SaveParticipant(ctx, p))

	got, err := s.GetParticipant(ctx, "P0001")
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Citizenships, got.Citizenships)
	assert.Equal(t, p.DOB.String(), got.DOB.String())
	assert.Equal(t, p.TravelDocExpiryDate.String(), got.TravelDocExpiryDate.String())

	// Upsert updates in place.
	p.Phone = "+38761999999"
	require.NoError(t, s.SaveParticipant(ctx, p))
	got, err = s.GetParticipant(ctx, "P0001")
	require.NoError(t, err)
	assert.Equal(t, "+38761999999", got.Phone)

	_, err = s.GetParticipant(ctx, "P9999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListParticipantsPagination(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for i := 1; i <= 7; i++ {
		p := testParticipant("")
		p.PID = []string{"P0001", "P0002", "P0003", "P0004", "P0005", "P0006", "P0007"}[i-1]
		require.NoError(t, s.SaveParticipant(ctx, p))
	}

	page, err := s.ListParticipants(ctx, "", 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, page.Total)
	assert.Equal(t, 3, page.Pages)
	assert.Len(t, page.Items, 3)
	assert.Equal(t, "P0001", page.Items[0].PID)

	page, err = s.ListParticipants(ctx, "", 3, 3)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, "P0007", page.Items[0].PID)

	page, err = s.ListParticipants(ctx, "hodzic", 1, 25)
	require.NoError(t, err)
	assert.Equal(t, 7, page.Total)

	page, err = s.ListParticipants(ctx, "nobody", 1, 25)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.Empty(t, page.Items)
}

func TestNewBadDatabasePath(t *testing.T) {
	// A directory is not a usable database file; New must fail cleanly.
	cfg := &config.ServerConfig{DBPath: t.TempDir()}
	_, err := New(cfg)
	require.Error(t, err)
}

func TestCreateParticipant(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	first := testParticipant("")
	first.Name = "Lejla BEGIC"
	created, err := s.CreateParticipant(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "P0001", created.PID)

	second := testParticipant("")
	second.Name = "Ivan HORVAT"
	created2, err := s.CreateParticipant(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "P0002", created2.PID)

	// An explicit duplicate PID is rejected and the stored record
	// stays untouched.
	dup := testParticipant("P0001")
	dup.Name = "Marko VUKOVIC"
	_, err = s.CreateParticipant(ctx, dup)
	require.Error(t, err)

	got, err := s.GetParticipant(ctx, "P0001")
	require.NoError(t, err)
	assert.Equal(t, "Lejla BEGIC", got.Name)

	page, err := s.ListParticipants(ctx, "", 1, 25)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
}

func TestCreateParticipantConcurrent(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	names := []string{"Lejla BEGIC", "Ivan HORVAT"}
	pids := make([]string, len(names))
	errs := make([]error, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			p := testParticipant("")
			p.Name = name
			created, err := s.CreateParticipant(ctx, p)
			pids[i], errs[i] = created.PID, err
		}(i, name)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.NotEqual(t, pids[0], pids[1])

	// Both records survive.
	page, err := s.ListParticipants(ctx, "", 1, 25)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	for _, pid := range pids {
		_, err := s.GetParticipant(ctx, pid)
		assert.NoError(t, err)
	}
}

func TestListParticipantsLiteralWildcards(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveParticipant(ctx, testParticipant("P0001")))
	odd := testParticipant("P0002")
	odd.Name = "Unit 50% STAFF"
	require.NoError(t, s.SaveParticipant(ctx, odd))

	// "%" and "_" in the search term match literally, not as wildcards.
	page, err := s.ListParticipants(ctx, "50%", 1, 25)
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "P0002", page.Items[0].PID)

	page, err = s.ListParticipants(ctx, "_odzic", 1, 25)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)

	page, err = s.ListParticipants(ctx, "hodzic", 1, 25)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestNextIDs(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	pid, err := s.NextPID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "P0001", pid)

	require.NoError(t, s.SaveParticipant(ctx, testParticipant("P0041")))
	pid, err = s.NextPID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "P0042", pid)

	eid, err := s.NextEID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "E0001", eid)
}

func TestEventRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	e := testEvent("E0001")
	require.NoError(t, s.CreateEvent(ctx, e))

	got, err := s.GetEvent(ctx, "E0001")
	require.NoError(t, err)
	assert.Equal(t, e.Title, got.Title)
	assert.Equal(t, e.DateFrom.String(), got.DateFrom.String())

	e.Title = "Renamed Seminar"
	require.NoError(t, s.UpdateEvent(ctx, e))
	got, err = s.GetEvent(ctx, "E0001")
	require.NoError(t, err)
	assert.Equal(t, "Renamed Seminar", got.Title)

	require.NoError(t, s.DeleteEvent(ctx, "E0001"))
	_, err = s.GetEvent(ctx, "E0001")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignParticipantSnapshot(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	p := testParticipant("P0001")
	require.NoError(t, s.SaveParticipant(ctx, p))
	require.NoError(t, s.CreateEvent(ctx, testEvent("E0001")))

	snap := domain.SnapshotFrom("E0001", p, domain.RoleParticipant)
	require.NoError(t, s.AssignParticipant(ctx, snap))

	// Profile edits after assignment must not rewrite the snapshot.
	p.TravellingFrom = "Mostar"
	require.NoError(t, s.SaveParticipant(ctx, p))

	got, err := s.GetSnapshot(ctx, "E0001", "P0001")
	require.NoError(t, err)
	assert.Equal(t, "Sarajevo", got.TravellingFrom)
	assert.Equal(t, domain.RoleParticipant, got.Role)

	list, err := s.ListEventParticipants(ctx, "E0001")
	require.NoError(t, err)
	require.Len(t, list, 1)

	events, err := s.ListEventsForParticipant(ctx, "P0001")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "E0001", events[0].EID)

	// Assignment against missing records fails.
	err = s.AssignParticipant(ctx, domain.SnapshotFrom("E9999", p, domain.RoleGuest))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.UnassignParticipant(ctx, "E0001", "P0001"))
	_, err = s.GetSnapshot(ctx, "E0001", "P0001")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTestScores(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveParticipant(ctx, testParticipant("P0001")))
	second := testParticipant("P0002")
	second.Name = "Ivana KOVAC"
	require.NoError(t, s.SaveParticipant(ctx, second))
	require.NoError(t, s.CreateEvent(ctx, testEvent("E0001")))

	for _, tt := range []domain.TrainingTest{
		{EventID: "E0001", ParticipantID: "P0001", Type: domain.AttemptPre, Score: 60},
		{EventID: "E0001", ParticipantID: "P0001", Type: domain.AttemptPost, Score: 90},
		{EventID: "E0001", ParticipantID: "P0002", Type: domain.AttemptPre, Score: 40},
	} {
		require.NoError(t, s.SaveTestScore(ctx, tt))
	}

	// Re-recording an attempt replaces the score.
	require.NoError(t, s.SaveTestScore(ctx,
		domain.TrainingTest{EventID: "E0001", ParticipantID: "P0002", Type: domain.AttemptPre, Score: 50}))

	got, err := s.GetTestScore(ctx, "E0001", "P0002", domain.AttemptPre)
	require.NoError(t, err)
	assert.Equal(t, 50.0, got.Score)

	tests, err := s.ListEventTests(ctx, "E0001")
	require.NoError(t, err)
	assert.Len(t, tests, 3)

	avgPre, avgPost, err := s.EventScoreAverages(ctx, "E0001")
	require.NoError(t, err)
	assert.InDelta(t, 55.0, avgPre, 0.001)
	assert.InDelta(t, 90.0, avgPost, 0.001)

	// Events without scores report zero averages.
	avgPre, avgPost, err = s.EventScoreAverages(ctx, "E9999")
	require.NoError(t, err)
	assert.Zero(t, avgPre)
	assert.Zero(t, avgPost)

	_, err = s.GetTestScore(ctx, "E0001", "P0002", domain.AttemptPost)
	assert.ErrorIs(t, err, ErrNotFound)

	// Scores need existing records and a non-negative value.
	err = s.SaveTestScore(ctx,
		domain.TrainingTest{EventID: "E9999", ParticipantID: "P0001", Type: domain.AttemptPre, Score: 10})
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.SaveTestScore(ctx,
		domain.TrainingTest{EventID: "E0001", ParticipantID: "P0001", Type: domain.AttemptPre, Score: -1})
	assert.Error(t, err)
}

func TestUsers(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, domain.User{Username: "nikola", PasswordHash: "hash", Active: true})
	require.NoError(t, err)
	assert.True(t, created)

	// Seeding is idempotent.
	created, err = s.CreateUser(ctx, domain.User{Username: "nikola", PasswordHash: "other", Active: true})
	require.NoError(t, err)
	assert.False(t, created)

	u, err := s.GetUser(ctx, "nikola")
	require.NoError(t, err)
	assert.Equal(t, "hash", u.PasswordHash)
	assert.True(t, u.Active)

	_, err = s.GetUser(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCountries(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	catalog := []domain.Country{
		{CID: "C027", Name: "Bosnia and Herzegovina", Region: "Europe & Eurasia"},
		{CID: "C033", Name: "Croatia", Region: "Europe & Eurasia"},
	}
	require.NoError(t, s.UpsertCountries(ctx, catalog))
	require.NoError(t, s.UpsertCountries(ctx, catalog)) // idempotent

	lookup, err := s.CountryLookup(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Croatia", lookup["C033"])
	assert.Len(t, lookup, 2)
}

func TestWorkbookArchiveRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	// Compressible payload.
	data := bytes.Repeat([]byte("participants,events,countries\n"), 2000)

	id, err := s.ArchiveWorkbook(ctx, "import.xlsx", "nikola", data)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.GetWorkbook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	uploads, err := s.ListUploads(ctx)
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, "import.xlsx", uploads[0].Filename)
	assert.Equal(t, int64(len(data)), uploads[0].Size)
	assert.Less(t, uploads[0].CompressedSize, uploads[0].Size)

	_, err = s.GetWorkbook(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPruneUploads(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	id, err := s.ArchiveWorkbook(ctx, "old.xlsx", "", []byte("stale workbook"))
	require.NoError(t, err)

	// Cutoff in the future removes everything stored so far.
	require.NoError(t, s.PruneUploads(ctx, time.Now().Add(time.Hour)))

	_, err = s.GetWorkbook(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	uploads, err := s.ListUploads(ctx)
	require.NoError(t, err)
	assert.Empty(t, uploads)
}

func TestNormalizeParticipantPhones(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	messy := testParticipant("P0001")
	messy.Phone = "00387 61 123-456"
	require.NoError(t, s.SaveParticipant(ctx, messy))

	clean := testParticipant("P0002")
	clean.Phone = "+38761777888"
	require.NoError(t, s.SaveParticipant(ctx, clean))

	invalid := testParticipant("P0003")
	invalid.Phone = "123"
	require.NoError(t, s.SaveParticipant(ctx, invalid))

	result, err := s.NormalizeParticipantPhones(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, []string{"P0003"}, result.Skipped)

	got, err := s.GetParticipant(ctx, "P0001")
	require.NoError(t, err)
	assert.Equal(t, "+38761123456", got.Phone)

	got, err = s.GetParticipant(ctx, "P0003")
	require.NoError(t, err)
	assert.Equal(t, "123", got.Phone)
}
