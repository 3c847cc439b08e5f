package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/homeradar/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/homeradar/internal/core/domain"
	"github.com/custodia-labs/homeradar/internal/core/ports/driven"
)

// fakeClassifier implements driven.Classifier for testing.
type fakeClassifier struct {
	mu       sync.Mutex
	result   domain.ClassificationResult
	err      error
	contents []string
}

func (f *fakeClassifier) Classify(_ context.Context, content, _ string, _ []string) (domain.ClassificationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contents = append(f.contents, content)
	if f.err != nil {
		return domain.ClassificationResult{}, f.err
	}
	return f.result, nil
}

func (f *fakeClassifier) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.contents)
}

// fakeCompleter implements driven.Completer for testing.
type fakeCompleter struct {
	partial domain.PartialDetails
	err     error
	found   []domain.ExtractedDetails
}

func (f *fakeCompleter) CompleteMissing(
	_ context.Context,
	_ string,
	found domain.ExtractedDetails,
) (domain.PartialDetails, error) {
	f.found = append(f.found, found)
	return f.partial, f.err
}

// racingStore reports every url as new and rejects every insert as a duplicate.
type racingStore struct {
	*memory.RecordStore
	insertErr error
}

func (s *racingStore) Exists(context.Context, string) (bool, error) { return false, nil }

func (s *racingStore) Insert(context.Context, domain.PostRecord) error { return s.insertErr }

func relevantResult() domain.ClassificationResult {
	return domain.ClassificationResult{Category: domain.CategoryRelevant, Confidence: 0.9, Reason: "listing"}
}

type ingestFixture struct {
	store      *memory.RecordStore
	classifier *fakeClassifier
	completer  *fakeCompleter
	holder     *SettingsHolder
	o          *IngestOrchestrator
}

func newIngestFixture(store driven.RecordStore) *ingestFixture {
	f := &ingestFixture{
		store:      memory.NewRecordStore(),
		classifier: &fakeClassifier{result: relevantResult()},
		completer:  &fakeCompleter{},
		holder:     NewSettingsHolder(domain.DefaultSettings()),
	}
	if store == nil {
		store = f.store
	}
	f.o = NewIngestOrchestrator(store, f.classifier, f.completer, NewDetailExtractor(testGazetteer()), f.holder)
	f.o.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	ids := 0
	f.o.newID = func() string {
		ids++
		return "id-" + string(rune('0'+ids))
	}
	return f
}

func post(url, content string) domain.RawPost {
	return domain.RawPost{
		URL:       url,
		Content:   content,
		Author:    "Dana",
		GroupName: "דירות בירושלים",
		ScannedAt: time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC),
	}
}

func TestIngest_RequiresURL(t *testing.T) {
	f := newIngestFixture(nil)

	_, err := f.o.Ingest(context.Background(), domain.RawPost{Content: "דירה"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, f.store.Len())
}

func TestIngest_Deduped(t *testing.T) {
	f := newIngestFixture(nil)
	require.NoError(t, f.store.Insert(context.Background(), domain.PostRecord{URL: "u1"}))

	outcome, err := f.o.Ingest(context.Background(), post("u1", "דירה 3 חדרים"))

	require.NoError(t, err)
	assert.Equal(t, domain.StateDeduped, outcome.State)
	assert.Nil(t, outcome.Record)
	assert.Equal(t, 0, f.classifier.calls())
	assert.Equal(t, 1, f.store.Len())
}

func TestIngest_SecondSightingIsDeduped(t *testing.T) {
	f := newIngestFixture(nil)
	ctx := context.Background()

	first, err := f.o.Ingest(ctx, post("u1", "apartment in Jerusalem"))
	require.NoError(t, err)
	second, err := f.o.Ingest(ctx, post("u1", "apartment in Jerusalem"))
	require.NoError(t, err)

	assert.Equal(t, domain.StatePersisted, first.State)
	assert.Equal(t, domain.StateDeduped, second.State)
	assert.Equal(t, 1, f.classifier.calls())
	assert.Equal(t, 1, f.store.Len())
}

func TestIngest_BrokerKeywordSkipsClassification(t *testing.T) {
	f := newIngestFixture(nil)

	outcome, err := f.o.Ingest(context.Background(), post("u1", "דירת 3 חדרים בקטמון, דמי תיווך חודש"))

	require.NoError(t, err)
	assert.Equal(t, domain.StateBrokerRejected, outcome.State)
	assert.Equal(t, 0, f.classifier.calls())
	assert.Empty(t, f.completer.found)

	rec := outcome.Record
	require.NotNil(t, rec)
	assert.Equal(t, domain.CategoryBroker, rec.Category)
	assert.True(t, rec.IsBroker)
	assert.False(t, rec.Relevant)
	assert.Nil(t, rec.Confidence)
	assert.Equal(t, "תיווך", rec.FilterMatch)
	assert.Equal(t, "broker keyword: תיווך", rec.Reason)
	assert.Equal(t, domain.ExtractedDetails{}, rec.Details)

	exists, err := f.store.Exists(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestIngest_NegatedBrokerTermIsClassified(t *testing.T) {
	f := newIngestFixture(nil)

	outcome, err := f.o.Ingest(context.Background(), post("u1", "דירה מבעלים ללא תיווך, 3 חדרים"))

	require.NoError(t, err)
	assert.Equal(t, domain.StatePersisted, outcome.State)
	assert.Equal(t, 1, f.classifier.calls())
}

func TestIngest_BlacklistIsFiltered(t *testing.T) {
	f := newIngestFixture(nil)

	outcome, err := f.o.Ingest(context.Background(), post("u1", "הובלות במחירים הכי זולים בעיר"))

	require.NoError(t, err)
	assert.Equal(t, domain.StateFilteredPersisted, outcome.State)
	assert.Equal(t, 0, f.classifier.calls())
	require.NotNil(t, outcome.Record)
	assert.Equal(t, domain.CategorySpam, outcome.Record.Category)
	assert.Equal(t, "הובלות", outcome.Record.FilterMatch)
	assert.False(t, outcome.Record.Relevant)
}

func TestIngest_WhitelistOverridesBlacklist(t *testing.T) {
	f := newIngestFixture(nil)

	outcome, err := f.o.Ingest(context.Background(), post("u1", "דירה להשכרה, כולל הובלות"))

	require.NoError(t, err)
	assert.Equal(t, domain.StatePersisted, outcome.State)
	assert.Equal(t, 1, f.classifier.calls())
}

func TestIngest_NonRelevantSkipsExtraction(t *testing.T) {
	for _, category := range []domain.Category{
		domain.CategorySpam, domain.CategoryAuction, domain.CategoryWanted,
		domain.CategoryQuestion, domain.CategoryBroker,
	} {
		t.Run(category.String(), func(t *testing.T) {
			f := newIngestFixture(nil)
			f.classifier.result = domain.ClassificationResult{Category: category, Confidence: 0.8, Reason: "r"}

			outcome, err := f.o.Ingest(context.Background(), post("u1", "apartment in Jerusalem, 3 rooms"))

			require.NoError(t, err)
			assert.Equal(t, domain.StateFilteredPersisted, outcome.State)
			assert.Empty(t, f.completer.found)
			rec := outcome.Record
			require.NotNil(t, rec)
			assert.Equal(t, category, rec.Category)
			assert.False(t, rec.Relevant)
			assert.Equal(t, domain.ExtractedDetails{}, rec.Details)
			require.NotNil(t, rec.Confidence)
			assert.InDelta(t, 0.8, *rec.Confidence, 1e-9)
		})
	}
}

func TestIngest_RelevantWithAllFieldsSkipsCompletion(t *testing.T) {
	f := newIngestFixture(nil)

	outcome, err := f.o.Ingest(context.Background(), post("u1",
		`דירה למכירה בירושלים, בשכונת קטמון, ברחוב הרצל 5. 3 חדרים, 2,100,000 ש"ח, 050-1234567`))

	require.NoError(t, err)
	assert.Equal(t, domain.StatePersisted, outcome.State)
	assert.Empty(t, f.completer.found)

	rec := outcome.Record
	require.NotNil(t, rec)
	assert.True(t, rec.Relevant)
	assert.Equal(t, domain.CategoryRelevant, rec.Category)
	assert.Equal(t, int64(2_100_000), rec.Details.Price)
	assert.Equal(t, "ירושלים", rec.Details.City)
	assert.Equal(t, "קטמון, רחוב הרצל", rec.Details.Location)
	assert.Equal(t, "3", rec.Details.Rooms)
	assert.Equal(t, "0501234567", rec.Details.Phone)
	assert.Equal(t, "id-1", rec.ID)
	assert.Equal(t, "Dana", rec.Author)
	assert.Equal(t, time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC), rec.ScannedAt)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), rec.CreatedAt)
}

func TestIngest_CompletionFillsOnlyMissing(t *testing.T) {
	f := newIngestFixture(nil)
	price := int64(5_000)
	city := "Tel Aviv"
	rooms := "3"
	f.completer.partial = domain.PartialDetails{Price: &price, City: &city, Rooms: &rooms}

	outcome, err := f.o.Ingest(context.Background(), post("u1", "apartment in Jerusalem"))

	require.NoError(t, err)
	require.Len(t, f.completer.found, 1)
	assert.Equal(t, "Jerusalem", f.completer.found[0].City)

	d := outcome.Record.Details
	assert.Equal(t, int64(5_000), d.Price)
	assert.Equal(t, "Jerusalem", d.City, "deterministic city is kept")
	assert.Equal(t, "3", d.Rooms)
	assert.Empty(t, d.Location)
}

func TestIngest_SuspectedBrokerIsRelevant(t *testing.T) {
	f := newIngestFixture(nil)
	f.classifier.result = domain.ClassificationResult{
		Category: domain.CategorySuspectedBroker, IsBroker: true, Confidence: 0.7,
	}

	outcome, err := f.o.Ingest(context.Background(), post("u1", "apartment in Jerusalem"))

	require.NoError(t, err)
	assert.Equal(t, domain.StatePersisted, outcome.State)
	assert.True(t, outcome.Record.Relevant)
	assert.True(t, outcome.Record.IsBroker)
	assert.Equal(t, domain.CategorySuspectedBroker, outcome.Record.Category)
}

func TestIngest_ClassifierFailureFallsBack(t *testing.T) {
	f := newIngestFixture(nil)
	f.classifier.err = domain.NewAgentError("classify", domain.ErrRateLimited)

	outcome, err := f.o.Ingest(context.Background(), post("u1", "apartment in Jerusalem"))

	require.NoError(t, err)
	assert.Equal(t, domain.StatePersisted, outcome.State)
	rec := outcome.Record
	assert.Equal(t, domain.CategoryRelevant, rec.Category)
	assert.False(t, rec.IsBroker)
	require.NotNil(t, rec.Confidence)
	assert.InDelta(t, 0.5, *rec.Confidence, 1e-9)
	assert.Contains(t, rec.Reason, "AI failed")
	assert.Contains(t, rec.Reason, "rate_limited")
}

func TestIngest_NoAgentsConfigured(t *testing.T) {
	store := memory.NewRecordStore()
	o := NewIngestOrchestrator(store, nil, nil, nil, NewSettingsHolder(domain.DefaultSettings()))

	outcome, err := o.Ingest(context.Background(), post("u1", "apartment in Jerusalem"))

	require.NoError(t, err)
	assert.Equal(t, domain.StatePersisted, outcome.State)
	assert.Equal(t, domain.CategoryRelevant, outcome.Record.Category)
	assert.Contains(t, outcome.Record.Reason, "unavailable")
	assert.NotEmpty(t, outcome.Record.ID)
}

func TestIngest_CompleterFailureKeepsExtracted(t *testing.T) {
	f := newIngestFixture(nil)
	f.completer.err = domain.NewAgentError("complete", domain.ErrMalformedResponse)
	price := int64(9_000)
	f.completer.partial = domain.PartialDetails{Price: &price}

	outcome, err := f.o.Ingest(context.Background(), post("u1", "apartment in Jerusalem"))

	require.NoError(t, err)
	assert.Equal(t, domain.StatePersisted, outcome.State)
	assert.Equal(t, int64(0), outcome.Record.Details.Price)
	assert.Equal(t, "Jerusalem", outcome.Record.Details.City)
}

func TestIngest_NoiseIsIgnoredByFilters(t *testing.T) {
	f := newIngestFixture(nil)

	outcome, err := f.o.Ingest(context.Background(), post("u1", "apartment in Jerusalem\nלייק\nתגובה: פנו למתווך"))

	require.NoError(t, err)
	assert.Equal(t, domain.StatePersisted, outcome.State)
	require.Equal(t, 1, f.classifier.calls())
	assert.Equal(t, "apartment in Jerusalem", f.classifier.contents[0])
	assert.Contains(t, outcome.Record.Content, "לייק", "the stored content is the raw capture")
}

func TestIngest_ZeroScannedAtUsesNow(t *testing.T) {
	f := newIngestFixture(nil)
	p := post("u1", "apartment in Jerusalem")
	p.ScannedAt = time.Time{}

	outcome, err := f.o.Ingest(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), outcome.Record.ScannedAt)
}

func TestIngest_ConcurrentInsertIsDeduped(t *testing.T) {
	f := newIngestFixture(&racingStore{RecordStore: memory.NewRecordStore(), insertErr: domain.ErrAlreadyExists})

	outcome, err := f.o.Ingest(context.Background(), post("u1", "apartment in Jerusalem"))

	require.NoError(t, err)
	assert.Equal(t, domain.StateDeduped, outcome.State)
	assert.Nil(t, outcome.Record)
}

func TestIngest_StoreFailure(t *testing.T) {
	f := newIngestFixture(&racingStore{RecordStore: memory.NewRecordStore(), insertErr: errors.New("disk full")})

	_, err := f.o.Ingest(context.Background(), post("u1", "apartment in Jerusalem"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestIngest_KeywordFilterFollowsSettings(t *testing.T) {
	f := newIngestFixture(nil)
	ctx := context.Background()

	outcome, err := f.o.Ingest(ctx, post("u1", "apartment in Jerusalem by Moshe Homes"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatePersisted, outcome.State)

	next := domain.DefaultSettings()
	next.Keywords.Broker = append(next.Keywords.Broker, "Moshe Homes")
	f.holder.Swap(next)

	outcome, err = f.o.Ingest(ctx, post("u2", "apartment in Jerusalem by Moshe Homes"))
	require.NoError(t, err)
	assert.Equal(t, domain.StateBrokerRejected, outcome.State)
	assert.Equal(t, "Moshe Homes", outcome.Record.FilterMatch)
}

func TestIngestAll_Summary(t *testing.T) {
	f := newIngestFixture(nil)
	require.NoError(t, f.store.Insert(context.Background(), domain.PostRecord{URL: "seen"}))

	summary, err := f.o.IngestAll(context.Background(), []domain.RawPost{
		post("seen", "apartment in Jerusalem"),
		post("broker", "apartment in Jerusalem, דמי תיווך"),
		post("spam", "ניקיון משרדים"),
		post("new", "apartment in Jerusalem"),
		{Content: "no url"},
		post("new", "apartment in Jerusalem"),
	})

	require.NoError(t, err)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 6, summary.Total)
	assert.Equal(t, 2, summary.Deduped)
	assert.Equal(t, 1, summary.Broker)
	assert.Equal(t, 1, summary.Filtered)
	assert.Equal(t, 1, summary.Persisted)
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, 4, f.store.Len())
}

func TestIngestAll_StopsOnCancel(t *testing.T) {
	f := newIngestFixture(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := f.o.IngestAll(ctx, []domain.RawPost{post("u1", "apartment in Jerusalem")})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, 0, f.store.Len())
}

func TestPostService_List(t *testing.T) {
	f := newIngestFixture(nil)
	ctx := context.Background()
	_, err := f.o.IngestAll(ctx, []domain.RawPost{
		post("a", "apartment in Jerusalem"),
		post("b", "הובלות"),
		post("c", "apartment in Jerusalem"),
	})
	require.NoError(t, err)

	svc := NewPostService(f.store)

	relevant, err := svc.List(ctx, true, 0)
	require.NoError(t, err)
	require.Len(t, relevant, 2)
	assert.Equal(t, "c", relevant[0].URL)
	assert.Equal(t, "a", relevant[1].URL)

	all, err := svc.List(ctx, false, 2)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.List(ctx, false, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
