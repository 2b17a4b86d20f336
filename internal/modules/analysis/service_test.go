package analysis

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/lifecandle/internal/cache"
	"github.com/aristath/lifecandle/internal/domain"
	"github.com/aristath/lifecandle/internal/modules/fingerprint"
	"github.com/aristath/lifecandle/internal/modules/synthesis"
	"github.com/aristath/lifecandle/internal/work"
)

// fakeGenerator returns a canned result and records the keys it was given
type fakeGenerator struct {
	mu    sync.Mutex
	keys  []string
	err   error
	gate  *sync.WaitGroup
	calls atomic.Int32
}

func (g *fakeGenerator) Generate(_ context.Context, req domain.AnalysisRequest, apiKey string) (domain.AnalysisResult, error) {
	g.calls.Add(1)
	g.mu.Lock()
	g.keys = append(g.keys, apiKey)
	g.mu.Unlock()

	if g.gate != nil {
		g.gate.Done()
		g.gate.Wait()
	}
	if g.err != nil {
		return domain.AnalysisResult{}, g.err
	}
	return domain.AnalysisResult{
		Timeline: []domain.ChartPoint{{Age: 1, Year: 1990, CycleTerm: "庚午", DecadePhase: "童限", Open: 50, Close: 60, High: 62, Low: 48, Score: 60, Reason: "外部生成"}},
		Report:   domain.NarrativeReport{Pillars: req.Pillars(), Summary: "外部总评", CryptoYear: "1990 (庚午)", CryptoStyle: "现货定投"},
	}, nil
}

type fixture struct {
	service   *Service
	generator *fakeGenerator
	durable   *cache.SQLStore
	queue     *work.Queue
	tiered    *cache.TieredCache
}

func newFixture(t *testing.T, defaultKey string) *fixture {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	durable := cache.NewSQLiteStore(db)
	require.NoError(t, durable.EnsureSchema(context.Background()))

	queue := work.NewQueue(work.Config{Workers: 2, QueueSize: 32}, zerolog.Nop())
	t.Cleanup(func() { _ = queue.Close(context.Background()) })

	tiered := cache.New(cache.NewMemoryStore(100), durable, cache.JSONCodec{}, queue, zerolog.Nop())
	synth := synthesis.New(rand.New(rand.NewSource(7)), synthesis.Options{})
	gen := &fakeGenerator{}

	return &fixture{
		service:   NewService(tiered, synth, gen, defaultKey, zerolog.Nop()),
		generator: gen,
		durable:   durable,
		queue:     queue,
		tiered:    tiered,
	}
}

// drain waits for every background store to finish
func (f *fixture) drain(t *testing.T) {
	t.Helper()
	require.NoError(t, f.queue.Close(context.Background()))
}

func (f *fixture) durableCount(t *testing.T) int64 {
	t.Helper()
	n, err := f.durable.Count(context.Background())
	require.NoError(t, err)
	return n
}

func testRequest(apiKey string) domain.AnalysisRequest {
	return domain.AnalysisRequest{
		Gender:      domain.GenderMale,
		BirthYear:   "1990",
		YearPillar:  "甲子",
		MonthPillar: "丙寅",
		DayPillar:   "戊辰",
		HourPillar:  "壬戌",
		StartAge:    "1",
		FirstPhase:  "丁卯",
		APIKey:      apiKey,
	}
}

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		credential string
		expected   Strategy
		err        error
	}{
		{"demo", StrategyWeighted, nil},
		{"DEMO", StrategyWeighted, nil},
		{" Demo ", StrategyWeighted, nil},
		{"random", StrategyRandomWalk, nil},
		{"sk-abc", StrategyExternal, nil},
		{"RANDOM", StrategyRandomWalk, nil},
		{" Random ", StrategyRandomWalk, nil},
		{"randomly", StrategyExternal, nil},
		{"", "", domain.ErrConfiguration},
		{"   ", "", domain.ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.credential), func(t *testing.T) {
			strategy, err := SelectStrategy(tt.credential)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, strategy)
		})
	}
}

func TestAnalyze_LocalStrategies(t *testing.T) {
	tests := []struct {
		key      string
		strategy Strategy
	}{
		{"demo", StrategyWeighted},
		{"random", StrategyRandomWalk},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			f := newFixture(t, "")

			outcome, err := f.service.Analyze(context.Background(), testRequest(tt.key))
			require.NoError(t, err)

			assert.Equal(t, cache.LevelMiss, outcome.Level)
			assert.Equal(t, tt.strategy, outcome.Strategy)
			assert.Equal(t, fingerprint.Compute(testRequest(tt.key)), outcome.Fingerprint)
			require.Len(t, outcome.Result.Timeline, 100)
			assert.Equal(t, 1, outcome.Result.Timeline[0].Age)
			assert.Equal(t, 1990, outcome.Result.Timeline[0].Year)
			assert.Equal(t, 100, outcome.Result.Timeline[99].Age)
			assert.Equal(t, 2089, outcome.Result.Timeline[99].Year)
			assert.Zero(t, f.generator.calls.Load())
		})
	}
}

func TestAnalyze_SecondRequestIsServedFromCache(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	first, err := f.service.Analyze(ctx, testRequest("random"))
	require.NoError(t, err)
	require.NoError(t, f.tiered.Store(ctx, first.Fingerprint, first.Result))

	// Different credential, same content: the cached result is reused.
	second, err := f.service.Analyze(ctx, testRequest("sk-other"))
	require.NoError(t, err)

	assert.Equal(t, cache.LevelEphemeral, second.Level)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, first.Result, second.Result)
	assert.Zero(t, f.generator.calls.Load())
}

func TestAnalyze_StoresInBackground(t *testing.T) {
	f := newFixture(t, "")

	outcome, err := f.service.Analyze(context.Background(), testRequest("demo"))
	require.NoError(t, err)
	f.drain(t)

	assert.Equal(t, int64(1), f.durableCount(t))
	rec, err := f.durable.FindByFingerprint(context.Background(), outcome.Fingerprint)
	require.NoError(t, err)
	require.NotNil(t, rec)
}

func TestAnalyze_ExternalUsesRequestKeyThenDefault(t *testing.T) {
	f := newFixture(t, "sk-server")
	ctx := context.Background()

	outcome, err := f.service.Analyze(ctx, testRequest("sk-client"))
	require.NoError(t, err)
	assert.Equal(t, StrategyExternal, outcome.Strategy)
	assert.Equal(t, "外部总评", outcome.Result.Report.Summary)

	req := testRequest("")
	req.Name = "另一位"
	_, err = f.service.Analyze(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, []string{"sk-client", "sk-server"}, f.generator.keys)
}

func TestAnalyze_DefaultKeyCanSelectDemo(t *testing.T) {
	f := newFixture(t, "demo")

	outcome, err := f.service.Analyze(context.Background(), testRequest(""))
	require.NoError(t, err)
	assert.Equal(t, StrategyWeighted, outcome.Strategy)
}

func TestAnalyze_MissingCredential(t *testing.T) {
	f := newFixture(t, "")

	_, err := f.service.Analyze(context.Background(), testRequest(""))

	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Zero(t, f.generator.calls.Load())
}

func TestAnalyze_GeneratorFailureIsNotCached(t *testing.T) {
	f := newFixture(t, "")
	f.generator.err = fmt.Errorf("%w: upstream returned 500", domain.ErrUpstream)

	_, err := f.service.Analyze(context.Background(), testRequest("sk-test"))
	assert.ErrorIs(t, err, domain.ErrUpstream)

	f.drain(t)
	assert.Zero(t, f.durableCount(t))
}

func TestAnalyze_InvalidInput(t *testing.T) {
	f := newFixture(t, "")
	req := testRequest("demo")
	req.DayPillar = ""

	_, err := f.service.Analyze(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAnalyze_NonNumericStartAge(t *testing.T) {
	f := newFixture(t, "")
	req := testRequest("random")
	req.StartAge = "abc"

	outcome, err := f.service.Analyze(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, outcome.Result.Timeline, 100)
	assert.Equal(t, 1, outcome.Result.Timeline[0].Age)
}

func TestAnalyze_ConcurrentFirstRequestsPersistOnce(t *testing.T) {
	f := newFixture(t, "")
	// Both calls must be inside the generator before either returns, so
	// both miss the cache.
	gate := &sync.WaitGroup{}
	gate.Add(2)
	f.generator.gate = gate

	var wg sync.WaitGroup
	outcomes := make([]*Outcome, 2)
	errs := make([]error, 2)
	for i, key := range []string{"sk-one", "sk-two"} {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			outcomes[i], errs[i] = f.service.Analyze(context.Background(), testRequest(key))
		}(i, key)
	}
	wg.Wait()

	for i := range outcomes {
		require.NoError(t, errs[i])
		assert.Equal(t, cache.LevelMiss, outcomes[i].Level)
		assert.NotEmpty(t, outcomes[i].Result.Timeline)
		assert.Equal(t, "外部总评", outcomes[i].Result.Report.Summary)
	}
	assert.Equal(t, outcomes[0].Fingerprint, outcomes[1].Fingerprint)
	assert.Equal(t, int32(2), f.generator.calls.Load())

	f.drain(t)
	assert.Equal(t, int64(1), f.durableCount(t))
}

func TestFind(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	_, err := f.service.Find(ctx, "not-a-fingerprint")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	missing := fingerprint.Compute(testRequest(""))
	_, err = f.service.Find(ctx, missing)
	assert.True(t, errors.Is(err, ErrNotFound))

	outcome, err := f.service.Analyze(ctx, testRequest("demo"))
	require.NoError(t, err)
	f.drain(t)

	found, err := f.service.Find(ctx, outcome.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, outcome.Result, *found)
}
