package batch

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/autoapply/autoapply/pkg/generate"
	"github.com/autoapply/autoapply/pkg/jobinfo"
	"github.com/autoapply/autoapply/pkg/llm"
	"github.com/autoapply/autoapply/pkg/pack"
	"github.com/autoapply/autoapply/pkg/resume"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testResume = "Jane Doe\nSenior Go engineer"

var fixedTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// fakeLookup resolves every identifier to a posting derived from it.
type fakeLookup struct {
	mu        sync.Mutex
	calls     int
	failIDs   map[string]bool
	failCalls map[int]bool
	delay     time.Duration

	active    atomic.Int32
	maxActive atomic.Int32
}

func (f *fakeLookup) Resolve(ctx context.Context, identifier string) (posting jobinfo.Posting, err error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		prev := f.maxActive.Load()
		if n <= prev || f.maxActive.CompareAndSwap(prev, n) {
			break
		}
	}

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()

	if f.failIDs[identifier] || f.failCalls[call] {
		err = errors.Wrapf(jobinfo.ErrNotFound, "identifier %s", identifier)
		return posting, err
	}

	posting = jobinfo.Posting{
		Identifier:  identifier,
		Title:       "Title " + identifier,
		Company:     "Company " + identifier,
		Description: "Description for " + identifier,
	}
	return posting, err
}

// fakeGenerator answers by prompt kind; fail decides per prompt.
type fakeGenerator struct {
	fail  func(prompt string) bool
	hook  func()
	delay time.Duration

	calls     atomic.Int32
	active    atomic.Int32
	maxActive atomic.Int32
}

func (f *fakeGenerator) Complete(ctx context.Context, prompt string, temperature float64) (text string, err error) {
	f.calls.Add(1)
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		prev := f.maxActive.Load()
		if n <= prev || f.maxActive.CompareAndSwap(prev, n) {
			break
		}
	}

	if f.hook != nil {
		f.hook()
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	err = ctx.Err()
	if err != nil {
		return text, err
	}

	if f.fail != nil && f.fail(prompt) {
		err = errors.New("provider unavailable")
		return text, err
	}

	switch {
	case strings.HasPrefix(prompt, "You are an expert resume writer"):
		text = "tailored resume"
	case strings.HasPrefix(prompt, "Write a personalized cover letter"):
		text = "cover letter"
	default:
		text = "answer"
	}
	return text, err
}

type failingStore struct {
	err error
}

func (s failingStore) Save(ctx context.Context, p pack.ApplicationPack) (err error) {
	err = s.err
	return err
}

func (s failingStore) Load(ctx context.Context, id string) (p pack.ApplicationPack, err error) {
	err = pack.ErrNotFound
	return p, err
}

func testOptions() (opts Options) {
	opts = Options{
		Now:   func() time.Time { return fixedTime },
		NewID: func() string { return "pack-1" },
	}
	return opts
}

func TestRunBatchEmptyIdentifiers(t *testing.T) {
	gen := &fakeGenerator{}
	store := pack.NewMemoryStore()
	o := New(gen, &fakeLookup{}, store, testOptions())

	_, err := o.RunBatch(context.Background(), "owner-1", nil, testResume)
	assert.True(t, errors.Is(err, ErrNoIdentifiers))
	assert.True(t, IsPrecondition(err))
	assert.Contains(t, err.Error(), "empty identifier list")
	assert.Equal(t, 0, store.Saves())
	assert.Equal(t, int32(0), gen.calls.Load())
}

func TestRunBatchNoResume(t *testing.T) {
	gen := &fakeGenerator{}
	lookup := &fakeLookup{}
	store := pack.NewMemoryStore()
	o := New(gen, lookup, store, testOptions())

	_, err := o.RunBatch(context.Background(), "owner-1", []string{"job-1"}, "  \n")
	assert.True(t, errors.Is(err, ErrNoResume))
	assert.True(t, errors.Is(err, resume.ErrNoResume))
	assert.Equal(t, 0, store.Saves())
	assert.Equal(t, int32(0), gen.calls.Load())
	assert.Equal(t, 0, lookup.calls)
}

func TestRunBatchAllSucceed(t *testing.T) {
	gen := &fakeGenerator{}
	store := pack.NewMemoryStore()
	o := New(gen, &fakeLookup{}, store, testOptions())

	p, err := o.RunBatch(context.Background(), "owner-1", []string{"job-1", "job-2"}, testResume)
	require.NoError(t, err)

	assert.Equal(t, "pack-1", p.ID)
	assert.Equal(t, "owner-1", p.OwnerID)
	assert.Equal(t, fixedTime, p.CreatedAt)
	assert.Equal(t, []string{"job-1", "job-2"}, p.InputIdentifiers)
	assert.Equal(t, 2, p.SuccessCount())
	assert.Equal(t, int32(10), gen.calls.Load())

	job := p.Results["job-1"]
	require.True(t, job.OK())
	assert.Equal(t, "Title job-1", job.Success.Title)
	assert.Equal(t, "Company job-1", job.Success.Company)
	assert.Equal(t, "Description for job-1", job.Success.Description)
	assert.Equal(t, "tailored resume", job.Success.Resume)
	assert.Equal(t, "cover letter", job.Success.CoverLetter)
	require.Len(t, job.Success.Answers, len(CanonicalQuestions))
	for i, answer := range job.Success.Answers {
		assert.Equal(t, CanonicalQuestions[i], answer.Question)
		assert.Equal(t, "answer", answer.Answer)
		assert.Equal(t, generate.AnswerStar, answer.AnswerType)
	}

	stored, err := store.Load(context.Background(), "pack-1")
	require.NoError(t, err)
	assert.Equal(t, p, stored)
	assert.Equal(t, 1, store.Saves())
}

func TestRunBatchLookupFailureIsolated(t *testing.T) {
	gen := &fakeGenerator{}
	lookup := &fakeLookup{failIDs: map[string]bool{"bad": true}}
	store := pack.NewMemoryStore()
	o := New(gen, lookup, store, testOptions())

	before := testutil.ToFloat64(JobsProcessed.WithLabelValues(outcomeLookupFailed))

	p, err := o.RunBatch(context.Background(), "owner-1", []string{"good-1", "bad", "good-2"}, testResume)
	require.NoError(t, err)

	require.Len(t, p.Results, 3)
	assert.True(t, p.Results["good-1"].OK())
	assert.True(t, p.Results["good-2"].OK())
	require.NotNil(t, p.Results["bad"].Failure)
	assert.Nil(t, p.Results["bad"].Success)
	assert.Equal(t, pack.ReasonLookupFailed, p.Results["bad"].Failure.Reason)

	// no generation for the failed lookup
	assert.Equal(t, int32(10), gen.calls.Load())
	assert.Equal(t, before+1, testutil.ToFloat64(JobsProcessed.WithLabelValues(outcomeLookupFailed)))
}

func TestRunBatchSecondAnswerFailureFailsOnlyThatJob(t *testing.T) {
	gen := &fakeGenerator{
		fail: func(prompt string) bool {
			return strings.Contains(prompt, "Description for job-2") &&
				strings.Contains(prompt, CanonicalQuestions[1])
		},
	}
	store := pack.NewMemoryStore()
	o := New(gen, &fakeLookup{}, store, testOptions())

	p, err := o.RunBatch(context.Background(), "owner-1", []string{"job-1", "job-2"}, testResume)
	require.NoError(t, err)
	require.Len(t, p.Results, 2)

	ok := p.Results["job-1"]
	require.True(t, ok.OK())
	assert.Equal(t, "Title job-1", ok.Success.Title)
	assert.Equal(t, "Company job-1", ok.Success.Company)
	assert.Equal(t, "Description for job-1", ok.Success.Description)
	assert.NotEmpty(t, ok.Success.Resume)
	assert.NotEmpty(t, ok.Success.CoverLetter)
	assert.Len(t, ok.Success.Answers, 3)

	failed := p.Results["job-2"]
	require.NotNil(t, failed.Failure)
	assert.Nil(t, failed.Success)
	assert.Equal(t, pack.ReasonProcessingFailed, failed.Failure.Reason)

	assert.Equal(t, 1, store.Saves())
}

func TestRunBatchRepeatKeepsShape(t *testing.T) {
	ids := []string{"job-1", "bad", "job-1", "job-2"}
	lookup := &fakeLookup{failIDs: map[string]bool{"bad": true}}
	o := New(&fakeGenerator{}, lookup, pack.NewMemoryStore(), Options{})

	first, err := o.RunBatch(context.Background(), "owner-1", ids, testResume)
	require.NoError(t, err)
	second, err := o.RunBatch(context.Background(), "owner-1", ids, testResume)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	require.Len(t, first.Results, 3)
	require.Len(t, second.Results, 3)
	for id, r := range first.Results {
		assert.Equal(t, r.OK(), second.Results[id].OK(), id)
	}
}

func TestRunBatchDuplicateLastPositionWins(t *testing.T) {
	tests := []struct {
		name      string
		failCalls map[int]bool
		expectOK  bool
	}{
		{name: "first fails, second succeeds", failCalls: map[int]bool{1: true}, expectOK: true},
		{name: "first succeeds, second fails", failCalls: map[int]bool{2: true}, expectOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			opts.Concurrency = 1
			o := New(&fakeGenerator{}, &fakeLookup{failCalls: tt.failCalls}, pack.NewMemoryStore(), opts)

			p, err := o.RunBatch(context.Background(), "owner-1", []string{"A", "A"}, testResume)
			require.NoError(t, err)

			assert.Equal(t, []string{"A", "A"}, p.InputIdentifiers)
			require.Len(t, p.Results, 1)
			assert.Equal(t, tt.expectOK, p.Results["A"].OK())
		})
	}
}

func TestRunBatchStoreFailure(t *testing.T) {
	cause := errors.New("disk full")
	o := New(&fakeGenerator{}, &fakeLookup{}, failingStore{err: cause}, testOptions())

	p, err := o.RunBatch(context.Background(), "owner-1", []string{"job-1"}, testResume)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreFailed))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, IsPrecondition(err))
	assert.Empty(t, p.ID)
}

func TestRunBatchCancelledBeforeStart(t *testing.T) {
	gen := &fakeGenerator{}
	store := pack.NewMemoryStore()
	o := New(gen, &fakeLookup{}, store, testOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.RunBatch(ctx, "owner-1", []string{"job-1", "job-2"}, testResume)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, store.Saves())
}

func TestRunBatchCancelledMidRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gen := &fakeGenerator{hook: cancel}
	store := pack.NewMemoryStore()
	o := New(gen, &fakeLookup{}, store, testOptions())

	_, err := o.RunBatch(ctx, "owner-1", []string{"job-1", "job-2", "job-3"}, testResume)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, store.Saves())
}

func TestRunBatchBoundedConcurrency(t *testing.T) {
	lookup := &fakeLookup{delay: 20 * time.Millisecond}
	opts := testOptions()
	opts.Concurrency = 2
	o := New(&fakeGenerator{}, lookup, pack.NewMemoryStore(), opts)

	ids := []string{"j1", "j2", "j3", "j4", "j5", "j6"}
	p, err := o.RunBatch(context.Background(), "owner-1", ids, testResume)
	require.NoError(t, err)

	assert.Len(t, p.Results, len(ids))
	assert.LessOrEqual(t, lookup.maxActive.Load(), int32(2))
	assert.GreaterOrEqual(t, lookup.maxActive.Load(), int32(1))
}

func TestRunBatchMaxProviderCalls(t *testing.T) {
	gen := &fakeGenerator{delay: 5 * time.Millisecond}
	opts := testOptions()
	opts.Concurrency = 3
	opts.MaxProviderCalls = 1
	o := New(gen, &fakeLookup{}, pack.NewMemoryStore(), opts)

	p, err := o.RunBatch(context.Background(), "owner-1", []string{"j1", "j2", "j3"}, testResume)
	require.NoError(t, err)

	assert.Equal(t, 3, p.SuccessCount())
	assert.Equal(t, int32(1), gen.maxActive.Load())
}

func TestCanonicalQuestionsFillPack(t *testing.T) {
	assert.Len(t, CanonicalQuestions, pack.AnswerCount)
}

func TestNewDefaults(t *testing.T) {
	o := New(&fakeGenerator{}, &fakeLookup{}, pack.NewMemoryStore(), Options{})

	assert.Equal(t, DefaultConcurrency, o.concurrency)
	assert.NotNil(t, o.logger)
	assert.NotEmpty(t, o.newID())
}

func TestStoreError(t *testing.T) {
	cause := errors.New("boom")
	err := &StoreError{Err: cause}

	assert.Equal(t, "failed to store application pack: boom", err.Error())
	assert.True(t, errors.Is(err, ErrStoreFailed))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, llm.ErrGenerationFailed))
}
