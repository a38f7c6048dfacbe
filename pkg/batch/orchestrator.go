// Package batch turns a list of job identifiers and one resume into a
// persisted application pack.
//
// Jobs run concurrently up to a limit. A failing job is recorded in the pack
// and never aborts its siblings; only precondition failures, cancellation and
// store failures fail the batch as a whole, and none of those write a pack.
package batch

import (
	"context"
	"strings"
	"time"

	"github.com/autoapply/autoapply/pkg/generate"
	"github.com/autoapply/autoapply/pkg/jobinfo"
	"github.com/autoapply/autoapply/pkg/llm"
	"github.com/autoapply/autoapply/pkg/pack"
	"github.com/autoapply/autoapply/pkg/resume"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency is the number of jobs processed at once.
const DefaultConcurrency = 3

// Settings used for every job in a batch.
const (
	BatchStyle      = generate.StyleATSOptimized
	BatchTone       = generate.ToneFormal
	BatchAnswerType = generate.AnswerStar
)

// CanonicalQuestions are answered for every job, in this order.
//
//nolint:gochecknoglobals // fixed question list
var CanonicalQuestions = []string{
	"Why do you want this job?",
	"Tell us about a challenge you overcame",
	"Describe your experience with the required technologies",
}

var (
	// ErrNoIdentifiers means the batch was called with nothing to do.
	ErrNoIdentifiers = errors.New("empty identifier list")

	// ErrNoResume means there is no resume text to generate from.
	ErrNoResume = resume.ErrNoResume

	// ErrStoreFailed matches any failure to persist a finished pack.
	ErrStoreFailed = errors.New("failed to store application pack")
)

// StoreError carries the underlying store failure.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() (msg string) {
	msg = ErrStoreFailed.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() (err error) {
	err = e.Err
	return err
}

// Is reports whether target is ErrStoreFailed.
func (e *StoreError) Is(target error) (ok bool) {
	ok = target == ErrStoreFailed
	return ok
}

// Options tune an Orchestrator. Zero values select defaults.
type Options struct {
	// Concurrency caps how many jobs run at once.
	Concurrency int
	// MaxProviderCalls caps in-flight generation calls across all jobs.
	// Zero leaves them bounded only by Concurrency.
	MaxProviderCalls int
	Logger           *zap.Logger
	Now              func() time.Time
	NewID            func() string
}

// Orchestrator runs batches.
type Orchestrator struct {
	lookup      jobinfo.Lookup
	store       pack.Store
	resumes     *generate.ResumeGenerator
	letters     *generate.CoverLetterGenerator
	answers     *generate.AnswerGenerator
	concurrency int
	logger      *zap.Logger
	now         func() time.Time
	newID       func() string
}

// New creates an Orchestrator.
func New(gen llm.TextGenerator, lookup jobinfo.Lookup, store pack.Store, opts Options) (o *Orchestrator) {
	if opts.MaxProviderCalls > 0 {
		gen = &limitedGenerator{gen: gen, sem: semaphore.NewWeighted(int64(opts.MaxProviderCalls))}
	}

	o = &Orchestrator{
		lookup:      lookup,
		store:       store,
		resumes:     generate.NewResumeGenerator(gen),
		letters:     generate.NewCoverLetterGenerator(gen),
		answers:     generate.NewAnswerGenerator(gen),
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
		now:         opts.Now,
		newID:       opts.NewID,
	}

	if o.concurrency <= 0 {
		o.concurrency = DefaultConcurrency
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.newID == nil {
		o.newID = pack.NewID
	}

	return o
}

// RunBatch processes every identifier and saves the resulting pack once all
// jobs are done. Duplicate identifiers each run; the later position's outcome
// is the one kept.
func (o *Orchestrator) RunBatch(ctx context.Context, ownerID string, identifiers []string, resumeText string) (p pack.ApplicationPack, err error) {
	if len(identifiers) == 0 {
		BatchesRun.WithLabelValues(resultPrecondition).Inc()
		err = ErrNoIdentifiers
		return p, err
	}

	if strings.TrimSpace(resumeText) == "" {
		BatchesRun.WithLabelValues(resultPrecondition).Inc()
		err = errors.Wrapf(ErrNoResume, "owner %s", ownerID)
		return p, err
	}

	p = pack.ApplicationPack{
		ID:               o.newID(),
		OwnerID:          ownerID,
		InputIdentifiers: append([]string(nil), identifiers...),
		Results:          make(map[string]pack.JobResult, len(identifiers)),
	}

	logger := o.logger.With(zap.String("pack_id", p.ID), zap.String("owner_id", ownerID))
	logger.Info("batch started", zap.Int("jobs", len(identifiers)), zap.Int("concurrency", o.concurrency))
	start := o.now()

	// One slot per input position; goroutines never share a slot.
	outcomes := make([]pack.JobResult, len(identifiers))

	var g errgroup.Group
	g.SetLimit(o.concurrency)

	for i, identifier := range identifiers {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			outcomes[i] = o.runJob(ctx, logger, identifier, resumeText)
			return nil
		})
	}

	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		BatchesRun.WithLabelValues(resultCancelled).Inc()
		logger.Warn("batch cancelled", zap.Error(err))
		err = errors.Wrap(err, "batch cancelled")
		p = pack.ApplicationPack{}
		return p, err
	}

	for i, identifier := range identifiers {
		p.Results[identifier] = outcomes[i]
	}
	p.CreatedAt = o.now()

	err = o.store.Save(ctx, p)
	if err != nil {
		BatchesRun.WithLabelValues(resultStoreFailed).Inc()
		logger.Error("failed to store application pack", zap.Error(err))
		err = &StoreError{Err: err}
		p = pack.ApplicationPack{}
		return p, err
	}

	BatchesRun.WithLabelValues(resultCreated).Inc()
	logger.Info("batch finished",
		zap.Int("succeeded", p.SuccessCount()),
		zap.Int("results", len(p.Results)),
		zap.Duration("duration", o.now().Sub(start)),
	)

	return p, err
}

// runJob never returns an error: every failure becomes a JobResult.
func (o *Orchestrator) runJob(ctx context.Context, logger *zap.Logger, identifier, resumeText string) (result pack.JobResult) {
	JobsActive.Inc()
	defer JobsActive.Dec()

	logger = logger.With(zap.String("identifier", identifier))
	start := time.Now()

	posting, err := o.lookup.Resolve(ctx, identifier)
	if err != nil {
		o.recordJob(logger, start, outcomeLookupFailed, pack.ReasonLookupFailed, err)
		result = pack.Failed(pack.ReasonLookupFailed)
		return result
	}

	success, err := o.generateArtifacts(ctx, posting, resumeText)
	if err != nil {
		o.recordJob(logger, start, outcomeProcessingFailed, pack.ReasonProcessingFailed, err)
		result = pack.Failed(pack.ReasonProcessingFailed)
		return result
	}

	o.recordJob(logger, start, outcomeSuccess, "", nil)
	result = pack.Succeeded(success)
	return result
}

// generateArtifacts runs the resume, cover letter and answer calls
// concurrently. Any single failure fails the whole job.
func (o *Orchestrator) generateArtifacts(ctx context.Context, posting jobinfo.Posting, resumeText string) (success pack.JobSuccess, err error) {
	g, gCtx := errgroup.WithContext(ctx)

	var resumeOut, letterOut string
	answers := make([]pack.GeneratedAnswer, len(CanonicalQuestions))

	g.Go(func() (err error) {
		resumeOut, err = o.resumes.Generate(gCtx, generate.ResumeRequest{
			ResumeText: resumeText,
			Style:      BatchStyle,
		})
		return err
	})

	g.Go(func() (err error) {
		letterOut, err = o.letters.Generate(gCtx, generate.CoverLetterRequest{
			JobTitle:       posting.Title,
			Company:        posting.Company,
			JobDescription: posting.Description,
			ResumeText:     resumeText,
			Tone:           BatchTone,
		})
		return err
	})

	for i, question := range CanonicalQuestions {
		g.Go(func() (err error) {
			var answer string
			answer, err = o.answers.Generate(gCtx, generate.AnswerRequest{
				Question:       question,
				JobDescription: posting.Description,
				ResumeText:     resumeText,
				AnswerType:     BatchAnswerType,
			})
			if err != nil {
				return err
			}
			answers[i] = pack.GeneratedAnswer{Question: question, Answer: answer, AnswerType: BatchAnswerType}
			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		return success, err
	}

	success = pack.JobSuccess{
		Title:       posting.Title,
		Company:     posting.Company,
		Description: posting.Description,
		Resume:      resumeOut,
		CoverLetter: letterOut,
		Answers:     answers,
	}

	return success, err
}

func (o *Orchestrator) recordJob(logger *zap.Logger, start time.Time, outcome, reason string, err error) {
	elapsed := time.Since(start)
	JobsProcessed.WithLabelValues(outcome).Inc()
	JobDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())

	if err != nil {
		logger.Warn("job failed", zap.String("reason", reason), zap.Duration("duration", elapsed), zap.Error(err))
		return
	}
	logger.Info("job completed", zap.Duration("duration", elapsed))
}

// limitedGenerator bounds in-flight provider calls.
type limitedGenerator struct {
	gen llm.TextGenerator
	sem *semaphore.Weighted
}

func (l *limitedGenerator) Complete(ctx context.Context, prompt string, temperature float64) (text string, err error) {
	err = l.sem.Acquire(ctx, 1)
	if err != nil {
		return text, err
	}
	defer l.sem.Release(1)

	text, err = l.gen.Complete(ctx, prompt, temperature)
	return text, err
}
