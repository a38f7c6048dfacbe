// Package pack defines application packs, the aggregate result of one batch
// run, and the stores that persist them.
package pack

import (
	"context"
	"time"

	"github.com/autoapply/autoapply/pkg/generate"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Failure reasons recorded for jobs that did not produce artifacts.
const (
	ReasonLookupFailed     = "lookup failed"
	ReasonProcessingFailed = "processing failed"
)

// AnswerCount is the number of answered questions in every successful job.
const AnswerCount = 3

// ErrNotFound is returned by Store.Load for unknown pack ids.
var ErrNotFound = errors.New("application pack not found")

// Store persists application packs. Save writes a whole pack at once.
type Store interface {
	Save(ctx context.Context, p ApplicationPack) (err error)
	Load(ctx context.Context, id string) (p ApplicationPack, err error)
}

// GeneratedAnswer is one answered application question.
type GeneratedAnswer struct {
	Question   string              `json:"question"`
	Answer     string              `json:"answer"`
	AnswerType generate.AnswerType `json:"answer_type"`
}

// JobSuccess holds every artifact generated for one job.
type JobSuccess struct {
	Title       string            `json:"title"`
	Company     string            `json:"company"`
	Description string            `json:"description"`
	Resume      string            `json:"resume"`
	CoverLetter string            `json:"cover_letter"`
	Answers     []GeneratedAnswer `json:"answers"`
}

// JobFailure records why a job produced nothing.
type JobFailure struct {
	Reason string `json:"reason"`
}

// JobResult is either a success or a failure; exactly one field is set.
type JobResult struct {
	Success *JobSuccess `json:"success,omitempty"`
	Failure *JobFailure `json:"failure,omitempty"`
}

// Succeeded wraps s as a JobResult.
func Succeeded(s JobSuccess) (r JobResult) {
	r = JobResult{Success: &s}
	return r
}

// Failed builds a failure JobResult.
func Failed(reason string) (r JobResult) {
	r = JobResult{Failure: &JobFailure{Reason: reason}}
	return r
}

// OK reports whether the job succeeded.
func (r JobResult) OK() (ok bool) {
	ok = r.Success != nil && r.Failure == nil
	return ok
}

// ApplicationPack is the persisted result of one batch run, keyed by the
// identifiers the caller supplied.
type ApplicationPack struct {
	ID               string               `json:"id"`
	OwnerID          string               `json:"owner_id"`
	InputIdentifiers []string             `json:"input_identifiers"`
	Results          map[string]JobResult `json:"results"`
	CreatedAt        time.Time            `json:"created_at"`
}

// NewID returns a fresh pack id.
func NewID() (id string) {
	id = uuid.NewString()
	return id
}

// SuccessCount counts successful jobs.
func (p ApplicationPack) SuccessCount() (count int) {
	for _, r := range p.Results {
		if r.OK() {
			count++
		}
	}
	return count
}

// Validate checks the structural invariants of a pack.
func (p ApplicationPack) Validate() (err error) {
	if p.ID == "" {
		err = errors.New("pack id is required")
		return err
	}

	if p.OwnerID == "" {
		err = errors.New("pack owner is required")
		return err
	}

	if len(p.InputIdentifiers) == 0 {
		err = errors.New("pack has no input identifiers")
		return err
	}

	inputs := make(map[string]struct{}, len(p.InputIdentifiers))
	for _, id := range p.InputIdentifiers {
		inputs[id] = struct{}{}
	}

	for key, result := range p.Results {
		if _, ok := inputs[key]; !ok {
			err = errors.Errorf("result key %q is not an input identifier", key)
			return err
		}
		if (result.Success == nil) == (result.Failure == nil) {
			err = errors.Errorf("result for %q must be exactly one of success or failure", key)
			return err
		}
		if result.Success != nil && len(result.Success.Answers) != AnswerCount {
			err = errors.Errorf("result for %q has %d answers, want %d", key, len(result.Success.Answers), AnswerCount)
			return err
		}
	}

	return err
}
