package batch

import (
	"context"

	"github.com/autoapply/autoapply/pkg/pack"
	"github.com/autoapply/autoapply/pkg/resume"
	"github.com/pkg/errors"
)

// Service is the entry point used by the CLI and HTTP server. It looks up
// the owner's resume before handing the batch to the Orchestrator.
type Service struct {
	orchestrator *Orchestrator
	resumes      resume.Source
	store        pack.Store
}

// NewService wires an orchestrator to a resume source and the pack store it saves to.
func NewService(o *Orchestrator, resumes resume.Source, store pack.Store) (s *Service) {
	s = &Service{orchestrator: o, resumes: resumes, store: store}
	return s
}

// CreatePack runs a batch for ownerID using their most recent resume.
func (s *Service) CreatePack(ctx context.Context, ownerID string, identifiers []string) (p pack.ApplicationPack, err error) {
	if len(identifiers) == 0 {
		BatchesRun.WithLabelValues(resultPrecondition).Inc()
		err = ErrNoIdentifiers
		return p, err
	}

	var resumeText string
	resumeText, err = s.resumes.Latest(ctx, ownerID)
	if err != nil {
		if errors.Is(err, ErrNoResume) {
			BatchesRun.WithLabelValues(resultPrecondition).Inc()
			return p, err
		}
		err = errors.Wrap(err, "failed to load resume")
		return p, err
	}

	p, err = s.orchestrator.RunBatch(ctx, ownerID, identifiers, resumeText)
	return p, err
}

// GetPack loads a stored pack.
func (s *Service) GetPack(ctx context.Context, id string) (p pack.ApplicationPack, err error) {
	p, err = s.store.Load(ctx, id)
	return p, err
}

// IsPrecondition reports whether err rejected a batch before any work ran.
func IsPrecondition(err error) (ok bool) {
	ok = errors.Is(err, ErrNoIdentifiers) || errors.Is(err, ErrNoResume)
	return ok
}
