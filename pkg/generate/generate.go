// Package generate builds prompts for resumes, cover letters and application
// answers and hands them to a text generator. Each Generate call makes exactly
// one provider request; retries belong to the provider client, not here.
package generate

import (
	"context"

	"github.com/autoapply/autoapply/pkg/llm"
	"github.com/pkg/errors"
)

// Sampling temperatures per document kind.
const (
	ResumeTemperature      = 0.7
	CoverLetterTemperature = 0.8
	AnswerTemperature      = 0.7
)

// ResumeRequest holds the inputs for a resume rewrite.
type ResumeRequest struct {
	ResumeText string
	Style      Style
}

// CoverLetterRequest holds the inputs for a cover letter.
type CoverLetterRequest struct {
	JobTitle       string
	Company        string
	JobDescription string
	ResumeText     string
	Tone           Tone
}

// AnswerRequest holds the inputs for one application answer.
type AnswerRequest struct {
	Question       string
	JobDescription string
	ResumeText     string
	AnswerType     AnswerType
}

// ResumeGenerator rewrites raw resume text in a chosen style.
type ResumeGenerator struct {
	gen llm.TextGenerator
}

// NewResumeGenerator creates a resume generator backed by gen.
func NewResumeGenerator(gen llm.TextGenerator) (g *ResumeGenerator) {
	g = &ResumeGenerator{gen: gen}
	return g
}

// Generate produces a resume.
func (g *ResumeGenerator) Generate(ctx context.Context, req ResumeRequest) (text string, err error) {
	text, err = g.gen.Complete(ctx, buildResumePrompt(req), ResumeTemperature)
	if err != nil {
		err = generationFailure(err, "resume generation failed")
		return text, err
	}
	return text, err
}

// CoverLetterGenerator writes a cover letter for one posting.
type CoverLetterGenerator struct {
	gen llm.TextGenerator
}

// NewCoverLetterGenerator creates a cover letter generator backed by gen.
func NewCoverLetterGenerator(gen llm.TextGenerator) (g *CoverLetterGenerator) {
	g = &CoverLetterGenerator{gen: gen}
	return g
}

// Generate produces a cover letter.
func (g *CoverLetterGenerator) Generate(ctx context.Context, req CoverLetterRequest) (text string, err error) {
	text, err = g.gen.Complete(ctx, buildCoverLetterPrompt(req), CoverLetterTemperature)
	if err != nil {
		err = generationFailure(err, "cover letter generation failed")
		return text, err
	}
	return text, err
}

// AnswerGenerator answers one application question at a time.
type AnswerGenerator struct {
	gen llm.TextGenerator
}

// NewAnswerGenerator creates an answer generator backed by gen.
func NewAnswerGenerator(gen llm.TextGenerator) (g *AnswerGenerator) {
	g = &AnswerGenerator{gen: gen}
	return g
}

// Generate produces an answer to req.Question.
func (g *AnswerGenerator) Generate(ctx context.Context, req AnswerRequest) (text string, err error) {
	text, err = g.gen.Complete(ctx, buildAnswerPrompt(req), AnswerTemperature)
	if err != nil {
		err = generationFailure(err, "answer generation failed")
		return text, err
	}
	return text, err
}

// generationFailure annotates err and guarantees it matches llm.ErrGenerationFailed.
func generationFailure(err error, msg string) (wrapped error) {
	if !errors.Is(err, llm.ErrGenerationFailed) {
		err = &llm.GenerationError{Err: err}
	}
	wrapped = errors.Wrap(err, msg)
	return wrapped
}
