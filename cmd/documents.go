package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/autoapply/autoapply/pkg/config"
	"github.com/autoapply/autoapply/pkg/export"
	"github.com/autoapply/autoapply/pkg/generate"
	"github.com/autoapply/autoapply/pkg/jobinfo"
	"github.com/autoapply/autoapply/pkg/resume"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var docResume string

//nolint:gochecknoglobals // Cobra boilerplate
var docOut string

//nolint:gochecknoglobals // Cobra boilerplate
var docStyle string

//nolint:gochecknoglobals // Cobra boilerplate
var docTone string

//nolint:gochecknoglobals // Cobra boilerplate
var docAnswerType string

//nolint:gochecknoglobals // Cobra boilerplate
var docTitle string

//nolint:gochecknoglobals // Cobra boilerplate
var docCompany string

//nolint:gochecknoglobals // Cobra boilerplate
var docJD string

//nolint:gochecknoglobals // Cobra boilerplate
var docQuestion string

//nolint:gochecknoglobals // Cobra boilerplate
var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Rewrite your resume in a given style",
	Long: fmt.Sprintf(`Rewrite your resume in one of the supported styles: %s.

Example:
  autoapply resume --style modern
  autoapply resume --resume ~/resume.txt --style minimal --out resume-minimal.md`, joinOptions(generate.Styles())),
	Args: cobra.NoArgs,
	RunE: runResumeDoc,
}

//nolint:gochecknoglobals // Cobra boilerplate
var coverLetterCmd = &cobra.Command{
	Use:   "cover-letter",
	Short: "Write a cover letter for one posting",
	Long: fmt.Sprintf(`Write a cover letter for one posting. Tones: %s.

--jd takes a posting identifier or a local .json/.txt file; --title and
--company override what the posting provides.

Example:
  autoapply cover-letter --jd acme-sre.txt --title "SRE" --company "Acme" --tone confident`, joinOptions(generate.Tones())),
	Args: cobra.NoArgs,
	RunE: runCoverLetterDoc,
}

//nolint:gochecknoglobals // Cobra boilerplate
var answerCmd = &cobra.Command{
	Use:   "answer",
	Short: "Answer one application question",
	Long: fmt.Sprintf(`Answer one application question. Answer types: %s.

Example:
  autoapply answer --question "Why do you want to work here?" --jd acme-sre.txt --type short`, joinOptions(generate.AnswerTypes())),
	Args: cobra.NoArgs,
	RunE: runAnswerDoc,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	for _, c := range []*cobra.Command{resumeCmd, coverLetterCmd, answerCmd} {
		rootCmd.AddCommand(c)
		c.Flags().StringVar(&docResume, "resume", "", "Resume text file (default: resume_path from config)")
		c.Flags().StringVar(&docOut, "out", "", "Write the result to this markdown file instead of stdout")
	}

	resumeCmd.Flags().StringVar(&docStyle, "style", string(generate.StyleATSOptimized), "Resume style")

	coverLetterCmd.Flags().StringVar(&docTone, "tone", string(generate.ToneFormal), "Cover letter tone")
	coverLetterCmd.Flags().StringVar(&docTitle, "title", "", "Job title")
	coverLetterCmd.Flags().StringVar(&docCompany, "company", "", "Company name")
	coverLetterCmd.Flags().StringVar(&docJD, "jd", "", "Posting identifier or job description file")

	answerCmd.Flags().StringVar(&docQuestion, "question", "", "The application question")
	answerCmd.Flags().StringVar(&docAnswerType, "type", string(generate.AnswerStar), "Answer type")
	answerCmd.Flags().StringVar(&docJD, "jd", "", "Posting identifier or job description file")
	_ = answerCmd.MarkFlagRequired("question")
}

func runResumeDoc(cmd *cobra.Command, args []string) (err error) {
	var style generate.Style
	style, err = generate.ParseStyle(docStyle)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, resumeText, err := setupDocument(ctx)
	if err != nil {
		return err
	}

	stop := startSpinner(fmt.Sprintf("Generating %s resume...", style))
	text, err := generate.NewResumeGenerator(newClient(cfg)).Generate(ctx, generate.ResumeRequest{
		ResumeText: resumeText,
		Style:      style,
	})
	stop()
	if err != nil {
		return err
	}

	err = emitDocument(text)
	return err
}

func runCoverLetterDoc(cmd *cobra.Command, args []string) (err error) {
	var tone generate.Tone
	tone, err = generate.ParseTone(docTone)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, resumeText, err := setupDocument(ctx)
	if err != nil {
		return err
	}

	var posting jobinfo.Posting
	posting, err = resolvePosting(ctx, docJD)
	if err != nil {
		return err
	}
	if docTitle != "" {
		posting.Title = docTitle
	}
	if docCompany != "" {
		posting.Company = docCompany
	}

	stop := startSpinner("Generating cover letter...")
	text, err := generate.NewCoverLetterGenerator(newClient(cfg)).Generate(ctx, generate.CoverLetterRequest{
		JobTitle:       posting.Title,
		Company:        posting.Company,
		JobDescription: posting.Description,
		ResumeText:     resumeText,
		Tone:           tone,
	})
	stop()
	if err != nil {
		return err
	}

	err = emitDocument(text)
	return err
}

func runAnswerDoc(cmd *cobra.Command, args []string) (err error) {
	var answerType generate.AnswerType
	answerType, err = generate.ParseAnswerType(docAnswerType)
	if err != nil {
		return err
	}

	if strings.TrimSpace(docQuestion) == "" {
		err = errors.New("--question must not be empty")
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, resumeText, err := setupDocument(ctx)
	if err != nil {
		return err
	}

	var posting jobinfo.Posting
	posting, err = resolvePosting(ctx, docJD)
	if err != nil {
		return err
	}

	stop := startSpinner("Generating answer...")
	text, err := generate.NewAnswerGenerator(newClient(cfg)).Generate(ctx, generate.AnswerRequest{
		Question:       docQuestion,
		JobDescription: posting.Description,
		ResumeText:     resumeText,
		AnswerType:     answerType,
	})
	stop()
	if err != nil {
		return err
	}

	err = emitDocument(text)
	return err
}

// setupDocument loads config and the resume for the single-document commands.
func setupDocument(ctx context.Context) (cfg config.Config, resumeText string, err error) {
	cfg, err = loadConfig()
	if err != nil {
		return cfg, resumeText, err
	}

	resumeText, err = resumeSource(docResume, cfg, nil).Latest(ctx, cfg.Name)
	if err != nil {
		if errors.Is(err, resume.ErrNoResume) {
			err = errors.Wrap(err, "set --resume or resume_path in config")
		}
		return cfg, resumeText, err
	}

	if getVerbose() {
		fmt.Printf("Loaded resume (%d characters)\n", len(resumeText))
	}

	return cfg, resumeText, err
}

func resolvePosting(ctx context.Context, identifier string) (posting jobinfo.Posting, err error) {
	if identifier == "" {
		return posting, err
	}

	posting, err = newLookup().Resolve(ctx, identifier)
	if err != nil {
		err = errors.Wrapf(err, "failed to resolve posting %s", identifier)
		return posting, err
	}

	if getVerbose() {
		fmt.Printf("Posting: %s at %s\n", posting.Title, posting.Company)
	}

	return posting, err
}

func emitDocument(text string) (err error) {
	if docOut == "" {
		fmt.Println(text)
		return err
	}

	err = export.WriteMarkdown(text, docOut)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", docOut)
	return err
}

func joinOptions[T ~string](values []T) (joined string) {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, string(v))
	}
	joined = strings.Join(parts, ", ")
	return joined
}
