// Package export writes a stored application pack to disk as markdown, one
// directory per job.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/autoapply/autoapply/pkg/pack"
	"github.com/pkg/errors"
)

// File names written into each job directory.
const (
	ResumeFile      = "resume.md"
	CoverLetterFile = "cover-letter.md"
	AnswersFile     = "answers.md"
	FailureFile     = "FAILED.md"
	IndexFile       = "README.md"
)

// JobDir describes where one job's artifacts were written.
type JobDir struct {
	Identifier string
	Dir        string
	OK         bool
	Files      []string
}

// Pack writes p under <outputDir>/<pack id>/ and returns the job directories
// in input order. Duplicate identifiers are written once.
func Pack(p pack.ApplicationPack, outputDir string) (dirs []JobDir, err error) {
	packDir := filepath.Join(outputDir, SanitizeName(p.ID))

	used := make(map[string]int)
	seen := make(map[string]bool)

	for _, identifier := range p.InputIdentifiers {
		if seen[identifier] {
			continue
		}
		seen[identifier] = true

		result, ok := p.Results[identifier]
		if !ok {
			continue
		}

		name := SanitizeName(identifier)
		if name == "" {
			name = "job"
		}
		used[name]++
		if used[name] > 1 {
			name += "-" + strconv.Itoa(used[name])
		}

		var dir JobDir
		dir, err = writeJob(filepath.Join(packDir, name), identifier, result)
		if err != nil {
			return dirs, err
		}
		dirs = append(dirs, dir)
	}

	err = WriteMarkdown(buildIndex(p, packDir, dirs), filepath.Join(packDir, IndexFile))
	if err != nil {
		return dirs, err
	}

	return dirs, err
}

func writeJob(dir, identifier string, result pack.JobResult) (jd JobDir, err error) {
	jd = JobDir{Identifier: identifier, Dir: dir, OK: result.OK()}

	files := make(map[string]string)
	if result.OK() {
		s := result.Success
		files[ResumeFile] = normalizeText(s.Resume)
		files[CoverLetterFile] = normalizeText(s.CoverLetter)
		files[AnswersFile] = buildAnswers(s)
	} else {
		reason := "unknown"
		if result.Failure != nil {
			reason = result.Failure.Reason
		}
		files[FailureFile] = fmt.Sprintf("# %s\n\nNo documents were generated: %s.\n", identifier, reason)
	}

	for _, name := range []string{ResumeFile, CoverLetterFile, AnswersFile, FailureFile} {
		content, ok := files[name]
		if !ok {
			continue
		}
		path := filepath.Join(dir, name)
		err = WriteMarkdown(content, path)
		if err != nil {
			return jd, err
		}
		jd.Files = append(jd.Files, path)
	}

	return jd, err
}

func buildAnswers(s *pack.JobSuccess) (content string) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s at %s\n", s.Title, s.Company)
	for _, a := range s.Answers {
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", a.Question, normalizeText(a.Answer))
	}
	content = b.String()
	return content
}

func buildIndex(p pack.ApplicationPack, packDir string, dirs []JobDir) (content string) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Application pack %s\n\n", p.ID)
	fmt.Fprintf(&b, "Owner: %s  \nCreated: %s\n\n", p.OwnerID, p.CreatedAt.Format("2006-01-02 15:04 MST"))
	b.WriteString("| Job | Status | Directory |\n|---|---|---|\n")

	for _, d := range dirs {
		status := "generated"
		if !d.OK {
			status = "failed"
			if r := p.Results[d.Identifier]; r.Failure != nil {
				status += ": " + r.Failure.Reason
			}
		}
		rel, err := filepath.Rel(packDir, d.Dir)
		if err != nil {
			rel = d.Dir
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", d.Identifier, status, rel)
	}

	content = b.String()
	return content
}

// WriteMarkdown writes markdown content to a file.
func WriteMarkdown(content, outputPath string) (err error) {
	outputDir := filepath.Dir(outputPath)
	err = os.MkdirAll(outputDir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create output directory: %s", outputDir)
		return err
	}

	err = os.WriteFile(outputPath, []byte(content), 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to write markdown file: %s", outputPath)
		return err
	}

	return err
}

// SanitizeName turns an identifier such as a posting URL into a lowercase,
// hyphenated directory name.
func SanitizeName(name string) (sanitized string) {
	sanitized = strings.ToLower(name)
	for _, prefix := range []string{"https://", "http://", "www."} {
		sanitized = strings.TrimPrefix(sanitized, prefix)
	}

	sanitized = strings.Map(func(r rune) (result rune) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			result = r
			return result
		}
		result = '-'
		return result
	}, sanitized)

	for strings.Contains(sanitized, "--") {
		sanitized = strings.ReplaceAll(sanitized, "--", "-")
	}

	sanitized = strings.Trim(sanitized, "-")

	return sanitized
}

// normalizeText converts literal \n sequences the model sometimes emits.
func normalizeText(text string) (normalized string) {
	normalized = strings.ReplaceAll(text, "\\n", "\n")
	normalized = strings.TrimSpace(normalized) + "\n"
	return normalized
}
