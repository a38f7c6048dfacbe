// Package jobinfo resolves job identifiers into postings.
package jobinfo

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when an identifier cannot be resolved.
var ErrNotFound = errors.New("job posting not found")

// Placeholder values returned by StubLookup.
const (
	PlaceholderTitle       = "Software Engineer"
	PlaceholderCompany     = "Company Name"
	PlaceholderDescription = "Job description will be extracted from the URL"
)

// Posting is a resolved job posting.
type Posting struct {
	Identifier  string `json:"identifier"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
}

// Lookup resolves an identifier (usually a URL) into a Posting.
type Lookup interface {
	Resolve(ctx context.Context, identifier string) (posting Posting, err error)
}

// StubLookup resolves every identifier to placeholder data.
// It stands in for a real scraping service.
type StubLookup struct{}

// Resolve returns placeholder posting data for identifier.
func (StubLookup) Resolve(ctx context.Context, identifier string) (posting Posting, err error) {
	err = ctx.Err()
	if err != nil {
		return posting, err
	}

	posting = Posting{
		Identifier:  identifier,
		Title:       PlaceholderTitle,
		Company:     PlaceholderCompany,
		Description: PlaceholderDescription,
	}
	return posting, err
}

// FileLookup resolves identifiers that name local files.
// A .json file must hold {title, company, description}; any other file is
// read as a plain-text description. Identifiers that are not existing local
// files are handed to Fallback, or reported as ErrNotFound when it is nil.
type FileLookup struct {
	Fallback Lookup
}

// Resolve reads the posting from disk or defers to the fallback.
func (l FileLookup) Resolve(ctx context.Context, identifier string) (posting Posting, err error) {
	if !isLocalFile(identifier) {
		if l.Fallback == nil {
			err = errors.Wrapf(ErrNotFound, "no local file: %s", identifier)
			return posting, err
		}
		posting, err = l.Fallback.Resolve(ctx, identifier)
		return posting, err
	}

	if strings.EqualFold(filepath.Ext(identifier), ".json") {
		posting, err = fetchFromJSONFile(identifier)
	} else {
		var content string
		content, err = fetchFromFile(identifier)
		posting = Posting{
			Title:       titleFromPath(identifier),
			Company:     PlaceholderCompany,
			Description: content,
		}
	}
	if err != nil {
		err = errors.Wrapf(ErrNotFound, "failed to load job posting from file: %s: %v", identifier, err)
		return posting, err
	}

	posting.Identifier = identifier
	return posting, err
}

func isLocalFile(identifier string) (ok bool) {
	info, statErr := os.Stat(identifier)
	ok = statErr == nil && !info.IsDir()
	return ok
}

// fetchFromFile reads a job description from a file.
func fetchFromFile(path string) (content string, err error) {
	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read file: %s", path)
		return content, err
	}

	content = strings.TrimSpace(string(data))
	if content == "" {
		err = errors.New("file is empty")
		return content, err
	}

	return content, err
}

// fetchFromJSONFile reads a structured posting from a JSON file.
func fetchFromJSONFile(path string) (posting Posting, err error) {
	var content string
	content, err = fetchFromFile(path)
	if err != nil {
		return posting, err
	}

	err = json.Unmarshal([]byte(content), &posting)
	if err != nil {
		err = errors.Wrapf(err, "failed to parse posting JSON: %s", path)
		return posting, err
	}

	if posting.Description == "" {
		err = errors.New("posting has no description")
		return posting, err
	}

	return posting, err
}

// titleFromPath turns "staff-sre.txt" into "staff sre".
func titleFromPath(path string) (title string) {
	base := filepath.Base(path)
	title = strings.TrimSuffix(base, filepath.Ext(base))
	title = strings.NewReplacer("-", " ", "_", " ").Replace(title)
	return title
}
