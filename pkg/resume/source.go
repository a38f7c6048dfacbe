// Package resume supplies the source resume text used for generation.
package resume

import (
	"context"
	"database/sql"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ErrNoResume is returned when an owner has no usable resume on file.
var ErrNoResume = errors.New("no resume on file")

// Record is a stored resume. FinalText is a previously generated version.
type Record struct {
	RawText   string
	FinalText string
}

// Text returns the text to generate from, preferring the generated version.
func (r Record) Text() (text string) {
	text = strings.TrimSpace(r.FinalText)
	if text == "" {
		text = strings.TrimSpace(r.RawText)
	}
	return text
}

// Source looks up the most recent resume for an owner.
type Source interface {
	Latest(ctx context.Context, ownerID string) (text string, err error)
}

// FileSource serves a single resume file regardless of owner, which suits
// single-user CLI runs.
type FileSource struct {
	Path string
}

// Latest reads the resume file.
func (s FileSource) Latest(ctx context.Context, ownerID string) (text string, err error) {
	if s.Path == "" {
		err = errors.Wrap(ErrNoResume, "no resume path configured")
		return text, err
	}

	var data []byte
	data, err = os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			err = errors.Wrapf(ErrNoResume, "resume file not found: %s", s.Path)
			return text, err
		}
		err = errors.Wrapf(err, "failed to read resume file: %s", s.Path)
		return text, err
	}

	text = Record{RawText: string(data)}.Text()
	if text == "" {
		err = errors.Wrapf(ErrNoResume, "resume file is empty: %s", s.Path)
		return text, err
	}

	return text, err
}

const latestResumeSQL = `SELECT raw_text, final_text FROM resumes WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`

// PostgresSource reads the newest row of the resumes table.
type PostgresSource struct {
	db *sql.DB
}

// NewPostgresSource wraps an open database handle.
func NewPostgresSource(db *sql.DB) (source *PostgresSource) {
	source = &PostgresSource{db: db}
	return source
}

// Latest returns final_text, or raw_text when no generated version exists.
func (s *PostgresSource) Latest(ctx context.Context, ownerID string) (text string, err error) {
	var raw, final sql.NullString

	err = s.db.QueryRowContext(ctx, latestResumeSQL, ownerID).Scan(&raw, &final)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Wrapf(ErrNoResume, "owner %s", ownerID)
			return text, err
		}
		err = errors.Wrapf(err, "failed to load resume for owner %s", ownerID)
		return text, err
	}

	text = Record{RawText: raw.String, FinalText: final.String}.Text()
	if text == "" {
		err = errors.Wrapf(ErrNoResume, "owner %s has an empty resume", ownerID)
		return text, err
	}

	return text, err
}
