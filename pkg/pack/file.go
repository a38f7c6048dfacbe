package pack

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pkg/errors"
)

//nolint:gochecknoglobals // compiled once
var packIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// FileStore keeps one JSON document per pack under a directory.
type FileStore struct {
	dir string // e.g. ~/Documents/Applications/packs
}

// NewFileStore creates a file store rooted at dir.
func NewFileStore(dir string) (store *FileStore, err error) {
	if dir == "" {
		err = errors.New("pack directory is required")
		return store, err
	}

	err = os.MkdirAll(dir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create pack directory: %s", dir)
		return store, err
	}

	store = &FileStore{dir: dir}
	return store, err
}

// Save writes the pack to a temp file and renames it into place, so readers
// never observe a half-written pack.
func (s *FileStore) Save(ctx context.Context, p ApplicationPack) (err error) {
	err = ctx.Err()
	if err != nil {
		return err
	}

	err = p.Validate()
	if err != nil {
		err = errors.Wrap(err, "refusing to save invalid pack")
		return err
	}

	var path string
	path, err = s.path(p.ID)
	if err != nil {
		return err
	}

	var data []byte
	data, err = json.MarshalIndent(p, "", "  ")
	if err != nil {
		err = errors.Wrap(err, "failed to marshal pack")
		return err
	}

	var tmp *os.File
	tmp, err = os.CreateTemp(s.dir, ".pack-*.tmp")
	if err != nil {
		err = errors.Wrap(err, "failed to create temp pack file")
		return err
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpName)
		err = errors.Wrapf(err, "failed to write pack file: %s", tmpName)
		return err
	}

	err = os.Rename(tmpName, path)
	if err != nil {
		_ = os.Remove(tmpName)
		err = errors.Wrapf(err, "failed to move pack file into place: %s", path)
		return err
	}

	return err
}

// Load reads a pack by id.
func (s *FileStore) Load(ctx context.Context, id string) (p ApplicationPack, err error) {
	err = ctx.Err()
	if err != nil {
		return p, err
	}

	var path string
	path, err = s.path(id)
	if err != nil {
		return p, err
	}

	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			err = errors.Wrapf(ErrNotFound, "pack %s", id)
			return p, err
		}
		err = errors.Wrapf(err, "failed to read pack file: %s", path)
		return p, err
	}

	err = json.Unmarshal(data, &p)
	if err != nil {
		err = errors.Wrapf(err, "failed to parse pack file: %s", path)
		return p, err
	}

	return p, err
}

func (s *FileStore) path(id string) (path string, err error) {
	if !packIDPattern.MatchString(id) {
		err = errors.Wrapf(ErrNotFound, "invalid pack id %q", id)
		return path, err
	}
	path = filepath.Join(s.dir, id+".json")
	return path, err
}
