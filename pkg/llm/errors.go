package llm

import (
	"github.com/pkg/errors"
)

// ErrGenerationFailed matches any provider failure returned by a TextGenerator.
var ErrGenerationFailed = errors.New("generation failed")

// GenerationError carries the underlying provider failure.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() (msg string) {
	msg = ErrGenerationFailed.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() (err error) {
	err = e.Err
	return err
}

// Is reports whether target is ErrGenerationFailed.
func (e *GenerationError) Is(target error) (ok bool) {
	ok = target == ErrGenerationFailed
	return ok
}
