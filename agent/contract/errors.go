package contract

import "errors"

var (
	ErrToolNotFound    = errors.New("tool not found")
	ErrDataAccess      = errors.New("data access failed")
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("record already exists")
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
)

// KindOf maps a wrapped sentinel to the error kind exposed in a QueryResult.
// Unknown errors are reported as data access failures.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrToolNotFound):
		return KindToolNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindDataAccess
	}
}
