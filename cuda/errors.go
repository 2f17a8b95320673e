package cuda

import (
	"fmt"
)

// ErrLoad means the CUDA driver library could not be loaded, or one of its
// required entry points is missing.
type ErrLoad struct {
	Err error
}

func (e ErrLoad) Error() string {
	return fmt.Sprintf("unable to load the CUDA driver: %v", e.Err)
}

func (e ErrLoad) Unwrap() error {
	return e.Err
}

// ErrContext means a context operation (create/push/pop/synchronize) failed,
// usually because the CUDA and graphics contexts are mismatched or the
// context is gone.
type ErrContext struct {
	Op     string
	Result Result
	Detail string
}

func (e ErrContext) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("CUDA context operation '%s' failed: %s", e.Op, e.Result)
	}
	return fmt.Sprintf("CUDA context operation '%s' failed: %s (%s)", e.Op, e.Result, e.Detail)
}
