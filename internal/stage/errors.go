package stage

import "fmt"

// NotFoundError reports that a target did not resolve to any known stage.
type NotFoundError struct {
	Target string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unable to find a stage for target '%s'", e.Target)
}
