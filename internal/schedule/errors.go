package schedule

import (
	"errors"
	"fmt"
	"time"
)

var ErrTaskPanicked = errors.New("schedule: task panicked")

// TaskError is returned by Scheduler.Update when an action panics.
// The failed task is dropped; every other pending task is left in place.
type TaskError struct {
	Group Group
	ID    TaskID
	Due   time.Duration
	Value any
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("schedule: task (group=%d id=%d due=%v) panicked: %v", e.Group, e.ID, e.Due, e.Value)
}

func (e *TaskError) Unwrap() []error {
	if err, ok := e.Value.(error); ok {
		return []error{ErrTaskPanicked, err}
	}
	return []error{ErrTaskPanicked}
}
