package coordinator

import (
	"errors"

	"go.uber.org/zap"
)

// journal records the inverse of each applied store write so a batch that
// fails halfway can be put back.
type journal struct {
	undo []func() error
}

func (j *journal) push(fn func() error) {
	j.undo = append(j.undo, fn)
}

func (j *journal) rollback(log *zap.Logger) error {
	var failed []error
	for i := len(j.undo) - 1; i >= 0; i-- {
		if err := j.undo[i](); err != nil {
			failed = append(failed, err)
		}
	}
	j.undo = nil
	err := errors.Join(failed...)
	if err != nil {
		log.Error("rollback incomplete", zap.Error(err))
	}
	return err
}
