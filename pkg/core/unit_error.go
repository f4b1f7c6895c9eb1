package core

import (
	"fmt"

	"github.com/oneconcern/gxyarchiver/pkg/core/status"
	"github.com/oneconcern/gxyarchiver/pkg/errors"
	"github.com/oneconcern/gxyarchiver/pkg/model"
	"go.uber.org/multierr"
)

// UnitError reports a failure affecting a single unit
type UnitError struct {
	UnitID string
	Err    error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("unit %s: %v", e.UnitID, e.Err)
}

// Unwrap the cause
func (e *UnitError) Unwrap() error {
	return e.Err
}

func unitError(id string, err error) *UnitError {
	return &UnitError{UnitID: id, Err: err}
}

// KindOf classifies an error as reported in cycle summaries
func KindOf(err error) model.IssueKind {
	if errors.Is(err, status.ErrIntegrity) {
		return model.IssueIntegrity
	}
	return model.IssueIO
}

// issuesFromError splits a (possibly combined) error into summary issues
func issuesFromError(bundleID string, err error) []model.Issue {
	if err == nil {
		return nil
	}
	errs := multierr.Errors(err)
	issues := make([]model.Issue, 0, len(errs))
	for _, e := range errs {
		issue := model.Issue{
			Kind:     KindOf(e),
			BundleID: bundleID,
			Reason:   e.Error(),
		}
		var ue *UnitError
		if errors.As(e, &ue) {
			issue.UnitID = ue.UnitID
			issue.Reason = ue.Err.Error()
		}
		issues = append(issues, issue)
	}
	return issues
}
