package domain

import "errors"

var (
	// ErrEmptySelection indicates a submission was attempted with no codes selected.
	ErrEmptySelection = errors.New("no obligations selected")

	// ErrNoInstancesSelected indicates a save was attempted with no instance
	// effectively done. No request is sent in that case.
	ErrNoInstancesSelected = errors.New("no instances marked done")

	// ErrSubmissionFailed wraps a rejected or failed assignment request.
	ErrSubmissionFailed = errors.New("assignment submission failed")

	// ErrSaveFailed wraps a rejected or failed batch "mark done" request.
	ErrSaveFailed = errors.New("saving instances failed")

	// ErrFetchFailed wraps a failed catalogue or assignment fetch.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrNotPrepared indicates Confirm was called without a matching Prepare,
	// with a ticket that was already used, or after the selection changed.
	ErrNotPrepared = errors.New("submission not prepared")

	// ErrStaleResponse indicates a response arrived for a superseded request
	// and was discarded.
	ErrStaleResponse = errors.New("stale response discarded")

	// ErrMissingUser indicates the session has no target user.
	ErrMissingUser = errors.New("target user is required")

	// ErrAssignmentNotFound indicates the requested assignment is not among
	// the user's assignments.
	ErrAssignmentNotFound = errors.New("assignment not found")
)
