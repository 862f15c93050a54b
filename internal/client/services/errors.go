package services

import "errors"

var (
	// ErrFetchKeysFailed means the disclosure feed could not be retrieved.
	// Fatal to the whole check run: there is no partial result.
	ErrFetchKeysFailed = errors.New("failed to fetch disclosure keys")

	// ErrNoReportsFetched means keys matched but every report fetch failed.
	// Distinguishable from the zero-matches case, which is a success.
	ErrNoReportsFetched = errors.New("no reports could be fetched")

	// ErrNoOwnKeys means a report was submitted with an empty own-key
	// history; nothing was sent to the network.
	ErrNoOwnKeys = errors.New("no own keys recorded")

	// ErrSubmissionFailed wraps network failures during report submission.
	ErrSubmissionFailed = errors.New("report submission failed")
)
