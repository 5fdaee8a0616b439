package logging

import "errors"

var (
	// ErrInvalidOutputType is returned for a target type other than syslog or http
	ErrInvalidOutputType = errors.New("invalid output type")

	// ErrSyslogHostNotConfigured is returned when a syslog target has no host
	ErrSyslogHostNotConfigured = errors.New("syslog host not configured")

	// ErrHTTPURLNotConfigured is returned when an http target has no URL
	ErrHTTPURLNotConfigured = errors.New("HTTP URL not configured")

	// ErrDuplicateTarget is returned when two targets share a name
	ErrDuplicateTarget = errors.New("duplicate log target name")

	// ErrOutputClosed is returned by writes after Close
	ErrOutputClosed = errors.New("log output is closed")
)
