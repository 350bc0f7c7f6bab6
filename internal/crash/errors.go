package crash

import "errors"

var (
	ErrReport         = errors.New("crash report failed")
	ErrNoReportTarget = errors.New("no writable crash report location")
)
