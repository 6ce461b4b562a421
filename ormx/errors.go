package ormx

import (
	"fmt"

	"go.eggybyte.com/eggdata/core/errors"
)

// Backend failure codes.
const (
	// CodeConnectivity marks a connect or authenticate failure.
	CodeConnectivity errors.Code = "CONNECTIVITY"
	// CodeConstruction marks a failure or panic while building a backend.
	CodeConstruction errors.Code = "CONSTRUCTION"
	// CodeSync marks a failure materializing one entity's table.
	CodeSync errors.Code = "SYNC"
	// CodeMalformedResult marks a backend that succeeded with an unusable result.
	CodeMalformedResult errors.Code = "MALFORMED_RESULT"
	// CodeBackendFailed is the code of the aggregate Setup error.
	CodeBackendFailed errors.Code = "BACKEND_FAILED"
)

// BackendError attributes a failure to one backend.
type BackendError struct {
	Backend Kind
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// FailedBackends lists the backends named by BackendErrors in err, in fixed order.
func FailedBackends(err error) []Kind {
	failed := make(map[Kind]bool)
	collectBackendErrors(err, failed)

	var out []Kind
	for _, k := range Kinds {
		if failed[k] {
			out = append(out, k)
		}
	}
	return out
}

func collectBackendErrors(err error, into map[Kind]bool) {
	switch e := err.(type) {
	case nil:
		return
	case *BackendError:
		into[e.Backend] = true
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			collectBackendErrors(inner, into)
		}
	case interface{ Unwrap() error }:
		collectBackendErrors(e.Unwrap(), into)
	}
}
