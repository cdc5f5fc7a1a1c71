package core

import (
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so the façade and pipeline are
// deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// CorrelationIDGenerator produces short ids used to tie together the log
// lines of a single façade session (one CLI invocation or one mount).
type CorrelationIDGenerator interface {
	New() string
}

// UUIDCorrelationIDs generates correlation ids from random UUIDs.
type UUIDCorrelationIDs struct{}

func (UUIDCorrelationIDs) New() string { return uuid.New().String()[:8] }
