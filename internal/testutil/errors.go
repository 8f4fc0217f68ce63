// Package testutil provides shared fixtures and mock errors for docsign tests.
//
// It should only be imported by test files (*_test.go).
package testutil

import (
	"errors"
	"time"
)

// Mock errors simulating infrastructure failures underneath the stores.
var (
	// ErrMockDiskFailure simulates a local read or write failure.
	ErrMockDiskFailure = errors.New("disk failure")

	// ErrMockNetwork simulates a dropped connection or remote timeout.
	ErrMockNetwork = errors.New("network error")

	// ErrMockBackend simulates an unclassified storage backend failure.
	ErrMockBackend = errors.New("backend failure")
)

// InvoiceContent is the document body used by end-to-end signing tests.
func InvoiceContent() []byte {
	return []byte("%PDF-1.7\nInvoice #2024-0042\nAmount due: 1,250.00 EUR\n%%EOF\n")
}

// SignedAt is a fixed signing timestamp with sub-second precision, so
// metadata round trips exercise nanosecond encoding.
func SignedAt() time.Time {
	return time.Date(2024, time.March, 14, 9, 26, 53, 589793238, time.UTC)
}
