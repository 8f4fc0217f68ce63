package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockErrorsAreDistinct(t *testing.T) {
	all := []error{ErrMockDiskFailure, ErrMockNetwork, ErrMockBackend}
	for i, a := range all {
		for j, b := range all {
			assert.Equal(t, i == j, errors.Is(a, b))
		}
	}
}

func TestFixtures(t *testing.T) {
	content := InvoiceContent()
	require.NotEmpty(t, content)
	content[0] = 'X'
	assert.NotEqual(t, content, InvoiceContent(), "each call returns a fresh copy")

	assert.NotZero(t, SignedAt().Nanosecond())
	assert.Equal(t, "UTC", SignedAt().Location().String())
}
