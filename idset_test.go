package fastquadtree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDFilterNeverFalseNegative(t *testing.T) {
	f := newIDFilter()
	require.False(t, f.maybeIssued(1))

	f.add(1)
	require.True(t, f.maybeIssued(1))
	require.False(t, f.maybeIssued(2))

	// Ids sharing the same low 32 bits as an issued id may report a false
	// positive, never a false negative for an id that actually was added.
	f.add(1 << 40)
	require.True(t, f.maybeIssued(1<<40))
	require.True(t, f.maybeIssued(1), "still true: bits are never cleared")
}
