package asyncutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestItemError_RoundTrip(t *testing.T) {
	base := errors.New("boom")
	tagged := newItemTaggedError(base, 3)

	idx, ok := ExtractItemIndex(tagged)
	require.True(t, ok)
	require.Equal(t, 3, idx)

	require.ErrorIs(t, tagged, base)
	require.Equal(t, "boom", tagged.Error())
}

func TestItemError_NilErrorYieldsNil(t *testing.T) {
	require.Nil(t, newItemTaggedError(nil, 0))
}

func TestExtractItemIndex_PlainError_NotOK(t *testing.T) {
	_, ok := ExtractItemIndex(errors.New("plain"))
	require.False(t, ok)
}

func TestItemError_FormatVerbs(t *testing.T) {
	tagged := newItemTaggedError(errors.New("boom"), 7)

	require.Equal(t, "boom", fmt.Sprintf("%s", tagged))
	require.Equal(t, `"boom"`, fmt.Sprintf("%q", tagged))
	require.Contains(t, fmt.Sprintf("%+v", tagged), "index=7")
}
