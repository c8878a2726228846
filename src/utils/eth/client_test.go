package eth

import (
	"errors"
	"fmt"

	"github.com/stretchr/testify/require"

	"testing"
)

func TestIsResourceExhausted(t *testing.T) {
	require.False(t, IsResourceExhausted(nil))
	require.False(t, IsResourceExhausted(errors.New("connection reset")))

	require.True(t, IsResourceExhausted(ErrResourceExhausted))
	require.True(t, IsResourceExhausted(fmt.Errorf("subscription: %w", ErrResourceExhausted)))
	require.True(t, IsResourceExhausted(errors.New("rpc error: code = ResourceExhausted desc = resource exhausted")))
	require.True(t, IsResourceExhausted(errors.New("429 Too Many Requests")))
}

func TestNormalizeAddress(t *testing.T) {
	require.Equal(t, "0xabcdef", NormalizeAddress("0xABCdef"))
	require.Equal(t, "", NormalizeAddress(""))
}
