package adam

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	candidate := Discovered{Host: "192.168.1.40", MAC: "AA:BB:CC:DD:EE:FF"}

	t.Run("accepts a genuine controller", func(t *testing.T) {
		mock := NewMockClient()

		info, err := Verify(context.Background(), mock, candidate)
		require.NoError(t, err)
		assert.Equal(t, "Adam", info.Model)
	})

	t.Run("rejects a foreign device", func(t *testing.T) {
		mock := NewMockClient()
		mock.Info.Model = "Eve"

		_, err := Verify(context.Background(), mock, candidate)
		assert.ErrorIs(t, err, ErrNotAdam)
	})

	t.Run("rejects wrong manufacturer", func(t *testing.T) {
		mock := NewMockClient()
		mock.Info.Manufacturer = "ACME"

		_, err := Verify(context.Background(), mock, candidate)
		assert.ErrorIs(t, err, ErrNotAdam)
	})

	t.Run("rejects advertisement without mac", func(t *testing.T) {
		mock := NewMockClient()

		_, err := Verify(context.Background(), mock, Discovered{Host: "192.168.1.40"})
		assert.ErrorIs(t, err, ErrNoMAC)
	})

	t.Run("propagates unreachable host", func(t *testing.T) {
		mock := NewMockClient()
		mock.FailWith("info", errors.New("connect: no route to host"))

		_, err := Verify(context.Background(), mock, candidate)
		assert.Error(t, err)
	})
}
