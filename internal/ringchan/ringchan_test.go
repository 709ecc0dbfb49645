package ringchan_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hakerfromrussia/miolink/internal/ringchan"
)

func TestSendReceiveInOrder(t *testing.T) {
	rc := ringchan.New[int](4)
	for i := 1; i <= 3; i++ {
		rc.Send(i)
	}

	require.Equal(t, 1, <-rc.C())
	require.Equal(t, 2, <-rc.C())
	require.Equal(t, 3, <-rc.C())
	require.Zero(t, rc.Dropped())
}

func TestOverflowDiscardsOldest(t *testing.T) {
	rc := ringchan.New[int](2)
	for i := 1; i <= 5; i++ {
		rc.Send(i)
	}

	require.Equal(t, 4, <-rc.C(), "oldest values are dropped first")
	require.Equal(t, 5, <-rc.C())
	require.EqualValues(t, 3, rc.Dropped())
}

func TestTrySend(t *testing.T) {
	rc := ringchan.New[string](1)

	require.True(t, rc.TrySend("a"))
	require.False(t, rc.TrySend("b"), "full buffer rejects without blocking")
	require.Equal(t, "a", <-rc.C())
	require.True(t, rc.TrySend("c"))
}

func TestCloseEndsRange(t *testing.T) {
	rc := ringchan.New[int](4)
	rc.Send(1)
	rc.Send(2)
	rc.Close()

	var got []int
	for v := range rc.C() {
		got = append(got, v)
	}
	require.Equal(t, []int{1, 2}, got)
}

func TestZeroCapacityPanics(t *testing.T) {
	require.Panics(t, func() { ringchan.New[int](0) })
}
