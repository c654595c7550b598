package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fd1az/market-crawler/business/marketdata/domain"
)

func channels(n int) []domain.Channel {
	out := make([]domain.Channel, n)
	for i := range out {
		out[i] = domain.Channel("ch")
	}
	return out
}

func TestPlanPartitionsRespectCap(t *testing.T) {
	cases := []struct {
		n, cap, wantBatches int
	}{
		{10, 3, 4},
		{9, 3, 3},
		{1, 3, 1},
		{0, 3, 0},
	}
	for _, tc := range cases {
		batches := Plan(channels(tc.n), tc.cap)
		require.Len(t, batches, tc.wantBatches, "n=%d cap=%d", tc.n, tc.cap)

		total := 0
		for _, b := range batches {
			require.LessOrEqual(t, len(b), tc.cap)
			total += len(b)
		}
		require.Equal(t, tc.n, total)
	}
}

func TestPlanNoLimitIsSingleBatch(t *testing.T) {
	batches := Plan(channels(7), 0)
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 7)
}
