package app

import "github.com/fd1az/market-crawler/business/marketdata/domain"

// Plan partitions a flat channel list into one batch per connection the
// Connection Worker pool will open, respecting the adapter's
// MaxSubsPerConnection. A limit of zero (or negative) means everything rides
// on a single connection.
func Plan(channels []domain.Channel, maxSubsPerConnection int) [][]domain.Channel {
	if len(channels) == 0 {
		return nil
	}
	if maxSubsPerConnection <= 0 {
		return [][]domain.Channel{channels}
	}

	var batches [][]domain.Channel
	for i := 0; i < len(channels); i += maxSubsPerConnection {
		end := i + maxSubsPerConnection
		if end > len(channels) {
			end = len(channels)
		}
		batches = append(batches, channels[i:end])
	}
	return batches
}
