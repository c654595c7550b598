package domain

import "strings"

// Channel is an adapter-private subscription string. It is opaque to the
// planner except for the pass-through rule: anything starting with '{' or
// '[' is a caller-supplied raw wire command and is never reshaped.
type Channel string

// IsPassThrough reports whether this channel is raw JSON that bypasses the
// adapter's subscribe-command builder entirely.
func (c Channel) IsPassThrough() bool {
	s := strings.TrimSpace(string(c))
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}

// ChannelPairDelimiter separates the channel name from the pair in the
// "channel<SEP>pair" convention most adapters use for their private channel
// strings (e.g. "symbol:BTC_USDT").
const ChannelPairDelimiter = ":"

// SplitChannelPair splits a non-pass-through channel into its channel name
// and pair. Callers must check IsPassThrough first.
func SplitChannelPair(c Channel) (channel, pair string, ok bool) {
	parts := strings.SplitN(string(c), ChannelPairDelimiter, 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}
