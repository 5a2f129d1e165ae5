// Package online reads DAQ output files: triggered events,
// summaryslices and timeslices, together with the decoders for the
// packed status words the DAQ stores to save space.
package online

import (
	"math"

	"golang.org/x/exp/constraints"
)

// PMT rates in summary frames are stored as a single byte. The codes
// 0-255 map exponentially onto [MinimalRateHz, MaximalRateHz], code 0
// meaning no rate at all.
const (
	MinimalRateHz = 2.0e3
	MaximalRateHz = 2.0e6

	// ChannelCount is the number of PMT channels per optical module.
	ChannelCount = 31
)

var rateFactor = math.Log(MaximalRateHz/MinimalRateHz) / 255

// Rate decodes a stored rate byte into Hz. Code 0 decodes to exactly 0.
func Rate[T constraints.Integer](value T) float64 {
	if value == 0 {
		return 0
	}
	return MinimalRateHz * math.Exp(float64(value)*rateFactor)
}

// Rates decodes a batch of rate codes.
func Rates[T constraints.Integer](values []T) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = Rate(v)
	}
	return out
}

// UnpackBits expands the low 31 bits of value into booleans, bit i
// landing at position 30-i. This is the raw DAQ bit order, see
// ChannelFlags for the channel-ordered view.
func UnpackBits[T constraints.Integer](value T) [ChannelCount]bool {
	var out [ChannelCount]bool
	for i := 0; i < ChannelCount; i++ {
		out[ChannelCount-1-i] = uint64(value)&(1<<uint(i)) != 0
	}
	return out
}

// UnpackBitsBatch expands each value as UnpackBits does.
func UnpackBitsBatch[T constraints.Integer](values []T) [][ChannelCount]bool {
	out := make([][ChannelCount]bool, len(values))
	for i, v := range values {
		out[i] = UnpackBits(v)
	}
	return out
}

// ChannelFlags decodes a packed hrv or fifo word into per-channel
// flags, position c holding the flag of PMT channel c. The top bit of
// the word is not a channel flag and is discarded.
func ChannelFlags[T constraints.Integer](value T) [ChannelCount]bool {
	bits := UnpackBits(uint32(value) & 0x7FFFFFFF)
	var out [ChannelCount]bool
	for i := range bits {
		out[ChannelCount-1-i] = bits[i]
	}
	return out
}

// ChannelFlagsBatch decodes each word as ChannelFlags does.
func ChannelFlagsBatch[T constraints.Integer](values []T) [][ChannelCount]bool {
	out := make([][ChannelCount]bool, len(values))
	for i, v := range values {
		out[i] = ChannelFlags(v)
	}
	return out
}

// NumberUDPPackets extracts the received UDP packet count from a
// dq_status word. The word is a u32 on the wire whatever integer type
// carries it here.
func NumberUDPPackets[T constraints.Integer](value T) uint32 {
	return uint32(value) & 0x7FFF
}

// UDPMaxSequenceNumber extracts the maximum UDP sequence number from a
// dq_status word.
func UDPMaxSequenceNumber[T constraints.Integer](value T) uint32 {
	return uint32(value) >> 16
}

// HasUDPTrailer reports whether the fifo word has the UDP trailer flag
// set.
func HasUDPTrailer[T constraints.Integer](value T) bool {
	return uint64(value)&(1<<31) != 0
}

// HasUDPTrailerAny reports whether any word in the batch has the UDP
// trailer flag set.
func HasUDPTrailerAny[T constraints.Integer](values []T) bool {
	for _, v := range values {
		if HasUDPTrailer(v) {
			return true
		}
	}
	return false
}
