// Package audio provides microphone frame capture for the voice pipeline.
//
// All capture runs at a fixed sample rate with fixed-size frames. Samples are
// mono PCM normalized to float32 in [-1, 1]; wire formats use 16-bit signed
// little-endian.
package audio

import (
	"context"
	"math"
	"time"
)

// Config describes the capture format.
type Config struct {
	// SampleRate in Hz.
	SampleRate int

	// Channels is the input channel count. The pipeline is mono.
	Channels int

	// FrameSize is the number of samples per frame.
	FrameSize int
}

// DefaultConfig returns the pipeline capture format: 16 kHz mono with 80 ms
// frames (1280 samples), the chunk size the wake-word models expect.
func DefaultConfig() Config {
	return Config{
		SampleRate: 16000,
		Channels:   1,
		FrameSize:  1280,
	}
}

// FrameDuration returns the wall-clock duration of one frame.
func (c Config) FrameDuration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.FrameSize) * time.Second / time.Duration(c.SampleRate)
}

// BytesPerFrame returns the frame size in 16-bit PCM bytes.
func (c Config) BytesPerFrame() int {
	return c.FrameSize * 2
}

// Frame is one fixed-size block of captured samples. Frames are immutable
// once produced; the sequence number is monotonic per source.
type Frame struct {
	Samples []float32
	Seq     uint64
}

// Source produces frames from an input device.
//
// Next blocks until a full frame is available. A stream_fault error is
// recoverable (skip and read again); a device_unavailable error is fatal.
// Close releases the device and is safe to call on every exit path.
type Source interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// RMSEnergy computes the root-mean-square energy of a sample block.
// Returns a value between 0.0 and 1.0.
func RMSEnergy(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// DecodePCM16 converts 16-bit signed little-endian PCM into normalized
// float32 samples.
func DecodePCM16(pcm []byte) []float32 {
	samples := make([]float32, 0, len(pcm)/2)
	for i := 0; i+1 < len(pcm); i += 2 {
		v := int16(pcm[i]) | int16(pcm[i+1])<<8
		samples = append(samples, float32(v)/32768.0)
	}
	return samples
}

// EncodePCM16 converts normalized float32 samples into 16-bit signed
// little-endian PCM, clamping out-of-range values.
func EncodePCM16(samples []float32) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int32(s * 32768.0)
		if v > math.MaxInt16 {
			v = math.MaxInt16
		} else if v < math.MinInt16 {
			v = math.MinInt16
		}
		pcm[i*2] = byte(uint16(v))
		pcm[i*2+1] = byte(uint16(v) >> 8)
	}
	return pcm
}
