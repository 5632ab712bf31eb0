package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Capture and playback run on independent clocks: the widget microphone
// captures at 16kHz while the model synthesizes at 24kHz.
const (
	CaptureSampleRate  = 16000
	PlaybackSampleRate = 24000
)

// DecodeBase64PCM decodes a base64 frame into raw PCM16LE bytes and validates
// sample alignment.
func DecodeBase64PCM(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode pcm frame: %w", err)
	}
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("pcm frame has odd length %d", len(raw))
	}
	return raw, nil
}

// EncodeBase64PCM encodes raw PCM16LE bytes for the wire.
func EncodeBase64PCM(pcm []byte) string {
	return base64.StdEncoding.EncodeToString(pcm)
}

// Duration reports the playback duration of a PCM16LE mono buffer.
func Duration(pcm []byte, sampleRate int) time.Duration {
	if sampleRate <= 0 || len(pcm) < 2 {
		return 0
	}
	samples := len(pcm) / 2
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

// Float32ToPCM16 converts normalized float samples to PCM16LE, clamping to
// the signed 16-bit range.
func Float32ToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(math.Round(float64(s) * 32767))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}
