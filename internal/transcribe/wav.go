package transcribe

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/dkhromov/voicegate/internal/model"
)

// encodeWAV packs the canonical sample buffer into a 16-bit PCM mono RIFF
// container, the format the transcription API expects for uploads.
func encodeWAV(audio model.Audio) []byte {
	dataLen := len(audio.Samples) * 2
	buf := bytes.NewBuffer(make([]byte, 0, 44+dataLen))

	le := binary.LittleEndian
	buf.WriteString("RIFF")
	_ = binary.Write(buf, le, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, le, uint32(16))
	_ = binary.Write(buf, le, uint16(1)) // PCM
	_ = binary.Write(buf, le, uint16(1)) // mono
	_ = binary.Write(buf, le, uint32(audio.SampleRate))
	_ = binary.Write(buf, le, uint32(audio.SampleRate*2)) // byte rate
	_ = binary.Write(buf, le, uint16(2))                  // block align
	_ = binary.Write(buf, le, uint16(16))                 // bits per sample

	buf.WriteString("data")
	_ = binary.Write(buf, le, uint32(dataLen))
	for _, s := range audio.Samples {
		v := s
		if v > 1 {
			v = 1
		}
		if v < -1 {
			v = -1
		}
		_ = binary.Write(buf, le, int16(math.Round(float64(v)*32767)))
	}
	return buf.Bytes()
}
