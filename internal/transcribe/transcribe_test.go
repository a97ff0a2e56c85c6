package transcribe

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/dkhromov/voicegate/internal/errs"
	"github.com/dkhromov/voicegate/internal/model"
)

type slowTranscriber struct {
	delay time.Duration
	text  string
}

func (s *slowTranscriber) Transcribe(ctx context.Context, _ model.Audio) (string, error) {
	select {
	case <-time.After(s.delay):
		return s.text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestWithTimeout(t *testing.T) {
	t.Parallel()

	fast := WithTimeout(&slowTranscriber{delay: time.Millisecond, text: "hello"}, time.Second)
	text, err := fast.Transcribe(context.Background(), model.Audio{})
	if err != nil || text != "hello" {
		t.Fatalf("fast transcribe: %q, %v", text, err)
	}

	slow := WithTimeout(&slowTranscriber{delay: time.Second}, 5*time.Millisecond)
	_, err = slow.Transcribe(context.Background(), model.Audio{})
	if !errors.Is(err, errs.ErrTranscriptionTimeout) {
		t.Fatalf("err = %v, want ErrTranscriptionTimeout", err)
	}
}

func TestEncodeWAV(t *testing.T) {
	t.Parallel()

	audio := model.Audio{Samples: []float32{0, 0.5, -0.5, 2, -2}, SampleRate: 16000}
	wav := encodeWAV(audio)

	if len(wav) != 44+len(audio.Samples)*2 {
		t.Fatalf("len = %d, want %d", len(wav), 44+len(audio.Samples)*2)
	}
	if string(wav[:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE magic")
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != 16000 {
		t.Errorf("sample rate = %d", rate)
	}

	// Samples beyond [-1, 1] are clamped.
	last := int16(binary.LittleEndian.Uint16(wav[len(wav)-2:]))
	if last != -32767 {
		t.Errorf("clamped sample = %d, want -32767", last)
	}
	fourth := int16(binary.LittleEndian.Uint16(wav[len(wav)-4 : len(wav)-2]))
	if fourth != 32767 {
		t.Errorf("clamped sample = %d, want 32767", fourth)
	}
}
