package audio

import (
	"bytes"
	"encoding/binary"
)

// encodeWAV wraps mono 16-bit PCM samples in a RIFF/WAVE container.
func encodeWAV(samples []int16, sampleRate int) []byte {
	var buf bytes.Buffer

	dataSize := len(samples) * 2
	buf.Grow(44 + dataSize)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	binary.Write(&buf, binary.LittleEndian, samples)

	return buf.Bytes()
}

// utterance accumulates microphone frames until the speaker pauses.
type utterance struct {
	samples     []int16
	threshold   int16
	maxSilence  int
	maxSamples  int
	minSamples  int
	silentRun   int
	heardSpeech bool
}

func newUtterance(sampleRate int, threshold int16, maxSeconds int) *utterance {
	return &utterance{
		samples:    make([]int16, 0, sampleRate*maxSeconds),
		threshold:  threshold,
		maxSilence: sampleRate,
		maxSamples: sampleRate * maxSeconds,
		minSamples: sampleRate / 2,
	}
}

// add appends a frame and reports whether the utterance is complete.
// Leading silence is discarded so the clip starts with speech.
func (u *utterance) add(frame []int16) bool {
	silent := true
	for _, s := range frame {
		if s > u.threshold || s < -u.threshold {
			silent = false
			break
		}
	}

	if !u.heardSpeech {
		if silent {
			return false
		}
		u.heardSpeech = true
	}

	u.samples = append(u.samples, frame...)

	if silent {
		u.silentRun += len(frame)
	} else {
		u.silentRun = 0
	}

	if u.silentRun >= u.maxSilence && len(u.samples) >= u.minSamples {
		return true
	}
	return len(u.samples) >= u.maxSamples
}
