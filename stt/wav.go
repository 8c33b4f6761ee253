package stt

import (
	"bytes"
	"fmt"
)

// EncodeWAV converts float32 PCM samples to a 16-bit mono WAV file.
func EncodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	dataSize := len(samples) * 2 // 16-bit = 2 bytes per sample
	buf := bytes.NewBuffer(make([]byte, 0, 44+dataSize))

	// RIFF header
	buf.WriteString("RIFF")
	writeUint32LE(buf, uint32(36+dataSize)) // File size - 8
	buf.WriteString("WAVE")

	// fmt chunk
	buf.WriteString("fmt ")
	writeUint32LE(buf, 16)                   // Chunk size
	writeUint16LE(buf, 1)                    // Audio format (PCM)
	writeUint16LE(buf, 1)                    // Num channels (mono)
	writeUint32LE(buf, uint32(sampleRate))   // Sample rate
	writeUint32LE(buf, uint32(sampleRate*2)) // Byte rate
	writeUint16LE(buf, 2)                    // Block align
	writeUint16LE(buf, 16)                   // Bits per sample

	// data chunk
	buf.WriteString("data")
	writeUint32LE(buf, uint32(dataSize))

	for _, s := range samples {
		s = min(max(s, -1), 1)
		writeUint16LE(buf, uint16(int16(s*32767)))
	}

	return buf.Bytes(), nil
}

func writeUint16LE(w *bytes.Buffer, v uint16) {
	w.WriteByte(byte(v))
	w.WriteByte(byte(v >> 8))
}

func writeUint32LE(w *bytes.Buffer, v uint32) {
	w.WriteByte(byte(v))
	w.WriteByte(byte(v >> 8))
	w.WriteByte(byte(v >> 16))
	w.WriteByte(byte(v >> 24))
}
