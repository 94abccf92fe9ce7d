// Package wav wraps raw PCM audio in a standard RIFF/WAVE container and
// reads it back. The synthesis provider returns bare 16-bit PCM; players
// and data URIs want a proper container.
package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Format describes the PCM layout of a WAV payload.
type Format struct {
	Channels   int
	SampleRate int
	BitDepth   int // bits per sample
}

// DefaultFormat is the synthesis output format: mono, 24kHz, 16-bit.
var DefaultFormat = Format{Channels: 1, SampleRate: 24000, BitDepth: 16}

// Encode wraps raw little-endian PCM data in a WAV container.
func Encode(pcm []byte, f Format) ([]byte, error) {
	if f.Channels <= 0 || f.SampleRate <= 0 || f.BitDepth <= 0 {
		return nil, fmt.Errorf("wav: invalid format %+v", f)
	}

	blockAlign := f.Channels * f.BitDepth / 8
	byteRate := f.SampleRate * blockAlign

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16)) // PCM fmt chunk size
	binary.Write(&buf, binary.LittleEndian, uint16(1))  // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(f.Channels))
	binary.Write(&buf, binary.LittleEndian, uint32(f.SampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(f.BitDepth))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes(), nil
}

// Decode parses a WAV container and returns its PCM payload and format.
// Only uncompressed PCM is supported.
func Decode(data []byte) ([]byte, Format, error) {
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, Format{}, fmt.Errorf("wav: not a RIFF/WAVE file")
	}

	var f Format
	var pcm []byte
	sawFmt := false

	// Walk chunks; fmt and data can appear in any order and other chunks
	// (LIST, fact) may be interleaved.
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, Format{}, fmt.Errorf("wav: short fmt chunk")
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			if audioFormat != 1 {
				return nil, Format{}, fmt.Errorf("wav: unsupported audio format %d (want PCM)", audioFormat)
			}
			f.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			f.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			f.BitDepth = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			sawFmt = true
		case "data":
			pcm = data[body : body+size]
		}

		// Chunks are word-aligned.
		if size%2 == 1 {
			size++
		}
		off = body + size
	}

	if !sawFmt || pcm == nil {
		return nil, Format{}, fmt.Errorf("wav: missing fmt or data chunk")
	}
	return pcm, f, nil
}

// Samples converts 16-bit little-endian PCM to float32 in [-1, 1).
func Samples(pcm []byte) []float32 {
	n := len(pcm) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		out[i] = float32(s) / 32768.0
	}
	return out
}
