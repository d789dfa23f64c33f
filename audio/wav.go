package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

// Capture format at the audio boundary: mono 16-bit PCM at 16 kHz
const (
	SampleRate    = 16000
	NumChannels   = 1
	BitsPerSample = 16
)

const wavHeaderSize = 44

// PCMData is the decoded payload of a WAV file
type PCMData struct {
	SampleRate    uint32
	Channels      uint16
	BitsPerSample uint16
	Data          []byte
}

// Duration returns the play time of the payload
func (p *PCMData) Duration() time.Duration {
	bytesPerSecond := int(p.SampleRate) * int(p.Channels) * int(p.BitsPerSample) / 8
	if bytesPerSecond == 0 {
		return 0
	}
	return time.Duration(len(p.Data)) * time.Second / time.Duration(bytesPerSecond)
}

func writeWAVHeader(w io.Writer, dataLen int, sampleRate uint32, channels, bits uint16) error {
	byteRate := sampleRate * uint32(channels) * uint32(bits) / 8
	blockAlign := channels * bits / 8

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(wavHeaderSize-8+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, channels)
	binary.Write(&buf, binary.LittleEndian, sampleRate)
	binary.Write(&buf, binary.LittleEndian, byteRate)
	binary.Write(&buf, binary.LittleEndian, blockAlign)
	binary.Write(&buf, binary.LittleEndian, bits)
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))

	_, err := w.Write(buf.Bytes())
	return err
}

// WriteSilenceWAV writes a silent capture-format WAV of the given duration.
// It backs the recorder when no capture utility is available.
func WriteSilenceWAV(path string, duration time.Duration) error {
	frames := int(duration.Seconds() * SampleRate)
	dataLen := frames * NumChannels * BitsPerSample / 8

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := writeWAVHeader(f, dataLen, SampleRate, NumChannels, BitsPerSample); err != nil {
		return err
	}
	_, err = f.Write(make([]byte, dataLen))
	return err
}

// EncodeTone renders a decaying sine tone as capture-format WAV bytes
func EncodeTone(freq float64, duration time.Duration) []byte {
	frames := int(duration.Seconds() * SampleRate)
	data := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		t := float64(i) / SampleRate
		envelope := math.Exp(-t * 3)
		s := int16(math.Sin(2*math.Pi*freq*t) * 16000 * envelope)
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}

	var buf bytes.Buffer
	writeWAVHeader(&buf, len(data), SampleRate, NumChannels, BitsPerSample)
	buf.Write(data)
	return buf.Bytes()
}

// ReadWAV parses a PCM WAV file and returns its format and payload
func ReadWAV(path string) (*PCMData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeWAV(raw)
}

// DecodeWAV parses PCM WAV bytes
func DecodeWAV(raw []byte) (*PCMData, error) {
	if len(raw) < wavHeaderSize || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE file")
	}

	pcm := &PCMData{}
	haveFmt := false
	pos := 12
	for pos+8 <= len(raw) {
		chunkID := string(raw[pos : pos+4])
		chunkLen := int(binary.LittleEndian.Uint32(raw[pos+4 : pos+8]))
		body := pos + 8
		if body+chunkLen > len(raw) {
			chunkLen = len(raw) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkLen < 16 {
				return nil, fmt.Errorf("malformed fmt chunk")
			}
			format := binary.LittleEndian.Uint16(raw[body : body+2])
			if format != 1 {
				return nil, fmt.Errorf("unsupported WAV format %d (want PCM)", format)
			}
			pcm.Channels = binary.LittleEndian.Uint16(raw[body+2 : body+4])
			pcm.SampleRate = binary.LittleEndian.Uint32(raw[body+4 : body+8])
			pcm.BitsPerSample = binary.LittleEndian.Uint16(raw[body+14 : body+16])
			haveFmt = true
		case "data":
			pcm.Data = raw[body : body+chunkLen]
		}

		// chunks are word-aligned
		pos = body + chunkLen + chunkLen%2
	}

	if !haveFmt || pcm.Data == nil {
		return nil, fmt.Errorf("missing fmt or data chunk")
	}
	return pcm, nil
}
