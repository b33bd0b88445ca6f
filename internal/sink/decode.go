package sink

import (
	"encoding/binary"
	"errors"
	"io"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/go-mp3"
)

// streamDecoder wraps llehouerou/go-mp3 as a beep.Streamer for a
// non-seekable network stream. Unlike file playback there is no known
// length and no seeking; the decoder reads until the connection drops.
type streamDecoder struct {
	pcm     io.Reader // 16-bit little-endian stereo
	closer  io.Closer
	readBuf []byte

	mu  sync.Mutex
	err error
}

// decodeMP3Stream decodes an MP3 byte stream into beep samples.
func decodeMP3Stream(rc io.ReadCloser) (*streamDecoder, beep.Format, error) {
	decoder, err := mp3.NewDecoder(rc)
	if err != nil {
		return nil, beep.Format{}, err
	}

	sampleRate := decoder.SampleRate()
	if sampleRate == 0 {
		return nil, beep.Format{}, errors.New("mp3: invalid sample rate")
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: 2, // go-mp3 always outputs stereo
		Precision:   2, // 16-bit
	}

	d := &streamDecoder{
		pcm:     decoder,
		closer:  rc,
		readBuf: make([]byte, 8192),
	}

	return d, format, nil
}

// Stream reads audio samples into the provided buffer.
func (d *streamDecoder) Stream(samples [][2]float64) (n int, ok bool) {
	if d.Err() != nil {
		return 0, false
	}

	// 4 bytes per sample (stereo 16-bit)
	bytesNeeded := len(samples) * 4
	if len(d.readBuf) < bytesNeeded {
		d.readBuf = make([]byte, bytesNeeded)
	}

	bytesRead, err := io.ReadFull(d.pcm, d.readBuf[:bytesNeeded])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		d.setErr(err)
		return 0, false
	}

	samplesRead := bytesRead / 4
	if samplesRead == 0 {
		return 0, false
	}

	for i := 0; i < samplesRead && i < len(samples); i++ {
		offset := i * 4
		if offset+4 <= bytesRead {
			left := int16(binary.LittleEndian.Uint16(d.readBuf[offset:]))
			right := int16(binary.LittleEndian.Uint16(d.readBuf[offset+2:]))
			samples[i][0] = float64(left) / 32768.0
			samples[i][1] = float64(right) / 32768.0
		}
		n++
	}

	return n, true
}

// Err returns any error that occurred during streaming.
func (d *streamDecoder) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *streamDecoder) setErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err == nil {
		d.err = err
	}
}

// Close releases the underlying connection.
func (d *streamDecoder) Close() error {
	return d.closer.Close()
}
