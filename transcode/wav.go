package transcode

import (
	"fmt"
	"io"

	"github.com/RyanBlaney/sonido-static/algorithms/common"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

type wavData struct {
	samples    []int16
	sampleRate int
	channels   int
}

// decodeWAV reads a 16-bit PCM WAV stream. Multi-channel files are reduced
// to their first channel.
func decodeWAV(r io.ReadSeeker) (*wavData, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, common.Data("transcode.decodeWAV", "invalid header", "a valid WAV file")
	}

	if decoder.WavAudioFormat != wavFormatPCM {
		return nil, common.Data("transcode.decodeWAV", decoder.WavAudioFormat, "PCM format (1)")
	}
	if decoder.BitDepth != 16 {
		return nil, common.Data("transcode.decodeWAV", decoder.BitDepth, "16-bit samples")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, common.WrapData("transcode.decodeWAV", fmt.Errorf("could not read PCM buffer: %w", err))
	}

	channels := int(decoder.NumChans)
	if channels < 1 {
		return nil, common.Data("transcode.decodeWAV", channels, "at least one channel")
	}

	samples := make([]int16, len(buf.Data)/channels)
	for i := range samples {
		samples[i] = int16(buf.Data[i*channels])
	}

	return &wavData{
		samples:    samples,
		sampleRate: int(decoder.SampleRate),
		channels:   channels,
	}, nil
}

// EncodeWAV writes samples as a mono 16-bit PCM WAV stream
func EncodeWAV(w io.WriteSeeker, samples []int16, sampleRate int) error {
	encoder := wav.NewEncoder(w, sampleRate, 16, 1, wavFormatPCM)

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("wav write failed: %w", err)
	}

	return encoder.Close()
}
