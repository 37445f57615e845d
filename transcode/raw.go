package transcode

import (
	"encoding/binary"
	"strings"

	"github.com/RyanBlaney/sonido-static/algorithms/common"
)

// ByteOrder of headerless 16-bit PCM
type ByteOrder string

const (
	LittleEndian ByteOrder = "little"
	BigEndian    ByteOrder = "big"
)

// ParseByteOrder resolves "little"/"le" or "big"/"be"
func ParseByteOrder(name string) (ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "little", "le", "":
		return LittleEndian, nil
	case "big", "be":
		return BigEndian, nil
	default:
		return "", common.InvalidParameter("transcode.ParseByteOrder", name, "one of little, big")
	}
}

func (o ByteOrder) binary() binary.ByteOrder {
	if o == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// DecodeRaw converts headerless signed 16-bit PCM into samples
func DecodeRaw(data []byte, order ByteOrder) ([]int16, error) {
	if len(data)%2 != 0 {
		return nil, common.Data("transcode.DecodeRaw", len(data), "byte count divisible by 2")
	}

	bo := order.binary()
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(bo.Uint16(data[2*i:]))
	}

	return samples, nil
}

// EncodeRaw is the inverse of DecodeRaw
func EncodeRaw(samples []int16, order ByteOrder) []byte {
	bo := order.binary()
	data := make([]byte, 2*len(samples))
	for i, s := range samples {
		bo.PutUint16(data[2*i:], uint16(s))
	}
	return data
}
