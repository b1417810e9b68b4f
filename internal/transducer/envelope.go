package transducer

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

const checksumSize = 4

func seal(body []byte) []byte {
	out := make([]byte, 0, binary.MaxVarintLen64+len(body)+checksumSize)
	out = binary.AppendUvarint(out, uint64(len(body)))
	out = append(out, body...)
	return binary.BigEndian.AppendUint32(out, crc32.Checksum(body, castagnoli))
}

func open(unit []byte) ([]byte, error) {
	size, n := binary.Uvarint(unit)
	if n <= 0 {
		return nil, fmt.Errorf("%w: unreadable length prefix", ErrCorruptPayload)
	}
	if size == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrCorruptPayload)
	}
	rest := unit[n:]
	if size > uint64(len(rest)) || uint64(len(rest))-size < checksumSize {
		return nil, fmt.Errorf("%w: declared body of %d bytes exceeds unit", ErrCorruptPayload, size)
	}
	body := rest[:size]
	sum := binary.BigEndian.Uint32(rest[size : size+checksumSize])
	if crc32.Checksum(body, castagnoli) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptPayload)
	}
	return body, nil
}

func samplesToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func bytesToSamples(buf []byte) ([]int16, error) {
	if len(buf)%2 != 0 {
		return nil, fmt.Errorf("%w: odd PCM byte count %d", ErrCorruptPayload, len(buf))
	}
	out := make([]int16, len(buf)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
	}
	return out, nil
}
