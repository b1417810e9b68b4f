package video

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/zstd"

	"vidbits/internal/raster"
)

var archiveMagic = [4]byte{'V', 'B', 'F', '1'}

const archiveHeaderSize = 4 + 4 + 4 + 8

type archiveWriter struct {
	file *os.File
	enc  *zstd.Encoder
	info StreamInfo
}

// CreateArchive writes a frame archive at path.
func CreateArchive(path string, info StreamInfo) (FrameWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	enc, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("create archive encoder: %w", err)
	}
	header := make([]byte, 0, archiveHeaderSize)
	header = append(header, archiveMagic[:]...)
	header = binary.BigEndian.AppendUint32(header, uint32(info.Width))
	header = binary.BigEndian.AppendUint32(header, uint32(info.Height))
	header = binary.BigEndian.AppendUint64(header, math.Float64bits(info.FPS))
	if _, err := enc.Write(header); err != nil {
		_ = enc.Close()
		_ = file.Close()
		return nil, fmt.Errorf("write archive header: %w", err)
	}
	info.Frames = -1
	return &archiveWriter{file: file, enc: enc, info: info}, nil
}

func (w *archiveWriter) WriteFrame(frame *raster.Raster) error {
	if err := checkFrame(frame, w.info); err != nil {
		return err
	}
	if _, err := w.enc.Write(frame.Pix); err != nil {
		return fmt.Errorf("write archive frame: %w", err)
	}
	return nil
}

func (w *archiveWriter) Close() error {
	encErr := w.enc.Close()
	fileErr := w.file.Close()
	if encErr != nil {
		return fmt.Errorf("flush archive: %w", encErr)
	}
	return fileErr
}

type archiveReader struct {
	file *os.File
	dec  *zstd.Decoder
	r    *bufio.Reader
	info StreamInfo
}

// OpenArchive reads a frame archive from path.
func OpenArchive(path string) (FrameReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	dec, err := zstd.NewReader(file, zstd.WithDecoderConcurrency(1))
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("open archive decoder: %w", err)
	}
	r := bufio.NewReader(dec)
	header := make([]byte, archiveHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		dec.Close()
		_ = file.Close()
		return nil, fmt.Errorf("read archive header: %w", err)
	}
	if [4]byte(header[:4]) != archiveMagic {
		dec.Close()
		_ = file.Close()
		return nil, fmt.Errorf("open archive %s: bad magic %q", path, header[:4])
	}
	info := StreamInfo{
		Width:  int(binary.BigEndian.Uint32(header[4:8])),
		Height: int(binary.BigEndian.Uint32(header[8:12])),
		FPS:    math.Float64frombits(binary.BigEndian.Uint64(header[12:20])),
		Frames: -1,
	}
	if info.Width <= 0 || info.Height <= 0 {
		dec.Close()
		_ = file.Close()
		return nil, fmt.Errorf("open archive %s: invalid frame size %dx%d", path, info.Width, info.Height)
	}
	return &archiveReader{file: file, dec: dec, r: r, info: info}, nil
}

func (a *archiveReader) Info() StreamInfo { return a.info }

func (a *archiveReader) ReadFrame() (*raster.Raster, error) {
	return readRawFrame(a.r, a.info)
}

func (a *archiveReader) Close() error {
	a.dec.Close()
	return a.file.Close()
}

func readRawFrame(r io.Reader, info StreamInfo) (*raster.Raster, error) {
	frame := raster.New(info.Width, info.Height)
	if _, err := io.ReadFull(r, frame.Pix); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("read frame: stream ended mid-frame: %w", err)
		}
		return nil, fmt.Errorf("read frame: %w", err)
	}
	return frame, nil
}
