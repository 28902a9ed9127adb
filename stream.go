// stream.go: Streaming CTR encryption and decryption.
//
// CTR is length preserving, so a stream is a small header followed by the
// plaintext xored with the keystream. Data is buffered and xored in chunks.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pythia

import (
	"crypto/rand"
	"io"

	goerrors "github.com/agilira/go-errors"
)

// Default chunk size for streaming operations (64KB)
const DefaultChunkSize = 64 * 1024

// Stream format header structure:
// [4 bytes: Magic] [4 bytes: Version] [1 byte: Counter layout] [16 bytes: IV]
const (
	streamMagic   = "PCTR"
	streamVersion = uint32(1)
	headerSize    = 4 + 4 + 1 + IVSize // 25 bytes total
)

// CTRWriter encrypts everything written to it and forwards the ciphertext
// to the underlying writer. Close flushes buffered data.
type CTRWriter struct {
	writer       io.Writer
	ks           *Keystream
	iv           IV
	layout       CounterLayout
	buffer       []byte
	chunkSize    int
	closed       bool
	headerDone   bool
	bytesWritten int64
}

// CTRReader decrypts a stream produced by CTRWriter.
type CTRReader struct {
	reader     io.Reader
	key        Key
	ks         *Keystream
	closed     bool
	headerRead bool
}

// NewCTRWriter returns a CTRWriter with a fresh random IV and the default
// chunk size.
//
// Example:
//
//	key, _ := pythia.GenerateKey(pythia.AES256)
//	w, err := pythia.NewCTRWriter(file, key, pythia.CounterBigEndian128)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//	io.Copy(w, input)
func NewCTRWriter(writer io.Writer, key Key, layout CounterLayout) (*CTRWriter, error) {
	iv, err := generateIVFrom(rand.Reader)
	if err != nil {
		return nil, err
	}
	return NewCTRWriterWithIV(writer, key, iv, layout, DefaultChunkSize)
}

// NewCTRWriterWithIV returns a CTRWriter using a caller-chosen IV and chunk size.
// Reusing an IV under the same key leaks the xor of the plaintexts.
func NewCTRWriterWithIV(writer io.Writer, key Key, iv IV, layout CounterLayout, chunkSize int) (*CTRWriter, error) {
	if chunkSize <= 0 || chunkSize > 10*1024*1024 { // Max 10MB chunks
		return nil, goerrors.New("INVALID_CHUNK_SIZE", "chunk size must be between 1 and 10MB")
	}
	ks, err := NewKeystream(key, iv, layout)
	if err != nil {
		return nil, err
	}
	return &CTRWriter{
		writer:    writer,
		ks:        ks,
		iv:        iv,
		layout:    layout,
		chunkSize: chunkSize,
		buffer:    make([]byte, 0, chunkSize),
	}, nil
}

// IV returns the IV written into the stream header.
func (w *CTRWriter) IV() IV { return w.iv }

// BytesWritten returns the number of plaintext bytes flushed so far.
func (w *CTRWriter) BytesWritten() int64 { return w.bytesWritten }

func (w *CTRWriter) writeHeader() error {
	if w.headerDone {
		return nil
	}
	header := make([]byte, headerSize)
	copy(header[0:4], streamMagic)

	// Version (little endian)
	header[4] = byte(streamVersion)
	header[5] = byte(streamVersion >> 8)
	header[6] = byte(streamVersion >> 16)
	header[7] = byte(streamVersion >> 24)

	header[8] = byte(w.layout)
	copy(header[9:], w.iv[:])

	if _, err := w.writer.Write(header); err != nil {
		return goerrors.Wrap(err, "HEADER_WRITE_FAILED", "failed to write stream header")
	}
	w.headerDone = true
	return nil
}

// Write buffers data and encrypts it one chunk at a time.
func (w *CTRWriter) Write(data []byte) (int, error) {
	if w.closed {
		return 0, goerrors.New("WRITER_CLOSED", "cannot write to closed CTR writer")
	}
	if err := w.writeHeader(); err != nil {
		return 0, err
	}

	totalWritten := 0
	for len(data) > 0 {
		available := w.chunkSize - len(w.buffer)
		toWrite := len(data)
		if toWrite > available {
			toWrite = available
		}

		w.buffer = append(w.buffer, data[:toWrite]...)
		data = data[toWrite:]
		totalWritten += toWrite

		if len(w.buffer) == w.chunkSize {
			if err := w.flushChunk(); err != nil {
				return totalWritten, err
			}
		}
	}
	return totalWritten, nil
}

// Close flushes remaining data. The header is written even for empty streams.
func (w *CTRWriter) Close() error {
	if w.closed {
		return nil
	}
	if err := w.writeHeader(); err != nil {
		return err
	}
	if err := w.flushChunk(); err != nil {
		return err
	}
	w.closed = true
	return nil
}

func (w *CTRWriter) flushChunk() error {
	if len(w.buffer) == 0 {
		return nil
	}
	w.ks.XOR(w.buffer)
	if _, err := w.writer.Write(w.buffer); err != nil {
		return goerrors.Wrap(err, "CHUNK_WRITE_FAILED", "failed to write encrypted chunk")
	}
	w.bytesWritten += int64(len(w.buffer))
	Zeroize(w.buffer)
	w.buffer = w.buffer[:0]
	return nil
}

// NewCTRReader returns a reader that decrypts a CTRWriter stream. The
// header is read lazily on the first Read.
func NewCTRReader(reader io.Reader, key Key) (*CTRReader, error) {
	if !key.size.Valid() {
		return nil, richError(&KeySizeError{Size: int(key.size)},
			goerrors.New(ErrCodeInvalidKey, "zero or invalid key"))
	}
	return &CTRReader{reader: reader, key: key}, nil
}

func (r *CTRReader) readHeader() error {
	if r.headerRead {
		return nil
	}

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r.reader, header); err != nil {
		return goerrors.Wrap(err, "HEADER_READ_FAILED", "failed to read stream header")
	}
	if string(header[0:4]) != streamMagic {
		return goerrors.New("INVALID_STREAM_FORMAT", "invalid magic bytes")
	}
	version := uint32(header[4]) | uint32(header[5])<<8 | uint32(header[6])<<16 | uint32(header[7])<<24
	if version != streamVersion {
		return goerrors.New("UNSUPPORTED_STREAM_VERSION", "unsupported stream version")
	}
	layout := CounterLayout(header[8])
	if !layout.valid() {
		return goerrors.New("INVALID_STREAM_FORMAT", "unknown counter layout")
	}

	var iv IV
	copy(iv[:], header[9:])
	ks, err := NewKeystream(r.key, iv, layout)
	if err != nil {
		return err
	}
	r.ks = ks
	r.headerRead = true
	return nil
}

// Read decrypts the next bytes of the stream into data.
func (r *CTRReader) Read(data []byte) (int, error) {
	if r.closed {
		return 0, goerrors.New("READER_CLOSED", "cannot read from closed CTR reader")
	}
	if err := r.readHeader(); err != nil {
		return 0, err
	}

	n, err := r.reader.Read(data)
	r.ks.XOR(data[:n])
	return n, err
}

// Close marks the reader closed. The underlying reader is not closed.
func (r *CTRReader) Close() error {
	r.closed = true
	return nil
}
