// elLabel: unsupervised genotype clustering for SNP arrays.
// Copyright (c) 2021 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/ellabel/blob/master/LICENSE.txt>.

// Package bgzf reads and writes blocked gzip files, the compressed form
// of marker and call tables. A BGZF file is a series of gzip members of
// at most 64KB each, followed by an empty end-of-file member.
package bgzf

import (
	"bufio"
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
	"strings"
	"sync"

	"github.com/exascience/pargo/pipeline"
)

// BlockSize is the amount of uncompressed data per block. It leaves room
// for incompressible data to fit the 16-bit block size field.
const BlockSize = 0xff00

const headerSize = 18

var eofBlock = []byte{
	0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0xff, 0x06, 0x00,
	0x42, 0x43, 0x02, 0x00, 0x1b, 0x00,
	0x03, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
}

// IsGzip reports whether the buffered input starts with the gzip magic
// number. It does not consume any input.
func IsGzip(r *bufio.Reader) (bool, error) {
	magic, err := r.Peek(2)
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return magic[0] == 0x1f && magic[1] == 0x8b, nil
}

// Open returns a reader for plain or gzip-compressed input, including
// BGZF, together with a function that releases the decompressor.
func Open(r io.Reader) (io.Reader, func() error, error) {
	buf := bufio.NewReader(r)
	ok, err := IsGzip(buf)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return buf, func() error { return nil }, nil
	}
	gz, err := gzip.NewReader(buf)
	if err != nil {
		return nil, nil, err
	}
	return gz, gz.Close, nil
}

// IsCompressedName reports whether a filename asks for BGZF output.
func IsCompressedName(filename string) bool {
	return strings.HasSuffix(filename, ".gz") || strings.HasSuffix(filename, ".bgz")
}

type blockSource struct {
	blocks <-chan []byte
	data   []byte
}

func (*blockSource) Err() error {
	return nil
}

func (*blockSource) Prepare(_ context.Context) (size int) {
	return -1
}

func (src *blockSource) Fetch(size int) (fetched int) {
	if block, ok := <-src.blocks; ok {
		src.data = block
		return 1
	}
	src.data = nil
	return 0
}

func (src *blockSource) Data() interface{} {
	return src.data
}

// Writer compresses blocks in parallel and writes them in order.
type Writer struct {
	w       io.Writer
	level   int
	block   []byte
	blocks  chan []byte
	stopped chan struct{}
	flaters sync.Pool
	p       pipeline.Pipeline
}

// NewWriter returns a Writer that compresses to w with the given flate
// level.
func NewWriter(w io.Writer, level int) (*Writer, error) {
	if _, err := flate.NewWriter(io.Discard, level); err != nil {
		return nil, err
	}
	bgzf := &Writer{
		w:       w,
		level:   level,
		block:   make([]byte, 0, BlockSize),
		blocks:  make(chan []byte, 1),
		stopped: make(chan struct{}),
	}
	bgzf.p.Source(&blockSource{blocks: bgzf.blocks})
	bgzf.p.Add(pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
		compressed, err := bgzf.compress(data.([]byte))
		if err != nil {
			bgzf.p.SetErr(err)
			return nil
		}
		return compressed
	})), pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
		if compressed, ok := data.([]byte); ok {
			if _, err := w.Write(compressed); err != nil {
				bgzf.p.SetErr(err)
			}
		}
		return nil
	})))
	go func() {
		defer close(bgzf.stopped)
		bgzf.p.Run()
	}()
	return bgzf, nil
}

func (bgzf *Writer) compress(block []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(headerSize + len(block) + 64)
	buf.Write(eofBlock[:headerSize])
	var fw *flate.Writer
	if pooled, ok := bgzf.flaters.Get().(*flate.Writer); ok {
		fw = pooled
		fw.Reset(&buf)
	} else {
		var err error
		if fw, err = flate.NewWriter(&buf, bgzf.level); err != nil {
			return nil, err
		}
	}
	if _, err := fw.Write(block); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	bgzf.flaters.Put(fw)
	var tail [8]byte
	binary.LittleEndian.PutUint32(tail[0:4], crc32.ChecksumIEEE(block))
	binary.LittleEndian.PutUint32(tail[4:8], uint32(len(block)))
	buf.Write(tail[:])
	result := buf.Bytes()
	if len(result) > 1<<16 {
		return nil, errors.New("BGZF block exceeds 64KB")
	}
	binary.LittleEndian.PutUint16(result[16:18], uint16(len(result)-1))
	return result, nil
}

func (bgzf *Writer) send() error {
	select {
	case bgzf.blocks <- bgzf.block:
		bgzf.block = make([]byte, 0, BlockSize)
		return nil
	case <-bgzf.stopped:
		if err := bgzf.p.Err(); err != nil {
			return err
		}
		return errors.New("BGZF writer stopped")
	}
}

// Write implements io.Writer.
func (bgzf *Writer) Write(p []byte) (n int, err error) {
	for len(p) > 0 {
		k := copy(bgzf.block[len(bgzf.block):BlockSize], p)
		bgzf.block = bgzf.block[:len(bgzf.block)+k]
		p = p[k:]
		n += k
		if len(bgzf.block) == BlockSize {
			if err = bgzf.send(); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

// Close flushes the last block and writes the end-of-file marker. It
// does not close the underlying writer.
func (bgzf *Writer) Close() error {
	var err error
	if len(bgzf.block) > 0 {
		err = bgzf.send()
	}
	close(bgzf.blocks)
	<-bgzf.stopped
	if err != nil {
		return err
	}
	if err := bgzf.p.Err(); err != nil {
		return err
	}
	_, err = bgzf.w.Write(eofBlock)
	return err
}
