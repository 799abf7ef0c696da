// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/machinebox/progress"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/u-root/u-esdhc/pkg/hardware/esdhc"
)

// requester is the part of a host the block reader uses.
type requester interface {
	Request(c *esdhc.Command, d *esdhc.Data) error
}

// blockReader streams card blocks through single or multiple block reads.
type blockReader struct {
	h         requester
	next, end uint32
	chunk     uint32
	blockAddr bool

	buf []byte
	off int
}

func newBlockReader(h requester, start, count, chunk uint32, blockAddr bool) *blockReader {
	if chunk == 0 {
		chunk = 1
	}
	return &blockReader{h: h, next: start, end: start + count, chunk: chunk, blockAddr: blockAddr}
}

// Size is the total number of bytes the reader produces.
func (r *blockReader) Size() int64 {
	return int64(r.end-r.next)*blockLen + int64(len(r.buf)-r.off)
}

func (r *blockReader) fill() error {
	n := r.end - r.next
	if n > r.chunk {
		n = r.chunk
	}
	arg := r.next
	if !r.blockAddr {
		arg *= blockLen
	}
	c := &esdhc.Command{Index: MMC_CMD_READ_SINGLE_BLOCK, Arg: arg, Response: esdhc.Resp48, CheckCRC: true, CheckIndex: true}
	if n > 1 {
		c.Index = MMC_CMD_READ_MULTIPLE_BLOCK
	}
	d := &esdhc.Data{Dir: esdhc.Read, BlockSize: blockLen, Blocks: n, Buf: make([]byte, n*blockLen)}
	if err := r.h.Request(c, d); err != nil {
		return fmt.Errorf("block %d: %w", r.next, err)
	}
	if n > 1 {
		stop := &esdhc.Command{Index: esdhc.MMC_CMD_STOP_TRANSMISSION, Response: esdhc.Resp48Busy, CheckCRC: true, CheckIndex: true}
		if err := r.h.Request(stop, nil); err != nil {
			return fmt.Errorf("stop after block %d: %w", r.next+n-1, err)
		}
	}
	r.next += n
	r.buf, r.off = d.Buf, 0
	return nil
}

func (r *blockReader) Read(p []byte) (int, error) {
	if r.off == len(r.buf) {
		if r.next == r.end {
			return 0, io.EOF
		}
		if err := r.fill(); err != nil {
			return 0, err
		}
	}
	n := copy(p, r.buf[r.off:])
	r.off += n
	return n, nil
}

// readToFile copies r into path and logs the progress while doing so.
func readToFile(ctx context.Context, log *zap.SugaredLogger, fs afero.Fs, path string, r *blockReader) error {
	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	size := r.Size()
	pr := progress.NewReader(r)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress.NewTicker(ctx, pr, size, time.Second) {
			log.Infof("Reading %s: %d %%, %v remaining", path, int(p.Percent()), p.Remaining().Round(time.Second))
		}
	}()

	n, err := io.Copy(f, pr)
	cancel()
	<-done
	if err != nil {
		return err
	}
	log.Infof("Read %d bytes into %s", n, path)
	return f.Close()
}
