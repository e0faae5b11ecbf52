package fastq

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// gzipMagic starts every gzip member.
var gzipMagic = []byte{0x1f, 0x8b}

// A File is an open, possibly gzip-compressed FASTQ file.
type File struct {
	io.Reader
	f  file.File
	gz *gzip.Reader
}

// Open opens the FASTQ file at path, which may be any path understood by
// grailbio/base/file. Gzip input is recognized by its magic bytes, so
// ".fastq.gz" files and misnamed compressed files both decode.
func Open(ctx context.Context, path string) (*File, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	r := bufio.NewReaderSize(f.Reader(ctx), 1<<20)
	fq := &File{Reader: r, f: f}
	magic, err := r.Peek(2)
	if err != nil && err != io.EOF {
		f.Close(ctx) // nolint: errcheck
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if len(magic) == 2 && magic[0] == gzipMagic[0] && magic[1] == gzipMagic[1] {
		if fq.gz, err = gzip.NewReader(r); err != nil {
			f.Close(ctx) // nolint: errcheck
			return nil, errors.Wrapf(err, "gzip %s", path)
		}
		fq.Reader = fq.gz
	} else if strings.HasSuffix(path, ".gz") {
		f.Close(ctx) // nolint: errcheck
		return nil, errors.Errorf("%s: not in gzip format", path)
	}
	return fq, nil
}

// Close closes the file.
func (fq *File) Close(ctx context.Context) error {
	if fq.gz != nil {
		if err := fq.gz.Close(); err != nil {
			fq.f.Close(ctx) // nolint: errcheck
			return err
		}
	}
	return fq.f.Close(ctx)
}
