// Package source reads sequencing reads from FASTQ, gzip FASTQ, SAM and BAM
// files behind one iterator.
//
// Malformed records are reported as *DecodeError and skipped; the reader
// stays usable. Errors of any other type end the source.
package source

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/motifscan/encoding/fastq"
	"github.com/grailbio/motifscan/motif"
	"github.com/klauspost/compress/gzip"
)

// Read is one sequencing read in its sequencing orientation.
type Read struct {
	// ID is the read name, without the FASTQ '@' and comment.
	ID   string
	Seq  []byte
	// Qual holds Phred+33 qualities, or nothing when the source has none.
	Qual []byte
}

// DecodeError reports one malformed record. Reading may continue.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// IsDecodeError tells whether err reports a skippable malformed record.
func IsDecodeError(err error) bool {
	_, ok := err.(*DecodeError)
	return ok
}

// MaxConsecutiveDecodeErrors bounds the malformed records read in a row
// before the source is considered unreadable.
const MaxConsecutiveDecodeErrors = 1000

// Summary describes a fully or partially read source.
type Summary struct {
	Path   string `json:"path"`
	Format Format `json:"format"`
	// Records counts the reads returned by Next.
	Records int64 `json:"records"`
	// DecodeErrors counts malformed records.
	DecodeErrors int64 `json:"decode_errors"`
	// Filtered counts secondary and supplementary alignments, which repeat a
	// read already seen.
	Filtered int64 `json:"filtered"`
}

// Reader iterates over the reads of one source. It is not threadsafe.
type Reader struct {
	summary     Summary
	consecutive int
	next        func(*Read) error
	closers     []func(context.Context) error
}

// Open opens the read file at path, detecting its format with DetectFormat.
// The path may be anything grailbio/base/file understands.
func Open(ctx context.Context, path string) (*Reader, error) {
	format, err := DetectFormat(ctx, path)
	if err != nil {
		return nil, err
	}
	if format == FASTQ || format == FASTQGzip {
		in, err := fastq.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		r := newFASTQReader(in, path, format)
		r.closers = append(r.closers, in.Close)
		return r, nil
	}
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(in.Reader(ctx), path, format)
	if err != nil {
		in.Close(ctx) // nolint: errcheck
		return nil, err
	}
	r.closers = append(r.closers, in.Close)
	return r, nil
}

// NewReader reads the given format from in. Name identifies the source in
// errors and summaries. FASTQGzip input must still be compressed.
func NewReader(in io.Reader, name string, format Format) (*Reader, error) {
	switch format {
	case FASTQ:
		return newFASTQReader(in, name, format), nil
	case FASTQGzip:
		zr, err := gzip.NewReader(in)
		if err != nil {
			return nil, errors.E(errors.Invalid, name, err)
		}
		r := newFASTQReader(zr, name, format)
		r.closers = append(r.closers, func(context.Context) error { return zr.Close() })
		return r, nil
	case SAM:
		sr, err := sam.NewReader(bufio.NewReaderSize(in, 1<<20))
		if err != nil {
			return nil, errors.E(errors.Invalid, name, "SAM header", err)
		}
		r := &Reader{summary: Summary{Path: name, Format: format}}
		r.next = func(read *Read) error { return r.nextSAM(sr.Read, read, true) }
		return r, nil
	case BAM:
		br, err := bam.NewReader(in, 1)
		if err != nil {
			return nil, errors.E(errors.Invalid, name, "BAM header", err)
		}
		r := &Reader{summary: Summary{Path: name, Format: format}}
		r.next = func(read *Read) error { return r.nextSAM(br.Read, read, false) }
		r.closers = append(r.closers, func(context.Context) error { return br.Close() })
		return r, nil
	}
	return nil, errors.E(errors.Invalid, name, "unsupported format", format.String())
}

func newFASTQReader(in io.Reader, name string, format Format) *Reader {
	var (
		r  = &Reader{summary: Summary{Path: name, Format: format}}
		sc = fastq.NewScanner(in, fastq.ID|fastq.Seq|fastq.Qual)
		fq fastq.Read
	)
	r.next = func(read *Read) error {
		err := sc.Next(&fq)
		if err != nil {
			if rerr, ok := err.(*fastq.RecordError); ok {
				return r.decodeError(rerr)
			}
			return err
		}
		read.ID = fq.Name()
		read.Seq = append(read.Seq[:0], fq.Seq...)
		read.Qual = append(read.Qual[:0], fq.Qual...)
		return nil
	}
	return r
}

// nextSAM reads records until one is a primary alignment or unmapped read.
// Parse errors are skippable only for SAM, which is line oriented.
func (r *Reader) nextSAM(readRecord func() (*sam.Record, error), read *Read, skippable bool) error {
	for {
		rec, err := readRecord()
		if err == io.EOF {
			return io.EOF
		}
		if err != nil {
			if skippable {
				return r.decodeError(err)
			}
			return errors.E(r.summary.Path, err)
		}
		if rec.Flags&(sam.Secondary|sam.Supplementary) != 0 {
			r.summary.Filtered++
			continue
		}
		fromRecord(rec, read)
		return nil
	}
}

// fromRecord fills read from rec, undoing the reverse complement applied to
// reads aligned to the reverse strand.
func fromRecord(rec *sam.Record, read *Read) {
	read.ID = rec.Name
	read.Seq = append(read.Seq[:0], rec.Seq.Expand()...)
	read.Qual = read.Qual[:0]
	if len(rec.Qual) > 0 && rec.Qual[0] != 0xff {
		for _, q := range rec.Qual {
			read.Qual = append(read.Qual, q+33)
		}
	}
	if rec.Flags&sam.Reverse != 0 {
		motif.ReverseComplementInplace(read.Seq)
		for i, j := 0, len(read.Qual)-1; i < j; i, j = i+1, j-1 {
			read.Qual[i], read.Qual[j] = read.Qual[j], read.Qual[i]
		}
	}
}

func (r *Reader) decodeError(err error) error {
	r.summary.DecodeErrors++
	r.consecutive++
	if r.consecutive > MaxConsecutiveDecodeErrors {
		return errors.E(errors.Invalid, r.summary.Path,
			fmt.Sprintf("%d consecutive malformed records", r.consecutive), err)
	}
	return &DecodeError{Path: r.summary.Path, Err: err}
}

// Next reads the next read into read, reusing its buffers. It returns io.EOF
// at the end of the source and a *DecodeError for a skipped malformed record.
func (r *Reader) Next(read *Read) error {
	if err := r.next(read); err != nil {
		return err
	}
	r.consecutive = 0
	r.summary.Records++
	return nil
}

// Format returns the source format.
func (r *Reader) Format() Format { return r.summary.Format }

// Records returns the number of reads returned so far.
func (r *Reader) Records() int64 { return r.summary.Records }

// DecodeErrors returns the number of malformed records seen so far.
func (r *Reader) DecodeErrors() int64 { return r.summary.DecodeErrors }

// Summary returns the counts so far.
func (r *Reader) Summary() Summary { return r.summary }

// Close releases the reader's resources.
func (r *Reader) Close(ctx context.Context) error {
	var e errors.Once
	for i := len(r.closers) - 1; i >= 0; i-- {
		e.Set(r.closers[i](ctx))
	}
	return e.Err()
}

// ForEach calls fn for every read in the file at path. Malformed records
// are skipped. The read passed to fn is reused across calls. ForEach stops
// at the first error returned by fn or ctx.
func ForEach(ctx context.Context, path string, fn func(*Read) error) (Summary, error) {
	r, err := Open(ctx, path)
	if err != nil {
		return Summary{Path: path}, err
	}
	var (
		e    errors.Once
		read Read
	)
	for {
		if err := ctx.Err(); err != nil {
			e.Set(err)
			break
		}
		err := r.Next(&read)
		if err == io.EOF {
			break
		}
		if IsDecodeError(err) {
			continue
		}
		if err != nil {
			e.Set(err)
			break
		}
		if err := fn(&read); err != nil {
			e.Set(err)
			break
		}
	}
	e.Set(r.Close(ctx))
	return r.Summary(), e.Err()
}
