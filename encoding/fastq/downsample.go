package fastq

import (
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/motifscan/sample"
	perrors "github.com/pkg/errors"
)

// PairName returns the name shared by both mates of a pair: the read name
// without a trailing "/1" or "/2".
func PairName(r *Read) string {
	name := r.Name()
	if strings.HasSuffix(name, "/1") || strings.HasSuffix(name, "/2") {
		name = name[:len(name)-2]
	}
	return name
}

// Downsample copies the reads at r1Path, and the mates at r2Path when r2Path
// is nonempty, to r1Out and r2Out, keeping each read or pair with
// probability rate. The decision for a pair depends only on its name (see
// sample.Keep), so repeated runs produce the same output.
//
// Input files may be gzip-compressed. Rates above 1 keep every read.
func Downsample(ctx context.Context, rate float64, r1Path, r2Path string, r1Out, r2Out io.Writer) error {
	if rate < 0 {
		return errors.E(errors.Invalid, "rate must not be negative")
	}
	r1In, err := Open(ctx, r1Path)
	if err != nil {
		return err
	}
	var e errors.Once
	w1 := NewWriter(r1Out)
	if r2Path == "" {
		e.Set(downsampleSingle(rate, r1In, w1))
		e.Set(w1.Flush())
		e.Set(r1In.Close(ctx))
		return e.Err()
	}
	r2In, err := Open(ctx, r2Path)
	if err != nil {
		r1In.Close(ctx) // nolint: errcheck
		return err
	}
	w2 := NewWriter(r2Out)
	e.Set(downsamplePair(rate, r1In, r2In, w1, w2))
	e.Set(w1.Flush())
	e.Set(w2.Flush())
	e.Set(r1In.Close(ctx))
	e.Set(r2In.Close(ctx))
	return e.Err()
}

func downsampleSingle(rate float64, in io.Reader, w *Writer) error {
	var (
		s    = NewScanner(in, All)
		read Read
	)
	for s.Scan(&read) {
		if !sample.Keep(PairName(&read), rate) {
			continue
		}
		if err := w.Write(&read); err != nil {
			return err
		}
	}
	return perrors.Wrap(s.Err(), "error reading R1 input")
}

func downsamplePair(rate float64, r1In, r2In io.Reader, w1, w2 *Writer) error {
	var (
		s1, s2 = NewScanner(r1In, All), NewScanner(r2In, All)
		r1, r2 Read
	)
	for {
		ok1, ok2 := s1.Scan(&r1), s2.Scan(&r2)
		if err := s1.Err(); err != nil {
			return perrors.Wrap(err, "error reading R1 input")
		}
		if err := s2.Err(); err != nil {
			return perrors.Wrap(err, "error reading R2 input")
		}
		switch {
		case !ok1 && !ok2:
			return nil
		case !ok1:
			return perrors.New("more reads in R2 input than in R1 input")
		case !ok2:
			return perrors.New("more reads in R1 input than in R2 input")
		}
		if name1, name2 := PairName(&r1), PairName(&r2); name1 != name2 {
			return perrors.Wrapf(ErrDiscordant, "R1 read %s, R2 read %s", name1, name2)
		}
		if !sample.Keep(PairName(&r1), rate) {
			continue
		}
		if err := w1.Write(&r1); err != nil {
			return err
		}
		if err := w2.Write(&r2); err != nil {
			return err
		}
	}
}

// DownsampleToCount is like Downsample, but picks the rate so that about
// count reads or pairs are kept. It reads r1Path twice.
func DownsampleToCount(ctx context.Context, count int64, r1Path, r2Path string, r1Out, r2Out io.Writer) error {
	if count < 0 {
		return errors.E(errors.Invalid, "count must not be negative")
	}
	in, err := Open(ctx, r1Path)
	if err != nil {
		return err
	}
	var (
		s    = NewScanner(in, ID)
		read Read
		n    int64
	)
	for s.Scan(&read) {
		n++
	}
	if err := s.Err(); err != nil {
		in.Close(ctx) // nolint: errcheck
		return perrors.Wrap(err, "error reading R1 input")
	}
	if err := in.Close(ctx); err != nil {
		return err
	}
	rate := 1.0
	if n > count {
		rate = float64(count) / float64(n)
	}
	return Downsample(ctx, rate, r1Path, r2Path, r1Out, r2Out)
}
