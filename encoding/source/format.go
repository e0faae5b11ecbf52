package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/klauspost/compress/gzip"
)

// Format is the encoding of a read source.
type Format int

const (
	// Unknown is a sentinel.
	Unknown Format = iota
	// FASTQ is plain-text FASTQ.
	FASTQ
	// FASTQGzip is gzip-compressed FASTQ.
	FASTQGzip
	// SAM is plain-text SAM.
	SAM
	// BAM is BGZF-compressed BAM.
	BAM
)

var formatNames = [...]string{"unknown", "fastq", "fastq.gz", "sam", "bam"}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return formatNames[Unknown]
	}
	return formatNames[f]
}

// MarshalJSON encodes the format by name.
func (f Format) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// ParseFormat parses a format name such as "fastq.gz". On error, it returns
// Unknown.
func ParseFormat(name string) Format {
	switch strings.ToLower(name) {
	case "fastq", "fq":
		return FASTQ
	case "fastq.gz", "fq.gz":
		return FASTQGzip
	case "sam":
		return SAM
	case "bam":
		return BAM
	}
	return Unknown
}

// GuessFormat returns the format implied by the path's extension, or
// Unknown.
func GuessFormat(path string) Format {
	lower := strings.ToLower(path)
	for _, suffix := range []string{".fastq.gz", ".fq.gz"} {
		if strings.HasSuffix(lower, suffix) {
			return FASTQGzip
		}
	}
	for _, suffix := range []string{".fastq", ".fq"} {
		if strings.HasSuffix(lower, suffix) {
			return FASTQ
		}
	}
	switch {
	case strings.HasSuffix(lower, ".sam"):
		return SAM
	case strings.HasSuffix(lower, ".bam"):
		return BAM
	}
	return Unknown
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	bamMagic  = []byte("BAM\x01")
)

// samHeaderTags start the header lines of a SAM file.
var samHeaderTags = []string{"@HD\t", "@SQ\t", "@RG\t", "@PG\t", "@CO\t"}

// sniff guesses the format from the leading bytes of a file.
func sniff(head []byte) Format {
	if bytes.HasPrefix(head, gzipMagic) {
		zr, err := gzip.NewReader(bytes.NewReader(head))
		if err != nil {
			return Unknown
		}
		var inner [4]byte
		n, _ := io.ReadFull(zr, inner[:])
		switch {
		case n == 4 && bytes.Equal(inner[:], bamMagic):
			return BAM
		case n > 0 && inner[0] == '@':
			return FASTQGzip
		}
		return Unknown
	}
	for _, tag := range samHeaderTags {
		if bytes.HasPrefix(head, []byte(tag)) {
			return SAM
		}
	}
	if len(head) > 0 && head[0] == '@' {
		return FASTQ
	}
	line := head
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	// Headerless SAM: a record line has at least 11 mandatory fields.
	if bytes.Count(line, []byte{'\t'}) >= 10 {
		return SAM
	}
	return Unknown
}

// sniffSize bounds the bytes read by DetectFormat. It covers one BGZF block.
const sniffSize = 64 << 10

// DetectFormat determines the format of the file at path: from its
// extension when that is conclusive, and otherwise from its contents.
// A file whose format cannot be determined is an errors.Invalid error.
func DetectFormat(ctx context.Context, path string) (Format, error) {
	if f := GuessFormat(path); f != Unknown {
		return f, nil
	}
	in, err := file.Open(ctx, path)
	if err != nil {
		return Unknown, err
	}
	defer in.Close(ctx) // nolint: errcheck
	head, err := bufio.NewReaderSize(in.Reader(ctx), sniffSize).Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return Unknown, errors.E(err, "read", path)
	}
	if f := sniff(head); f != Unknown {
		return f, nil
	}
	return Unknown, errors.E(errors.Invalid, path, "unrecognized read file format")
}
