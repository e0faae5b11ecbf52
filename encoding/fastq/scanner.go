package fastq

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrShort is returned when a truncated FASTQ file is encountered.
	ErrShort = errors.New("short FASTQ file")
	// ErrInvalid is returned when an invalid FASTQ file is encountered.
	ErrInvalid = errors.New("invalid FASTQ file")
	// ErrDiscordant is returned when two underlying FASTQ files are discordant.
	ErrDiscordant = errors.New("discordant FASTQ pairs")
)

// maxLineSize bounds FASTQ lines. Long-read records can be hundreds of
// kilobases.
const maxLineSize = 64 << 20

// A Read is a FASTQ read, comprising an ID, sequence, line 3
// ("unknown"), and a quality string.
type Read struct {
	ID, Seq, Unk, Qual string
}

// Name returns the read name: the ID without its leading '@' and without
// anything after the first whitespace.
func (r *Read) Name() string {
	id := r.ID
	if len(id) > 0 && id[0] == '@' {
		id = id[1:]
	}
	if i := indexSpace(id); i >= 0 {
		id = id[:i]
	}
	return id
}

func indexSpace(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' || s[i] == '\t' {
			return i
		}
	}
	return -1
}

// A RecordError reports a malformed record. Scanning may continue past it
// with Scanner.Next.
type RecordError struct {
	// Line is the 1-based line number where the record starts.
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("FASTQ record at line %d: %v", e.Line, e.Err)
}

var errEOF = errors.New("eof")

// Scanner provides a convenient interface for reading FASTQ read
// data. The Scan method returns the next read, returning a boolean
// indicating whether the read succeeded. Scanners are not
// threadsafe.
//
// Scanner requires ID lines to begin with "@", line 3 to begin with "+",
// and the sequence and quality lines to have the same length.
type Scanner struct {
	b      *bufio.Scanner
	err    error
	fields Field
	line   int
	// pending holds a header line found while resynchronizing.
	pending []byte
}

// Field enumerates FASTQ fields. It is used to specify fields to read in
// NewScanner.
type Field uint

const (
	// ID causes the Read.ID field to be filled
	ID Field = 1 << iota
	// Seq causes the Read.Seq field to be filled
	Seq
	// Unk causes the Read.Unk field to be filled
	Unk
	// Qual causes the Read.Unk field to be filled
	Qual
	// All equals ID|Seq|Unk|Qual.
	All = ID | Seq | Unk | Qual
)

// NewScanner constructs a new Scanner that reads raw FASTQ data from the
// provided reader. Fields is a bitset of the fields to read. A typical value
// would be All or ID|Seq|Qual.
func NewScanner(r io.Reader, fields Field) *Scanner {
	b := bufio.NewScanner(r)
	b.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	return &Scanner{b: b, fields: fields}
}

// Scan the next read into the provided read. Scan returns a boolean
// indicating whether the scan succeeded. Once Scan returns false, it
// never returns true again. Upon completion, the user should check
// the Err method to determine whether scanning stopped because of an
// error or because the end of the stream was reached.
func (f *Scanner) Scan(read *Read) bool {
	if f.err != nil {
		return false
	}
	if err := f.Next(read); err != nil {
		if err == io.EOF {
			f.err = errEOF
		} else if rerr, ok := err.(*RecordError); ok {
			f.err = rerr.Err
		} else {
			f.err = err
		}
		return false
	}
	return true
}

// Next reads the next record into read. It returns io.EOF at the end of the
// stream and a *RecordError for a malformed record; after a RecordError, the
// next call resumes at the following line that starts with '@'. Any other
// error is fatal and is returned again on every later call.
func (f *Scanner) Next(read *Read) error {
	if f.err != nil {
		if f.err == errEOF {
			return io.EOF
		}
		return f.err
	}
	id, ok := f.header()
	if !ok {
		return f.fatal()
	}
	start := f.line
	if len(id) == 0 || id[0] != '@' {
		f.resync()
		return &RecordError{Line: start, Err: ErrInvalid}
	}
	if f.fields&ID != 0 {
		read.ID = string(id)
	}
	if !f.scan() {
		return f.short(start)
	}
	seq := f.bytes()
	if len(seq) > 0 && seq[0] == '@' {
		// A header where the sequence should be: the record was cut short.
		f.pending = append(f.pending[:0], seq...)
		return &RecordError{Line: start, Err: ErrShort}
	}
	seqLen := len(seq)
	if f.fields&Seq != 0 {
		read.Seq = string(seq)
	}
	if !f.scan() {
		return f.short(start)
	}
	unk := f.bytes()
	if len(unk) == 0 || unk[0] != '+' {
		f.resync()
		return &RecordError{Line: start, Err: ErrInvalid}
	}
	if f.fields&Unk != 0 {
		read.Unk = string(unk)
	}
	if !f.scan() {
		return f.short(start)
	}
	qual := f.bytes()
	if len(qual) != seqLen {
		return &RecordError{Line: start, Err: fmt.Errorf("sequence length %d, quality length %d", seqLen, len(qual))}
	}
	if f.fields&Qual != 0 {
		read.Qual = string(qual)
	}
	return nil
}

// header returns the next header line, consuming a pending one first.
func (f *Scanner) header() ([]byte, bool) {
	if f.pending != nil {
		id := f.pending
		f.pending = nil
		return id, true
	}
	if !f.b.Scan() {
		if f.err = f.b.Err(); f.err == nil {
			f.err = errEOF
		}
		return nil, false
	}
	f.line++
	return f.bytes(), true
}

// bytes returns the current line without a trailing carriage return.
func (f *Scanner) bytes() []byte {
	return bytes.TrimRight(f.b.Bytes(), "\r")
}

func (f *Scanner) scan() bool {
	ok := f.b.Scan()
	if !ok {
		if f.err = f.b.Err(); f.err == nil {
			f.err = ErrShort
		}
		return false
	}
	f.line++
	return true
}

// resync skips lines up to the next one that starts with '@'.
func (f *Scanner) resync() {
	for f.b.Scan() {
		f.line++
		if line := f.b.Bytes(); len(line) > 0 && line[0] == '@' {
			f.pending = append(f.pending[:0], line...)
			return
		}
	}
	if f.err = f.b.Err(); f.err == nil {
		f.err = errEOF
	}
}

func (f *Scanner) fatal() error {
	if f.err == errEOF {
		return io.EOF
	}
	return f.err
}

// short reports a record truncated by the end of the stream. The stream
// error, if any, takes precedence.
func (f *Scanner) short(start int) error {
	if f.err != ErrShort {
		return f.err
	}
	f.err = errEOF
	return &RecordError{Line: start, Err: ErrShort}
}

// Err returns the scanning error, if any.
func (f *Scanner) Err() error {
	if f.err == errEOF {
		return nil
	}
	return f.err
}
