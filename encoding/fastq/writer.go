package fastq

import (
	"bufio"
	"io"
)

// Writer is a buffered FASTQ file writer. Flush must be called after the
// last Write.
type Writer struct {
	w   *bufio.Writer
	err error
}

// NewWriter constructs a new FASTQ writer
// that writes reads to the underlying writer w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriterSize(w, 256<<10)}
}

// Write writes the read r in FASTQ format. An ID without the leading '@' gets
// one, and an empty line 3 is written as "+".
// An error is returned if the write failed.
func (w *Writer) Write(r *Read) error {
	if len(r.ID) == 0 || r.ID[0] != '@' {
		w.writeByte('@')
	}
	w.writeln(r.ID)
	w.writeln(r.Seq)
	if r.Unk == "" {
		w.writeln("+")
	} else {
		w.writeln(r.Unk)
	}
	w.writeln(r.Qual)
	return w.err
}

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if w.err == nil {
		w.err = w.w.Flush()
	}
	return w.err
}

func (w *Writer) writeByte(c byte) {
	if w.err == nil {
		w.err = w.w.WriteByte(c)
	}
}

func (w *Writer) writeln(line string) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.WriteString(line)
	w.writeByte('\n')
}
