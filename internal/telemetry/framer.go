package telemetry

import "strings"

// DefaultMaxLineBytes caps the carry-over buffer when no newline arrives.
const DefaultMaxLineBytes = 4096

// Framer turns arbitrarily chunked text into complete newline-terminated lines.
// A Framer is not safe for concurrent use; the connection read loop owns it.
type Framer struct {
	buf       strings.Builder
	maxLine   int  // 0 disables the cap
	resyncing bool // discarding input until the next newline
	overflows int
}

// NewFramer returns a framer whose carry-over is capped at maxLine bytes.
// When the cap is exceeded the partial line is dropped and the framer
// resynchronizes on the next newline. maxLine <= 0 disables the cap.
func NewFramer(maxLine int) *Framer {
	if maxLine < 0 {
		maxLine = 0
	}
	return &Framer{maxLine: maxLine}
}

// Feed appends chunk to the carry-over and returns every line it completes,
// in order, without the trailing newline.
func (f *Framer) Feed(chunk string) []string {
	var lines []string
	for chunk != "" {
		i := strings.IndexByte(chunk, '\n')
		if i < 0 {
			f.carry(chunk)
			break
		}
		head := chunk[:i]
		chunk = chunk[i+1:]

		if f.resyncing {
			f.resyncing = false
			continue
		}
		if f.buf.Len() == 0 {
			lines = append(lines, head)
			continue
		}
		f.buf.WriteString(head)
		lines = append(lines, f.buf.String())
		f.buf.Reset()
	}
	return lines
}

// carry stores an unterminated fragment, enforcing the line cap.
func (f *Framer) carry(fragment string) {
	if f.resyncing {
		return
	}
	if f.maxLine > 0 && f.buf.Len()+len(fragment) > f.maxLine {
		f.buf.Reset()
		f.resyncing = true
		f.overflows++
		return
	}
	f.buf.WriteString(fragment)
}

// Pending returns the current carry-over (the partial last line).
func (f *Framer) Pending() string {
	return f.buf.String()
}

// Overflows reports how many partial lines were dropped for exceeding the cap.
func (f *Framer) Overflows() int {
	return f.overflows
}

// Reset clears the carry-over and any resync state.
func (f *Framer) Reset() {
	f.buf.Reset()
	f.resyncing = false
}
