package logsource

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	// DefaultMaxLineSize caps how long an unterminated line may grow before it
	// is consumed anyway.
	DefaultMaxLineSize = 1024 * 1024 // 1MB

	readBufferSize = 64 * 1024
)

// ErrCursorBeyondEOF reports that the file is now shorter than the read cursor,
// typically because the writer recreated it.
var ErrCursorBeyondEOF = errors.New("log file is shorter than read cursor")

// TailerConfig holds tunable parameters for the file tailer.
type TailerConfig struct {
	MaxLineSize int
}

// Line is one complete line read from the file. End is the byte offset just
// past its terminator and becomes the new cursor once the line is handled.
type Line struct {
	Text string
	End  int64
}

// FileTailer reads lines appended to a file that another process keeps open
// for writing. The file is reopened on every poll and never written.
//
// Lines end with '\n'. A preceding '\r' is stripped from the text but counted
// in the offset, so the cursor advances by the exact number of bytes consumed
// for both LF and CRLF logs. A trailing line without '\n' is left unread until
// it is terminated.
type FileTailer struct {
	path        string
	maxLineSize int
}

// NewFileTailer creates a tailer for path.
func NewFileTailer(path string, conf ...TailerConfig) *FileTailer {
	maxLineSize := DefaultMaxLineSize
	if len(conf) > 0 && conf[0].MaxLineSize > 0 {
		maxLineSize = conf[0].MaxLineSize
	}
	return &FileTailer{path: path, maxLineSize: maxLineSize}
}

// Open returns the cursor for a new session: the current end of file.
func (t *FileTailer) Open() (int64, error) {
	info, err := os.Stat(t.path)
	if err != nil {
		return 0, fmt.Errorf("logsource: stat %s: %w", t.path, err)
	}
	return info.Size(), nil
}

// Poll reads the complete lines between cursor and the end of file as seen
// when the poll starts. It returns the lines in file order together with the
// cursor after the last one.
func (t *FileTailer) Poll(cursor int64) ([]Line, int64, error) {
	// os.Open shares read and write access on every platform, so the game can
	// keep appending while we read.
	f, err := os.Open(t.path)
	if err != nil {
		return nil, cursor, fmt.Errorf("logsource: open %s: %w", t.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, cursor, fmt.Errorf("logsource: stat %s: %w", t.path, err)
	}
	size := info.Size()
	if size < cursor {
		return nil, cursor, fmt.Errorf("logsource: %s size %d < cursor %d: %w", t.path, size, cursor, ErrCursorBeyondEOF)
	}
	if size == cursor {
		return nil, cursor, nil
	}

	if _, err := f.Seek(cursor, io.SeekStart); err != nil {
		return nil, cursor, fmt.Errorf("logsource: seek %s: %w", t.path, err)
	}

	reader := bufio.NewReaderSize(io.LimitReader(f, size-cursor), readBufferSize)
	var lines []Line
	pos := cursor
	for {
		raw, rerr := reader.ReadBytes('\n')
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return lines, pos, fmt.Errorf("logsource: read %s: %w", t.path, rerr)
		}
		if len(raw) == 0 {
			break
		}
		terminated := raw[len(raw)-1] == '\n'
		if !terminated && len(raw) < t.maxLineSize {
			// Partial write; pick it up on a later poll.
			break
		}

		pos += int64(len(raw))
		text := bytes.TrimSuffix(raw, []byte("\n"))
		text = bytes.TrimSuffix(text, []byte("\r"))
		lines = append(lines, Line{Text: string(text), End: pos})

		if errors.Is(rerr, io.EOF) {
			break
		}
	}
	return lines, pos, nil
}
