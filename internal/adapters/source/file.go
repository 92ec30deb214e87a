package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/labelaudit/internal/domain/model"
	"github.com/okian/labelaudit/pkg/logger"
)

const maxLineSize = 4 << 20

// File reads an exported label log: a JSON array or one JSON object per line.
type File struct {
	path   string
	logger logger.Logger
}

// NewFile creates a File source.
func NewFile(path string, opts ...Option) *File {
	f := &File{path: path, logger: logger.Get().Named("source")}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch reads the whole file and keeps events at or after since.
func (f *File) Fetch(ctx context.Context, since time.Time) ([]model.Event, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer fh.Close()

	br := bufio.NewReader(fh)
	var raws []RawLog
	if isArray(br) {
		raws, err = f.readArray(ctx, br)
	} else {
		raws, err = f.readLines(ctx, br)
	}
	if err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(raws))
	for _, r := range raws {
		e := r.Event(int64(len(events)))
		if !inWindow(e, since) {
			continue
		}
		events = append(events, e)
	}
	f.logger.Debug(ctx, "read label log",
		logger.String("path", f.path),
		logger.Int("lines", len(raws)),
		logger.Int("in_window", len(events)),
	)
	return events, nil
}

func (f *File) readArray(ctx context.Context, r io.Reader) ([]RawLog, error) {
	var items []json.RawMessage
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, f.path, err)
	}
	raws := make([]RawLog, 0, len(items))
	for i, item := range items {
		var r RawLog
		if err := json.Unmarshal(item, &r); err != nil {
			f.logger.Warn(ctx, "skipping unreadable log entry",
				logger.String("path", f.path),
				logger.Int("index", i),
				logger.Error(err),
			)
			continue
		}
		raws = append(raws, r)
	}
	return raws, nil
}

func (f *File) readLines(ctx context.Context, r io.Reader) ([]RawLog, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	var raws []RawLog
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var r RawLog
		if err := json.Unmarshal(b, &r); err != nil {
			f.logger.Warn(ctx, "skipping unreadable log line",
				logger.String("path", f.path),
				logger.Int("line", line),
				logger.Error(err),
			)
			continue
		}
		raws = append(raws, r)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, f.path, err)
	}
	return raws, nil
}

// isArray peeks past leading whitespace for a '['.
func isArray(br *bufio.Reader) bool {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return false
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		_ = br.UnreadByte()
		return b == '['
	}
}
