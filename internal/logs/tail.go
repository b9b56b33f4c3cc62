package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	maxLineBytes = 1024 * 1024
	pollInterval = 250 * time.Millisecond
)

// Options controls a read. A negative Offset means "the last Lines lines".
type Options struct {
	Offset int64
	Lines  int
	Match  string
	Wait   time.Duration
}

// Chunk is a batch of lines and the offset to resume from.
type Chunk struct {
	Lines  []string
	Offset int64
}

// Read returns matching lines from path. A missing file yields an empty
// chunk at offset zero. When Wait is positive and nothing new is available,
// Read polls until a line arrives or Wait elapses.
func Read(ctx context.Context, path string, opts Options) (Chunk, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Chunk{}, nil
		}
		return Chunk{Offset: opts.Offset}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return Chunk{Offset: opts.Offset}, fmt.Errorf("log path %q is a directory", path)
	}

	var chunk Chunk
	if opts.Offset < 0 {
		chunk, err = readLast(path, opts.Lines, opts.Match)
	} else {
		offset := opts.Offset
		// A rotated or truncated file restarts from the beginning.
		if offset > info.Size() {
			offset = 0
		}
		chunk, err = readFrom(path, offset, opts.Match)
	}
	if err != nil || len(chunk.Lines) > 0 || opts.Wait <= 0 {
		return chunk, err
	}
	return poll(ctx, path, chunk.Offset, opts)
}

// Follow emits the initial chunk and then every batch of appended lines until
// ctx is cancelled. Cancellation is not reported as an error.
func Follow(ctx context.Context, path string, opts Options, emit func([]string) error) error {
	chunk, err := Read(ctx, path, Options{Offset: opts.Offset, Lines: opts.Lines, Match: opts.Match})
	if err != nil {
		return err
	}
	for {
		if len(chunk.Lines) > 0 {
			if err := emit(chunk.Lines); err != nil {
				return err
			}
		}
		chunk, err = Read(ctx, path, Options{Offset: chunk.Offset, Match: opts.Match, Wait: time.Minute})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

func readLast(path string, limit int, match string) (Chunk, error) {
	file, err := os.Open(path)
	if err != nil {
		return Chunk{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return Chunk{}, fmt.Errorf("seek log file: %w", err)
		}
		return Chunk{Offset: end}, nil
	}

	ring := make([]string, limit)
	count, next := 0, 0
	end, err := scan(file, match, func(line string) {
		ring[next] = line
		next = (next + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return Chunk{}, err
	}

	lines := make([]string, count)
	start := 0
	if count == limit {
		start = next
	}
	for i := range count {
		lines[i] = ring[(start+i)%limit]
	}
	return Chunk{Lines: lines, Offset: end}, nil
}

func readFrom(path string, offset int64, match string) (Chunk, error) {
	file, err := os.Open(path)
	if err != nil {
		return Chunk{Offset: offset}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return Chunk{Offset: offset}, fmt.Errorf("seek log file: %w", err)
	}
	var lines []string
	end, err := scan(file, match, func(line string) { lines = append(lines, line) })
	if err != nil {
		return Chunk{Offset: offset}, err
	}
	return Chunk{Lines: lines, Offset: end}, nil
}

// scan feeds complete matching lines to fn and returns the offset just past
// the last complete line, so a partially written line is re-read later.
func scan(file *os.File, match string, fn func(string)) (int64, error) {
	start, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("determine log offset: %w", err)
	}
	reader := bufio.NewReaderSize(file, 64*1024)
	consumed := start
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return consumed, nil
			}
			return consumed, fmt.Errorf("read log file: %w", err)
		}
		consumed += int64(len(line))
		if len(line) > maxLineBytes {
			line = line[:maxLineBytes]
		}
		line = strings.TrimRight(line, "\r\n")
		if match == "" || strings.Contains(line, match) {
			fn(line)
		}
	}
}

func poll(ctx context.Context, path string, offset int64, opts Options) (Chunk, error) {
	deadline := time.Now().Add(opts.Wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return Chunk{Offset: offset}, ctx.Err()
		case <-ticker.C:
		}
		chunk, err := readFrom(path, offset, opts.Match)
		if err != nil {
			return chunk, err
		}
		if len(chunk.Lines) > 0 || time.Now().After(deadline) {
			return chunk, nil
		}
		offset = chunk.Offset
	}
}
