package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"ibovrank/internal"
)

// LineReader yields the text lines of a file, line endings removed.
type LineReader interface {
	ReadLines(path string) ([]string, error)
}

// OSLineReader reads Windows-1252 files from disk, the encoding B3 uses for
// its CSV downloads.
type OSLineReader struct{}

func (OSLineReader) ReadLines(path string) ([]string, error) {
	return readCP1252Lines(path)
}

func readCP1252Lines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", internal.ErrFilesystem, path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(transform.NewReader(f, charmap.Windows1252.NewDecoder()))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lines := []string{}
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", internal.ErrFilesystem, path, err)
	}
	return lines, nil
}

func writeCP1252Lines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", internal.ErrFilesystem, path, err)
	}

	w := transform.NewWriter(f, charmap.Windows1252.NewEncoder())
	for _, line := range lines {
		if _, err := w.Write([]byte(line + "\n")); err != nil {
			_ = f.Close()
			return fmt.Errorf("%w: write %s: %w", internal.ErrFilesystem, path, err)
		}
	}
	if err := w.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: write %s: %w", internal.ErrFilesystem, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", internal.ErrFilesystem, path, err)
	}
	return nil
}
