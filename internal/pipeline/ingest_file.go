package pipeline

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"ibovrank/internal"
	"ibovrank/internal/config"
	"ibovrank/internal/util"
)

const (
	headerLines  = 2
	trailerLines = 2
	fieldCount   = 5
	fieldSep     = ";"
)

// FileIngestor turns a saved B3 "carteira do dia" CSV into rows. The export
// has two title lines, the constituents, then a totals line and a footnote.
type FileIngestor struct {
	reader   LineReader
	mode     string
	tempPath string
}

func NewFileIngestor(reader LineReader, decimalFixMode, tempPath string) *FileIngestor {
	if reader == nil {
		reader = OSLineReader{}
	}
	return &FileIngestor{reader: reader, mode: decimalFixMode, tempPath: tempPath}
}

// Ingest reads inputPath, writes the cleaned lines to the temp file, parses
// them back and removes the temp file on every path out.
func (i *FileIngestor) Ingest(inputPath string) ([]internal.ConstituentRow, error) {
	defer util.TrackTime("FileIngestor.Ingest", time.Now())

	lines, err := i.reader.ReadLines(inputPath)
	if err != nil {
		return nil, err
	}
	cleaned, err := PreprocessLines(lines, i.mode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", inputPath, err)
	}

	defer i.removeTemp()
	if err := writeCP1252Lines(i.tempPath, cleaned); err != nil {
		return nil, err
	}
	log.Debugf("wrote %d cleaned lines to %s", len(cleaned), i.tempPath)

	rows, err := ParseCleanedFile(i.tempPath)
	if err != nil {
		return nil, err
	}
	log.Infof("parsed %d constituents from %s", len(rows), inputPath)
	return rows, nil
}

func (i *FileIngestor) removeTemp() {
	if err := os.Remove(i.tempPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("could not remove temp file %s: %v", i.tempPath, err)
	}
}

// PreprocessLines drops the header and trailer lines and fixes decimal commas.
// In line mode every comma becomes a point, text fields included. Field mode
// only touches the participation column.
func PreprocessLines(lines []string, mode string) ([]string, error) {
	if len(lines) < headerLines+trailerLines+1 {
		return nil, fmt.Errorf("%w: expected at least %d lines, got %d", internal.ErrParse, headerLines+trailerLines+1, len(lines))
	}

	body := lines[headerLines : len(lines)-trailerLines]
	out := make([]string, 0, len(body))
	for _, line := range body {
		switch mode {
		case config.DecimalFixField:
			out = append(out, fixParticipationComma(line))
		default:
			out = append(out, util.ReplaceDecimalComma(line))
		}
	}
	return out, nil
}

func fixParticipationComma(line string) string {
	parts, ok := util.SplitFields(line, fieldSep, fieldCount)
	if !ok {
		return line
	}
	parts[fieldCount-1] = util.ReplaceDecimalComma(parts[fieldCount-1])
	return strings.Join(parts, fieldSep)
}

func ParseCleanedFile(path string) ([]internal.ConstituentRow, error) {
	lines, err := readCP1252Lines(path)
	if err != nil {
		return nil, err
	}
	return ParseCleanedLines(lines)
}

// ParseCleanedLines splits each non-blank line into code, asset, type,
// quantity and participation. The participation field keeps anything after
// the fourth semicolon, so trailing delimiters are tolerated.
func ParseCleanedLines(lines []string) ([]internal.ConstituentRow, error) {
	rows := make([]internal.ConstituentRow, 0, len(lines))
	for n, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts, ok := util.SplitFields(line, fieldSep, fieldCount)
		if !ok {
			return nil, fmt.Errorf("%w: line %d has %d fields, want %d: %q", internal.ErrParse, n+1, len(parts), fieldCount, line)
		}
		part, err := util.ParsePercent(parts[4])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: participation %q is not numeric", internal.ErrParse, n+1, parts[4])
		}
		rows = append(rows, internal.ConstituentRow{
			Code:                 strings.TrimSpace(parts[0]),
			Asset:                strings.TrimSpace(parts[1]),
			Type:                 strings.TrimSpace(parts[2]),
			TheoreticalQuantity:  strings.TrimSpace(parts[3]),
			ParticipationPercent: part,
		})
	}
	return rows, nil
}
