package pipeline

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"ibovrank/internal"
	"ibovrank/internal/b3"
	"ibovrank/internal/config"
	"ibovrank/internal/util"
)

// PortfolioSource is the API side of ingestion; *b3.Client implements it.
type PortfolioSource interface {
	FetchPortfolio(ctx context.Context) ([]internal.ConstituentRow, error)
}

type ProcessingService struct {
	cfg    config.Config
	exists func(string) bool
	files  *FileIngestor
	api    PortfolioSource
}

func NewProcessingService(cfg config.Config) *ProcessingService {
	return NewProcessingServiceWith(cfg, FileExists, OSLineReader{}, b3.NewClient(cfg))
}

// NewProcessingServiceWith wires explicit capabilities, mainly for tests.
func NewProcessingServiceWith(cfg config.Config, exists func(string) bool, reader LineReader, api PortfolioSource) *ProcessingService {
	return &ProcessingService{
		cfg:    cfg,
		exists: exists,
		files:  NewFileIngestor(reader, cfg.DecimalFixMode, cfg.TempPath()),
		api:    api,
	}
}

// Run ingests from exactly one source, ranks the rows and writes both exports.
func (s *ProcessingService) Run(ctx context.Context) (internal.RunResult, error) {
	defer util.TrackTime("ProcessingService.Run", time.Now())

	inputPath := s.cfg.InputPath()
	source := SelectSource(inputPath, s.exists)
	log.Infof("source=%s input=%s", source, inputPath)

	rows, err := s.ingest(ctx, source, inputPath)
	if err != nil {
		return internal.RunResult{}, err
	}

	ranked := Rank(rows)
	result := internal.RunResult{
		Source:             source,
		Rows:               ranked,
		CSVPath:            s.cfg.CSVOutputPath(),
		XLSXPath:           s.cfg.XLSXOutputPath(),
		TotalParticipation: TotalParticipation(ranked).String(),
	}
	if err := Export(ranked, result.CSVPath, result.XLSXPath); err != nil {
		return internal.RunResult{}, err
	}

	log.Infof("ranked %d constituents, total participation %s%%", len(ranked), result.TotalParticipation)
	return result, nil
}

func (s *ProcessingService) ingest(ctx context.Context, source internal.Source, inputPath string) ([]internal.ConstituentRow, error) {
	switch source {
	case internal.SourceFile:
		return s.files.Ingest(inputPath)
	case internal.SourceAPI:
		return s.api.FetchPortfolio(ctx)
	default:
		return nil, fmt.Errorf("unsupported source: %s", source)
	}
}
