package internal

import "errors"

type Source string

const (
	SourceFile Source = "file"
	SourceAPI  Source = "api"
)

var (
	ErrFilesystem = errors.New("filesystem error")
	ErrParse      = errors.New("parse error")
	ErrNetwork    = errors.New("network error")
	ErrData       = errors.New("data error")
)

// ConstituentRow is one index member. Rank is zero until the row set is ranked.
type ConstituentRow struct {
	Rank                 int
	Code                 string
	Asset                string
	Type                 string
	TheoreticalQuantity  string
	ParticipationPercent float64
}

const (
	ColumnRank          = "Rank"
	ColumnCode          = "Code"
	ColumnAsset         = "Asset"
	ColumnType          = "Type"
	ColumnQuantity      = "Theoretical Quantity"
	ColumnParticipation = "Participation (%)"
)

// ExportColumns is the column order shared by every sink and both ingestion paths.
var ExportColumns = []string{
	ColumnRank,
	ColumnCode,
	ColumnAsset,
	ColumnType,
	ColumnQuantity,
	ColumnParticipation,
}

type RunResult struct {
	Source             Source
	Rows               []ConstituentRow
	CSVPath            string
	XLSXPath           string
	TotalParticipation string
}
