// Package export produces the XLSX processing report for a pipeline
// run: one row per ledgered item with its stage, completion time, and
// outcome.
package export

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/melodyhei/handwriten2md/constants"
	"github.com/melodyhei/handwriten2md/internal/document"
	"github.com/melodyhei/handwriten2md/internal/ledger"
)

const failureMarker = "recognition failed:"

// Service renders processing reports.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// BuildReport returns an XLSX workbook (as bytes) covering both stage
// ledgers. Recognition rows carry OK/FAILED according to the section
// body recorded in the OCR results document.
func (s *Service) BuildReport(recognized, organized ledger.Ledger, sections []document.Section) ([]byte, error) {
	start := time.Now()

	bodies := make(map[string]string, len(sections))
	for _, sec := range sections {
		bodies[sec.ID] = sec.Body
	}

	f := excelize.NewFile()
	const sheet = "Processing"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if defIdx, _ := f.GetSheetIndex("Sheet1"); defIdx != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{"Item", "Stage", "Processed At", "Status", "Characters"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	row := 2
	writeRow := func(id string, stage constants.Stage, processedAt, status string, chars int) error {
		values := []any{id, string(stage), processedAt, status, chars}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
		row++
		return nil
	}

	for _, id := range sortedKeys(recognized) {
		body := bodies[id]
		status := "OK"
		if strings.HasPrefix(body, failureMarker) {
			status = "FAILED"
		}
		if err := writeRow(id, constants.StageRecognize, recognized[id], status, len(body)); err != nil {
			return nil, err
		}
	}
	for _, id := range sortedKeys(organized) {
		if err := writeRow(id, constants.StageOrganize, organized[id], "OK", len(bodies[id])); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("export.report.ok",
		"recognized", len(recognized),
		"organized", len(organized),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func sortedKeys(l ledger.Ledger) []string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
