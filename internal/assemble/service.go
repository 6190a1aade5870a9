// Package assemble writes the documentation workbook: one sheet per query
// job, then a cleanup pass that prunes the master reference sheets down to
// the fields actually seen in responses.
package assemble

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/hris-tools/sf-apidoc/constants"
	"github.com/hris-tools/sf-apidoc/internal/flatten"
	"github.com/hris-tools/sf-apidoc/internal/jobs"
	"github.com/hris-tools/sf-apidoc/internal/metadata"
)

// sampleListLimit caps list lengths in the pretty-printed sample cell.
const sampleListLimit = 3

type usedKey struct {
	entity string
	name   string
}

// Service accumulates sheets into one workbook across all jobs of a run.
type Service struct {
	wb     *excelize.File
	dict   *metadata.Dictionary
	logger *slog.Logger
	used   map[usedKey]struct{}
}

func NewService(wb *excelize.File, dict *metadata.Dictionary, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		wb:     wb,
		dict:   dict,
		logger: logger,
		used:   make(map[usedKey]struct{}),
	}
}

// WriteJobSheet copies the template sheet for one job, fills the header block
// and the per-field rows, and writes the sample back to the master job list.
// Every (entity, field) pair resolved here is recorded for the cleanup pass.
func (s *Service) WriteJobSheet(job jobs.Job, endpoint string, doc flatten.Value) error {
	name := job.APIName
	if name == "" {
		name = job.Entity
	}
	sheetName := truncateSheetName(name)

	if idx, _ := s.wb.GetSheetIndex(sheetName); idx != -1 {
		if err := s.wb.DeleteSheet(sheetName); err != nil {
			return fmt.Errorf("replace sheet %q: %w", sheetName, err)
		}
	}

	tplIdx, err := s.wb.GetSheetIndex(constants.TemplateSheet)
	if err != nil || tplIdx == -1 {
		return fmt.Errorf("template sheet %q not found", constants.TemplateSheet)
	}
	idx, err := s.wb.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet %q: %w", sheetName, err)
	}
	if err := s.wb.CopySheet(tplIdx, idx); err != nil {
		return fmt.Errorf("copy template sheet: %w", err)
	}
	s.logger.Info("assemble.sheet_created", "sheet", sheetName, "entity", job.Entity)

	sample := flatten.Limit(doc, sampleListLimit).MarshalIndent()

	_ = s.wb.SetCellValue(sheetName, constants.CellAPIName, job.APIName)
	_ = s.wb.SetCellValue(sheetName, constants.CellDataFlow, job.DataFlow)
	_ = s.wb.SetCellValue(sheetName, constants.CellTrigger, job.Trigger)
	_ = s.wb.SetCellValue(sheetName, constants.CellStartEntity, job.Entity)
	_ = s.wb.SetCellValue(sheetName, constants.CellIntroduction, job.Introduction)
	_ = s.wb.SetCellValue(sheetName, constants.CellEndpoint, endpoint)
	_ = s.wb.SetCellValue(sheetName, constants.CellSample, sample)

	// Sample also goes back to the job's row in the master list.
	if cell, err := excelize.CoordinatesToCellName(constants.MasterColSample+1, job.RowIndex); err == nil {
		_ = s.wb.SetCellValue(constants.MasterListSheet, cell, sample)
	}

	for i, field := range flatten.Fields(doc, job.Entity) {
		row := constants.FieldStartRow + i

		meta, found := s.dict.Lookup(field.Entity, field.Name)
		s.used[usedKey{field.Entity, field.Name}] = struct{}{}
		if found {
			s.used[usedKey{meta.Entity, meta.Name}] = struct{}{}
		}

		cells := []any{
			field.Name,
			field.Entity,
			field.Path,
			formatSample(field.Value),
			meta.Label,
			meta.Type,
			meta.Key,
			meta.Required,
			meta.Picklist,
			meta.MaxLength,
		}
		for j, v := range cells {
			cell, err := excelize.CoordinatesToCellName(constants.FieldStartCol+j, row)
			if err != nil {
				continue
			}
			_ = s.wb.SetCellValue(sheetName, cell, v)
		}
	}
	return nil
}

// Cleanup prunes the master reference sheets: rows whose key pair was never
// referenced by any job are dropped, header retained. A sheet with a missing
// key column is left untouched with a warning.
func (s *Service) Cleanup() {
	s.pruneSheet(constants.MasterDictionarySheet, "Entity", "Field")
	s.pruneSheet(constants.DropdownMappingSheet, "Entity", "Name")
}

func (s *Service) pruneSheet(sheet, entityCol, nameCol string) {
	if idx, _ := s.wb.GetSheetIndex(sheet); idx == -1 {
		return
	}
	rows, err := s.wb.GetRows(sheet)
	if err != nil || len(rows) == 0 {
		return
	}

	header := rows[0]
	entityIdx := columnIndex(header, entityCol)
	nameIdx := columnIndex(header, nameCol)
	if entityIdx == -1 || nameIdx == -1 {
		s.logger.Warn("assemble.cleanup_skipped",
			"sheet", sheet,
			"reason", fmt.Sprintf("%q or %q column not found", entityCol, nameCol),
		)
		return
	}

	var kept [][]string
	for _, row := range rows[1:] {
		if entityIdx >= len(row) || nameIdx >= len(row) {
			continue
		}
		if _, ok := s.used[usedKey{row[entityIdx], row[nameIdx]}]; ok {
			kept = append(kept, row)
		}
	}

	// Destructive in-place rewrite: drop every data row, then re-append the
	// survivors under the original header.
	for i := len(rows); i >= 2; i-- {
		_ = s.wb.RemoveRow(sheet, i)
	}
	for i, row := range kept {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			continue
		}
		r := row
		_ = s.wb.SetSheetRow(sheet, cell, &r)
	}

	s.logger.Info("assemble.cleanup_done", "sheet", sheet, "kept", len(kept), "dropped", len(rows)-1-len(kept))
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func truncateSheetName(name string) string {
	runes := []rune(name)
	if len(runes) > constants.MaxSheetNameLen {
		return string(runes[:constants.MaxSheetNameLen])
	}
	return name
}

// formatSample renders a leaf sample value for its worksheet cell. Nulls
// become empty cells; numbers keep their literal form.
func formatSample(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
