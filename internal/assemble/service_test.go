package assemble

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/hris-tools/sf-apidoc/constants"
	"github.com/hris-tools/sf-apidoc/internal/flatten"
	"github.com/hris-tools/sf-apidoc/internal/jobs"
	"github.com/hris-tools/sf-apidoc/internal/metadata"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixtureWorkbook(t *testing.T) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	for _, sheet := range []string{
		constants.TemplateSheet,
		constants.MasterListSheet,
		constants.MasterDictionarySheet,
		constants.DropdownMappingSheet,
	} {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("create sheet %s: %v", sheet, err)
		}
	}

	setRow(t, f, constants.MasterDictionarySheet, 1, "Entity", "Field", "Description")
	setRow(t, f, constants.MasterDictionarySheet, 2, "User", "status", "employment status")
	setRow(t, f, constants.MasterDictionarySheet, 3, "User", "neverQueried", "unused row")

	setRow(t, f, constants.DropdownMappingSheet, 1, "Entity", "Name", "Picklist")
	setRow(t, f, constants.DropdownMappingSheet, 2, "User", "status", "ecUserStatus")
	setRow(t, f, constants.DropdownMappingSheet, 3, "EmpJob", "company", "companyList")
	return f
}

func setRow(t *testing.T, f *excelize.File, sheet string, row int, values ...any) {
	t.Helper()
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		t.Fatalf("cell name: %v", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		t.Fatalf("set row: %v", err)
	}
}

func fixtureDictionary() *metadata.Dictionary {
	return metadata.NewDictionary([]metadata.FieldRow{
		{
			Entity: "User", Name: "status", Label: "Status", Type: "Edm.String",
			Key: "false", Required: "true", Picklist: "ecUserStatus", MaxLength: "32",
		},
	})
}

func parseDoc(t *testing.T, raw string) flatten.Value {
	t.Helper()
	doc, err := flatten.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestWriteJobSheet_HeaderAndFieldRows(t *testing.T) {
	f := fixtureWorkbook(t)
	svc := NewService(f, fixtureDictionary(), testLogger())

	job := jobs.Job{
		RowIndex:     2,
		Entity:       "User",
		APIName:      "User Query",
		Introduction: "basic user read",
		Trigger:      "nightly sync",
		DataFlow:     "SF -> HRIS",
	}
	doc := parseDoc(t, `{"d":{"results":[{"status":"active","unknownField":7}]}}`)

	if err := svc.WriteJobSheet(job, "https://api44.sapsf.com/odata/v2/User", doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	get := func(cell string) string {
		v, err := f.GetCellValue("User Query", cell)
		if err != nil {
			t.Fatalf("read %s: %v", cell, err)
		}
		return v
	}
	if get(constants.CellAPIName) != "User Query" {
		t.Errorf("A1: got %q", get(constants.CellAPIName))
	}
	if get(constants.CellStartEntity) != "User" {
		t.Errorf("B4: got %q", get(constants.CellStartEntity))
	}
	if get(constants.CellEndpoint) != "https://api44.sapsf.com/odata/v2/User" {
		t.Errorf("B6: got %q", get(constants.CellEndpoint))
	}
	if sample := get(constants.CellSample); !strings.Contains(sample, `"status": "active"`) {
		t.Errorf("B12 sample missing field: %q", sample)
	}

	// First field row: resolved metadata columns.
	if get("B14") != "status" || get("C14") != "User" || get("D14") != "d.results[].status" {
		t.Errorf("field row identity cells: %q %q %q", get("B14"), get("C14"), get("D14"))
	}
	if get("E14") != "active" || get("F14") != "Status" || get("I14") != "true" || get("K14") != "32" {
		t.Errorf("field row metadata cells: %q %q %q %q", get("E14"), get("F14"), get("I14"), get("K14"))
	}

	// Second field row: no dictionary match leaves metadata blank.
	if get("B15") != "unknownField" || get("E15") != "7" || get("F15") != "" {
		t.Errorf("unmatched field row cells: %q %q %q", get("B15"), get("E15"), get("F15"))
	}

	// Sample written back to the master job list row.
	master, err := f.GetCellValue(constants.MasterListSheet, "L2")
	if err != nil || !strings.Contains(master, `"status": "active"`) {
		t.Errorf("master write-back: %q err=%v", master, err)
	}
}

func TestWriteJobSheet_ReplacesExistingSheet(t *testing.T) {
	f := fixtureWorkbook(t)
	svc := NewService(f, fixtureDictionary(), testLogger())
	job := jobs.Job{RowIndex: 2, Entity: "User", APIName: "User Query"}
	doc := parseDoc(t, `{"d":{"results":[{"status":"active"}]}}`)

	if err := svc.WriteJobSheet(job, "https://x", doc); err != nil {
		t.Fatalf("first write: %v", err)
	}
	before := len(f.GetSheetList())
	if err := svc.WriteJobSheet(job, "https://x", doc); err != nil {
		t.Fatalf("second write: %v", err)
	}
	if after := len(f.GetSheetList()); after != before {
		t.Errorf("sheet count changed on replace: %d -> %d", before, after)
	}
}

func TestWriteJobSheet_SheetNameFromEntityAndTruncation(t *testing.T) {
	f := fixtureWorkbook(t)
	svc := NewService(f, fixtureDictionary(), testLogger())

	long := strings.Repeat("x", 40)
	job := jobs.Job{RowIndex: 2, Entity: long, APIName: ""}
	if err := svc.WriteJobSheet(job, "https://x", parseDoc(t, `{}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := strings.Repeat("x", constants.MaxSheetNameLen)
	if idx, _ := f.GetSheetIndex(want); idx == -1 {
		t.Errorf("expected sheet %q to exist", want)
	}
}

func TestCleanup_PrunesUnreferencedRows(t *testing.T) {
	f := fixtureWorkbook(t)
	svc := NewService(f, fixtureDictionary(), testLogger())
	job := jobs.Job{RowIndex: 2, Entity: "User", APIName: "User Query"}
	doc := parseDoc(t, `{"d":{"results":[{"status":"active"}]}}`)

	if err := svc.WriteJobSheet(job, "https://x", doc); err != nil {
		t.Fatalf("write sheet: %v", err)
	}
	svc.Cleanup()

	dictRows, err := f.GetRows(constants.MasterDictionarySheet)
	if err != nil {
		t.Fatalf("read dictionary sheet: %v", err)
	}
	if len(dictRows) != 2 {
		t.Fatalf("expected header + 1 kept row, got %d rows", len(dictRows))
	}
	if dictRows[0][0] != "Entity" || dictRows[1][1] != "status" {
		t.Errorf("unexpected surviving rows: %v", dictRows)
	}

	dropRows, err := f.GetRows(constants.DropdownMappingSheet)
	if err != nil {
		t.Fatalf("read dropdown sheet: %v", err)
	}
	if len(dropRows) != 2 || dropRows[1][0] != "User" {
		t.Errorf("dropdown sheet: %v", dropRows)
	}
}

func TestCleanup_MissingKeyColumnLeavesSheetUntouched(t *testing.T) {
	f := fixtureWorkbook(t)
	// Rewrite the dictionary header without the Field column.
	setRow(t, f, constants.MasterDictionarySheet, 1, "Entity", "SomethingElse", "Description")

	svc := NewService(f, fixtureDictionary(), testLogger())
	svc.Cleanup()

	rows, err := f.GetRows(constants.MasterDictionarySheet)
	if err != nil {
		t.Fatalf("read dictionary sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("expected sheet untouched with 3 rows, got %d", len(rows))
	}
}

func TestCleanup_MissingSheetIsSkipped(t *testing.T) {
	f := excelize.NewFile()
	svc := NewService(f, fixtureDictionary(), testLogger())
	// Must not panic or create the sheets.
	svc.Cleanup()
	if idx, _ := f.GetSheetIndex(constants.MasterDictionarySheet); idx != -1 {
		t.Error("cleanup should not create missing sheets")
	}
}

func TestFormatSample(t *testing.T) {
	doc := parseDoc(t, `{"d":{"results":[{"n":12.50,"b":false,"s":"txt","z":null}]}}`)
	fields := flatten.Fields(doc, "User")

	want := map[string]string{"n": "12.50", "b": "false", "s": "txt", "z": ""}
	for _, fld := range fields {
		if got := formatSample(fld.Value); got != want[fld.Name] {
			t.Errorf("%s: got %q, want %q", fld.Name, got, want[fld.Name])
		}
	}
}
