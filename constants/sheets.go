package constants

// Workbook sheet names expected in the integration template.
const (
	TemplateSheet         = "API Template"
	MasterListSheet       = "SF Master Table List"
	MasterDictionarySheet = "SF Master Data Dictionary"
	DropdownMappingSheet  = "SF DropdownList Mapping"
	DictionarySheet       = "Simple EC Data API Dictionary"
)

// MaxSheetNameLen is the platform limit for worksheet names.
const MaxSheetNameLen = 31

// Master job list column positions (0-based, matching the template layout).
const (
	MasterColAPIName      = 1
	MasterColEntity       = 2
	MasterColIntroduction = 4
	MasterColEndpoint     = 5
	MasterColTrigger      = 8
	MasterColDataFlow     = 9
	MasterColSample       = 11
	MasterColSystem       = 13
	MasterColCategory     = 14
)

// Job list filter values.
const (
	SystemFilter   = "SuccessFactors"
	CategoryFilter = "API Resource"
)

// Per-entity sheet anchors.
const (
	CellAPIName      = "A1"
	CellDataFlow     = "B2"
	CellTrigger      = "B3"
	CellStartEntity  = "B4"
	CellIntroduction = "B5"
	CellEndpoint     = "B6"
	CellSample       = "B12"

	// FieldStartRow is the first row of the per-field table; columns run
	// B..K: field, entity, path, sample value, label, type, key, required,
	// picklist, max length.
	FieldStartRow = 14
	FieldStartCol = 2
)
