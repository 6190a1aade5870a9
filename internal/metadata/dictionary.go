package metadata

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/hris-tools/sf-apidoc/constants"
)

// FieldRow is one line of the field dictionary, identified by (Entity, Name).
// Values are the raw metadata attribute strings ("Null" when the attribute
// was absent from the element).
type FieldRow struct {
	Entity          string
	Name            string
	Label           string
	Type            string
	Key             string
	Required        string
	Picklist        string
	MaxLength       string
	NavigationField string
	Creatable       string
	Updatable       string
	Visible         string
	Filterable      string
	Sortable        string
	Upsertable      string
}

// Columns is the dictionary sheet header, in write order.
var Columns = []string{
	"Entity", "Name", "label", "Type", "Key", "required", "picklist", "MaxLength",
	"NavigationField", "creatable", "updatable", "visible", "filterable", "sortable", "upsertable",
}

func (r FieldRow) cells() []string {
	return []string{
		r.Entity, r.Name, r.Label, r.Type, r.Key, r.Required, r.Picklist, r.MaxLength,
		r.NavigationField, r.Creatable, r.Updatable, r.Visible, r.Filterable, r.Sortable, r.Upsertable,
	}
}

type rowKey struct {
	entity string
	name   string
}

// Dictionary holds the sorted rows plus the two lookup indexes: exact
// (entity, name), and a by-name fallback populated in row order.
type Dictionary struct {
	rows   []FieldRow
	exact  map[rowKey]int
	byName map[string]int
}

// NewDictionary indexes rows as given. Both indexes are last-write-wins over
// the input order; for the by-name fallback this means a field name shared by
// several entities resolves to the row of whichever entity came last, with no
// further tie-break.
func NewDictionary(rows []FieldRow) *Dictionary {
	d := &Dictionary{
		rows:   rows,
		exact:  make(map[rowKey]int, len(rows)),
		byName: make(map[string]int, len(rows)),
	}
	for i, r := range rows {
		d.exact[rowKey{r.Entity, r.Name}] = i
		d.byName[r.Name] = i
	}
	return d
}

// Rows returns the dictionary rows in sorted order.
func (d *Dictionary) Rows() []FieldRow {
	return d.rows
}

// Lookup resolves field metadata: exact (entity, name) first, then by field
// name alone across all entities.
func (d *Dictionary) Lookup(entity, name string) (FieldRow, bool) {
	if i, ok := d.exact[rowKey{entity, name}]; ok {
		return d.rows[i], true
	}
	if i, ok := d.byName[name]; ok {
		return d.rows[i], true
	}
	return FieldRow{}, false
}

// SaveXLSX writes the dictionary to a standalone workbook.
func (d *Dictionary) SaveXLSX(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if index, _ := f.GetSheetIndex(constants.DictionarySheet); index == -1 {
		if _, err := f.NewSheet(constants.DictionarySheet); err != nil {
			return err
		}
	}
	activeIndex, _ := f.GetSheetIndex(constants.DictionarySheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(constants.DictionarySheet, cell, h)
	}
	for i, row := range d.rows {
		for j, v := range row.cells() {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = f.SetCellValue(constants.DictionarySheet, cell, v)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save dictionary workbook: %w", err)
	}
	return nil
}
