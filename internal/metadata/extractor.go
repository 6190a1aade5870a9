// Package metadata builds the per-field dictionary from OData $metadata
// documents. One fetch per entity set; entities whose metadata cannot be
// fetched or parsed are skipped and contribute no rows.
package metadata

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/hris-tools/sf-apidoc/constants"
	"github.com/hris-tools/sf-apidoc/internal/sfclient"
)

// Extractor downloads and parses entity metadata.
type Extractor struct {
	client  *sfclient.Client
	baseURL string // e.g. https://api44.sapsf.com
	logger  *slog.Logger
}

func NewExtractor(client *sfclient.Client, baseURL string, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{client: client, baseURL: strings.TrimSuffix(baseURL, "/"), logger: logger}
}

// BuildDictionary fetches $metadata for every entity set and flattens the
// schema into the sorted field dictionary.
func (e *Extractor) BuildDictionary(ctx context.Context, entitySets []string) *Dictionary {
	var types []entityType
	for _, entity := range entitySets {
		url := fmt.Sprintf("%s/odata/v2/%s/$metadata", e.baseURL, entity)
		e.logger.Info("metadata.fetch", "entity", entity)

		body, status, err := e.client.Get(ctx, url)
		if err != nil {
			e.logger.Warn("metadata.fetch_failed", "entity", entity, "error", err)
			continue
		}
		if status != http.StatusOK {
			e.logger.Warn("metadata.fetch_failed", "entity", entity, "status", status)
			continue
		}

		parsed, err := parseEntityTypes(body)
		if err != nil {
			e.logger.Warn("metadata.parse_failed", "entity", entity, "error", err)
			continue
		}
		types = append(types, parsed...)
	}

	rows := buildRows(types)
	sortRows(rows)
	return NewDictionary(rows)
}

// entityType is one EntityType element of the SFOData schema.
type entityType struct {
	name  string
	keys  map[string]struct{}
	props []propertyElem
}

// propertyElem is a Property or NavigationProperty element with its raw
// attribute list.
type propertyElem struct {
	attrs      []xml.Attr
	navigation bool
}

// parseEntityTypes walks the EDMX document and collects entity types from the
// schema whose Namespace is the platform identifier.
func parseEntityTypes(data []byte) ([]entityType, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		types       []entityType
		depth       int
		schemaDepth int // 0 while outside the SFOData schema
		cur         *entityType
		inKey       bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode metadata xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "Schema":
				if schemaDepth == 0 && rawAttr(t.Attr, "Namespace") == constants.SchemaNamespace {
					schemaDepth = depth
				}
			case "EntityType":
				if schemaDepth != 0 {
					types = append(types, entityType{
						name: rawAttrOr(t.Attr, "Name", "Null"),
						keys: make(map[string]struct{}),
					})
					cur = &types[len(types)-1]
				}
			case "Key":
				inKey = cur != nil
			case "PropertyRef":
				if inKey {
					if name := rawAttr(t.Attr, "Name"); name != "" {
						cur.keys[name] = struct{}{}
					}
				}
			case "Property":
				if cur != nil {
					cur.props = append(cur.props, propertyElem{attrs: t.Attr})
				}
			case "NavigationProperty":
				if cur != nil {
					cur.props = append(cur.props, propertyElem{attrs: t.Attr, navigation: true})
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "Schema":
				if depth == schemaDepth {
					schemaDepth = 0
				}
			case "EntityType":
				cur = nil
			case "Key":
				inKey = false
			}
			depth--
		}
	}
	return types, nil
}

// buildRows does the two-pass flattening: first the attribute-name superset
// across every property element, then one row per element over that column
// set plus the synthetic Key/Entity/NavigationField columns.
func buildRows(types []entityType) []FieldRow {
	attrSet := make(map[string]struct{})
	for _, et := range types {
		for _, p := range et.props {
			for _, a := range p.attrs {
				attrSet[a.Name.Local] = struct{}{}
			}
		}
	}
	attrNames := make([]string, 0, len(attrSet))
	for name := range attrSet {
		attrNames = append(attrNames, name)
	}
	sort.Strings(attrNames)

	var rows []FieldRow
	for _, et := range types {
		for _, p := range et.props {
			cells := make(map[string]string, len(attrNames))
			for _, attr := range attrNames {
				cells[attr] = lookupAttr(p.attrs, attr)
			}

			key := "false"
			if !p.navigation {
				if _, ok := et.keys[rawAttr(p.attrs, "Name")]; ok {
					key = "true"
				}
			}
			rows = append(rows, FieldRow{
				Entity:          et.name,
				Name:            cells["Name"],
				Label:           cells["label"],
				Type:            cells["Type"],
				Key:             key,
				Required:        cells["required"],
				Picklist:        cells["picklist"],
				MaxLength:       cells["MaxLength"],
				NavigationField: fmt.Sprintf("%t", p.navigation),
				Creatable:       cells["creatable"],
				Updatable:       cells["updatable"],
				Visible:         cells["visible"],
				Filterable:      cells["filterable"],
				Sortable:        cells["sortable"],
				Upsertable:      cells["upsertable"],
			})
		}
	}
	return rows
}

// attrCandidates is the ordered lookup chain for one logical attribute name:
// bare, sap-prefixed, fully namespaced. First hit wins.
func attrCandidates(name string) []xml.Name {
	return []xml.Name{
		{Local: name},
		{Space: "sap", Local: name},
		{Space: constants.SAPNamespace, Local: name},
	}
}

func lookupAttr(attrs []xml.Attr, name string) string {
	for _, want := range attrCandidates(name) {
		for _, a := range attrs {
			if a.Name == want {
				return a.Value
			}
		}
	}
	return "Null"
}

// rawAttr reads an attribute by exact local name with no namespace, "" on miss.
func rawAttr(attrs []xml.Attr, name string) string {
	for _, a := range attrs {
		if a.Name.Local == name && a.Name.Space == "" {
			return a.Value
		}
	}
	return ""
}

func rawAttrOr(attrs []xml.Attr, name, fallback string) string {
	if v := rawAttr(attrs, name); v != "" {
		return v
	}
	return fallback
}

// sortRows orders the dictionary: Entity asc, Name asc, Key desc, required
// desc, with "true" sorting before anything else in the boolean columns.
func sortRows(rows []FieldRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Entity != b.Entity {
			return a.Entity < b.Entity
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if ra, rb := truthRank(a.Key), truthRank(b.Key); ra != rb {
			return ra > rb
		}
		return truthRank(a.Required) > truthRank(b.Required)
	})
}

func truthRank(v string) int {
	if strings.EqualFold(v, "true") {
		return 1
	}
	return 0
}
