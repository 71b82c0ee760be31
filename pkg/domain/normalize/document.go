package normalize

import (
	"github.com/felixgeelhaar/specaudit/pkg/domain/catalog"
)

// Shape names one of the known specification document layouts.
type Shape int

const (
	ShapeUnknown Shape = iota
	// ShapeFinalized carries category_name and tiered finalized_specs.
	ShapeFinalized
	// ShapeLegacyMCAT carries MCAT_Name and typed Specifications.
	ShapeLegacyMCAT
	// ShapeList is a bare list of specification entries.
	ShapeList
	// ShapeWrapped nests the entry list under specifications.
	ShapeWrapped
)

func (s Shape) String() string {
	switch s {
	case ShapeFinalized:
		return "finalized"
	case ShapeLegacyMCAT:
		return "legacy_mcat"
	case ShapeList:
		return "list"
	case ShapeWrapped:
		return "wrapped"
	default:
		return "unknown"
	}
}

// Document is a specification document classified into exactly one shape.
// The set of implementations is closed; Classify is the only constructor.
type Document interface {
	Shape() Shape
	// Specs decodes the canonical specification list. mcatName is already trimmed.
	Specs(mcatName string) ([]catalog.UploadedSpec, error)
	sealed()
}

// Classify detects the document shape. The first matching shape wins, in the
// order finalized, legacy MCAT, list, wrapped.
func Classify(doc any) Document {
	switch {
	case truthyField(doc, "category_name"):
		return finalizedDocument{
			categoryName: displayString(mustField(doc, "category_name")),
			finalized:    mustField(doc, "finalized_specs"),
		}
	case truthyField(doc, "MCAT_Name") && truthyField(doc, "Specifications"):
		return legacyMCATDocument{entries: list(mustField(doc, "Specifications"))}
	}
	if entries, ok := doc.([]any); ok {
		return listDocument{entries: entries}
	}
	if truthyField(doc, "specifications") {
		return wrappedDocument{listDocument{entries: list(mustField(doc, "specifications"))}}
	}
	return unknownDocument{}
}

// Detect returns the shape Classify would pick for doc.
func Detect(doc any) Shape {
	return Classify(doc).Shape()
}

type finalizedDocument struct {
	categoryName string
	finalized    any
}

var finalizedTiers = []struct {
	key  string
	tier catalog.Tier
}{
	{"finalized_primary_specs", catalog.TierPrimary},
	{"finalized_secondary_specs", catalog.TierSecondary},
	{"finalized_tertiary_specs", catalog.TierTertiary},
}

func (finalizedDocument) Shape() Shape { return ShapeFinalized }

func (finalizedDocument) sealed() {}

func (d finalizedDocument) Specs(mcatName string) ([]catalog.UploadedSpec, error) {
	if !sameCategory(d.categoryName, mcatName) {
		return nil, &NameMismatchError{Expected: d.categoryName, Got: mcatName}
	}

	var specs []catalog.UploadedSpec
	for _, ft := range finalizedTiers {
		group := mustField(d.finalized, ft.key)
		for _, entry := range list(mustField(group, "specs")) {
			name, _ := mustField(entry, "spec_name").(string)
			inputType, _ := mustField(entry, "input_type").(string)
			specs = append(specs, catalog.UploadedSpec{
				SpecName:  name,
				Options:   options(entry),
				InputType: inputType,
				Tier:      ft.tier,
			})
		}
	}
	return specs, nil
}

type legacyMCATDocument struct {
	entries []any
}

// legacyTypeTiers maps the legacy type field to a tier. Other values are Tertiary.
var legacyTypeTiers = map[string]catalog.Tier{
	"Config":  catalog.TierPrimary,
	"Key":     catalog.TierSecondary,
	"Regular": catalog.TierTertiary,
}

func (legacyMCATDocument) Shape() Shape { return ShapeLegacyMCAT }

func (legacyMCATDocument) sealed() {}

func (d legacyMCATDocument) Specs(string) ([]catalog.UploadedSpec, error) {
	specs := make([]catalog.UploadedSpec, 0, len(d.entries))
	for _, entry := range d.entries {
		name, _ := mustField(entry, "name").(string)
		typ, _ := mustField(entry, "type").(string)
		tier, ok := legacyTypeTiers[typ]
		if !ok {
			tier = catalog.TierTertiary
		}
		specs = append(specs, catalog.UploadedSpec{
			SpecName:  name,
			Options:   options(entry),
			InputType: catalog.RadioButton,
			Tier:      tier,
		})
	}
	return specs, nil
}

type listDocument struct {
	entries []any
}

func (listDocument) Shape() Shape { return ShapeList }

func (listDocument) sealed() {}

func (d listDocument) Specs(string) ([]catalog.UploadedSpec, error) {
	specs := make([]catalog.UploadedSpec, 0, len(d.entries))
	for _, entry := range d.entries {
		name, ok := stringField(entry, "spec_name")
		if !ok {
			name, _ = stringField(entry, "name")
		}
		inputType, ok := stringField(entry, "input_type")
		if !ok {
			inputType = catalog.RadioButton
		}
		tierName, _ := mustField(entry, "tier").(string)
		tier, _ := catalog.ParseTier(tierName)
		specs = append(specs, catalog.UploadedSpec{
			SpecName:  name,
			Options:   options(entry),
			InputType: inputType,
			Tier:      tier,
		})
	}
	return specs, nil
}

type wrappedDocument struct {
	listDocument
}

func (wrappedDocument) Shape() Shape { return ShapeWrapped }

type unknownDocument struct{}

func (unknownDocument) Shape() Shape { return ShapeUnknown }

func (unknownDocument) sealed() {}

func (unknownDocument) Specs(string) ([]catalog.UploadedSpec, error) { return nil, nil }
