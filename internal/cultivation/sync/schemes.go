package sync

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/rsned/cultivation-server/pkg/cultivation"
)

// ErrInvalidSchemeFormat is returned for documents that are not scheme exports.
var ErrInvalidSchemeFormat = errors.New("invalid scheme format")

// Field paths are probed in order; the later names are the camelCase
// spellings written by older exports.
var (
	floatParams = []struct {
		paths []string
		set   func(p *cultivation.Params, v float64)
	}{
		{[]string{"base_cost", "baseCost"}, func(p *cultivation.Params, v float64) { p.BaseCost = v }},
		{[]string{"small_stage_multiplier", "smallStageMultiplier", "smallRealmMultiplier"}, func(p *cultivation.Params, v float64) { p.SmallStageMultiplier = v }},
		{[]string{"large_stage_multiplier", "largeStageMultiplier", "largeRealmMultiplier"}, func(p *cultivation.Params, v float64) { p.LargeStageMultiplier = v }},
		{[]string{"base_absorption_hours", "baseAbsorptionHours", "baseAbsorptionRate"}, func(p *cultivation.Params, v float64) { p.BaseAbsorptionHours = v }},
		{[]string{"technique_quality", "techniqueQuality"}, func(p *cultivation.Params, v float64) { p.TechniqueQuality = v }},
		{[]string{"spiritual_root_coefficient", "spiritualRootCoefficient"}, func(p *cultivation.Params, v float64) { p.SpiritualRootCoefficient = v }},
		{[]string{"comprehension"}, func(p *cultivation.Params, v float64) { p.Comprehension = v }},
		{[]string{"physique", "physiqueFactor"}, func(p *cultivation.Params, v float64) { p.Physique = v }},
		{[]string{"environment", "environmentFactor"}, func(p *cultivation.Params, v float64) { p.Environment = v }},
		{[]string{"retreat", "retreatFactor"}, func(p *cultivation.Params, v float64) { p.Retreat = v }},
		{[]string{"epiphany", "epiphanyFactor"}, func(p *cultivation.Params, v float64) { p.Epiphany = v }},
	}
	optionalParams = []struct {
		paths []string
		set   func(p *cultivation.Params, v *float64)
	}{
		{[]string{"foundation_transition_multiplier", "foundationTransitionMultiplier", "foundationBuildingMultiplier"}, func(p *cultivation.Params, v *float64) { p.FoundationTransitionMultiplier = v }},
		{[]string{"resource_grade_step_multiplier", "resourceGradeStepMultiplier", "mediumGradeMultiplier"}, func(p *cultivation.Params, v *float64) { p.ResourceGradeStepMultiplier = v }},
	}
)

// DecodeSchemes parses one exported scheme or an array of them.
// Missing absorption hours default to 12 and missing names to
// cultivation.DefaultImportedSchemeName.
func DecodeSchemes(data []byte) ([]cultivation.SchemeExport, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidSchemeFormat)
	}

	root := gjson.ParseBytes(data)
	var docs []gjson.Result
	switch {
	case root.IsArray():
		docs = root.Array()
	case root.IsObject():
		docs = []gjson.Result{root}
	default:
		return nil, fmt.Errorf("%w: expected an object or an array", ErrInvalidSchemeFormat)
	}

	out := make([]cultivation.SchemeExport, 0, len(docs))
	for i, doc := range docs {
		ex, err := decodeScheme(doc)
		if err != nil {
			return nil, fmt.Errorf("scheme %d: %w", i, err)
		}
		out = append(out, ex)
	}
	return out, nil
}

func decodeScheme(doc gjson.Result) (cultivation.SchemeExport, error) {
	var ex cultivation.SchemeExport

	params, resource := doc.Get("params"), doc.Get("resource")
	if !params.IsObject() || !resource.IsObject() {
		return ex, fmt.Errorf("%w: params and resource objects are required", ErrInvalidSchemeFormat)
	}

	ex.Name = doc.Get("name").String()
	if ex.Name == "" {
		ex.Name = cultivation.DefaultImportedSchemeName
	}
	ex.ExportedAt = firstOf(doc, "exported_at", "exportedAt").String()

	for _, f := range floatParams {
		if v := firstOf(params, f.paths...); v.Exists() {
			f.set(&ex.Params, v.Float())
		}
	}
	for _, f := range optionalParams {
		if v := firstOf(params, f.paths...); v.Exists() && v.Type == gjson.Number {
			n := v.Float()
			f.set(&ex.Params, &n)
		}
	}
	ex.Params.FirstStageSubCount = int(firstOf(params, "first_stage_sub_count", "firstStageSubCount", "qiCondensationLayers").Int())
	ex.Params.SpiritualRoot = cultivation.SpiritualRoot(firstOf(params, "spiritual_root", "spiritualRoot", "spiritualRootType").String())

	if ex.Params.BaseAbsorptionHours == 0 {
		ex.Params.BaseAbsorptionHours = cultivation.DefaultBaseAbsorptionHours
	}

	ex.Resource.Mine = decodeSource(resource, "mine")
	ex.Resource.Plant = decodeSource(resource, "plant")

	return ex, nil
}

// decodeSource reads {"mine": {"grade", "level"}} or the flat
// {"mineGrade", "mineLevel"} layout.
func decodeSource(resource gjson.Result, kind string) cultivation.ResourceSource {
	if nested := resource.Get(kind); nested.IsObject() {
		return cultivation.ResourceSource{
			Grade: cultivation.Grade(nested.Get("grade").String()),
			Level: int(nested.Get("level").Int()),
		}
	}
	return cultivation.ResourceSource{
		Grade: cultivation.Grade(firstOf(resource, kind+"_grade", kind+"Grade").String()),
		Level: int(firstOf(resource, kind+"_level", kind+"Level").Int()),
	}
}

func firstOf(doc gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := doc.Get(p); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

// EncodeExport renders a scheme export as indented JSON.
func EncodeExport(ex *cultivation.SchemeExport) ([]byte, error) {
	data, err := json.MarshalIndent(ex, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding scheme export: %w", err)
	}
	return data, nil
}
