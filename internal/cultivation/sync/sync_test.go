package sync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rsned/cultivation-server/internal/cultivation/db"
	"github.com/rsned/cultivation-server/internal/cultivation/engine"
	"github.com/rsned/cultivation-server/pkg/cultivation"
)

func newTestSyncer(t *testing.T) (*Syncer, *engine.Engine, *db.DB) {
	t.Helper()
	database, err := db.OpenAndInit(context.Background(), filepath.Join(t.TempDir(), "sync.db"))
	if err != nil {
		t.Fatalf("OpenAndInit: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	eng := engine.New(database)
	return NewSyncer(database, eng), eng, database
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestDecodeSchemesCurrentLayout(t *testing.T) {
	data := `{
		"name": "Saved",
		"exported_at": "2026-01-02T03:04:05Z",
		"params": {
			"base_cost": 12, "small_stage_multiplier": 2, "large_stage_multiplier": 10,
			"first_stage_sub_count": 12, "base_absorption_hours": 6, "technique_quality": 1.03,
			"spiritual_root": "dual", "foundation_transition_multiplier": 4,
			"comprehension": 1, "physique": 1.5, "environment": 1, "retreat": 1, "epiphany": 2
		},
		"resource": {"mine": {"grade": "medium", "level": 4}, "plant": {"grade": "inferior", "level": 2}}
	}`
	got, err := DecodeSchemes([]byte(data))
	if err != nil {
		t.Fatalf("DecodeSchemes: %v", err)
	}

	four := 4.0
	want := []cultivation.SchemeExport{{
		Name:       "Saved",
		ExportedAt: "2026-01-02T03:04:05Z",
		Params: cultivation.Params{
			CultivationParams: cultivation.CultivationParams{
				BaseCost: 12, SmallStageMultiplier: 2, LargeStageMultiplier: 10,
				FirstStageSubCount: 12, BaseAbsorptionHours: 6, TechniqueQuality: 1.03,
				SpiritualRoot: cultivation.RootDual, FoundationTransitionMultiplier: &four,
			},
			AbsorptionParams: cultivation.AbsorptionParams{Comprehension: 1, Physique: 1.5, Environment: 1, Retreat: 1, Epiphany: 2},
		},
		Resource: cultivation.ResourceConfig{
			Mine:  cultivation.ResourceSource{Grade: cultivation.GradeMedium, Level: 4},
			Plant: cultivation.ResourceSource{Grade: cultivation.GradeInferior, Level: 2},
		},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeSchemes mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeSchemesLegacyLayout(t *testing.T) {
	data := `[{
		"params": {
			"baseCost": 10, "smallRealmMultiplier": 1.5, "largeRealmMultiplier": 5,
			"qiCondensationLayers": 9, "techniqueQuality": 1.2, "spiritualRootType": "triple",
			"mediumGradeMultiplier": 50,
			"comprehension": 1.2, "physiqueFactor": 1.2, "environmentFactor": 1.2,
			"retreatFactor": 1, "epiphanyFactor": 1
		},
		"resource": {"mineType": "mine", "mineGrade": "medium", "mineLevel": 5, "plantGrade": "medium", "plantLevel": 5},
		"exportedAt": "2025-05-05T00:00:00.000Z"
	}]`
	got, err := DecodeSchemes([]byte(data))
	if err != nil {
		t.Fatalf("DecodeSchemes: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	ex := got[0]
	if ex.Name != cultivation.DefaultImportedSchemeName {
		t.Errorf("Name = %q, want default", ex.Name)
	}
	if ex.Params.BaseAbsorptionHours != cultivation.DefaultBaseAbsorptionHours {
		t.Errorf("BaseAbsorptionHours = %v, want default", ex.Params.BaseAbsorptionHours)
	}
	if ex.Params.FirstStageSubCount != 9 || ex.Params.SpiritualRoot != cultivation.RootTriple || ex.Params.Physique != 1.2 {
		t.Errorf("params = %+v", ex.Params)
	}
	if ex.Params.GradeStep() != 50 {
		t.Errorf("GradeStep = %v, want 50", ex.Params.GradeStep())
	}
	if ex.Resource.Mine.Level != 5 || ex.Resource.Plant.Grade != cultivation.GradeMedium {
		t.Errorf("resource = %+v", ex.Resource)
	}
	if ex.ExportedAt != "2025-05-05T00:00:00.000Z" {
		t.Errorf("ExportedAt = %q", ex.ExportedAt)
	}
}

func TestDecodeSchemesInvalid(t *testing.T) {
	tests := map[string]string{
		"not json":     `{"name": `,
		"scalar":       `42`,
		"no params":    `{"name": "x", "resource": {}}`,
		"no resource":  `{"params": {}}`,
		"bad in array": `[{"params": {}, "resource": {}}, {"params": 1, "resource": {}}]`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeSchemes([]byte(data)); !errors.Is(err, ErrInvalidSchemeFormat) {
				t.Errorf("DecodeSchemes error = %v, want ErrInvalidSchemeFormat", err)
			}
		})
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, eng, database := newTestSyncer(t)

	saved, err := eng.SaveScheme(ctx, cultivation.SaveSchemeRequest{
		Name: "Tycoon with a better root",
		CalculateRequest: cultivation.CalculateRequest{
			PresetID:  "tycoon",
			Overrides: &cultivation.Overrides{SpiritualRoot: ptr(cultivation.RootHeavenly)},
		},
	})
	if err != nil {
		t.Fatalf("SaveScheme: %v", err)
	}

	path := filepath.Join(t.TempDir(), "scheme.json")
	if err := s.ExportSchemeToFile(ctx, saved.ID, path); err != nil {
		t.Fatalf("ExportSchemeToFile: %v", err)
	}

	imported, err := s.ImportSchemesFromFile(ctx, path)
	if err != nil {
		t.Fatalf("ImportSchemesFromFile: %v", err)
	}
	if len(imported) != 1 {
		t.Fatalf("imported %d schemes, want 1", len(imported))
	}
	got := imported[0]
	if got.ID == saved.ID || got.Name != saved.Name {
		t.Errorf("imported scheme = %+v", got)
	}

	wantParams, wantRes := saved.Overrides.Apply(saved.Params, saved.Resource)
	if diff := cmp.Diff(wantParams, got.Params); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantRes, got.Resource); diff != "" {
		t.Errorf("resource mismatch (-want +got):\n%s", diff)
	}

	if n, _ := database.GetSyncMetadata(ctx, MetaSchemesCount); n != "1" {
		t.Errorf("%s = %q, want 1", MetaSchemesCount, n)
	}
	if _, err := s.ExportScheme(ctx, "missing"); !errors.Is(err, engine.ErrSchemeNotFound) {
		t.Errorf("ExportScheme(missing) error = %v", err)
	}
}

const customPresets = `
presets:
  - id: sect-elder
    name: Sect Elder
    params:
      base_cost: 15
      small_stage_multiplier: 1.8
      large_stage_multiplier: 8
      first_stage_sub_count: 10
      base_absorption_hours: 10
      technique_quality: 1.5
      spiritual_root: dual
      comprehension: 1.2
      physique: 1.0
      environment: 1.5
      retreat: 1.2
      epiphany: 1.0
    resource:
      mine: {grade: medium, level: 6}
      plant: {grade: medium, level: 4}
`

func TestImportPresetsFromFile(t *testing.T) {
	ctx := context.Background()
	s, eng, database := newTestSyncer(t)

	if err := eng.SeedBuiltinPresets(ctx); err != nil {
		t.Fatalf("SeedBuiltinPresets: %v", err)
	}

	n, err := s.ImportPresetsFromFile(ctx, writeFile(t, "presets.yaml", customPresets))
	if err != nil {
		t.Fatalf("ImportPresetsFromFile: %v", err)
	}
	if n != 1 {
		t.Errorf("imported %d presets, want 1", n)
	}

	p, err := eng.GetPreset(ctx, "sect-elder")
	if err != nil {
		t.Fatalf("GetPreset: %v", err)
	}
	if p.Builtin || p.Params.SpiritualRootCoefficient != cultivation.RootDual.Coefficient() || p.Resource.Mine.Level != 6 {
		t.Errorf("imported preset = %+v", p)
	}
	if got, _ := database.GetSyncMetadata(ctx, MetaPresetsCount); got != "1" {
		t.Errorf("%s = %q, want 1", MetaPresetsCount, got)
	}

	resp, err := eng.Calculate(ctx, cultivation.CalculateRequest{PresetID: "sect-elder"})
	if err != nil || len(resp.Errors) != 0 {
		t.Errorf("Calculate(imported preset) = %+v, %v", resp, err)
	}
}

func TestImportPresetsRejects(t *testing.T) {
	ctx := context.Background()
	s, eng, _ := newTestSyncer(t)
	if err := eng.SeedBuiltinPresets(ctx); err != nil {
		t.Fatalf("SeedBuiltinPresets: %v", err)
	}

	builtinClash := `
presets:
  - id: mortal
    name: Not the real one
    params: {base_cost: 1, small_stage_multiplier: 1, large_stage_multiplier: 1, first_stage_sub_count: 3, base_absorption_hours: 1, technique_quality: 1, comprehension: 1, physique: 1, environment: 1, retreat: 1, epiphany: 1}
    resource: {mine: {grade: inferior, level: 1}, plant: {grade: inferior, level: 1}}
`
	if _, err := s.ImportPresetsFromFile(ctx, writeFile(t, "clash.yaml", builtinClash)); err == nil {
		t.Error("import replaced a built-in preset")
	}

	invalid := `
presets:
  - id: broken
    name: Broken
    params: {base_cost: 0, small_stage_multiplier: 1, large_stage_multiplier: 1, first_stage_sub_count: 3, base_absorption_hours: 1, technique_quality: 1, comprehension: 1, physique: 1, environment: 1, retreat: 1, epiphany: 1}
    resource: {mine: {grade: inferior, level: 1}, plant: {grade: inferior, level: 1}}
`
	_, err := s.ImportPresetsFromFile(ctx, writeFile(t, "invalid.yaml", invalid))
	var verr *engine.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("import error = %v, want ValidationError", err)
	}

	if _, err := s.ImportPresetsFromFile(ctx, filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("import of a missing file succeeded")
	}
}

func ptr[T any](v T) *T { return &v }
