// Package cultivation contains the core types for the cultivation consistency calculator.
package cultivation

// ============================================
// ENUMERATED INPUTS
// ============================================

// SpiritualRoot is the enumerated talent class of a character.
type SpiritualRoot string

const (
	RootWaste    SpiritualRoot = "waste"    // five elements
	RootMixed    SpiritualRoot = "mixed"    // four elements
	RootTriple   SpiritualRoot = "triple"   // three elements
	RootDual     SpiritualRoot = "dual"     // two elements
	RootHeavenly SpiritualRoot = "heavenly" // single element
)

// rootCoefficients maps root types to conversion coefficients (larger is better).
// Each is the reciprocal of the root's classic cost divisor.
var rootCoefficients = map[SpiritualRoot]float64{
	RootWaste:    1 / 1.0,
	RootMixed:    1 / 0.9,
	RootTriple:   1 / 0.8,
	RootDual:     1 / 0.6,
	RootHeavenly: 1 / 0.3,
}

// ValidSpiritualRoots returns all root types, weakest first.
func ValidSpiritualRoots() []SpiritualRoot {
	return []SpiritualRoot{RootWaste, RootMixed, RootTriple, RootDual, RootHeavenly}
}

// IsValid checks if the root is a known root type.
func (r SpiritualRoot) IsValid() bool {
	_, ok := rootCoefficients[r]
	return ok
}

// Coefficient returns the conversion coefficient for the root type.
// Unknown and empty roots are treated as waste roots.
func (r SpiritualRoot) Coefficient() float64 {
	if c, ok := rootCoefficients[r]; ok {
		return c
	}
	return rootCoefficients[RootWaste]
}

// Grade is the quality tier of a resource source.
type Grade string

const (
	GradeInferior Grade = "inferior"
	GradeMedium   Grade = "medium"
	GradeSuperior Grade = "superior"
	GradeExtreme  Grade = "extreme"
)

// ValidGrades returns all grades in ascending order.
func ValidGrades() []Grade {
	return []Grade{GradeInferior, GradeMedium, GradeSuperior, GradeExtreme}
}

// IsValid checks if the grade is a known grade.
func (g Grade) IsValid() bool {
	return g.Rank() >= 0
}

// Rank returns the 0-based tier of the grade, or -1 for unknown grades.
func (g Grade) Rank() int {
	for i, valid := range ValidGrades() {
		if g == valid {
			return i
		}
	}
	return -1
}

// SourceType identifies a resource source.
type SourceType string

const (
	SourceMine  SourceType = "mine"
	SourcePlant SourceType = "plant"
)

// ============================================
// PARAMETER TYPES
// ============================================

// CultivationParams are the inputs of the conversion-rate dimension (resource cost).
type CultivationParams struct {
	BaseCost             float64 `json:"base_cost" yaml:"base_cost"`
	SmallStageMultiplier float64 `json:"small_stage_multiplier" yaml:"small_stage_multiplier"`
	LargeStageMultiplier float64 `json:"large_stage_multiplier" yaml:"large_stage_multiplier"`
	FirstStageSubCount   int     `json:"first_stage_sub_count" yaml:"first_stage_sub_count"`
	BaseAbsorptionHours  float64 `json:"base_absorption_hours" yaml:"base_absorption_hours"` // hours to absorb one base stone
	TechniqueQuality     float64 `json:"technique_quality" yaml:"technique_quality"`

	SpiritualRoot SpiritualRoot `json:"spiritual_root,omitempty" yaml:"spiritual_root,omitempty"`
	// SpiritualRootCoefficient overrides the coefficient of SpiritualRoot when non-zero.
	SpiritualRootCoefficient float64 `json:"spiritual_root_coefficient,omitempty" yaml:"spiritual_root_coefficient,omitempty"`

	FoundationTransitionMultiplier *float64 `json:"foundation_transition_multiplier,omitempty" yaml:"foundation_transition_multiplier,omitempty"`
	ResourceGradeStepMultiplier    *float64 `json:"resource_grade_step_multiplier,omitempty" yaml:"resource_grade_step_multiplier,omitempty"`
}

// AbsorptionParams are the inputs of the absorption dimension (time cost).
type AbsorptionParams struct {
	Comprehension float64 `json:"comprehension" yaml:"comprehension"`
	Physique      float64 `json:"physique" yaml:"physique"`
	Environment   float64 `json:"environment" yaml:"environment"`
	Retreat       float64 `json:"retreat" yaml:"retreat"`
	Epiphany      float64 `json:"epiphany" yaml:"epiphany"`
}

// Params combines both parameter dimensions.
type Params struct {
	CultivationParams `yaml:",inline"`
	AbsorptionParams  `yaml:",inline"`
}

// ResolvedRootCoefficient returns the override coefficient if set, else the root type's.
func (p CultivationParams) ResolvedRootCoefficient() float64 {
	if p.SpiritualRootCoefficient != 0 {
		return p.SpiritualRootCoefficient
	}
	return p.SpiritualRoot.Coefficient()
}

// GradeStep returns the per-grade output step, defaulting to DefaultGradeStep.
func (p CultivationParams) GradeStep() float64 {
	if p.ResourceGradeStepMultiplier != nil {
		return *p.ResourceGradeStepMultiplier
	}
	return DefaultGradeStep
}

// DefaultGradeStep is the output ratio between adjacent resource grades.
const DefaultGradeStep = 100

// ResourceSource is one producing source.
type ResourceSource struct {
	Grade Grade `json:"grade" yaml:"grade"`
	Level int   `json:"level" yaml:"level"`
}

// ResourceConfig holds the two independent resource sources.
type ResourceConfig struct {
	Mine  ResourceSource `json:"mine" yaml:"mine"`
	Plant ResourceSource `json:"plant" yaml:"plant"`
}

// ============================================
// LADDER TYPES
// ============================================

// SubStage is one minor step within a stage.
type SubStage struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

// Stage is one major step of the progression ladder.
type Stage struct {
	Name           string     `json:"name"`
	SubStages      []SubStage `json:"sub_stages"`
	LifespanBudget float64    `json:"lifespan_budget"` // cumulative years available up to this stage
}

// ============================================
// RESULT TYPES
// ============================================

// StageStepResult is the computed outcome of advancing through one sub-stage.
type StageStepResult struct {
	StageName     string `json:"stage_name"`
	StageIndex    int    `json:"stage_index"`
	SubStageName  string `json:"sub_stage_name"`
	SubStageIndex int    `json:"sub_stage_index"`

	Cost           float64 `json:"cost"`
	CumulativeCost float64 `json:"cumulative_cost"`

	TheoreticalDuration           float64 `json:"theoretical_duration"`
	CumulativeTheoreticalDuration float64 `json:"cumulative_theoretical_duration"`
	ResourceDuration              float64 `json:"resource_duration"`
	CumulativeResourceDuration    float64 `json:"cumulative_resource_duration"`
	BottleneckRatio               float64 `json:"bottleneck_ratio"`

	LifespanRemaining float64 `json:"lifespan_remaining"`
	LifespanExceeded  bool    `json:"lifespan_exceeded"`
}

// FullName returns the stage and sub-stage names joined, e.g. "Core Formation Peak".
func (r StageStepResult) FullName() string {
	return r.StageName + " " + r.SubStageName
}

// StageSummary aggregates the sub-stage results of one stage.
type StageSummary struct {
	StageName                string            `json:"stage_name"`
	LifespanBudget           float64           `json:"lifespan_budget"`
	TotalCost                float64           `json:"total_cost"`
	TotalTheoreticalDuration float64           `json:"total_theoretical_duration"`
	TotalResourceDuration    float64           `json:"total_resource_duration"`
	Completed                bool              `json:"completed"` // false when the walk halted inside this stage
	Steps                    []StageStepResult `json:"steps"`
}

// ResourceSummary compares the largest single breakthrough against production.
type ResourceSummary struct {
	MineOutput    float64 `json:"mine_output"`
	PlantOutput   float64 `json:"plant_output"`
	MaxSingleCost float64 `json:"max_single_cost"`
	MaxCostStage  string  `json:"max_cost_stage"`
	IsSufficient  bool    `json:"is_sufficient"`
}

// CalculationResult is the full outcome of one ladder walk.
type CalculationResult struct {
	ConversionRate      float64           `json:"conversion_rate"`
	AbsorptionRate      float64           `json:"absorption_rate"`
	Stages              []StageSummary    `json:"stages"`
	Steps               []StageStepResult `json:"steps"`
	Alerts              []Alert           `json:"alerts"`
	TotalDuration       float64           `json:"total_duration"` // cumulative theoretical years
	HighestStageReached string            `json:"highest_stage_reached"`
	Halted              bool              `json:"halted"`
	Resources           ResourceSummary   `json:"resources"`
}

// ============================================
// ALERT TYPES
// ============================================

// AlertRule identifies the consistency rule that produced an alert.
type AlertRule string

const (
	RuleLifespan    AlertRule = "lifespan"
	RuleResource    AlertRule = "resource"
	RuleBottleneck  AlertRule = "bottleneck"
	RuleExponential AlertRule = "exponential"
)

// Severity orders alerts from informational to fatal.
type Severity string

const (
	SeverityNotice   Severity = "notice"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Rank returns the ordinal of the severity (notice = 0), or -1 if unknown.
func (s Severity) Rank() int {
	switch s {
	case SeverityNotice:
		return 0
	case SeverityWarning:
		return 1
	case SeverityError:
		return 2
	case SeverityCritical:
		return 3
	default:
		return -1
	}
}

// GlobalStageName is the stage name of alerts not tied to one stage.
const GlobalStageName = "global"

// Alert is a narrative-consistency finding.
type Alert struct {
	Rule      AlertRule `json:"rule"`
	StageName string    `json:"stage_name"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Actual    float64   `json:"actual_value"`
	Threshold float64   `json:"threshold"`
	// TheoreticalBreakdown marks flaws the setting cannot recover from narratively.
	TheoreticalBreakdown bool `json:"is_theoretical_breakdown"`
}

// WorstSeverity returns the highest severity among alerts, or "" if there are none.
func WorstSeverity(alerts []Alert) Severity {
	var worst Severity
	for _, a := range alerts {
		if a.Severity.Rank() > worst.Rank() {
			worst = a.Severity
		}
	}
	return worst
}

// ============================================
// PRESET AND SCHEME TYPES
// ============================================

// DefaultPresetID is the preset used when nothing else is selected.
const DefaultPresetID = "mortal"

// Preset is a named, ready-made parameter set.
type Preset struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Params      Params         `json:"params" yaml:"params"`
	Resource    ResourceConfig `json:"resource" yaml:"resource"`
	Builtin     bool           `json:"builtin" yaml:"-"`
}

// Scheme is a user-saved configuration.
type Scheme struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	CreatedAt int64              `json:"created_at"` // unix milliseconds
	Params    Params             `json:"params"`
	Resource  ResourceConfig     `json:"resource"`
	Overrides Overrides          `json:"overrides"`
	Result    *CalculationResult `json:"result,omitempty"`
}

// SchemeExport is the portable file form of a scheme.
type SchemeExport struct {
	Name       string         `json:"name"`
	Params     Params         `json:"params"`
	Resource   ResourceConfig `json:"resource"`
	ExportedAt string         `json:"exported_at"` // RFC3339
}

// DefaultImportedSchemeName names imported schemes that carry no name.
const DefaultImportedSchemeName = "Imported scheme"

// DefaultBaseAbsorptionHours fills imports that predate the absorption-hours field.
const DefaultBaseAbsorptionHours = 12

// ============================================
// OVERRIDES
// ============================================

// Overrides are per-field custom values layered over a preset or scheme.
// A nil field keeps the base value.
type Overrides struct {
	BaseCost                       *float64       `json:"base_cost,omitempty"`
	SmallStageMultiplier           *float64       `json:"small_stage_multiplier,omitempty"`
	LargeStageMultiplier           *float64       `json:"large_stage_multiplier,omitempty"`
	FirstStageSubCount             *int           `json:"first_stage_sub_count,omitempty"`
	BaseAbsorptionHours            *float64       `json:"base_absorption_hours,omitempty"`
	TechniqueQuality               *float64       `json:"technique_quality,omitempty"`
	SpiritualRoot                  *SpiritualRoot `json:"spiritual_root,omitempty"`
	SpiritualRootCoefficient       *float64       `json:"spiritual_root_coefficient,omitempty"`
	FoundationTransitionMultiplier *float64       `json:"foundation_transition_multiplier,omitempty"`
	ResourceGradeStepMultiplier    *float64       `json:"resource_grade_step_multiplier,omitempty"`

	Comprehension *float64 `json:"comprehension,omitempty"`
	Physique      *float64 `json:"physique,omitempty"`
	Environment   *float64 `json:"environment,omitempty"`
	Retreat       *float64 `json:"retreat,omitempty"`
	Epiphany      *float64 `json:"epiphany,omitempty"`

	MineGrade  *Grade `json:"mine_grade,omitempty"`
	MineLevel  *int   `json:"mine_level,omitempty"`
	PlantGrade *Grade `json:"plant_grade,omitempty"`
	PlantLevel *int   `json:"plant_level,omitempty"`
}

// IsZero reports whether no field is overridden.
func (o Overrides) IsZero() bool {
	return o == Overrides{}
}

// Apply returns copies of params and resource with the overrides merged in.
// The inputs are not modified.
func (o Overrides) Apply(p Params, r ResourceConfig) (Params, ResourceConfig) {
	setF := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	setI := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}

	setF(&p.BaseCost, o.BaseCost)
	setF(&p.SmallStageMultiplier, o.SmallStageMultiplier)
	setF(&p.LargeStageMultiplier, o.LargeStageMultiplier)
	setI(&p.FirstStageSubCount, o.FirstStageSubCount)
	setF(&p.BaseAbsorptionHours, o.BaseAbsorptionHours)
	setF(&p.TechniqueQuality, o.TechniqueQuality)
	if o.SpiritualRoot != nil {
		p.SpiritualRoot = *o.SpiritualRoot
		// A new root type replaces any coefficient inherited from the base.
		p.SpiritualRootCoefficient = 0
	}
	setF(&p.SpiritualRootCoefficient, o.SpiritualRootCoefficient)
	if o.FoundationTransitionMultiplier != nil {
		v := *o.FoundationTransitionMultiplier
		p.FoundationTransitionMultiplier = &v
	}
	if o.ResourceGradeStepMultiplier != nil {
		v := *o.ResourceGradeStepMultiplier
		p.ResourceGradeStepMultiplier = &v
	}

	setF(&p.Comprehension, o.Comprehension)
	setF(&p.Physique, o.Physique)
	setF(&p.Environment, o.Environment)
	setF(&p.Retreat, o.Retreat)
	setF(&p.Epiphany, o.Epiphany)

	if o.MineGrade != nil {
		r.Mine.Grade = *o.MineGrade
	}
	setI(&r.Mine.Level, o.MineLevel)
	if o.PlantGrade != nil {
		r.Plant.Grade = *o.PlantGrade
	}
	setI(&r.Plant.Level, o.PlantLevel)

	return p, r
}

// ============================================
// REQUEST/RESPONSE TYPES
// ============================================

// CalculateRequest selects a base configuration and layers changes over it.
// SchemeID wins over PresetID; with neither the current selection is used.
type CalculateRequest struct {
	PresetID  string          `json:"preset_id,omitempty"`
	SchemeID  string          `json:"scheme_id,omitempty"`
	Params    *Params         `json:"params,omitempty"`
	Resource  *ResourceConfig `json:"resource,omitempty"`
	Overrides *Overrides      `json:"overrides,omitempty"`
}

// CalculateResponse carries either validation errors or a result.
type CalculateResponse struct {
	Errors   []string           `json:"errors,omitempty"`
	Params   Params             `json:"params"`
	Resource ResourceConfig     `json:"resource"`
	Result   *CalculationResult `json:"result,omitempty"`
}

// CoefficientsResponse reports the derived rates without walking the ladder.
type CoefficientsResponse struct {
	Errors                  []string `json:"errors,omitempty"`
	ConversionRate          float64  `json:"conversion_rate"`
	AbsorptionRate          float64  `json:"absorption_rate"`
	ConversionRateFormatted string   `json:"conversion_rate_formatted"`
	AbsorptionRateFormatted string   `json:"absorption_rate_formatted"`
	MineOutput              float64  `json:"mine_output"`
	PlantOutput             float64  `json:"plant_output"`
}

// SaveSchemeRequest stores a resolved configuration under a name.
type SaveSchemeRequest struct {
	Name string `json:"name"`
	CalculateRequest
	// IncludeResult stores the calculation result with the scheme.
	IncludeResult bool `json:"include_result,omitempty"`
}

// CompareRow is one scheme's line in a side-by-side comparison.
type CompareRow struct {
	SchemeID            string   `json:"scheme_id"`
	Name                string   `json:"name"`
	Errors              []string `json:"errors,omitempty"`
	ConversionRate      float64  `json:"conversion_rate"`
	AbsorptionRate      float64  `json:"absorption_rate"`
	TotalDuration       float64  `json:"total_duration"`
	HighestStageReached string   `json:"highest_stage_reached"`
	AlertCount          int      `json:"alert_count"`
	WorstSeverity       Severity `json:"worst_severity"`
	IsSufficient        bool     `json:"is_sufficient"`
}

// CurrentSelection is the stored "what is on screen" state.
type CurrentSelection struct {
	PresetID  string    `json:"preset_id"`
	Overrides Overrides `json:"overrides"`
}

// CurrentResponse is the current selection with its resolved configuration.
type CurrentResponse struct {
	PresetID  string         `json:"preset_id"`
	Overrides Overrides      `json:"overrides"`
	Params    Params         `json:"params"`
	Resource  ResourceConfig `json:"resource"`
}
