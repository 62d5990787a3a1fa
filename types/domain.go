package types

import "time"

// Provider identifies one of the supported LLM providers.
type Provider string

const (
	ProviderGemini       Provider = "gemini"
	ProviderOpenAI       Provider = "openai"
	ProviderAnthropic    Provider = "anthropic"
	ProviderAzureOpenAI  Provider = "azure_openai"
)

// FeatureID identifies one of the recognized AI feature toggles.
type FeatureID string

const (
	FeatureSuggestions   FeatureID = "ai_suggestions"
	FeatureAnomalyAlerts FeatureID = "ai_anomaly_alerts"
	FeaturePayrollForecast FeatureID = "ai_payroll_forecast"
	FeatureNLPEntry      FeatureID = "ai_nlp_entry"
	FeatureReportSummaries FeatureID = "ai_report_summaries"
	FeatureTaskEstimation FeatureID = "ai_task_estimation"
)

// ProviderCredential is a stored, encrypted API key for one provider.
// The cleartext key exists only transiently in memory after Decrypt.
type ProviderCredential struct {
	ID           string
	Provider     Provider
	EncryptedBlob string
	Preview      string
	Label        string
	Active       bool
	UsageCount   int64
	LastUsedAt   *time.Time
	CreatedBy    string
	CreatedAt    time.Time
}

// FeatureSetting is the global, admin-controlled toggle for one feature.
type FeatureSetting struct {
	FeatureID          FeatureID
	DisplayName        string
	Description        string
	Enabled            bool
	RequiresCredential bool
	ProviderHint       Provider
	ConfigBlob         string
	UpdatedBy          string
	UpdatedAt          time.Time
}

// UserFeaturePreference is a per-user self-service (or admin-overridden)
// toggle for one feature. (UserID, FeatureID) is unique.
type UserFeaturePreference struct {
	UserID         string
	FeatureID      FeatureID
	Enabled        bool
	AdminOverride  bool
	OverrideBy     string
}

// UsageRecord is an append-only log entry for one served request.
type UsageRecord struct {
	ID              string
	UserID          string
	FeatureID       FeatureID
	Provider        Provider
	Tokens          int
	EstimatedCost   float64
	RequestAt       time.Time
	LatencyMs       int64
	Success         bool
	ErrorMessage    string
	MetadataJSON    string
}

// Severity orders findings. Use SeverityRank for comparisons; the zero
// value is not a valid severity.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// SeverityRank returns a sort weight where critical sorts first.
// critical < warning < info, matching spec's stated ordering.
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	default:
		return 3
	}
}

// FindingType enumerates the kinds of anomaly a detector can emit.
type FindingType string

const (
	FindingExtendedDay          FindingType = "extended_day"
	FindingConsecutiveLongDays  FindingType = "consecutive_long_days"
	FindingWeekendSpike         FindingType = "weekend_spike"
	FindingMissingTime          FindingType = "missing_time"
	FindingDuplicateEntry       FindingType = "duplicate_entry"
	FindingBurnoutRisk          FindingType = "burnout_risk"
	FindingStatisticalOutlier   FindingType = "statistical_outlier"
	FindingPatternDeviation     FindingType = "pattern_deviation"
	FindingBehavioralChange     FindingType = "behavioral_change"
	FindingWorkloadImbalance    FindingType = "workload_imbalance"
	FindingTimePatternAnomaly   FindingType = "time_pattern_anomaly"
)

// Finding is one anomaly-detector result.
type Finding struct {
	Type           FindingType
	Severity       Severity
	UserID         string
	Description    string
	DetectedAt     time.Time
	Details        map[string]any
	Recommendation string
	Confidence     float64
}

// Trend labels the direction of a forecast.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendStable     Trend = "stable"
	TrendDecreasing Trend = "decreasing"
)

// Interval is a 95% confidence interval around a point estimate.
type Interval struct {
	Lower float64
	Upper float64
}

// Forecast is the common shape shared by payroll, budget, and cash-flow
// projections — each carries a point estimate, a confidence, an
// interval, a trend, and contributing-factor notes.
type Forecast struct {
	PointEstimate float64
	Confidence    float64
	Interval      Interval
	Trend         Trend
	Factors       []string
}

// RiskLevel grades how urgently a forecast warrants attention.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskRank orders risk levels so critical sorts first.
func RiskRank(r RiskLevel) int {
	switch r {
	case RiskCritical:
		return 0
	case RiskHigh:
		return 1
	case RiskMedium:
		return 2
	case RiskLow:
		return 3
	default:
		return 4
	}
}

// ConfidenceLevel buckets a ParseResult's numeric confidence.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// LevelForConfidence buckets a [0,1] confidence score per spec thresholds:
// high >= 0.8, medium >= 0.5, else low.
func LevelForConfidence(c float64) ConfidenceLevel {
	switch {
	case c >= 0.8:
		return ConfidenceHigh
	case c >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Entity is one extracted piece of structured information from free text,
// e.g. {Type: "duration", Value: "2 hours", Span: [4,11]}.
type Entity struct {
	Type  string
	Value string
	Start int
	End   int
}

// ParseResult is the structured output of NLParser.Parse.
type ParseResult struct {
	OriginalText        string
	ProjectID           string
	TaskID               string
	DurationSeconds      int
	StartTime            *time.Time
	EndTime              *time.Time
	Description          string
	Confidence           float64
	ConfidenceLevel      ConfidenceLevel
	NeedsClarification   bool
	ClarificationPrompt  string
	Entities             []Entity
	Suggestions          []string
}

// CandidateSource records provenance on a suggestion candidate so tests
// and UIs can reason about where a value came from.
type CandidateSource string

const (
	SourcePattern CandidateSource = "pattern"
	SourceRecent  CandidateSource = "recent"
	SourceAI      CandidateSource = "ai"
)

// SuggestionCandidate is one ranked project/task suggestion.
type SuggestionCandidate struct {
	ProjectID           string
	ProjectName          string
	TaskID               string
	TaskName             string
	SuggestedDescription string
	Confidence           float64
	Reason               string
	Source               CandidateSource
}
