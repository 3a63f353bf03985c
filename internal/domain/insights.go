package domain

import "time"

// ChronotypeType represents the user's sleep chronotype classification.
// @Description Chronotype classification based on mid-sleep time.
type ChronotypeType string

const (
	ChronotypeEarlyBird    ChronotypeType = "early_bird"
	ChronotypeIntermediate ChronotypeType = "intermediate"
	ChronotypeNightOwl     ChronotypeType = "night_owl"
	ChronotypeUnknown      ChronotypeType = "unknown"
)

// ChronotypeResult contains the computed chronotype and supporting data.
// @Description Chronotype analysis result.
type ChronotypeResult struct {
	// Chronotype classification
	Chronotype ChronotypeType `json:"chronotype" example:"intermediate"`
	// Mid-sleep time in local timezone (HH:MM format)
	MidSleepLocalTime string `json:"mid_sleep_local_time" example:"03:45"`
	// Minutes after midnight for mid-sleep
	MidSleepMinutesAfterMidnight int `json:"mid_sleep_minutes_after_midnight" example:"225"`
	// Number of days in the analysis window
	WindowDays int `json:"window_days" example:"30"`
	// Number of tracked nights used in calculation
	SessionsUsed int `json:"sessions_used" example:"28"`
}

// DescriptiveStats holds basic statistical measures.
// @Description Basic statistical measures for a metric.
type DescriptiveStats struct {
	Avg float64 `json:"avg" example:"7.2"`
	Std float64 `json:"std" example:"0.8"`
	Min float64 `json:"min" example:"5.5"`
	Max float64 `json:"max" example:"9.0"`
}

// NightlyTrends aggregates finalized sessions inside a window.
// @Description Per-night statistics aggregated over a time window.
type NightlyTrends struct {
	// Total sleep in hours
	TotalSleepHours DescriptiveStats `json:"total_sleep_hours"`
	// Sleep efficiency (0-100)
	Efficiency DescriptiveStats `json:"efficiency"`
	// Awakenings per night
	Awakenings DescriptiveStats `json:"awakenings"`
	// Restlessness score (0-100)
	Restlessness DescriptiveStats `json:"restlessness"`
	// Share of sleep spent in deep stage (0-100)
	DeepSharePct DescriptiveStats `json:"deep_share_pct"`
	// Bedtime in minutes after local midnight (values past midnight are > 1440)
	Bedtime DescriptiveStats `json:"bedtime"`
	// Nights where the smart alarm fired before the target time
	SmartWakeCount int `json:"smart_wake_count" example:"12"`
	// Number of nights in this window
	SessionCount int `json:"session_count" example:"28"`
}

// TrendScores contains computed 0-100 scores.
// @Description Derived scores based on nightly trends.
type TrendScores struct {
	// Consistency score based on bedtime variability (0-100)
	ConsistencyScore float64 `json:"consistency_score" example:"75.0"`
	// Sufficiency score based on average total sleep (0-100)
	SufficiencyScore float64 `json:"sufficiency_score" example:"80.0"`
	// Average informational quality score of the nights (0-100)
	QualityScore float64 `json:"quality_score" example:"77.5"`
	// Overall score combining the above (0-100)
	OverallSleepScore float64 `json:"overall_sleep_score" example:"77.5"`
}

// WindowTrends contains all trends for a single time window.
// @Description Complete trends for a time window.
type WindowTrends struct {
	From    time.Time     `json:"from" example:"2024-01-01T00:00:00Z"`
	To      time.Time     `json:"to" example:"2024-01-31T23:59:59Z"`
	Nightly NightlyTrends `json:"nightly"`
	Scores  TrendScores   `json:"scores"`
}

// LLMInsightsOutput contains the structured output from the LLM.
// @Description LLM-generated sleep insights.
type LLMInsightsOutput struct {
	// Summary of sleep patterns (2-3 sentences)
	Summary string `json:"summary" example:"Your sleep has been fairly consistent this week..."`
	// Observations about patterns (3-6 items)
	Observations []string `json:"observations" example:"[\"Deep sleep made up a fifth of the night\"]"`
	// Actionable guidance (3-5 items)
	Guidance []string `json:"guidance" example:"[\"Keep your bedtime around 11 PM\"]"`
}

// InsightsContext is the context object sent to the LLM.
type InsightsContext struct {
	Chronotype ChronotypeResult        `json:"chronotype"`
	History    WindowTrends            `json:"history"`
	Recent     WindowTrends            `json:"recent"`
	LastNight  *SessionMetricsResponse `json:"last_night,omitempty"`
}

// InsightsResponse is the response for the insights endpoint.
// @Description Complete sleep insights response.
type InsightsResponse struct {
	Chronotype ChronotypeResult `json:"chronotype"`
	Trends     struct {
		History WindowTrends `json:"history"`
		Recent  WindowTrends `json:"recent"`
	} `json:"trends"`
	LastNight *SessionMetricsResponse `json:"last_night,omitempty"`
	Insights  LLMInsightsOutput       `json:"insights"`
	// Trace ID of the request, present when tracing is enabled
	TraceID string `json:"trace_id,omitempty" example:"4bf92f3577b34da6a3ce929d0e0e4736"`
}
