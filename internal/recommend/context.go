// Package recommend implements the recommendation engine (C6): a voter-based
// ensemble run in parallel with a timeout, merging weighted votes and
// filtering admissible results, grounded on the original's
// recommendations/ package.
package recommend

// DataQuality mirrors spec §4.6's step_data_quality enum.
type DataQuality string

const (
	QualityUnknown DataQuality = "UNKNOWN"
	QualityBad     DataQuality = "BAD"
	QualityNeutral DataQuality = "NEUTRAL"
	QualityGood    DataQuality = "GOOD"
)

// acceptable reports whether the quality is good enough for
// StepDataRecommender to use step_output_data, per spec §4.6.
func (q DataQuality) acceptable() bool {
	return q == QualityGood || q == QualityNeutral
}

// StepStatus mirrors spec §4.6's step status enum.
type StepStatus string

const (
	StepPending StepStatus = "PENDING"
	StepUnknown StepStatus = "UNKNOWN"
	StepFailure StepStatus = "FAILURE"
	StepSuccess StepStatus = "SUCCESS"
)

// DataItem is one entry of current/step input/output data: a data type and
// content type, with an optional name, per spec §4.6's
// "{data_type, content_type, name?}".
type DataItem struct {
	DataType    string
	ContentType string
	Name        string
}

// Context is the recommendation request's context (`RecommendationContext`),
// a mapping of optional fields, per spec §4.6. Nil/empty fields mean
// "not provided"; pointers distinguish "false" from "unset" for
// StepSuccess.
type Context struct {
	CurrentPlugin *uint

	CurrentData []DataItem

	StepInputData  []DataItem
	StepOutputData []DataItem

	// AvailableData maps a data type to the content types available for it,
	// used by AvailableDataRecommender and the admissibility filter.
	AvailableData map[string][]string

	Experiment string
	// CurrentStep is spec's 1-based step index within Experiment, if set.
	CurrentStep *int

	StepSuccess     *bool
	StepError       string
	StepDataQuality DataQuality
}

// hasData reports whether a []DataItem field was explicitly provided
// (non-nil, possibly empty means "explicitly empty" per spec's `current_data
// (list of ...)` optional field semantics — here we treat "nil" as unset and
// any non-nil slice, including empty, as explicitly provided).
func hasData(items []DataItem) bool { return items != nil }
