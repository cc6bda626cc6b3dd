package feed

// AppendPolicy decides which fetched records join the accumulated list.
type AppendPolicy int

const (
	// AppendAll appends every record as received; overlapping pages produce duplicates.
	AppendAll AppendPolicy = iota
	// AppendUniqueByID skips records whose non-empty ID is already accumulated.
	AppendUniqueByID
)

// String returns the policy name.
func (p AppendPolicy) String() string {
	switch p {
	case AppendAll:
		return "none"
	case AppendUniqueByID:
		return "unique-by-id"
	default:
		return "unknown"
	}
}

// StopPolicy decides when the controller stops issuing fetches.
type StopPolicy int

const (
	// StopNever keeps loading for as long as triggers arrive.
	StopNever StopPolicy = iota
	// StopOnEmptyPage halts after the first successful empty page.
	StopOnEmptyPage
)

// String returns the policy name.
func (p StopPolicy) String() string {
	switch p {
	case StopNever:
		return "never"
	case StopOnEmptyPage:
		return "on-empty-page"
	default:
		return "unknown"
	}
}
