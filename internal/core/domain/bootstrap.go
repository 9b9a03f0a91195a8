package domain

// BootstrapOutcome tags why a bootstrap attempt ended. It drives whether the
// presentation layer mounts the main flow or an error flow.
type BootstrapOutcome string

const (
	// OutcomeCompleted: the attempt finished, possibly with partial data.
	// Timer expiry degrades to this outcome; it is not an error.
	OutcomeCompleted BootstrapOutcome = "completed"
	// OutcomeTimedOut: the hard ceiling fired before any slot was populated
	// and no fault was classified. A total stall, not a classified failure.
	OutcomeTimedOut BootstrapOutcome = "timed_out"
	// OutcomeNetworkError: at least one preload fetch failed with a
	// connectivity fault, and that fault was observed first.
	OutcomeNetworkError BootstrapOutcome = "network_error"
	// OutcomeCriticalError: at least one preload fetch failed with a
	// server-side fault, and that fault was observed first.
	OutcomeCriticalError BootstrapOutcome = "critical_error"
)

// PreloadBundle holds the content payloads fetched speculatively at startup.
// Every slot is independently nullable; consumers must tolerate any subset
// being absent. A bundle belongs to exactly one bootstrap attempt and is
// discarded wholesale on retry.
type PreloadBundle struct {
	HomeArticles []Article    `json:"home_articles,omitempty"`
	Journalists  []Journalist `json:"journalists,omitempty"`
	SearchIndex  []Article    `json:"search_index,omitempty"`
	Headlines    []Headline   `json:"headlines,omitempty"`
	RecentVideos []Video      `json:"recent_videos,omitempty"`
	Profile      *UserProfile `json:"profile,omitempty"`
}
