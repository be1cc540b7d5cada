package domain

// Complete is returned by navigation when no visible page is left.
const Complete = "complete"

// Version selects which revision of a funnel definition is served.
type Version string

const (
	VersionPublished Version = "published"
	VersionDraft     Version = "draft"
)

// Metadata keys used when publishing events and answer records.
const (
	KeyEventType = "event_type"
	KeySessionID = "session_id"
	KeyFunnelID  = "funnel_id"
)
