package models

// Status is a study's position in the reporting workflow.
type Status string

const (
	StatusReceived           Status = "received"
	StatusPendingAssignment  Status = "pending_assignment"
	StatusAssigned           Status = "assigned"
	StatusReportOpened       Status = "report_opened"
	StatusReportInProgress   Status = "report_in_progress"
	StatusReportDrafted      Status = "report_drafted"
	StatusReportFinalized    Status = "report_finalized"
	StatusReportUploaded     Status = "report_uploaded"
	StatusDownloadedByDoctor Status = "report_downloaded_by_doctor"
	StatusFinalDownloaded    Status = "final_report_downloaded"
	StatusArchived           Status = "archived"
)

// Category buckets statuses for worklist summaries.
const (
	CategoryPending    = "pending"
	CategoryInProgress = "inprogress"
	CategoryCompleted  = "completed"
	CategoryUnknown    = "unknown"
)

// transitions is the adjacency list of permitted status changes.
// A study may also "transition" to its current status, which is a
// no-op and records nothing.
var transitions = map[Status][]Status{
	StatusReceived:           {StatusPendingAssignment, StatusAssigned},
	StatusPendingAssignment:  {StatusAssigned},
	StatusAssigned:           {StatusPendingAssignment, StatusReportOpened, StatusReportInProgress},
	StatusReportOpened:       {StatusReportInProgress},
	StatusReportInProgress:   {StatusReportDrafted, StatusReportFinalized},
	StatusReportDrafted:      {StatusReportInProgress, StatusReportFinalized},
	StatusReportFinalized:    {StatusReportUploaded, StatusReportInProgress},
	StatusReportUploaded:     {StatusDownloadedByDoctor, StatusFinalDownloaded},
	StatusDownloadedByDoctor: {StatusFinalDownloaded, StatusArchived},
	StatusFinalDownloaded:    {StatusArchived},
	StatusArchived:           {},
}

// categoryByStatus maps each workflow status to its summary bucket.
// Archived studies are deliberately absent and fall through to
// CategoryUnknown so they never inflate completion counts.
var categoryByStatus = map[Status]string{
	StatusReceived:           CategoryPending,
	StatusPendingAssignment:  CategoryPending,
	StatusAssigned:           CategoryInProgress,
	StatusReportOpened:       CategoryInProgress,
	StatusReportInProgress:   CategoryInProgress,
	StatusReportDrafted:      CategoryInProgress,
	StatusReportFinalized:    CategoryInProgress,
	StatusReportUploaded:     CategoryInProgress,
	StatusDownloadedByDoctor: CategoryInProgress,
	StatusFinalDownloaded:    CategoryCompleted,
}

// ValidStatus reports whether the value names a known workflow status.
func ValidStatus(s Status) bool {
	if s == StatusArchived {
		return true
	}
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether a study may move from one status to
// another. Same-status moves are always allowed (idempotent no-op).
func CanTransition(from, to Status) bool {
	if from == to {
		return ValidStatus(from)
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable in one step. The slice is
// a copy; callers may mutate it.
func NextStatuses(from Status) []Status {
	next := transitions[from]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// CategoryOf buckets a status for summary counts.
func CategoryOf(s Status) string {
	if c, ok := categoryByStatus[s]; ok {
		return c
	}
	return CategoryUnknown
}

// IsTerminal reports whether no further transitions are possible.
func IsTerminal(s Status) bool {
	return s == StatusArchived
}

// TerminalDownloadStatus returns the status a download by the given
// role drives the study to. Doctor downloads are an intermediate
// milestone; staff and admin downloads complete the workflow.
func TerminalDownloadStatus(role string) Status {
	if role == RoleDoctor {
		return StatusDownloadedByDoctor
	}
	return StatusFinalDownloaded
}
