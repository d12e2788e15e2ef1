package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusReceived, StatusPendingAssignment, true},
		{StatusReceived, StatusAssigned, true},
		{StatusPendingAssignment, StatusAssigned, true},
		{StatusAssigned, StatusPendingAssignment, true},
		{StatusAssigned, StatusReportInProgress, true},
		{StatusReportFinalized, StatusReportInProgress, true},
		{StatusReportUploaded, StatusFinalDownloaded, true},
		{StatusDownloadedByDoctor, StatusArchived, true},
		{StatusFinalDownloaded, StatusArchived, true},

		{StatusReceived, StatusReportFinalized, false},
		{StatusPendingAssignment, StatusReceived, false},
		{StatusReportUploaded, StatusReportInProgress, false},
		{StatusArchived, StatusReceived, false},
		{StatusFinalDownloaded, StatusReportUploaded, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestCanTransitionSameStatusIsNoOp(t *testing.T) {
	for status := range categoryByStatus {
		assert.True(t, CanTransition(status, status), "%s -> itself", status)
	}
	assert.True(t, CanTransition(StatusArchived, StatusArchived))
	assert.False(t, CanTransition(Status("bogus"), Status("bogus")))
}

func TestArchivedIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatusArchived))
	assert.Empty(t, NextStatuses(StatusArchived))

	for from := range transitions {
		if from == StatusArchived {
			continue
		}
		assert.False(t, IsTerminal(from))
	}
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategoryPending, CategoryOf(StatusReceived))
	assert.Equal(t, CategoryPending, CategoryOf(StatusPendingAssignment))
	assert.Equal(t, CategoryInProgress, CategoryOf(StatusAssigned))
	assert.Equal(t, CategoryInProgress, CategoryOf(StatusDownloadedByDoctor))
	assert.Equal(t, CategoryCompleted, CategoryOf(StatusFinalDownloaded))
	assert.Equal(t, CategoryUnknown, CategoryOf(StatusArchived))
	assert.Equal(t, CategoryUnknown, CategoryOf(Status("bogus")))
}

func TestEveryStatusReachableFromReceived(t *testing.T) {
	seen := map[Status]bool{StatusReceived: true}
	queue := []Status{StatusReceived}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range NextStatuses(cur) {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}

	for status := range transitions {
		assert.True(t, seen[status], "status %s unreachable", status)
	}
	assert.True(t, seen[StatusArchived])
}

func TestTerminalDownloadStatus(t *testing.T) {
	assert.Equal(t, StatusDownloadedByDoctor, TerminalDownloadStatus(RoleDoctor))
	assert.Equal(t, StatusFinalDownloaded, TerminalDownloadStatus(RoleAdmin))
	assert.Equal(t, StatusFinalDownloaded, TerminalDownloadStatus(RoleLabStaff))
}
