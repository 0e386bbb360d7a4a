package service

import (
	"time"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
)

// DeriveCircularStatus computes a circular's status from the clock and its
// submissions. Status is never stored: completed when every targeted
// department has an approved submission, expired when the deadline passed
// without completion, active otherwise. A circular without a deadline never
// expires.
func DeriveCircularStatus(now time.Time, circular *models.Circular, submissions []models.Submission) models.CircularStatus {
	targets := circular.TargetDepartments
	if len(targets) == 0 {
		targets = models.Departments
	}

	approved := make(map[string]bool, len(targets))
	for _, sub := range submissions {
		if sub.Status == models.SubmissionApproved && sub.UserDepartment != "" {
			approved[sub.UserDepartment] = true
		}
	}

	complete := len(submissions) > 0
	for _, dept := range targets {
		if !approved[dept] {
			complete = false
			break
		}
	}
	if complete {
		return models.CircularCompleted
	}
	if circular.Deadline != nil && now.After(*circular.Deadline) {
		return models.CircularExpired
	}
	return models.CircularActive
}
