package service

import (
	"context"
	"time"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/access"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
)

// Shared fakes used across the service tests.

type stubActivity struct {
	entries []models.ActivityLog
}

func (s *stubActivity) Create(_ context.Context, entry *models.ActivityLog) error {
	s.entries = append(s.entries, *entry)
	return nil
}

type stubInvalidator struct {
	patterns []string
}

func (s *stubInvalidator) DeleteByPattern(_ context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

func deadlineIn(d time.Duration) *time.Time {
	t := time.Now().Add(d)
	return &t
}

func facultyActor(dept string) access.Actor {
	return access.Actor{UserID: "faculty-1", Role: models.RoleFaculty, Department: dept}
}

func hodActor(dept string) access.Actor {
	return access.Actor{UserID: "hod-1", Role: models.RoleHOD, Department: dept}
}

func principalActor() access.Actor {
	return access.Actor{UserID: "principal-1", Role: models.RolePrincipal}
}

func adminActor() access.Actor {
	return access.Actor{UserID: "admin-1", Role: models.RoleAdmin}
}
