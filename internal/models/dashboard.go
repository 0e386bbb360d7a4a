package models

import "time"

// DashboardStats is the headline view for the authenticated user's scope.
type DashboardStats struct {
	TotalCirculars     int     `json:"total_circulars"`
	ActiveCirculars    int     `json:"active_circulars"`
	ExpiredCirculars   int     `json:"expired_circulars"`
	CompletedCirculars int     `json:"completed_circulars"`
	UpcomingDeadlines  int     `json:"upcoming_deadlines"`
	OverdueDeadlines   int     `json:"overdue_deadlines"`
	TotalSubmissions   int     `json:"total_submissions"`
	PendingReviews     int     `json:"pending_reviews"`
	ApprovedCount      int     `json:"approved_count"`
	RejectedCount      int     `json:"rejected_count"`
	ComplianceRate     float64 `json:"compliance_rate"`
}

// DepartmentCompliance is one department's compliance standing.
type DepartmentCompliance struct {
	Department     string  `json:"department"`
	UserCount      int     `json:"user_count"`
	Expected       int     `json:"expected"`
	Approved       int     `json:"approved"`
	Pending        int     `json:"pending"`
	ComplianceRate float64 `json:"compliance_rate"`
}

// AccreditationReadiness scores how prepared the institution is for one
// regulatory body, on a 0-100 scale. The score blends the share of
// completed circulars with the share of approved submissions.
type AccreditationReadiness struct {
	RegulationType   string  `json:"regulation_type"`
	TotalCirculars   int     `json:"total_circulars"`
	Compliant        int     `json:"compliant"`
	TotalSubmissions int     `json:"total_submissions"`
	Approved         int     `json:"approved"`
	Score            float64 `json:"score"`
}

// AccreditationReport bundles the per-body scores with their average.
type AccreditationReport struct {
	Bodies       []AccreditationReadiness `json:"bodies"`
	OverallScore float64                  `json:"overall_score"`
}

// SystemMetrics is a point-in-time snapshot of runtime metrics for the
// admin endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// ComplianceReport is the machine-readable report payload; the same data
// feeds the PDF renderers.
type ComplianceReport struct {
	Institution  string                 `json:"institution"`
	AcademicYear string                 `json:"academic_year"`
	Department   string                 `json:"department,omitempty"`
	GeneratedAt  time.Time              `json:"generated_at"`
	Stats        DashboardStats         `json:"stats"`
	Categories   []CategorySummary      `json:"categories"`
	Departments  []DepartmentCompliance `json:"departments,omitempty"`
	Circulars    []Circular             `json:"circulars,omitempty"`
}
