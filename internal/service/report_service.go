package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/access"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
	appErrors "github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/errors"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/export"
)

// ReportConfig carries institution-level report settings.
type ReportConfig struct {
	InstitutionName     string
	DefaultAcademicYear string
}

// ReportService renders compliance reports as JSON, PDF, and CSV.
type ReportService struct {
	dashboard *DashboardService
	circulars *CircularService
	activity  activityWriter
	pdf       *export.PDFExporter
	csv       *export.CSVExporter
	config    ReportConfig
	logger    *zap.Logger
}

// NewReportService constructs a ReportService instance.
func NewReportService(dashboard *DashboardService, circulars *CircularService, activity activityWriter, config ReportConfig, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		dashboard: dashboard,
		circulars: circulars,
		activity:  activity,
		pdf:       export.NewPDFExporter(),
		csv:       export.NewCSVExporter(),
		config:    config,
		logger:    logger,
	}
}

// AnnualReport assembles the institution-wide compliance report.
func (s *ReportService) AnnualReport(ctx context.Context, actor access.Actor, academicYear string) (*models.ComplianceReport, error) {
	if !actor.IsManagement() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "insufficient role for reports")
	}
	if academicYear == "" {
		academicYear = s.config.DefaultAcademicYear
	}

	stats, err := s.dashboard.Stats(ctx, actor)
	if err != nil {
		return nil, err
	}
	categories, err := s.circulars.CategorySummary(ctx)
	if err != nil {
		return nil, err
	}
	departments, err := s.dashboard.DepartmentCompliance(ctx, actor)
	if err != nil {
		return nil, err
	}

	report := &models.ComplianceReport{
		Institution:  s.config.InstitutionName,
		AcademicYear: academicYear,
		GeneratedAt:  time.Now().UTC(),
		Stats:        *stats,
		Categories:   categories,
		Departments:  departments,
	}
	s.record(ctx, actor, "annual:"+academicYear)
	return report, nil
}

// DepartmentReport assembles one department's compliance report. HODs may
// only report on their own department.
func (s *ReportService) DepartmentReport(ctx context.Context, actor access.Actor, department string) (*models.ComplianceReport, error) {
	if !actor.IsManagement() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "insufficient role for reports")
	}
	if actor.Role == models.RoleHOD && actor.Department != department {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "reports are limited to your own department")
	}
	if !models.ValidDepartment(department) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown department")
	}

	departments, err := s.dashboard.DepartmentCompliance(ctx, actor)
	if err != nil {
		return nil, err
	}
	var scoped []models.DepartmentCompliance
	for _, entry := range departments {
		if entry.Department == department {
			scoped = append(scoped, entry)
		}
	}

	circulars, _, err := s.circulars.List(ctx, actor, models.CircularFilter{Department: department, PageSize: 100})
	if err != nil {
		return nil, err
	}
	stats, err := s.dashboard.Stats(ctx, actor)
	if err != nil {
		return nil, err
	}

	report := &models.ComplianceReport{
		Institution:  s.config.InstitutionName,
		AcademicYear: s.config.DefaultAcademicYear,
		Department:   department,
		GeneratedAt:  time.Now().UTC(),
		Stats:        *stats,
		Departments:  scoped,
		Circulars:    circulars,
	}
	s.record(ctx, actor, "department:"+department)
	return report, nil
}

// AnnualReportPDF renders the annual report as a PDF document.
func (s *ReportService) AnnualReportPDF(ctx context.Context, actor access.Actor, academicYear string) ([]byte, error) {
	report, err := s.AnnualReport(ctx, actor, academicYear)
	if err != nil {
		return nil, err
	}

	doc := export.Document{
		Title:    s.config.InstitutionName,
		Subtitle: fmt.Sprintf("Annual Compliance Report %s (generated %s)", report.AcademicYear, report.GeneratedAt.Format("02 Jan 2006")),
		Sections: []export.Section{
			statsSection(report.Stats),
			categorySection(report.Categories),
			departmentSection(report.Departments),
		},
	}
	payload, err := s.pdf.Render(doc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	return payload, nil
}

// DepartmentReportPDF renders a department report as a PDF document.
func (s *ReportService) DepartmentReportPDF(ctx context.Context, actor access.Actor, department string) ([]byte, error) {
	report, err := s.DepartmentReport(ctx, actor, department)
	if err != nil {
		return nil, err
	}

	circularRows := make([]map[string]string, 0, len(report.Circulars))
	for _, c := range report.Circulars {
		circularRows = append(circularRows, map[string]string{
			"Title":    c.Title,
			"Type":     c.RegulationType,
			"Deadline": formatDeadline(c.Deadline, "02 Jan 2006"),
			"Status":   string(c.Status),
		})
	}

	doc := export.Document{
		Title:    s.config.InstitutionName,
		Subtitle: fmt.Sprintf("%s Department Compliance Report (generated %s)", department, report.GeneratedAt.Format("02 Jan 2006")),
		Sections: []export.Section{
			departmentSection(report.Departments),
			{
				Heading: "Circulars",
				Table: export.Dataset{
					Headers: []string{"Title", "Type", "Deadline", "Status"},
					Rows:    circularRows,
				},
			},
		},
	}
	payload, err := s.pdf.Render(doc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	return payload, nil
}

// CircularsCSV exports the circular register with derived statuses.
func (s *ReportService) CircularsCSV(ctx context.Context, actor access.Actor) ([]byte, error) {
	if !actor.IsManagement() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "insufficient role for exports")
	}
	circulars, _, err := s.circulars.List(ctx, actor, models.CircularFilter{PageSize: 100})
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]string, 0, len(circulars))
	for _, c := range circulars {
		rows = append(rows, map[string]string{
			"Title":    c.Title,
			"Category": c.Category,
			"Type":     c.RegulationType,
			"Priority": string(c.Priority),
			"Deadline": formatDeadline(c.Deadline, time.RFC3339),
			"Status":   string(c.Status),
		})
	}
	data := export.Dataset{
		Headers: []string{"Title", "Category", "Type", "Priority", "Deadline", "Status"},
		Rows:    rows,
	}
	payload, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, nil
}

func formatDeadline(t *time.Time, layout string) string {
	if t == nil {
		return ""
	}
	return t.Format(layout)
}

func statsSection(stats models.DashboardStats) export.Section {
	return export.Section{
		Heading: "Overview",
		KeyValues: [][2]string{
			{"Total circulars", strconv.Itoa(stats.TotalCirculars)},
			{"Active", strconv.Itoa(stats.ActiveCirculars)},
			{"Completed", strconv.Itoa(stats.CompletedCirculars)},
			{"Expired", strconv.Itoa(stats.ExpiredCirculars)},
			{"Total submissions", strconv.Itoa(stats.TotalSubmissions)},
			{"Pending reviews", strconv.Itoa(stats.PendingReviews)},
			{"Compliance rate", fmt.Sprintf("%.1f%%", stats.ComplianceRate)},
		},
	}
}

func categorySection(categories []models.CategorySummary) export.Section {
	rows := make([]map[string]string, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, map[string]string{
			"Category":  c.Category,
			"Circulars": strconv.Itoa(c.TotalCirculars),
			"Completed": strconv.Itoa(c.Completed),
			"Pending":   strconv.Itoa(c.Pending),
			"Rate":      fmt.Sprintf("%.1f%%", c.ComplianceRate),
		})
	}
	return export.Section{
		Heading: "Category Compliance",
		Table: export.Dataset{
			Headers: []string{"Category", "Circulars", "Completed", "Pending", "Rate"},
			Rows:    rows,
		},
	}
}

func departmentSection(departments []models.DepartmentCompliance) export.Section {
	rows := make([]map[string]string, 0, len(departments))
	for _, d := range departments {
		rows = append(rows, map[string]string{
			"Department": d.Department,
			"Users":      strconv.Itoa(d.UserCount),
			"Expected":   strconv.Itoa(d.Expected),
			"Approved":   strconv.Itoa(d.Approved),
			"Rate":       fmt.Sprintf("%.1f%%", d.ComplianceRate),
		})
	}
	return export.Section{
		Heading: "Department Compliance",
		Table: export.Dataset{
			Headers: []string{"Department", "Users", "Expected", "Approved", "Rate"},
			Rows:    rows,
		},
	}
}

func (s *ReportService) record(ctx context.Context, actor access.Actor, detail string) {
	entry := &models.ActivityLog{
		UserID:   &actor.UserID,
		Action:   models.ActivityReportGenerated,
		Resource: "reports",
		Detail:   detail,
	}
	if err := s.activity.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record report activity", zap.Error(err))
	}
}
