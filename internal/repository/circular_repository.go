package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
)

const circularColumns = `c.id, c.title, c.description, c.category, c.regulation_type, c.priority, c.deadline, c.academic_year, c.target_departments, c.attachment_path, c.created_by, c.created_at, c.updated_at, COALESCE(u.full_name, '') AS creator_name`

// CircularRepository provides database access for circulars.
type CircularRepository struct {
	db *sqlx.DB
}

// NewCircularRepository creates a new instance of CircularRepository.
func NewCircularRepository(db *sqlx.DB) *CircularRepository {
	return &CircularRepository{db: db}
}

// FindByID returns a circular by identifier.
func (r *CircularRepository) FindByID(ctx context.Context, id string) (*models.Circular, error) {
	const query = `SELECT ` + circularColumns + ` FROM circulars c LEFT JOIN users u ON u.id = c.created_by WHERE c.id = $1 LIMIT 1`
	var circular models.Circular
	if err := r.db.GetContext(ctx, &circular, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find circular by id: %w", err)
	}
	return &circular, nil
}

// List returns circulars matching the filter with a total count. Status
// filtering happens in the service layer because status is derived, so the
// filter here covers only stored columns.
func (r *CircularRepository) List(ctx context.Context, filter models.CircularFilter) ([]models.Circular, int, error) {
	baseQuery := `FROM circulars c LEFT JOIN users u ON u.id = c.created_by WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("c.category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.RegulationType != "" {
		conditions = append(conditions, fmt.Sprintf("c.regulation_type = $%d", len(args)+1))
		args = append(args, filter.RegulationType)
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("(c.target_departments = '{}' OR $%d = ANY(c.target_departments))", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("c.academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(c.title) LIKE $%d OR LOWER(c.description) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY c.deadline ASC NULLS LAST", circularColumns, baseQuery)
	if filter.PageSize >= 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		pageSize := filter.PageSize
		if pageSize == 0 || pageSize > 100 {
			pageSize = 20
		}
		listQuery += fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)
	}

	var circulars []models.Circular
	if err := r.db.SelectContext(ctx, &circulars, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list circulars: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count circulars: %w", err)
	}

	return circulars, total, nil
}

// ListAll returns every circular without pagination, for aggregation.
func (r *CircularRepository) ListAll(ctx context.Context) ([]models.Circular, error) {
	const query = `SELECT ` + circularColumns + ` FROM circulars c LEFT JOIN users u ON u.id = c.created_by ORDER BY c.deadline ASC NULLS LAST`
	var circulars []models.Circular
	if err := r.db.SelectContext(ctx, &circulars, query); err != nil {
		return nil, fmt.Errorf("list all circulars: %w", err)
	}
	return circulars, nil
}

// Create inserts a new circular.
func (r *CircularRepository) Create(ctx context.Context, circular *models.Circular) error {
	if circular.ID == "" {
		circular.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if circular.CreatedAt.IsZero() {
		circular.CreatedAt = now
	}
	circular.UpdatedAt = now

	const query = `INSERT INTO circulars (id, title, description, category, regulation_type, priority, deadline, academic_year, target_departments, attachment_path, created_by, created_at, updated_at) VALUES (:id, :title, :description, :category, :regulation_type, :priority, :deadline, :academic_year, :target_departments, :attachment_path, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, circular); err != nil {
		return fmt.Errorf("create circular: %w", err)
	}
	return nil
}

// Update updates mutable fields of a circular.
func (r *CircularRepository) Update(ctx context.Context, circular *models.Circular) error {
	circular.UpdatedAt = time.Now().UTC()
	const query = `UPDATE circulars SET title = :title, description = :description, category = :category, regulation_type = :regulation_type, priority = :priority, deadline = :deadline, academic_year = :academic_year, target_departments = :target_departments, attachment_path = :attachment_path, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, circular); err != nil {
		return fmt.Errorf("update circular: %w", err)
	}
	return nil
}

// Delete removes a circular and cascades to its submissions.
func (r *CircularRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM circulars WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete circular: %w", err)
	}
	return nil
}
