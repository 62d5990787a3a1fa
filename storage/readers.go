package storage

import (
	"context"
	"time"

	"github.com/driftlog/aiops/types"
	"gorm.io/gorm"
)

// TimeEntry is the read-only projection of a collaborator-owned time
// entry row that this subsystem consumes for suggestions, anomaly
// detection, forecasting, and NL parsing.
type TimeEntry struct {
	ID          string
	UserID      string
	ProjectID   string
	TaskID      string
	Description string
	StartedAt   time.Time
	EndedAt     time.Time
	DurationSec int
}

func (TimeEntry) TableName() string { return "time_entries" }

// Project is the read-only projection of a collaborator-owned project.
type Project struct {
	ID          string
	Name        string
	BudgetTotal float64
}

func (Project) TableName() string { return "projects" }

// Task is the read-only projection of a collaborator-owned task.
type Task struct {
	ID        string
	ProjectID string
	Name      string
	Status    string // e.g. "done", "in_progress"; used for project health completion rate
}

func (Task) TableName() string { return "tasks" }

// User is the read-only projection of a collaborator-owned user account.
type User struct {
	ID                   string
	Name                 string
	Timezone             string
	ExpectedHoursPerWeek float64
}

func (User) TableName() string { return "users" }

// PayRate is the read-only projection of a user's hourly pay rate.
type PayRate struct {
	UserID    string
	HourlyUSD float64
}

func (PayRate) TableName() string { return "pay_rates" }

// TimeEntryReader is the read-only port this subsystem uses to consult
// recorded time entries. Every method is scoped by user and a time
// window; nothing here writes.
type TimeEntryReader interface {
	ForUser(ctx context.Context, userID string, since, until time.Time) ([]*TimeEntry, error)
	ForUsers(ctx context.Context, userIDs []string, since, until time.Time) ([]*TimeEntry, error)
	ForProject(ctx context.Context, projectID string) ([]*TimeEntry, error)
	Recent(ctx context.Context, userID string, limit int) ([]*TimeEntry, error)
}

// ProjectReader is the read-only port over project metadata, including
// the budget figure forecast.BudgetForecaster consults.
type ProjectReader interface {
	Get(ctx context.Context, projectID string) (*Project, error)
	Tasks(ctx context.Context, projectID string) ([]*Task, error)
	ListByName(ctx context.Context, query string) ([]*Project, error)
	// Budget returns the project's total allocated budget in USD, or zero
	// if the project carries none.
	Budget(ctx context.Context, projectID string) (float64, error)
}

// UserReader is the read-only port over user accounts.
type UserReader interface {
	Get(ctx context.Context, userID string) (*User, error)
	TeamMembers(ctx context.Context, managerID string) ([]*User, error)
}

// PayrollReader is the read-only port over pay rates, used by
// forecast.PayrollForecaster to convert projected hours into cost.
type PayrollReader interface {
	RateFor(ctx context.Context, userID string) (float64, error)
}

type gormTimeEntryReader struct{ db *gorm.DB }

// NewTimeEntryReader constructs a gorm-backed TimeEntryReader.
func NewTimeEntryReader(db *gorm.DB) TimeEntryReader { return &gormTimeEntryReader{db: db} }

func (r *gormTimeEntryReader) ForUser(ctx context.Context, userID string, since, until time.Time) ([]*TimeEntry, error) {
	var rows []*TimeEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND started_at >= ? AND started_at < ?", userID, since, until).
		Order("started_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "failed to load time entries").WithCause(err)
	}
	return rows, nil
}

func (r *gormTimeEntryReader) ForUsers(ctx context.Context, userIDs []string, since, until time.Time) ([]*TimeEntry, error) {
	var rows []*TimeEntry
	err := r.db.WithContext(ctx).
		Where("user_id IN ? AND started_at >= ? AND started_at < ?", userIDs, since, until).
		Order("user_id asc, started_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "failed to load time entries").WithCause(err)
	}
	return rows, nil
}

func (r *gormTimeEntryReader) ForProject(ctx context.Context, projectID string) ([]*TimeEntry, error) {
	var rows []*TimeEntry
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("started_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "failed to load project time entries").WithCause(err)
	}
	return rows, nil
}

func (r *gormTimeEntryReader) Recent(ctx context.Context, userID string, limit int) ([]*TimeEntry, error) {
	var rows []*TimeEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("started_at desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "failed to load recent time entries").WithCause(err)
	}
	return rows, nil
}

type gormProjectReader struct{ db *gorm.DB }

// NewProjectReader constructs a gorm-backed ProjectReader.
func NewProjectReader(db *gorm.DB) ProjectReader { return &gormProjectReader{db: db} }

func (r *gormProjectReader) Get(ctx context.Context, projectID string) (*Project, error) {
	var p Project
	if err := r.db.WithContext(ctx).First(&p, "id = ?", projectID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, types.NewError(types.ErrNotFound, "project not found")
		}
		return nil, types.NewError(types.ErrInternal, "failed to load project").WithCause(err)
	}
	return &p, nil
}

func (r *gormProjectReader) Tasks(ctx context.Context, projectID string) ([]*Task, error) {
	var rows []*Task
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Find(&rows).Error; err != nil {
		return nil, types.NewError(types.ErrInternal, "failed to load project tasks").WithCause(err)
	}
	return rows, nil
}

func (r *gormProjectReader) ListByName(ctx context.Context, query string) ([]*Project, error) {
	var rows []*Project
	like := "%" + query + "%"
	if err := r.db.WithContext(ctx).Where("name LIKE ?", like).Find(&rows).Error; err != nil {
		return nil, types.NewError(types.ErrInternal, "failed to search projects").WithCause(err)
	}
	return rows, nil
}

func (r *gormProjectReader) Budget(ctx context.Context, projectID string) (float64, error) {
	p, err := r.Get(ctx, projectID)
	if err != nil {
		return 0, err
	}
	return p.BudgetTotal, nil
}

type gormUserReader struct{ db *gorm.DB }

// NewUserReader constructs a gorm-backed UserReader.
func NewUserReader(db *gorm.DB) UserReader { return &gormUserReader{db: db} }

func (r *gormUserReader) Get(ctx context.Context, userID string) (*User, error) {
	var u User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, types.NewError(types.ErrNotFound, "user not found")
		}
		return nil, types.NewError(types.ErrInternal, "failed to load user").WithCause(err)
	}
	return &u, nil
}

func (r *gormUserReader) TeamMembers(ctx context.Context, managerID string) ([]*User, error) {
	var rows []*User
	err := r.db.WithContext(ctx).
		Joins("JOIN team_memberships tm ON tm.user_id = users.id").
		Where("tm.manager_id = ?", managerID).
		Find(&rows).Error
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "failed to load team members").WithCause(err)
	}
	return rows, nil
}

type gormPayrollReader struct{ db *gorm.DB }

// NewPayrollReader constructs a gorm-backed PayrollReader.
func NewPayrollReader(db *gorm.DB) PayrollReader { return &gormPayrollReader{db: db} }

func (r *gormPayrollReader) RateFor(ctx context.Context, userID string) (float64, error) {
	var rate PayRate
	err := r.db.WithContext(ctx).First(&rate, "user_id = ?", userID).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, types.NewError(types.ErrInternal, "failed to load pay rate").WithCause(err)
	}
	return rate.HourlyUSD, nil
}
