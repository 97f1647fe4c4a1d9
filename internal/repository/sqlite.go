package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"todoboard/internal/model"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
        id          TEXT PRIMARY KEY,
        title       TEXT NOT NULL CHECK (title <> ''),
        description TEXT,
        urgency     TEXT NOT NULL DEFAULT 'normal' CHECK (urgency IN ('low', 'normal', 'high')),
        completed   INTEGER NOT NULL DEFAULT 0,
        created_at  INTEGER NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS assignees (
        id         TEXT PRIMARY KEY,
        name       TEXT NOT NULL CHECK (name <> ''),
        created_at INTEGER NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS task_assignees (
        task_id     TEXT NOT NULL REFERENCES tasks(id),
        assignee_id TEXT NOT NULL REFERENCES assignees(id),
        created_at  INTEGER NOT NULL,
        PRIMARY KEY (task_id, assignee_id)
    )`,
}

// SQLiteStore stores times as unix nanoseconds and orders by rowid, which
// follows insertion order.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSQLiteStore(db *sql.DB, logger *zap.Logger) *SQLiteStore {
	return &SQLiteStore{db: db, logger: logger}
}

func (r *SQLiteStore) Migrate(ctx context.Context) error {
	for _, stmt := range sqliteSchema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			r.logger.Error("Failed to apply schema", zap.Error(err))
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	r.logger.Info("SQLite schema ready")
	return nil
}

func (r *SQLiteStore) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteStore) Close() {
	_ = r.db.Close()
}

func (r *SQLiteStore) CreateTask(ctx context.Context, t *model.Task) error {
	defer observe("insert", "tasks", time.Now())
	r.logger.Debug("Inserting task",
		zap.String("task_id", t.ID),
		zap.String("title", t.Title),
		zap.String("urgency", string(t.Urgency)),
	)
	query := `
        INSERT INTO tasks (id, title, description, urgency, completed, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.Title,
		nullString(t.Description),
		string(t.Urgency),
		t.Completed,
		t.CreatedAt.UnixNano(),
	)
	if err != nil {
		r.logger.Error("Failed to insert task", zap.Error(err), zap.String("task_id", t.ID))
		return classifySQLite(err)
	}
	r.logger.Info("Task inserted successfully", zap.String("task_id", t.ID))
	return nil
}

func (r *SQLiteStore) ListTasks(ctx context.Context) ([]model.Task, error) {
	defer observe("select", "tasks", time.Now())
	r.logger.Debug("Listing tasks with assignees")
	query := `
        SELECT t.id, t.title, t.description, t.urgency, t.completed, t.created_at,
               a.id, a.name, a.created_at
        FROM tasks t
        LEFT JOIN task_assignees ta ON ta.task_id = t.id
        LEFT JOIN assignees a ON a.id = ta.assignee_id
        ORDER BY t.rowid, ta.rowid
    `
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query tasks", zap.Error(err))
		return nil, classifySQLite(err)
	}
	defer rows.Close()

	ix := newTaskIndex()
	for rows.Next() {
		var (
			t           model.Task
			description sql.NullString
			urgency     string
			created     int64
			aID         sql.NullString
			aName       sql.NullString
			aCreated    sql.NullInt64
		)
		if err := rows.Scan(
			&t.ID,
			&t.Title,
			&description,
			&urgency,
			&t.Completed,
			&created,
			&aID,
			&aName,
			&aCreated,
		); err != nil {
			r.logger.Error("Failed to scan task row", zap.Error(err))
			return nil, classifySQLite(err)
		}
		t.Description = stringPtr(description)
		t.Urgency = model.Urgency(urgency)
		t.CreatedAt = fromNanos(created)
		task := ix.add(t)
		if aID.Valid {
			task.Assignees = append(task.Assignees, model.Assignee{
				ID:        aID.String,
				Name:      aName.String,
				CreatedAt: fromNanos(aCreated.Int64),
			})
		}
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Failed to iterate task rows", zap.Error(err))
		return nil, classifySQLite(err)
	}

	r.logger.Info("Tasks listed successfully", zap.Int("count", len(ix.tasks)))
	return ix.tasks, nil
}

func (r *SQLiteStore) CreateAssignee(ctx context.Context, a *model.Assignee) error {
	defer observe("insert", "assignees", time.Now())
	r.logger.Debug("Inserting assignee", zap.String("assignee_id", a.ID), zap.String("name", a.Name))
	query := `
        INSERT INTO assignees (id, name, created_at)
        VALUES (?, ?, ?)
    `
	if _, err := r.db.ExecContext(ctx, query, a.ID, a.Name, a.CreatedAt.UnixNano()); err != nil {
		r.logger.Error("Failed to insert assignee", zap.Error(err), zap.String("assignee_id", a.ID))
		return classifySQLite(err)
	}
	r.logger.Info("Assignee inserted successfully", zap.String("assignee_id", a.ID))
	return nil
}

func (r *SQLiteStore) ListAssignees(ctx context.Context) ([]model.Assignee, error) {
	defer observe("select", "assignees", time.Now())
	r.logger.Debug("Listing assignees")
	query := `
        SELECT id, name, created_at
        FROM assignees
        ORDER BY rowid
    `
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query assignees", zap.Error(err))
		return nil, classifySQLite(err)
	}
	defer rows.Close()

	assignees := []model.Assignee{}
	for rows.Next() {
		var (
			a       model.Assignee
			created int64
		)
		if err := rows.Scan(&a.ID, &a.Name, &created); err != nil {
			r.logger.Error("Failed to scan assignee row", zap.Error(err))
			return nil, classifySQLite(err)
		}
		a.CreatedAt = fromNanos(created)
		assignees = append(assignees, a)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Failed to iterate assignee rows", zap.Error(err))
		return nil, classifySQLite(err)
	}
	r.logger.Info("Assignees listed successfully", zap.Int("count", len(assignees)))
	return assignees, nil
}

func (r *SQLiteStore) CreateAssignment(ctx context.Context, a *model.Assignment) error {
	defer observe("insert", "task_assignees", time.Now())
	r.logger.Debug("Inserting assignment",
		zap.String("task_id", a.TaskID),
		zap.String("assignee_id", a.AssigneeID),
	)
	query := `
        INSERT INTO task_assignees (task_id, assignee_id, created_at)
        VALUES (?, ?, ?)
        ON CONFLICT (task_id, assignee_id) DO NOTHING
    `
	result, err := r.db.ExecContext(ctx, query, a.TaskID, a.AssigneeID, a.CreatedAt.UnixNano())
	if err != nil {
		r.logger.Error("Failed to insert assignment",
			zap.Error(err),
			zap.String("task_id", a.TaskID),
			zap.String("assignee_id", a.AssigneeID),
		)
		return classifySQLite(err)
	}
	affected, _ := result.RowsAffected()
	r.logger.Info("Assignment stored",
		zap.String("task_id", a.TaskID),
		zap.String("assignee_id", a.AssigneeID),
		zap.Int64("rows_affected", affected),
	)
	return nil
}

func (r *SQLiteStore) CompleteTask(ctx context.Context, id string) (*model.Task, error) {
	defer observe("update", "tasks", time.Now())
	r.logger.Debug("Marking task as completed", zap.String("task_id", id))
	query := `
        UPDATE tasks
        SET completed = 1
        WHERE id = ?
        RETURNING id, title, description, urgency, completed, created_at
    `
	var (
		t           model.Task
		description sql.NullString
		urgency     string
		created     int64
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.Title,
		&description,
		&urgency,
		&t.Completed,
		&created,
	)
	if err != nil {
		r.logger.Error("Failed to mark task as completed", zap.Error(err), zap.String("task_id", id))
		return nil, classifySQLite(err)
	}
	t.Description = stringPtr(description)
	t.Urgency = model.Urgency(urgency)
	t.CreatedAt = fromNanos(created)
	t.Assignees = []model.Assignee{}
	r.logger.Info("Task marked as completed", zap.String("task_id", id))
	return &t, nil
}

// classifySQLite maps missing rows and foreign key failures to ErrNotFound.
func classifySQLite(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
