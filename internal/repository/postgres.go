package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"todoboard/internal/model"
)

// pgForeignKeyViolation is SQLSTATE foreign_key_violation.
const pgForeignKeyViolation = "23503"

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
        seq         BIGSERIAL UNIQUE,
        id          TEXT PRIMARY KEY,
        title       TEXT NOT NULL CHECK (title <> ''),
        description TEXT,
        urgency     TEXT NOT NULL DEFAULT 'normal' CHECK (urgency IN ('low', 'normal', 'high')),
        completed   BOOLEAN NOT NULL DEFAULT FALSE,
        created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS assignees (
        seq        BIGSERIAL UNIQUE,
        id         TEXT PRIMARY KEY,
        name       TEXT NOT NULL CHECK (name <> ''),
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS task_assignees (
        seq         BIGSERIAL UNIQUE,
        task_id     TEXT NOT NULL REFERENCES tasks(id),
        assignee_id TEXT NOT NULL REFERENCES assignees(id),
        created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        PRIMARY KEY (task_id, assignee_id)
    )`,
}

type PostgresStore struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresStore(db *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

func (r *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			r.logger.Error("Failed to apply schema", zap.Error(err))
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	r.logger.Info("PostgreSQL schema ready")
	return nil
}

func (r *PostgresStore) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *PostgresStore) Close() {
	r.db.Close()
}

func (r *PostgresStore) CreateTask(ctx context.Context, t *model.Task) error {
	defer observe("insert", "tasks", time.Now())
	r.logger.Debug("Inserting task",
		zap.String("task_id", t.ID),
		zap.String("title", t.Title),
		zap.String("urgency", string(t.Urgency)),
	)
	query := `
        INSERT INTO tasks (id, title, description, urgency, completed, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := r.db.Exec(ctx, query,
		t.ID,
		t.Title,
		t.Description,
		string(t.Urgency),
		t.Completed,
		t.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert task", zap.Error(err), zap.String("task_id", t.ID))
		return classifyPg(err)
	}
	r.logger.Info("Task inserted successfully", zap.String("task_id", t.ID))
	return nil
}

func (r *PostgresStore) ListTasks(ctx context.Context) ([]model.Task, error) {
	defer observe("select", "tasks", time.Now())
	r.logger.Debug("Listing tasks with assignees")
	query := `
        SELECT t.id, t.title, t.description, t.urgency, t.completed, t.created_at,
               a.id, a.name, a.created_at
        FROM tasks t
        LEFT JOIN task_assignees ta ON ta.task_id = t.id
        LEFT JOIN assignees a ON a.id = ta.assignee_id
        ORDER BY t.seq, ta.seq
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query tasks", zap.Error(err))
		return nil, classifyPg(err)
	}
	defer rows.Close()

	ix := newTaskIndex()
	for rows.Next() {
		var (
			t        model.Task
			urgency  string
			aID      *string
			aName    *string
			aCreated *time.Time
		)
		if err := rows.Scan(
			&t.ID,
			&t.Title,
			&t.Description,
			&urgency,
			&t.Completed,
			&t.CreatedAt,
			&aID,
			&aName,
			&aCreated,
		); err != nil {
			r.logger.Error("Failed to scan task row", zap.Error(err))
			return nil, classifyPg(err)
		}
		t.Urgency = model.Urgency(urgency)
		task := ix.add(t)
		if aID != nil {
			task.Assignees = append(task.Assignees, model.Assignee{ID: *aID, Name: *aName, CreatedAt: *aCreated})
		}
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Failed to iterate task rows", zap.Error(err))
		return nil, classifyPg(err)
	}

	r.logger.Info("Tasks listed successfully", zap.Int("count", len(ix.tasks)))
	return ix.tasks, nil
}

func (r *PostgresStore) CreateAssignee(ctx context.Context, a *model.Assignee) error {
	defer observe("insert", "assignees", time.Now())
	r.logger.Debug("Inserting assignee", zap.String("assignee_id", a.ID), zap.String("name", a.Name))
	query := `
        INSERT INTO assignees (id, name, created_at)
        VALUES ($1, $2, $3)
    `
	if _, err := r.db.Exec(ctx, query, a.ID, a.Name, a.CreatedAt); err != nil {
		r.logger.Error("Failed to insert assignee", zap.Error(err), zap.String("assignee_id", a.ID))
		return classifyPg(err)
	}
	r.logger.Info("Assignee inserted successfully", zap.String("assignee_id", a.ID))
	return nil
}

func (r *PostgresStore) ListAssignees(ctx context.Context) ([]model.Assignee, error) {
	defer observe("select", "assignees", time.Now())
	r.logger.Debug("Listing assignees")
	query := `
        SELECT id, name, created_at
        FROM assignees
        ORDER BY seq
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query assignees", zap.Error(err))
		return nil, classifyPg(err)
	}
	defer rows.Close()

	assignees := []model.Assignee{}
	for rows.Next() {
		var a model.Assignee
		if err := rows.Scan(&a.ID, &a.Name, &a.CreatedAt); err != nil {
			r.logger.Error("Failed to scan assignee row", zap.Error(err))
			return nil, classifyPg(err)
		}
		assignees = append(assignees, a)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Failed to iterate assignee rows", zap.Error(err))
		return nil, classifyPg(err)
	}
	r.logger.Info("Assignees listed successfully", zap.Int("count", len(assignees)))
	return assignees, nil
}

func (r *PostgresStore) CreateAssignment(ctx context.Context, a *model.Assignment) error {
	defer observe("insert", "task_assignees", time.Now())
	r.logger.Debug("Inserting assignment",
		zap.String("task_id", a.TaskID),
		zap.String("assignee_id", a.AssigneeID),
	)
	query := `
        INSERT INTO task_assignees (task_id, assignee_id, created_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (task_id, assignee_id) DO NOTHING
    `
	result, err := r.db.Exec(ctx, query, a.TaskID, a.AssigneeID, a.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert assignment",
			zap.Error(err),
			zap.String("task_id", a.TaskID),
			zap.String("assignee_id", a.AssigneeID),
		)
		return classifyPg(err)
	}
	r.logger.Info("Assignment stored",
		zap.String("task_id", a.TaskID),
		zap.String("assignee_id", a.AssigneeID),
		zap.Int64("rows_affected", result.RowsAffected()),
	)
	return nil
}

func (r *PostgresStore) CompleteTask(ctx context.Context, id string) (*model.Task, error) {
	defer observe("update", "tasks", time.Now())
	r.logger.Debug("Marking task as completed", zap.String("task_id", id))
	query := `
        UPDATE tasks
        SET completed = TRUE
        WHERE id = $1
        RETURNING id, title, description, urgency, completed, created_at
    `
	var (
		t       model.Task
		urgency string
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&urgency,
		&t.Completed,
		&t.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to mark task as completed", zap.Error(err), zap.String("task_id", id))
		return nil, classifyPg(err)
	}
	t.Urgency = model.Urgency(urgency)
	t.Assignees = []model.Assignee{}
	r.logger.Info("Task marked as completed", zap.String("task_id", id))
	return &t, nil
}

// classifyPg maps missing rows and foreign key violations to ErrNotFound.
func classifyPg(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return fmt.Errorf("%w: %s", ErrNotFound, pgErr.ConstraintName)
	}
	return err
}
