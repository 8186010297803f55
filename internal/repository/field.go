// Package repository reads and writes the CMS tables the service touches.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/cybersalt/cs-sponsored-articles/internal/database"
	"github.com/cybersalt/cs-sponsored-articles/internal/domain"
)

// FieldRepository manages custom field definitions.
type FieldRepository struct {
	db     *sqlx.DB
	tables database.Tables
}

// NewFieldRepository creates a new field repository.
func NewFieldRepository(db *sqlx.DB, tables database.Tables) *FieldRepository {
	return &FieldRepository{db: db, tables: tables}
}

// FindGroupID returns the id of the group with title in fieldContext.
// found is false when no such group exists.
func (r *FieldRepository) FindGroupID(ctx context.Context, title, fieldContext string) (id int64, found bool, err error) {
	query := r.tables.Q(`SELECT id FROM #__fields_groups WHERE title = $1 AND context = $2 ORDER BY id LIMIT 1`)
	return r.findID(ctx, query, title, fieldContext)
}

// FindFieldID returns the id of the field called name in fieldContext.
func (r *FieldRepository) FindFieldID(ctx context.Context, name, fieldContext string) (id int64, found bool, err error) {
	query := r.tables.Q(`SELECT id FROM #__fields WHERE name = $1 AND context = $2 ORDER BY id LIMIT 1`)
	return r.findID(ctx, query, name, fieldContext)
}

func (r *FieldRepository) findID(ctx context.Context, query string, args ...any) (int64, bool, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup id: %w", err)
	}
	return id, true, nil
}

// CreateGroup inserts group and returns its new id.
func (r *FieldRepository) CreateGroup(ctx context.Context, group *domain.FieldGroup) (int64, error) {
	query := r.tables.Q(`
		INSERT INTO #__fields_groups (
			context, title, note, description, state, ordering, params,
			language, access, created, created_by, modified, modified_by
		) VALUES (
			:context, :title, :note, :description, :state, :ordering, :params,
			:language, :access, :created, :created_by, :modified, :modified_by
		) RETURNING id`)

	id, err := r.insertReturningID(ctx, query, group)
	if err != nil {
		return 0, fmt.Errorf("insert field group: %w", err)
	}
	group.ID = id
	return id, nil
}

// CreateField inserts field and returns its new id.
func (r *FieldRepository) CreateField(ctx context.Context, field *domain.Field) (int64, error) {
	query := r.tables.Q(`
		INSERT INTO #__fields (
			context, group_id, title, name, label, default_value, type, note,
			description, state, required, only_use_in_subform, ordering,
			params, fieldparams, language, access,
			created_time, created_user_id, modified_time, modified_by
		) VALUES (
			:context, :group_id, :title, :name, :label, :default_value, :type, :note,
			:description, :state, :required, :only_use_in_subform, :ordering,
			:params, :fieldparams, :language, :access,
			:created_time, :created_user_id, :modified_time, :modified_by
		) RETURNING id`)

	id, err := r.insertReturningID(ctx, query, field)
	if err != nil {
		return 0, fmt.Errorf("insert field: %w", err)
	}
	field.ID = id
	return id, nil
}

func (r *FieldRepository) insertReturningID(ctx context.Context, query string, arg any) (int64, error) {
	bound, args, err := r.db.BindNamed(query, arg)
	if err != nil {
		return 0, fmt.Errorf("bind: %w", err)
	}

	var id int64
	if err = r.db.QueryRowxContext(ctx, bound, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
