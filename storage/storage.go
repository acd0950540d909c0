package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BaSui01/canvasflow/graph"
	"github.com/BaSui01/canvasflow/types"
)

// WorkflowRecord is the persisted form of a workflow: the raw visual
// definition (nodes + edges as drawn) next to the compiled step list the
// runtime consumes. Keeping both means loading back into the editor needs
// no decompilation.
type WorkflowRecord struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex;not null"`
	Description string
	Definition  string // raw graph document JSON
	Steps       string // compiled node list JSON
	StartStepID string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName keeps the original schema's table name.
func (WorkflowRecord) TableName() string { return "workflows" }

// Summary is the listing shape: everything but the graph payloads.
type Summary struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store persists workflow documents in SQLite.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open opens (or creates) the database at path and migrates the schema.
// Use ":memory:" for an in-process database.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&WorkflowRecord{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Save upserts a workflow by name and returns its id, matching the
// original's INSERT ... ON CONFLICT(name) DO UPDATE behavior. doc carries
// the raw drawn graph; compiled is its normalized form.
func (s *Store) Save(ctx context.Context, doc *graph.Document, compiled *graph.Compiled) (uint, error) {
	definition, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("marshal definition: %w", err)
	}
	steps, err := json.Marshal(compiled.Nodes)
	if err != nil {
		return 0, fmt.Errorf("marshal steps: %w", err)
	}
	rec := WorkflowRecord{
		Name:        doc.Name,
		Description: doc.Description,
		Definition:  string(definition),
		Steps:       string(steps),
		StartStepID: compiled.StartStepID(),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"description", "definition", "steps", "start_step_id", "updated_at",
		}),
	}).Create(&rec).Error
	if err != nil {
		return 0, types.NewError(types.ErrStorageFailure, "save workflow").WithCause(err)
	}
	// The upsert path leaves rec.ID at the conflicting row's id only on
	// insert; re-read by name to be sure.
	var saved WorkflowRecord
	if err := s.db.WithContext(ctx).Where("name = ?", doc.Name).First(&saved).Error; err != nil {
		return 0, types.NewError(types.ErrStorageFailure, "read back workflow").WithCause(err)
	}
	s.logger.Info("workflow saved",
		zap.Uint("id", saved.ID), zap.String("name", saved.Name))
	return saved.ID, nil
}

// Get loads a workflow's document for the builder.
func (s *Store) Get(ctx context.Context, id uint) (*graph.Document, error) {
	var rec WorkflowRecord
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewError(types.ErrWorkflowNotFound,
				fmt.Sprintf("workflow %d not found", id))
		}
		return nil, types.NewError(types.ErrStorageFailure, "load workflow").WithCause(err)
	}
	doc, err := graph.Import([]byte(rec.Definition))
	if err != nil {
		return nil, types.NewError(types.ErrStorageFailure, "parse stored definition").WithCause(err)
	}
	doc.ID = rec.ID
	doc.Name = rec.Name
	doc.Description = rec.Description
	return doc, nil
}

// List returns workflow summaries, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	var recs []WorkflowRecord
	if err := s.db.WithContext(ctx).Order("updated_at desc").Find(&recs).Error; err != nil {
		return nil, types.NewError(types.ErrStorageFailure, "list workflows").WithCause(err)
	}
	out := make([]Summary, len(recs))
	for i, r := range recs {
		out[i] = Summary{ID: r.ID, Name: r.Name, Description: r.Description, UpdatedAt: r.UpdatedAt}
	}
	return out, nil
}

// Delete removes a workflow. It reports whether a row was deleted.
func (s *Store) Delete(ctx context.Context, id uint) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&WorkflowRecord{}, id)
	if res.Error != nil {
		return false, types.NewError(types.ErrStorageFailure, "delete workflow").WithCause(res.Error)
	}
	return res.RowsAffected > 0, nil
}
