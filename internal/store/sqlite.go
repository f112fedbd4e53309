package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperengineering/tablekeep/internal/types"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// SQLiteStore represents the SQLite-backed campaign database.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLiteStore instance.
// It initializes the database with WAL mode, applies pragmas, and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Each connection to :memory: is a separate database.
	if dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// enablePragmas sets SQLite pragmas for optimal performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateCampaign stores a new campaign with a generated ULID.
func (s *SQLiteStore) CreateCampaign(ctx context.Context, c types.NewCampaign) (*types.Campaign, error) {
	now := time.Now().UTC()
	campaign := types.Campaign{
		ID:          ulid.Make().String(),
		Name:        c.Name,
		GameSystem:  c.GameSystem,
		OwnerID:     c.OwnerID,
		Description: c.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO campaigns (id, name, game_system, owner_id, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, campaign.ID, campaign.Name, campaign.GameSystem, campaign.OwnerID, campaign.Description,
		formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("insert campaign: %w", err)
	}

	return &campaign, nil
}

// GetCampaign retrieves a campaign by ID.
func (s *SQLiteStore) GetCampaign(ctx context.Context, id string) (*types.Campaign, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, game_system, owner_id, description, created_at, updated_at
		FROM campaigns WHERE id = ?
	`, id)

	c, err := scanCampaign(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("scan campaign: %w", err)
	}
	return c, nil
}

// ListCampaigns returns campaigns newest first. An empty ownerID lists all.
func (s *SQLiteStore) ListCampaigns(ctx context.Context, ownerID string) ([]types.Campaign, error) {
	query := `
		SELECT id, name, game_system, owner_id, description, created_at, updated_at
		FROM campaigns`
	var args []any
	if ownerID != "" {
		query += ` WHERE owner_id = ?`
		args = append(args, ownerID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []types.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		campaigns = append(campaigns, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return campaigns, nil
}

func scanCampaign(scanner interface{ Scan(...any) error }) (*types.Campaign, error) {
	var c types.Campaign
	var createdAt, updatedAt string
	if err := scanner.Scan(&c.ID, &c.Name, &c.GameSystem, &c.OwnerID, &c.Description, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}

// SaveDraft upserts the draft frame for a campaign.
func (s *SQLiteStore) SaveDraft(ctx context.Context, snap types.FrameSnapshot) error {
	if err := s.requireCampaign(ctx, snap.CampaignID); err != nil {
		return err
	}

	fields, steps, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO frames (campaign_id, fields, step_index, completed_steps, template_id, status, updated_at)
		VALUES (?, ?, ?, ?, ?, 'draft', ?)
		ON CONFLICT(campaign_id) DO UPDATE SET
			fields = excluded.fields,
			step_index = excluded.step_index,
			completed_steps = excluded.completed_steps,
			template_id = excluded.template_id,
			updated_at = excluded.updated_at
		WHERE frames.status = 'draft'
	`, snap.CampaignID, fields, snap.Progress.StepIndex, steps, snap.TemplateID, formatTime(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("upsert draft: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		return ErrFrameCompleted
	}
	return nil
}

// FinalizeFrame writes the frame with completed status. Finalizing an already
// completed frame overwrites it.
func (s *SQLiteStore) FinalizeFrame(ctx context.Context, snap types.FrameSnapshot) (*types.FrameSnapshot, error) {
	if err := s.requireCampaign(ctx, snap.CampaignID); err != nil {
		return nil, err
	}

	fields, steps, err := encodeSnapshot(snap)
	if err != nil {
		return nil, err
	}

	now := formatTime(time.Now().UTC())
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO frames (campaign_id, fields, step_index, completed_steps, template_id, status, updated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, 'completed', ?, ?)
		ON CONFLICT(campaign_id) DO UPDATE SET
			fields = excluded.fields,
			step_index = excluded.step_index,
			completed_steps = excluded.completed_steps,
			template_id = excluded.template_id,
			status = 'completed',
			updated_at = excluded.updated_at,
			completed_at = excluded.completed_at
	`, snap.CampaignID, fields, snap.Progress.StepIndex, steps, snap.TemplateID, now, now)
	if err != nil {
		return nil, fmt.Errorf("finalize frame: %w", err)
	}

	return s.LoadFrame(ctx, snap.CampaignID)
}

// LoadFrame returns the stored frame for a campaign, draft or completed.
func (s *SQLiteStore) LoadFrame(ctx context.Context, campaignID string) (*types.FrameSnapshot, error) {
	var snap types.FrameSnapshot
	var fields, steps, status, updatedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT campaign_id, fields, step_index, completed_steps, template_id, status, updated_at
		FROM frames WHERE campaign_id = ?
	`, campaignID).Scan(&snap.CampaignID, &fields, &snap.Progress.StepIndex, &steps, &snap.TemplateID, &status, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFrameNotFound
		}
		return nil, fmt.Errorf("scan frame: %w", err)
	}

	if err := json.Unmarshal([]byte(fields), &snap.Fields); err != nil {
		return nil, fmt.Errorf("parse fields JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(steps), &snap.Progress.CompletedSteps); err != nil {
		return nil, fmt.Errorf("parse completed steps JSON: %w", err)
	}
	snap.Status = types.FrameStatus(status)
	snap.UpdatedAt = parseTime(updatedAt)
	return &snap, nil
}

func encodeSnapshot(snap types.FrameSnapshot) (fields, steps string, err error) {
	f := snap.Fields
	if f == nil {
		f = map[string]any{}
	}
	fb, err := json.Marshal(f)
	if err != nil {
		return "", "", fmt.Errorf("marshal fields: %w", err)
	}
	cs := snap.Progress.CompletedSteps
	if cs == nil {
		cs = []int{}
	}
	sb, err := json.Marshal(cs)
	if err != nil {
		return "", "", fmt.Errorf("marshal completed steps: %w", err)
	}
	return string(fb), string(sb), nil
}

// CreateEntity persists a normalized record under a campaign.
func (s *SQLiteStore) CreateEntity(ctx context.Context, campaignID string, rec types.Record) (*types.Entity, error) {
	if rec == nil {
		return nil, errors.New("create entity: nil record")
	}
	if err := s.requireCampaign(ctx, campaignID); err != nil {
		return nil, err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", rec.Kind(), err)
	}

	entity := types.Entity{
		ID:         ulid.Make().String(),
		CampaignID: campaignID,
		Kind:       rec.Kind(),
		Name:       rec.DisplayName(),
		Data:       data,
		CreatedAt:  time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entities (id, campaign_id, kind, name, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entity.ID, entity.CampaignID, string(entity.Kind), entity.Name, string(entity.Data), formatTime(entity.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert entity: %w", err)
	}

	return &entity, nil
}

// GetEntity retrieves an entity by ID.
func (s *SQLiteStore) GetEntity(ctx context.Context, id string) (*types.Entity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, campaign_id, kind, name, data, created_at
		FROM entities WHERE id = ?
	`, id)
	e, err := scanEntity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntityNotFound
		}
		return nil, fmt.Errorf("scan entity: %w", err)
	}
	return e, nil
}

// ListEntities returns a campaign's entities in creation order.
func (s *SQLiteStore) ListEntities(ctx context.Context, campaignID string, kind types.EntityKind) ([]types.Entity, error) {
	query := `
		SELECT id, campaign_id, kind, name, data, created_at
		FROM entities WHERE campaign_id = ?`
	args := []any{campaignID}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at ASC, rowid ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	entities := []types.Entity{}
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		entities = append(entities, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entities, nil
}

func scanEntity(scanner interface{ Scan(...any) error }) (*types.Entity, error) {
	var e types.Entity
	var kind, data, createdAt string
	if err := scanner.Scan(&e.ID, &e.CampaignID, &kind, &e.Name, &data, &createdAt); err != nil {
		return nil, err
	}
	e.Kind = types.EntityKind(kind)
	e.Data = json.RawMessage(data)
	e.CreatedAt = parseTime(createdAt)
	return &e, nil
}

func (s *SQLiteStore) requireCampaign(ctx context.Context, id string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM campaigns WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCampaignNotFound
	}
	if err != nil {
		return fmt.Errorf("check campaign: %w", err)
	}
	return nil
}

// timeFormat is fixed-width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
