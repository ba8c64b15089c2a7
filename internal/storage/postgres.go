package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mindwell/stress-engine/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	// Set pool configuration
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25 // default
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5 // default
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Pool exposes the underlying connection pool, used to run migrations
func (r *PostgresRepository) Pool() *pgxpool.Pool {
	return r.pool
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateAssessment creates a new check-in record
func (r *PostgresRepository) CreateAssessment(ctx context.Context, a *models.StressAssessment) error {
	tagsJSON, err := json.Marshal(a.EmotionTags)
	if err != nil {
		return fmt.Errorf("failed to marshal emotion tags: %w", err)
	}

	routineJSON, err := json.Marshal(a.RecommendedRoutine)
	if err != nil {
		return fmt.Errorf("failed to marshal routine: %w", err)
	}

	query := `
		INSERT INTO stress_assessments (id, user_id, workload, deadlines, concentration, sleep, emotion_tags, stress_score, recommended_routine, routine_effectiveness, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.pool.Exec(ctx, query,
		a.ID,
		a.UserID,
		a.Workload,
		a.Deadlines,
		a.Concentration,
		a.Sleep,
		tagsJSON,
		a.StressScore,
		routineJSON,
		nullInt(a.RoutineEffectiveness),
		a.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}

	return nil
}

// GetAssessment retrieves a check-in by ID
func (r *PostgresRepository) GetAssessment(ctx context.Context, id string) (*models.StressAssessment, error) {
	query := `
		SELECT id, user_id, workload, deadlines, concentration, sleep, emotion_tags, stress_score, recommended_routine, routine_effectiveness, created_at
		FROM stress_assessments
		WHERE id = $1
	`

	a, err := scanAssessment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	return a, nil
}

// UpdateEffectiveness records the user's routine rating on a check-in
func (r *PostgresRepository) UpdateEffectiveness(ctx context.Context, id string, rating int) error {
	query := `UPDATE stress_assessments SET routine_effectiveness = $2 WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, rating)
	if err != nil {
		return fmt.Errorf("failed to update effectiveness: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("assessment not found: %s", id)
	}

	return nil
}

// ListAssessments returns a user's check-ins, most recent first.
// A limit of 0 means no limit.
func (r *PostgresRepository) ListAssessments(ctx context.Context, userID string, limit, offset int) ([]*models.StressAssessment, error) {
	query := `
		SELECT id, user_id, workload, deadlines, concentration, sleep, emotion_tags, stress_score, recommended_routine, routine_effectiveness, created_at
		FROM stress_assessments
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	args := []interface{}{userID}
	argNum := 2

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, limit)
		argNum++
	}

	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	var assessments []*models.StressAssessment

	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		assessments = append(assessments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assessments: %w", err)
	}

	return assessments, nil
}

// scanAssessment reads one assessment row. The caller maps pgx.ErrNoRows.
func scanAssessment(row pgx.Row) (*models.StressAssessment, error) {
	var a models.StressAssessment
	var tagsJSON, routineJSON []byte
	var effectiveness sql.NullInt64

	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Workload,
		&a.Deadlines,
		&a.Concentration,
		&a.Sleep,
		&tagsJSON,
		&a.StressScore,
		&routineJSON,
		&effectiveness,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if tagsJSON != nil {
		if err := json.Unmarshal(tagsJSON, &a.EmotionTags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal emotion tags: %w", err)
		}
	}

	if err := json.Unmarshal(routineJSON, &a.RecommendedRoutine); err != nil {
		return nil, fmt.Errorf("failed to unmarshal routine: %w", err)
	}

	if effectiveness.Valid {
		v := int(effectiveness.Int64)
		a.RoutineEffectiveness = &v
	}

	return &a, nil
}

// UpsertPattern stores the latest pattern snapshot for a user
func (r *PostgresRepository) UpsertPattern(ctx context.Context, p *models.StressPattern) error {
	patternJSON, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal pattern: %w", err)
	}

	query := `
		INSERT INTO stress_patterns (user_id, pattern, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET pattern = EXCLUDED.pattern, updated_at = EXCLUDED.updated_at
	`

	_, err = r.pool.Exec(ctx, query, p.UserID, patternJSON, p.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to upsert pattern: %w", err)
	}

	return nil
}

// GetPattern retrieves the stored pattern snapshot for a user
func (r *PostgresRepository) GetPattern(ctx context.Context, userID string) (*models.StressPattern, error) {
	query := `SELECT pattern FROM stress_patterns WHERE user_id = $1`

	var patternJSON []byte
	err := r.pool.QueryRow(ctx, query, userID).Scan(&patternJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get pattern: %w", err)
	}

	var p models.StressPattern
	if err := json.Unmarshal(patternJSON, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pattern: %w", err)
	}
	p.UserID = userID

	return &p, nil
}

// ListActiveUserIDs returns users with at least one check-in since the
// given time
func (r *PostgresRepository) ListActiveUserIDs(ctx context.Context, since time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT user_id
		FROM stress_assessments
		WHERE created_at >= $1
	`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating active users: %w", err)
	}

	return ids, nil
}

// GetClientByApiKey retrieves an API client by its key
func (r *PostgresRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	query := `
		SELECT id, name, api_key, is_active, created_at, last_used_at, permissions, metadata
		FROM api_clients
		WHERE api_key = $1
	`

	var client models.ApiClient
	var lastUsedAt sql.NullTime
	var permissionsJSON, metadataJSON []byte

	err := r.pool.QueryRow(ctx, query, apiKey).Scan(
		&client.ID,
		&client.Name,
		&client.ApiKey,
		&client.IsActive,
		&client.CreatedAt,
		&lastUsedAt,
		&permissionsJSON,
		&metadataJSON,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get api client: %w", err)
	}

	if lastUsedAt.Valid {
		client.LastUsedAt = &lastUsedAt.Time
	}

	// Parse permissions JSON array
	if permissionsJSON != nil {
		if err := json.Unmarshal(permissionsJSON, &client.Permissions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal permissions: %w", err)
		}
	}

	// Parse metadata JSON object
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &client.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &client, nil
}

// UpdateClientLastUsed updates the last_used_at timestamp for a client
func (r *PostgresRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	query := `UPDATE api_clients SET last_used_at = NOW() WHERE api_key = $1`

	_, err := r.pool.Exec(ctx, query, apiKey)
	if err != nil {
		return fmt.Errorf("failed to update client last_used_at: %w", err)
	}

	return nil
}

// Helper functions for nullable values

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
