package favorites

import (
	"context"
	"fmt"

	"github.com/2beens/ironlog/internal/telemetry/tracing"
	"github.com/2beens/ironlog/pkg"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) List(ctx context.Context, ownerID string) (_ []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.favorites.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx,
		`SELECT exercise_id FROM favorite WHERE user_id = $1 ORDER BY created_at ASC;`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	exerciseIDs := make([]string, 0)
	for rows.Next() {
		var exerciseID string
		if err := rows.Scan(&exerciseID); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		exerciseIDs = append(exerciseIDs, exerciseID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("favorites.count", len(exerciseIDs)))
	return exerciseIDs, nil
}

// Toggle removes the marker if present, otherwise creates it. Two concurrent
// toggles for the same pair race on the existence check; the unique
// (user_id, exercise_id) constraint recovers a consistent end state.
func (r *PostgresRepo) Toggle(ctx context.Context, ownerID, exerciseID string) (isFavorite bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.favorites.toggle")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(ctx,
		`DELETE FROM favorite WHERE user_id = $1 AND exercise_id = $2;`,
		ownerID, exerciseID,
	)
	if err != nil {
		return false, fmt.Errorf("delete favorite: %w", err)
	}
	if tag.RowsAffected() > 0 {
		span.SetAttributes(attribute.Bool("favorites.removed", true))
		return false, nil
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO favorite (id, user_id, exercise_id, created_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (user_id, exercise_id) DO NOTHING;`,
		uuid.NewString(), ownerID, exerciseID,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return true, nil
		}
		return false, fmt.Errorf("insert favorite: %w", err)
	}

	return true, nil
}
