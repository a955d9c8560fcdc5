package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/ironlog/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// Create stores the profile mirror. Re-registering the same uid just
// refreshes email and username, clients can replay the register call
// after a retry.
func (r *PostgresRepo) Create(ctx context.Context, user User) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	row := r.db.QueryRow(ctx,
		`INSERT INTO workout_user (uid, email, username, created_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (uid) DO UPDATE SET email = $2, username = $3
			RETURNING uid, email, username, created_at;`,
		user.UID, user.Email, user.Username,
	)

	var created User
	if err := row.Scan(&created.UID, &created.Email, &created.Username, &created.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &created, nil
}

func (r *PostgresRepo) Get(ctx context.Context, uid string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	row := r.db.QueryRow(ctx,
		`SELECT uid, email, username, created_at FROM workout_user WHERE uid = $1;`,
		uid,
	)

	var user User
	if err := row.Scan(&user.UID, &user.Email, &user.Username, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}
