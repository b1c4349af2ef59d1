package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/illegalcall/mentor-tracker/internal/models"
)

const profileColumns = "id, email, full_name, account_type, mentor_name, fun_facts, points, profile_pic, password_hash"

const uniqueViolation = "23505"

var pgColumns = map[models.Field]string{
	models.FieldID:           "id",
	models.FieldEmail:        "email",
	models.FieldFullName:     "full_name",
	models.FieldAccountType:  "account_type",
	models.FieldMentorName:   "mentor_name",
	models.FieldFunFacts:     "fun_facts",
	models.FieldPoints:       "points",
	models.FieldProfilePic:   "profile_pic",
	models.FieldPasswordHash: "password_hash",
}

// PostgresAccessor keeps profiles in a single relational table.
type PostgresAccessor struct {
	db *sqlx.DB
}

func NewPostgresAccessor(db *sqlx.DB) *PostgresAccessor {
	return &PostgresAccessor{db: db}
}

// CreateProfilesTable ensures the profiles table and its lookup indexes exist.
func (a *PostgresAccessor) CreateProfilesTable(ctx context.Context) error {
	schema := `CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		account_type TEXT NOT NULL,
		mentor_name TEXT NOT NULL DEFAULT '',
		fun_facts TEXT NOT NULL DEFAULT '',
		points INTEGER NOT NULL DEFAULT 0,
		profile_pic TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS profiles_mentor_name_idx ON profiles (mentor_name);
	CREATE INDEX IF NOT EXISTS profiles_account_type_idx ON profiles (account_type);`

	if _, err := a.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create profiles table: %w", err)
	}

	slog.Info("✅ Profiles table is ready!")
	return nil
}

func (a *PostgresAccessor) FindOne(ctx context.Context, filter Filter) (models.Profile, error) {
	where, args, err := pgWhere(filter, 1)
	if err != nil {
		return models.Profile{}, err
	}

	var p models.Profile
	query := "SELECT " + profileColumns + " FROM profiles" + where + " LIMIT 1"
	if err := a.db.GetContext(ctx, &p, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Profile{}, ErrNotFound
		}
		return models.Profile{}, fmt.Errorf("failed to find profile: %w", err)
	}
	return p, nil
}

func (a *PostgresAccessor) FindMany(ctx context.Context, filter Filter) iter.Seq2[models.Profile, error] {
	where, args, err := pgWhere(filter, 1)
	if err != nil {
		return failed(err)
	}
	query := "SELECT " + profileColumns + " FROM profiles" + where + " ORDER BY id"

	return func(yield func(models.Profile, error) bool) {
		rows, err := a.db.QueryxContext(ctx, query, args...)
		if err != nil {
			yield(models.Profile{}, fmt.Errorf("failed to query profiles: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var p models.Profile
			if err := rows.StructScan(&p); err != nil {
				yield(models.Profile{}, fmt.Errorf("failed to scan profile: %w", err))
				return
			}
			if !yield(p, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.Profile{}, fmt.Errorf("failed to iterate profiles: %w", err))
		}
	}
}

func (a *PostgresAccessor) UpdateOneReturningNew(ctx context.Context, filter Filter, set []models.Assignment) (models.Profile, error) {
	if len(filter) == 0 {
		return models.Profile{}, ErrEmptyFilter
	}
	if len(set) == 0 {
		return models.Profile{}, fmt.Errorf("empty update set")
	}

	assignments := make([]string, 0, len(set))
	args := make([]any, 0, len(set)+len(filter))
	for _, s := range set {
		col, ok := pgColumns[s.Field]
		if !ok || s.Field == models.FieldID || s.Field == models.FieldPoints {
			return models.Profile{}, fmt.Errorf("%w: %s", ErrUnsupportedField, s.Field)
		}
		args = append(args, s.Value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	where, whereArgs, err := pgWhere(filter, len(args)+1)
	if err != nil {
		return models.Profile{}, err
	}
	args = append(args, whereArgs...)

	query := "UPDATE profiles SET " + strings.Join(assignments, ", ") + where + " RETURNING " + profileColumns

	var p models.Profile
	if err := a.db.QueryRowxContext(ctx, query, args...).StructScan(&p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Profile{}, ErrNotFound
		}
		if isUniqueViolation(err) {
			return models.Profile{}, ErrDuplicate
		}
		return models.Profile{}, fmt.Errorf("failed to update profile: %w", err)
	}
	return p, nil
}

func (a *PostgresAccessor) IncrementField(ctx context.Context, filter Filter, field models.Field, delta int) (int64, error) {
	if len(filter) == 0 {
		return 0, ErrEmptyFilter
	}
	if field != models.FieldPoints {
		return 0, fmt.Errorf("%w: %s is not a counter", ErrUnsupportedField, field)
	}
	col := pgColumns[field]

	where, whereArgs, err := pgWhere(filter, 2)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf("UPDATE profiles SET %s = %s + $1", col, col) + where
	res, err := a.db.ExecContext(ctx, query, append([]any{delta}, whereArgs...)...)
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", field, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

func (a *PostgresAccessor) InsertOne(ctx context.Context, p models.Profile) (models.Profile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	_, err := a.db.ExecContext(ctx,
		"INSERT INTO profiles ("+profileColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		p.ID, p.Email, p.FullName, p.AccountType, p.MentorName, p.FunFacts, p.Points, p.ProfilePic, p.PasswordHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Profile{}, ErrDuplicate
		}
		return models.Profile{}, fmt.Errorf("failed to insert profile: %w", err)
	}
	return p, nil
}

func (a *PostgresAccessor) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// pgWhere renders filter as a WHERE clause whose placeholders start at $start.
func pgWhere(filter Filter, start int) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}

	conds := make([]string, 0, len(filter))
	args := make([]any, 0, len(filter))
	for i, c := range filter {
		col, ok := pgColumns[c.Field]
		if !ok {
			return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedField, c.Field)
		}
		conds = append(conds, fmt.Sprintf("%s = $%d", col, start+i))
		args = append(args, c.Value)
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
