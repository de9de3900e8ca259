package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/facegate/facegate/internal/database"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// UserRepository provides PostgreSQL-backed user storage. Embeddings live in
// a pgvector column so similarity search runs inside the database.
type UserRepository struct {
	pool *Pool
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(pool *Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = "id, first_name, last_name, email, embedding, image_path, created_at"

// Create stores a new user and returns it with the assigned ID.
func (r *UserRepository) Create(ctx context.Context, user *database.User) (*database.User, error) {
	query := `
		INSERT INTO users (first_name, last_name, email, embedding, image_path)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	vec := pgvector.NewVector(user.Embedding)
	created := *user
	err := r.pool.QueryRow(ctx, query,
		user.FirstName, user.LastName, user.Email, vec, user.ImagePath,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, database.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &created, nil
}

// Get retrieves a user by ID, returns nil if not found.
func (r *UserRepository) Get(ctx context.Context, id int64) (*database.User, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	return scanUser(row)
}

// GetByEmail retrieves a user by email, returns nil if not found.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*database.User, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
	return scanUser(row)
}

// List returns all users ordered by creation time.
func (r *UserRepository) List(ctx context.Context) ([]database.User, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// Update replaces the mutable fields of an existing user.
func (r *UserRepository) Update(ctx context.Context, user *database.User) error {
	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, email = $3, embedding = $4, image_path = $5
		WHERE id = $6
	`

	vec := pgvector.NewVector(user.Embedding)
	result, err := r.pool.Exec(ctx, query,
		user.FirstName, user.LastName, user.Email, vec, user.ImagePath, user.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return database.ErrDuplicateEmail
		}
		return fmt.Errorf("update user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %d not found", user.ID)
	}
	return nil
}

// Delete removes a user. Returns the deleted user, nil if not found.
func (r *UserRepository) Delete(ctx context.Context, id int64) (*database.User, error) {
	row := r.pool.QueryRow(ctx, "DELETE FROM users WHERE id = $1 RETURNING "+userColumns, id)
	return scanUser(row)
}

// Count returns the total number of enrolled users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// FindSimilar finds users with similar embeddings using cosine distance.
// The <=> operator uses the HNSW index built by the init migration.
func (r *UserRepository) FindSimilar(ctx context.Context, embedding []float32, limit int) ([]database.User, []float64, error) {
	query := `
		SELECT ` + userColumns + `, embedding <=> $1 AS distance
		FROM users
		ORDER BY distance
		LIMIT $2
	`

	vec := pgvector.NewVector(embedding)
	rows, err := r.pool.Query(ctx, query, vec, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("query similar users: %w", err)
	}
	defer rows.Close()

	var users []database.User
	var distances []float64
	for rows.Next() {
		var user database.User
		var vec pgvector.Vector
		var distance float64
		if err := rows.Scan(
			&user.ID, &user.FirstName, &user.LastName, &user.Email,
			&vec, &user.ImagePath, &user.CreatedAt, &distance,
		); err != nil {
			return nil, nil, fmt.Errorf("scan similar user: %w", err)
		}
		user.Embedding = vec.Slice()
		users = append(users, user)
		distances = append(distances, distance)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate similar users: %w", err)
	}

	return users, distances, nil
}

// scanUser scans a single user row, mapping sql.ErrNoRows to nil.
func scanUser(row *sql.Row) (*database.User, error) {
	var user database.User
	var vec pgvector.Vector
	err := row.Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Email,
		&vec, &user.ImagePath, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.Embedding = vec.Slice()
	return &user, nil
}

func scanUsers(rows *sql.Rows) ([]database.User, error) {
	var users []database.User
	for rows.Next() {
		var user database.User
		var vec pgvector.Vector
		if err := rows.Scan(
			&user.ID, &user.FirstName, &user.LastName, &user.Email,
			&vec, &user.ImagePath, &user.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		user.Embedding = vec.Slice()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}
