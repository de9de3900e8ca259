package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/facegate/facegate/internal/database"
	"github.com/go-sql-driver/mysql"
)

const mysqlErrDuplicateEntry = 1062

// UserRepository provides MySQL-backed user storage.
type UserRepository struct {
	pool *Pool
}

// NewUserRepository creates a new MySQL user repository.
func NewUserRepository(pool *Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = "id, first_name, last_name, email, embedding, image_path, created_at"

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry
}

// Create stores a new user and returns it with the assigned ID.
func (r *UserRepository) Create(ctx context.Context, user *database.User) (*database.User, error) {
	embJSON, err := json.Marshal(user.Embedding)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding: %w", err)
	}

	query := `
		INSERT INTO users (first_name, last_name, email, embedding, image_path)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.pool.db.ExecContext(ctx, query,
		user.FirstName, user.LastName, user.Email, embJSON, user.ImagePath,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return nil, database.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return r.Get(ctx, id)
}

// Get retrieves a user by ID, returns nil if not found.
func (r *UserRepository) Get(ctx context.Context, id int64) (*database.User, error) {
	row := r.pool.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// GetByEmail retrieves a user by email, returns nil if not found.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*database.User, error) {
	row := r.pool.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return scanUser(row)
}

// List returns all users ordered by creation time.
func (r *UserRepository) List(ctx context.Context) ([]database.User, error) {
	rows, err := r.pool.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// Update replaces the mutable fields of an existing user.
func (r *UserRepository) Update(ctx context.Context, user *database.User) error {
	embJSON, err := json.Marshal(user.Embedding)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}

	query := `
		UPDATE users
		SET first_name = ?, last_name = ?, email = ?, embedding = ?, image_path = ?
		WHERE id = ?
	`

	result, err := r.pool.db.ExecContext(ctx, query,
		user.FirstName, user.LastName, user.Email, embJSON, user.ImagePath, user.ID,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return database.ErrDuplicateEmail
		}
		return fmt.Errorf("update user: %w", err)
	}

	// MySQL reports zero affected rows for no-op updates too, so check
	// existence separately only when nothing matched.
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows affected: %w", err)
	}
	if affected == 0 {
		existing, err := r.Get(ctx, user.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("user %d not found", user.ID)
		}
	}
	return nil
}

// Delete removes a user. Returns the deleted user, nil if not found.
func (r *UserRepository) Delete(ctx context.Context, id int64) (*database.User, error) {
	user, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	if _, err := r.pool.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	return user, nil
}

// Count returns the total number of enrolled users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// FindSimilar finds users with similar embeddings using cosine distance.
// MySQL has no vector operators, so all embeddings are scanned in Go. The
// in-memory HNSW index handles the hot path; this is the fallback.
func (r *UserRepository) FindSimilar(ctx context.Context, embedding []float32, limit int) ([]database.User, []float64, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, nil, err
	}

	type scored struct {
		user     database.User
		distance float64
	}

	results := make([]scored, 0, len(users))
	for _, user := range users {
		results = append(results, scored{user, database.CosineDistance(embedding, user.Embedding)})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].distance < results[j].distance })

	if limit > len(results) {
		limit = len(results)
	}

	out := make([]database.User, limit)
	distances := make([]float64, limit)
	for i := 0; i < limit; i++ {
		out[i] = results[i].user
		distances[i] = results[i].distance
	}
	return out, distances, nil
}

// scanUser scans a single user row, mapping sql.ErrNoRows to nil.
func scanUser(row *sql.Row) (*database.User, error) {
	var user database.User
	var embJSON []byte
	err := row.Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Email,
		&embJSON, &user.ImagePath, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if err := json.Unmarshal(embJSON, &user.Embedding); err != nil {
		return nil, fmt.Errorf("unmarshal embedding: %w", err)
	}
	return &user, nil
}

func scanUsers(rows *sql.Rows) ([]database.User, error) {
	var users []database.User
	for rows.Next() {
		var user database.User
		var embJSON []byte
		if err := rows.Scan(
			&user.ID, &user.FirstName, &user.LastName, &user.Email,
			&embJSON, &user.ImagePath, &user.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		if err := json.Unmarshal(embJSON, &user.Embedding); err != nil {
			return nil, fmt.Errorf("unmarshal embedding: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}
