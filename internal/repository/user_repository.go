package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/hopon-app/hopon-backend/internal/model"
	"github.com/hopon-app/hopon-backend/internal/utils"
)

// UserRepo persists user profiles and their aggregate counters.
type UserRepo struct{ DB *sql.DB }

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// ErrEmailExists is returned when registration hits the unique email index.
var ErrEmailExists = errors.New("email already exists")

const userColumns = `id, email, name, password_hash, avatar_url, bio, location,
	latitude, longitude, phone, events_hosted, events_joined,
	rating_sum, rating_count, created_at, last_login`

func scanUser(s interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := s.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.AvatarURL, &u.Bio,
		&u.Location, &u.Latitude, &u.Longitude, &u.Phone,
		&u.EventsHosted, &u.EventsJoined, &u.RatingSum, &u.RatingCount,
		&u.CreatedAt, &u.LastLogin,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, name, password string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, name, password_hash) VALUES (?,?,?)",
		email, name, hash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	q := `SELECT ` + userColumns + ` FROM users WHERE email = ? LIMIT 1`
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, email))
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	return u, err
}

// GetByID fetches a user by id.  Returns ErrUserNotFound when missing.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = ? LIMIT 1`
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	return u, err
}

// TouchLastLogin records a successful login.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET last_login = UTC_TIMESTAMP() WHERE id = ?", id)
	return err
}

// UpdatableUserFields carries the self-editable profile fields.  Nil
// pointers leave the current value untouched.
type UpdatableUserFields struct {
	Name      *string
	Bio       *string
	Location  *string
	Latitude  *float64
	Longitude *float64
	Phone     *string
}

// UpdateProfile applies the non-nil fields to the user's row.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, f UpdatableUserFields) error {
	set := []string{}
	args := []any{}
	add := func(col string, v any) {
		set = append(set, col+" = ?")
		args = append(args, v)
	}
	if f.Name != nil {
		add("name", *f.Name)
	}
	if f.Bio != nil {
		add("bio", *f.Bio)
	}
	if f.Location != nil {
		add("location", *f.Location)
	}
	if f.Latitude != nil {
		add("latitude", *f.Latitude)
	}
	if f.Longitude != nil {
		add("longitude", *f.Longitude)
	}
	if f.Phone != nil {
		add("phone", *f.Phone)
	}
	if len(set) == 0 {
		return nil
	}
	q := "UPDATE users SET " + strings.Join(set, ", ") + " WHERE id = ?"
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx, q, args...)
	return err
}

// IncrementHosted bumps the user's hosted-event counter.  Called in
// the same transaction as the event insert.
func (r *UserRepo) IncrementHostedTx(ctx context.Context, tx *sql.Tx, userID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE users SET events_hosted = events_hosted + 1 WHERE id = ?", userID)
	return err
}

// IncrementJoinedTx bumps the user's joined-event counter inside the
// caller's transaction so it commits with the participation insert.
func (r *UserRepo) IncrementJoinedTx(ctx context.Context, tx *sql.Tx, userID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE users SET events_joined = events_joined + 1 WHERE id = ?", userID)
	return err
}

// DecrementJoinedTx lowers the joined-event counter, flooring at zero.
func (r *UserRepo) DecrementJoinedTx(ctx context.Context, tx *sql.Tx, userID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE users SET events_joined = GREATEST(0, events_joined - 1) WHERE id = ?", userID)
	return err
}

// AddRatingTx folds a new rating value into the rated user's running
// sum and count.  Must run in the same transaction as the rating
// insert so the aggregates can never drift from the rows they
// summarize.
func (r *UserRepo) AddRatingTx(ctx context.Context, tx *sql.Tx, ratedID uint64, value int) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE users SET rating_sum = rating_sum + ?, rating_count = rating_count + 1 WHERE id = ?",
		value, ratedID)
	return err
}
