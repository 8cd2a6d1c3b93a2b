package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eastgatechurch/eastgate-app/internal/domain/entity"
	"github.com/eastgatechurch/eastgate-app/internal/domain/repository"
)

var ErrProfileNotFound = repository.ErrProfileNotFound

const profileColumns = `id, first_name, last_name, email, avatar_url, phone, address, bio, ministry_roles, created_at, updated_at`

type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*entity.Profile, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE id = $1
	`, id)
	return scanProfile(row)
}

// Patch applies a partial update and returns the updated row. Last write
// wins; no optimistic-concurrency token is used.
func (r *ProfileRepository) Patch(ctx context.Context, id string, patch entity.ProfilePatch) (*entity.Profile, error) {
	set := make([]string, 0, 9)
	args := make([]any, 0, 10)

	add := func(col string, val any) {
		args = append(args, val)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.FirstName != nil {
		add("first_name", *patch.FirstName)
	}
	if patch.LastName != nil {
		add("last_name", *patch.LastName)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.SetAvatarNull {
		set = append(set, "avatar_url = NULL")
	} else if patch.AvatarURL != nil {
		add("avatar_url", *patch.AvatarURL)
	}
	if patch.Phone != nil {
		add("phone", *patch.Phone)
	}
	if patch.Address != nil {
		add("address", *patch.Address)
	}
	if patch.Bio != nil {
		add("bio", *patch.Bio)
	}
	if patch.MinistryRoles != nil {
		add("ministry_roles", patch.MinistryRoles)
	}

	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	set = append(set, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE profiles
		SET %s
		WHERE id = $%d
		RETURNING `+profileColumns,
		strings.Join(set, ", "), len(args))

	row := r.pool.QueryRow(ctx, query, args...)
	return scanProfile(row)
}

// Lookup calls the get_user_profile function; the result is list-shaped and
// the first row wins, nil when the set is empty.
func (r *ProfileRepository) Lookup(ctx context.Context, userID string) (*entity.Profile, error) {
	rows, err := r.pool.Query(ctx, `SELECT * FROM get_user_profile($1)`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	p := &entity.Profile{}
	if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.AvatarURL,
		&p.Phone, &p.Address, &p.Bio, &p.MinistryRoles, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProfileRepository) Create(ctx context.Context, p *entity.Profile) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO profiles (id, first_name, last_name, email, ministry_roles)
		VALUES ($1, $2, $3, $4, COALESCE($5, '{}'))
		RETURNING created_at, updated_at
	`, p.ID, p.FirstName, p.LastName, p.Email, p.MinistryRoles)
	return row.Scan(&p.CreatedAt, &p.UpdatedAt)
}

func scanProfile(row pgx.Row) (*entity.Profile, error) {
	p := &entity.Profile{}
	if err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.AvatarURL,
		&p.Phone, &p.Address, &p.Bio, &p.MinistryRoles, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return p, nil
}


var _ repository.ProfileRepository = (*ProfileRepository)(nil)
