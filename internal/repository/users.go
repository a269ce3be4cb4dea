package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bibliotech/library-service/internal/errs"
	"github.com/bibliotech/library-service/internal/model"
	"github.com/pkg/errors"
)

func (r *repository) CreateUser(ctx context.Context, user model.User) error {
	q := fmt.Sprintf(`
	insert into %s (username, password, email, role_id)
	values ($1, $2, $3, (select id from %s where name = $4))`,
		usersTableName, rolesTableName)
	if _, err := r.db.ExecContext(ctx, q, user.Username, user.Password, user.Email, user.Role); err != nil {
		return wrapPgErr(err)
	}
	return nil
}

func (r *repository) GetUser(ctx context.Context, username string) (model.User, error) {
	q := fmt.Sprintf(`
	select u.id, username, password, email, r.name as role
	from %s u
	join %s r on r.id = u.role_id
	where username = $1`, usersTableName, rolesTableName)

	var user model.User
	if err := r.db.GetContext(ctx, &user, q, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.ErrNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

// RevokeToken is idempotent: revoking the same token twice has the effect of
// revoking it once.
func (r *repository) RevokeToken(ctx context.Context, token string, at time.Time) error {
	q := fmt.Sprintf(`
	insert into %s (token, revoked_at) values ($1, $2)
	on conflict (token) do nothing`, tokensTableName)
	_, err := r.db.ExecContext(ctx, q, token, at)
	return err
}

func (r *repository) IsRevoked(ctx context.Context, token string) (bool, error) {
	q := fmt.Sprintf(`select exists (select 1 from %s where token = $1)`, tokensTableName)

	var revoked bool
	if err := r.db.GetContext(ctx, &revoked, q, token); err != nil {
		return false, err
	}
	return revoked, nil
}
