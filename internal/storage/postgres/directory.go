package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateUser inserts a new user.
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = newID(user.ID)
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, profile_picture, created_at) VALUES ($1, $2, $3, NULLIF($4, ''), $5)`,
		user.ID, user.Name, user.Email, user.ProfilePicture, user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: user %s", storage.ErrConflict, user.Email)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUsersByIDs retrieves multiple users. Unknown IDs are omitted.
func (s *PostgresStore) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, name, email, COALESCE(profile_picture, ''), created_at FROM users WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.ProfilePicture, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// CreateGroup inserts a group and its initial members in one transaction.
func (s *PostgresStore) CreateGroup(ctx context.Context, group *models.Group, memberIDs []string) error {
	group.ID = newID(group.ID)
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO groups (id, name, created_by, is_friend_group, is_deleted, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		group.ID, group.Name, group.CreatedBy, group.IsFriendGroup, group.IsDeleted, group.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: group %s", storage.ErrConflict, group.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	for _, userID := range memberIDs {
		role := models.RoleMember
		if userID == group.CreatedBy {
			role = models.RoleAdmin
		}
		if err := upsertMember(ctx, tx, group.ID, userID, role); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func upsertMember(ctx context.Context, q querier, groupID, userID, role string) error {
	_, err := q.Exec(ctx,
		`INSERT INTO memberships (group_id, user_id, role, is_active, joined_at) VALUES ($1, $2, $3, TRUE, $4)
		 ON CONFLICT (group_id, user_id) DO UPDATE SET is_active = TRUE, role = EXCLUDED.role`,
		groupID, userID, role, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID.
func (s *PostgresStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	g := &models.Group{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, created_by, is_friend_group, is_deleted, created_at FROM groups WHERE id = $1`,
		groupID,
	).Scan(&g.ID, &g.Name, &g.CreatedBy, &g.IsFriendGroup, &g.IsDeleted, &g.CreatedAt)
	if isNoRows(err) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return g, nil
}

// AddMember adds or reactivates a membership.
func (s *PostgresStore) AddMember(ctx context.Context, groupID, userID, role string) error {
	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return err
	}
	return upsertMember(ctx, s.pool, groupID, userID, role)
}

// IsActiveMember reports whether the user holds an active membership in the group.
func (s *PostgresStore) IsActiveMember(ctx context.Context, groupID, userID string) (bool, error) {
	var active bool
	err := s.pool.QueryRow(ctx,
		`SELECT is_active FROM memberships WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	).Scan(&active)
	if isNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return active, nil
}

// ListActiveMembers returns the user IDs of the group's active members.
func (s *PostgresStore) ListActiveMembers(ctx context.Context, groupID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id FROM memberships WHERE group_id = $1 AND is_active ORDER BY joined_at, user_id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	members, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect members: %w", err)
	}
	return members, nil
}

// ListUserGroups returns the non-deleted groups where the user is an active member.
func (s *PostgresStore) ListUserGroups(ctx context.Context, userID string) ([]models.Group, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT g.id, g.name, g.created_by, g.is_friend_group, g.is_deleted, g.created_at
		 FROM groups g
		 JOIN memberships m ON m.group_id = g.id
		 WHERE m.user_id = $1 AND m.is_active AND NOT g.is_deleted
		 ORDER BY g.created_at, g.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list user groups: %w", err)
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.IsFriendGroup, &g.IsDeleted, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}
