package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateGroup persists a new group and its initial members in one transaction.
// The creator is recorded as admin.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group, memberIDs []string) error {
	group.ID = newID(group.ID)
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO groups (id, name, created_by, is_friend_group, is_deleted, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
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

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertMember(ctx context.Context, db execer, groupID, userID, role string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO memberships (group_id, user_id, role, is_active, joined_at) VALUES (?, ?, ?, 1, ?)
		 ON CONFLICT (group_id, user_id) DO UPDATE SET is_active = 1, role = excluded.role`,
		groupID, userID, role, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_by, is_friend_group, is_deleted, created_at FROM groups WHERE id = ?`,
		groupID,
	).Scan(&group.ID, &group.Name, &group.CreatedBy, &group.IsFriendGroup, &group.IsDeleted, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// AddMember adds a user to a group, reactivating a previous membership if one exists.
func (s *SQLiteStore) AddMember(ctx context.Context, groupID, userID, role string) error {
	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return err
	}
	return upsertMember(ctx, s.db, groupID, userID, role)
}

// IsActiveMember reports whether the user holds an active membership in the group.
func (s *SQLiteStore) IsActiveMember(ctx context.Context, groupID, userID string) (bool, error) {
	var active bool
	err := s.db.QueryRowContext(ctx,
		`SELECT is_active FROM memberships WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return active, nil
}

// ListActiveMembers returns the user IDs of a group's active members.
func (s *SQLiteStore) ListActiveMembers(ctx context.Context, groupID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM memberships WHERE group_id = ? AND is_active = 1 ORDER BY joined_at, user_id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// ListUserGroups returns the non-deleted groups where the user is an active member.
func (s *SQLiteStore) ListUserGroups(ctx context.Context, userID string) ([]models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.created_by, g.is_friend_group, g.is_deleted, g.created_at
		 FROM groups g
		 JOIN memberships m ON m.group_id = g.id
		 WHERE m.user_id = ? AND m.is_active = 1 AND g.is_deleted = 0
		 ORDER BY g.created_at, g.rowid`,
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
