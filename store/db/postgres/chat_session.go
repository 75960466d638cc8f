package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/adsight/adsight/store"
)

func (d *DB) CreateChatSession(ctx context.Context, create *store.ChatSession) (*store.ChatSession, error) {
	fields := []string{"uid", "domain", "user_email", "snapshot", "transcript", "active", "created_ts", "updated_ts"}
	args := []any{create.UID, create.Domain, create.UserEmail, create.Snapshot, create.Transcript, create.Active, create.CreatedTs, create.UpdatedTs}

	stmt := `INSERT INTO chat_session (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create chat_session: %w", err)
	}

	return create, nil
}

func (d *DB) ListChatSessions(ctx context.Context, find *store.FindChatSession) ([]*store.ChatSession, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.Domain != nil {
		where, args = append(where, "domain = "+placeholder(len(args)+1)), append(args, *find.Domain)
	}
	if find.UserEmail != nil {
		where, args = append(where, "user_email = "+placeholder(len(args)+1)), append(args, *find.UserEmail)
	}
	if find.Active != nil {
		where, args = append(where, "active = "+placeholder(len(args)+1)), append(args, *find.Active)
	}
	if find.UpdatedAfter != nil {
		where, args = append(where, "updated_ts >= "+placeholder(len(args)+1)), append(args, *find.UpdatedAfter)
	}

	query := `
		SELECT id, uid, domain, user_email, snapshot, transcript, active, created_ts, updated_ts
		FROM chat_session
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_ts DESC`
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat_sessions: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ChatSession, 0)
	for rows.Next() {
		s := &store.ChatSession{}
		if err := rows.Scan(&s.ID, &s.UID, &s.Domain, &s.UserEmail, &s.Snapshot, &s.Transcript, &s.Active, &s.CreatedTs, &s.UpdatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan chat_session: %w", err)
		}
		list = append(list, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat_sessions: %w", err)
	}

	return list, nil
}

func (d *DB) UpdateChatSession(ctx context.Context, update *store.UpdateChatSession) (*store.ChatSession, error) {
	set, args := []string{}, []any{}

	if update.Snapshot != nil {
		set, args = append(set, "snapshot = "+placeholder(len(args)+1)), append(args, *update.Snapshot)
	}
	if update.Transcript != nil {
		set, args = append(set, "transcript = "+placeholder(len(args)+1)), append(args, *update.Transcript)
	}
	if update.Active != nil {
		set, args = append(set, "active = "+placeholder(len(args)+1)), append(args, *update.Active)
	}
	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, *update.UpdatedTs)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update for chat_session %d", update.ID)
	}
	args = append(args, update.ID)

	stmt := `UPDATE chat_session SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, uid, domain, user_email, snapshot, transcript, active, created_ts, updated_ts`
	s := &store.ChatSession{}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&s.ID, &s.UID, &s.Domain, &s.UserEmail, &s.Snapshot, &s.Transcript, &s.Active, &s.CreatedTs, &s.UpdatedTs); err != nil {
		return nil, fmt.Errorf("failed to update chat_session: %w", err)
	}

	return s, nil
}

func (d *DB) DeleteChatSession(ctx context.Context, delete *store.DeleteChatSession) error {
	where, args := []string{}, []any{}
	if delete.ID != 0 {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, delete.ID)
	}
	if delete.UpdatedBefore != nil {
		where, args = append(where, "updated_ts < "+placeholder(len(args)+1)), append(args, *delete.UpdatedBefore)
	}
	if len(where) == 0 {
		return fmt.Errorf("refusing to delete chat_sessions without a filter")
	}

	stmt := `DELETE FROM chat_session WHERE ` + strings.Join(where, " AND ")
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to delete chat_session: %w", err)
	}
	return nil
}
