package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jdholdren/wordcount/internal/core/models"
	"github.com/jmoiron/sqlx"
)

// A DB struct holds the connection to sqlite and provides methods for interacting with
// persistent storage
type DB struct {
	db *sqlx.DB
}

// New creates an instance of our repository using the provided connection
func New(db *sqlx.DB) DB {
	return DB{
		db: db,
	}
}

// inTx runs fn inside a transaction, committing if it returns nil
func (db DB) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %s", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %s", err)
	}

	return nil
}

func (db DB) TrackedChannels(ctx context.Context, guildID string) ([]string, error) {
	q := `
	SELECT channel_id FROM tracked_channels WHERE guild_id = ? ORDER BY rowid;
	`

	ids := []string{}
	if err := db.db.SelectContext(ctx, &ids, q, guildID); err != nil {
		return nil, fmt.Errorf("error retrieving tracked channels: %s", err)
	}

	return ids, nil
}

func (db DB) AddTrackedChannel(ctx context.Context, guildID, channelID string) error {
	q := `
	INSERT INTO tracked_channels(guild_id, channel_id) VALUES (?, ?) ON CONFLICT DO NOTHING;
	`
	if _, err := db.db.ExecContext(ctx, q, guildID, channelID); err != nil {
		return fmt.Errorf("error inserting tracked channel: %s", err)
	}

	return nil
}

func (db DB) RemoveTrackedChannel(ctx context.Context, guildID, channelID string) error {
	q := `
	DELETE FROM tracked_channels WHERE guild_id = ? AND channel_id = ?;
	`
	if _, err := db.db.ExecContext(ctx, q, guildID, channelID); err != nil {
		return fmt.Errorf("error deleting tracked channel: %s", err)
	}

	return nil
}

// ReplaceTrackedChannels swaps every tracked channel of the guild for the given ones.
// The ignore list is cleared when clearIgnored is set.
func (db DB) ReplaceTrackedChannels(ctx context.Context, guildID string, channelIDs []string, clearIgnored bool) error {
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tracked_channels WHERE guild_id = ?;`, guildID); err != nil {
			return fmt.Errorf("error clearing tracked channels: %s", err)
		}

		for _, id := range channelIDs {
			q := `
			INSERT INTO tracked_channels(guild_id, channel_id) VALUES (?, ?);
			`
			if _, err := tx.ExecContext(ctx, q, guildID, id); err != nil {
				return fmt.Errorf("error inserting tracked channel: %s", err)
			}
		}

		if clearIgnored {
			if _, err := tx.ExecContext(ctx, `DELETE FROM ignored_channels WHERE guild_id = ?;`, guildID); err != nil {
				return fmt.Errorf("error clearing ignored channels: %s", err)
			}
		}

		return nil
	})
}

func (db DB) IgnoredChannels(ctx context.Context, guildID string) ([]string, error) {
	q := `
	SELECT channel_id FROM ignored_channels WHERE guild_id = ? ORDER BY rowid;
	`

	ids := []string{}
	if err := db.db.SelectContext(ctx, &ids, q, guildID); err != nil {
		return nil, fmt.Errorf("error retrieving ignored channels: %s", err)
	}

	return ids, nil
}

func (db DB) AddIgnoredChannel(ctx context.Context, guildID, channelID string) error {
	q := `
	INSERT INTO ignored_channels(guild_id, channel_id) VALUES (?, ?) ON CONFLICT DO NOTHING;
	`
	if _, err := db.db.ExecContext(ctx, q, guildID, channelID); err != nil {
		return fmt.Errorf("error inserting ignored channel: %s", err)
	}

	return nil
}

func (db DB) RemoveIgnoredChannel(ctx context.Context, guildID, channelID string) error {
	q := `
	DELETE FROM ignored_channels WHERE guild_id = ? AND channel_id = ?;
	`
	if _, err := db.db.ExecContext(ctx, q, guildID, channelID); err != nil {
		return fmt.Errorf("error deleting ignored channel: %s", err)
	}

	return nil
}

// AdjustCount moves both the channel counter and the server total of a user by delta.
// Counters never go below zero and decrements never create rows.
func (db DB) AdjustCount(ctx context.Context, kind models.CounterKind, guildID, channelID, userID string, delta int64) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown counter kind '%s'", kind)
	}
	if delta == 0 {
		return nil
	}

	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		if delta > 0 {
			q := fmt.Sprintf(`
			INSERT INTO %s(guild_id, channel_id, user_id, count) VALUES (?, ?, ?, ?)
			ON CONFLICT(guild_id, channel_id, user_id) DO UPDATE SET count=count+excluded.count;
			`, kind.CountsTable())
			if _, err := tx.ExecContext(ctx, q, guildID, channelID, userID, delta); err != nil {
				return fmt.Errorf("error incrementing %s: %s", kind.CountsTable(), err)
			}

			q = fmt.Sprintf(`
			INSERT INTO %s(guild_id, user_id, count) VALUES (?, ?, ?)
			ON CONFLICT(guild_id, user_id) DO UPDATE SET count=count+excluded.count;
			`, kind.TotalsTable())
			if _, err := tx.ExecContext(ctx, q, guildID, userID, delta); err != nil {
				return fmt.Errorf("error incrementing %s: %s", kind.TotalsTable(), err)
			}

			return nil
		}

		q := fmt.Sprintf(`
		UPDATE %s SET count=MAX(count-?, 0) WHERE guild_id = ? AND channel_id = ? AND user_id = ?;
		`, kind.CountsTable())
		if _, err := tx.ExecContext(ctx, q, -delta, guildID, channelID, userID); err != nil {
			return fmt.Errorf("error decrementing %s: %s", kind.CountsTable(), err)
		}

		q = fmt.Sprintf(`
		UPDATE %s SET count=MAX(count-?, 0) WHERE guild_id = ? AND user_id = ?;
		`, kind.TotalsTable())
		if _, err := tx.ExecContext(ctx, q, -delta, guildID, userID); err != nil {
			return fmt.Errorf("error decrementing %s: %s", kind.TotalsTable(), err)
		}

		// Message rows disappear once a user has no messages left
		if kind == models.Messages {
			q = fmt.Sprintf(`DELETE FROM %s WHERE guild_id = ? AND user_id = ? AND count <= 0;`, kind.CountsTable())
			if _, err := tx.ExecContext(ctx, q, guildID, userID); err != nil {
				return fmt.Errorf("error pruning %s: %s", kind.CountsTable(), err)
			}
			q = fmt.Sprintf(`DELETE FROM %s WHERE guild_id = ? AND user_id = ? AND count <= 0;`, kind.TotalsTable())
			if _, err := tx.ExecContext(ctx, q, guildID, userID); err != nil {
				return fmt.Errorf("error pruning %s: %s", kind.TotalsTable(), err)
			}
		}

		return nil
	})
}

// AdjustKeywordCount is AdjustCount for the keyword tables
func (db DB) AdjustKeywordCount(ctx context.Context, guildID, channelID, userID, keyword string, delta int64) error {
	if delta == 0 {
		return nil
	}

	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		if delta > 0 {
			q := `
			INSERT INTO keyword_counts(guild_id, channel_id, user_id, keyword, count) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(guild_id, channel_id, user_id, keyword) DO UPDATE SET count=count+excluded.count;
			`
			if _, err := tx.ExecContext(ctx, q, guildID, channelID, userID, keyword, delta); err != nil {
				return fmt.Errorf("error incrementing keyword_counts: %s", err)
			}

			q = `
			INSERT INTO keyword_totals(guild_id, user_id, keyword, count) VALUES (?, ?, ?, ?)
			ON CONFLICT(guild_id, user_id, keyword) DO UPDATE SET count=count+excluded.count;
			`
			if _, err := tx.ExecContext(ctx, q, guildID, userID, keyword, delta); err != nil {
				return fmt.Errorf("error incrementing keyword_totals: %s", err)
			}

			return nil
		}

		q := `
		UPDATE keyword_counts SET count=MAX(count-?, 0) WHERE guild_id = ? AND channel_id = ? AND user_id = ? AND keyword = ?;
		`
		if _, err := tx.ExecContext(ctx, q, -delta, guildID, channelID, userID, keyword); err != nil {
			return fmt.Errorf("error decrementing keyword_counts: %s", err)
		}

		q = `
		UPDATE keyword_totals SET count=MAX(count-?, 0) WHERE guild_id = ? AND user_id = ? AND keyword = ?;
		`
		if _, err := tx.ExecContext(ctx, q, -delta, guildID, userID, keyword); err != nil {
			return fmt.Errorf("error decrementing keyword_totals: %s", err)
		}

		return nil
	})
}

// TopCounts lists the non-zero counters of a guild, highest first. An empty channelID
// reads the server totals, and a limit of zero or less returns every row.
func (db DB) TopCounts(ctx context.Context, kind models.CounterKind, guildID, channelID string, limit int) ([]models.Count, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown counter kind '%s'", kind)
	}
	if limit <= 0 {
		limit = -1
	}

	var (
		q    string
		args []any
	)
	if channelID == "" {
		q = fmt.Sprintf(`
		SELECT guild_id, '' AS channel_id, user_id, count FROM %s
		WHERE guild_id = ? AND count > 0 ORDER BY count DESC, user_id LIMIT ?;
		`, kind.TotalsTable())
		args = []any{guildID, limit}
	} else {
		q = fmt.Sprintf(`
		SELECT guild_id, channel_id, user_id, count FROM %s
		WHERE guild_id = ? AND channel_id = ? AND count > 0 ORDER BY count DESC, user_id LIMIT ?;
		`, kind.CountsTable())
		args = []any{guildID, channelID, limit}
	}

	counts := []models.Count{}
	if err := db.db.SelectContext(ctx, &counts, q, args...); err != nil {
		return nil, fmt.Errorf("error retrieving %s leaderboard: %s", kind, err)
	}

	return counts, nil
}

// Total reads the server total of a user. The bool is false when no row exists.
func (db DB) Total(ctx context.Context, kind models.CounterKind, guildID, userID string) (int64, bool, error) {
	if !kind.Valid() {
		return 0, false, fmt.Errorf("unknown counter kind '%s'", kind)
	}

	q := fmt.Sprintf(`
	SELECT count FROM %s WHERE guild_id = ? AND user_id = ? LIMIT 1;
	`, kind.TotalsTable())

	var count int64
	err := db.db.GetContext(ctx, &count, q, guildID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("error retrieving %s: %s", kind.TotalsTable(), err)
	}

	return count, true, nil
}

// CountRows counts the counter rows matching the filters. Empty channelID or userID
// match everything.
func (db DB) CountRows(ctx context.Context, kind models.CounterKind, guildID, channelID, userID string) (int, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("unknown counter kind '%s'", kind)
	}

	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE guild_id = ?`, kind.TotalsTable())
	args := []any{guildID}
	if channelID != "" {
		q = fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE guild_id = ? AND channel_id = ?`, kind.CountsTable())
		args = append(args, channelID)
	}
	if userID != "" {
		q += ` AND user_id = ?`
		args = append(args, userID)
	}

	var n int
	if err := db.db.GetContext(ctx, &n, q, args...); err != nil {
		return 0, fmt.Errorf("error counting %s rows: %s", kind, err)
	}

	return n, nil
}

// ResetCounts zeroes counters. With a channelID only that channel is reset and the
// server totals shrink by what it held; without one, totals and every channel are reset.
// An empty userID applies to every user of the guild.
func (db DB) ResetCounts(ctx context.Context, kind models.CounterKind, guildID, channelID, userID string) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown counter kind '%s'", kind)
	}

	userFilter := ""
	args := []any{}
	if userID != "" {
		userFilter = " AND user_id = ?"
		args = append(args, userID)
	}

	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		if channelID == "" {
			q := fmt.Sprintf(`UPDATE %s SET count=0 WHERE guild_id = ?%s;`, kind.TotalsTable(), userFilter)
			if _, err := tx.ExecContext(ctx, q, append([]any{guildID}, args...)...); err != nil {
				return fmt.Errorf("error resetting %s: %s", kind.TotalsTable(), err)
			}

			q = fmt.Sprintf(`UPDATE %s SET count=0 WHERE guild_id = ?%s;`, kind.CountsTable(), userFilter)
			if _, err := tx.ExecContext(ctx, q, append([]any{guildID}, args...)...); err != nil {
				return fmt.Errorf("error resetting %s: %s", kind.CountsTable(), err)
			}

			return nil
		}

		q := fmt.Sprintf(`
		UPDATE %[1]s SET count=MAX(count-COALESCE((
			SELECT c.count FROM %[2]s c
			WHERE c.guild_id = %[1]s.guild_id AND c.user_id = %[1]s.user_id AND c.channel_id = ?
		), 0), 0)
		WHERE guild_id = ?%[3]s;
		`, kind.TotalsTable(), kind.CountsTable(), userFilter)
		if _, err := tx.ExecContext(ctx, q, append([]any{channelID, guildID}, args...)...); err != nil {
			return fmt.Errorf("error shrinking %s: %s", kind.TotalsTable(), err)
		}

		q = fmt.Sprintf(`UPDATE %s SET count=0 WHERE guild_id = ? AND channel_id = ?%s;`, kind.CountsTable(), userFilter)
		if _, err := tx.ExecContext(ctx, q, append([]any{guildID, channelID}, args...)...); err != nil {
			return fmt.Errorf("error resetting %s: %s", kind.CountsTable(), err)
		}

		return nil
	})
}

func (db DB) Keywords(ctx context.Context, guildID string) ([]string, error) {
	q := `
	SELECT keyword FROM keywords WHERE guild_id = ? ORDER BY rowid;
	`

	kws := []string{}
	if err := db.db.SelectContext(ctx, &kws, q, guildID); err != nil {
		return nil, fmt.Errorf("error retrieving keywords: %s", err)
	}

	return kws, nil
}

// AddKeyword stores a keyword, reporting false if it was already there
func (db DB) AddKeyword(ctx context.Context, guildID, keyword string) (bool, error) {
	q := `
	INSERT INTO keywords(guild_id, keyword) VALUES (?, ?) ON CONFLICT DO NOTHING;
	`
	res, err := db.db.ExecContext(ctx, q, guildID, keyword)
	if err != nil {
		return false, fmt.Errorf("error inserting keyword: %s", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading affected rows: %s", err)
	}

	return n > 0, nil
}

// RemoveKeyword deletes a keyword, reporting false if it did not exist
func (db DB) RemoveKeyword(ctx context.Context, guildID, keyword string) (bool, error) {
	q := `
	DELETE FROM keywords WHERE guild_id = ? AND keyword = ?;
	`
	res, err := db.db.ExecContext(ctx, q, guildID, keyword)
	if err != nil {
		return false, fmt.Errorf("error deleting keyword: %s", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading affected rows: %s", err)
	}

	return n > 0, nil
}

// KeywordCounts lists keyword counters of a guild. Without a channelID the server
// totals are read.
func (db DB) KeywordCounts(ctx context.Context, guildID, channelID string) ([]models.KeywordCount, error) {
	q := `
	SELECT guild_id, '' AS channel_id, user_id, keyword, count FROM keyword_totals
	WHERE guild_id = ? AND count > 0 ORDER BY keyword, count DESC, user_id;
	`
	args := []any{guildID}
	if channelID != "" {
		q = `
		SELECT guild_id, channel_id, user_id, keyword, count FROM keyword_counts
		WHERE guild_id = ? AND channel_id = ? AND count > 0 ORDER BY keyword, count DESC, user_id;
		`
		args = append(args, channelID)
	}

	kcs := []models.KeywordCount{}
	if err := db.db.SelectContext(ctx, &kcs, q, args...); err != nil {
		return nil, fmt.Errorf("error retrieving keyword counts: %s", err)
	}

	return kcs, nil
}

func (db DB) UserKeywordTotals(ctx context.Context, guildID, userID string) ([]models.KeywordCount, error) {
	q := `
	SELECT guild_id, '' AS channel_id, user_id, keyword, count FROM keyword_totals
	WHERE guild_id = ? AND user_id = ? ORDER BY keyword;
	`

	kcs := []models.KeywordCount{}
	if err := db.db.SelectContext(ctx, &kcs, q, guildID, userID); err != nil {
		return nil, fmt.Errorf("error retrieving keyword totals: %s", err)
	}

	return kcs, nil
}
