package savefile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists player savefiles in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS player_savefiles (
			account_id TEXT PRIMARY KEY,
			viewer_id BIGINT GENERATED ALWAYS AS IDENTITY UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			level INTEGER NOT NULL DEFAULT 1,
			coin BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS quest_clear_party_units (
			account_id TEXT NOT NULL REFERENCES player_savefiles(account_id) ON DELETE CASCADE,
			quest_id INTEGER NOT NULL,
			is_multi BOOLEAN NOT NULL,
			unit_no INTEGER NOT NULL,
			chara_id INTEGER NOT NULL,
			equip_dragon_key_id BIGINT NOT NULL DEFAULT 0,
			equip_weapon_body_id INTEGER NOT NULL DEFAULT 0,
			edit_skill_1_chara_id INTEGER NOT NULL DEFAULT 0,
			edit_skill_2_chara_id INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (account_id, quest_id, is_multi, unit_no)
		);`,
		`CREATE TABLE IF NOT EXISTS time_attack_players (
			game_id TEXT NOT NULL,
			viewer_id BIGINT NOT NULL,
			time_ms BIGINT NOT NULL,
			party_info JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (game_id, viewer_id)
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init savefile schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) LookupViewerID(ctx context.Context, accountID string) (int64, error) {
	var viewerID int64
	err := s.pool.QueryRow(ctx,
		`SELECT viewer_id FROM player_savefiles WHERE account_id=$1`,
		accountID,
	).Scan(&viewerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrPlayerNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lookup viewer id: %w", err)
	}
	return viewerID, nil
}

func (s *PostgresStore) Load(ctx context.Context, accountID string) (Savefile, error) {
	var sf Savefile
	err := s.pool.QueryRow(ctx,
		`SELECT account_id, viewer_id, name, level, coin, created_at
		 FROM player_savefiles WHERE account_id=$1`,
		accountID,
	).Scan(&sf.AccountID, &sf.ViewerID, &sf.Name, &sf.Level, &sf.Coin, &sf.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Savefile{}, ErrPlayerNotFound
	}
	if err != nil {
		return Savefile{}, fmt.Errorf("load savefile: %w", err)
	}
	return sf, nil
}

func (s *PostgresStore) Create(ctx context.Context, accountID, name string) (Savefile, error) {
	var sf Savefile
	err := s.pool.QueryRow(ctx,
		`INSERT INTO player_savefiles (account_id, name, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (account_id) DO UPDATE SET name = EXCLUDED.name
		 RETURNING account_id, viewer_id, name, level, coin, created_at`,
		accountID, name, time.Now().UTC(),
	).Scan(&sf.AccountID, &sf.ViewerID, &sf.Name, &sf.Level, &sf.Coin, &sf.CreatedAt)
	if err != nil {
		return Savefile{}, fmt.Errorf("create savefile: %w", err)
	}
	return sf, nil
}

func (s *PostgresStore) SaveClearParty(ctx context.Context, accountID string, questID int32, isMulti bool, units []ClearPartyUnit) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`DELETE FROM quest_clear_party_units WHERE account_id=$1 AND quest_id=$2 AND is_multi=$3`,
		accountID, questID, isMulti,
	)
	if err != nil {
		return fmt.Errorf("clear previous party: %w", err)
	}
	for _, u := range units {
		_, err = tx.Exec(ctx,
			`INSERT INTO quest_clear_party_units
			 (account_id, quest_id, is_multi, unit_no, chara_id, equip_dragon_key_id,
			  equip_weapon_body_id, edit_skill_1_chara_id, edit_skill_2_chara_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			accountID, questID, isMulti, u.UnitNo, u.CharaID, u.EquipDragonKeyID,
			u.EquipWeaponBodyID, u.EditSkill1CharaID, u.EditSkill2CharaID,
		)
		if err != nil {
			return fmt.Errorf("insert party unit %d: %w", u.UnitNo, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetClearParty(ctx context.Context, accountID string, questID int32, isMulti bool) ([]ClearPartyUnit, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT unit_no, chara_id, equip_dragon_key_id, equip_weapon_body_id,
		        edit_skill_1_chara_id, edit_skill_2_chara_id
		 FROM quest_clear_party_units
		 WHERE account_id=$1 AND quest_id=$2 AND is_multi=$3
		 ORDER BY unit_no`,
		accountID, questID, isMulti,
	)
	if err != nil {
		return nil, fmt.Errorf("query clear party: %w", err)
	}
	defer rows.Close()

	var units []ClearPartyUnit
	for rows.Next() {
		var u ClearPartyUnit
		if err := rows.Scan(&u.UnitNo, &u.CharaID, &u.EquipDragonKeyID,
			&u.EquipWeaponBodyID, &u.EditSkill1CharaID, &u.EditSkill2CharaID); err != nil {
			return nil, fmt.Errorf("scan party unit: %w", err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate party units: %w", err)
	}
	return units, nil
}

func (s *PostgresStore) RecordTimeAttackClear(ctx context.Context, clear TimeAttackClear) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO time_attack_players (game_id, viewer_id, time_ms, party_info)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (game_id, viewer_id) DO UPDATE SET
		   time_ms = LEAST(time_attack_players.time_ms, EXCLUDED.time_ms),
		   party_info = EXCLUDED.party_info`,
		clear.GameID, clear.ViewerID, clear.TimeMS, clear.PartyInfo,
	)
	if err != nil {
		return fmt.Errorf("record time attack clear: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var _ Store = (*PostgresStore)(nil)
