package postgres

import (
	"context"
)

// schema is applied in order by Migrate. Each statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         BIGSERIAL PRIMARY KEY,
		email      TEXT UNIQUE,
		role       TEXT NOT NULL DEFAULT 'OFFERER',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS job_offers (
		id             BIGSERIAL PRIMARY KEY,
		offerer_id     BIGINT NOT NULL REFERENCES users(id),
		title          TEXT NOT NULL,
		company        TEXT NOT NULL DEFAULT '',
		location       TEXT,
		contract_type  TEXT,
		domain         TEXT,
		skills         TEXT,
		salary         TEXT,
		duration       TEXT,
		deadline       TEXT,
		description    TEXT,
		raw_text       TEXT,
		extracted_data TEXT,
		contacts       TEXT,
		language       TEXT,
		type           TEXT,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		is_active      BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_job_offers_offerer ON job_offers (offerer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_job_offers_active_created ON job_offers (is_active, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		id           BIGSERIAL PRIMARY KEY,
		seeker_id    BIGINT NOT NULL REFERENCES users(id),
		job_offer_id BIGINT NOT NULL REFERENCES job_offers(id),
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (seeker_id, job_offer_id)
	)`,
	`CREATE TABLE IF NOT EXISTS applications (
		id           BIGSERIAL PRIMARY KEY,
		seeker_id    BIGINT NOT NULL REFERENCES users(id),
		job_offer_id BIGINT NOT NULL REFERENCES job_offers(id),
		status       TEXT NOT NULL DEFAULT 'PENDING',
		cover_letter TEXT,
		resume_url   TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (seeker_id, job_offer_id)
	)`,
}

// Migrate creates the tables the store needs.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			s.logger.Error("schema statement failed", map[string]interface{}{"statement": i, "error": err})
			return mapError("migrate", err)
		}
	}
	s.logger.Info("schema applied", map[string]interface{}{"statements": len(schema)})
	return nil
}
