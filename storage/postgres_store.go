package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"realtor-extractor/models"
	"realtor-extractor/utils"
)

const schema = `
CREATE TABLE IF NOT EXISTS agents (
	id               BIGSERIAL PRIMARY KEY,
	agent_id         TEXT        NOT NULL DEFAULT '',
	source_url       TEXT        UNIQUE NOT NULL,
	name             TEXT,
	company          TEXT,
	phone            TEXT,
	email            TEXT,
	license_number   TEXT,
	license_state    TEXT,
	experience_years INTEGER     NOT NULL DEFAULT 0,
	languages        TEXT[]      NOT NULL DEFAULT '{}',
	specializations  TEXT[]      NOT NULL DEFAULT '{}',
	service_areas    TEXT[]      NOT NULL DEFAULT '{}',
	record           JSONB       NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS agent_properties (
	agent_pk       BIGINT  NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
	property_id    TEXT    NOT NULL,
	address        TEXT    NOT NULL DEFAULT '',
	price          NUMERIC(14,2) NOT NULL DEFAULT 0,
	bedrooms       NUMERIC(4,1)  NOT NULL DEFAULT 0,
	bathrooms      NUMERIC(4,1)  NOT NULL DEFAULT 0,
	square_feet    INTEGER NOT NULL DEFAULT 0,
	property_type  TEXT    NOT NULL DEFAULT '',
	listing_status TEXT    NOT NULL DEFAULT '',
	image_urls     TEXT[]  NOT NULL DEFAULT '{}',
	PRIMARY KEY (agent_pk, property_id)
);

CREATE TABLE IF NOT EXISTS agent_recommendations (
	agent_pk BIGINT NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	text     TEXT    NOT NULL,
	author   TEXT    NOT NULL DEFAULT '',
	date     TEXT    NOT NULL DEFAULT '',
	PRIMARY KEY (agent_pk, position)
);

CREATE INDEX IF NOT EXISTS idx_agents_agent_id ON agents(agent_id);
CREATE INDEX IF NOT EXISTS idx_agent_properties_status ON agent_properties(listing_status);
`

const upsertAgent = `
INSERT INTO agents (
	agent_id, source_url, name, company, phone, email, license_number, license_state,
	experience_years, languages, specializations, service_areas, record
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (source_url) DO UPDATE SET
	agent_id = EXCLUDED.agent_id,
	name = EXCLUDED.name,
	company = EXCLUDED.company,
	phone = EXCLUDED.phone,
	email = EXCLUDED.email,
	license_number = EXCLUDED.license_number,
	license_state = EXCLUDED.license_state,
	experience_years = EXCLUDED.experience_years,
	languages = EXCLUDED.languages,
	specializations = EXCLUDED.specializations,
	service_areas = EXCLUDED.service_areas,
	record = EXCLUDED.record,
	updated_at = NOW()
RETURNING id`

const insertProperty = `
INSERT INTO agent_properties (
	agent_pk, property_id, address, price, bedrooms, bathrooms, square_feet,
	property_type, listing_status, image_urls
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (agent_pk, property_id) DO NOTHING`

const insertRecommendation = `
INSERT INTO agent_recommendations (agent_pk, position, text, author, date)
VALUES ($1,$2,$3,$4,$5)`

// PostgresStore persists canonical profiles to PostgreSQL. The agents row
// keeps the full record as JSONB; properties and recommendations are
// flattened into child tables for querying.
type PostgresStore struct {
	db     *sqlx.DB
	logger utils.Logger
}

// NewPostgresStore opens the database, pings it through retry and creates
// the schema.
func NewPostgresStore(ctx context.Context, dsn string, retry utils.RetryConfig, logger utils.Logger) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: open")
	}

	if err := retry.Do(ctx, "postgres ping", func(ctx context.Context) error {
		return db.PingContext(ctx)
	}); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(ErrUnavailable, err.Error())
	}

	s := NewPostgresStoreWithDB(db, logger)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreWithDB wraps an already open connection.
func NewPostgresStoreWithDB(db *sqlx.DB, logger utils.Logger) *PostgresStore {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &PostgresStore{db: db, logger: logger}
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// CheckDuplicate reports whether source_url is already stored and returns
// the stored record when it is.
func (s *PostgresStore) CheckDuplicate(ctx context.Context, sourceURL string) (DuplicateCheck, error) {
	var raw []byte
	err := s.db.QueryRowxContext(ctx, `SELECT record FROM agents WHERE source_url = $1`, sourceURL).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return DuplicateCheck{}, nil
	}
	if err != nil {
		return DuplicateCheck{}, eris.Wrapf(ErrUnavailable, "postgres: check duplicate: %v", err)
	}

	existing := &models.AgentProfile{}
	if err := json.Unmarshal(raw, existing); err != nil {
		s.logger.Warn("[postgres] stored record unreadable",
			zap.String("source_url", sourceURL), zap.Error(err))
		return DuplicateCheck{IsDuplicate: true}, nil
	}
	return DuplicateCheck{IsDuplicate: true, Existing: existing}, nil
}

// Submit upserts the agent and replaces its properties and recommendations
// in a single transaction.
func (s *PostgresStore) Submit(ctx context.Context, p *models.AgentProfile) (SubmitResult, error) {
	record, err := json.Marshal(p)
	if err != nil {
		return SubmitResult{}, eris.Wrap(err, "postgres: encode record")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return SubmitResult{}, eris.Wrapf(ErrUnavailable, "postgres: begin: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	var pk int64
	err = tx.QueryRowxContext(ctx, upsertAgent,
		p.AgentID, p.SourceURL, p.Name, p.Company, p.Phone, p.Email,
		p.LicenseNumber, p.LicenseState, p.ExperienceYears,
		pq.Array(p.Languages), pq.Array(p.Specializations), pq.Array(p.ServiceAreas),
		record,
	).Scan(&pk)
	if err != nil {
		return SubmitResult{}, eris.Wrap(err, "postgres: upsert agent")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM agent_properties WHERE agent_pk = $1`, pk); err != nil {
		return SubmitResult{}, eris.Wrap(err, "postgres: clear properties")
	}
	for _, prop := range p.Properties {
		if _, err := tx.ExecContext(ctx, insertProperty,
			pk, prop.PropertyID, prop.Address, prop.Price, prop.Bedrooms, prop.Bathrooms,
			prop.SquareFeet, prop.PropertyType, prop.ListingStatus, pq.Array(prop.ImageURLs),
		); err != nil {
			return SubmitResult{}, eris.Wrapf(err, "postgres: insert property %s", prop.PropertyID)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM agent_recommendations WHERE agent_pk = $1`, pk); err != nil {
		return SubmitResult{}, eris.Wrap(err, "postgres: clear recommendations")
	}
	for i, r := range p.Recommendations {
		if _, err := tx.ExecContext(ctx, insertRecommendation, pk, i, r.Text, r.Author, r.Date); err != nil {
			return SubmitResult{}, eris.Wrap(err, "postgres: insert recommendation")
		}
	}

	if err := tx.Commit(); err != nil {
		return SubmitResult{}, eris.Wrap(err, "postgres: commit")
	}

	id := strconv.FormatInt(pk, 10)
	s.logger.Info("[postgres] agent stored",
		zap.String("source_url", p.SourceURL),
		zap.String("id", id),
		zap.Int("properties", len(p.Properties)),
		zap.Int("recommendations", len(p.Recommendations)),
	)
	return SubmitResult{Success: true, ID: id}, nil
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
