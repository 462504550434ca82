package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'report_status') THEN
			CREATE TYPE report_status AS ENUM ('pending', 'validated', 'rejected');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'claim_status') THEN
			CREATE TYPE claim_status AS ENUM ('under-review', 'flagged', 'approved');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS reports (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		ref_seq BIGINT GENERATED ALWAYS AS IDENTITY,
		type VARCHAR(32) NOT NULL,
		location TEXT NOT NULL,
		description TEXT NOT NULL,
		vehicle_number VARCHAR(32) NOT NULL DEFAULT '',
		reporter VARCHAR(128) NOT NULL DEFAULT 'Anonymous',
		media_type VARCHAR(8) NOT NULL,
		status report_status NOT NULL DEFAULT 'pending',
		occurred_at TIMESTAMPTZ NOT NULL,
		reviewed_by UUID,
		reviewed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS report_evidence (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		report_id UUID NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
		file_name VARCHAR(255) NOT NULL,
		content_type VARCHAR(128) NOT NULL,
		kind VARCHAR(8) NOT NULL,
		size_bytes BIGINT NOT NULL,
		stored_path TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS claims (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		ref_seq BIGINT GENERATED ALWAYS AS IDENTITY,
		policy_holder VARCHAR(128) NOT NULL,
		policy_number VARCHAR(64) NOT NULL,
		vehicle_number VARCHAR(32) NOT NULL,
		claim_amount NUMERIC(18,2) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status claim_status NOT NULL DEFAULT 'under-review',
		upload_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_reports_ref_seq ON reports (ref_seq);`,
	`CREATE INDEX IF NOT EXISTS idx_reports_status ON reports (status);`,
	`CREATE INDEX IF NOT EXISTS idx_reports_vehicle_number ON reports (vehicle_number) WHERE vehicle_number <> '';`,
	`CREATE INDEX IF NOT EXISTS idx_report_evidence_report_id ON report_evidence (report_id);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_claims_ref_seq ON claims (ref_seq);`,
	`CREATE INDEX IF NOT EXISTS idx_claims_status ON claims (status);`,
	`CREATE INDEX IF NOT EXISTS idx_claims_vehicle_number ON claims (vehicle_number);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
