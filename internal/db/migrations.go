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
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'user_role') THEN
			CREATE TYPE user_role AS ENUM ('admin', 'complaints_handler', 'complaints_manager', 'reviewer', 'read_only');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'complaint_status') THEN
			CREATE TYPE complaint_status AS ENUM ('new', 'acknowledged', 'in_investigation', 'response_drafted', 'final_response_issued', 'closed', 'reopened');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'outcome_type') THEN
			CREATE TYPE outcome_type AS ENUM ('upheld', 'partially_upheld', 'not_upheld', 'withdrawn', 'out_of_scope');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'redress_type') THEN
			CREATE TYPE redress_type AS ENUM ('financial_loss', 'interest_on_financial_loss', 'distress_and_inconvenience', 'consequential_loss', 'premium_refund_adjustment', 'goodwill_payment', 'third_party_payment', 'apology_or_explanation', 'remedial_action');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'redress_payment_status') THEN
			CREATE TYPE redress_payment_status AS ENUM ('pending', 'authorised', 'paid');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'action_status') THEN
			CREATE TYPE action_status AS ENUM ('not_started', 'in_progress', 'completed');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'communication_channel') THEN
			CREATE TYPE communication_channel AS ENUM ('phone', 'email', 'letter', 'web', 'third_party', 'other');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'communication_direction') THEN
			CREATE TYPE communication_direction AS ENUM ('inbound', 'outbound');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'task_status') THEN
			CREATE TYPE task_status AS ENUM ('open', 'in_progress', 'completed');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		full_name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		role user_role NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS complaints (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		reference VARCHAR(32) NOT NULL UNIQUE,
		status complaint_status NOT NULL DEFAULT 'new',
		source VARCHAR(64) NOT NULL,
		description TEXT NOT NULL,
		category VARCHAR(255) NOT NULL,
		reason VARCHAR(255),
		fca_complaint BOOLEAN NOT NULL DEFAULT FALSE,
		fca_rationale VARCHAR(1000),
		vulnerability_flag BOOLEAN NOT NULL DEFAULT FALSE,
		vulnerability_notes VARCHAR(1000),
		non_reportable BOOLEAN NOT NULL DEFAULT FALSE,
		policy_number VARCHAR(128),
		insurer VARCHAR(255),
		broker VARCHAR(255),
		product VARCHAR(255),
		scheme VARCHAR(255),
		received_at TIMESTAMPTZ NOT NULL,
		ack_due_at TIMESTAMPTZ NOT NULL,
		final_due_at TIMESTAMPTZ NOT NULL,
		acknowledged_at TIMESTAMPTZ,
		final_response_at TIMESTAMPTZ,
		closed_at TIMESTAMPTZ,
		ack_breached BOOLEAN NOT NULL DEFAULT FALSE,
		final_breached BOOLEAN NOT NULL DEFAULT FALSE,
		assigned_handler_id UUID REFERENCES users(id) ON DELETE SET NULL,
		reopened_from_id UUID,
		is_escalated BOOLEAN NOT NULL DEFAULT FALSE,
		fos_complaint BOOLEAN NOT NULL DEFAULT FALSE,
		fos_reference VARCHAR(64),
		fos_referred_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_status ON complaints (status);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_assigned_handler_id ON complaints (assigned_handler_id);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_policy_number ON complaints (policy_number);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_product ON complaints (product);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_received_at ON complaints (received_at);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_ack_due_at ON complaints (ack_due_at);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_final_due_at ON complaints (final_due_at);`,
	`CREATE TABLE IF NOT EXISTS complainants (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		complaint_id UUID NOT NULL UNIQUE REFERENCES complaints(id) ON DELETE CASCADE,
		full_name VARCHAR(255) NOT NULL,
		email VARCHAR(255),
		phone VARCHAR(64),
		address VARCHAR(500),
		date_of_birth DATE,
		preferred_contact_method VARCHAR(64)
	);`,
	`CREATE TABLE IF NOT EXISTS policies (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		complaint_id UUID NOT NULL UNIQUE REFERENCES complaints(id) ON DELETE CASCADE,
		policy_number VARCHAR(128),
		insurer VARCHAR(255),
		broker VARCHAR(255),
		product VARCHAR(255),
		scheme VARCHAR(255)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_policies_policy_number ON policies (policy_number);`,
	`CREATE TABLE IF NOT EXISTS outcomes (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		complaint_id UUID NOT NULL UNIQUE REFERENCES complaints(id) ON DELETE CASCADE,
		outcome outcome_type NOT NULL,
		rationale VARCHAR(2000),
		notes VARCHAR(2000),
		recorded_by_id UUID REFERENCES users(id) ON DELETE SET NULL,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS redress_payments (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		complaint_id UUID NOT NULL REFERENCES complaints(id) ON DELETE CASCADE,
		outcome_id UUID REFERENCES outcomes(id) ON DELETE SET NULL,
		amount NUMERIC(12,2),
		payment_type redress_type NOT NULL,
		status redress_payment_status NOT NULL DEFAULT 'authorised',
		rationale VARCHAR(2000),
		action_description VARCHAR(1000),
		action_status action_status NOT NULL DEFAULT 'not_started',
		approved BOOLEAN NOT NULL DEFAULT TRUE,
		notes VARCHAR(1000),
		paid_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_redress_payments_complaint_id ON redress_payments (complaint_id);`,
	`CREATE TABLE IF NOT EXISTS communications (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		complaint_id UUID NOT NULL REFERENCES complaints(id) ON DELETE CASCADE,
		user_id UUID REFERENCES users(id) ON DELETE SET NULL,
		channel communication_channel NOT NULL,
		direction communication_direction NOT NULL,
		summary VARCHAR(1000) NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL,
		is_final_response BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_communications_complaint_id ON communications (complaint_id);`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		complaint_id UUID NOT NULL REFERENCES complaints(id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL,
		description VARCHAR(1000),
		status task_status NOT NULL DEFAULT 'open',
		due_date TIMESTAMPTZ,
		assigned_to_id UUID REFERENCES users(id) ON DELETE SET NULL,
		is_checklist BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_complaint_id ON tasks (complaint_id);`,
	`CREATE TABLE IF NOT EXISTS complaint_events (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		complaint_id UUID NOT NULL REFERENCES complaints(id) ON DELETE CASCADE,
		event_type VARCHAR(128) NOT NULL,
		description VARCHAR(1000),
		created_by_id UUID REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_complaint_events_complaint_id ON complaint_events (complaint_id);`,
	`CREATE INDEX IF NOT EXISTS idx_complaint_events_created_at ON complaint_events (created_at);`,
	`CREATE TABLE IF NOT EXISTS complaint_reference_counters (
		year INTEGER PRIMARY KEY,
		last_used INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE OR REPLACE FUNCTION set_row_updated_at()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_complaints_updated_at') THEN
			CREATE TRIGGER trg_complaints_updated_at
				BEFORE UPDATE ON complaints
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_tasks_updated_at') THEN
			CREATE TRIGGER trg_tasks_updated_at
				BEFORE UPDATE ON tasks
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
