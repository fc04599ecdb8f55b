package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// IMPORTANT: persons must be created BEFORE transactions due to the
// foreign key constraint.
const schema = `
CREATE TABLE IF NOT EXISTS persons (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    signature TEXT,
    created_at INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_persons_name_nocase ON persons(name COLLATE NOCASE);

CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    person_id TEXT NOT NULL,
    description TEXT NOT NULL,
    comment TEXT,
    amount REAL NOT NULL,
    original_amount REAL NOT NULL DEFAULT 0,
    date INTEGER NOT NULL,
    due_date INTEGER,
    settled INTEGER NOT NULL DEFAULT 0,
    is_payment INTEGER NOT NULL DEFAULT 0,
    mode TEXT NOT NULL DEFAULT 'they-owe-me',
    signature TEXT,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (person_id) REFERENCES persons(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS settled_records (
    id TEXT PRIMARY KEY,
    person_id TEXT NOT NULL,
    person_name TEXT NOT NULL,
    total_amount REAL NOT NULL,
    currency TEXT NOT NULL,
    type TEXT NOT NULL,
    settled_by_user_id TEXT,
    settled_by_user_name TEXT,
    transactions TEXT NOT NULL,
    settled_at INTEGER NOT NULL,
    notes TEXT
);

CREATE TABLE IF NOT EXISTS activity_logs (
    id TEXT PRIMARY KEY,
    user_id TEXT,
    user_name TEXT,
    action TEXT NOT NULL,
    category TEXT NOT NULL,
    description TEXT NOT NULL,
    person_name TEXT,
    amount REAL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'user',
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_person_id ON transactions(person_id);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
CREATE INDEX IF NOT EXISTS idx_settled_records_settled_at ON settled_records(settled_at);
CREATE INDEX IF NOT EXISTS idx_activity_logs_created_at ON activity_logs(created_at);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
