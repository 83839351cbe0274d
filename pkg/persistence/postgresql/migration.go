package postgresql

// migrations returns the ordered schema migrations for the sessions store.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS sessions (
				id            TEXT PRIMARY KEY,
				active        BOOLEAN NOT NULL DEFAULT TRUE,
				campaign      JSONB NOT NULL,
				plan          JSONB,
				execution_log JSONB NOT NULL DEFAULT '[]'::jsonb,
				created_at    TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at    TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_sessions_active
				ON sessions (id) WHERE active;
		`,
	}
}
