package store

// Table holds one row per unique account code.
const Table = "ledger_accounts"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS ledger_accounts (
	account_code TEXT PRIMARY KEY,
	account_name TEXT,
	debit        NUMERIC(20, 4) NOT NULL DEFAULT 0,
	credit       NUMERIC(20, 4) NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsertSQL = `
INSERT INTO ledger_accounts (account_code, account_name, debit, credit, created_at, updated_at)
VALUES ($1, NULLIF($2, ''), $3::numeric, $4::numeric, now(), now())
ON CONFLICT (account_code) DO UPDATE SET
	account_name = EXCLUDED.account_name,
	debit        = EXCLUDED.debit,
	credit       = EXCLUDED.credit,
	updated_at   = now()`

const selectAllSQL = `
SELECT account_code, COALESCE(account_name, ''), debit::text, credit::text
FROM ledger_accounts
ORDER BY account_code ASC`

const selectOneSQL = `
SELECT account_code, COALESCE(account_name, ''), debit::text, credit::text, created_at, updated_at
FROM ledger_accounts
WHERE account_code = $1`
