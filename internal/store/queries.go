package store

// SQL query constants organized by entity.
// All SQL lives here — SQLiteStore methods reference these constants.

// Tracked item queries.
const (
	queryCreateItem = `
		INSERT INTO items (
			id, product_key, name, country, lang, target_size,
			enabled, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetItem = `
		SELECT id, product_key, name, country, lang, target_size,
			enabled, status, created_at, last_checked_at
		FROM items
		WHERE id = ?`

	queryListItems = `
		SELECT id, product_key, name, country, lang, target_size,
			enabled, status, created_at, last_checked_at
		FROM items
		ORDER BY created_at, id`

	queryListEnabledItems = `
		SELECT id, product_key, name, country, lang, target_size,
			enabled, status, created_at, last_checked_at
		FROM items
		WHERE enabled = 1
		ORDER BY created_at, id`

	querySetItemEnabled = `
		UPDATE items SET enabled = ? WHERE id = ?`

	queryMarkItemChecked = `
		UPDATE items SET last_checked_at = ?, status = ? WHERE id = ?`

	queryDeleteItem = `
		DELETE FROM items WHERE id = ?`

	queryCountItems = `
		SELECT COUNT(*), COALESCE(SUM(enabled), 0) FROM items`
)

// Snapshot queries.
const (
	// Newer-wins upsert: a late observation never overwrites a fresher
	// snapshot.
	queryUpsertSnapshot = `
		INSERT INTO snapshots (item_id, observed_at, price, currency, sizes)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (item_id) DO UPDATE SET
			observed_at = excluded.observed_at,
			price = excluded.price,
			currency = excluded.currency,
			sizes = excluded.sizes
		WHERE excluded.observed_at >= snapshots.observed_at`

	queryGetSnapshot = `
		SELECT item_id, observed_at, price, currency, sizes
		FROM snapshots
		WHERE item_id = ?`

	queryDeleteSnapshot = `
		DELETE FROM snapshots WHERE item_id = ?`
)

// Price history queries.
const (
	queryLastPricePoint = `
		SELECT observed_at, price
		FROM price_history
		WHERE item_id = ?
		ORDER BY observed_at DESC
		LIMIT 1`

	queryAppendPricePoint = `
		INSERT INTO price_history (item_id, observed_at, price, currency)
		VALUES (?, ?, ?, ?)`

	queryListPriceHistory = `
		SELECT item_id, observed_at, price, currency
		FROM price_history
		WHERE item_id = ?
		ORDER BY observed_at DESC
		LIMIT ?`

	queryDeletePriceHistory = `
		DELETE FROM price_history WHERE item_id = ?`
)

// Settings queries.
const (
	queryGetSetting = `
		SELECT value FROM settings WHERE key = ?`

	queryPutSetting = `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`
)
