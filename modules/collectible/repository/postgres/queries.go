package postgres

const (
	getDeploymentQuery = `SELECT administrator, name, symbol, cid, contract_uri, issued_count, created_at, updated_at
FROM collectible_deployment WHERE id = 1`

	createDeploymentQuery = `INSERT INTO collectible_deployment (id, administrator, name, symbol, cid, contract_uri, issued_count)
VALUES (1, $1, $2, $3, $4, $5, $6)`

	updateDeploymentQuery = `UPDATE collectible_deployment
SET administrator = $1, name = $2, symbol = $3, cid = $4, contract_uri = $5, issued_count = $6, updated_at = NOW()
WHERE id = 1`

	getItemQuery = `SELECT id, owner, approved, claim_price, claimed_at, updated_at FROM collectible_items WHERE id = $1`

	createItemQuery = `INSERT INTO collectible_items (id, owner, approved, claim_price) VALUES ($1, $2, $3, $4)`

	updateItemQuery = `UPDATE collectible_items SET owner = $2, approved = $3, updated_at = NOW() WHERE id = $1`

	getBalanceQuery = `SELECT COUNT(*) FROM collectible_items WHERE owner = $1`

	getOfferQuery = `SELECT item_id, seller, price, buyer, created_at FROM collectible_offers WHERE item_id = $1`

	setOfferQuery = `INSERT INTO collectible_offers (item_id, seller, price, buyer) VALUES ($1, $2, $3, $4)
ON CONFLICT (item_id) DO UPDATE SET seller = EXCLUDED.seller, price = EXCLUDED.price, buyer = EXCLUDED.buyer, created_at = NOW()`

	deleteOfferQuery = `DELETE FROM collectible_offers WHERE item_id = $1`

	isOperatorQuery = `SELECT EXISTS (SELECT 1 FROM collectible_operators WHERE owner = $1 AND operator = $2)`

	addOperatorQuery = `INSERT INTO collectible_operators (owner, operator) VALUES ($1, $2) ON CONFLICT DO NOTHING`

	removeOperatorQuery = `DELETE FROM collectible_operators WHERE owner = $1 AND operator = $2`

	createEventQuery = `INSERT INTO collectible_events (kind, item_id, from_address, to_address, price, approved, uri)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING sequence, created_at`

	getEventsQuery = `SELECT sequence, kind, item_id, from_address, to_address, price, approved, uri, created_at
FROM collectible_events
WHERE ($1::BIGINT IS NULL OR item_id = $1)
ORDER BY sequence ASC
LIMIT $2 OFFSET $3`
)
