package dailystats

const populateBlobStats = `
	INSERT INTO blob_daily_stats (day, total_blobs, total_unique_blobs, total_blob_size, avg_blob_size)
	SELECT
		(tb.block_timestamp AT TIME ZONE 'UTC')::date AS day,
		count(*),
		count(DISTINCT tb.blob_hash),
		coalesce(sum(b.size), 0),
		coalesce(avg(b.size), 0)
	FROM transaction_blob tb
	JOIN blob b ON b.versioned_hash = tb.blob_hash
	WHERE (?0::timestamptz IS NULL OR tb.block_timestamp >= ?0)
	  AND tb.block_timestamp < ?1
	GROUP BY 1
	ON CONFLICT (day) DO UPDATE SET
		total_blobs = EXCLUDED.total_blobs,
		total_unique_blobs = EXCLUDED.total_unique_blobs,
		total_blob_size = EXCLUDED.total_blob_size,
		avg_blob_size = EXCLUDED.avg_blob_size
`

const populateBlockStats = `
	INSERT INTO block_daily_stats (day, total_blocks, total_blob_gas_used, total_blob_fee, avg_blob_fee, avg_blob_gas_price)
	SELECT
		(timestamp AT TIME ZONE 'UTC')::date AS day,
		count(*),
		coalesce(sum(blob_gas_used), 0),
		coalesce(sum(blob_gas_used * blob_gas_price), 0),
		coalesce(avg(blob_gas_used * blob_gas_price), 0),
		coalesce(avg(blob_gas_price), 0)
	FROM block
	WHERE (?0::timestamptz IS NULL OR timestamp >= ?0)
	  AND timestamp < ?1
	GROUP BY 1
	ON CONFLICT (day) DO UPDATE SET
		total_blocks = EXCLUDED.total_blocks,
		total_blob_gas_used = EXCLUDED.total_blob_gas_used,
		total_blob_fee = EXCLUDED.total_blob_fee,
		avg_blob_fee = EXCLUDED.avg_blob_fee,
		avg_blob_gas_price = EXCLUDED.avg_blob_gas_price
`

const populateTransactionStats = `
	INSERT INTO transaction_daily_stats (day, total_transactions, total_unique_senders, total_unique_receivers, avg_max_blob_gas_fee)
	SELECT
		(block_timestamp AT TIME ZONE 'UTC')::date AS day,
		count(*),
		count(DISTINCT from_id),
		count(DISTINCT to_id),
		coalesce(avg(max_fee_per_blob_gas), 0)
	FROM "transaction"
	WHERE (?0::timestamptz IS NULL OR block_timestamp >= ?0)
	  AND block_timestamp < ?1
	GROUP BY 1
	ON CONFLICT (day) DO UPDATE SET
		total_transactions = EXCLUDED.total_transactions,
		total_unique_senders = EXCLUDED.total_unique_senders,
		total_unique_receivers = EXCLUDED.total_unique_receivers,
		avg_max_blob_gas_fee = EXCLUDED.avg_max_blob_gas_fee
`
