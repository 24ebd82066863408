package overallstats

// Totals are added to the stored row, averages are recomputed
// as weighted means of the stored and the new values.

// A blob is unique in the block it was first seen in.
const incrementBlobStats = `
	INSERT INTO blob_overall_stats AS st (id, total_blobs, total_unique_blobs, total_blob_size, avg_blob_size, updated_at)
	SELECT
		?0,
		count(*),
		count(DISTINCT tb.blob_hash) FILTER (WHERE b.first_block_number = tb.block_number),
		coalesce(sum(b.size), 0),
		coalesce(avg(b.size), 0),
		now()
	FROM transaction_blob tb
	JOIN blob b ON b.versioned_hash = tb.blob_hash
	WHERE tb.block_number BETWEEN ?1 AND ?2
	ON CONFLICT (id) DO UPDATE SET
		total_blobs = st.total_blobs + EXCLUDED.total_blobs,
		total_unique_blobs = st.total_unique_blobs + EXCLUDED.total_unique_blobs,
		total_blob_size = st.total_blob_size + EXCLUDED.total_blob_size,
		avg_blob_size = coalesce(
			(st.total_blob_size + EXCLUDED.total_blob_size)::numeric / nullif(st.total_blobs + EXCLUDED.total_blobs, 0),
			0),
		updated_at = EXCLUDED.updated_at
`

const incrementBlockStats = `
	INSERT INTO block_overall_stats AS st (id, total_blocks, total_blob_gas_used, total_blob_fee, avg_blob_fee, avg_blob_gas_price, updated_at)
	SELECT
		?0,
		count(*),
		coalesce(sum(blob_gas_used), 0),
		coalesce(sum(blob_gas_used * blob_gas_price), 0),
		coalesce(avg(blob_gas_used * blob_gas_price), 0),
		coalesce(avg(blob_gas_price), 0),
		now()
	FROM block
	WHERE number BETWEEN ?1 AND ?2
	ON CONFLICT (id) DO UPDATE SET
		total_blocks = st.total_blocks + EXCLUDED.total_blocks,
		total_blob_gas_used = st.total_blob_gas_used + EXCLUDED.total_blob_gas_used,
		total_blob_fee = st.total_blob_fee + EXCLUDED.total_blob_fee,
		avg_blob_fee = coalesce(
			(st.total_blob_fee + EXCLUDED.total_blob_fee) / nullif(st.total_blocks + EXCLUDED.total_blocks, 0),
			0),
		avg_blob_gas_price = coalesce(
			(st.avg_blob_gas_price * st.total_blocks + EXCLUDED.avg_blob_gas_price * EXCLUDED.total_blocks)
				/ nullif(st.total_blocks + EXCLUDED.total_blocks, 0),
			0),
		updated_at = EXCLUDED.updated_at
`

// An address is a unique sender (receiver) in the block it first sent (received) a blob transaction.
const incrementTransactionStats = `
	INSERT INTO transaction_overall_stats AS st (id, total_transactions, total_unique_senders, total_unique_receivers, avg_max_blob_gas_fee, updated_at)
	SELECT ?0, t.total, s.total, r.total, t.avg_fee, now()
	FROM (
		SELECT count(*) AS total, coalesce(avg(max_fee_per_blob_gas), 0) AS avg_fee
		FROM "transaction"
		WHERE block_number BETWEEN ?1 AND ?2
	) t, (
		SELECT count(*) AS total
		FROM address
		WHERE first_block_number_as_sender BETWEEN ?1 AND ?2
	) s, (
		SELECT count(*) AS total
		FROM address
		WHERE first_block_number_as_receiver BETWEEN ?1 AND ?2
	) r
	WHERE true
	ON CONFLICT (id) DO UPDATE SET
		total_transactions = st.total_transactions + EXCLUDED.total_transactions,
		total_unique_senders = st.total_unique_senders + EXCLUDED.total_unique_senders,
		total_unique_receivers = st.total_unique_receivers + EXCLUDED.total_unique_receivers,
		avg_max_blob_gas_fee = coalesce(
			(st.avg_max_blob_gas_fee * st.total_transactions + EXCLUDED.avg_max_blob_gas_fee * EXCLUDED.total_transactions)
				/ nullif(st.total_transactions + EXCLUDED.total_transactions, 0),
			0),
		updated_at = EXCLUDED.updated_at
`
