// Package deduplication decides whether a publish candidate duplicates
// recently published material.
//
// # Overview
//
// The Gate compares one candidate against every artifact published within
// a recency window (default 30 days) using the weighted fuzzy score from
// the similarity package. The best match decides: a score strictly above
// the threshold (default 0.75) marks the candidate as a duplicate and the
// publish is skipped before any branch is created.
//
// Undated artifacts are never compared. An artifact whose body hashes to
// the same BLAKE3 digest as the candidate's body is a duplicate with score
// 1.0 regardless of title or metadata.
//
// # Sources
//
// Artifacts come from a Source. The artifact directory is one; the publish
// history can be another, covering documents that are committed on a
// pending review branch but not yet on trunk. MultiSource combines them.
//
// # Failure behavior
//
// The gate fails open. An unreadable directory or a malformed document is
// logged and skipped, and the candidate is judged against whatever could be
// read. Check only returns an error for a nil candidate or a context that
// is already done.
//
// # Freshness
//
// Freshness scores how under-covered a venue and category are, counting
// posts within a longer window (default 60 days):
//
//	venue    = max(0, 1 - 0.3 * venue mentions)
//	category = max(0, 1 - 0.2 * category mentions)
//	score    = (venue + category) / 2
//
// With no recent posts the score is 1.0.
package deduplication
