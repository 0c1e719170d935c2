// Package rank scores indexed documents against query tokens and orders
// search results.
//
// Two strategies implement the same contract: TF-IDF (the default) and
// Okapi BM25. The strategy set is a closed enumeration fixed at
// construction; unknown names fail fast instead of falling back.
//
// Scoring reads posting lists exactly as the index stores them. Boosted
// fields append duplicate postings per (term, document) pair, so under
// TF-IDF every posting counts toward document frequency and only the
// first posting for a pair supplies the term frequency. BM25 instead
// aggregates frequencies across postings and normalizes by document
// length.
//
// Ranking is deterministic: candidates are collected in first-encountered
// order (query token order, then posting order) and sorted stably by
// descending score, so equal-score documents keep their collection order
// and repeated calls over an unchanged index return identical sequences.
package rank
