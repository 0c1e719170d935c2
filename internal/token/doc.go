// Package token provides text tokenization for indexing and querying.
//
// The same Tokenizer instance is used on both sides of the index: documents
// are tokenized when indexed and queries are tokenized when searched, so a
// query term can only match a document term if both passed through identical
// normalization.
//
// Normalization lower-cases the input, folds combining accents away
// ("café" becomes "cafe"), splits on non-alphanumeric boundaries, drops
// tokens outside the configured length bounds, and optionally removes
// English stopwords and applies a light suffix stemmer.
//
// Design decision: Tokenize returns a plain []string rather than a token
// struct with positions because:
//  1. Term positions are a property of the token stream handed to the
//     index, and the index derives them from slice order
//  2. Query-side callers only need the terms
//  3. A flat slice keeps the boosted re-indexing of titles trivial
package token
