// Package extract parses fetched HTML into the fields the indexer needs:
// title, visible body text, headings, meta description, and outbound links.
//
// The body text keeps title and heading text in it. Boosted fields are
// re-indexed separately on top of the body stream, so a title term is
// naturally worth more than a body term without any special casing in the
// ranking code.
package extract
