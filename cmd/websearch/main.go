// Package main provides the entry point for the websearch CLI.
//
// Websearch is a small self-hosted search engine. It crawls seed URLs,
// builds an inverted index, and answers ranked queries from the command
// line, an interactive shell, or an HTTP API.
//
// Usage:
//
//	websearch crawl https://example.com
//	websearch search <query>
//	websearch serve
//
// See --help for all available options.
package main

// main is the entry point for websearch.
func main() {
	Execute()
}
