// Package config provides configuration structures and utilities for
// websearch. It defines the crawler, indexer, ranking, API, storage, and
// cache settings, loads them from a YAML file, and validates them before
// any crawl or search work begins.
package config
