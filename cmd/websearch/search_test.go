package main

import (
	"strconv"
	"strings"
	"testing"

	"github.com/nao1215/websearch/internal/config"
)

// TestNewSearchCmd tests the search command creation.
func TestNewSearchCmd(t *testing.T) {
	t.Parallel()

	cmd := NewSearchCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "search <query>..." {
			t.Errorf("expected use 'search <query>...', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("requires at least one argument", func(t *testing.T) {
		t.Parallel()
		if cmd.Args == nil {
			t.Error("expected Args validator")
		}
	})

	t.Run("has limit flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("limit")
		if flag == nil {
			t.Fatal("expected limit flag")
		}
		if flag.Shorthand != "l" {
			t.Errorf("expected shorthand 'l', got %q", flag.Shorthand)
		}
		if flag.DefValue != strconv.Itoa(config.DefaultMaxResults) {
			t.Errorf("expected default %d, got %q", config.DefaultMaxResults, flag.DefValue)
		}
	})

	t.Run("has algorithm flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("algorithm")
		if flag == nil {
			t.Fatal("expected algorithm flag")
		}
		if flag.Shorthand != "a" {
			t.Errorf("expected shorthand 'a', got %q", flag.Shorthand)
		}
	})

	t.Run("has config flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("config")
		if flag == nil {
			t.Fatal("expected config flag")
		}
		if flag.Shorthand != "c" {
			t.Errorf("expected shorthand 'c', got %q", flag.Shorthand)
		}
	})

	t.Run("has data-dir flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("data-dir")
		if flag == nil {
			t.Fatal("expected data-dir flag")
		}
	})
}

// TestRunSearchCmdNoArgs tests the search command with no arguments.
func TestRunSearchCmdNoArgs(t *testing.T) {
	t.Parallel()

	rootCmd := NewRootCmd()
	rootCmd.SetArgs([]string{"search"})

	err := rootCmd.Execute()
	if err == nil {
		t.Error("expected error for no arguments")
	}
}

// TestRunSearchCmdMissingIndex tests the search command against a data
// directory with no index snapshot.
func TestRunSearchCmdMissingIndex(t *testing.T) {
	tmpDir := t.TempDir()

	rootCmd := NewRootCmd()
	rootCmd.SetArgs([]string{"search", "--data-dir", tmpDir, "golang"})

	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing index snapshot")
	}
	if !strings.Contains(err.Error(), "run 'websearch crawl' first") {
		t.Errorf("expected crawl hint in error, got %v", err)
	}
}

// TestRunSearchCmdInvalidAlgorithm tests the search command with an
// unknown ranking algorithm.
func TestRunSearchCmdInvalidAlgorithm(t *testing.T) {
	tmpDir := t.TempDir()

	rootCmd := NewRootCmd()
	rootCmd.SetArgs([]string{"search", "--data-dir", tmpDir, "--algorithm", "pagerank", "golang"})

	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
	if !strings.Contains(err.Error(), "configuration error") {
		t.Errorf("expected configuration error, got %v", err)
	}
}
