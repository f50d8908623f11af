package loader_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/okane-project/ledgerkit/internal/loader"
	"github.com/okane-project/ledgerkit/internal/syntax"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadWithoutFollowIncludesLeavesIncludesInTree(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.ledger", "include \"accounts.ledger\"\n")

	tree, err := loader.New().Load(context.Background(), main)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(tree.Entries))
	_, ok := tree.Entries[0].(*syntax.Include)
	assert.True(t, ok)
}

func TestLoadFollowsAndMergesIncludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "accounts.ledger", "account Assets:Bank:Checking\n")
	main := writeFile(t, dir, "main.ledger", `include "accounts.ledger"

2024/05/01 Groceries
    Assets:Bank:Checking       -12.00 USD
    Expenses:Groceries
`)

	tree, err := loader.New(loader.WithFollowIncludes()).Load(context.Background(), main)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(tree.Entries))

	acct, ok := tree.Entries[0].(*syntax.AccountDecl)
	assert.True(t, ok)
	assert.Equal(t, "Assets:Bank:Checking", acct.Name)

	_, ok = tree.Entries[1].(*syntax.Transaction)
	assert.True(t, ok)
}

func TestLoadDeduplicatesRepeatedIncludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shared.ledger", "account Assets:Bank:Checking\n")
	writeFile(t, dir, "a.ledger", "include \"shared.ledger\"\n")
	main := writeFile(t, dir, "main.ledger", "include \"a.ledger\"\ninclude \"shared.ledger\"\n")

	tree, err := loader.New(loader.WithFollowIncludes()).Load(context.Background(), main)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(tree.Entries))
}
