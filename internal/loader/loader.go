// Package loader loads ledger files with support for `include` directives.
// It can recursively resolve and merge multiple files into a single
// syntax.Tree, handling relative paths and deduplicating files that are
// included more than once.
//
// The loader supports two modes:
//   - Simple mode: parses a single file, leaving Includes in the tree
//   - Follow mode: recursively loads every included file and merges them
//     into one tree
//
// Example usage:
//
//	l := loader.New()
//	tree, err := l.Load(ctx, "main.ledger")
//
//	l := loader.New(loader.WithFollowIncludes())
//	tree, err := l.Load(ctx, "main.ledger")
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/okane-project/ledgerkit/internal/parser"
	"github.com/okane-project/ledgerkit/internal/syntax"
	"github.com/okane-project/ledgerkit/internal/telemetry"
)

// Loader reads and parses ledger files with optional include resolution.
type Loader struct {
	// FollowIncludes recursively loads and merges every included file.
	// When false (default), only the named file is parsed and
	// syntax.Tree.Includes is left populated.
	FollowIncludes bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithFollowIncludes enables recursive include resolution: includes are
// loaded relative to the directory of the file that named them, deduplicated
// by absolute path, and merged into the returned tree, which then has
// Includes cleared.
func WithFollowIncludes() Option {
	return func(l *Loader) { l.FollowIncludes = true }
}

// New creates a Loader with the given options.
func New(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load parses filename, optionally following includes.
func (l *Loader) Load(ctx context.Context, filename string) (*syntax.Tree, error) {
	if !l.FollowIncludes {
		timer := telemetry.StartTimer(ctx, fmt.Sprintf("loader.parse %s", filepath.Base(filename)))
		defer timer.End()
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", filename, err)
		}
		return parseOrWrap(filename, data)
	}

	timer := telemetry.StartTimer(ctx, fmt.Sprintf("loader.load %s", filepath.Base(filename)))
	defer timer.End()
	state := &loaderState{visited: make(map[string]bool)}
	return state.loadRecursive(ctx, filename, nil)
}

// LoadBytes parses ledger content already in memory, resolving its includes
// relative to filename's directory when FollowIncludes is set.
func (l *Loader) LoadBytes(ctx context.Context, filename string, data []byte) (*syntax.Tree, error) {
	if !l.FollowIncludes {
		timer := telemetry.StartTimer(ctx, fmt.Sprintf("loader.parse %s", filepath.Base(filename)))
		defer timer.End()
		return parseOrWrap(filename, data)
	}

	parseTimer := telemetry.StartTimer(ctx, fmt.Sprintf("loader.parse %s", filepath.Base(filename)))
	result, err := parseOrWrap(filename, data)
	parseTimer.End()
	if err != nil {
		return nil, err
	}
	if len(result.Includes) == 0 {
		return result, nil
	}

	loadTimer := telemetry.StartTimer(ctx, fmt.Sprintf("loader.load includes for %s", filepath.Base(filename)))
	defer loadTimer.End()
	state := &loaderState{visited: make(map[string]bool)}

	var absPath, baseDir string
	if filename == "-" {
		var err error
		baseDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory for stdin: %w", err)
		}
		absPath = filepath.Join(baseDir, "-")
	} else {
		var err error
		absPath, err = filepath.Abs(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for %s: %w", filename, err)
		}
		baseDir = filepath.Dir(absPath)
	}
	state.visited[absPath] = true

	var includedTrees []*syntax.Tree
	for _, inc := range result.Includes {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		includePath := inc.Filename
		if !filepath.IsAbs(includePath) {
			includePath = filepath.Join(baseDir, includePath)
		}
		included, err := state.loadRecursive(ctx, includePath, nil)
		if err != nil {
			return nil, fmt.Errorf("in file %s: %w", filename, err)
		}
		includedTrees = append(includedTrees, included)
	}

	mergeTimer := loadTimer.Child("tree.merging")
	merged := mergeTrees(result, includedTrees...)
	mergeTimer.End()
	return merged, nil
}

func parseOrWrap(filename string, data []byte) (*syntax.Tree, error) {
	tree, errs := parser.Parse(filename, data)
	if len(errs) > 0 {
		return nil, fmt.Errorf("parsing %s: %w", filename, errs)
	}
	return tree, nil
}

// loaderState tracks which files have already been loaded, so a file
// included from two different places is only read and parsed once.
type loaderState struct {
	visited map[string]bool
	mu      sync.Mutex
}

// loadRecursive loads filename and every file it includes, transitively. If
// timer is non-nil it is used (and ended here) rather than creating a new
// one, so siblings spawned by the caller all nest under one parent.
func (l *loaderState) loadRecursive(ctx context.Context, filename string, timer telemetry.Timer) (*syntax.Tree, error) {
	absPath, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for %s: %w", filename, err)
	}

	var parseTimer telemetry.Timer
	if timer != nil {
		parseTimer = timer
	} else {
		parseTimer = telemetry.StartTimer(ctx, fmt.Sprintf("loader.parse %s", filepath.Base(filename)))
	}
	defer parseTimer.End()

	l.mu.Lock()
	if l.visited[absPath] {
		l.mu.Unlock()
		return &syntax.Tree{}, nil
	}
	l.visited[absPath] = true

	data, err := os.ReadFile(filename)
	if err != nil {
		delete(l.visited, absPath)
		l.mu.Unlock()
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	l.mu.Unlock()

	result, err := parseOrWrap(filename, data)
	if err != nil {
		return nil, err
	}

	if len(result.Includes) == 0 {
		result.Includes = nil
		return result, nil
	}

	baseDir := filepath.Dir(absPath)
	includedTrees := make([]*syntax.Tree, len(result.Includes))
	includeTimers := make([]telemetry.Timer, len(result.Includes))
	for i, inc := range result.Includes {
		includeTimers[i] = parseTimer.Child(fmt.Sprintf("loader.parse %s", filepath.Base(inc.Filename)))
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, inc := range result.Includes {
		i, inc := i, inc
		childTimer := includeTimers[i]
		g.Go(func() error {
			includePath := inc.Filename
			if !filepath.IsAbs(includePath) {
				includePath = filepath.Join(baseDir, includePath)
			}
			childCtx := telemetry.WithParentTimer(gctx, childTimer)
			included, err := l.loadRecursive(childCtx, includePath, childTimer)
			if err != nil {
				return fmt.Errorf("in file %s: %w", filename, err)
			}
			includedTrees[i] = included
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	mergeTimer := parseTimer.Child("tree.merging")
	merged := mergeTrees(result, includedTrees...)
	mergeTimer.End()
	return merged, nil
}

// mergeTrees combines a main tree with its (already-loaded) included trees.
// Entries from every tree are concatenated and re-sorted; Includes is
// cleared since every include has now been resolved.
func mergeTrees(main *syntax.Tree, included ...*syntax.Tree) *syntax.Tree {
	result := &syntax.Tree{
		Entries: make([]syntax.Entry, 0, len(main.Entries)),
	}
	for _, e := range main.Entries {
		if _, ok := e.(*syntax.Include); !ok {
			result.Entries = append(result.Entries, e)
		}
	}
	for _, inc := range included {
		if inc == nil {
			continue
		}
		result.Entries = append(result.Entries, inc.Entries...)
	}
	syntax.SortEntries(result.Entries)
	return result
}
