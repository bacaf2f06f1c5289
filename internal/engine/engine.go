// Package engine drives the generate-review-push workflow: one container
// folder per run, then one createItem call per approved candidate, in input
// order, with per-item failure isolation.
package engine

import (
	"context"
	"fmt"
	"sync"

	"dreamland/internal/config"
	"dreamland/internal/domain"
	"dreamland/internal/generate"
	"dreamland/internal/tcapi"
	"dreamland/internal/tcmodel"
)

// Report is the outcome of one creation run.
type Report struct {
	// Container identifies the folder created to hold the batch. It is
	// zero when the run never got that far.
	Container tcmodel.ObjectRef
	Results   []domain.ItemCreationResult
}

// Engine owns one client and one generator. OnStatus, when set, receives a
// finite sequence of human-readable progress lines per run.
type Engine struct {
	Client   *tcapi.Client
	Gen      generate.Generator
	Config   *config.Config
	OnStatus func(string)

	runMu sync.Mutex
}

func New(client *tcapi.Client, gen generate.Generator, cfg *config.Config) *Engine {
	return &Engine{Client: client, Gen: gen, Config: cfg}
}

func (e *Engine) status(format string, args ...any) {
	if e.OnStatus != nil {
		e.OnStatus(fmt.Sprintf(format, args...))
	}
}

// GenerateItems asks the LLM for count candidates in the given domain.
func (e *Engine) GenerateItems(ctx context.Context, domainName string, count int) ([]domain.CandidateItem, error) {
	e.status("Generating %d items for %q...", count, domainName)
	items, err := e.Gen.Generate(ctx, domainName, count)
	if err != nil {
		e.status("Generation failed.")
		return nil, err
	}
	e.status("Items ready. Review them and push.")
	return items, nil
}

// containerRef is the configured folder that receives per-run containers.
func (e *Engine) containerRef() tcmodel.ObjectRef {
	f := e.Config.Teamcenter.ItemsFolder
	return tcmodel.ObjectRef{UID: f.UID, ClassName: f.ClassName, Type: f.Type}
}

// CreateSelectedItems pushes every enabled candidate into a fresh container
// folder named after the domain.
//
// Login failure and folder-creation failure are batch-fatal: every enabled
// candidate is reported failed and no further calls happen. A single item's
// failure never aborts its siblings. Results are ordered 1:1 with the
// enabled candidates. No call is retried; each remote call happens exactly
// once per run.
//
// A second run started while one is in flight returns an empty report
// immediately. That is a benign no-op, not an error.
func (e *Engine) CreateSelectedItems(ctx context.Context, domainName string, items []domain.CandidateItem) (Report, error) {
	enabled := enabledItems(items)

	e.status("Connecting to Teamcenter...")
	if _, err := e.Client.CurrentSession(); err != nil {
		if _, err := e.Client.Login(ctx); err != nil {
			e.status("Login failed. Check Teamcenter credentials.")
			return Report{Results: allFailed(enabled)}, nil
		}
	}

	if !e.runMu.TryLock() {
		return Report{}, nil
	}
	defer e.runMu.Unlock()

	e.status("Creating container folder...")
	container, err := e.Client.CreateFolder(ctx, domainName,
		fmt.Sprintf("Some items related to %s", domainName), e.containerRef())
	if err != nil {
		e.status("Folder creation failed.")
		return Report{Results: allFailed(enabled)}, nil
	}

	if len(enabled) == 0 {
		e.status("No items selected.")
		return Report{Container: container}, nil
	}

	results := make([]domain.ItemCreationResult, 0, len(enabled))
	for i, item := range enabled {
		e.status("Creating %q (%d/%d)...", item.Name, i+1, len(enabled))
		_, _, err := e.Client.CreateItem(ctx, item.Name, item.Type, item.Desc, container)
		results = append(results, domain.ItemCreationResult{
			ItemName: item.Name,
			Success:  err == nil,
		})
	}

	failures := 0
	for _, r := range results {
		if !r.Success {
			failures++
		}
	}
	if failures == 0 {
		e.status("Push complete.")
	} else {
		e.status("Push finished with %d failure(s).", failures)
	}
	return Report{Container: container, Results: results}, nil
}

func enabledItems(items []domain.CandidateItem) []domain.CandidateItem {
	out := make([]domain.CandidateItem, 0, len(items))
	for _, it := range items {
		if it.IsEnabled {
			out = append(out, it)
		}
	}
	return out
}

func allFailed(enabled []domain.CandidateItem) []domain.ItemCreationResult {
	out := make([]domain.ItemCreationResult, 0, len(enabled))
	for _, it := range enabled {
		out = append(out, domain.ItemCreationResult{ItemName: it.Name, Success: false})
	}
	return out
}
