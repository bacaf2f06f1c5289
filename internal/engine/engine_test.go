package engine_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"dreamland/internal/config"
	"dreamland/internal/domain"
	"dreamland/internal/engine"
	"dreamland/internal/stubserver"
	"dreamland/internal/tcapi"
)

// countingHandler wraps the stub so tests can assert which services were
// called, force folder creation to fail, and gate item creation for the
// re-entrancy test.
type countingHandler struct {
	next        http.Handler
	failFolders bool
	gateItems   chan struct{}
	itemStarted chan struct{}

	mu     sync.Mutex
	counts map[string]int
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	service := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	h.mu.Lock()
	h.counts[service]++
	h.mu.Unlock()
	switch service {
	case "createFolders":
		if h.failFolders {
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
	case "createItems":
		if h.gateItems != nil {
			h.itemStarted <- struct{}{}
			<-h.gateItems
		}
	}
	h.next.ServeHTTP(w, r)
}

func (h *countingHandler) count(service string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts[service]
}

type testEnv struct {
	Engine  *engine.Engine
	Handler *countingHandler
	Ctx     context.Context
}

func newTestEnv(t *testing.T, opts stubserver.Options, password string) testEnv {
	t.Helper()
	opts.Password = "secret"
	handler := &countingHandler{
		next:   stubserver.New(opts).Handler(),
		counts: map[string]int{},
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.Teamcenter.URL = srv.URL
	cfg.Teamcenter.Username = "infodba"
	cfg.Teamcenter.ItemsFolder.UID = "home-1"
	cfg.Teamcenter.ItemsFolder.ClassName = "Folder"
	cfg.Teamcenter.ItemsFolder.Type = "Folder"

	client := tcapi.New(srv.URL, "infodba", password)
	return testEnv{
		Engine:  engine.New(client, nil, cfg),
		Handler: handler,
		Ctx:     context.Background(),
	}
}

func radioItems() []domain.CandidateItem {
	return []domain.CandidateItem{
		{Name: "Radio-Module-A", Type: "Item", Desc: "RF front end", IsEnabled: true},
		{Name: "Radio-Module-B", Type: "Item", Desc: "Signal processor", IsEnabled: true},
		{Name: "Radio-Module-C", Type: "Item", Desc: "Power supply", IsEnabled: true},
	}
}

func TestLoginFailureMarksAllEnabledFailed(t *testing.T) {
	env := newTestEnv(t, stubserver.Options{}, "wrong-password")
	items := radioItems()
	items[1].IsEnabled = false

	report, err := env.Engine.CreateSelectedItems(env.Ctx, "Radio", items)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Results) != 2 {
		t.Fatalf("expected one result per enabled item, got %d", len(report.Results))
	}
	for _, r := range report.Results {
		if r.Success {
			t.Fatalf("expected failure for %s", r.ItemName)
		}
	}
	if report.Container.UID != "" {
		t.Fatalf("no container should be recorded, got %+v", report.Container)
	}
	if n := env.Handler.count("createFolders"); n != 0 {
		t.Fatalf("expected zero folder calls, got %d", n)
	}
	if n := env.Handler.count("createItems"); n != 0 {
		t.Fatalf("expected zero item calls, got %d", n)
	}
}

func TestFolderFailureMarksAllEnabledFailed(t *testing.T) {
	env := newTestEnv(t, stubserver.Options{}, "secret")
	env.Handler.failFolders = true

	report, err := env.Engine.CreateSelectedItems(env.Ctx, "Radio", radioItems())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(report.Results))
	}
	for _, r := range report.Results {
		if r.Success {
			t.Fatalf("expected failure for %s", r.ItemName)
		}
	}
	if n := env.Handler.count("createItems"); n != 0 {
		t.Fatalf("item creation must not run without a container, got %d calls", n)
	}
}

func TestPartialFailureIsolation(t *testing.T) {
	env := newTestEnv(t, stubserver.Options{
		FailItems: map[string]string{"Radio-Module-B": "item name already in use"},
	}, "secret")

	report, err := env.Engine.CreateSelectedItems(env.Ctx, "Radio", radioItems())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []domain.ItemCreationResult{
		{ItemName: "Radio-Module-A", Success: true},
		{ItemName: "Radio-Module-B", Success: false},
		{ItemName: "Radio-Module-C", Success: true},
	}
	if len(report.Results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(report.Results))
	}
	for i, w := range want {
		if report.Results[i] != w {
			t.Fatalf("result %d: got %+v want %+v", i, report.Results[i], w)
		}
	}
	if report.Container.UID != "folder-1" {
		t.Fatalf("expected container folder-1, got %q", report.Container.UID)
	}
}

func TestResultOrderMatchesEnabledFilter(t *testing.T) {
	env := newTestEnv(t, stubserver.Options{}, "secret")
	items := radioItems()
	items[1].IsEnabled = false

	report, err := env.Engine.CreateSelectedItems(env.Ctx, "Radio", items)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(report.Results))
	}
	if report.Results[0].ItemName != "Radio-Module-A" || report.Results[1].ItemName != "Radio-Module-C" {
		t.Fatalf("order not preserved: %+v", report.Results)
	}
	for _, r := range report.Results {
		if !r.Success {
			t.Fatalf("expected success for %s", r.ItemName)
		}
	}
}

func TestNoEnabledItemsStillRecordsContainer(t *testing.T) {
	env := newTestEnv(t, stubserver.Options{}, "secret")
	items := radioItems()
	for i := range items {
		items[i].IsEnabled = false
	}

	report, err := env.Engine.CreateSelectedItems(env.Ctx, "Radio", items)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Results) != 0 {
		t.Fatalf("expected empty results, got %+v", report.Results)
	}
	if report.Container.UID != "folder-1" {
		t.Fatalf("container must still be recorded, got %q", report.Container.UID)
	}
	if n := env.Handler.count("createItems"); n != 0 {
		t.Fatalf("expected zero item calls, got %d", n)
	}
}

func TestReentrantRunIsBenignNoOp(t *testing.T) {
	env := newTestEnv(t, stubserver.Options{}, "secret")
	env.Handler.gateItems = make(chan struct{})
	env.Handler.itemStarted = make(chan struct{})

	var first engine.Report
	done := make(chan struct{})
	go func() {
		defer close(done)
		first, _ = env.Engine.CreateSelectedItems(env.Ctx, "Radio", radioItems()[:1])
	}()

	// Wait until the first run holds the folder and is inside item creation.
	<-env.Handler.itemStarted

	second, err := env.Engine.CreateSelectedItems(env.Ctx, "Radio", radioItems())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(second.Results) != 0 || second.Container.UID != "" {
		t.Fatalf("contending run must be an empty no-op, got %+v", second)
	}

	close(env.Handler.gateItems)
	<-done

	if len(first.Results) != 1 || !first.Results[0].Success {
		t.Fatalf("first run should finish normally: %+v", first.Results)
	}
	if n := env.Handler.count("createFolders"); n != 1 {
		t.Fatalf("container folder must not be duplicated, got %d calls", n)
	}
}

func TestStatusUpdatesAreEmitted(t *testing.T) {
	env := newTestEnv(t, stubserver.Options{}, "secret")
	var mu sync.Mutex
	var lines []string
	env.Engine.OnStatus = func(msg string) {
		mu.Lock()
		lines = append(lines, msg)
		mu.Unlock()
	}
	if _, err := env.Engine.CreateSelectedItems(env.Ctx, "Radio", radioItems()); err != nil {
		t.Fatalf("run: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(lines) < 3 {
		t.Fatalf("expected a sequence of status lines, got %v", lines)
	}
	if lines[len(lines)-1] != "Push complete." {
		t.Fatalf("unexpected final status %q", lines[len(lines)-1])
	}
}
