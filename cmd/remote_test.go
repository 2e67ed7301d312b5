package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fakeOpenProject keeps created work packages and time entries in memory and
// answers collection queries through their filters.
type fakeOpenProject struct {
	mu          sync.Mutex
	nextID      int
	workPkgs    []fakeWorkPackage
	timeEntries []fakeTimeEntry
}

type fakeWorkPackage struct {
	ID        int
	ProjectID int
	Subject   string
}

type fakeTimeEntry struct {
	ID            int
	WorkPackageID int
	SpentOn       string
}

type fakeFilter struct {
	Operator string   `json:"operator"`
	Values   []string `json:"values"`
}

// parseFilters decodes the filters query parameter into field -> condition.
func parseFilters(r *http.Request) (map[string]fakeFilter, error) {
	raw := r.URL.Query().Get("filters")
	if raw == "" {
		return map[string]fakeFilter{}, nil
	}
	var list []map[string]fakeFilter
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, err
	}
	out := make(map[string]fakeFilter)
	for _, m := range list {
		for field, cond := range m {
			out[field] = cond
		}
	}
	return out, nil
}

// matches reports whether value satisfies the condition on field, if any.
func matches(filters map[string]fakeFilter, field, value string) bool {
	cond, ok := filters[field]
	if !ok {
		return true
	}
	for _, v := range cond.Values {
		switch cond.Operator {
		case "~":
			if strings.Contains(strings.ToLower(value), strings.ToLower(v)) {
				return true
			}
		default:
			if value == v {
				return true
			}
		}
	}
	return false
}

// hrefID returns the trailing numeric id of a HAL link.
func hrefID(href string) int {
	id, _ := strconv.Atoi(href[strings.LastIndex(href, "/")+1:])
	return id
}

func (f *fakeOpenProject) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if user, pass, ok := r.BasicAuth(); !ok || user != "apikey" || pass != "secret" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "unauthorized"})
		return
	}
	filters, err := parseFilters(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "bad filters: " + err.Error()})
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v3")
	switch {
	case r.Method == http.MethodGet && path == "/users/me":
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "name": "Jane Doe"})
	case r.Method == http.MethodGet && path == "/projects":
		writeJSON(w, http.StatusOK, collectionOf([]map[string]any{
			{"id": 64, "name": "IDCOL"},
			{"id": 99, "name": "Unmapped"},
		}))
	case r.Method == http.MethodGet && path == "/statuses":
		writeJSON(w, http.StatusOK, collectionOf([]map[string]any{
			{"id": 1, "name": "New", "isDefault": true},
			{"id": 7, "name": "In progress"},
			{"id": 12, "name": "Closed", "isClosed": true},
		}))
	case r.Method == http.MethodGet && path == "/work_packages":
		elements := []map[string]any{}
		for _, wp := range f.workPkgs {
			if matches(filters, "project", strconv.Itoa(wp.ProjectID)) && matches(filters, "subject", wp.Subject) {
				elements = append(elements, map[string]any{"id": wp.ID, "subject": wp.Subject})
			}
		}
		writeJSON(w, http.StatusOK, collectionOf(elements))
	case r.Method == http.MethodPost && strings.HasPrefix(path, "/projects/") && strings.HasSuffix(path, "/work_packages"):
		var body struct {
			Subject string `json:"subject"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
			return
		}
		f.nextID++
		wp := fakeWorkPackage{
			ID:        f.nextID,
			ProjectID: hrefID(strings.TrimSuffix(path, "/work_packages")),
			Subject:   body.Subject,
		}
		f.workPkgs = append(f.workPkgs, wp)
		writeJSON(w, http.StatusCreated, map[string]any{"id": wp.ID, "subject": wp.Subject})
	case r.Method == http.MethodGet && path == "/time_entries":
		elements := []map[string]any{}
		for _, te := range f.timeEntries {
			if matches(filters, "work_package", strconv.Itoa(te.WorkPackageID)) && matches(filters, "spent_on", te.SpentOn) {
				elements = append(elements, map[string]any{"id": te.ID, "spentOn": te.SpentOn})
			}
		}
		writeJSON(w, http.StatusOK, collectionOf(elements))
	case r.Method == http.MethodPost && path == "/time_entries":
		var body struct {
			SpentOn string `json:"spentOn"`
			Links   struct {
				WorkPackage struct {
					Href string `json:"href"`
				} `json:"workPackage"`
			} `json:"_links"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
			return
		}
		f.nextID++
		te := fakeTimeEntry{ID: f.nextID, WorkPackageID: hrefID(body.Links.WorkPackage.Href), SpentOn: body.SpentOn}
		f.timeEntries = append(f.timeEntries, te)
		writeJSON(w, http.StatusCreated, map[string]any{"id": te.ID, "spentOn": te.SpentOn})
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "not found: " + path})
	}
}

func collectionOf(elements []map[string]any) map[string]any {
	if elements == nil {
		elements = []map[string]any{}
	}
	return map[string]any{"_embedded": map[string]any{"elements": elements}}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/hal+json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// setupRemote starts a fake server and points the environment at it.
func setupRemote(t *testing.T) *fakeOpenProject {
	t.Helper()
	fake := &fakeOpenProject{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	t.Setenv("OPENPROJECT_URL", srv.URL)
	t.Setenv("OPENPROJECT_API_TOKEN", "secret")
	return fake
}

func resetSubmitFlags() {
	submitStarts = map[string]string{}
	submitStartHour = -1
	submitDates = nil
	submitYes = false
	submitDryRun = false
	submitProgress = false
	historyLimit = 20
	historyRun = ""
}

func TestCheckCommand(t *testing.T) {
	cfg, _ := setupWorkspace(t)
	setupRemote(t)

	out := executeCommand(t, "check", "--config", cfg)
	if !strings.Contains(out, "as Jane Doe") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestProjectsCommand(t *testing.T) {
	cfg, _ := setupWorkspace(t)
	setupRemote(t)

	out := executeCommand(t, "projects", "--config", cfg)
	lines := strings.Split(out, "\n")
	var idcol, unmapped string
	for _, l := range lines {
		switch {
		case strings.Contains(l, "Unmapped"):
			unmapped = l
		case strings.Contains(l, "   64  "):
			idcol = l
		}
	}
	if !strings.HasSuffix(strings.TrimSpace(idcol), "IDCOL") {
		t.Errorf("project 64 not shown as mapped:\n%s", out)
	}
	if !strings.HasSuffix(strings.TrimSpace(unmapped), "–") {
		t.Errorf("project 99 shown as mapped:\n%s", out)
	}
}

func TestStatusesCommand(t *testing.T) {
	cfg, _ := setupWorkspace(t)
	setupRemote(t)

	out := executeCommand(t, "statuses", "--config", cfg)
	want := []string{
		"     1  New",
		"*    7  In progress",
		"    12  Closed (closed)",
	}
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
	if strings.Count(out, "*") != 1 {
		t.Errorf("exactly one status should be marked as default:\n%s", out)
	}
}

func TestSubmitIsIdempotent(t *testing.T) {
	cfg, doc := setupWorkspace(t)
	fake := setupRemote(t)

	resetSubmitFlags()
	out := executeCommand(t, "submit", doc, "--config", cfg, "--yes")
	if !strings.Contains(out, "2 created, 0 skipped, 0 failed") {
		t.Errorf("first run:\n%s", out)
	}
	if len(fake.workPkgs) != 2 || len(fake.timeEntries) != 2 {
		t.Fatalf("remote has %d work packages, %d time entries; want 2, 2", len(fake.workPkgs), len(fake.timeEntries))
	}

	resetSubmitFlags()
	out = executeCommand(t, "submit", doc, "--config", cfg, "--yes")
	if !strings.Contains(out, "0 created, 2 skipped, 0 failed") {
		t.Errorf("second run:\n%s", out)
	}
	if len(fake.workPkgs) != 2 || len(fake.timeEntries) != 2 {
		t.Errorf("second run created bookings: %d work packages, %d time entries", len(fake.workPkgs), len(fake.timeEntries))
	}

	resetSubmitFlags()
	out = executeCommand(t, "history", "--config", cfg)
	if strings.Count(out, "2025-11-23") != 2 {
		t.Errorf("history should list both runs:\n%s", out)
	}
	if !strings.Contains(out, "created 2, skipped 0") || !strings.Contains(out, "created 0, skipped 2") {
		t.Errorf("history counters:\n%s", out)
	}
}

func TestSubmitDryRunCreatesNothing(t *testing.T) {
	cfg, doc := setupWorkspace(t)
	fake := setupRemote(t)

	resetSubmitFlags()
	out := executeCommand(t, "submit", doc, "--config", cfg, "--yes", "--dry-run")
	if !strings.Contains(out, "2 planned") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if len(fake.workPkgs) != 0 || len(fake.timeEntries) != 0 {
		t.Errorf("dry run created %d work packages, %d time entries", len(fake.workPkgs), len(fake.timeEntries))
	}
}

func TestSubmitRepeatedDate(t *testing.T) {
	cfg, _ := setupWorkspace(t)
	fake := setupRemote(t)

	doc := filepath.Join(filepath.Dir(cfg), "repeated.json")
	content := `{"logs": [
		{"date": "nov-23-2025", "entries": [
			{"project": "IDCOL", "subject": "Morning work", "duration_hours": 2, "activity": "Support", "is_scrum": false, "break_hours": null}
		]},
		{"date": "nov-23-2025", "entries": [
			{"project": "IDCOL", "subject": "Evening work", "duration_hours": 1, "activity": "Support", "is_scrum": false, "break_hours": null}
		]}
	]}`
	if err := os.WriteFile(doc, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	resetSubmitFlags()
	executeCommand(t, "submit", doc, "--config", cfg, "--yes")
	if len(fake.timeEntries) != 2 {
		t.Fatalf("time entries = %d, want 2", len(fake.timeEntries))
	}

	out := executeCommand(t, "report", "2025-11-23", "--config", cfg)
	for _, want := range []string{"Morning work", "Evening work"} {
		if !strings.Contains(out, want) {
			t.Errorf("archived report missing %q:\n%s", want, out)
		}
	}
}
