package openproject

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Tiliavir/worklog/internal/timecalc"
)

// subjectFilterLen is how much of a subject is sent in the "~" filter.
const subjectFilterLen = 50

// Project is a remote project.
type Project struct {
	ID         int    `json:"id"`
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	Active     bool   `json:"active"`
}

// Status is a work package status.
type Status struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	IsClosed  bool   `json:"isClosed"`
	IsDefault bool   `json:"isDefault"`
}

// User is the account behind the configured credentials.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Login string `json:"login"`
	Email string `json:"email"`
}

// WorkPackage is a remote work item that time is booked against.
type WorkPackage struct {
	ID      int    `json:"id"`
	Subject string `json:"subject"`
}

// TimeEntry is a booking of hours on a work package for a date.
type TimeEntry struct {
	ID      int    `json:"id"`
	SpentOn string `json:"spentOn"`
	Hours   string `json:"hours"`
}

// NewTimeEntry holds the fields of a time entry to create.
type NewTimeEntry struct {
	WorkPackageID int
	ProjectID     int
	ActivityID    int
	Hours         float64
	// SpentOn is a yyyy-mm-dd date.
	SpentOn string
	Comment string
}

// Filter is one condition of an OpenProject filter expression.
type Filter struct {
	Field    string
	Operator string
	Values   []string
}

type filterCondition struct {
	Operator string   `json:"operator"`
	Values   []string `json:"values"`
}

// EncodeFilters renders filters as the URL-escaped JSON array expected by the
// filters query parameter, e.g. [{"project":{"operator":"=","values":["64"]}}].
func EncodeFilters(filters ...Filter) string {
	list := make([]map[string]filterCondition, 0, len(filters))
	for _, f := range filters {
		values := f.Values
		if values == nil {
			values = []string{}
		}
		list = append(list, map[string]filterCondition{
			f.Field: {Operator: f.Operator, Values: values},
		})
	}
	data, _ := json.Marshal(list)
	return url.QueryEscape(string(data))
}

// collection is a HAL collection response.
type collection[T any] struct {
	Embedded struct {
		Elements []T `json:"elements"`
	} `json:"_embedded"`
}

type link struct {
	Href string `json:"href"`
}

// API exposes the OpenProject operations worklog needs on top of a Requester.
type API struct {
	r Requester
}

// NewAPI wraps r.
func NewAPI(r Requester) *API {
	return &API{r: r}
}

func getElements[T any](ctx context.Context, r Requester, endpoint string) ([]T, error) {
	raw, err := r.Request(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var c collection[T]
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", endpoint, err)
		}
	}
	if c.Embedded.Elements == nil {
		return []T{}, nil
	}
	return c.Embedded.Elements, nil
}

func call[T any](ctx context.Context, r Requester, method, endpoint string, body any) (*T, error) {
	raw, err := r.Request(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", endpoint, err)
	}
	return &v, nil
}

// Projects lists projects visible to the user.
func (a *API) Projects(ctx context.Context) ([]Project, error) {
	return getElements[Project](ctx, a.r, "/projects?pageSize=100")
}

// Statuses lists work package statuses.
func (a *API) Statuses(ctx context.Context) ([]Status, error) {
	return getElements[Status](ctx, a.r, "/statuses")
}

// Me returns the authenticated user. It doubles as a connection test.
func (a *API) Me(ctx context.Context) (*User, error) {
	return call[User](ctx, a.r, http.MethodGet, "/users/me", nil)
}

// FindWorkPackageBySubject returns the work package in projectID whose subject
// equals subject ignoring case, or nil if there is none. The server-side
// search only uses the first 50 characters of subject.
func (a *API) FindWorkPackageBySubject(ctx context.Context, projectID int, subject string) (*WorkPackage, error) {
	filters := EncodeFilters(
		Filter{Field: "project", Operator: "=", Values: []string{strconv.Itoa(projectID)}},
		Filter{Field: "subject", Operator: "~", Values: []string{truncate(subject, subjectFilterLen)}},
	)
	candidates, err := getElements[WorkPackage](ctx, a.r, "/work_packages?filters="+filters+"&pageSize=10")
	if err != nil {
		return nil, err
	}
	for _, wp := range candidates {
		if strings.EqualFold(wp.Subject, subject) {
			return &wp, nil
		}
	}
	return nil, nil
}

// CreateWorkPackage creates a work package in projectID with the given status.
func (a *API) CreateWorkPackage(ctx context.Context, projectID int, subject string, statusID int) (*WorkPackage, error) {
	body := map[string]any{
		"subject": subject,
		"_links": map[string]link{
			"status": {Href: fmt.Sprintf("%s/statuses/%d", apiPath, statusID)},
		},
	}
	return call[WorkPackage](ctx, a.r, http.MethodPost, fmt.Sprintf("/projects/%d/work_packages", projectID), body)
}

// TimeEntries lists the time entries booked on workPackageID for spentOn
// (yyyy-mm-dd).
func (a *API) TimeEntries(ctx context.Context, workPackageID int, spentOn string) ([]TimeEntry, error) {
	filters := EncodeFilters(
		Filter{Field: "work_package", Operator: "=", Values: []string{strconv.Itoa(workPackageID)}},
		Filter{Field: "spent_on", Operator: "=d", Values: []string{spentOn}},
	)
	return getElements[TimeEntry](ctx, a.r, "/time_entries?filters="+filters)
}

// CreateTimeEntry books a time entry.
func (a *API) CreateTimeEntry(ctx context.Context, in NewTimeEntry) (*TimeEntry, error) {
	body := map[string]any{
		"hours":   timecalc.ISODuration(in.Hours),
		"spentOn": in.SpentOn,
		"_links": map[string]link{
			"workPackage": {Href: fmt.Sprintf("%s/work_packages/%d", apiPath, in.WorkPackageID)},
			"project":     {Href: fmt.Sprintf("%s/projects/%d", apiPath, in.ProjectID)},
			"activity":    {Href: fmt.Sprintf("%s/time_entries/activities/%d", apiPath, in.ActivityID)},
		},
		"comment": map[string]string{"raw": in.Comment},
	}
	return call[TimeEntry](ctx, a.r, http.MethodPost, "/time_entries", body)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
