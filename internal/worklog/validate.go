package worklog

import (
	"fmt"
	"math"
	"strings"

	"github.com/Tiliavir/worklog/internal/mapping"
	"github.com/Tiliavir/worklog/internal/model"
)

// Structural errors. They short-circuit validation.
const (
	ErrMissingLogs = `Document must have a "logs" array`
	ErrEmptyLogs   = `Document "logs" array is empty`
)

// Validator checks documents against the work-log rules and resolves project
// and activity names.
type Validator struct {
	Projects   mapping.Resolver
	Activities mapping.Resolver
}

// NewValidator returns a Validator backed by tables.
func NewValidator(tables mapping.Tables) *Validator {
	return &Validator{Projects: tables.Projects, Activities: tables.Activities}
}

// ValidateBytes decodes data and validates the result. A decode failure is
// reported as the only error.
func (v *Validator) ValidateBytes(data []byte, format Format) model.ValidationResult {
	doc, err := Decode(data, format)
	if err != nil {
		return invalid(fmt.Sprintf("Invalid %s: %v", format, err))
	}
	return v.Validate(doc)
}

// Validate runs structural checks, per-entry checks and same-date duplicate
// detection, in that order, then aggregates cross-date duplicates over the
// logs that parsed. Every problem is collected; nothing stops at the first
// error except a broken document shape. doc is not modified.
func (v *Validator) Validate(doc any) model.ValidationResult {
	root, ok := asObject(doc)
	if !ok {
		return invalid(ErrMissingLogs)
	}
	rawLogs, ok := root["logs"].([]any)
	if !ok {
		return invalid(ErrMissingLogs)
	}
	if len(rawLogs) == 0 {
		return invalid(ErrEmptyLogs)
	}

	result := model.ValidationResult{
		Logs:      []model.DailyLog{},
		Errors:    []string{},
		CrossDate: []model.CrossDateDuplicate{},
	}

	for i, rawLog := range rawLogs {
		log, errs, ok := v.validateLog(i, rawLog)
		result.Errors = append(result.Errors, errs...)
		if ok {
			result.Logs = append(result.Logs, log)
		}
	}

	result.CrossDate = DetectCrossDate(result.Logs)
	result.IsValid = len(result.Errors) == 0
	return result
}

func invalid(msg string) model.ValidationResult {
	return model.ValidationResult{
		Logs:      []model.DailyLog{},
		Errors:    []string{msg},
		IsValid:   false,
		CrossDate: []model.CrossDateDuplicate{},
	}
}

// validateLog returns ok=false when the log could not be parsed far enough to
// take part in scheduling (bad shape, date or entries).
func (v *Validator) validateLog(index int, raw any) (model.DailyLog, []string, bool) {
	obj, ok := asObject(raw)
	if !ok {
		return model.DailyLog{}, []string{fmt.Sprintf("Log %d: must be an object", index+1)}, false
	}

	rawDate, present := obj["date"]
	date, isString := rawDate.(string)
	if !present || rawDate == nil || (isString && strings.TrimSpace(date) == "") {
		return model.DailyLog{}, []string{fmt.Sprintf("Log %d: missing date field", index+1)}, false
	}
	if !isString {
		return model.DailyLog{}, []string{fmt.Sprintf("Log %d: date must be a string", index+1)}, false
	}
	if !dateTokenRegex.MatchString(strings.TrimSpace(date)) {
		return model.DailyLog{}, []string{fmt.Sprintf("Log %d: invalid date format: %q (expected mon-dd-yyyy)", index+1, date)}, false
	}
	isoDate, err := ISODate(date)
	if err != nil {
		return model.DailyLog{}, []string{fmt.Sprintf("Log %d: %v", index+1, err)}, false
	}

	rawEntries, ok := obj["entries"].([]any)
	if !ok {
		return model.DailyLog{}, []string{fmt.Sprintf("Log for %s: missing entries array", date)}, false
	}

	var errs []string
	entries := make([]model.Entry, 0, len(rawEntries))
	// aligned keeps one slot per raw position so duplicate indices match the
	// document even when some entries are not objects.
	aligned := make([]model.WorkEntry, len(rawEntries))

	for j, rawEntry := range rawEntries {
		entryObj, ok := asObject(rawEntry)
		if !ok {
			errs = append(errs, fmt.Sprintf("%s: Entry %d: must be an object", date, j+1))
			continue
		}
		entry, entryErrs := v.validateEntry(entryObj)
		for _, e := range entryErrs {
			errs = append(errs, fmt.Sprintf("%s: Entry %d: %s", date, j+1, e))
		}
		entries = append(entries, entry)
		aligned[j] = entry.WorkEntry
	}

	for _, dup := range DetectSameDate(aligned) {
		errs = append(errs, fmt.Sprintf("%s: Duplicate subject %q in project %q (entries %d and %d)",
			date, dup.Subject, dup.Project, dup.Index1+1, dup.Index2+1))
	}

	return model.DailyLog{Date: date, ISODate: isoDate, Entries: entries}, errs, true
}

func (v *Validator) validateEntry(obj map[string]any) (model.Entry, []string) {
	var (
		entry model.Entry
		errs  []string
	)

	switch project, ok := obj["project"].(string); {
	case !ok || strings.TrimSpace(project) == "":
		errs = append(errs, "Missing project")
	default:
		entry.Project = project
		if id, ok := v.Projects.Resolve(project); ok {
			entry.ProjectID = id
		} else {
			errs = append(errs, fmt.Sprintf("Unknown project %q", project))
		}
	}

	if subject, ok := obj["subject"].(string); !ok || strings.TrimSpace(subject) == "" {
		errs = append(errs, "Missing subject")
	} else {
		entry.Subject = subject
	}

	if raw, present := obj["duration_hours"]; !present || raw == nil {
		errs = append(errs, "Missing duration_hours")
	} else if d, ok := asNumber(raw); !ok || d <= 0 {
		errs = append(errs, "Invalid duration_hours (must be a positive number)")
	} else {
		entry.DurationHours = d
	}

	switch activity, ok := obj["activity"].(string); {
	case !ok || strings.TrimSpace(activity) == "":
		errs = append(errs, "Missing activity")
	default:
		entry.Activity = activity
		if id, ok := v.Activities.Resolve(activity); ok {
			entry.ActivityID = id
		} else {
			errs = append(errs, fmt.Sprintf("Unknown activity %q", activity))
		}
	}

	if raw, present := obj["is_scrum"]; !present || raw == nil {
		errs = append(errs, "Missing is_scrum")
	} else if scrum, ok := raw.(bool); !ok {
		errs = append(errs, "is_scrum must be boolean")
	} else {
		entry.IsScrum = scrum
	}

	if raw, present := obj["break_hours"]; present && raw != nil {
		if b, ok := asNumber(raw); !ok {
			errs = append(errs, "break_hours must be a number or null")
		} else if b < 0 {
			errs = append(errs, "break_hours must not be negative")
		} else {
			entry.BreakHours = &b
		}
	}

	if raw, present := obj["work_package_id"]; present && raw != nil {
		if id, ok := asNumber(raw); !ok || id <= 0 || id > math.MaxInt32 || id != math.Trunc(id) {
			errs = append(errs, "work_package_id must be a positive integer or null")
		} else {
			wp := int(id)
			entry.WorkPackageID = &wp
		}
	}

	return entry, errs
}
