package worklog

import (
	"strconv"
	"strings"

	"github.com/Tiliavir/worklog/internal/model"
)

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DetectSameDate reports every entry whose project and subject repeat an
// earlier entry of the same date. The first occurrence of a key is the
// baseline; each later one yields a record pointing at both indices.
// Entries without a subject are ignored, validation already rejects them.
func DetectSameDate(entries []model.WorkEntry) []model.SameDateDuplicate {
	seen := make(map[string]int, len(entries))
	var dups []model.SameDateDuplicate

	for i, e := range entries {
		if strings.TrimSpace(e.Subject) == "" {
			continue
		}
		key := normalize(e.Project) + "|" + normalize(e.Subject)
		if first, ok := seen[key]; ok {
			dups = append(dups, model.SameDateDuplicate{
				Index1:  first,
				Index2:  i,
				Project: e.Project,
				Subject: e.Subject,
			})
			continue
		}
		seen[key] = i
	}
	return dups
}

// DetectCrossDate groups entries across all logs by project ID and subject and
// returns the groups seen more than once, in order of first appearance.
func DetectCrossDate(logs []model.DailyLog) []model.CrossDateDuplicate {
	index := make(map[string]int)
	var groups []model.CrossDateDuplicate

	for _, log := range logs {
		for _, e := range log.Entries {
			key := strconv.Itoa(e.ProjectID) + "|" + normalize(e.Subject)
			i, ok := index[key]
			if !ok {
				i = len(groups)
				index[key] = i
				groups = append(groups, model.CrossDateDuplicate{
					Project: e.Project,
					Subject: e.Subject,
				})
			}
			groups[i].Dates = append(groups[i].Dates, model.DateHours{Date: log.Date, Hours: e.DurationHours})
			groups[i].TotalHours += e.DurationHours
		}
	}

	out := []model.CrossDateDuplicate{}
	for _, g := range groups {
		if len(g.Dates) > 1 {
			out = append(out, g)
		}
	}
	return out
}
