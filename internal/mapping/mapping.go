// Package mapping resolves project and activity names to OpenProject IDs.
package mapping

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Resolver maps a name to its numeric identifier.
type Resolver interface {
	Resolve(name string) (int, bool)
}

// Table is a static name→ID lookup. With FoldCase set, names are matched
// case-insensitively.
type Table struct {
	ids      map[string]int
	names    map[string]string
	foldCase bool
}

// NewTable builds a Table from m.
func NewTable(m map[string]int, foldCase bool) *Table {
	t := &Table{
		ids:      make(map[string]int, len(m)),
		names:    make(map[string]string, len(m)),
		foldCase: foldCase,
	}
	for name, id := range m {
		k := t.key(name)
		t.ids[k] = id
		t.names[k] = name
	}
	return t
}

func (t *Table) key(name string) string {
	if t.foldCase {
		return strings.ToUpper(name)
	}
	return name
}

// Resolve returns the ID for name. IDs must be positive to count as resolved.
func (t *Table) Resolve(name string) (int, bool) {
	id, ok := t.ids[t.key(name)]
	return id, ok && id > 0
}

// Entry is one row of a Table.
type Entry struct {
	Name string
	ID   int
}

// Entries lists the table sorted by name.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.ids))
	for k, id := range t.ids {
		out = append(out, Entry{Name: t.names[k], ID: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// NameOf is the reverse lookup used when listing remote projects.
func (t *Table) NameOf(id int) (string, bool) {
	for k, v := range t.ids {
		if v == id {
			return t.names[k], true
		}
	}
	return "", false
}

// Tables bundles the project and activity lookups.
type Tables struct {
	Projects   *Table
	Activities *Table
}

// Default returns the built-in tables.
func Default() Tables {
	return Tables{
		Projects:   NewTable(defaultProjects, true),
		Activities: NewTable(defaultActivities, false),
	}
}

// file is the on-disk TOML layout:
//
//	[projects]
//	IDCOL = 64
//
//	[activities]
//	Support = 2
type file struct {
	Projects   map[string]int `toml:"projects"`
	Activities map[string]int `toml:"activities"`
}

// LoadFile reads tables from a TOML file. A section missing from the file
// falls back to the built-in table.
func LoadFile(path string) (Tables, error) {
	var f file
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return Tables{}, fmt.Errorf("reading mappings file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Tables{}, fmt.Errorf("mappings file %s: unknown keys %v", path, undecoded)
	}

	tables := Default()
	if md.IsDefined("projects") {
		tables.Projects = NewTable(f.Projects, true)
	}
	if md.IsDefined("activities") {
		tables.Activities = NewTable(f.Activities, false)
	}
	return tables, nil
}

// Load returns the tables from path, or the built-in ones when path is empty.
func Load(path string) (Tables, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

var defaultProjects = map[string]int{
	"BD-TICKET":                                             151,
	"COMMON-SLASH-LEARNING-AND-UPSKILLING":                  141,
	"COMMON-SLASH-RFS-AND-DEMO-SUPPORT":                     140,
	"COMMON-SLASH-RESEARCH-AND-DEVELOPMENT-R-AND-D":         138,
	"COMMON-SLASH-GENERAL-PURPOSE-AND-MEETINGS-HR-ACTIVITY": 132,
	"ELEARNING":                                             130,
	"INFO360-1":                                             129,
	"GENERAL-PROJECT-TASKS-MEETING-AND-SCRUM":               115,
	"ROBI-HR4U":                                             68,
	"JBL":                                                   67,
	"CBL":                                                   66,
	"SEBL":                                                  65,
	"IDCOL":                                                 64,
	"HRIS":                                                  63,
	"NEXT-GENERATION-PROVISING-SYSTEM-NGPS":                 41,
	"IOT-AND-FWA":                                           21,
}

var defaultActivities = map[string]int{
	"Development":    1,
	"Support":        2,
	"Meeting":        3,
	"Testing":        4,
	"Specification":  5,
	"Management":     6,
	"Change Request": 7,
	"Other":          8,
}
