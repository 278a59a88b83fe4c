package output

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/marmos91/dittoacl/pkg/acl"
	"github.com/marmos91/dittoacl/pkg/job"
)

// TimeFormat is used for timestamps in tables.
const TimeFormat = "2006-01-02 15:04:05"

// ACLView renders the ACL of one path. JSON and YAML output carry the
// path next to the ACL fields.
type ACLView struct {
	Path    string `json:"path" yaml:"path"`
	acl.ACL `yaml:",inline"`
}

// Headers implements TableRenderer.
func (v ACLView) Headers() []string {
	return []string{"Path", "Owner", "Group", "Tag", "ID", "Type", "Perms", "Flags"}
}

// Rows implements TableRenderer.
func (v ACLView) Rows() [][]string {
	uid, gid := strconv.Itoa(v.UID), strconv.Itoa(v.GID)
	rows := make([][]string, 0, len(v.Entries))
	for _, r := range EntryRows(v.Entries) {
		rows = append(rows, append([]string{v.Path, uid, gid}, r...))
	}
	return rows
}

// GroupColumns implements Grouper: path, owner and group repeat per entry.
func (v ACLView) GroupColumns() int { return 3 }

// EmptyNote implements EmptyNoter.
func (v ACLView) EmptyNote() string { return v.Path + ": no entries" }

// EntriesView renders a bare entry list, e.g. a default ACL template.
type EntriesView []acl.ACE

// Headers implements TableRenderer.
func (v EntriesView) Headers() []string {
	return []string{"Tag", "ID", "Type", "Perms", "Flags"}
}

// Rows implements TableRenderer.
func (v EntriesView) Rows() [][]string {
	return EntryRows(v)
}

// EmptyNote implements EmptyNoter.
func (v EntriesView) EmptyNote() string { return "No entries" }

// EntryRows formats entries as tag, id, type, perms and flags columns.
func EntryRows(entries []acl.ACE) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		id := "-"
		if e.ID != nil {
			id = strconv.Itoa(*e.ID)
		}
		rows = append(rows, []string{string(e.Tag), id, string(e.Type), PermString(e.Perms), FlagString(e.Flags)})
	}
	return rows
}

// PermString prints a basic level as is and advanced bits joined by "|".
func PermString(p acl.PermSet) string {
	if p.IsBasic() {
		return string(p.Basic)
	}
	names := make([]string, 0, len(p.Bits))
	for perm, set := range p.Bits {
		if set {
			names = append(names, string(perm))
		}
	}
	return joinSorted(names)
}

// FlagString prints a basic level as is and advanced bits joined by "|".
func FlagString(f acl.FlagSet) string {
	if f.IsBasic() {
		return string(f.Basic)
	}
	names := make([]string, 0, len(f.Bits))
	for flag, set := range f.Bits {
		if set {
			names = append(names, string(flag))
		}
	}
	return joinSorted(names)
}

func joinSorted(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

// JobsView renders a job list.
type JobsView []*job.Job

// Headers implements TableRenderer.
func (v JobsView) Headers() []string {
	return []string{"ID", "Method", "Path", "State", "Progress", "Started", "Elapsed"}
}

// Rows implements TableRenderer.
func (v JobsView) Rows() [][]string {
	rows := make([][]string, 0, len(v))
	for _, j := range v {
		rows = append(rows, []string{
			j.ID,
			j.Method,
			orDash(j.Path),
			string(j.State),
			strconv.Itoa(j.Progress.Percent) + "%",
			j.StartedAt.Local().Format(TimeFormat),
			Elapsed(j.StartedAt, j.FinishedAt),
		})
	}
	return rows
}

// EmptyNote implements EmptyNoter.
func (v JobsView) EmptyNote() string { return "No jobs" }

// JobView renders one job with its progress history.
type JobView struct {
	job.Job `yaml:",inline"`
}

// Headers implements TableRenderer.
func (v JobView) Headers() []string {
	return []string{"Percent", "Time", "Description"}
}

// Rows implements TableRenderer.
func (v JobView) Rows() [][]string {
	rows := make([][]string, 0, len(v.History))
	for _, s := range v.History {
		rows = append(rows, []string{strconv.Itoa(s.Percent) + "%", s.Time.Local().Format(TimeFormat), s.Description})
	}
	return rows
}

// Summary returns key/value pairs describing the job.
func (v JobView) Summary() [][2]string {
	pairs := [][2]string{
		{"ID", v.ID},
		{"Method", v.Method},
		{"Path", orDash(v.Path)},
		{"State", string(v.State)},
		{"Started", v.StartedAt.Local().Format(TimeFormat)},
		{"Elapsed", Elapsed(v.StartedAt, v.FinishedAt)},
	}
	return append(pairs, [2]string{"Error", v.Error})
}

// Elapsed formats the run time of a job, measured to now while running.
func Elapsed(start time.Time, end *time.Time) string {
	stop := time.Now()
	if end != nil {
		stop = *end
	}
	return stop.Sub(start).Round(time.Millisecond).String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
