package task

import "strings"

// Separator splits a composite tag into its project and task parts.
const Separator = "-"

// Tag identifies a task as <project> or <project>-<task>. Parsing splits
// at the first separator, so a project name containing the separator
// cannot be represented; the first separator always wins.
type Tag struct {
	Project string
	Task    string
}

// Parse builds a Tag from its string form.
func Parse(raw string) (Tag, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Tag{}, ErrInvalidTag
	}
	project, taskPart, _ := strings.Cut(raw, Separator)
	if project == "" {
		return Tag{}, ErrInvalidTag
	}
	return Tag{Project: project, Task: taskPart}, nil
}

func (t Tag) String() string {
	if t.Task == "" {
		return t.Project
	}
	return t.Project + Separator + t.Task
}

// IsProject reports whether the tag denotes a bare project.
func (t Tag) IsProject() bool {
	return t.Task == ""
}

// ParentProject returns the bare project tag.
func (t Tag) ParentProject() Tag {
	return Tag{Project: t.Project}
}

// ProjectView is a project with its visible child tasks.
type ProjectView struct {
	Project string   `json:"project"`
	Tasks   []string `json:"tasks,omitempty"`
}
