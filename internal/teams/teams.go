// Package teams resolves team keys to the user identifiers that belong to
// them. The directory is loaded once from YAML and is read-only afterwards.
package teams

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"printflow/internal/task"
)

// File models the on-disk teams.yaml schema.
type File struct {
	Teams map[string][]string `yaml:"teams"`
}

// Directory maps team keys to member ids.
type Directory struct {
	members map[task.Team][]string
}

// Default returns the built-in demo roster.
func Default() *Directory {
	return &Directory{members: map[task.Team][]string{
		task.TeamDesign:       {"design-1", "design-2"},
		task.TeamProduction:   {"production-1", "production-2"},
		task.TeamSales:        {"sales-1", "sales-2"},
		task.TeamSalesManager: {"sales-manager-1"},
		task.TeamManager:      {"manager-1"},
	}}
}

// New builds a directory from an explicit roster. Blank and repeated ids are
// dropped.
func New(roster map[task.Team][]string) *Directory {
	d := &Directory{members: make(map[task.Team][]string, len(roster))}
	for team, ids := range roster {
		d.members[team] = cleanMembers(ids)
	}
	return d
}

// Load reads a teams.yaml file.
func Load(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("teams: read %s: %w", path, err)
	}
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("teams: parse %s: %w", path, err)
	}
	roster := make(map[task.Team][]string, len(file.Teams))
	for key, ids := range file.Teams {
		team, ok := task.ParseTeam(key)
		if !ok {
			return nil, fmt.Errorf("teams: %s: unknown team %q", path, key)
		}
		roster[team] = append(roster[team], ids...)
	}
	return New(roster), nil
}

// LoadOrDefault loads path when set and falls back to Default otherwise.
func LoadOrDefault(path string) (*Directory, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	return Load(path)
}

// MembersOf returns the members of the team named by key. Unknown keys yield
// an empty slice.
func (d *Directory) MembersOf(key string) []string {
	team, ok := task.ParseTeam(key)
	if !ok || d == nil {
		return []string{}
	}
	return d.Members(team)
}

// Members returns a copy of the member list for team.
func (d *Directory) Members(team task.Team) []string {
	if d == nil {
		return []string{}
	}
	return append([]string{}, d.members[team]...)
}

// Marshal renders the directory as teams.yaml content with sorted keys.
func (d *Directory) Marshal() ([]byte, error) {
	file := File{Teams: make(map[string][]string, len(d.members))}
	keys := make([]string, 0, len(d.members))
	for team, ids := range d.members {
		file.Teams[string(team)] = ids
		keys = append(keys, string(team))
	}
	sort.Strings(keys)
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range keys {
		var value yaml.Node
		if err := value.Encode(file.Teams[key]); err != nil {
			return nil, fmt.Errorf("teams: encode %s: %w", key, err)
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, &value)
	}
	root := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Value: "teams"}, node,
	}}
	return yaml.Marshal(root)
}

func cleanMembers(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}
