package battletally

import "strings"

// Group is a named participant (e.g., a country) that owns an ordered list of
// wiki categories. Groups come from configuration and are never modified.
type Group struct {
	Name       string   `json:"name" yaml:"name"`
	Categories []string `json:"categories" yaml:"categories"`
}

// Validate returns an error if the group contains invalid fields.
func (g *Group) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return Errorf(EINVALID, "group name required")
	}
	if len(g.Categories) == 0 {
		return Errorf(EINVALID, "group %q has no categories", g.Name)
	}
	for _, c := range g.Categories {
		if strings.TrimSpace(c) == "" {
			return Errorf(EINVALID, "group %q has an empty category", g.Name)
		}
	}
	return nil
}

// ValidateGroups validates each group and rejects duplicate names.
func ValidateGroups(groups []Group) error {
	if len(groups) == 0 {
		return Errorf(EINVALID, "at least one group required")
	}
	seen := make(map[string]bool, len(groups))
	for i := range groups {
		if err := groups[i].Validate(); err != nil {
			return err
		}
		if seen[groups[i].Name] {
			return Errorf(EINVALID, "duplicate group %q", groups[i].Name)
		}
		seen[groups[i].Name] = true
	}
	return nil
}

// DefaultGroups returns the Scandinavian groups the tally was first built for.
func DefaultGroups() []Group {
	return []Group{
		{Name: "Sweden", Categories: []string{"Category:Battles_involving_Sweden"}},
		{Name: "Norway", Categories: []string{"Category:Battles_involving_Norway"}},
		{Name: "Denmark", Categories: []string{"Category:Battles_involving_Denmark"}},
	}
}
