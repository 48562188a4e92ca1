package main

import (
	"github.com/fwojciec/battletally/yaml"
)

// Run executes the groups command.
func (c *GroupsCmd) Run(deps *Dependencies) error {
	groups, err := loadGroups(c.Config)
	if err != nil {
		return err
	}
	data, err := yaml.MarshalGroups(groups)
	if err != nil {
		return err
	}
	_, err = deps.Stdout.Write(data)
	return err
}
