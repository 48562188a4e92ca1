package main

import (
	"fmt"

	"github.com/fwojciec/battletally/crawl"
)

// Run executes the members command.
func (c *MembersCmd) Run(deps *Dependencies) error {
	members := &crawl.MemberCrawler{Lister: deps.Lister, PageSize: c.PageSize}

	n := 0
	for title, err := range members.ListMembers(deps.Ctx, c.Category) {
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: listed %d pages before failure\n", n)
			return err
		}
		fmt.Fprintln(deps.Stdout, title)
		n++
	}
	return nil
}
