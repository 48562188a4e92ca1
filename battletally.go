// Package battletally collects battle outcomes from a category-organized wiki
// and tallies them per group. It enumerates category members, extracts the
// result field from each page's infobox, and classifies the free text into a
// small outcome taxonomy.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, goquery/, ahocorasick/).
package battletally
