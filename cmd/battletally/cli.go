package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/battletally"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx        context.Context
	Stdout     io.Writer
	Stderr     io.Writer
	Logger     *slog.Logger
	Format     string
	Lister     battletally.MemberLister
	Fetcher    battletally.DocumentFetcher
	Extractor  battletally.FieldExtractor
	Classifier battletally.Classifier
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Endpoint  string        `default:"https://en.wikipedia.org/w/api.php" env:"BATTLETALLY_ENDPOINT" help:"MediaWiki api.php URL"`
	UserAgent string        `name:"user-agent" env:"BATTLETALLY_USER_AGENT" help:"User-Agent sent to the API"`
	Format    string        `default:"wikitext" enum:"wikitext,html" env:"BATTLETALLY_FORMAT" help:"Page representation to parse (wikitext, html)"`
	Timeout   time.Duration `default:"30s" env:"BATTLETALLY_TIMEOUT" help:"Per-request timeout"`
	Retries   int           `default:"0" env:"BATTLETALLY_RETRIES" help:"Transport retries on 429, 5xx and connection errors"`
	RPS       float64       `name:"rps" default:"0" env:"BATTLETALLY_RPS" help:"Requests per second to the API host (0 = unlimited)"`
	LogLevel  string        `default:"info" env:"BATTLETALLY_LOG_LEVEL" help:"Log level (debug, info, warn, error)"`

	Collect CollectCmd `cmd:"" help:"Collect outcomes for every group and write the CSV reports"`
	Members MembersCmd `cmd:"" help:"List the pages of a category"`
	Extract ExtractCmd `cmd:"" help:"Extract and classify the outcome of a single page"`
	Groups  GroupsCmd  `cmd:"" help:"Print the group configuration as YAML"`
	Runs    RunsCmd    `cmd:"" help:"List runs stored in a database"`
	Report  ReportCmd  `cmd:"" help:"Print the tables of a stored run"`
	Version VersionCmd `cmd:"" help:"Print the version"`
}

// CollectCmd is the "collect" subcommand.
type CollectCmd struct {
	Config      string        `short:"c" type:"existingfile" env:"BATTLETALLY_CONFIG" help:"Groups YAML file (default: built-in groups)"`
	OutDir      string        `short:"o" default:"." type:"path" env:"BATTLETALLY_OUT_DIR" help:"Directory for the CSV reports"`
	Field       string        `default:"result" help:"Infobox field to classify"`
	BaseURL     string        `name:"base-url" default:"https://en.wikipedia.org/wiki/" help:"Prefix for source URLs"`
	Concurrency int           `short:"j" default:"8" help:"Concurrent page fetches per category"`
	PageSize    int           `default:"500" help:"Category members requested per page"`
	Dedupe      bool          `help:"Drop repeated titles within a group"`
	DB          string        `name:"db" type:"path" env:"BATTLETALLY_DB" help:"SQLite database to store the run in"`
	Cache       bool          `help:"Cache fetched pages in the --db database"`
	CacheMaxAge time.Duration `default:"0s" help:"Refetch cached pages older than this (0 = never)"`
}

// MembersCmd is the "members" subcommand.
type MembersCmd struct {
	Category string `arg:"" help:"Category identifier, e.g. Category:Battles_involving_Sweden"`
	PageSize int    `default:"500" help:"Category members requested per page"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	Title string `arg:"" help:"Page title"`
	Field string `default:"result" help:"Infobox field to classify"`
}

// GroupsCmd is the "groups" subcommand.
type GroupsCmd struct {
	Config string `short:"c" type:"existingfile" env:"BATTLETALLY_CONFIG" help:"Groups YAML file (default: built-in groups)"`
}

// RunsCmd is the "runs" subcommand.
type RunsCmd struct {
	DB    string `name:"db" required:"" type:"existingfile" env:"BATTLETALLY_DB" help:"SQLite database written by collect --db"`
	Limit int    `short:"n" default:"20" help:"Maximum number of runs to list (0 = all)"`
}

// ReportCmd is the "report" subcommand.
type ReportCmd struct {
	RunID   string `arg:"" help:"Run ID as printed by runs"`
	DB      string `name:"db" required:"" type:"existingfile" env:"BATTLETALLY_DB" help:"SQLite database written by collect --db"`
	Records bool   `short:"r" help:"Print every record instead of the win counts"`
}

// VersionCmd is the "version" subcommand.
type VersionCmd struct{}
