// Package main is the entry point for syncgate: it evaluates proposed
// document writes against a declarative document-type catalogue, either to
// check the catalogue itself or to dry-run a write as a given principal.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/artpar/syncgate/adapters/memory"
	"github.com/artpar/syncgate/config"
	"github.com/artpar/syncgate/core/engine"
	"github.com/artpar/syncgate/domain/document"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	definitionsPath := flag.String("definitions", "syncgate.yaml", "Path to the document-type catalogue")
	validate := flag.Bool("validate", false, "Validate the catalogue and exit")
	docPath := flag.String("doc", "", "Path to the candidate document (JSON)")
	oldDocPath := flag.String("olddoc", "", "Path to the prior revision (JSON, optional)")
	user := flag.String("user", "", "Acting principal's username")
	channels := flag.String("channels", "", "Comma-separated channels the principal has access to")
	roles := flag.String("roles", "", "Comma-separated roles the principal holds")
	admin := flag.Bool("admin", false, "Evaluate as an administrative caller")
	untypedTombstones := flag.Bool("allow-untyped-tombstones", false,
		"Accept deletions of documents no type claims")
	logLevel := flag.String("log-level", "warn", "Log level (trace, debug, info, warn, error)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("syncgate %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	logger := newLogger(*logLevel)

	catalog, err := config.Load(*definitionsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Catalogue invalid: %v\n", err)
		os.Exit(2)
	}
	if problems := config.ValidateCatalog(catalog); len(problems) > 0 {
		fmt.Fprintf(os.Stderr, "Catalogue invalid:\n")
		for _, problem := range problems {
			fmt.Fprintf(os.Stderr, "  %s\n", problem)
		}
		os.Exit(2)
	}

	if *validate {
		fmt.Printf("Catalogue valid\n")
		fmt.Printf("  Document types: %d\n", len(catalog))
		os.Exit(0)
	}

	if *docPath == "" {
		fmt.Fprintln(os.Stderr, "either -validate or -doc is required")
		flag.Usage()
		os.Exit(2)
	}

	doc, err := readDocument(*docPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read document: %v\n", err)
		os.Exit(2)
	}
	var oldDoc document.Document
	if *oldDocPath != "" {
		if oldDoc, err = readDocument(*oldDocPath); err != nil {
			fmt.Fprintf(os.Stderr, "read prior revision: %v\n", err)
			os.Exit(2)
		}
	}

	host := &memory.Host{
		User:     *user,
		Channels: splitList(*channels),
		Roles:    splitList(*roles),
		Admin:    *admin,
	}

	opts := []engine.Option{engine.WithLogger(logger)}
	if *untypedTombstones {
		opts = append(opts, engine.AllowUntypedTombstones())
	}

	result, err := engine.New(catalog, opts...).Evaluate(doc, oldDoc, host)
	if err != nil {
		fmt.Printf("Write rejected: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Write accepted\n")
	if result.DocumentType != "" {
		fmt.Printf("  Document type: %s\n", result.DocumentType)
	}
	fmt.Printf("  Operation: %s\n", result.Operation)
	fmt.Printf("  Channels: %s\n", strings.Join(result.Channels, ", "))
	for _, grant := range result.AccessAssignments {
		fmt.Printf("  Grant: %s -> %s\n",
			strings.Join(grant.UsersAndRoles, ", "), strings.Join(grant.Channels, ", "))
	}
}

func newLogger(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(parsed).With().Timestamp().Logger()
}

func readDocument(path string) (document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc document.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
