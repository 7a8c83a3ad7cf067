// Package main provides the CLI entrypoint for staged-builder-generator.
//
// staged-builder-generator reads a YAML (or JSON) schema of record types and
// emits staged builders for them: one Go type per required field, chained in
// declaration order, with optional and collection setters on the terminal
// stage.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"staged-builder-generator/internal/gen"
	"staged-builder-generator/internal/resolve"
	"staged-builder-generator/internal/schema"
	"staged-builder-generator/internal/stage"
)

func main() {
	schemaPath := flag.String("schema", "builders.yaml", "path to the schema file (.yaml or .json)")
	outDir := flag.String("out", "./generated", "output directory for generated builders")
	watch := flag.Bool("watch", false, "watch the schema file and regenerate on change")
	debug := flag.Bool("debug", false, "dump construction plans before generating")
	verbose := flag.Bool("v", false, "verbose logging")
	noComments := flag.Bool("no-comments", false, "omit explanatory comments from generated code")

	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()

	cfg := gen.GeneratorConfig{
		OutputDir:        *outDir,
		GenerateComments: !*noComments,
	}

	if err := run(logger, *schemaPath, cfg, *debug); err != nil {
		logger.Error().Err(err).Msg("generation failed")

		if !*watch {
			os.Exit(1)
		}
	}

	if !*watch {
		return
	}

	if err := watchSchema(logger, *schemaPath, cfg, *debug); err != nil {
		logger.Error().Err(err).Msg("watch failed")
		os.Exit(1)
	}
}

// run executes one full generation pass: load, resolve, sequence, emit,
// write.
func run(logger zerolog.Logger, schemaPath string, cfg gen.GeneratorConfig, debug bool) error {
	start := time.Now()

	file, err := schema.LoadFile(schemaPath)
	if err != nil {
		return err
	}

	resolved, err := resolve.NewResolver(file).Resolve()
	if err != nil {
		return err
	}

	for _, w := range resolved.Diagnostics.Warnings {
		logger.Warn().
			Str("struct", w.Struct).
			Str("field", w.Field).
			Str("code", w.Code).
			Msg(w.Message)
	}

	if resolved.Diagnostics.HasErrors() {
		for _, e := range resolved.Diagnostics.Errors {
			logger.Error().
				Str("struct", e.Struct).
				Str("field", e.Field).
				Str("code", e.Code).
				Msg(e.Message)
		}

		return fmt.Errorf("schema has %d error(s)", len(resolved.Diagnostics.Errors))
	}

	plans := make([]*stage.Plan, 0, len(resolved.Structs))
	for i := range resolved.Structs {
		p := stage.Sequence(&resolved.Structs[i])
		plans = append(plans, p)

		logger.Debug().
			Str("struct", p.Options.Name).
			Int("stages", len(p.Stages)).
			Int("optional", len(p.Terminal.Optional)).
			Msg("sequenced")
	}

	if debug {
		spew.Dump(plans)
	}

	files, err := gen.NewGenerator(cfg).Generate(plans)
	if err != nil {
		return err
	}

	if err := gen.WriteFiles(files, cfg.OutputDir); err != nil {
		return err
	}

	logger.Info().
		Int("structs", len(plans)).
		Int("files", len(files)).
		Dur("took", time.Since(start)).
		Msg("builders generated")

	return nil
}

// watchSchema regenerates on every write to the schema file. The parent
// directory is watched because editors often save atomically.
func watchSchema(logger zerolog.Logger, schemaPath string, cfg gen.GeneratorConfig, debug bool) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(schemaPath)); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}

	logger.Info().Str("path", schemaPath).Msg("watching schema for changes")

	filename := filepath.Base(schemaPath)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Base(event.Name) != filename {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			logger.Info().Str("event", event.Op.String()).Msg("schema changed, regenerating")

			if err := run(logger, schemaPath, cfg, debug); err != nil {
				logger.Error().Err(err).Msg("regeneration failed")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.Error().Err(err).Msg("watch error")
		}
	}
}
