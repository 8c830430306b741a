package main

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/google/renameio/v2"

	"github.com/ardanlabs/gloo/config"
	"github.com/ardanlabs/gloo/generator"
	"github.com/ardanlabs/gloo/internal/logger"
	"github.com/ardanlabs/gloo/parser"
)

// generate parses the registry and renders the bindings in memory.
func generate(cfg *config.Config) (*generator.Result, error) {
	registry, err := parser.ParseFile(cfg.Input, parser.Options{API: cfg.API})
	if err != nil {
		return nil, err
	}

	logger.Logger.Infow("registry loaded",
		"input", cfg.Input,
		"groups", len(registry.Groups),
		"enums", registry.EnumCount(),
		"commands", len(registry.Commands))

	gen := generator.New(registry, generator.Options{
		Package:   cfg.Package,
		Version:   cfg.Version,
		Source:    cfg.Input,
		Filename:  filepath.Base(cfg.Output),
		ErrorFunc: cfg.ErrorFunc,
		BeginFunc: cfg.BeginFunc,
		EndFunc:   cfg.EndFunc,
		HostOS:    cfg.HostOS,
		Format:    cfg.Format,
	})

	res, err := gen.Generate()
	if err != nil {
		return nil, errors.Wrapf(err, "generating bindings from %s", cfg.Input)
	}

	logger.Logger.Infow("bindings generated",
		"constants", res.Constants,
		"commands", res.Commands,
		"struct_fallbacks", len(res.Fallbacks),
		"redefined", len(res.Redefined))

	return res, nil
}

// writeOutput replaces path with src in one rename, so an interrupted run
// leaves either the old file or the new one.
func writeOutput(path string, src []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}
	if err := renameio.WriteFile(path, src, 0644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}
