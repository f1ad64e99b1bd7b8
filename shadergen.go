// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package shadergen generates host-side Go interfaces for GPU shaders.
//
// Given per-shader reflection data (pre-reflected JSON, or WGSL source
// reflected on the fly), it synthesizes host types whose in-memory layout
// is bit-for-bit compatible with the GPU's uniform- and storage-buffer
// expectations, and emits one Go module per shader plus a top-level atlas.
//
// A run is a single-pass batch: shaders are processed sequentially in file
// name order, sharing one type registry, and either every output is
// written or none is — partial output from a failed run never reaches the
// output directory.
package shadergen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/shadergen/gen"
	"github.com/gogpu/shadergen/layout"
	"github.com/gogpu/shadergen/manifest"
	"github.com/gogpu/shadergen/reflection"
	"github.com/gogpu/shadergen/wgslfront"
)

// Input file suffixes. A .reflect.json file carries a pre-reflected model;
// a .wgsl file is reflected and compiled here.
const (
	ReflectionSuffix = ".reflect.json"
	WGSLSuffix       = ".wgsl"
)

// DefaultPackage is the emitted package name when Config leaves it empty.
const DefaultPackage = "shaderatlas"

// Config configures one generator run.
type Config struct {
	// ShaderDir is scanned (non-recursively) for input files.
	ShaderDir string

	// OutDir receives the emitted Go sources and compiled SPIR-V.
	OutDir string

	// Package is the emitted package name. Defaults to DefaultPackage.
	Package string
}

// Run processes every shader under cfg.ShaderDir and writes the generated
// package to cfg.OutDir. The first fatal inconsistency (unsupported shape,
// type conflict, missing binding, malformed input) aborts the run before
// anything is written.
func Run(cfg Config) error {
	if cfg.Package == "" {
		cfg.Package = DefaultPackage
	}
	log := Logger()

	entries, err := os.ReadDir(cfg.ShaderDir)
	if err != nil {
		return fmt.Errorf("read shader dir: %w", err)
	}

	reg := layout.NewRegistry()
	syn := layout.NewSynthesizer(reg)

	type outFile struct {
		name string
		data []byte
	}
	var (
		outputs []outFile
		shaders []*gen.Shader
		seen    = make(map[string]string)
	)

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()

		var (
			model *reflection.Model
			spv   []byte
		)
		switch {
		case strings.HasSuffix(name, ReflectionSuffix):
			data, err := os.ReadFile(filepath.Join(cfg.ShaderDir, name))
			if err != nil {
				return fmt.Errorf("read %s: %w", name, err)
			}
			model, err = reflection.ParseModel(data)
			if err != nil {
				return fmt.Errorf("parse %s: %w", name, err)
			}

		case strings.HasSuffix(name, WGSLSuffix):
			src, err := os.ReadFile(filepath.Join(cfg.ShaderDir, name))
			if err != nil {
				return fmt.Errorf("read %s: %w", name, err)
			}
			res, err := wgslfront.Compile(name, string(src))
			if err != nil {
				return err
			}
			model, spv = res.Model, res.SPIRV

		default:
			continue
		}

		base := inputBase(name)
		if prev, dup := seen[base]; dup {
			return fmt.Errorf("shader %q: input %s collides with %s", base, name, prev)
		}
		seen[base] = name

		m, cls, err := manifest.Build(model, syn, reg)
		if err != nil {
			return fmt.Errorf("shader %s: %w", name, err)
		}

		s := &gen.Shader{
			Name:               base,
			SourceFileName:     model.SourceFileName,
			VertexEntryPoint:   model.VertexEntryPoint.Name,
			FragmentEntryPoint: model.FragmentEntryPoint.Name,
			Manifest:           m,
			Classification:     cls,
		}
		if spv != nil {
			s.SPVFile = base + ".spv"
			outputs = append(outputs, outFile{name: s.SPVFile, data: spv})
		}

		src, err := gen.EmitShader(cfg.Package, s)
		if err != nil {
			return fmt.Errorf("shader %s: %w", name, err)
		}
		outputs = append(outputs, outFile{name: base + ".go", data: src})
		shaders = append(shaders, s)

		log.Info("generated shader module",
			"shader", base,
			"draw", cls.Draw.String(),
			"resources", len(m.Entries))
	}
	if len(shaders) == 0 {
		return fmt.Errorf("no shader inputs (%s or %s) in %s", ReflectionSuffix, WGSLSuffix, cfg.ShaderDir)
	}

	for _, t := range reg.Types() {
		log.Debug("synthesized type",
			"name", t.Name,
			"rules", t.Kind.String(),
			"align", t.Alignment,
			"size", t.Size)
	}

	outputs = append(outputs,
		outFile{name: "types.go", data: gen.EmitTypes(cfg.Package, reg)},
		outFile{name: "atlas.go", data: gen.EmitAtlas(cfg.Package, shaders)},
	)

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, f := range outputs {
		if err := os.WriteFile(filepath.Join(cfg.OutDir, f.name), f.data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	log.Info("run complete", "shaders", len(shaders), "types", reg.Len(), "files", len(outputs))
	return nil
}

// inputBase strips the full extension chain: "koch_curve.reflect.json"
// becomes "koch_curve".
func inputBase(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}
