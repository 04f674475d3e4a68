// Package hclstage reads and writes stage files. A stage file is an HCL
// document holding exactly one stage block:
//
//	stage "train" {
//	  cmd  = "python train.py"
//	  deps = ["data.csv"]
//	  outs = ["model.pkl"]
//
//	  checksums = {
//	    "data.csv" = "8d777f385d3dfec8815d20f7496026dc"
//	  }
//	}
//
// Expressions are evaluated against a context exposing `repo.root`, so stage
// files can anchor paths at the repository root.
package hclstage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/restage/internal/ctxlog"
	"github.com/vk/restage/internal/stage"
)

// Loader parses stage files found under one repository root.
type Loader struct {
	root string
}

// NewLoader creates a stage file loader for the given repository root.
func NewLoader(root string) *Loader {
	return &Loader{root: root}
}

// fileRoot decodes the top-level blocks of a stage file.
type fileRoot struct {
	Stages []*stageBlock `hcl:"stage,block"`
}

// stageBlock mirrors one stage block on disk.
type stageBlock struct {
	Name      string            `hcl:"name,label"`
	Cmd       string            `hcl:"cmd"`
	Deps      []string          `hcl:"deps,optional"`
	Outs      []string          `hcl:"outs,optional"`
	Locked    bool              `hcl:"locked,optional"`
	Checksums map[string]string `hcl:"checksums,optional"`
}

// LoadFile parses a single stage file into a Stage. A file with zero or
// several stage blocks is rejected: the file path is the stage's identity.
func (l *Loader) LoadFile(ctx context.Context, path string) (*stage.Stage, error) {
	logger := ctxlog.FromContext(ctx)

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving stage file path %s: %w", path, err)
	}

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(abs)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse stage file %s: %w", path, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(hclFile.Body, l.evalContext(), &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode stage file %s: %w", path, diags)
	}

	if len(root.Stages) != 1 {
		return nil, fmt.Errorf("stage file %s must contain exactly one stage block, found %d", path, len(root.Stages))
	}
	block := root.Stages[0]

	rel, err := filepath.Rel(l.root, abs)
	if err != nil {
		return nil, fmt.Errorf("stage file %s is outside the repository root %s: %w", path, l.root, err)
	}

	st := &stage.Stage{
		Path:      abs,
		Relpath:   filepath.ToSlash(rel),
		Name:      block.Name,
		Cmd:       block.Cmd,
		Deps:      block.Deps,
		Outs:      block.Outs,
		Locked:    block.Locked,
		Checksums: block.Checksums,
	}
	logger.Debug("Stage file loaded.", "stage", st.Relpath, "deps", len(st.Deps), "outs", len(st.Outs))
	return st, nil
}

// evalContext exposes repository variables to stage file expressions.
func (l *Loader) evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"repo": cty.ObjectVal(map[string]cty.Value{
				"root": cty.StringVal(filepath.ToSlash(l.root)),
			}),
		},
	}
}
