package pipedecl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vkazantsev/flowcore/internal/ctxlog"
	"github.com/vkazantsev/flowcore/internal/pipeline"
	"github.com/vkazantsev/flowcore/internal/pipestep"
	"github.com/vkazantsev/flowcore/internal/retry"
	"github.com/vkazantsev/flowcore/internal/varset"
)

// Load parses every .hcl file under paths, resolves each step block's
// consumes/produces names against vars and its action name against
// actions, and builds one *pipeline.Pipeline per pipeline block. paths may
// be files or directories; directories are walked recursively.
func Load(ctx context.Context, vars *varset.Set, actions *ActionRegistry, paths ...string) ([]*pipeline.Pipeline, error) {
	log := ctxlog.FromContext(ctx)

	files, err := findHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	log.Debug("pipedecl: discovered manifest files", "count", len(files))

	byName := make(map[string]varset.AnyKey, len(vars.Keys()))
	for _, k := range vars.Keys() {
		byName[k.Name()] = k
	}

	parser := hclparse.NewParser()
	var decls []*pipelineDecl

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("pipedecl: parsing %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("pipedecl: decoding %s: %w", file, diags)
		}
		decls = append(decls, root.Pipelines...)
	}

	pipelines := make([]*pipeline.Pipeline, 0, len(decls))
	for _, decl := range decls {
		p, err := buildPipeline(decl, byName, actions)
		if err != nil {
			return nil, err
		}
		pipelines = append(pipelines, p)
	}

	log.Debug("pipedecl: manifest loading complete", "pipelines", len(pipelines))
	return pipelines, nil
}

func buildPipeline(decl *pipelineDecl, byName map[string]varset.AnyKey, actions *ActionRegistry) (*pipeline.Pipeline, error) {
	builder := pipeline.New(decl.ID)

	for _, sd := range decl.Steps {
		action, ok := actions.Lookup(sd.Action)
		if !ok {
			return nil, &UnknownAction{Step: sd.Name, Action: sd.Action}
		}

		consumes, err := resolveKeys(sd.Name, sd.Consumes, byName)
		if err != nil {
			return nil, err
		}
		produces, err := resolveKeys(sd.Name, sd.Produces, byName)
		if err != nil {
			return nil, err
		}

		step := pipestep.New(sd.Name).
			Consumes(consumes...).
			Produces(produces...).
			Execute(action).
			Build()
		builder.Step(step)
	}

	if decl.RetryPolicy != nil {
		builder.RetryPolicy(translateRetryPolicy(decl.RetryPolicy))
	}

	return builder.Build()
}

func resolveKeys(step string, names []string, byName map[string]varset.AnyKey) ([]varset.AnyKey, error) {
	out := make([]varset.AnyKey, 0, len(names))
	for _, name := range names {
		k, ok := byName[name]
		if !ok {
			return nil, &UnknownKey{Step: step, Key: name}
		}
		out = append(out, k)
	}
	return out, nil
}

// translateRetryPolicy has no way to carry a Go Filter closure through
// HCL, so a manifest-declared policy always retries every failure; a
// caller needing a selective filter builds the retry.Policy in Go instead.
func translateRetryPolicy(d *retryDecl) *retry.Policy {
	multiplier := d.BackoffMultiplier
	if multiplier <= 0 {
		multiplier = 1
	}
	return &retry.Policy{
		MaxAttempts:       d.MaxAttempts,
		InitialDelay:      time.Duration(d.InitialDelayMs) * time.Millisecond,
		BackoffMultiplier: multiplier,
	}
}

func findHCLFiles(paths []string) ([]string, error) {
	var files []string
	seen := map[string]bool{}

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("pipedecl: accessing %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}

		err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && filepath.Ext(p) == ".hcl" {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
