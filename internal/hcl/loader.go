package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/flowgridgo/internal/fsutil"
	"github.com/vk/flowgridgo/internal/schema"
)

// Load parses every .hcl file reachable from the given paths and merges the
// results into a single FlowConfig. Vertex blocks accumulate across files;
// at most one file may carry the top-level flow block.
func Load(paths ...string) (*schema.FlowConfig, error) {
	var files []string
	for _, path := range paths {
		found, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("scanning %q: %w", path, err)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found under %v", paths)
	}

	parser := hclparse.NewParser()
	merged := &schema.FlowConfig{}
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parsing %q: %w", file, diags)
		}
		var cfg schema.FlowConfig
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &cfg); diags.HasErrors() {
			return nil, fmt.Errorf("decoding %q: %w", file, diags)
		}
		if cfg.Flow != nil {
			if merged.Flow != nil {
				return nil, fmt.Errorf("duplicate flow block in %q", file)
			}
			merged.Flow = cfg.Flow
		}
		merged.Vertexes = append(merged.Vertexes, cfg.Vertexes...)
	}
	return merged, nil
}

// ParseConfig decodes one in-memory flow definition, mainly for tests.
func ParseConfig(src []byte, filename string) (*schema.FlowConfig, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %q: %w", filename, diags)
	}
	var cfg schema.FlowConfig
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %q: %w", filename, diags)
	}
	return &cfg, nil
}
