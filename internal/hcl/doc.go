// Package hcl loads flow definition files and translates them into a built
// flow graph. Parsing and decoding lean on hashicorp/hcl/v2; vertex
// arguments stay cty.Values until the operator decodes them.
package hcl
