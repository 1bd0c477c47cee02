package tgenmm

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors, for use with errors.Is
var (
	// ErrGraphSource means the model file could not be found, read or parsed
	ErrGraphSource = errors.New("graph source failure")

	// ErrVertexValidation means at least one vertex broke the attribute schema
	ErrVertexValidation = errors.New("vertex validation failed")

	// ErrEdgeValidation means at least one edge broke the attribute schema
	ErrEdgeValidation = errors.New("edge validation failed")

	// ErrInvalidConfig means a run configuration failed its checks
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownModel means a cache release named a model it does not hold
	ErrUnknownModel = errors.New("model not held by cache")
)

// LoadError reports a failure of the graph supplier: the file is absent,
// unreadable, or malformed at the level of its serialization format.
type LoadError struct {
	// Op is the step that failed, e.g. "stat", "open", "parse"
	Op string

	// Path of the model file, if there is one
	Path string

	Err error
}

func (le *LoadError) Error() string {
	if len(le.Path) > 0 {
		return fmt.Sprintf("%s %s: %v", le.Op, le.Path, le.Err)
	}
	return fmt.Sprintf("%s: %v", le.Op, le.Err)
}

// Unwrap exposes both ErrGraphSource and the underlying cause
func (le *LoadError) Unwrap() []error {
	return []error{ErrGraphSource, le.Err}
}

// Problem is one violation found by the validator
type Problem struct {
	// Entity is "vertex" or "edge", or "graph" for whole-graph problems
	Entity string

	// Index of the offending vertex or edge, -1 for whole-graph problems
	Index int

	// Attr is the attribute that failed, if any
	Attr string

	Msg string
}

func (p Problem) String() string {
	if p.Index < 0 {
		return p.Msg
	}
	if len(p.Attr) > 0 {
		return fmt.Sprintf("%s %d [%s]: %s", p.Entity, p.Index, p.Attr, p.Msg)
	}
	return fmt.Sprintf("%s %d: %s", p.Entity, p.Index, p.Msg)
}

// validation stages
const (
	VertexStage = "vertex"
	EdgeStage   = "edge"
)

// ValidationError carries every problem found during one validation pass
type ValidationError struct {
	Stage    string
	Problems []Problem
}

func (ve *ValidationError) Error() string {
	msgs := make([]string, 0, len(ve.Problems))
	for _, p := range ve.Problems {
		msgs = append(msgs, p.String())
	}
	return fmt.Sprintf("%s validation failed with %d problem(s): %s",
		ve.Stage, len(ve.Problems), strings.Join(msgs, "; "))
}

func (ve *ValidationError) Unwrap() error {
	if ve.Stage == EdgeStage {
		return ErrEdgeValidation
	}
	return ErrVertexValidation
}

// ReportErrs gathers the non-nil errors of independent steps into one.
// nil is returned if every error is nil
func ReportErrs(errs []error) error {
	return errors.Join(errs...)
}
