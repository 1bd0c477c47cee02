package tgenmm

// desc.go gives a model file format alternative to GraphML: a GraphDesc lists
// vertices and edges as attribute maps and is serialized to json or yaml,
// selected by file extension.  It also holds LoadGraphFile, which picks the
// reader for a model file.

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// reserved keys of an edge description, naming the ids of its endpoints
const (
	DescSource = "source"
	DescTarget = "target"
)

// GraphDesc describes a traffic model graph.  Each vertex is a map of attribute
// name to value; each edge is the same plus 'source' and 'target', the ids of the
// vertices it connects.  String values become string attributes, numbers numeric ones.
type GraphDesc struct {
	Name     string           `json:"name" yaml:"name"`
	Vertices []map[string]any `json:"vertices" yaml:"vertices"`
	Edges    []map[string]any `json:"edges" yaml:"edges"`
}

// CreateGraphDesc is a constructor
func CreateGraphDesc(name string) *GraphDesc {
	gd := new(GraphDesc)
	gd.Name = name
	gd.Vertices = make([]map[string]any, 0)
	gd.Edges = make([]map[string]any, 0)
	return gd
}

// AddVertex appends a vertex description
func (gd *GraphDesc) AddVertex(attrs map[string]any) {
	gd.Vertices = append(gd.Vertices, attrs)
}

// AddEdge appends an edge description from the vertex with id source to the vertex with id target
func (gd *GraphDesc) AddEdge(source, target string, attrs map[string]any) {
	edge := make(map[string]any)
	for name, value := range attrs {
		edge[name] = value
	}
	edge[DescSource] = source
	edge[DescTarget] = target
	gd.Edges = append(gd.Edges, edge)
}

// WriteToFile stores the GraphDesc struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (gd *GraphDesc) WriteToFile(filename string) error {
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error

	switch {
	case isYAMLExt(pathExt):
		bytes, merr = yaml.Marshal(*gd)
	case isJSONExt(pathExt):
		bytes, merr = json.MarshalIndent(*gd, "", "\t")
	default:
		return fmt.Errorf("graph description file '%s' needs a .yaml, .yml or .json extension", filename)
	}
	if merr != nil {
		return merr
	}
	return os.WriteFile(filename, bytes, 0o644)
}

// ReadGraphDesc deserializes a byte slice holding a representation of a GraphDesc struct.
// If the input argument of dict (those bytes) is empty, the file whose name is given is read
// to acquire them.  A deserialized representation is returned, or an error if one is generated
// from a file read or the deserialization.
func ReadGraphDesc(filename string, useYAML bool, dict []byte) (*GraphDesc, error) {
	var err error

	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, &LoadError{Op: "read", Path: filename, Err: err}
		}
	}

	example := GraphDesc{}
	if useYAML {
		err = yaml.Unmarshal(dict, &example)
	} else {
		err = json.Unmarshal(dict, &example)
	}
	if err != nil {
		return nil, &LoadError{Op: "parse", Path: filename, Err: err}
	}
	return &example, nil
}

// AttributedGraph converts the description.  Edge endpoints are resolved against the
// 'id' values of the vertices, the first vertex with a given id winning.
func (gd *GraphDesc) AttributedGraph() (*AttributedGraph, error) {
	ag := CreateAttributedGraph()
	vertexByID := make(map[string]int)

	for idx, vertex := range gd.Vertices {
		attrs, err := descAttrs(vertex, nil)
		if err != nil {
			return nil, &LoadError{Op: "convert", Err: fmt.Errorf("vertex %d: %w", idx, err)}
		}
		v := ag.AddVertex(attrs)
		if id, ok := ag.VertexString(v, AttrID); ok {
			if _, present := vertexByID[id]; !present {
				vertexByID[id] = v
			}
		}
	}

	for idx, edge := range gd.Edges {
		endpoints := [2]int{}
		for i, key := range []string{DescSource, DescTarget} {
			ref, ok := edge[key].(string)
			if !ok {
				return nil, &LoadError{Op: "convert", Err: fmt.Errorf("edge %d: '%s' must name a vertex id", idx, key)}
			}
			v, present := vertexByID[ref]
			if !present {
				return nil, &LoadError{Op: "convert", Err: fmt.Errorf("edge %d: no vertex has id '%s'", idx, ref)}
			}
			endpoints[i] = v
		}

		attrs, err := descAttrs(edge, []string{DescSource, DescTarget})
		if err != nil {
			return nil, &LoadError{Op: "convert", Err: fmt.Errorf("edge %d: %w", idx, err)}
		}
		if _, err := ag.AddEdge(endpoints[0], endpoints[1], attrs); err != nil {
			return nil, &LoadError{Op: "convert", Err: err}
		}
	}
	return ag, nil
}

// descAttrs converts a decoded attribute map, skipping the reserved names and nil values
func descAttrs(desc map[string]any, reserved []string) (Attrs, error) {
	attrs := make(Attrs)
	for name, value := range desc {
		skip := false
		for _, r := range reserved {
			if name == r {
				skip = true
			}
		}
		if skip || value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			attrs[name] = StrAttr(v)
		case float64:
			attrs[name] = NumAttr(v)
		case int:
			attrs[name] = NumAttr(float64(v))
		case int64:
			attrs[name] = NumAttr(float64(v))
		case uint64:
			attrs[name] = NumAttr(float64(v))
		case bool:
			if v {
				attrs[name] = NumAttr(1)
			} else {
				attrs[name] = NumAttr(0)
			}
		default:
			return nil, fmt.Errorf("attribute '%s' has unsupported value %v", name, value)
		}
	}
	return attrs, nil
}

func isYAMLExt(ext string) bool {
	ext = strings.ToLower(ext)
	return ext == ".yaml" || ext == ".yml"
}

func isJSONExt(ext string) bool {
	return strings.ToLower(ext) == ".json"
}

// LoadGraphFile reads the model file at modelPath.  Files ending in .yaml, .yml or
// .json are read as a GraphDesc, anything else as GraphML.
func LoadGraphFile(modelPath string) (*AttributedGraph, error) {
	if len(modelPath) == 0 {
		return nil, &LoadError{Op: "load", Err: errors.New("model path is empty")}
	}

	info, err := os.Stat(modelPath)
	if err != nil {
		return nil, &LoadError{Op: "stat", Path: modelPath, Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &LoadError{Op: "stat", Path: modelPath, Err: errors.New("not a regular file")}
	}

	ext := path.Ext(modelPath)
	if isYAMLExt(ext) || isJSONExt(ext) {
		gd, err := ReadGraphDesc(modelPath, isYAMLExt(ext), nil)
		if err != nil {
			return nil, err
		}
		return gd.AttributedGraph()
	}

	f, err := os.Open(modelPath)
	if err != nil {
		return nil, &LoadError{Op: "open", Path: modelPath, Err: err}
	}
	defer f.Close()

	ag, err := ReadGraphML(f)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = modelPath
		}
		return nil, err
	}
	return ag, nil
}
