package tgenmm

// graphml.go reads a model written in GraphML.  Only the subset a traffic
// model needs is supported: typed <key> declarations with optional defaults,
// and the nodes, edges and <data> of the first (directed) graph in the file.
//
// As with the usual GraphML readers, a declared attribute that a node or edge
// does not supply takes the key's default, or else the empty string (string
// keys) or NaN (numeric keys).  The GraphML id of a node becomes its 'id'
// attribute unless a node key named 'id' supplies a value.

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

type gmlDoc struct {
	XMLName xml.Name   `xml:"graphml"`
	Keys    []gmlKey   `xml:"key"`
	Graphs  []gmlGraph `xml:"graph"`
}

type gmlKey struct {
	ID      string  `xml:"id,attr"`
	For     string  `xml:"for,attr"`
	Name    string  `xml:"attr.name,attr"`
	Type    string  `xml:"attr.type,attr"`
	Default *string `xml:"default"`
}

type gmlGraph struct {
	ID          string    `xml:"id,attr"`
	EdgeDefault string    `xml:"edgedefault,attr"`
	Nodes       []gmlNode `xml:"node"`
	Edges       []gmlEdge `xml:"edge"`
}

type gmlNode struct {
	ID   string    `xml:"id,attr"`
	Data []gmlData `xml:"data"`
}

type gmlEdge struct {
	ID     string    `xml:"id,attr"`
	Source string    `xml:"source,attr"`
	Target string    `xml:"target,attr"`
	Data   []gmlData `xml:"data"`
}

type gmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// attrDecl is a key resolved to the attribute it declares
type attrDecl struct {
	name    string
	numeric bool
	boolean bool
	dflt    *Attr
}

func (ad *attrDecl) parse(raw string) (Attr, error) {
	value := strings.TrimSpace(raw)
	switch {
	case ad.boolean:
		switch strings.ToLower(value) {
		case "true", "1":
			return NumAttr(1), nil
		case "false", "0", "":
			return NumAttr(0), nil
		}
		return Attr{}, fmt.Errorf("attribute '%s': '%s' is not a boolean", ad.name, value)
	case ad.numeric:
		if len(value) == 0 {
			return NumAttr(math.NaN()), nil
		}
		num, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return Attr{}, fmt.Errorf("attribute '%s': '%s' is not a number", ad.name, value)
		}
		return NumAttr(num), nil
	}
	return StrAttr(value), nil
}

// missing is the value an element gets when it does not mention the attribute
func (ad *attrDecl) missing() Attr {
	if ad.dflt != nil {
		return *ad.dflt
	}
	if ad.numeric || ad.boolean {
		return NumAttr(math.NaN())
	}
	return StrAttr("")
}

func declareKey(key gmlKey) (*attrDecl, error) {
	ad := &attrDecl{name: key.Name}
	if len(ad.name) == 0 {
		ad.name = key.ID
	}
	switch strings.ToLower(key.Type) {
	case "", "string":
	case "double", "float", "int", "long":
		ad.numeric = true
	case "boolean":
		ad.boolean = true
	default:
		return nil, fmt.Errorf("key '%s' has unsupported attr.type '%s'", key.ID, key.Type)
	}
	if key.Default != nil {
		dflt, err := ad.parse(*key.Default)
		if err != nil {
			return nil, fmt.Errorf("default of key '%s': %w", key.ID, err)
		}
		ad.dflt = &dflt
	}
	return ad, nil
}

// fillAttrs applies the declared keys to one node or edge
func fillAttrs(decls map[string]*attrDecl, order []string, data []gmlData, what string) (Attrs, error) {
	attrs := make(Attrs)
	for _, keyID := range order {
		attrs[decls[keyID].name] = decls[keyID].missing()
	}
	for _, datum := range data {
		decl, present := decls[datum.Key]
		if !present {
			return nil, fmt.Errorf("%s uses undeclared key '%s'", what, datum.Key)
		}
		attr, err := decl.parse(datum.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", what, err)
		}
		attrs[decl.name] = attr
	}
	return attrs, nil
}

// ReadGraphML parses a GraphML document into an AttributedGraph
func ReadGraphML(r io.Reader) (*AttributedGraph, error) {
	doc := gmlDoc{}
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &LoadError{Op: "parse", Err: err}
	}
	ag, err := doc.attributedGraph()
	if err != nil {
		return nil, &LoadError{Op: "parse", Err: err}
	}
	return ag, nil
}

func (doc *gmlDoc) attributedGraph() (*AttributedGraph, error) {
	if len(doc.Graphs) == 0 {
		return nil, fmt.Errorf("graphml document holds no graph")
	}
	gg := doc.Graphs[0]
	if strings.EqualFold(gg.EdgeDefault, "undirected") {
		return nil, fmt.Errorf("graph '%s' is undirected, a markov model must be directed", gg.ID)
	}

	nodeDecls := make(map[string]*attrDecl)
	edgeDecls := make(map[string]*attrDecl)
	nodeOrder := []string{}
	edgeOrder := []string{}
	for _, key := range doc.Keys {
		decl, err := declareKey(key)
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(key.For) {
		case "node":
			nodeDecls[key.ID] = decl
			nodeOrder = append(nodeOrder, key.ID)
		case "edge":
			edgeDecls[key.ID] = decl
			edgeOrder = append(edgeOrder, key.ID)
		case "all":
			nodeDecls[key.ID] = decl
			nodeOrder = append(nodeOrder, key.ID)
			edgeDecls[key.ID] = decl
			edgeOrder = append(edgeOrder, key.ID)
		}
	}

	ag := CreateAttributedGraph()
	vertexByNodeID := make(map[string]int)
	for _, node := range gg.Nodes {
		if len(node.ID) == 0 {
			return nil, fmt.Errorf("node %d has no id", len(ag.Vertices))
		}
		if _, present := vertexByNodeID[node.ID]; present {
			return nil, fmt.Errorf("duplicated node id '%s'", node.ID)
		}
		attrs, err := fillAttrs(nodeDecls, nodeOrder, node.Data, "node '"+node.ID+"'")
		if err != nil {
			return nil, err
		}
		// an 'id' data value wins over the GraphML node id
		if id, present := attrs[AttrID]; !present || (id.Kind == StringAttr && len(id.Str) == 0) {
			attrs[AttrID] = StrAttr(node.ID)
		}
		vertexByNodeID[node.ID] = ag.AddVertex(attrs)
	}

	for idx, edge := range gg.Edges {
		what := fmt.Sprintf("edge %d", idx)
		from, present := vertexByNodeID[edge.Source]
		if !present {
			return nil, fmt.Errorf("%s has unknown source node '%s'", what, edge.Source)
		}
		to, present := vertexByNodeID[edge.Target]
		if !present {
			return nil, fmt.Errorf("%s has unknown target node '%s'", what, edge.Target)
		}
		attrs, err := fillAttrs(edgeDecls, edgeOrder, edge.Data, what)
		if err != nil {
			return nil, err
		}
		if _, err := ag.AddEdge(from, to, attrs); err != nil {
			return nil, err
		}
	}
	return ag, nil
}
