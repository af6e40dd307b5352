package graphcolor

import (
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var instanceLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

type instanceFile struct {
	NumVertices int           `@Int`
	NumEdges    int           `@Int`
	Edges       []*edgeRecord `@@*`
}

type edgeRecord struct {
	U int `@Int`
	V int `@Int`
}

var instanceParser = participle.MustBuild[instanceFile](
	participle.Lexer(instanceLexer),
	participle.Elide("Whitespace"),
)

// ParseFile reads a graph-colouring instance from path: first line
// "n_nodes n_edges", followed by n_edges lines of 1-indexed "u v" pairs.
// maxColors is not part of the file format and must be supplied separately.
func ParseFile(path string, maxColors int) (*Instance, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("graphcolor: %w", err)
	}
	return ParseString(string(source), maxColors)
}

// ParseString parses a graph-colouring instance from source text in the
// same format ParseFile reads from disk.
func ParseString(source string, maxColors int) (*Instance, error) {
	parsed, err := instanceParser.ParseString("", source)
	if err != nil {
		return nil, fmt.Errorf("graphcolor: malformed instance: %w", err)
	}
	if len(parsed.Edges) != parsed.NumEdges {
		return nil, fmt.Errorf("graphcolor: header declares %d edges but %d were given", parsed.NumEdges, len(parsed.Edges))
	}
	edges := make([]Edge, len(parsed.Edges))
	for i, e := range parsed.Edges {
		if e.U < 1 || e.U > parsed.NumVertices || e.V < 1 || e.V > parsed.NumVertices {
			return nil, fmt.Errorf("graphcolor: edge (%d,%d) references a vertex outside 1..%d", e.U, e.V, parsed.NumVertices)
		}
		edges[i] = Edge{U: e.U - 1, V: e.V - 1}
	}
	return NewInstance(parsed.NumVertices, edges, maxColors)
}
