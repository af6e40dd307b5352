package tsp

import (
	"fmt"
	"math"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// numberLexer tokenizes the numeric body of a TSP instance file: a leading
// city count, then either a full n×n distance matrix or n pairs of
// coordinates.
var numberLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `-?[0-9]+(\.[0-9]+)?`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

type numberFile struct {
	N    int       `@Number`
	Rest []float64 `@Number*`
}

var numberParser = participle.MustBuild[numberFile](
	participle.Lexer(numberLexer),
	participle.Elide("Whitespace"),
)

// ParseFile reads a TSP instance from path, accepting either a distance
// matrix ("n" then n lines of n entries) or a coordinate list ("n" then n
// lines of "x y", converted to a Euclidean distance matrix).
func ParseFile(path string) (*Instance, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tsp: %w", err)
	}
	return ParseString(string(source))
}

// ParseString parses a TSP instance from source text in the same format
// ParseFile reads from disk.
func ParseString(source string) (*Instance, error) {
	parsed, err := numberParser.ParseString("", source)
	if err != nil {
		return nil, fmt.Errorf("tsp: malformed instance: %w", err)
	}
	n := parsed.N
	switch len(parsed.Rest) {
	case n * n:
		distances := make([][]int64, n)
		for i := 0; i < n; i++ {
			distances[i] = make([]int64, n)
			for j := 0; j < n; j++ {
				distances[i][j] = int64(parsed.Rest[i*n+j])
			}
		}
		return NewInstance(distances)
	case n * 2:
		xs := make([]float64, n)
		ys := make([]float64, n)
		for i := 0; i < n; i++ {
			xs[i] = parsed.Rest[2*i]
			ys[i] = parsed.Rest[2*i+1]
		}
		distances := make([][]int64, n)
		for i := 0; i < n; i++ {
			distances[i] = make([]int64, n)
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				dx, dy := xs[i]-xs[j], ys[i]-ys[j]
				distances[i][j] = int64(math.Round(math.Sqrt(dx*dx + dy*dy)))
			}
		}
		return NewInstance(distances)
	default:
		return nil, fmt.Errorf("tsp: %d numbers after header does not match an %d×%d matrix or %d coordinate pairs", len(parsed.Rest), n, n, n)
	}
}
