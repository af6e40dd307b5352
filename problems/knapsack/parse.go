package knapsack

import (
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// instanceLexer tokenizes the whitespace-separated integer format knapsack
// instance files use: "n_items capacity" on the first line, then one
// "weight value" pair per item.
var instanceLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

type instanceFile struct {
	NItems   int           `@Int`
	Capacity int           `@Int`
	Items    []*itemRecord `@@*`
}

type itemRecord struct {
	Weight int `@Int`
	Value  int `@Int`
}

var instanceParser = participle.MustBuild[instanceFile](
	participle.Lexer(instanceLexer),
	participle.Elide("Whitespace"),
)

// ParseFile reads a knapsack instance from path: first line "n_items
// capacity", followed by n_items lines of "weight_i value_i".
func ParseFile(path string) (*Instance, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("knapsack: %w", err)
	}
	return ParseString(string(source))
}

// ParseString parses a knapsack instance from source text in the same
// format ParseFile reads from disk.
func ParseString(source string) (*Instance, error) {
	parsed, err := instanceParser.ParseString("", source)
	if err != nil {
		return nil, fmt.Errorf("knapsack: malformed instance: %w", err)
	}
	if len(parsed.Items) != parsed.NItems {
		return nil, fmt.Errorf("knapsack: header declares %d items but %d were given", parsed.NItems, len(parsed.Items))
	}
	weights := make([]int, parsed.NItems)
	values := make([]int, parsed.NItems)
	for i, it := range parsed.Items {
		weights[i] = it.Weight
		values[i] = it.Value
	}
	return NewInstance(weights, values, parsed.Capacity)
}
