package llm

import "context"

// DemoMarker prefixes every demo completion
const DemoMarker = "(DEMO)"

// DemoGenerator echoes the user prompt behind the demo marker
type DemoGenerator struct{}

func (DemoGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	return DemoMarker + "\n\n" + p.User, nil
}

func (DemoGenerator) Model() string { return "demo" }
