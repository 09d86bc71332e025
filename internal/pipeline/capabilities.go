package pipeline

import "go-research-pipeline/internal/model"

// Capability ids of the built-in roles
const (
	CapResearch       = "research"
	CapAnalysis       = "analysis"
	CapStrategist     = "strategist"
	CapCoach          = "coach"
	CapPersona        = "persona"
	CapProductManager = "product_manager"
	CapArchitect      = "architect"
)

// BuiltinCapabilities returns the fixed capability list in declaration order.
func BuiltinCapabilities() []model.Capability {
	return []model.Capability{
		{
			ID:        CapResearch,
			Label:     "Competitive Research Analyst",
			Goal:      "List the competing services for the given product idea.",
			Backstory: "You are a professional who prioritizes fast, well-sourced research.",
			PromptTemplate: `Research the market for "{{.Topic}}". List the main competing services ` +
				`(up to {{.SearchLimit}}) and the current trends. Web search results, which may be in another language:

{{search}}`,
			ExpectedOutput: "A market overview, a list of key competitors (name and distinguishing features), and trends.",
			Mandatory:      true,
			UsesSearch:     true,
		},
		{
			ID:        CapAnalysis,
			Label:     "Business Analyst",
			Goal:      "Analyze the research and produce a structured competitor list.",
			Backstory: "You are a professional at organizing information.",
			PromptTemplate: `Using the research findings for "{{.Topic}}", analyze each competitor's strengths and weaknesses. ` +
				`At the very end, include a JSON list in a ` + "```json" + ` fenced block shaped like ` +
				`[{"name": "...", "url": "...", "features": "..."}].`,
			ExpectedOutput: `An analysis report followed by JSON data of the form [{"name": "...", "url": "...", "features": "..."}].`,
			DependsOn:      []string{CapResearch},
			Mandatory:      true,
		},
		{
			ID:        CapStrategist,
			Label:     "Strategy Consultant",
			Goal:      "Run a SWOT analysis on the research and propose concrete strategies.",
			Backstory: "You are an experienced MBA strategy consultant who reads market opportunities and threats sharply.",
			PromptTemplate: `Based on the research and the analysis list, perform a SWOT analysis (strengths, weaknesses, ` +
				`opportunities, threats) for "{{.Topic}}" and propose three concrete differentiation strategies.`,
			ExpectedOutput:   "A SWOT table in Markdown and a detailed report with three strategy proposals.",
			DependsOn:        []string{CapResearch, CapAnalysis},
			EnabledByDefault: true,
		},
		{
			ID:        CapCoach,
			Label:     "Lean Startup Coach",
			Goal:      "Turn the findings into an actionable first-month plan.",
			Backstory: "You are a mentor who has led many founders to success, guided by lean startup principles.",
			PromptTemplate: `Drawing on the research and analysis so far, write a "first month action plan" for launching ` +
				`"{{.Topic}}": define the MVP, list customer interview questions, and describe the first outreach approach.`,
			ExpectedOutput: "A week-by-week action list for one month and a list of hypotheses to validate.",
			DependsOn:      []string{CapResearch, CapAnalysis, CapStrategist},
		},
		{
			ID:        CapPersona,
			Label:     "Skeptical Target User",
			Goal:      "Give honest user-side feedback on whether you would use and pay for this.",
			Backstory: "You love new things but you are careful with money. Only your own benefit convinces you.",
			PromptTemplate: `You are a potential customer of "{{.Topic}}". Looking at the proposed service and the competitors, ` +
				`say frankly whether you would use it and whether you would pay for it. Name the good points and ` +
				`do not hold back on complaints or concerns.`,
			ExpectedOutput: "Candid user impressions, pros and cons, and whether you intend to use it.",
			DependsOn:      []string{CapResearch},
		},
		{
			ID:        CapProductManager,
			Label:     "Product Manager",
			Goal:      "Turn a vague idea into a buildable requirements document.",
			Backstory: "You are a specification professional who defines what to build without gaps.",
			PromptTemplate: `Write a detailed requirements document for "{{.Topic}}" containing:
1. User stories (who does what, with what result)
2. Functional requirements prioritized as Must/Want
3. The list of screens and what each one does`,
			ExpectedOutput: "A requirements document in Markdown.",
		},
		{
			ID:        CapArchitect,
			Label:     "Tech Lead",
			Goal:      "Choose a fitting stack and write the basic design from the requirements.",
			Backstory: "You are a full-stack engineer who balances delivery speed and maintainability for small teams.",
			PromptTemplate: `From the requirements document, write the basic design for building "{{.Topic}}":
1. Recommended stack (frontend, backend, database, infrastructure) and why
2. Database design (tables and relations as a mermaid ER diagram)
3. The main API endpoints`,
			ExpectedOutput: "A basic design document in Markdown including a mermaid ER diagram.",
			DependsOn:      []string{CapProductManager},
		},
	}
}

// Builtin returns the registry of built-in capabilities.
func Builtin() *Registry {
	r, err := NewRegistry(BuiltinCapabilities()...)
	if err != nil {
		panic("builtin capabilities: " + err.Error())
	}
	return r
}
