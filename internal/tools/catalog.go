// File: internal/tools/catalog.go
package tools

import "github.com/webpilot-ai/webpilot/api/schemas"

// ToolDone is the reserved completion signal. The agent loop intercepts it
// before dispatch because it changes control flow, not just data.
const ToolDone = "done"

// catalog holds every action the model may invoke, in declaration order.
// The order is stable for the process lifetime: it is the order schemas are
// advertised to providers and the order `webpilot tools` documents them.
var catalog = []schemas.ToolSchema{
	{
		Name:        "navigate",
		Description: "Navigate the browser to a URL.",
		Parameters: []schemas.ParamSpec{
			{Name: "url", Type: schemas.TypeString, Required: true, Description: "The URL to navigate to."},
		},
	},
	{
		Name:        "click",
		Description: "Click on an element identified by a CSS selector or visible text.",
		Parameters: []schemas.ParamSpec{
			{Name: "selector", Type: schemas.TypeString, Required: true, Description: "CSS selector or visible text of the element to click."},
		},
	},
	{
		Name:        "type",
		Description: "Type text into an input field identified by a CSS selector.",
		Parameters: []schemas.ParamSpec{
			{Name: "selector", Type: schemas.TypeString, Required: true, Description: "CSS selector of the input element."},
			{Name: "text", Type: schemas.TypeString, Required: true, Description: "Text to type."},
		},
	},
	{
		Name:        "scroll",
		Description: "Scroll the page up or down.",
		Parameters: []schemas.ParamSpec{
			{Name: "direction", Type: schemas.TypeString, Required: true, Description: "Scroll direction.", Enum: []string{"up", "down"}},
			{Name: "amount", Type: schemas.TypeInteger, Required: false, Description: "Number of pixels to scroll (default 500).", Default: 500},
		},
	},
	{
		Name:        "wait_for",
		Description: "Wait for an element matching a CSS selector to appear on the page.",
		Parameters: []schemas.ParamSpec{
			{Name: "selector", Type: schemas.TypeString, Required: true, Description: "CSS selector to wait for."},
			{Name: "timeout", Type: schemas.TypeInteger, Required: false, Description: "Maximum wait time in milliseconds (default 10000).", Default: 10000},
		},
	},
	{
		Name: "screenshot",
		Description: "Capture a screenshot of the current page. " +
			"Returns a base64-encoded PNG image so you can see the page state.",
		Parameters: []schemas.ParamSpec{},
	},
	{
		Name:        "get_page_content",
		Description: "Return the simplified text content of the current page (title + visible text).",
		Parameters:  []schemas.ParamSpec{},
	},
	{
		Name:        "extract",
		Description: "Extract specific information from the current page based on a description.",
		Parameters: []schemas.ParamSpec{
			{Name: "description", Type: schemas.TypeString, Required: true, Description: "Description of what to extract (e.g. 'all product names and prices')."},
		},
	},
	{
		Name: ToolDone,
		Description: "Signal that the task is complete. " +
			"Call this when you have finished all required actions and have a final answer.",
		Parameters: []schemas.ParamSpec{
			{Name: "result", Type: schemas.TypeString, Required: true, Description: "The final result or answer to return to the user."},
		},
	},
	{
		Name: "get_html",
		Description: "Return the raw HTML of the current page or a scoped element. " +
			"Use this before writing Playwright tests so you can inspect real " +
			"attributes (id, data-testid, aria-label, name) to build reliable locators.",
		Parameters: []schemas.ParamSpec{
			{Name: "selector", Type: schemas.TypeString, Required: false, Description: "Optional CSS selector to scope the HTML to one element."},
		},
	},
	{
		Name: "write_test",
		Description: "Write a Playwright test file to the generated tests directory. " +
			"Use after generating test code from the page HTML.",
		Parameters: []schemas.ParamSpec{
			{Name: "filename", Type: schemas.TypeString, Required: true, Description: "File name, e.g. 'test_login.py'."},
			{Name: "content", Type: schemas.TypeString, Required: true, Description: "Full test file content."},
		},
	},
	{
		Name: "list_skills",
		Description: "List the names of all available skill playbooks. " +
			"Call this to discover which skills exist before loading one.",
		Parameters: []schemas.ParamSpec{},
	},
	{
		Name: "read_skill",
		Description: "Read the contents of a named skill playbook. " +
			"Use the names returned by list_skills. " +
			"The playbook contains step-by-step guidance for completing common tasks.",
		Parameters: []schemas.ParamSpec{
			{Name: "name", Type: schemas.TypeString, Required: true, Description: "The skill name (without .md extension), e.g. 'google_search'."},
		},
	},
}

// byName indexes the catalog for validation lookups.
var byName = func() map[string]schemas.ToolSchema {
	m := make(map[string]schemas.ToolSchema, len(catalog))
	for _, t := range catalog {
		m[t.Name] = t
	}
	return m
}()

// Schemas returns the full catalog in declaration order. Callers must not
// mutate the returned slice; a copy is handed out to keep the catalog
// read-only after startup.
func Schemas() []schemas.ToolSchema {
	out := make([]schemas.ToolSchema, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the schema for name and whether it exists.
func Lookup(name string) (schemas.ToolSchema, bool) {
	t, ok := byName[name]
	return t, ok
}
