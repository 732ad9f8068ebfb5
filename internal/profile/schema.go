package profile

const apiReferencePrompt = "Extract API documentation from this API reference page. " +
	"Return the page title, every section heading in document order, every documented endpoint " +
	"with its HTTP method, path and description, and the descriptive paragraphs and code samples in document order."

const narrativePrompt = "Extract documentation from this library reference page. " +
	"Return the module name and its description. If the page is organised into sections, return each section " +
	"with its title and content in document order; otherwise return the main heading and every documented function " +
	"with its signature, description and parameters (name and description)."

func stringProp() map[string]any { return map[string]any{"type": "string"} }

func arrayOf(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

func object(title string, props map[string]any) map[string]any {
	m := map[string]any{"type": "object", "properties": props}
	if title != "" {
		m["title"] = title
	}
	return m
}

func apiReferenceSchema() map[string]any {
	return object("API Reference Documentation", map[string]any{
		"title":    stringProp(),
		"headings": arrayOf(stringProp()),
		"endpoints": arrayOf(object("", map[string]any{
			"method":      stringProp(),
			"path":        stringProp(),
			"description": stringProp(),
		})),
		"content": arrayOf(stringProp()),
	})
}

func narrativeSchema() map[string]any {
	return object("Library Documentation", map[string]any{
		"module_name":        stringProp(),
		"title":              stringProp(),
		"module_description": stringProp(),
		"heading":            stringProp(),
		"description":        stringProp(),
		"sections": arrayOf(object("", map[string]any{
			"title":   stringProp(),
			"content": stringProp(),
		})),
		"functions": arrayOf(object("", map[string]any{
			"signature":   stringProp(),
			"description": stringProp(),
			"parameters": arrayOf(object("", map[string]any{
				"name":        stringProp(),
				"description": stringProp(),
			})),
		})),
	})
}
