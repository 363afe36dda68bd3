// ABOUTME: The generic raw API request tool covering integrations without a
// ABOUTME: dedicated action, with an input schema enumerating allowed targets.

package catalog

// ProxyToolName is the catalog name of the generic raw API request tool.
const ProxyToolName = "CALL_API_REQUEST"

const proxyToolDescription = `Call an API if no tool is available for an integration that matches the user's request. Always follow the following guidelines:
- Before using this tool, respond with a plan that outlines the requests that you will need to make to fulfill the user's goal.
- If you find that you need to make multiple requests to fulfill the user's goal, you can use this tool multiple times.
- If there are errors, don't give up! Try to fix them by using the response to look at the error and adjust the request body accordingly.`

// proxyTool synthesizes the generic proxy tool. The integration enum is
// restricted to the (already filtered) active integrations.
func proxyTool(integrations []Integration) *Tool {
	names := make([]string, 0, len(integrations))
	for _, i := range integrations {
		names = append(names, i.Type)
	}

	return &Tool{
		Name:            ProxyToolName,
		Description:     proxyToolDescription,
		IntegrationName: "general",
		RequiredFields:  []string{"integration", "url", "httpMethod"},
		Kind:            KindProxy,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"integration": map[string]any{
					"type":        "string",
					"description": "The name of the integration to use for this request.",
					"enum":        names,
				},
				"url": map[string]any{
					"type":        "string",
					"description": "Use the full URL when specifying the `url` parameter, including the base URL. It should NEVER be a relative path - always a full URL.",
				},
				"httpMethod": map[string]any{
					"type": "string",
					"enum": []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
				},
				"queryParams": map[string]any{
					"type":                 "object",
					"additionalProperties": true,
				},
				"headers": map[string]any{
					"type": "object",
					"additionalProperties": map[string]any{
						"type": "string",
					},
					"description": "Do not include any Authorization headers.",
				},
				"body": map[string]any{
					"type":                 "object",
					"additionalProperties": true,
				},
			},
			"required":             []string{"integration", "url", "httpMethod"},
			"additionalProperties": false,
		},
	}
}
