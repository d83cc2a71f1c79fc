package analysis

import (
	"fmt"
	"strings"
)

const analysisPromptTmpl = `You are an intelligence analyst. Analyze the following news article for potential threats to field personnel safety and operations.

Article from %s:
%s

Analyze this article and extract any potential threat. Return your analysis in JSON format with the following structure:
` + "```json" + `
{
    "title": "Brief title describing the threat",
    "description": "Concise description of the threat (2-3 sentences)",
    "category": "One of: political_unrest, transport_disruption, weather_emergency, security_incident, economic_impact, health_emergency",
    "severity": "Numeric rating from 1-10 where 10 is most severe",
    "confidence_score": "Confidence in this analysis from 0.0 to 1.0",
    "relevance": "Relevance to field operations from 0-100",
    "status": "One of: active, monitoring, resolved",
    "country": "Country where the threat is occurring",
    "city": "City or region where the threat is occurring (if mentioned)"
}
` + "```" + `

If there is no significant threat in this article, return:
` + "```json" + `
{
    "title": "No significant threat detected",
    "description": "This article does not contain information about significant threats to field operations",
    "category": "security_incident",
    "severity": 1,
    "confidence_score": 0.9,
    "relevance": 10,
    "status": "resolved",
    "country": null,
    "city": null
}
` + "```" + `

Only return the JSON. Do not include any other text in your response.`

// analysisPrompt builds the threat-analysis prompt. The prompt declares the
// exact output schema and value ranges so the response can be parsed
// mechanically.
func analysisPrompt(text, sourceName string) string {
	return fmt.Sprintf(analysisPromptTmpl, sourceName, strings.TrimSpace(text))
}

const geolocationPromptTmpl = `Return the approximate latitude and longitude coordinates for %s.

Return only the coordinates in JSON format like this:
` + "```json" + `
{
    "latitude": 51.5074,
    "longitude": -0.1278
}
` + "```" + `

If you cannot determine the coordinates, return:
` + "```json" + `
{
    "latitude": null,
    "longitude": null
}
` + "```" + `

Only return the JSON. Do not include any other text in your response.`

// geolocationPrompt builds the coordinate-lookup prompt for a location.
func geolocationPrompt(location string) string {
	return fmt.Sprintf(geolocationPromptTmpl, location)
}
