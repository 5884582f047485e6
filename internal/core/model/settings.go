package model

// Settings is the body of POST /settings. Optional keys are omitted when
// empty; DisabledTeams is always sent, possibly as an empty list.
type Settings struct {
	Organization       string   `json:"organization"`
	OpenAIAPIKey       string   `json:"openai_api_key,omitempty"`
	CRMAPIURL          string   `json:"crm_api_url,omitempty"`
	CRMAPIKey          string   `json:"crm_api_key,omitempty"`
	EmailServiceAPIKey string   `json:"email_service_api_key,omitempty"`
	DisabledTeams      []string `json:"disabled_teams"`
}
