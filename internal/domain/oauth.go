package domain

// OAuthState is the single-use payload bound to an authorization attempt's
// state nonce. It is stored when the flow begins and consumed exactly once
// when the callback arrives.
type OAuthState struct {
	State    string `json:"state"`
	Shop     string `json:"shop"`
	TenantID string `json:"tenant_id"`
}
