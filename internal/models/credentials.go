package models

// PlatformCredentials is the venue-specific secret bundle. It is opaque to
// the router and consumed only by the matching adapter at construction time.
type PlatformCredentials struct {
	Platform      Platform       `json:"platform"`
	RPCURL        string         `json:"rpc_url,omitempty"`
	APIKey        string         `json:"api_key,omitempty"`
	Secret        string         `json:"secret,omitempty"`
	PrivateKey    string         `json:"private_key,omitempty"`
	Passphrase    string         `json:"passphrase,omitempty"`
	WalletAddress string         `json:"wallet_address,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}
