package auth

import "golang.org/x/oauth2/clientcredentials"

// Conf holds the client credentials used to call a protected scoring endpoint.
type Conf struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	AuthURL      string   `json:"auth_url"`
	Scopes       []string `json:"scopes"`
}

// Enabled reports whether credentials are configured.
func (c *Conf) Enabled() bool { return c != nil && c.AuthURL != "" }

func (c *Conf) toOauth2Config() clientcredentials.Config {
	return clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.AuthURL,
		Scopes:       c.Scopes,
	}
}
