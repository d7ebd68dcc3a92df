package models

// JWTClaims represents the structure of the JWT token claims.
// Tokens are verified by the identity provider in front of the API.
type JWTClaims struct {
	JTI               string      `json:"jti"`
	Exp               int64       `json:"exp"`
	NBF               int64       `json:"nbf"`
	IAT               int64       `json:"iat"`
	ISS               string      `json:"iss"`
	AUD               interface{} `json:"aud"`
	SUB               string      `json:"sub"`
	AZP               string      `json:"azp"`
	SID               string      `json:"sid"`
	Email             string      `json:"email"`
	EmailVerified     bool        `json:"email_verified"`
	PhoneNumber       string      `json:"phone_number"`
	Name              string      `json:"name"`
	PreferredUsername string      `json:"preferred_username"`
}

// GetAudiences normalizes the aud claim, which may be a string or a list
func (c *JWTClaims) GetAudiences() []string {
	switch aud := c.AUD.(type) {
	case string:
		if aud == "" {
			return []string{}
		}
		return []string{aud}
	case []string:
		return aud
	case []interface{}:
		out := make([]string, 0, len(aud))
		for _, v := range aud {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

// IsExpired reports whether exp is set and not after now (unix seconds)
func (c *JWTClaims) IsExpired(now int64) bool {
	return c.Exp != 0 && c.Exp <= now
}
