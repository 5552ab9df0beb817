package auth

// Claims is what a validator learned about the caller of the benchmark API.
type Claims struct {
	Subject string
	Roles   []string
}

// HasRole reports whether the claims carry role.
func (c *Claims) HasRole(role string) bool {
	if c == nil {
		return false
	}
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Validator validates bearer tokens presented to the API.
type Validator interface {
	Validate(token string) (*Claims, error)
}
