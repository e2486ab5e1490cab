// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// EndpointSecurityConfig maps HTTP route names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	"Health": SecurityPublic,

	"GetRental":     SecurityAccess,
	"ConfirmRental": SecurityAccess,
	"DenyRental":    SecurityAccess,
	"CancelRental":  SecurityAccess,
}

// GetSecurityLevel returns the level for a named route. Unknown routes
// require an access token.
func GetSecurityLevel(route string) SecurityLevel {
	if level, ok := EndpointSecurityConfig[route]; ok {
		return level
	}
	return SecurityAccess
}
