package api

// Contract describes the endpoint family of one backend deployment.
type Contract struct {
	// Name identifies the contract in configuration and logs.
	Name string

	// LoginPath and SignupPath are resolved against the base URL.
	LoginPath  string
	SignupPath string

	// LogoutPath is empty when the deployment has no logout endpoint.
	LogoutPath string

	// ChatbotsPath lists chatbots.
	ChatbotsPath string

	// UsernameField is the JSON field that carries the user name.
	UsernameField string

	// Roles reports whether the deployment returns roles and accepts one at signup.
	Roles bool
}

var (
	// Prefixed is the deployment mounted under /api with /auth endpoints and roles.
	Prefixed = Contract{
		Name:          "prefixed",
		LoginPath:     "/auth/login",
		SignupPath:    "/auth/register",
		LogoutPath:    "/auth/logout",
		ChatbotsPath:  "/chatbots",
		UsernameField: "username",
		Roles:         true,
	}

	// Legacy is the flat deployment whose field names are passed through verbatim.
	Legacy = Contract{
		Name:          "legacy",
		LoginPath:     "/login",
		SignupPath:    "/signup",
		ChatbotsPath:  "/chatbots",
		UsernameField: "nombre_usuario",
	}
)

// ContractFor returns the contract named by variant, defaulting to Prefixed.
func ContractFor(variant string) Contract {
	if variant == Legacy.Name {
		return Legacy
	}
	return Prefixed
}
