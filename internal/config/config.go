package config

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultHorizonURL is the Stellar mainnet Horizon endpoint.
	DefaultHorizonURL = "https://horizon.stellar.org"

	// DefaultDatabaseURL is empty; must be provided via flag or environment.
	DefaultDatabaseURL = ""

	// TokenCode is the asset code of the review incentive token.
	TokenCode = "FOOD"

	// DefaultRateLimit is the default requests per minute per IP address.
	DefaultRateLimit = 100

	// DefaultPageLimit is the default number of items per page.
	DefaultPageLimit = 20

	// MaxPageLimit caps client supplied page sizes.
	MaxPageLimit = 100
)
