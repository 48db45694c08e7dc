package config

import (
	"regexp"
	"strings"
)

var endpointRef = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// DetectEnvVar returns the variable an endpoint such as "${SEPOLIA_RPC_URL}"
// refers to. Endpoints with anything besides a single reference do not count.
func DetectEnvVar(endpoint string) (string, bool) {
	if m := endpointRef.FindStringSubmatch(endpoint); m != nil {
		return m[1], true
	}
	return "", false
}

// GenerateEnvVarName is the per-network RPC variable, e.g. base-sepolia -> BASE_SEPOLIA_RPC_URL
func GenerateEnvVarName(networkName string) string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(strings.ToUpper(networkName)) + "_RPC_URL"
}

// unresolvedEndpoint reports an endpoint that is empty or still holds a
// reference after expansion.
func unresolvedEndpoint(endpoint string) bool {
	return endpoint == "" || strings.Contains(endpoint, "${")
}
