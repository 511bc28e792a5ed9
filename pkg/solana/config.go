package solana

import "strings"

type Environment string

const (
	EnvironmentLocal Environment = "http://127.0.0.1:8899"
	EnvironmentDev   Environment = "https://api.devnet.solana.com"
	EnvironmentTest  Environment = "https://api.testnet.solana.com"
	EnvironmentProd  Environment = "https://api.mainnet-beta.solana.com"
)

// EndpointFor maps a cluster moniker (localnet, devnet, testnet, mainnet) to
// its RPC endpoint. Any other value is assumed to already be an endpoint URL.
func EndpointFor(cluster string) string {
	switch strings.ToLower(cluster) {
	case "localnet", "local":
		return string(EnvironmentLocal)
	case "devnet", "dev":
		return string(EnvironmentDev)
	case "testnet", "test":
		return string(EnvironmentTest)
	case "mainnet", "mainnet-beta", "prod":
		return string(EnvironmentProd)
	default:
		return cluster
	}
}
