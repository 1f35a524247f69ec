package entity

// Cluster names a Solana network.
type Cluster string

// Known clusters.
const (
	ClusterMainnet Cluster = "mainnet-beta"
	ClusterDevnet  Cluster = "devnet"
	ClusterTestnet Cluster = "testnet"
)

// AccountInfo is the part of on-chain account state the flows care about.
// A nil *AccountInfo means the account does not exist.
type AccountInfo struct {
	Owner      string
	Lamports   uint64
	Executable bool
}

// ExplorerTxURL links a transaction signature on the public explorer.
func ExplorerTxURL(signature string, cluster Cluster) string {
	url := "https://explorer.solana.com/tx/" + signature
	if cluster != "" && cluster != ClusterMainnet {
		url += "?cluster=" + string(cluster)
	}
	return url
}

// TruncateAddress shortens an address to its first and last four characters.
func TruncateAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:4] + "..." + address[len(address)-4:]
}
