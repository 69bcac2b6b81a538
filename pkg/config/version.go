package config

// Version constants for bridge configuration files.
const (
	// APIVersion is the Kubernetes-style API version for bridge configs.
	APIVersion = "cosyvoice.altairalabs.ai/v1alpha1"

	// KindBridgeConfig is the only supported resource kind.
	KindBridgeConfig = "BridgeConfig"
)
