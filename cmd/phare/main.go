// Phare is an observability SDK for LLM agent applications.
//
// It traces agent runs, model calls, and tool calls, exports spans over
// authenticated OTLP, tracks token usage and cost against a model pricing
// table, and exposes Prometheus metrics.
//
// The phare binary bundles supporting tooling for operating the SDK:
//
//	# Validate a configuration file
//	phare validate --config phare.yaml
//
//	# Estimate the cost of a model call
//	phare pricing cost --model gemini-2.5-flash --prompt-tokens 1000 --completion-tokens 500
//
//	# Query the local usage ledger
//	phare usage totals --since 24h
//
//	# Show version information
//	phare version
//
// For complete documentation, see: https://github.com/phare-hq/phare
package main

func main() {
	Execute()
}
