// Package pricing maps model names to token prices and computes per-call
// costs in USD.
//
// Prices are expressed per million tokens. A built-in table covers common
// models; deployments override or extend it with a YAML file:
//
//	gpt-4o:
//	  prompt: 2.50
//	  completion: 10.00
//
// Unknown models fall back to the configured default price so cost
// reporting degrades to an estimate instead of zero. With pricing.watch
// enabled, a Watcher reloads the file on change without restarting.
package pricing
