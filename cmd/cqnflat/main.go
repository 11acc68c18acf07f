// Command cqnflat is a demonstration CLI around the cqnflat compiler: it
// reads a YAML CSN model and a JSON CQN query, rewrites the query, and
// writes the flattened result.
//
// Usage:
//
//	cqnflat rewrite --model model.yaml --query query.json
package main

func main() {
	Execute()
}
