// Command branchgraph is the CLI surface over the Orchestrator: a thin
// request/response layer exposing branch, entity, observation, relation,
// search, and import/export operations.
package main

func main() {
	Execute()
}
