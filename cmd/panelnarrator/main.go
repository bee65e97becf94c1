// panelnarrator is the interactive CLI for turning a comic event description
// into a narration script through the three-phase conversation.
//
// Environment:
//
//	ANTHROPIC_API_KEY         API key for the Anthropic provider (required
//	                          unless the model starts with "scripted-")
//	SERPER_API_KEY            API key for web search (optional; without it
//	                          the web_search tool reports errors)
//	SCRIPTAGENT_MODEL         default model (flag --model overrides)
//	SCRIPTAGENT_PROJECTS_DIR  where script projects are written
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
