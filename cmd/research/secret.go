package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"go-research-pipeline/internal/config"
	"go-research-pipeline/internal/llm"
)

// ensureAPIKey prompts for the provider's API key without echo when none is
// configured and in is a terminal.
func ensureAPIKey(cfg *config.Config, in io.Reader, out io.Writer) error {
	if cfg.LLM.APIKey != "" {
		return nil
	}
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return fmt.Errorf("%w: set it in the config file or the environment for provider %q", llm.ErrMissingAPIKey, cfg.LLM.Provider)
	}

	fmt.Fprintf(out, "%s API key: ", cfg.LLM.Provider)
	key, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("read API key: %w", err)
	}
	cfg.LLM.APIKey = strings.TrimSpace(string(key))
	if cfg.LLM.APIKey == "" {
		return llm.ErrMissingAPIKey
	}
	return nil
}
