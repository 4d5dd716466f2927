package gate

import (
	"encoding/json"
	"io"
)

// Config configures one gate invocation (spec.md §4.H).
type Config struct {
	ProjectContractsDir string
	UserContractsDir    string
	Severity            Severity
}

// Run reads one envelope from r, reconstructs and checks the proposed
// file, and writes the JSON decision to w. It returns ErrInvalidJSON
// for a malformed envelope, and any error from reading r, checking a
// contract, or encoding the output; every other outcome is written as
// a decision, and a skipped reconstruction is always an allow.
func Run(r io.Reader, w io.Writer, cfg Config) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	env, err := ParseEnvelope(data)
	if err != nil {
		return err
	}

	recon := Reconstruct(env)
	var output map[string]any
	if recon.Skip != nil {
		output = AllowOutput(env.Event, *recon.Skip)
	} else {
		decision, err := Decide(cfg.ProjectContractsDir, cfg.UserContractsDir, cfg.Severity, recon.File)
		if err != nil {
			return err
		}
		if env.Event == "PostToolUse" {
			output = PostToolUseOutput(decision)
		} else {
			output = PreToolUseOutput(decision)
		}
	}

	enc := json.NewEncoder(w)
	return enc.Encode(output)
}
