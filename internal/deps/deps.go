// Package deps reports which external programs the daemon relies on are
// installed.
package deps

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// Status represents the installation status of a dependency
type Status struct {
	Name      string
	Purpose   string
	Required  bool
	Installed bool
	Path      string
	Version   string
}

// Tool is an external program and the flag that prints its version.
type Tool struct {
	Name        string
	VersionFlag string
	Purpose     string
	Required    bool
}

// Tools lists what `serve` shells out to.
var Tools = []Tool{
	{Name: "pw-record", VersionFlag: "--version", Purpose: "audio capture", Required: true},
	{Name: "pw-cli", VersionFlag: "--version", Purpose: "PipeWire availability check", Required: true},
	{Name: "notify-send", VersionFlag: "--version", Purpose: "desktop notifications"},
}

const versionTimeout = 2 * time.Second

// Check looks tool up on PATH and asks it for a version.
func Check(ctx context.Context, tool Tool) Status {
	status := Status{Name: tool.Name, Purpose: tool.Purpose, Required: tool.Required}

	path, err := exec.LookPath(tool.Name)
	if err != nil {
		return status
	}
	status.Installed = true
	status.Path = path

	if tool.VersionFlag == "" {
		return status
	}
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	output, err := exec.CommandContext(ctx, path, tool.VersionFlag).Output()
	if err == nil {
		status.Version = firstLine(string(output))
	}
	return status
}

// CheckAll checks every entry of Tools.
func CheckAll(ctx context.Context) []Status {
	out := make([]Status, 0, len(Tools))
	for _, tool := range Tools {
		out = append(out, Check(ctx, tool))
	}
	return out
}

// Missing returns the required tools that are not installed.
func Missing(statuses []Status) []string {
	var missing []string
	for _, s := range statuses {
		if s.Required && !s.Installed {
			missing = append(missing, s.Name)
		}
	}
	return missing
}

func firstLine(s string) string {
	// pw-record prints an empty line before the version
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
