package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Mode is the operation mode under which a path is validated.
type Mode int

const (
	// ModeRead permits workspace, additional read dirs, and additional
	// write dirs (write roots are always readable).
	ModeRead Mode = iota
	// ModeWrite permits only workspace and additional write dirs.
	ModeWrite
)

// fileOpCommands are commands whose non-flag arguments are themselves
// filesystem paths to operate on.
var fileOpCommands = map[string]struct{}{
	"cp":    {},
	"mv":    {},
	"rm":    {},
	"mkdir": {},
	"rmdir": {},
	"touch": {},
	"ln":    {},
}

// readingCommands are commands that read file content; their trailing
// non-flag arguments are path-shaped.
var readingCommands = map[string]struct{}{
	"cat":  {},
	"head": {},
	"tail": {},
	"less": {},
	"more": {},
	"wc":   {},
	"file": {},
	"stat": {},
	"grep": {},
	"sed":  {},
	"awk":  {},
}

// patternFirstCommands are reading commands whose first non-flag argument
// is a pattern/script, not a path.
var patternFirstCommands = map[string]struct{}{
	"grep": {},
	"sed":  {},
	"awk":  {},
}

// extractedPath names a path argument pulled from a segment, tagged with
// the mode it must be validated under.
type extractedPath struct {
	path string
	mode Mode
}

// extractPaths pulls path-shaped arguments out of a tokenized segment.
// cmdName is the already-resolved basename of the segment's command.
func extractPaths(cmdName string, tokens []string) []extractedPath {
	var out []extractedPath

	// Redirection targets: `>` and `>>` are always write-mode paths,
	// regardless of the command being run.
	for i, tok := range tokens {
		if (tok == ">" || tok == ">>") && i+1 < len(tokens) {
			out = append(out, extractedPath{path: tokens[i+1], mode: ModeWrite})
		}
		if strings.HasPrefix(tok, ">") && tok != ">" && tok != ">>" {
			target := strings.TrimLeft(tok, ">")
			if target != "" {
				out = append(out, extractedPath{path: target, mode: ModeWrite})
			}
		}
	}

	if _, isFileOp := fileOpCommands[cmdName]; isFileOp {
		for _, tok := range nonFlagArgs(tokens) {
			out = append(out, extractedPath{path: tok, mode: ModeWrite})
		}
		return out
	}

	if _, isReading := readingCommands[cmdName]; isReading {
		args := nonFlagArgs(tokens)
		if _, skipFirst := patternFirstCommands[cmdName]; skipFirst && len(args) > 0 {
			args = args[1:]
		}
		for _, tok := range args {
			out = append(out, extractedPath{path: tok, mode: ModeRead})
		}
	}

	return out
}

// nonFlagArgs returns the tokens after the command name, skipping flags
// (tokens beginning with '-') and redirection operators/targets.
func nonFlagArgs(tokens []string) []string {
	var out []string
	skipNext := false
	for i, tok := range tokens {
		if i == 0 {
			continue // command name itself
		}
		if skipNext {
			skipNext = false
			continue
		}
		if tok == ">" || tok == ">>" {
			skipNext = true
			continue
		}
		if strings.HasPrefix(tok, ">") {
			continue
		}
		if strings.HasPrefix(tok, "-") {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// validatePath resolves path (relative paths join against workspace) and
// checks it against the permitted root set for mode, resolving symlinks on
// both sides so an escape via a symlink inside a permitted root is still
// caught.
func validatePath(path string, mode Mode, cfg Config) (ok bool, reason string) {
	expanded := expandHome(path)
	if !filepath.IsAbs(expanded) {
		base := cfg.Workspace
		if base == "" {
			base = "."
		}
		expanded = filepath.Join(base, expanded)
	}
	resolved := resolveBestEffort(expanded)

	var roots []string
	if mode == ModeWrite {
		roots = cfg.writeRoots()
	} else {
		roots = cfg.readRoots()
	}
	if len(roots) == 0 {
		return false, fmt.Sprintf("path %q rejected: no permitted directories configured", path)
	}

	for _, root := range roots {
		if root == "" {
			continue
		}
		resolvedRoot := resolveBestEffort(expandHome(root))
		if withinRoot(resolved, resolvedRoot) {
			return true, ""
		}
	}
	return false, fmt.Sprintf("path %q is outside permitted directories", path)
}

func withinRoot(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return !strings.HasPrefix(rel, "..") && rel != ".."
}

// resolveBestEffort cleans and resolves symlinks in path. If the path (or
// any missing trailing component) does not exist yet — common for mkdir
// targets or new redirection output files — it walks up to the nearest
// existing ancestor, resolves that, and reattaches the missing suffix.
func resolveBestEffort(path string) string {
	clean := filepath.Clean(path)
	if resolved, err := filepath.EvalSymlinks(clean); err == nil {
		return resolved
	}

	var missing []string
	cur := clean
	for {
		if resolved, err := filepath.EvalSymlinks(cur); err == nil {
			for i := len(missing) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, missing[i])
			}
			return resolved
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return clean
		}
		missing = append(missing, filepath.Base(cur))
		cur = parent
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
