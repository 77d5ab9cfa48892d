package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/agbru/lanefrac/internal/config"
	"github.com/agbru/lanefrac/internal/ui"
)

// CompletionShells lists the shells GenerateCompletion accepts. "ps" is
// also accepted as an alias of "powershell".
var CompletionShells = []string{"bash", "zsh", "fish", "powershell"}

// completionFlag describes one command-line flag for the completion scripts.
type completionFlag struct {
	long  string
	short string
	desc  string
	// values are the fixed choices offered after the flag.
	values []string
	// file completes a path after the flag.
	file bool
	// boolean flags take no value.
	boolean bool
}

func (f completionFlag) takesValue() bool { return !f.boolean }

func completionFlags(kernels []string) []completionFlag {
	kernelChoices := append(append([]string{}, kernels...), config.DefaultKernel)
	return []completionFlag{
		{long: "help", short: "h", desc: "Show help message", boolean: true},
		{long: "version", short: "V", desc: "Show version information", boolean: true},
		{long: "kernel", desc: "Kernel to render", values: kernelChoices},
		{long: "width", desc: "Image width in pixels", values: []string{"320", "800", "1920"}},
		{long: "height", desc: "Image height in pixels", values: []string{"240", "600", "1080"}},
		{long: "re", desc: "Real part of the view center"},
		{long: "im", desc: "Imaginary part of the view center"},
		{long: "span", desc: "Width of the view along the real axis"},
		{long: "max-iters", desc: "Escape-time iteration budget", values: []string{"256", "1000", "5000"}},
		{long: "burst", desc: "Newton steps between convergence checks", values: []string{"4", "10", "25"}},
		{long: "macro-iters", desc: "Maximum number of Newton bursts", values: []string{"8", "20", "50"}},
		{long: "tol", desc: "Newton convergence tolerance"},
		{long: "poly", desc: "Newton polynomial as ascending coefficients", values: []string{config.DefaultPolynomial}},
		{long: "julia-re", desc: "Real part of the julia parameter"},
		{long: "julia-im", desc: "Imaginary part of the julia parameter"},
		{long: "workers", desc: "Rows rendered concurrently per kernel"},
		{long: "timeout", desc: "Maximum execution time", values: []string{"30s", "1m", "2m", "5m"}},
		{long: "output", short: "o", desc: "Output file", file: true},
		{long: "codec", desc: "Raw frame compression", values: []string{"zstd", "lz4"}},
		{long: "json", desc: "Print frame statistics as JSON", boolean: true},
		{long: "quiet", short: "q", desc: "Quiet mode for scripts", boolean: true},
		{long: "details", short: "d", desc: "Show detailed frame statistics", boolean: true},
		{long: "no-color", desc: "Disable colored output", boolean: true},
		{long: "theme", desc: "Color theme", values: ui.ThemeNames()},
		{long: "server", desc: "Start HTTP server mode", boolean: true},
		{long: "port", desc: "Server port", values: []string{"8080", "3000", "9000"}},
		{long: "calibrate", desc: "Run calibration mode", boolean: true},
		{long: "auto-calibrate", desc: "Calibrate quickly at startup", boolean: true},
		{long: "calibration-profile", desc: "Calibration profile file", file: true},
		{long: "log-level", desc: "Log level", values: []string{"debug", "info", "warn", "error", "off"}},
		{long: "completion", desc: "Generate completion script", values: CompletionShells},
	}
}

// GenerateCompletion writes a shell completion script for lanefrac.
//
// Parameters:
//   - out: The writer receiving the script.
//   - shell: "bash", "zsh", "fish" or "powershell" ("ps").
//   - kernels: The registered kernel names offered after --kernel.
//
// Returns:
//   - error: An error if the shell is not supported or writing fails.
func GenerateCompletion(out io.Writer, shell string, kernels []string) error {
	flags := completionFlags(kernels)
	var script string
	switch strings.ToLower(shell) {
	case "bash":
		script = bashCompletion(flags)
	case "zsh":
		script = zshCompletion(flags)
	case "fish":
		script = fishCompletion(flags)
	case "powershell", "ps":
		script = powerShellCompletion(flags)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: %s)", shell, strings.Join(CompletionShells, ", "))
	}
	_, err := io.WriteString(out, script)
	return err
}

func bashCompletion(flags []completionFlag) string {
	var opts []string
	var cases strings.Builder
	for _, f := range flags {
		names := []string{"--" + f.long, "-" + f.long}
		if f.short != "" {
			names = append(names, "-"+f.short)
		}
		opts = append(opts, "--"+f.long)
		if f.short != "" {
			opts = append(opts, "-"+f.short)
		}
		switch {
		case f.file:
			fmt.Fprintf(&cases, "        %s)\n            COMPREPLY=( $(compgen -f -- \"${cur}\") )\n            return 0\n            ;;\n",
				strings.Join(names, "|"))
		case len(f.values) > 0:
			fmt.Fprintf(&cases, "        %s)\n            COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n            return 0\n            ;;\n",
				strings.Join(names, "|"), strings.Join(f.values, " "))
		}
	}

	return fmt.Sprintf(`# Bash completion script for lanefrac
# Add this to your ~/.bashrc or ~/.bash_completion

_lanefrac_completions() {
    local cur prev opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    opts="%s"

    case "${prev}" in
%s    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
        return 0
    fi
}

complete -F _lanefrac_completions lanefrac
`, strings.Join(opts, " "), cases.String())
}

func zshCompletion(flags []completionFlag) string {
	specs := make([]string, 0, len(flags))
	for _, f := range flags {
		var spec string
		if f.short != "" {
			spec = fmt.Sprintf("'(-%s --%s)'{-%s,--%s}'[%s]", f.short, f.long, f.short, f.long, f.desc)
		} else {
			spec = fmt.Sprintf("'--%s[%s]", f.long, f.desc)
		}
		switch {
		case f.file:
			spec += ":file:_files"
		case len(f.values) > 0:
			spec += fmt.Sprintf(":%s:(%s)", f.long, strings.Join(f.values, " "))
		case f.takesValue():
			spec += ":value:"
		}
		specs = append(specs, spec+"'")
	}

	return fmt.Sprintf(`#compdef lanefrac

# Zsh completion script for lanefrac
# Add this to your ~/.zshrc or place in $fpath

_lanefrac() {
    _arguments -s \
        %s
}

_lanefrac "$@"
`, strings.Join(specs, " \\\n        "))
}

func fishCompletion(flags []completionFlag) string {
	var b strings.Builder
	b.WriteString("# Fish completion script for lanefrac\n")
	b.WriteString("# Add this to ~/.config/fish/completions/lanefrac.fish\n\n")
	b.WriteString("# Disable file completion by default\n")
	b.WriteString("complete -c lanefrac -f\n\n")
	for _, f := range flags {
		line := "complete -c lanefrac"
		if f.short != "" {
			line += " -s " + f.short
		}
		line += fmt.Sprintf(" -l %s -d '%s'", f.long, f.desc)
		switch {
		case f.file:
			line += " -rF"
		case len(f.values) > 0:
			line += fmt.Sprintf(" -xa '%s'", strings.Join(f.values, " "))
		case f.takesValue():
			line += " -x"
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func powerShellCompletion(flags []completionFlag) string {
	var options, cases strings.Builder
	for _, f := range flags {
		names := []string{"--" + f.long}
		if f.short != "" {
			names = append(names, "-"+f.short)
		}
		for _, name := range names {
			fmt.Fprintf(&options, "        @{Name = '%s'; Description = '%s' }\n", name, f.desc)
		}
		if len(f.values) == 0 {
			continue
		}
		quoted := make([]string, len(f.values))
		for i, v := range f.values {
			quoted[i] = "'" + v + "'"
		}
		fmt.Fprintf(&cases, `        '--%s' {
            @(%s) | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
            }
            return
        }
`, f.long, strings.Join(quoted, ", "))
	}

	return fmt.Sprintf(`# PowerShell completion script for lanefrac
# Add this to your $PROFILE

Register-ArgumentCompleter -CommandName 'lanefrac' -Native -ScriptBlock {
    param($wordToComplete, $commandAst, $cursorPosition)

    $options = @(
%s    )

    $elements = $commandAst.CommandElements
    $prevElement = if ($elements.Count -gt 2) { $elements[-2].ToString() } else { '' }

    switch ($prevElement) {
%s    }

    $options | Where-Object { $_.Name -like "$wordToComplete*" } | ForEach-Object {
        [System.Management.Automation.CompletionResult]::new($_.Name, $_.Name, 'ParameterName', $_.Description)
    }
}
`, options.String(), cases.String())
}
