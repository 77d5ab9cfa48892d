package config

import (
	"flag"
	"fmt"

	"github.com/agbru/lanefrac/internal/lanes"
	"github.com/agbru/lanefrac/internal/ui"
)

// setCustomUsage installs a themed usage function on fs.
func setCustomUsage(fs *flag.FlagSet) {
	fs.Usage = func() {
		t := ui.GetCurrentTheme()
		if ui.NoColorRequested() {
			t = ui.NoColorTheme
		}
		out := fs.Output()

		fmt.Fprintf(out, "\n%slanefrac%s\n", t.Bold, t.Reset)
		fmt.Fprintf(out, "Lane-parallel fractal renderer (%d lanes, %s).\n\n", lanes.Width, lanes.HostTarget())
		fmt.Fprintf(out, "%sUsage:%s\n  %s [flags]\n\n%sFlags:%s\n", t.Warning, t.Reset, fs.Name(), t.Warning, t.Reset)

		fs.VisitAll(func(f *flag.Flag) {
			name, usage := flag.UnquoteUsage(f)
			sig := "-" + f.Name
			if name != "" {
				sig += " " + name
			}
			fmt.Fprintf(out, "  %s%-26s%s %s", t.Primary, sig, t.Reset, usage)
			if f.DefValue != "" && f.DefValue != "0" && f.DefValue != "false" {
				fmt.Fprintf(out, " %s(default %s)%s", t.Secondary, f.DefValue, t.Reset)
			}
			fmt.Fprintln(out)
		})
		fmt.Fprintf(out, "\nEvery flag can also be set as %s<NAME>, e.g. %sMAX_ITERS=512.\n\n", EnvPrefix, EnvPrefix)
	}
}
