package config

import (
	"flag"
	"fmt"

	"github.com/agbru/fibbench/internal/ui"
)

var commandHelp = map[Command]string{
	CommandCalc:     "compute F(n) with one algorithm",
	CommandCompare:  "run every algorithm on F(n) and check agreement",
	CommandInfo:     "list algorithms and their complexity",
	CommandSequence: "print consecutive terms and golden-ratio convergence",
	CommandBinet:    "tabulate closed-form accuracy up to -max-n",
	CommandModular:  "compute F(n) mod -modulus",
	CommandMemory:   "report tracked and heap allocations of one calculation",
	CommandBatch:    "compute F for every index in -indices",
	CommandServe:    "start the HTTP API",
}

// setCustomUsage installs a colored usage function on fs.
func setCustomUsage(fs *flag.FlagSet) {
	fs.Usage = func() {
		t := ui.UsageTheme()
		out := fs.Output()

		fmt.Fprintf(out, "\n%s\n", t.Paint(t.Bold, "fibbench"))
		fmt.Fprintf(out, "Fibonacci algorithms over 128-bit wrapping integers.\n\n")
		fmt.Fprintf(out, "%s\n  %s <command> [flags]\n\n", t.Paint(t.Warning, "Usage:"), fs.Name())

		fmt.Fprintf(out, "%s\n", t.Paint(t.Warning, "Commands:"))
		for _, c := range Commands() {
			fmt.Fprintf(out, "  %s %s\n", t.Paint(t.Accent, fmt.Sprintf("%-10s", c)), commandHelp[c])
		}

		fmt.Fprintf(out, "\n%s\n", t.Paint(t.Warning, "Flags:"))
		fs.VisitAll(func(f *flag.Flag) {
			name, usage := flag.UnquoteUsage(f)
			sig := "-" + f.Name
			if name != "" {
				sig += " " + name
			}
			fmt.Fprintf(out, "  %s %s", t.Paint(t.Accent, fmt.Sprintf("%-22s", sig)), usage)
			if f.DefValue != "" && f.DefValue != "0" && f.DefValue != "false" {
				fmt.Fprintf(out, " %s", t.Paint(t.Muted, "(default "+f.DefValue+")"))
			}
			fmt.Fprintln(out)
		})
		fmt.Fprintf(out, "\nEnvironment variables %s* override defaults; flags override both.\n\n", EnvPrefix)
	}
}
