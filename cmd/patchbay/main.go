// patchbay is the command line companion to the editor: it lists,
// audits and exports saved projects without running the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dd0wney/cluso-patchbay/pkg/algorithms"
	"github.com/dd0wney/cluso-patchbay/pkg/checks"
	"github.com/dd0wney/cluso-patchbay/pkg/export"
	"github.com/dd0wney/cluso-patchbay/pkg/patch"
	"github.com/dd0wney/cluso-patchbay/pkg/project"
)

const usage = `Usage: patchbay [-data DIR] COMMAND [ARGS]

Commands:
  list                 List saved projects
  audit NAME           Run the setup audit on a saved project
  check NAME           Validate every cable and report feedback loops
  export NAME          Print the project as Graphviz DOT
  render NAME          Print the project's JSON render document
`

func main() {
	dataDir := flag.String("data", "./data", "Project data directory")
	compress := flag.Bool("compress", false, "Read/write snappy-compressed projects")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	store, err := project.NewFSStore(*dataDir, *compress)
	if err != nil {
		fatal("open project store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	switch cmd := args[0]; cmd {
	case "list":
		runList(ctx, store)
	case "audit", "check", "export", "render":
		if len(args) < 2 {
			fatal("%s requires a project name", cmd)
		}
		doc, err := store.Load(ctx, args[1])
		if err != nil {
			fatal("load project %q: %v", args[1], err)
		}
		graph := documentGraph(doc)
		switch cmd {
		case "audit":
			runAudit(graph)
		case "check":
			runCheck(graph)
		case "export":
			fmt.Print((&export.DotGenerator{}).Generate(doc.Name, graph))
		case "render":
			data, err := export.RenderJSON(graph, doc.Viewport)
			if err != nil {
				fatal("render: %v", err)
			}
			fmt.Println(string(data))
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runList(ctx context.Context, store *project.FSStore) {
	names, err := store.List(ctx)
	if err != nil {
		fatal("list projects: %v", err)
	}
	for _, name := range names {
		fmt.Println(name)
	}
}

func runAudit(graph *patch.Graph) {
	issues := checks.NewAuditor().Audit(graph)
	if len(issues) == 0 {
		fmt.Println("no issues found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEVERITY\tDEVICE\tPORT\tMESSAGE")
	for _, issue := range issues {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			issue.Severity, issue.DeviceID, issue.PortID, issue.Message)
	}
	w.Flush()

	for _, issue := range issues {
		if issue.Severity >= checks.Error {
			os.Exit(1)
		}
	}
}

// runCheck re-validates every cable against the current rules and
// reports feedback loops. Exits nonzero when anything is invalid.
func runCheck(graph *patch.Graph) {
	store := patch.NewStore()
	viewport := patch.Viewport{Zoom: 1}
	if err := store.Replace(graph, viewport); err != nil {
		fatal("load graph: %v", err)
	}

	failed := false
	for _, c := range graph.Cables {
		result := patch.ValidateCable(store, c)
		switch {
		case !result.Valid:
			failed = true
			fmt.Printf("invalid: %s: %s\n", c.ID, result.Message)
		case result.Warning:
			fmt.Printf("warning: %s: %s\n", c.ID, result.Message)
		}
	}

	cycles := algorithms.DetectCycles(graph.Cables)
	for _, cycle := range cycles {
		fmt.Printf("feedback loop: %v\n", cycle)
	}

	if failed {
		os.Exit(1)
	}
	if len(cycles) == 0 && !failed {
		fmt.Println("all cables valid, no feedback loops")
	}
}

func documentGraph(doc *project.Document) *patch.Graph {
	return &patch.Graph{Devices: doc.Devices, Cables: doc.Cables}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
