// Command `lookout` is the end-user CLI for Lookout name resolution.
//
// Lookout resolves target names into backend addresses, optionally
// discovering load-balancer backends through SRV records. The CLI can
// resolve directly in-process or forward queries to the lookoutd daemon.
//
// Usage:
//
//	lookout resolve <name>...            - Resolve one or more targets in-process
//	lookout query <name>                 - Resolve a target via the daemon
//	lookout status                       - Show daemon status
//
// Examples:
//
//	lookout resolve example.com:443             - Resolve a host:port target
//	lookout resolve --port https example.com    - Resolve with a default port
//	lookout resolve --lb lb.example.com:1234    - Load-balancer resolution with SRV discovery
//	lookout resolve example.com:80 example.org:80
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aadhyaan/lookout/internal/buildinfo"
	"github.com/Aadhyaan/lookout/internal/config"
	"github.com/Aadhyaan/lookout/pkg/api"
	"github.com/Aadhyaan/lookout/pkg/client"
	"github.com/Aadhyaan/lookout/pkg/resolver"
)

// resolved is one row of CLI output: the target it came from plus the
// wire-form address.
type resolved struct {
	target string
	addr   api.ResolvedAddress
}

func main() {
	cfg, err := config.New().Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	cli := client.New(cfg.Socket.Path)

	root := &cobra.Command{
		Use:   "lookout",
		Short: "Lookout DNS resolution CLI",
		Long: `Lookout resolves target names into backend addresses, with optional
load-balancer backend discovery through "_grpclb._tcp." SRV records.`,
	}
	// ---- version command ----
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Show version information for the Lookout CLI and daemon.`,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("version: %s\n", buildinfo.Version)
			fmt.Printf("commit: %s\n", buildinfo.Commit)
		},
	}

	// ---- resolve command ----
	var (
		defaultPort string
		balancer    bool
		timeout     time.Duration
		resolvers   []string
	)
	resolveCmd := &cobra.Command{
		Use:   "resolve <name>...",
		Short: "Resolve one or more targets in-process",
		Long: `Resolve one or more targets without going through the daemon.
Targets may be bare hosts, host:port pairs, or bracketed IPv6 literals.
With --lb, resolution additionally discovers load-balancer backends via
the "_grpclb._tcp." SRV record of each target host.`,
		Example: "lookout resolve --lb lb.example.com:1234",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := resolver.Init(); err != nil {
				log.Printf("warning: %v (using fallback resolver)", err)
			}
			defer resolver.Cleanup()

			opts := []resolver.Opt{resolver.WithTimeout(timeout)}
			switch {
			case len(resolvers) > 0:
				opts = append(opts, resolver.WithResolvers(resolvers))
			case len(cfg.DNS.Resolvers) > 0:
				opts = append(opts, resolver.WithResolvers(cfg.DNS.Resolvers))
			}
			port := defaultPort
			if port == "" {
				port = cfg.DNS.DefaultPort
			}

			var (
				mu   sync.Mutex
				rows []resolved
			)
			grp := new(errgroup.Group)
			for _, name := range args {
				name := name
				grp.Go(func() error {
					addrs, err := resolveOne(name, port, balancer, opts)
					if err != nil {
						return fmt.Errorf("%s: %w", name, err)
					}
					mu.Lock()
					for _, a := range addrs {
						rows = append(rows, resolved{target: name, addr: a})
					}
					mu.Unlock()
					return nil
				})
			}
			if err := grp.Wait(); err != nil {
				return err
			}

			sort.Slice(rows, func(i, j int) bool {
				if rows[i].target != rows[j].target {
					return rows[i].target < rows[j].target
				}
				return rows[i].addr.Address < rows[j].addr.Address
			})
			printAddresses(rows)
			return nil
		},
	}
	resolveCmd.Flags().StringVar(&defaultPort, "port", "", "default port for targets without one")
	resolveCmd.Flags().BoolVar(&balancer, "lb", false, "load-balancer resolution with SRV discovery")
	resolveCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "per-attempt DNS timeout")
	resolveCmd.Flags().StringSliceVar(&resolvers, "resolver", nil, "DNS server host:port (repeatable)")

	// ---- query command ----
	var (
		queryPort string
		queryLB   bool
	)
	queryCmd := &cobra.Command{
		Use:     "query <name>",
		Short:   "Resolve a target via the daemon",
		Example: "lookout query example.com:443",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			addrs, err := cli.Resolve(ctx, args[0], queryPort, queryLB)
			if err != nil {
				return err
			}
			rows := make([]resolved, 0, len(addrs))
			for _, a := range addrs {
				rows = append(rows, resolved{target: args[0], addr: a})
			}
			printAddresses(rows)
			return nil
		},
	}
	queryCmd.Flags().StringVar(&queryPort, "port", "", "default port for targets without one")
	queryCmd.Flags().BoolVar(&queryLB, "lb", false, "load-balancer resolution with SRV discovery")

	// ---- status command ----
	statusCmd := &cobra.Command{
		Use:     "status",
		Short:   "Show daemon status",
		Example: "lookout status",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()

			st, err := cli.Status(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("uptime: %s\n", st.Uptime.Round(time.Second))
			fmt.Printf("resolutions: %d\n", st.Resolutions)
			fmt.Printf("version: %s (%s)\n", st.Version, st.Commit)
			return nil
		},
	}

	root.AddCommand(resolveCmd, queryCmd, statusCmd, versionCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveOne bridges the fire-and-forget resolver API to a blocking call.
func resolveOne(name, defaultPort string, balancer bool, opts []resolver.Opt) ([]api.ResolvedAddress, error) {
	done := make(chan error, 1)
	var out []api.ResolvedAddress

	if balancer {
		var addrs []resolver.BalancerAddress
		resolver.ResolveForLoadBalancing(name, defaultPort, &addrs,
			func(err error) { done <- err }, opts...)
		if err := <-done; err != nil {
			return nil, err
		}
		for _, a := range addrs {
			out = append(out, api.ResolvedAddress{
				Address:      a.String(),
				IsBalancer:   a.IsBalancer,
				BalancerName: a.BalancerName,
			})
		}
		return out, nil
	}

	var addrs []resolver.Address
	resolver.Resolve(name, defaultPort, &addrs,
		func(err error) { done <- err }, opts...)
	if err := <-done; err != nil {
		return nil, err
	}
	for _, a := range addrs {
		out = append(out, api.ResolvedAddress{Address: a.String()})
	}
	return out, nil
}

func printAddresses(rows []resolved) {
	if len(rows) == 0 {
		color.Yellow("No addresses resolved.")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Target", "Address", "Balancer", "Balancer Name"})
	table.SetHeaderColor(
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
	)
	table.SetBorder(false)
	table.SetColumnColor(
		tablewriter.Colors{tablewriter.FgGreenColor},
		tablewriter.Colors{tablewriter.FgHiWhiteColor},
		tablewriter.Colors{tablewriter.FgYellowColor},
		tablewriter.Colors{tablewriter.FgHiWhiteColor},
	)

	for _, r := range rows {
		balancer := "No"
		if r.addr.IsBalancer {
			balancer = "Yes"
		}
		table.Append([]string{r.target, r.addr.Address, balancer, r.addr.BalancerName})
	}

	color.New(color.Bold).Println("RESOLVED ADDRESSES:")
	table.Render()
}
