//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package main

import (
	"fmt"
	"github.com/e-gun/HipparchiaMorphTagger/internal/lnch"
	"github.com/e-gun/HipparchiaMorphTagger/internal/str"
	"github.com/e-gun/HipparchiaMorphTagger/internal/vv"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
)

var (
	Msg      = lnch.Msg
	launch   lnch.Flags
	profiler interface{ Stop() }
)

// cfg - the configuration once the persistent pre-run has assembled it
func cfg() *str.CurrentConfiguration {
	return lnch.Config
}

func main() {
	Msg.EC(execute(rootCmd()))
}

// execute - run the command tree; the profiler and the log sink are shut down even when a subcommand fails
func execute(root *cobra.Command) error {
	defer shutdown()
	return root.Execute()
}

func rootCmd() *cobra.Command {
	const (
		SHORT = "%s: lemmatization and morphological tagging with a shared sentence encoder"
		LONG  = "%s (v%s)\n%s\n\nA minimal %s:\n\n%s"
	)

	root := &cobra.Command{
		Use:           "hmt",
		Short:         fmt.Sprintf(SHORT, vv.MYNAME),
		Long:          fmt.Sprintf(LONG, vv.MYNAME, vv.VERSION, vv.PROJURL, vv.CONFIGBASIC, vv.MINCONFIG),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return startup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&launch.ConfigFile, "config", "", "configuration file (YAML or JSON)")
	pf.IntVar(&launch.LogLevel, "gl", vv.DEFAULTGOLOGLEVEL, fmt.Sprintf("logging level [0-%d]", vv.MSGTMI))
	pf.IntVar(&launch.EchoLog, "el", vv.DEFAULTECHOLOGLEVEL, "echo request logging: 0 none, 1 terse, 2 prolix, 3 prolix+remoteip")
	pf.BoolVar(&launch.BW, "bw", vv.BLACKANDWHITE, "no colors in terminal output")
	pf.StringVar(&launch.LogFile, "logfile", "", "also write structured JSON logs to this file")
	pf.IntVar(&launch.Workers, "workers", 0, "sentences predicted in parallel (default NumCPU)")
	pf.BoolVar(&launch.ProfileCPU, "profilecpu", false, "write a CPU profile to the working directory")
	pf.BoolVar(&launch.ProfileMEM, "profilemem", false, "write a memory profile to the working directory")

	root.AddCommand(initCmd(), lossCmd(), predictCmd(), serveCmd(), replCmd(), versionCmd())
	return root
}

// startup - config, logging, profiling; runs before every subcommand
func startup(cmd *cobra.Command) error {
	c, err := lnch.ConfigAtLaunch(launch, cmd.Flags().Changed)
	if err != nil {
		return err
	}
	m, err := lnch.NewMessageMakerConfigured(c)
	if err != nil {
		return err
	}
	m.Out = Msg.Out
	Msg, lnch.Msg = m, m

	switch {
	case c.ProfileCPU:
		profiler = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	case c.ProfileMEM:
		profiler = profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	}
	return nil
}

func shutdown() {
	if profiler != nil {
		profiler.Stop()
		profiler = nil
	}
	Msg.Sync()
}
