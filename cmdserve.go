//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package main

import (
	"context"
	"github.com/e-gun/HipparchiaMorphTagger/internal/lnch"
	"github.com/e-gun/HipparchiaMorphTagger/internal/pred"
	"github.com/e-gun/HipparchiaMorphTagger/web"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"syscall"
)

func serveCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "answer analysis requests over HTTP and websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			if cmd.Flags().Changed("host") {
				c.HostIP = host
			}
			if cmd.Flags().Changed("port") {
				c.HostPort = port
			}

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
			defer stop()

			b, err := loadbundle(ctx, c)
			if err != nil {
				return err
			}
			lnch.PrintVersion(cmd.OutOrStdout(), c)

			s := web.NewServer(pred.New(b, c.UseOverrides, Msg), c, Msg)
			if err = s.StartEchoServer(ctx); err != nil {
				stop()
				shutdown()
				Msg.EF(err, "StartEchoServer")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "address to listen on (default from config)")
	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (default from config)")
	return cmd
}
