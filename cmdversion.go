//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package main

import (
	"context"
	"fmt"
	"github.com/e-gun/HipparchiaMorphTagger/internal/lnch"
	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "version, build and model information",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			w := cmd.OutOrStdout()
			c := *cfg()
			params := -1
			if modelpresent(&c) {
				if b, err := loadbundle(ctx, &c); err == nil {
					params = b.ParamCount()
					c.Model = b.Hyper
				} else {
					Msg.FYI(fmt.Sprintf("no model: %s", err.Error()))
				}
			}
			lnch.PrintVersion(w, &c)
			lnch.PrintBuildInfo(w, &c, params)
			fmt.Fprintln(w, lnch.Copyright())
			return nil
		},
	}
}
