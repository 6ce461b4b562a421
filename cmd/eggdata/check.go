package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"go.eggybyte.com/eggdata/ormx"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Start every enabled backend once and report the result",
	Long: `Start every enabled backend with the demo model set, print which
backends came up, then close them.

Example:
  EGGDATA_GORM_ENABLED=true EGGDATA_GORM_DSN=/tmp/eggdata.db eggdata check`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	settings, logger, err := loadRuntime(ctx)
	if err != nil {
		return err
	}

	_, conns, err := ormx.Setup(ctx, ormx.Options{
		Logger:         logger,
		ModelSets:      demoModelSets(),
		Config:         settings.Config(),
		CloseOnFailure: true,
	})
	if err != nil {
		return err
	}

	report(cmd.OutOrStdout(), conns)
	return ormx.Close(ctx, conns)
}

func report(w io.Writer, conns *ormx.Connections) {
	backends := conns.Backends()
	if len(backends) == 0 {
		fmt.Fprintln(w, "no backends enabled")
		return
	}
	for _, kind := range backends {
		fmt.Fprintf(w, "%-10s ok", kind)
		switch kind {
		case ormx.KindGORM:
			fmt.Fprintf(w, "  entities=%d", len(conns.GORM.Entities))
		case ormx.KindEntity:
			fmt.Fprintf(w, "  entities=%d", len(conns.Entity.Entities))
		case ormx.KindCollection:
			fmt.Fprintf(w, "  collections=%v", conns.Collection.CollectionNames())
		case ormx.KindRedis:
			fmt.Fprintf(w, "  addr=%s", conns.Redis.Addr())
		}
		fmt.Fprintln(w)
	}
}
