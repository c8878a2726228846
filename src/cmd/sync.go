package cmd

import (
	"github.com/guildgate/syncer/src/rolesync"
	"github.com/guildgate/syncer/src/utils/logger"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Stream transfer events and keep guild roles in line with wallet state",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		controller, err := rolesync.NewController(conf)
		if err != nil {
			return
		}

		err = controller.Start()
		if err != nil {
			return
		}

		select {
		case <-controller.CtxRunning.Done():
		case <-applicationCtx.Done():
		}

		controller.StopWait()

		return
	},
	PostRunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("root-cmd")
		log.Debug("Finished sync command")
		applicationCtxCancel()
		return
	},
}
