package cli

import (
	"context"

	"github.com/calvinalkan/cuckoodo/internal/config"

	flag "github.com/spf13/pflag"
)

// InitCmd returns the init command.
func InitCmd(cfg *config.Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("init", flag.ContinueOnError),
		Usage: "init",
		Short: "Write a commented " + config.ConfigFileName,
		Long:  "Write a commented default " + config.ConfigFileName + " to the working directory. An existing file is never overwritten.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			path, err := config.WriteDefault(cfg.EffectiveCwd)
			if err != nil {
				return err
			}

			io.Println("wrote", path)

			return nil
		},
	}
}
