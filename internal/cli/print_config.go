package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/calvinalkan/cuckoodo/internal/config"

	flag "github.com/spf13/pflag"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(cfg *config.Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration and where it was loaded from. The token is masked.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execPrintConfig(io, cfg)
		},
	}
}

func execPrintConfig(io *IO, cfg *config.Config) error {
	io.Println("effective_cwd=" + cfg.EffectiveCwd)

	if cfg.Token != "" {
		io.Println("token=" + cfg.MaskedToken())
	}

	io.Println("store.driver=" + cfg.Store.Driver)

	if cfg.StorePathAbs != "" {
		io.Println("store.path=" + cfg.StorePathAbs)
	}

	io.Println("log.level=" + cfg.Log.Level)
	io.Println("log.format=" + cfg.Log.Format)
	io.Println("poll_timeout=" + strconv.Itoa(cfg.PollTimeout))

	for _, kind := range cfg.AliasKinds() {
		io.Println("aliases." + kind + "=" + strings.Join(cfg.Aliases[kind], ","))
	}

	io.Println("")
	io.Println("# sources")

	src := cfg.Sources
	if src.Global == "" && src.Project == "" && len(src.Env) == 0 && len(src.Flags) == 0 {
		io.Println("(defaults only)")

		return nil
	}

	if src.Global != "" {
		io.Println("global_config=" + src.Global)
	}

	if src.Project != "" {
		io.Println("project_config=" + src.Project)
	}

	if len(src.Env) > 0 {
		io.Println("env=" + strings.Join(src.Env, ","))
	}

	if len(src.Flags) > 0 {
		io.Println("flags=" + strings.Join(src.Flags, ","))
	}

	return nil
}
