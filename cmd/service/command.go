package service

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/quka-ai/studymate/app/core"
	v1 "github.com/quka-ai/studymate/app/logic/v1"
	"github.com/quka-ai/studymate/app/logic/v1/process"
	"github.com/quka-ai/studymate/pkg/plugins"
)

type Options struct {
	ConfigPath string
	Init       string
}

func (o *Options) AddFlags(flagSet *pflag.FlagSet) {
	// Add flags for generic options
	flagSet.StringVarP(&o.ConfigPath, "config", "c", "", "init api by given config, env STUDYMATE_* is used when empty")
	flagSet.StringVarP(&o.Init, "init", "i", "selfhost", "start service after initialize")
}

func loadConfig(opts *Options) core.CoreConfig {
	if opts.ConfigPath == "" {
		return core.LoadBaseConfigFromENV()
	}
	return core.MustLoadBaseConfig(opts.ConfigPath)
}

func NewCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "service",
		Short: "study assistant http service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func Run(opts *Options) error {
	app := core.MustSetupCore(loadConfig(opts))
	plugins.Setup(app.InstallPlugins, opts.Init)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proc := process.NewProcess(app)
	proc.Start()
	defer proc.Stop()

	return serve(ctx, app)
}

func NewProcessCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "process",
		Short: "audio worker and cron jobs only",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunProcess(opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func RunProcess(opts *Options) error {
	app := core.MustSetupCore(loadConfig(opts))
	plugins.Setup(app.InstallPlugins, opts.Init)
	proc := process.NewProcess(app)
	proc.Start()
	fmt.Println("Process starting...")
	sigs := make(chan os.Signal, 1)
	// 监听 os.Interrupt (Ctrl+C) 和 syscall.SIGTERM (kill)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	// 阻塞等待信号
	<-sigs
	proc.Stop()
	return nil
}

type TokenOptions struct {
	Options
	UserID string
}

// NewTokenCommand prints a jwt for a user, used to bootstrap clients of a self hosted instance.
func NewTokenCommand() *cobra.Command {
	opts := &TokenOptions{}
	cmd := &cobra.Command{
		Use:   "token",
		Short: "issue an access token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := core.MustSetupCore(loadConfig(&opts.Options))
			plugins.Setup(app.InstallPlugins, opts.Init)
			token, err := v1.NewAuthLogic(app).IssueToken(opts.UserID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	opts.AddFlags(cmd.Flags())
	cmd.Flags().StringVarP(&opts.UserID, "user", "u", "", "user id the token is issued for")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
