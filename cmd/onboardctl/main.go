// Command onboardctl manages the task library and onboarding templates of
// the onboarding service and runs the interactive template composer.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"onboarding-platform/backend/internal/appstate"
	"onboarding-platform/backend/internal/client"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type app struct {
	v     *viper.Viper
	state *appstate.Onboarding
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	var configFile string

	root := &cobra.Command{
		Use:           "onboardctl",
		Short:         "Manage onboarding task templates and templates",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd, configFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default $HOME/.onboardctl.yaml)")
	flags.String("base-url", "http://localhost:8080", "onboarding API base URL")
	flags.String("token", "", "bearer token for the API")
	_ = a.v.BindPFlag("base_url", flags.Lookup("base-url"))
	_ = a.v.BindPFlag("token", flags.Lookup("token"))

	root.AddCommand(newLibraryCmd(a), newTemplatesCmd(a), newComposeCmd(a))
	return root
}

func (a *app) init(cmd *cobra.Command, configFile string) error {
	a.v.SetEnvPrefix("ONBOARDCTL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if configFile != "" {
		a.v.SetConfigFile(configFile)
	} else {
		a.v.SetConfigName(".onboardctl")
		a.v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(home)
		}
	}
	if err := a.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var opts []client.Option
	if token := a.v.GetString("token"); token != "" {
		opts = append(opts, client.WithToken(token))
	}
	c, err := client.New(a.v.GetString("base_url"), opts...)
	if err != nil {
		return err
	}
	a.state = appstate.New(c)
	return nil
}
