package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/reelforge/reelforge/internal/client"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type GlobalOptions struct {
	ConfigFilePath string
	ServerUrl      string
	Token          string
	User           string
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		ConfigFilePath: client.DefaultClientConfigPath(),
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigFilePath, "config", "c", o.ConfigFilePath, "Path to the client config file")
	fs.StringVarP(&o.ServerUrl, "server-url", "u", o.ServerUrl, "Address of the server, overrides the config file")
	fs.StringVar(&o.Token, "token", o.Token, "Bearer token, overrides the config file")
	fs.StringVar(&o.User, "user", o.User, "User id sent to servers running without authentication")
}

func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	return nil
}

// Client builds an API client from the config file with the flags applied
// on top. A missing config file is fine when --server-url is given.
func (o *GlobalOptions) Client() (*client.Client, error) {
	config := &client.Config{}
	parsed, err := client.ParseConfigFile(o.ConfigFilePath)
	switch {
	case err == nil:
		config = parsed
	case errors.Is(err, fs.ErrNotExist) && o.ServerUrl != "":
	default:
		return nil, fmt.Errorf("creating client: %w", err)
	}

	if o.ServerUrl != "" {
		config.Service.Server = o.ServerUrl
	}
	if o.Token != "" {
		config.Service.Token = o.Token
	}
	if o.User != "" {
		config.Service.User = o.User
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	return client.NewFromConfig(config), nil
}
