package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	flagConfig  = "config"
	flagOutput  = "output"
	flagNoColor = "no-color"
	flagVerbose = "verbose"

	outputText    = "text"
	outputJSON    = "json"
	outputCandump = "candump"
	outputHex     = "hex"
	outputBase64  = "base64"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

type rootOptions struct {
	configFile string
	output     string
	noColor    bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "j1939dump",
		Short:         "A CLI for decoding SAE J1939 identifiers, NAMEs, signals and bus traffic.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(v, opts.configFile); err != nil {
				return err
			}
			if err := presetFlags(v, cmd.Flags()); err != nil {
				return err
			}
			if opts.noColor {
				color.NoColor = true
			}
			if opts.verbose {
				log.SetFlags(log.Lshortfile | log.LstdFlags)
				log.Printf("# using config file: %v", v.ConfigFileUsed())
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configFile, flagConfig, "", "config file (default is $HOME/.j1939dump.yaml)")
	pf.StringVarP(&opts.output, flagOutput, "o", outputText, "output format (text, json). dump supports also candump, hex, base64")
	pf.BoolVar(&opts.noColor, flagNoColor, false, "disable colored output")
	pf.BoolVarP(&opts.verbose, flagVerbose, "v", false, "provide verbose output")

	cmd.AddCommand(
		newIDCmd(opts),
		newNameCmd(opts),
		newSignalCmd(opts),
		newSlotCmd(opts),
		newDumpCmd(opts),
	)
	return cmd
}

// initConfig reads optional config file. Flags can also be set with `J1939_` prefixed environment variables, for
// example J1939_SERIAL_BAUD=250000 sets `--serial-baud`.
func initConfig(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}
		v.AddConfigPath(home)
		v.SetConfigName(".j1939dump")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("J1939")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil // config file is optional
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	return nil
}

// presetFlags sets flags that were not given on command line from config file or environment.
func presetFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed || f.Name == flagConfig {
			return
		}
		if !v.IsSet(f.Name) || v.GetString(f.Name) == "" {
			return
		}
		if sErr := flags.Set(f.Name, v.GetString(f.Name)); sErr != nil {
			err = fmt.Errorf("invalid value for flag %v from config: %w", f.Name, sErr)
		}
	})
	return err
}

func checkOutput(output string, allowed ...string) error {
	for _, a := range allowed {
		if output == a {
			return nil
		}
	}
	return fmt.Errorf("unsupported output format: %v, supported: %v", output, strings.Join(allowed, ", "))
}

type textWriter interface {
	writeText(w io.Writer) error
}

func writeResult(w io.Writer, output string, result textWriter) error {
	if output == outputJSON {
		return json.NewEncoder(w).Encode(result)
	}
	return result.writeText(w)
}

var (
	blue  = color.New(color.FgHiBlue).SprintfFunc()
	red   = color.New(color.FgRed).SprintfFunc()
	green = color.New(color.FgGreen).SprintfFunc()
)
