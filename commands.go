package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"patientsearch/internal/config"
	"patientsearch/internal/domain"
)

// recentsCmd groups the commands that inspect the recent selections
var recentsCmd = &cobra.Command{
	Use:   "recents",
	Short: "Inspect or clear the recently selected patients",
}

var recentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recently selected patients, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runRecentsList,
}

var recentsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget all recently selected patients",
	Args:  cobra.NoArgs,
	RunE:  runRecentsClear,
}

// configCmd groups the configuration commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var force bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Long: `Writes the default configuration to the config file, or to the path
given with --config. An existing file is kept unless --force is set.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List the environment variables that override the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		usage, err := config.EnvUsage()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), usage)
		return nil
	},
}

func init() {
	recentsCmd.AddCommand(recentsListCmd, recentsClearCmd)

	configInitCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")
	configCmd.AddCommand(configInitCmd, configEnvCmd)

	rootCmd.AddCommand(recentsCmd, configCmd)
}

func runRecentsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, closeStore, err := openRecents(cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer closeStore()

	return printRecents(cmd.OutOrStdout(), store.Snapshot(), time.Now())
}

func printRecents(out io.Writer, patients []domain.PatientSummary, now time.Time) error {
	if len(patients) == 0 {
		_, err := fmt.Fprintln(out, "No recent searches")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tAGE\tPHONE\tEMAIL")
	for _, p := range patients {
		info := p.Info(now)
		id := p.PatientNumber
		if id == "" {
			id = string(p.ID)
		}
		fmt.Fprintln(w, strings.Join([]string{id, info.FullName, info.Age, info.Phone, info.Email}, "\t"))
	}
	return w.Flush()
}

func runRecentsClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, closeStore, err := openRecents(cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer closeStore()

	n := store.Len()
	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear recent searches: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d recent searches\n", n)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	svc := config.NewConfigService(configPath)

	if _, err := os.Stat(svc.Path()); err == nil && !force {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", svc.Path())
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := svc.Save(config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", svc.Path())
	return nil
}
