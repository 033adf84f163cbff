package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"delta/internal/config"
	"delta/internal/errors"
	"delta/internal/logging"
	"delta/internal/object"
	"delta/internal/refs"
	"delta/internal/repo"
	"delta/internal/watch"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "delta",
	Short: "Delta is a minimal content-addressed version control system",
	Long: `Delta tracks snapshots of a file tree as immutable, content-addressed
commits linked into a history chain, with named branch pointers and a
movable HEAD. Stage files with add, seal them with commit, and move
between lines of history with branch and checkout.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "error", "Log level (debug, info, warn, error)")

	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Initialize a new delta repository",
		Long:  `Creates the repository layout in the current directory. Running init in an initialized repository is a reported no-op.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			branch, _ := cmd.Flags().GetString("branch")
			backend, _ := cmd.Flags().GetString("backend")

			if branch != "" {
				if err := refs.ValidateName(branch); err != nil {
					return err
				}
			}
			if backend != config.BackendFiles && backend != config.BackendBadger {
				return fmt.Errorf("unknown object backend %q (use %s or %s)", backend, config.BackendFiles, config.BackendBadger)
			}

			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}
			log, err := logging.NewLogger(logLevel)
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}

			r, err := repo.Init(cwd, repo.Options{
				Logger:        log.Logger,
				DefaultBranch: branch,
				ObjectBackend: backend,
			})
			if err != nil {
				return err
			}
			return r.Close()
		},
	}
	initCmd.Flags().String("branch", "", "Name of the default branch (master if unset)")
	initCmd.Flags().String("backend", config.BackendFiles, "Object store backend (files or badger)")

	var addCmd = &cobra.Command{
		Use:   "add <paths...>",
		Short: "Stage files for the next commit",
		Long:  `Hashes each path and records it in the staging area. Directories are staged recursively; use '.' to stage the whole working tree.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			return r.Add(args)
		},
	}

	var commitCmd = &cobra.Command{
		Use:   "commit",
		Short: "Seal the staging area into a new commit",
		RunE: func(cmd *cobra.Command, args []string) error {
			message, _ := cmd.Flags().GetString("message")

			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			fingerprint, err := r.Commit(message)
			if err != nil {
				return err
			}
			fmt.Println("Commit created:", fingerprint)
			return nil
		},
	}
	commitCmd.Flags().StringP("message", "m", "", "Commit message")
	commitCmd.MarkFlagRequired("message")

	var logCmd = &cobra.Command{
		Use:   "log",
		Short: "Show commit history, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			commits, err := r.Log()
			printHistory(os.Stdout, commits)
			// A truncated chain still printed what survives; the error
			// reports the damage.
			return err
		},
	}

	var statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the staging area",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			entries, err := r.Status()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("Staging area is empty.")
				return nil
			}

			green := color.New(color.FgGreen).SprintFunc()
			fmt.Println("Staging area:")
			for _, e := range entries {
				fmt.Printf("  %s  %s\n", green(e.Path), e.Fingerprint)
			}
			return nil
		},
	}

	var branchCmd = &cobra.Command{
		Use:   "branch [<name> | delete <name>]",
		Short: "List, create, or delete branches",
		Long: `With no arguments, lists all branches and marks the current one.
With a name, creates a branch pointing at the current commit.
With 'delete <name>', removes that branch pointer.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			switch {
			case len(args) == 0:
				branches, err := r.Branches()
				if err != nil {
					return err
				}
				if len(branches) == 0 {
					fmt.Println("No branches found.")
					return nil
				}
				green := color.New(color.FgGreen).SprintFunc()
				for _, b := range branches {
					if b.Current {
						fmt.Printf("* %s\n", green(b.Name))
					} else {
						fmt.Printf("  %s\n", b.Name)
					}
				}
				return nil
			case args[0] == "delete":
				// 'delete' is a keyword here, never a branch to create.
				if len(args) != 2 {
					return fmt.Errorf("branch name required, use: delta branch delete <name>")
				}
				return r.DeleteBranch(args[1])
			case len(args) == 1:
				return r.CreateBranch(args[0])
			default:
				return fmt.Errorf("unknown branch subcommand %q", args[0])
			}
		},
	}

	var checkoutCmd = &cobra.Command{
		Use:   "checkout <branch>",
		Short: "Switch HEAD to another branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			return r.Checkout(args[0])
		},
	}

	var cloneCmd = &cobra.Command{
		Use:   "clone <source> [<destination>]",
		Short: "Copy a repository into a new directory",
		Long:  `Duplicates a repository's directory tree, skipping paths matched by the source's ignore rules. The destination defaults to the source's base name.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			destination := ""
			if len(args) == 2 {
				destination = args[1]
			} else {
				abs, err := filepath.Abs(source)
				if err != nil {
					return fmt.Errorf("resolving source %s: %w", source, err)
				}
				destination = filepath.Base(abs)
			}

			if err := repo.Clone(source, destination); err != nil {
				return err
			}
			fmt.Printf("Cloned repository into %s\n", destination)
			return nil
		},
	}

	var watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Keep staged entries current while files change",
		Long:  `Watches the working tree and re-hashes staged files as they change, so the next commit freezes what is on disk. Stop with Ctrl+C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			log, err := logging.NewLogger(logLevel)
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			w, err := watch.New(r, log.Logger, os.Stdout)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Println("Watching for changes. Press Ctrl+C to stop.")
			if err := w.Run(ctx); err != nil && err != context.Canceled {
				return err
			}
			fmt.Println("Stopped watching.")
			return nil
		},
	}

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(branchCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(cloneCmd)
	rootCmd.AddCommand(watchCmd)
}

func openRepo() (*repo.Repository, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}

	log, err := logging.NewLogger(logLevel)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	return repo.Open(cwd, repo.Options{Logger: log.Logger})
}

// printHistory renders commits newest first, one color per line kind.
func printHistory(w io.Writer, commits []*object.Commit) {
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	blue := color.New(color.FgBlue).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	for _, c := range commits {
		fmt.Fprintf(w, "commit %s\n", yellow(c.Fingerprint))
		fmt.Fprintf(w, "Date:   %s\n", cyan(c.Time().Format("2006-01-02 15:04:05")))
		if !c.IsRoot() {
			fmt.Fprintf(w, "Parent: %s\n", blue(c.Parent))
		}
		fmt.Fprintf(w, "\n    %s\n\n", green(c.Message))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(errors.ExitCode(err))
	}
}
