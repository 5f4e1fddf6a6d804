// Copyright (c) The stackenv Authors.
// Licensed under the Apache License 2.0.

package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/key4hep/stackenv/pkg/envmods"
	"github.com/key4hep/stackenv/pkg/gitref"
	"github.com/key4hep/stackenv/pkg/ilcsoft"
	"github.com/key4hep/stackenv/pkg/recipe"
	"github.com/key4hep/stackenv/pkg/runner"
	"github.com/key4hep/stackenv/pkg/setup"
)

// DefaultLinkEnvVar names the environment variable conventionally holding
// the path the freshest setup script gets symlinked to.
const DefaultLinkEnvVar = "K4_LATEST_SETUP_PATH"

func loadStack(stackFile string) (*recipe.Manifest, *recipe.Graph, error) {
	m, err := recipe.LoadManifest(stackFile)
	if err != nil {
		return nil, nil, err
	}
	reg := recipe.NewRegistry()
	if err := m.Register(reg); err != nil {
		return nil, nil, err
	}
	g, err := recipe.BuildGraph(reg.List())
	if err != nil {
		return nil, nil, err
	}
	return m, g, nil
}

func NewSetupCommand(logger *log.Logger) *cobra.Command {
	var (
		stackFile  string
		prefix     string
		linkEnvVar string
	)
	compiler := setup.FromEnv()

	cmd := &cobra.Command{
		Use: "setup --prefix <dir> [flags]",
		Example: "stackenv setup --prefix /opt/stack\n" +
			"stackenv setup --prefix /opt/stack --stack nightly.yaml --link-env K4_LATEST_SETUP_PATH",
		Short: "Write the consolidated setup.sh for a built stack.",
		Long: "Setup walks the stack's dependency graph bottom-up, collects every package's environment\n" +
			"contribution and writes <prefix>/setup.sh. The script never bakes in the current environment:\n" +
			"path-like variables render as self-referential prepends, so it composes with whatever\n" +
			"environment sources it. If --link-env names a variable holding a path, a symlink to the\n" +
			"script is created there best-effort.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if prefix == "" {
				return errors.New("'prefix' flag cannot be empty")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			m, g, err := loadStack(stackFile)
			if err != nil {
				return err
			}
			w := setup.NewWriter(logger, m.Stack, g, compiler, linkEnvVar)
			if err := w.Write(prefix); err != nil {
				return errors.Wrap(err, "setup")
			}
			logger.Printf("wrote %s/%s for stack %s", prefix, setup.ScriptName, m.Stack)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&stackFile, "stack", "stack.yaml", "Path to the stack manifest.")
	flags.StringVar(&prefix, "prefix", "", "Install prefix the stack was built into; setup.sh is written here.")
	flags.StringVar(&linkEnvVar, "link-env", DefaultLinkEnvVar, "Name of the environment variable holding the symlink target for the script. Empty disables symlinking.")
	flags.StringVar(&compiler.CC, "cc", compiler.CC, "Path to the C compiler to pin in the script. Defaults to $CC.")
	flags.StringVar(&compiler.CXX, "cxx", compiler.CXX, "Path to the C++ compiler to pin in the script. Defaults to $CXX.")
	flags.StringVar(&compiler.F77, "f77", compiler.F77, "Path to the Fortran 77 compiler to pin in the script. Defaults to $F77.")
	flags.StringVar(&compiler.FC, "fc", compiler.FC, "Path to the Fortran compiler to pin in the script. Defaults to $FC.")
	return cmd
}

func NewPinCommand(logger *log.Logger) *cobra.Command {
	var (
		apiTemplate string
		useCurl     bool
		curlCmd     string
		useGit      bool
	)

	cmd := &cobra.Command{
		Use: "pin <owner/repo>",
		Example: "stackenv pin key4hep/EDM4hep\n" +
			"stackenv pin key4hep/EDM4hep --curl\n" +
			"stackenv pin https://gitlab.cern.ch/key4hep/whizard.git --git",
		Short: "Print the latest commit of a repository's default branch.",
		Long: "Pin resolves the commit the recipes should pin a moving branch to. By default it asks a\n" +
			"GitHub-like API for the bare SHA; --git lists the refs of any git remote instead, and --curl\n" +
			"shells out to the site-configured curl. GITHUB_USER and GITHUB_TOKEN are used for basic auth\n" +
			"when both are set; unauthenticated API access is rate-limited quite strictly.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("pin takes exactly one repository argument")
			}
			if useGit && useCurl {
				return errors.New("--git and --curl are mutually exclusive")
			}
			if !useGit {
				if _, _, err := parseRepoInfo(args[0]); err != nil {
					return err
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				sha string
				err error
			)
			switch {
			case useGit:
				sha, err = gitref.RemoteHeadResolver{}.LatestCommit(ctx, args[0])
			case useCurl:
				r, rerr := runner.NewRunner(ctx, curlCmd)
				if rerr != nil {
					return rerr
				}
				if verbose {
					r.Verbose()
				}
				c, cerr := gitref.NewCurlResolver(r, apiTemplate)
				if cerr != nil {
					return cerr
				}
				sha, err = c.LatestCommit(ctx, args[0])
			default:
				r, rerr := gitref.NewResolver(http.DefaultClient, apiTemplate)
				if rerr != nil {
					return rerr
				}
				sha, err = r.LatestCommit(ctx, args[0])
			}
			if err != nil {
				return errors.Wrapf(err, "pin %s", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), sha)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&apiTemplate, "api", gitref.DefaultAPITemplate, "URL template of the commits API; %s is substituted with owner/repo.")
	flags.BoolVar(&useCurl, "curl", false, "Shell out to curl instead of using the native HTTP client.")
	flags.StringVar(&curlCmd, "curl-cmd", "curl", "Path to the curl command, used with --curl.")
	flags.BoolVar(&useGit, "git", false, "Treat the argument as a git remote URL and resolve its HEAD by listing refs.")
	return cmd
}

func NewURLCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use: "url <release-url> <version>",
		Example: "stackenv url https://github.com/iLCSoft/LCIO/archive/v02-17.tar.gz 2.17.1\n" +
			"stackenv url https://github.com/iLCSoft/LCIO/archive/v02-17.tar.gz 1.2",
		Short: "Translate a version into an iLCSoft-convention download URL.",
		Long: "Url derives the release tarball URL for a version following the iLCSoft naming convention:\n" +
			"dash-joined zero-padded components, patch omitted when zero (v01-12, v01-12-01). The base is\n" +
			"taken from any existing release URL of the project by dropping its last path segment.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errors.New("url takes a release URL and a version")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := ilcsoft.ParseVersion(args[1])
			if err != nil {
				return err
			}
			url, err := ilcsoft.URLForVersion(args[0], v)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
	return cmd
}

func NewListCommand(logger *log.Logger) *cobra.Command {
	var stackFile string

	cmd := &cobra.Command{
		Use:   "list [<recipe>]",
		Short: "List the recipes of a stack manifest.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return errors.New("too many arguments except none or recipe name")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := recipe.LoadManifest(stackFile)
			if err != nil {
				return err
			}
			reg := recipe.NewRegistry()
			if err := m.Register(reg); err != nil {
				return err
			}
			var target string
			if len(args) > 0 {
				target = args[0]
			}
			return recipe.PrintTab(target, reg.List(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&stackFile, "stack", "stack.yaml", "Path to the stack manifest.")
	return cmd
}

func NewEnvCommand(logger *log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env <setup.sh>",
		Short: "Show the environment a setup script would produce when sourced.",
		Long: "Env sources the given setup script against the current environment, the way `. setup.sh`\n" +
			"would, and prints every variable the script assigns with its final value.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("env takes exactly one setup script argument")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrapf(err, "open %s", args[0])
			}
			defer func() { _ = f.Close() }()

			env, err := envmods.Eval(cmd.Context(), f, os.Environ()...)
			if err != nil {
				return errors.Wrapf(err, "eval %s", args[0])
			}
			for _, kv := range env {
				fmt.Fprintln(cmd.OutOrStdout(), kv)
			}
			return nil
		},
	}
	return cmd
}
