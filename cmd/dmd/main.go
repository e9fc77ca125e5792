package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	get "github.com/hashicorp/go-getter"
	"github.com/spf13/cobra"
)

func main() {
	var (
		base     string
		platform string
		ver      string
		out      string
	)

	cmd := &cobra.Command{
		Use:           "dmd",
		Short:         "Download minecraft-data protocol schemas for one version",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(*cobra.Command, []string) error {
			return download(base, platform, ver, out)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&base, "base", "https://github.com/PrismarineJS/minecraft-data.git", "base url")
	flags.StringVar(&platform, "platform", "pc", "platform of schemas")
	flags.StringVar(&ver, "version", "1.13.2", "version of schemas")
	flags.StringVarP(&out, "out", "o", "./scheme", "output dir path")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func download(base, platform, ver, out string) error {
	switch {
	case out == "":
		return errors.New("output dir path required")
	case platform == "":
		return errors.New("platform required")
	case ver == "":
		return errors.New("version required")
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	path := fmt.Sprintf("%s/%s-%s", out, platform, ver)

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("clean %s: %w", path, err)
	}

	log.Info("downloading schemas", "path", path)

	// e.g. https://github.com/PrismarineJS/minecraft-data/tree/master/data/pc/1.13.2
	url := fmt.Sprintf("git::%s//data/%s/%s", base, platform, ver)
	if err := get.Get(path, url); err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}

	log.Info("schemas downloaded", "path", path)
	return nil
}
