package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmunix/igrab/internal/api"
)

var infoCmd = &cobra.Command{
	Use:   "info <username>",
	Short: "Show profile preview metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	username := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	client := api.NewClient(cfg.API.URL, api.WithLogger(logger))

	p, err := client.ProfileInfo(cmd.Context(), username)
	if errors.Is(err, api.ErrProfileNotFound) {
		fmt.Printf("No profile found for %s\n", username)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Username:  %s\n", p.Username)
	fmt.Printf("Full name: %s\n", p.FullName)
	fmt.Printf("Followers: %d\n", p.Followers)
	fmt.Printf("Posts:     %d\n", p.Posts)
	fmt.Printf("Private:   %v\n", p.IsPrivate)
	if p.Biography != "" {
		bio := p.Biography
		if len(bio) > 100 {
			bio = bio[:100] + "..."
		}
		fmt.Printf("Biography: %s\n", bio)
	}
	return nil
}
