package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mdunn/bibfetch/internal/citecache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the persistent citation cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached citations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := openCache()
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		defer cache.Close()

		citations, err := cache.List()
		if err != nil {
			exitWithError(ExitError, "listing cache: %v", err)
		}
		if jsonOutput {
			type item struct {
				Identifier string `json:"identifier"`
				FetchedAt  string `json:"fetched_at"`
			}
			items := make([]item, len(citations))
			for i, c := range citations {
				items[i] = item{Identifier: c.Identifier, FetchedAt: c.FetchedAt.Format("2006-01-02")}
			}
			outputJSON(items)
			return nil
		}
		for _, c := range citations {
			fmt.Printf("%s\t%s\n", c.FetchedAt.Format("2006-01-02"), c.Identifier)
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached citations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := openCache()
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		defer cache.Close()

		if err := cache.Clear(); err != nil {
			exitWithError(ExitError, "clearing cache: %v", err)
		}
		if !jsonOutput {
			fmt.Println("cache cleared")
		}
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func openCache() (*citecache.Cache, error) {
	path, err := citecache.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("locating cache: %w", err)
	}
	return citecache.Open(path)
}
