package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/spf13/cobra"

	"gitlab.com/euphonyd/euphony/src/internal/artwork"
	"gitlab.com/euphonyd/euphony/src/internal/config"
	"gitlab.com/euphonyd/euphony/src/internal/store"
)

var audioExtensions = map[string]bool{
	".flac": true,
	".m4a":  true,
	".mp3":  true,
	".ogg":  true,
}

// importArtCmd represents the import-art command
var importArtCmd = &cobra.Command{
	Use:   "import-art MUSICDIR",
	Short: "Seed the artwork cache from embedded covers",
	Long: `Walk a music directory and copy the cover images embedded in the audio
files into the artwork cache, so remotes get artwork without any provider
lookups`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := importArt(args[0]); err != nil {
			fmt.Printf("%v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(importArtCmd)
}

func importArt(musicDir string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	db, err := store.Open(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	cache := artwork.NewCache(db)

	var scanned, imported int
	err = filepath.WalkDir(musicDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() || !audioExtensions[strings.ToLower(filepath.Ext(path))] {
			return err
		}
		scanned++
		if seedFromFile(cache, path) {
			imported++
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("%d files scanned, %d covers imported\n", scanned, imported)
	return nil
}

// seedFromFile stores the file's embedded cover, if it has one and the pair
// is not cached yet
func seedFromFile(cache *artwork.Cache, path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return false
	}
	pic := meta.Picture()
	if pic == nil || meta.Artist() == "" || meta.Album() == "" {
		return false
	}
	added, err := cache.Seed(meta.Artist(), meta.Album(), pic.Data)
	if err != nil {
		fmt.Printf("skipping %s: %v\n", path, err)
		return false
	}
	return added
}
