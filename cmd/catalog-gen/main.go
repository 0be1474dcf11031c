// Command catalog-gen writes a generated course catalog as JSON, suitable for
// CATALOG_PATH.
package main

import (
	"flag"
	"os"

	"kelasku/backend/internal/catalog"
	"kelasku/backend/internal/logging"
)

func main() {
	out := flag.String("out", "data/products.json", "output file")
	size := flag.Int("size", catalog.DefaultSize, "number of products")
	seed := flag.Int64("seed", catalog.DefaultSeed, "generator seed")
	flag.Parse()

	logging.Init(logging.Config{Format: "console"})
	logger := logging.New("catalog-gen")

	if *size < 1 {
		logger.Error().Int("size", *size).Msg("size must be positive")
		os.Exit(2)
	}

	products := catalog.Generate(*size, *seed)
	if err := catalog.WriteFile(*out, products); err != nil {
		logger.Fatal().Err(err).Str("out", *out).Msg("write catalog")
	}
	logger.Info().Str("out", *out).Int("products", len(products)).Int64("seed", *seed).Msg("catalog written")
}
