package main

import (
	"log"

	"github.com/erikgaas/folio"
)

func main() {
	cfg := folio.SiteConfig{}
	if path := folio.EnvOr("FOLIO_CONFIG", ""); path != "" {
		loaded, err := folio.LoadConfig(path)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}
	cfg = folio.ConfigFromEnv(cfg)

	app := folio.New(cfg, defaultViews())
	defer app.Close()

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
