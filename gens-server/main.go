// This binary serves multi-resolution genomic track data out of
// registered, indexed track files.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/pkg/profile"

	"github.com/Jakob37/gens/api"
	"github.com/Jakob37/gens/internal/gcs"
	"github.com/Jakob37/gens/samples"
	"github.com/Jakob37/gens/tabix"
)

var (
	port     = flag.Int("port", 8080, "HTTP service port")
	registry = flag.String("registry", "samples.json", "sample registry file")

	gcsMode  = flag.String("gcs", "", "read gs:// track files: 'default' for application default credentials, 'public' for unauthenticated reads")
	gcsToken = flag.String("gcs_token", "", "OAuth2 bearer token for gs:// track files, overrides -gcs")

	profileMode = flag.Bool("profile", false, "write a CPU profile next to the binary")
)

func main() {
	flag.Parse()

	if *profileMode {
		defer profile.Start(profile.ProfilePath(".")).Stop()
	}

	reg, err := samples.OpenRegistry(*registry)
	if err != nil {
		log.Fatalf("Opening sample registry: %v", err)
	}

	opener, err := newOpener()
	if err != nil {
		log.Fatalf("Creating storage client: %v", err)
	}

	server := api.NewServer(reg, tabix.NewCache(opener))

	router := gin.Default()
	server.Export(router)

	if err := router.Run(fmt.Sprintf(":%d", *port)); err != nil {
		log.Fatalf("HTTP server returned an error: %v", err)
	}
}

func newOpener() (tabix.Opener, error) {
	ctx := context.Background()
	switch {
	case *gcsToken != "":
		client, err := gcs.NewStaticTokenClient(ctx, *gcsToken)
		if err != nil {
			return nil, err
		}
		return gcs.NewOpener(ctx, client), nil
	case *gcsMode == "default":
		client, err := gcs.NewDefaultClient(ctx)
		if err != nil {
			return nil, err
		}
		return gcs.NewOpener(ctx, client), nil
	case *gcsMode == "public":
		client, err := gcs.NewPublicClient(ctx)
		if err != nil {
			return nil, err
		}
		return gcs.NewOpener(ctx, client), nil
	case *gcsMode == "":
		return tabix.OpenLocal, nil
	}
	return nil, fmt.Errorf("unknown -gcs mode %q", *gcsMode)
}
