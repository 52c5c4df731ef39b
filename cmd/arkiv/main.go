package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/arkivio/arkiv/internal/api"
	"github.com/arkivio/arkiv/internal/blobstore/minio"
	"github.com/arkivio/arkiv/internal/catalog"
	"github.com/arkivio/arkiv/internal/config"
	"github.com/arkivio/arkiv/internal/docstore"
	"github.com/arkivio/arkiv/internal/docstore/mysql"
	"github.com/arkivio/arkiv/internal/docstore/postgres"
	"github.com/arkivio/arkiv/internal/logger"
	"github.com/arkivio/arkiv/internal/searchindex"
	"github.com/arkivio/arkiv/internal/searchindex/redis"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "serve" {
		serve()
		return
	}
	fmt.Println("arkiv v0.1.0")
	fmt.Println("Usage: arkiv serve")
}

func serve() {
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})

	ctx := context.Background()

	blobs, err := minio.New(ctx, cfg.BlobStore.Blobstore())
	if err != nil {
		log.ErrorWith("blob store unavailable", err, nil)
		os.Exit(1)
	}
	defer blobs.Close()

	docs, err := openDocStore(ctx, cfg)
	if err != nil {
		log.ErrorWith("document store unavailable", err, nil)
		os.Exit(1)
	}
	defer docs.Close()

	// The search index is a secondary store: when it cannot be reached the
	// catalog runs without search instead of refusing to start.
	var index searchindex.Index = searchindex.Noop{}
	if cfg.Search.Enabled {
		idx, err := redis.New(ctx, cfg.Search.Searchindex())
		if err != nil {
			log.WarnWith("search index unavailable, running without search", err, nil)
		} else {
			index = idx
			defer idx.Close()
		}
	}

	svc := catalog.New(blobs, docs, index, cfg.BlobStore.Bucket, log)

	srv := api.NewServer(svc, log)
	srv.SetHealthChecks(map[string]api.Pinger{
		"blobstore": blobs,
		"docstore":  docs,
	})

	addr := cfg.Server.Addr()
	log.InfoWith("starting arkiv server", map[string]interface{}{"addr": addr})
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.ErrorWith("server error", err, nil)
		os.Exit(1)
	}
}

func openDocStore(ctx context.Context, cfg *config.Config) (docstore.Store, error) {
	dsCfg := cfg.DocStore.Docstore()
	switch dsCfg.Engine {
	case docstore.EnginePostgres:
		return postgres.New(ctx, dsCfg)
	case docstore.EngineMySQL:
		return mysql.New(ctx, dsCfg)
	default:
		return nil, fmt.Errorf("unknown docstore engine %q", dsCfg.Engine)
	}
}
