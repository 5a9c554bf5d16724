package platform

import (
	"context"
	"fmt"
	"strings"

	"github.com/dominic-sylvester/trilium/pkg/adapters/fs"
	"github.com/dominic-sylvester/trilium/pkg/adapters/remote"
	"github.com/dominic-sylvester/trilium/pkg/core"
)

// Init builds and initializes the repository for uri. The uri is a vault
// path for the fs adapter and a base URL for the remote one.
func Init(ctx context.Context, uri string, opts ...Option) (core.Repository, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return initRepository(ctx, uri, o)
}

func initRepository(ctx context.Context, uri string, o *options) (core.Repository, error) {
	if o.repository != nil {
		return o.repository, nil
	}

	var repo core.Repository
	var err error

	switch adapterFor(uri, o) {
	case "fs":
		repo = initFS(uri, o)
	case "remote":
		repo, err = initRemote(uri, o)
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
	if err != nil {
		return nil, err
	}

	if err := repo.Initialize(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func adapterFor(uri string, o *options) string {
	if o.adapter != "" {
		return o.adapter
	}
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return "remote"
	}
	return "fs"
}

func initFS(path string, o *options) *fs.Repository {
	if o.logger != nil && o.readOnly {
		o.logger.Debug("opening vault read-only", "path", path)
	}
	return fs.NewRepository(fs.Config{
		Path:         path,
		MustExist:    o.mustExist,
		ReadOnly:     o.readOnly,
		SystemDir:    o.systemDir,
		Pattern:      o.pattern,
		Logger:       o.logger,
		ErrorHandler: o.errorHandler,
	})
}

func initRemote(baseURL string, o *options) (*remote.Repository, error) {
	return remote.NewRepository(remote.Config{
		BaseURL:    baseURL,
		Timeout:    o.timeout,
		UserAgent:  o.userAgent,
		HTTPClient: o.httpClient,
		Logger:     o.logger,
	})
}
