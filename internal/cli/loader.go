package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/catalogql/internal/config"
	"github.com/roach88/catalogql/internal/queryir"
	"github.com/roach88/catalogql/internal/querysql"
	"github.com/roach88/catalogql/internal/schema"
	"github.com/roach88/catalogql/internal/store"
)

// settings returns the loaded configuration, loading it on first use.
// Commands built without the root command still see defaults, the config
// file and the environment.
func (o *RootOptions) settings() (*config.Config, error) {
	if o.Config == nil {
		cfg, _, err := config.Load(o.ConfigPath)
		if err != nil {
			return nil, err
		}
		o.Config = cfg
	}
	return o.Config, nil
}

// schemaDir is --schema if set, otherwise schema.dir.
func (o *RootOptions) schemaDir() (string, error) {
	if o.SchemaDir != "" {
		return o.SchemaDir, nil
	}
	cfg, err := o.settings()
	if err != nil {
		return "", err
	}
	return cfg.Schema.Dir, nil
}

// database returns the driver and DSN after applying --driver and --db.
func (o *RootOptions) database() (string, string, error) {
	cfg, err := o.settings()
	if err != nil {
		return "", "", err
	}
	driver, dsn := cfg.Database.Driver, cfg.Database.DSN
	if o.Driver != "" {
		driver = o.Driver
	}
	if o.DSN != "" {
		dsn = o.DSN
	}
	return driver, dsn, nil
}

// LoadRegistry loads the CUE entity definitions from the schema directory.
func LoadRegistry(o *RootOptions) (*schema.Registry, error) {
	dir, err := o.schemaDir()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("schema directory: %w", err)
	}
	return schema.LoadDir(dir)
}

// OpenStore opens the configured database.
func OpenStore(o *RootOptions) (*store.Store, error) {
	driver, dsn, err := o.database()
	if err != nil {
		return nil, err
	}
	return store.Open(driver, dsn)
}

// NewEngine builds an engine over backend with the configured page cap.
func NewEngine(o *RootOptions, registry *schema.Registry, backend querysql.Backend) (*querysql.Engine, error) {
	cfg, err := o.settings()
	if err != nil {
		return nil, err
	}
	return querysql.New(registry, backend, querysql.WithMaxLimit(cfg.Paging.MaxLimit)), nil
}

// ReadRequest reads a request document from path, or from stdin when path
// is "-". Files ending in .json are decoded as JSON, everything else as
// YAML.
func ReadRequest(path string, stdin io.Reader) (*queryir.Request, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return queryir.DecodeRequestJSON(data)
	}
	return queryir.DecodeRequestYAML(data)
}

// requestArgs converts a decoded request to engine arguments.
func requestArgs(req *queryir.Request) querysql.Args {
	return querysql.Args{Filter: req.Filter, Sort: req.Sort, Pagination: req.Pagination}
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// fieldNames lists the fields of an entity in declaration order.
func fieldNames(ent *schema.Entity) []string {
	names := make([]string, len(ent.Fields))
	for i, f := range ent.Fields {
		names[i] = f.Name
	}
	return names
}
