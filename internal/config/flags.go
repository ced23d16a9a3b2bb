package config

import "flag"

// Flags holds the command-line overrides shared by srctool subcommands.
// Zero values leave the loaded configuration untouched.
type Flags struct {
	Config      string
	Debug       bool
	Host        string
	APIKey      string
	Teamspace   string
	Model       string
	Revision    string
	Concurrency int
	Strict      bool
	OutDir      string
	Addr        string
	LogFile     string
}

// RegisterFlags binds the override flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.Host, "host", "", "Model API host")
	fs.StringVar(&f.APIKey, "key", "", "Model API key")
	fs.StringVar(&f.Teamspace, "teamspace", "", "Teamspace of the model")
	fs.StringVar(&f.Model, "model", "", "Model id")
	fs.StringVar(&f.Revision, "revision", "", "Revision id (default: master head)")
	fs.IntVar(&f.Concurrency, "concurrency", 0, "Assets imported in parallel")
	fs.BoolVar(&f.Strict, "strict", false, "Drop meshes with unusable index or position views")
	fs.StringVar(&f.OutDir, "out", "", "Output directory")
	fs.StringVar(&f.Addr, "addr", "", "Server listen address")
	fs.StringVar(&f.LogFile, "log-file", "", "Also log to this file")
	return f
}

// ConfigPath returns the explicit config path if provided via --config flag.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return f.Config
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Host != "" {
		cfg.API.Host = f.Host
	}
	if f.APIKey != "" {
		cfg.API.APIKey = f.APIKey
	}
	if f.Teamspace != "" {
		cfg.Model.Teamspace = f.Teamspace
	}
	if f.Model != "" {
		cfg.Model.Model = f.Model
	}
	if f.Revision != "" {
		cfg.Model.Revision = f.Revision
	}
	if f.Concurrency > 0 {
		cfg.Import.Concurrency = f.Concurrency
	}
	if f.Strict {
		cfg.Import.StrictMeshes = true
	}
	if f.OutDir != "" {
		cfg.Output.Dir = f.OutDir
	}
	if f.Addr != "" {
		cfg.Server.Addr = f.Addr
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
}
