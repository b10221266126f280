package config

const (
	defaultDataDir           = "~/.local/share/doroending"
	defaultImageMaxBytes     = 10 * 1024 * 1024
	defaultImageTimeout      = 30
	defaultMaxFilenameLength = 255
	defaultBootstrapOwner    = "SeeWhyRan"
	defaultBootstrapRepo     = "doroending_pic_assets"
	defaultMirrorOwner       = "seewhy_ran"
	defaultMirrorRepo        = "doroending_pic_assets"
	defaultBootstrapTimeout  = 30
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Images: Images{
			MaxBytes:          defaultImageMaxBytes,
			TimeoutSeconds:    defaultImageTimeout,
			MaxFilenameLength: defaultMaxFilenameLength,
		},
		Bootstrap: Bootstrap{
			Enabled:           true,
			Owner:             defaultBootstrapOwner,
			Repo:              defaultBootstrapRepo,
			UseMirrorFallback: true,
			MirrorOwner:       defaultMirrorOwner,
			MirrorRepo:        defaultMirrorRepo,
			TimeoutSeconds:    defaultBootstrapTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
