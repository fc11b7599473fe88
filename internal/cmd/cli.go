// Package cmd holds the command-line commands.
package cmd

// CLI is the root command line.
type CLI struct {
	Config string `help:"Path to a JSON, YAML or TOML config file" type:"path" env:"DEPTHKEYS_CONFIG"`
	Log    Log    `embed:"" prefix:"log."`

	Serve  Serve         `cmd:"" default:"withargs" help:"Run the depth keyboard"`
	Layout LayoutCommand `cmd:"" help:"Inspect and scaffold key layout files"`
	Cfg    ConfigCommand `cmd:"" name:"config" help:"Manage configuration files"`
}

// Log configures logging.
type Log struct {
	Level  string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info" env:"DEPTHKEYS_LOG_LEVEL"`
	File   string `help:"Write logs to this file instead of the console" env:"DEPTHKEYS_LOG_FILE"`
	Format string `help:"Log format" enum:"text,json" default:"text" env:"DEPTHKEYS_LOG_FORMAT"`
}
