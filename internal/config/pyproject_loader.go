package config

// PyprojectToml represents the structure of pyproject.toml
type PyprojectToml struct {
	Tool ToolConfig `toml:"tool"`
}

// ToolConfig represents the [tool] section
type ToolConfig struct {
	Pygather PygatherTomlConfig `toml:"pygather"`
}

// LoadPyprojectConfig loads configuration from the nearest pyproject.toml,
// or returns defaults when there is none
func LoadPyprojectConfig(startDir string) (*Config, error) {
	configPath, err := findPyprojectToml(startDir)
	if err != nil {
		return DefaultConfig(), nil
	}
	return NewTomlConfigLoader().LoadFile(configPath)
}

// findPyprojectToml walks up the directory tree to find pyproject.toml
func findPyprojectToml(startDir string) (string, error) {
	return walkUp(startDir, PyprojectFileName)
}
