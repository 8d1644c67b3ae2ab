package config

func NewMonitorConfigFileReader(path string) MonitorConfigReader {
	return func() (MonitorConfig, error) {
		return ReadMonitorConfig(path)
	}
}

func NewMonitorReader(cfg MonitorConfig) MonitorConfigReader {
	return func() (MonitorConfig, error) {
		return cfg, nil
	}
}

// NewTargetConfigFileReader reads the targets of the main config and, when it names
// one, the target directory.
func NewTargetConfigFileReader(monitorReader MonitorConfigReader, verifier VerifyFunc) TargetConfigReader {
	return targetConfigFileReader{
		monitorReader: monitorReader,
		verifier:      verifier,
	}
}

type targetConfigFileReader struct {
	monitorReader MonitorConfigReader
	verifier      VerifyFunc
}

func (reader targetConfigFileReader) Read() ([]TargetConfig, error) {
	monitorCfg, err := reader.monitorReader()
	if err != nil {
		return nil, err
	}
	cfgs := monitorCfg.Targets
	if monitorCfg.TargetDir != "" {
		dirCfgs, err := ReadTargetConfigs(monitorCfg.TargetDir)
		if err != nil && err != ErrNoConfigFiles {
			return nil, err
		}
		cfgs = append(cfgs, dirCfgs...)
	}
	if len(cfgs) == 0 {
		return nil, ErrNoConfigFiles
	}
	if reader.verifier != nil {
		if err := reader.verifier(cfgs); err != nil {
			return cfgs, err
		}
	}
	return cfgs, nil
}
