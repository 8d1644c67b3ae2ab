package config

import (
	"errors"
	"fmt"
)

type DuplicateTarget struct {
	Cfg1Path string
	Cfg2Path string
	Name     string
}

func (err *DuplicateTarget) Error() string {
	return fmt.Sprintf("target '%s' has been found in %s and %s", err.Name, err.Cfg1Path, err.Cfg2Path)
}

type InvalidTarget struct {
	CfgPath string
	Name    string
	Reason  string
}

func (err *InvalidTarget) Error() string {
	return fmt.Sprintf("target '%s' in %s: %s", err.Name, err.CfgPath, err.Reason)
}

// VerifyTargets reports unnamed or hostless targets and names used more than once.
func VerifyTargets(cfgs []TargetConfig) []error {
	errs := []error{}
	names := make(map[string]int)
	for index, cfg := range cfgs {
		if cfg.Name == "" {
			errs = append(errs, &InvalidTarget{CfgPath: cfg.FilePath, Reason: "missing name"})
			continue
		}
		if cfg.Host == "" {
			errs = append(errs, &InvalidTarget{CfgPath: cfg.FilePath, Name: cfg.Name, Reason: "missing host"})
		}
		otherIndex, ok := names[cfg.Name]
		if ok {
			errs = append(errs, &DuplicateTarget{
				Name:     cfg.Name,
				Cfg1Path: cfg.FilePath,
				Cfg2Path: cfgs[otherIndex].FilePath,
			})
			continue
		}
		names[cfg.Name] = index
	}
	return errs
}

// Verify is VerifyTargets as a VerifyFunc.
func Verify(cfgs []TargetConfig) error {
	return errors.Join(VerifyTargets(cfgs)...)
}
