package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mvp-joe/project-cortex/internal/ir"
)

var (
	// ErrInvalidJobs indicates a negative worker count.
	ErrInvalidJobs = errors.New("invalid jobs")

	// ErrInvalidLanguage indicates an unrecognized language name.
	ErrInvalidLanguage = errors.New("invalid language")

	// ErrInvalidTimeout indicates a negative semantic indexer timeout.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrEmptyBinary indicates an enabled semantic indexer with no binary set.
	ErrEmptyBinary = errors.New("empty indexer binary")

	// ErrEmptyStateDir indicates a blank store state directory.
	ErrEmptyStateDir = errors.New("empty state dir")

	// ErrInvalidRetention indicates a negative retention window.
	ErrInvalidRetention = errors.New("invalid retention")
)

var knownLanguages = map[string]bool{
	string(ir.LangGo):         true,
	string(ir.LangTypeScript): true,
	string(ir.LangJavaScript): true,
	string(ir.LangPython):     true,
}

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateScan(&cfg.Scan); err != nil {
		errs = append(errs, err)
	}
	if err := validateSemantic(&cfg.Semantic); err != nil {
		errs = append(errs, err)
	}
	if err := validateStore(&cfg.Store); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateScan(cfg *ScanConfig) error {
	var errs []error

	if cfg.Jobs < 0 {
		errs = append(errs, fmt.Errorf("%w: jobs cannot be negative, got %d", ErrInvalidJobs, cfg.Jobs))
	}
	for _, lang := range cfg.Languages {
		if !knownLanguages[strings.ToLower(lang)] {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLanguage, lang))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateSemantic(cfg *SemanticConfig) error {
	var errs []error

	if cfg.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("%w: timeout_seconds cannot be negative, got %d", ErrInvalidTimeout, cfg.TimeoutSeconds))
	}
	for lang, idx := range cfg.Indexers {
		if !knownLanguages[strings.ToLower(lang)] {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLanguage, lang))
			continue
		}
		if idx.Enabled && strings.TrimSpace(idx.Binary) == "" {
			errs = append(errs, fmt.Errorf("%w: semantic.indexers.%s", ErrEmptyBinary, lang))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateStore(cfg *StoreConfig) error {
	var errs []error

	if strings.TrimSpace(cfg.StateDir) == "" {
		errs = append(errs, ErrEmptyStateDir)
	}
	if cfg.RetentionCommits < 0 {
		errs = append(errs, fmt.Errorf("%w: retention_commits cannot be negative, got %d", ErrInvalidRetention, cfg.RetentionCommits))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}

	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
