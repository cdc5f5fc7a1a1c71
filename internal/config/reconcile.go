package config

import (
	"strconv"

	"innerfs/internal/core"
)

// Reconcile compares cfg against the persisted settings in store, per C8.
// On first mount (no settings rows yet) it writes the locked subset from
// cfg. On every later mount it refuses to proceed if any locked setting
// disagrees with what was persisted, returning a KindIncompatibleConfig
// error naming the first mismatch found.
func Reconcile(store core.MetadataStore, cfg *Config) error {
	// spec.md §4.1: path-form object naming is never safe once encryption
	// is on, since the hashed form is the only one that keeps dedup intact
	// for ciphertext; C8 refuses to start rather than silently upgrading
	// the user's choice.
	if cfg.Encrypted() && !cfg.UseHashAsFilename {
		return core.NewError(core.KindIncompatibleConfig, "config.reconcile", "use_hash_as_filename", nil)
	}

	existing, err := store.AllSettings()
	if err != nil {
		return err
	}

	desired := core.Settings{
		core.SettingStorageBackend:    cfg.Type,
		core.SettingUseHashAsFilename: strconv.FormatBool(cfg.UseHashAsFilename),
		core.SettingEncryptionEnabled: strconv.FormatBool(cfg.Encrypted()),
		core.SettingCompressionFamily: compressionFamily(cfg),
	}

	if len(existing) == 0 {
		for _, key := range core.LockedSettingKeys {
			if err := store.SetSetting(key, desired[key]); err != nil {
				return err
			}
		}
		return nil
	}

	for _, key := range core.LockedSettingKeys {
		have, ok := existing[key]
		if !ok {
			if err := store.SetSetting(key, desired[key]); err != nil {
				return err
			}
			continue
		}
		if have != desired[key] {
			return core.NewError(core.KindIncompatibleConfig, "config.reconcile", key, nil)
		}
	}
	return nil
}

// compressionFamily reports the compressor family name persisted for this
// config, or "" when compression is off (forced off whenever encryption is
// enabled, or when CompressionLevel is 0).
func compressionFamily(cfg *Config) string {
	if cfg.Encrypted() || cfg.CompressionLevel <= 0 {
		return ""
	}
	return "gzip"
}
