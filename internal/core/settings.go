package core

// Persistent setting keys. These rows are written once (on first mount)
// and, for the locked subset, never again — see LockedSettingKeys and C8's
// reconciliation contract in SPEC_FULL.md.
const (
	SettingStorageBackend    = "storage_backend"
	SettingUseHashAsFilename = "use_hash_as_filename"
	SettingEncryptionEnabled = "encryption_enabled"
	SettingCompressionFamily = "compression_family"
	SettingPBKDF2Salt        = "pbkdf2_salt_scheme"
	SettingNonceScheme       = "aead_nonce_scheme"
	SettingCompressionLevel  = "compression_level"
	SettingSchemaVersion     = "schema_version"
)

// LockedSettingKeys names the subset of persistent_settings that C8 refuses
// to let change between mounts once written.
var LockedSettingKeys = []string{
	SettingStorageBackend,
	SettingUseHashAsFilename,
	SettingEncryptionEnabled,
	SettingCompressionFamily,
}

// Settings is the in-memory view of the persistent_settings table.
type Settings map[string]string

// Get returns the value for key, or "" if absent.
func (s Settings) Get(key string) string { return s[key] }
