// Package builtin provides the standard pre-release validators. Importing
// the package registers them with the default validate registry.
package builtin

import (
	"github.com/input-output-hk/catalyst-forge-release/validate"
)

func init() {
	for _, v := range All() {
		validate.Default().MustRegister(v)
	}
}

// All returns a fresh instance of every built-in validator, in the order
// they should run.
func All() []validate.Validator {
	return []validate.Validator{
		&CleanWorktree{},
		&Branch{},
		&TagCollision{},
		&VersionConsistency{},
		&ChangelogFile{},
		&CIWorkflows{},
		&SecretScan{},
	}
}

// skipped reports whether the configuration disables the named validator.
func skipped(vctx *validate.Context, name string) bool {
	return vctx.Config != nil && vctx.Config.ValidatorSkipped(name)
}
