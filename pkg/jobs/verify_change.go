// Package jobs defines the built-in job catalog. Each job is a factory
// registered under its command-line name.
package jobs

import (
	"github.com/jobforge/jobforge/pkg/actions"
	"github.com/jobforge/jobforge/pkg/engine"
	"github.com/jobforge/jobforge/pkg/registry"
)

func init() {
	registry.Register("verify-change", VerifyChange)
}

// VerifyChange builds the verification job run against a pending change:
// module download, a static-analysis stage checking test layout, vet and
// lint, then the test suite. The src_path and tests_path context values
// must be supplied by the caller; packages and lint_timeout default to
// "./..." and "5m".
func VerifyChange() (*engine.Job, error) {
	goTool := actions.NewTool("go")
	lint := actions.NewTool("golangci-lint")

	packages := engine.NewContextValue[string]("packages").WithDefault("./...")

	return engine.BuildJob("verify-change").
		Stage("setup", func(s *engine.StageBuilder) error {
			s.Step("download", goTool.Sub("mod").Action("download"))
			return nil
		}).
		Stage("static-analysis", func(s *engine.StageBuilder) error {
			s.Step("verify-test-layout", actions.NewVerifyTestLayout(
				engine.NewContextValue[string]("src_path"),
				engine.NewContextValue[string]("tests_path"),
			))
			s.Step("vet", goTool.Action("vet", packages))
			s.Step("lint", lint.Action("run", actions.Options{
				"timeout": engine.NewContextValue[string]("lint_timeout").WithDefault("5m"),
			}))
			return nil
		}).
		Stage("test", func(s *engine.StageBuilder) error {
			s.Step("test", goTool.Action("test", actions.Options{
				"count": 1,
			}, packages))
			return nil
		}).
		Build()
}
