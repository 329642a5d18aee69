package actions

import "sort"

// Tool builds command lines for CLI tools like git or docker by
// chaining subcommands and converting option maps to flags.
//
//	git := actions.NewTool("git")
//	git.Sub("clone").Command("https://example.com/repo.git",
//		actions.Options{"depth": 1})
//	// git clone https://example.com/repo.git --depth 1
//
// Subcommand underscores become dashes, so Sub("remote_add") yields
// "remote-add". A Tool is immutable; Sub returns a new Tool.
type Tool struct {
	parts []string
	shell *Shell
}

// Options maps option names to values for Command and Action. The
// conversion rules follow common CLI conventions:
//
//   - nil and false values are dropped
//   - true emits the bare flag
//   - single-letter names become short flags ("v" to "-v")
//   - longer names become kebab-cased long flags ("logLevel" to
//     "--log-level"); names already starting with "-" pass through
//   - slice values repeat after the flag, flattened
//
// Options are emitted in sorted name order.
type Options map[string]any

// NewTool returns a Tool for the given command parts.
func NewTool(parts ...string) *Tool {
	return &Tool{parts: parts}
}

// WithShell sets the Shell that actions built from this Tool run with.
func (t *Tool) WithShell(s *Shell) *Tool {
	return &Tool{parts: t.parts, shell: s}
}

// Sub returns a new Tool with the given subcommands appended.
func (t *Tool) Sub(names ...string) *Tool {
	parts := make([]string, 0, len(t.parts)+len(names))
	parts = append(parts, t.parts...)
	parts = append(parts, names...)
	return &Tool{parts: parts, shell: t.shell}
}

// Command assembles the full command line. Arguments may include nested
// slices, which are flattened, and nils, which are dropped. An Options
// value anywhere in args is converted to flags and appended after the
// positional arguments. Non-string elements may be resolvable values;
// they pass through untouched for the executing action to resolve.
func (t *Tool) Command(args ...any) []any {
	out := make([]any, 0, len(t.parts)+len(args))
	for _, part := range t.parts {
		out = append(out, ToKebab(part))
	}
	positional, options := splitArgs(args)
	out = append(out, flattenArgs(positional)...)
	out = append(out, optionArgs(options)...)
	return out
}

// Action returns a ShellAction for the assembled command. The action
// publishes output through the status collector, so the shell itself
// stays quiet.
func (t *Tool) Action(args ...any) *ShellAction {
	action := NewShellAction(t.Command(args...)...)
	shell := t.shell
	if shell == nil {
		shell = NewShell()
	}
	return action.WithShell(shell.With(Silent()))
}

func splitArgs(args []any) ([]any, Options) {
	positional := make([]any, 0, len(args))
	options := Options{}
	for _, arg := range args {
		if opts, ok := arg.(Options); ok {
			for k, v := range opts {
				options[k] = v
			}
			continue
		}
		positional = append(positional, arg)
	}
	return positional, options
}

func flattenArgs(args []any) []any {
	var out []any
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue
		case []any:
			out = append(out, flattenArgs(v)...)
		case []string:
			for _, s := range v {
				out = append(out, s)
			}
		default:
			out = append(out, arg)
		}
	}
	return out
}

func optionArgs(options Options) []any {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []any
	for _, key := range keys {
		value := options[key]
		if value == nil || value == false {
			continue
		}
		out = append(out, flagName(key))
		switch v := value.(type) {
		case bool:
			// true emits the bare flag only
		case []any:
			out = append(out, flattenArgs(v)...)
		case []string:
			for _, s := range v {
				out = append(out, s)
			}
		default:
			out = append(out, v)
		}
	}
	return out
}

func flagName(key string) string {
	if len(key) > 0 && key[0] == '-' {
		return key
	}
	if len(key) == 1 {
		return "-" + key
	}
	return "--" + ToKebab(key)
}
