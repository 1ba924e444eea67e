package extensibility

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/comalice/chartkit/internal/core"
	clog "github.com/comalice/chartkit/internal/log"
	"github.com/comalice/chartkit/internal/primitives"
)

// builtin resolves the fixed-prefix actions usable from documents:
//
//	raise:<event>      queue an internal event carrying the current payload
//	set:<key>=<value>  store a YAML scalar (see parseLiteral)
//	incr:<key>         add 1 to a numeric value, starting from 0
//	unset:<key>        delete a key
//	log:<message>      log at info level
func builtin(name string, log zerolog.Logger) (core.Action, bool, error) {
	verb, arg, ok := strings.Cut(name, ":")
	if !ok {
		return nil, false, nil
	}
	bad := func(format string, args ...any) (core.Action, bool, error) {
		return nil, false, fmt.Errorf("action %q: "+format, append([]any{name}, args...)...)
	}
	switch verb {
	case "raise":
		if err := primitives.ValidateEventName(arg); err != nil {
			return bad("%w", err)
		}
		return func(sc *core.Scope) error {
			sc.Raise(arg, sc.Event().Data)
			return nil
		}, true, nil
	case "set":
		key, raw, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return bad("want set:<key>=<value>")
		}
		val := parseLiteral(strings.TrimSpace(raw))
		return func(sc *core.Scope) error {
			sc.Data().Set(key, val)
			return nil
		}, true, nil
	case "incr":
		if arg == "" {
			return bad("missing key")
		}
		return func(sc *core.Scope) error {
			cur, _ := sc.Data().Get(arg)
			next, err := increment(cur)
			if err != nil {
				return fmt.Errorf("incr %s: %w", arg, err)
			}
			sc.Data().Set(arg, next)
			return nil
		}, true, nil
	case "unset":
		if arg == "" {
			return bad("missing key")
		}
		return func(sc *core.Scope) error {
			sc.Data().Delete(arg)
			return nil
		}, true, nil
	case "log":
		return func(sc *core.Scope) error {
			log.Info().
				Str(clog.FieldInstance, sc.Instance().ID()).
				Str(clog.FieldState, sc.State()).
				Stringer(clog.FieldPhase, sc.Phase()).
				Str(clog.FieldEvent, sc.Event().Type).
				Msg(arg)
			return nil
		}, true, nil
	}
	return nil, false, nil
}

// parseLiteral reads raw as a YAML scalar: true, 42, 2.5, null, "quoted" or
// bare text. Anything YAML rejects is kept as the raw string.
func parseLiteral(raw string) any {
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

func increment(v any) (any, error) {
	switch n := v.(type) {
	case nil:
		return 1, nil
	case int:
		return n + 1, nil
	case int64:
		return n + 1, nil
	case float64:
		return n + 1, nil
	}
	return nil, fmt.Errorf("value %v (%T) is not numeric", v, v)
}
