package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/specialistvlad/transformgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty/gocty"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	requestType = reflect.TypeOf(&Request{})
	filesType   = reflect.TypeOf([]string(nil))
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// ValidateRegistry checks every action's Go parts: the handler signature, the
// input constructor, and that each hcl-tagged input field has a cty type.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, name := range r.Names() {
		action := r.actions[name]
		if action.Fn == nil || action.NewInput == nil || action.InputType == nil {
			errs = append(errs, fmt.Sprintf("action '%s': Fn, NewInput and InputType are all required", name))
			continue
		}

		inputPtr := reflect.PointerTo(action.InputType)
		if got := reflect.TypeOf(action.NewInput()); got != inputPtr {
			errs = append(errs, fmt.Sprintf("action '%s': NewInput returns %s, want %s", name, got, inputPtr))
		}

		fnType := reflect.TypeOf(action.Fn)
		if fnType.Kind() != reflect.Func ||
			fnType.NumIn() != 3 || fnType.In(0) != contextType || fnType.In(1) != inputPtr || fnType.In(2) != requestType ||
			fnType.NumOut() != 2 || fnType.Out(0) != filesType || fnType.Out(1) != errorType {
			errs = append(errs, fmt.Sprintf("action '%s': handler has signature %s, want func(context.Context, %s, *registry.Request) ([]string, error)", name, fnType, inputPtr))
		}

		for i := 0; i < action.InputType.NumField(); i++ {
			field := action.InputType.Field(i)
			tag := strings.Split(field.Tag.Get("hcl"), ",")
			if !field.IsExported() || tag[0] == "" {
				continue
			}
			if len(tag) > 1 && (tag[1] == "remain" || tag[1] == "block" || tag[1] == "label") {
				continue
			}
			if _, err := gocty.ImpliedType(reflect.Zero(field.Type).Interface()); err != nil {
				errs = append(errs, fmt.Sprintf("action '%s', input '%s': could not imply cty type from Go field type %s: %v", name, tag[0], field.Type, err))
			}
		}
		logger.Debug("Action validated.", "action", name)
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
