package registry

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoInput struct {
	Suffix string `hcl:"suffix,optional"`
}

func echo(_ context.Context, in *echoInput, req *Request) ([]string, error) {
	out := make([]string, len(req.Files))
	for i, f := range req.Files {
		out[i] = f + in.Suffix
	}
	if in.Suffix == "!" {
		return out, errors.New("too loud")
	}
	return out, nil
}

func echoAction() *RegisteredAction {
	return &RegisteredAction{
		NewInput:  func() any { return new(echoInput) },
		InputType: reflect.TypeOf(echoInput{}),
		Fn:        echo,
	}
}

func TestRegisterAction(t *testing.T) {
	r := New()
	r.RegisterAction("echo", echoAction())
	r.RegisterAction("another", echoAction())

	assert.Equal(t, []string{"another", "echo"}, r.Names())
	_, ok := r.Action("echo")
	assert.True(t, ok)
	_, ok = r.Action("missing")
	assert.False(t, ok)

	assert.PanicsWithValue(t, "action with name 'echo' already registered", func() {
		r.RegisterAction("echo", echoAction())
	})
}

func TestInvoke(t *testing.T) {
	a := echoAction()
	ctx := context.Background()

	files, err := a.Invoke(ctx, &echoInput{Suffix: ".x"}, &Request{Files: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.x", "b.x"}, files)

	_, err = a.Invoke(ctx, &echoInput{Suffix: "!"}, &Request{Files: []string{"a"}})
	assert.EqualError(t, err, "too loud")
}

func TestValidateRegistry(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		r := New()
		r.RegisterAction("echo", echoAction())
		assert.NoError(t, r.ValidateRegistry(ctx))
	})

	t.Run("wrong signature", func(t *testing.T) {
		r := New()
		a := echoAction()
		a.Fn = func(ctx context.Context, in *echoInput) error { return nil }
		r.RegisterAction("bad", a)
		assert.ErrorContains(t, r.ValidateRegistry(ctx), "action 'bad': handler has signature")
	})

	t.Run("mismatched input constructor", func(t *testing.T) {
		r := New()
		a := echoAction()
		a.NewInput = func() any { return new(Request) }
		r.RegisterAction("bad", a)
		assert.ErrorContains(t, r.ValidateRegistry(ctx), "NewInput returns *registry.Request")
	})

	t.Run("field without cty type", func(t *testing.T) {
		type weird struct {
			C chan int `hcl:"c"`
		}
		r := New()
		r.RegisterAction("weird", &RegisteredAction{
			NewInput:  func() any { return new(weird) },
			InputType: reflect.TypeOf(weird{}),
			Fn:        func(context.Context, *weird, *Request) ([]string, error) { return nil, nil },
		})
		assert.ErrorContains(t, r.ValidateRegistry(ctx), "input 'c': could not imply cty type")
	})

	t.Run("missing parts", func(t *testing.T) {
		r := New()
		r.RegisterAction("empty", &RegisteredAction{})
		assert.ErrorContains(t, r.ValidateRegistry(ctx), "are all required")
	})
}
