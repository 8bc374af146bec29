package memo

import "context"

// FuncI1 memoizes a one-argument operation.
func FuncI1[I1, O any](fn func(I1) (O, error), cfg Config) func(I1) (O, error) {
	m := New(func(args ...any) (O, error) {
		return fn(argAt[I1](args, 0))
	}, cfg)
	return func(i1 I1) (O, error) {
		return m.Invoke(i1)
	}
}

func FuncI2[I1, I2, O any](fn func(I1, I2) (O, error), cfg Config) func(I1, I2) (O, error) {
	m := New(func(args ...any) (O, error) {
		return fn(argAt[I1](args, 0), argAt[I2](args, 1))
	}, cfg)
	return func(i1 I1, i2 I2) (O, error) {
		return m.Invoke(i1, i2)
	}
}

func FuncI3[I1, I2, I3, O any](fn func(I1, I2, I3) (O, error), cfg Config) func(I1, I2, I3) (O, error) {
	m := New(func(args ...any) (O, error) {
		return fn(argAt[I1](args, 0), argAt[I2](args, 1), argAt[I3](args, 2))
	}, cfg)
	return func(i1 I1, i2 I2, i3 I3) (O, error) {
		return m.Invoke(i1, i2, i3)
	}
}

func FuncI4[I1, I2, I3, I4, O any](fn func(I1, I2, I3, I4) (O, error), cfg Config) func(I1, I2, I3, I4) (O, error) {
	m := New(func(args ...any) (O, error) {
		return fn(argAt[I1](args, 0), argAt[I2](args, 1), argAt[I3](args, 2), argAt[I4](args, 3))
	}, cfg)
	return func(i1 I1, i2 I2, i3 I3, i4 I4) (O, error) {
		return m.Invoke(i1, i2, i3, i4)
	}
}

// PureI1O1 memoizes a pure function that cannot fail. With no error to
// return, an argument that has no canonical key panics with the
// *KeyDerivationError.
func PureI1O1[I1, O any](pureFn func(I1) O, cfg Config) func(I1) O {
	m := New(func(args ...any) (O, error) {
		return pureFn(argAt[I1](args, 0)), nil
	}, cfg)
	return func(i1 I1) O {
		return must(m.Invoke(i1))
	}
}

func PureI2O1[I1, I2, O any](pureFn func(I1, I2) O, cfg Config) func(I1, I2) O {
	m := New(func(args ...any) (O, error) {
		return pureFn(argAt[I1](args, 0), argAt[I2](args, 1)), nil
	}, cfg)
	return func(i1 I1, i2 I2) O {
		return must(m.Invoke(i1, i2))
	}
}

func must[O any](o O, err error) O {
	if err != nil {
		panic(err)
	}
	return o
}

// AsyncI1 memoizes a one-argument asynchronous operation.
func AsyncI1[I1, O any](fn func(context.Context, I1) (O, error), cfg Config) func(context.Context, I1) <-chan Result[O] {
	m := NewAsync(func(ctx context.Context, args ...any) (O, error) {
		return fn(ctx, argAt[I1](args, 0))
	}, cfg)
	return func(ctx context.Context, i1 I1) <-chan Result[O] {
		return m.Invoke(ctx, i1)
	}
}

func AsyncI2[I1, I2, O any](fn func(context.Context, I1, I2) (O, error), cfg Config) func(context.Context, I1, I2) <-chan Result[O] {
	m := NewAsync(func(ctx context.Context, args ...any) (O, error) {
		return fn(ctx, argAt[I1](args, 0), argAt[I2](args, 1))
	}, cfg)
	return func(ctx context.Context, i1 I1, i2 I2) <-chan Result[O] {
		return m.Invoke(ctx, i1, i2)
	}
}

// argAt reads back an argument the typed wrapper put there itself. The
// comma-ok form keeps a nil interface argument from panicking.
func argAt[T any](args []any, i int) T {
	v, _ := args[i].(T)
	return v
}
