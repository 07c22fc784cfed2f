package bridge

import (
	"encoding/json"
	"fmt"
)

func decodeArg[T any](args []json.RawMessage, i int) (T, error) {
	var v T
	if err := json.Unmarshal(args[i], &v); err != nil {
		return v, fmt.Errorf("%w: argument %d: %v", ErrBadArguments, i, err)
	}
	return v, nil
}

func method0[R any](fn func() (R, error)) binding {
	return binding{arity: 0, invoke: func(args []json.RawMessage) (any, error) {
		return fn()
	}}
}

func method1[A, R any](fn func(A) (R, error)) binding {
	return binding{arity: 1, invoke: func(args []json.RawMessage) (any, error) {
		a, err := decodeArg[A](args, 0)
		if err != nil {
			return nil, err
		}
		return fn(a)
	}}
}

func method2[A, B, R any](fn func(A, B) (R, error)) binding {
	return binding{arity: 2, invoke: func(args []json.RawMessage) (any, error) {
		a, err := decodeArg[A](args, 0)
		if err != nil {
			return nil, err
		}
		b, err := decodeArg[B](args, 1)
		if err != nil {
			return nil, err
		}
		return fn(a, b)
	}}
}

func action1[A any](fn func(A) error) binding {
	return binding{arity: 1, invoke: func(args []json.RawMessage) (any, error) {
		a, err := decodeArg[A](args, 0)
		if err != nil {
			return nil, err
		}
		return nil, fn(a)
	}}
}

func action2[A, B any](fn func(A, B) error) binding {
	return binding{arity: 2, invoke: func(args []json.RawMessage) (any, error) {
		a, err := decodeArg[A](args, 0)
		if err != nil {
			return nil, err
		}
		b, err := decodeArg[B](args, 1)
		if err != nil {
			return nil, err
		}
		return nil, fn(a, b)
	}}
}
